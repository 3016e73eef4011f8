package cmis

import (
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/dropDatabas3/clouddrive/internal/cache"
	"github.com/dropDatabas3/clouddrive/internal/cmis/login"
)

// authFlow es un flujo de autenticación esperando el segundo paso.
type authFlow struct {
	user     *User
	identity *login.Identity
}

// flowTable asocia códigos a flujos pendientes. take es atómico: un código
// solo puede completarse una vez.
type flowTable struct {
	mu   sync.Mutex
	c    *gocache.Cache
	stop func()
}

func newFlowTable(ttl time.Duration, onChange func(n int)) *flowTable {
	cleanup := ttl / 2
	if cleanup < time.Second {
		cleanup = time.Second
	}
	c := gocache.New(ttl, 0)
	if onChange != nil {
		c.OnEvicted(func(string, interface{}) { onChange(c.ItemCount()) })
	}
	return &flowTable{c: c, stop: cache.Sweep(c, cleanup)}
}

// close detiene la limpieza de flujos expirados.
func (t *flowTable) close() { t.stop() }

// put guarda (o reemplaza) el flujo del código.
func (t *flowTable) put(code string, f authFlow) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.c.SetDefault(code, f)
}

// take retorna y elimina el flujo del código.
func (t *flowTable) take(code string) (authFlow, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	v, ok := t.c.Get(code)
	if !ok {
		return authFlow{}, false
	}
	t.c.Delete(code)
	return v.(authFlow), true
}

func (t *flowTable) len() int { return t.c.ItemCount() }
