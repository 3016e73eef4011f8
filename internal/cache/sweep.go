package cache

import (
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Sweep borra los items expirados de c cada every hasta que se llame a la
// función retornada. Se usa en lugar del janitor de go-cache, que solo se
// detiene cuando el GC recolecta la cache. stop es idempotente y espera a que
// la goroutine termine.
func Sweep(c *gocache.Cache, every time.Duration) (stop func()) {
	if every <= 0 {
		every = time.Minute
	}
	done := make(chan struct{})
	exited := make(chan struct{})
	go func() {
		defer close(exited)
		tick := time.NewTicker(every)
		defer tick.Stop()
		for {
			select {
			case <-tick.C:
				c.DeleteExpired()
			case <-done:
				return
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			close(done)
			<-exited
		})
	}
}
