package login

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"

	"github.com/dropDatabas3/clouddrive/internal/cache"
	"github.com/dropDatabas3/clouddrive/internal/metrics"
	"github.com/dropDatabas3/clouddrive/internal/observability/logger"
	"github.com/dropDatabas3/clouddrive/internal/security/secretbox"
)

const (
	codeKeyPrefix     = "login:code:"
	defaultCodeTTL    = 5 * time.Minute
	defaultContextTTL = 10 * time.Minute
)

// pendingRecord es lo que se guarda en cache por cada código emitido.
type pendingRecord struct {
	User       string `json:"user"`
	Password   string `json:"password"`
	Sealed     bool   `json:"sealed,omitempty"`
	ServiceURL string `json:"service_url"`
	CreatedAt  int64  `json:"created_at"`
}

// Options configura CodeAuthentication.
type Options struct {
	// Cache guarda los códigos pendientes (memory o redis).
	Cache cache.Client
	// Box sella la contraseña en cache. Opcional.
	Box        *secretbox.Box
	CodeTTL    time.Duration
	ContextTTL time.Duration
}

// CodeAuthentication emite códigos de un solo uso para credenciales CMIS y
// los intercambia por identidades.
type CodeAuthentication struct {
	cache      cache.Client
	box        *secretbox.Box
	codeTTL    time.Duration
	contextTTL time.Duration
	// identidades ya intercambiadas, a la espera del contexto
	exchanged *gocache.Cache
	stop      func()
	ownsCache bool
}

// New crea el autenticador. Si opts.Cache es nil usa cache en memoria.
func New(opts Options) *CodeAuthentication {
	c, owns := opts.Cache, false
	if c == nil {
		c, owns = cache.NewMemory(""), true
	}
	codeTTL := opts.CodeTTL
	if codeTTL <= 0 {
		codeTTL = defaultCodeTTL
	}
	ctxTTL := opts.ContextTTL
	if ctxTTL <= 0 {
		ctxTTL = defaultContextTTL
	}
	exchanged := gocache.New(ctxTTL, 0)
	return &CodeAuthentication{
		cache:      c,
		box:        opts.Box,
		codeTTL:    codeTTL,
		contextTTL: ctxTTL,
		exchanged:  exchanged,
		stop:       cache.Sweep(exchanged, ctxTTL),
		ownsCache:  owns,
	}
}

// Close detiene la limpieza de identidades expiradas. La cache de códigos
// solo se cierra si la creó New.
func (a *CodeAuthentication) Close() error {
	a.stop()
	if a.ownsCache {
		return a.cache.Close()
	}
	return nil
}

// CreateCode guarda las credenciales y retorna el código que las representa.
func (a *CodeAuthentication) CreateCode(ctx context.Context, user, password, serviceURL string) (string, error) {
	user, serviceURL = strings.TrimSpace(user), strings.TrimSpace(serviceURL)
	if user == "" || password == "" || serviceURL == "" {
		return "", ErrInvalidInput
	}

	rec := pendingRecord{User: user, Password: password, ServiceURL: serviceURL, CreatedAt: time.Now().Unix()}
	if a.box != nil {
		sealed, err := a.box.Seal(password)
		if err != nil {
			return "", fmt.Errorf("login: seal password: %w", err)
		}
		rec.Password, rec.Sealed = sealed, true
	}
	b, err := json.Marshal(rec)
	if err != nil {
		return "", fmt.Errorf("login: encode: %w", err)
	}

	code := uuid.NewString()
	if err := a.cache.Set(ctx, codeKeyPrefix+code, string(b), a.codeTTL); err != nil {
		return "", fmt.Errorf("login: store code: %w", err)
	}
	metrics.LoginCodes.WithLabelValues("created").Inc()
	logger.From(ctx).Debug("login code created",
		logger.Component("login"), logger.CodePrefix(code), logger.CloudUser(user))
	return code, nil
}

// ExchangeCode consume el código (una sola vez) y retorna la identidad. La
// identidad queda disponible para SetCodeContext durante ContextTTL.
func (a *CodeAuthentication) ExchangeCode(ctx context.Context, code string) (*Identity, error) {
	raw, err := a.cache.Take(ctx, codeKeyPrefix+code)
	if err != nil {
		metrics.LoginCodes.WithLabelValues("rejected").Inc()
		if cache.IsNotFound(err) {
			return nil, &AuthenticationError{Message: "Invalid code", Err: ErrUnknownCode}
		}
		return nil, &AuthenticationError{Message: "Code storage unavailable", Err: err}
	}

	var rec pendingRecord
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		metrics.LoginCodes.WithLabelValues("rejected").Inc()
		return nil, &AuthenticationError{Message: "Corrupted code record", Err: err}
	}
	password := rec.Password
	if rec.Sealed {
		if a.box == nil {
			return nil, &AuthenticationError{Message: "Cannot open sealed password", Err: secretbox.ErrNoKey}
		}
		if password, err = a.box.Open(rec.Password); err != nil {
			return nil, &AuthenticationError{Message: "Cannot open sealed password", Err: err}
		}
	}

	id := NewIdentity(rec.User, password, rec.ServiceURL)
	a.exchanged.Set(code, id, gocache.DefaultExpiration)
	metrics.LoginCodes.WithLabelValues("exchanged").Inc()
	logger.From(ctx).Debug("login code exchanged",
		logger.Component("login"), logger.CodePrefix(code), logger.CloudUser(rec.User))
	return id, nil
}

// SetCodeContext asigna el repositorio a la identidad de un código ya
// intercambiado.
func (a *CodeAuthentication) SetCodeContext(code, serviceContext string) error {
	if strings.TrimSpace(serviceContext) == "" {
		return fmt.Errorf("login: empty context")
	}
	v, ok := a.exchanged.Get(code)
	if !ok {
		return ErrUnknownCode
	}
	v.(*Identity).setServiceContext(serviceContext)
	metrics.LoginCodes.WithLabelValues("context").Inc()
	return nil
}
