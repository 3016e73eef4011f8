// Package login implementa la autenticación por código del conector CMIS:
// el formulario de login deja las credenciales del usuario bajo un código
// opaco de un solo uso y el conector lo intercambia por una Identity.
package login

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Identity son las credenciales de un usuario en un servicio CMIS. El
// contexto (repositorio elegido) puede asignarse después del intercambio y
// se comparte por puntero con el conector.
type Identity struct {
	User       string
	Password   string
	ServiceURL string

	mu      sync.RWMutex
	context string
}

// NewIdentity crea una identidad sin contexto.
func NewIdentity(user, password, serviceURL string) *Identity {
	return &Identity{User: user, Password: password, ServiceURL: serviceURL}
}

// ServiceContext retorna el repositorio elegido o "" si aún no se eligió.
func (i *Identity) ServiceContext() string {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.context
}

func (i *Identity) setServiceContext(ctx string) {
	i.mu.Lock()
	i.context = ctx
	i.mu.Unlock()
}

// Authenticator intercambia códigos de acceso por identidades.
type Authenticator interface {
	ExchangeCode(ctx context.Context, code string) (*Identity, error)
}

// AuthenticationError es el error de un intercambio fallido.
type AuthenticationError struct {
	Message string
	Err     error
}

func (e *AuthenticationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AuthenticationError) Unwrap() error { return e.Err }

// Errores de CodeAuthentication.
var (
	ErrUnknownCode  = errors.New("login: unknown or expired code")
	ErrInvalidInput = errors.New("login: user, password and service URL required")
)
