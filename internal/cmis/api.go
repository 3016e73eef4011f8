// Package cmis conecta repositorios CMIS como drives. La autenticación es en
// dos pasos: el código del formulario de login se intercambia por una
// identidad y el usuario queda pendiente hasta que se elige el repositorio.
package cmis

import (
	"strings"
	"sync"

	"github.com/dropDatabas3/clouddrive/internal/clouddrive"
)

// NoState es el state del auth URL cuando no hay firma configurada.
const NoState = "__no_state_set__"

// API es el handle de conexión a un servicio CMIS. Solo mantiene los
// parámetros de conexión; el repositorio se elige después de autenticar.
type API struct {
	serviceURL string
	user       string
	password   string

	mu         sync.RWMutex
	repository string
}

func (a *API) ServiceURL() string { return a.serviceURL }

func (a *API) User() string { return a.user }

// Repository retorna el repositorio actual o "".
func (a *API) Repository() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.repository
}

func (a *API) SetRepository(repo string) {
	a.mu.Lock()
	a.repository = repo
	a.mu.Unlock()
}

// hasCredentials es false para APIs reconstruidas desde un nodo.
func (a *API) hasCredentials() bool { return a.password != "" }

// apiBuilder arma un API validando los parámetros.
type apiBuilder struct {
	user     string
	password string
	url      string
}

func newAPIBuilder() *apiBuilder { return &apiBuilder{} }

func (b *apiBuilder) auth(user, password string) *apiBuilder {
	b.user, b.password = user, password
	return b
}

func (b *apiBuilder) serviceURL(url string) *apiBuilder {
	b.url = url
	return b
}

func (b *apiBuilder) build() (*API, error) {
	if strings.TrimSpace(b.user) == "" || b.password == "" {
		return nil, clouddrive.NewError("Cannot create API: user required")
	}
	if strings.TrimSpace(b.url) == "" {
		return nil, clouddrive.NewError("Cannot create API: service URL required")
	}
	return &API{serviceURL: strings.TrimSpace(b.url), user: strings.TrimSpace(b.user), password: b.password}, nil
}

// restoreAPI reconstruye un API sin credenciales desde un drive guardado.
func restoreAPI(serviceURL, user, repository string) *API {
	return &API{serviceURL: serviceURL, user: user, repository: repository}
}
