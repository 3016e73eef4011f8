package cmis

import (
	"github.com/dropDatabas3/clouddrive/internal/clouddrive"
)

// User es un usuario de un servicio CMIS. Su id, nombre y email son el
// nombre de usuario CMIS. Queda pendiente hasta que tenga repositorio.
type User struct {
	api      *API
	provider *Provider
}

func newUser(api *API, provider *Provider) *User {
	return &User{api: api, provider: provider}
}

func (u *User) ID() string { return u.api.User() }

func (u *User) Username() string { return u.api.User() }

func (u *User) Email() string { return u.api.User() }

func (u *User) Provider() clouddrive.Provider { return u.provider }

func (u *User) API() *API { return u.api }

func (u *User) SetCurrentRepository(repo string) { u.api.SetRepository(repo) }

func (u *User) CurrentRepository() string { return u.api.Repository() }

// Pending es true mientras no se haya elegido repositorio.
func (u *User) Pending() bool { return u.api.Repository() == "" }

func (u *User) String() string { return u.api.User() + "@" + u.api.ServiceURL() }
