// Package login contiene el controller del formulario de login de los
// proveedores con autenticación por código.
package login

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/dropDatabas3/clouddrive/internal/audit"
	"github.com/dropDatabas3/clouddrive/internal/clouddrive"
	"github.com/dropDatabas3/clouddrive/internal/http/dto"
	httperrors "github.com/dropDatabas3/clouddrive/internal/http/errors"
	"github.com/dropDatabas3/clouddrive/internal/http/helpers"
	"github.com/dropDatabas3/clouddrive/internal/observability/logger"
)

// CodeIssuer emite códigos de acceso para credenciales.
type CodeIssuer interface {
	CreateCode(ctx context.Context, user, password, serviceURL string) (string, error)
}

// ConnectorLookup resuelve conectores por proveedor.
type ConnectorLookup interface {
	Connector(providerID string) (clouddrive.Connector, error)
	Providers() []clouddrive.Provider
}

// redirecter lo implementan proveedores que conocen su endpoint de conexión.
type redirecter interface {
	RedirectURL() string
}

// predefiner lo implementan proveedores con servicios predefinidos.
type predefiner interface {
	Predefined() []clouddrive.PredefinedService
}

// Controller maneja /portal/clouddrive/{provider}/login.
type Controller struct {
	connectors ConnectorLookup
	codes      CodeIssuer
}

// NewController crea el controller.
func NewController(connectors ConnectorLookup, codes CodeIssuer) *Controller {
	return &Controller{connectors: connectors, codes: codes}
}

// Providers lista los proveedores registrados con su auth URL.
func (c *Controller) Providers(w http.ResponseWriter, _ *http.Request) {
	list := c.connectors.Providers()
	out := make([]dto.ProviderInfo, 0, len(list))
	for _, p := range list {
		out = append(out, dto.ProviderInfo{ID: p.ID(), Name: p.Name(), AuthURL: p.AuthURL()})
	}
	helpers.WriteJSON(w, http.StatusOK, out)
}

// Form maneja GET: describe el formulario de login.
func (c *Controller) Form(w http.ResponseWriter, r *http.Request) {
	provider, err := c.provider(r)
	if err != nil {
		httperrors.WriteError(w, err)
		return
	}
	redirect, err := redirectFor(provider, r.URL.Query().Get("redirect_uri"))
	if err != nil {
		httperrors.WriteError(w, err)
		return
	}

	form := dto.LoginForm{
		Provider:     provider.ID(),
		ProviderName: provider.Name(),
		Action:       r.URL.Path,
		State:        r.URL.Query().Get("state"),
		RedirectURI:  redirect,
		Fields:       []string{"user", "password", "service_url"},
	}
	if p, ok := provider.(predefiner); ok {
		for _, s := range p.Predefined() {
			form.Predefined = append(form.Predefined, dto.PredefinedService{Name: s.Name, URL: s.URL})
		}
	}
	helpers.WriteJSON(w, http.StatusOK, form)
}

// Submit maneja POST: guarda las credenciales bajo un código y redirige al
// endpoint de conexión con code y state.
func (c *Controller) Submit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("LoginController.Submit"))

	provider, err := c.provider(r)
	if err != nil {
		httperrors.WriteError(w, err)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, 64<<10)
	if err := r.ParseForm(); err != nil {
		httperrors.WriteError(w, httperrors.ErrBadRequest.WithCause(err))
		return
	}
	redirect, err := redirectFor(provider, r.PostForm.Get("redirect_uri"))
	if err != nil {
		httperrors.WriteError(w, err)
		return
	}

	code, err := c.codes.CreateCode(ctx,
		r.PostForm.Get("user"),
		r.PostForm.Get("password"),
		r.PostForm.Get("service_url"),
	)
	if err != nil {
		log.Debug("login rejected", logger.Err(err))
		httperrors.WriteError(w, err)
		return
	}

	q := url.Values{}
	q.Set("code", code)
	q.Set("state", r.PostForm.Get("state"))
	sep := "?"
	if strings.Contains(redirect, "?") {
		sep = "&"
	}
	audit.Log(ctx, audit.EventCodeIssued,
		logger.Provider(provider.ID()),
		logger.CodePrefix(code),
		logger.CloudUser(r.PostForm.Get("user")),
	)
	http.Redirect(w, r, redirect+sep+q.Encode(), http.StatusFound)
}

func (c *Controller) provider(r *http.Request) (clouddrive.Provider, error) {
	conn, err := c.connectors.Connector(chi.URLParam(r, "provider"))
	if err != nil {
		return nil, err
	}
	return conn.Provider(), nil
}

// redirectFor valida redirect_uri contra el endpoint de conexión del
// proveedor. Vacío = el endpoint del proveedor.
func redirectFor(p clouddrive.Provider, requested string) (string, error) {
	rp, ok := p.(redirecter)
	if !ok {
		if requested == "" {
			return "", httperrors.ErrMissingFields.WithDetail("redirect_uri requerido")
		}
		return requested, nil
	}
	if requested == "" || requested == rp.RedirectURL() {
		return rp.RedirectURL(), nil
	}
	return "", httperrors.ErrBadRequest.WithDetail("redirect_uri no permitido")
}
