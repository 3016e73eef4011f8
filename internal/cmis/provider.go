package cmis

import (
	"net/url"

	"github.com/dropDatabas3/clouddrive/internal/clouddrive"
)

// Provider es el proveedor CMIS.
type Provider struct {
	id   string
	name string
	// loginURL y redirectURL sin query
	loginURL    string
	redirectURL string
	// state retorna el state a embeber en cada AuthURL
	state func() string

	predefined []clouddrive.PredefinedService
}

func (p *Provider) ID() string { return p.id }

func (p *Provider) Name() string { return p.name }

// AuthURL es la página de login del portal para este proveedor.
func (p *Provider) AuthURL() string {
	st := NoState
	if p.state != nil {
		st = p.state()
	}
	return p.loginURL + "?state=" + url.QueryEscape(st) + "&redirect_uri=" + url.QueryEscape(p.redirectURL)
}

// RedirectURL es el endpoint de conexión al que vuelve el login.
func (p *Provider) RedirectURL() string { return p.redirectURL }

// InitPredefined reemplaza la lista de servicios predefinidos.
func (p *Provider) InitPredefined(services []clouddrive.PredefinedService) {
	p.predefined = append([]clouddrive.PredefinedService(nil), services...)
}

// Predefined retorna los servicios CMIS ofrecidos en el login.
func (p *Provider) Predefined() []clouddrive.PredefinedService {
	return append([]clouddrive.PredefinedService(nil), p.predefined...)
}
