// Package dto define los cuerpos de request y response de la API.
package dto

import (
	"time"

	"github.com/dropDatabas3/clouddrive/internal/clouddrive"
	"github.com/dropDatabas3/clouddrive/internal/nodes"
	"github.com/dropDatabas3/clouddrive/internal/nodetypes"
)

// PredefinedService es un servicio ofrecido en el formulario de login.
type PredefinedService struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// LoginForm describe el formulario de login de un proveedor.
type LoginForm struct {
	Provider     string              `json:"provider"`
	ProviderName string              `json:"provider_name"`
	Action       string              `json:"action"`
	State        string              `json:"state"`
	RedirectURI  string              `json:"redirect_uri"`
	Fields       []string            `json:"fields"`
	Predefined   []PredefinedService `json:"predefined,omitempty"`
}

// ProviderInfo describe un proveedor registrado.
type ProviderInfo struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	AuthURL string `json:"auth_url"`
}

// ContextRequest asigna el repositorio a un código ya intercambiado.
type ContextRequest struct {
	Code       string `json:"code"`
	Repository string `json:"repository"`
}

// PendingResponse es la respuesta del primer paso de conexión.
type PendingResponse struct {
	Status     string `json:"status"`
	Provider   string `json:"provider"`
	User       string `json:"user"`
	ContextURL string `json:"context_url"`
}

// Drive es la representación de un drive.
type Drive struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Path        string     `json:"path"`
	Provider    string     `json:"provider"`
	LocalUser   string     `json:"local_user"`
	CloudUser   string     `json:"cloud_user,omitempty"`
	Email       string     `json:"email,omitempty"`
	ServiceURL  string     `json:"service_url"`
	Connected   bool       `json:"connected"`
	ConnectDate *time.Time `json:"connect_date,omitempty"`
	Created     bool       `json:"created,omitempty"`
	AutoSync    bool       `json:"autosync"`
}

// DriveFromNode arma el DTO desde el nodo raíz de un drive.
func DriveFromNode(n *nodes.Node) Drive {
	d := Drive{
		ID:         n.String(nodetypes.PropID),
		Title:      n.String(nodetypes.PropTitle),
		Path:       n.Path,
		Provider:   n.String(nodetypes.PropProvider),
		LocalUser:  n.String(nodetypes.PropLocalUserName),
		CloudUser:  n.String(nodetypes.PropCloudUserName),
		Email:      n.String(nodetypes.PropUserEmail),
		ServiceURL: n.String(nodetypes.PropURL),
		Connected:  n.Bool(nodetypes.PropConnected),
	}
	if t := n.Time(nodetypes.PropConnectDate); !t.IsZero() {
		d.ConnectDate = &t
	}
	return d
}

// DriveFrom arma el DTO de un drive.
func DriveFrom(d clouddrive.Drive) Drive {
	return DriveFromNode(d.Node())
}
