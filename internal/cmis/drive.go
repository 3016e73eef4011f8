package cmis

import (
	"github.com/dropDatabas3/clouddrive/internal/clouddrive"
	"github.com/dropDatabas3/clouddrive/internal/nodes"
	"github.com/dropDatabas3/clouddrive/internal/nodetypes"
)

// Drive es un drive CMIS montado en un nodo.
type Drive struct {
	node *nodes.Node
	user *User
}

func newDrive(node *nodes.Node, user *User) *Drive {
	return &Drive{node: node, user: user}
}

func (d *Drive) ID() string { return d.node.String(nodetypes.PropID) }

func (d *Drive) Title() string { return d.node.String(nodetypes.PropTitle) }

func (d *Drive) User() clouddrive.User { return d.user }

func (d *Drive) Node() *nodes.Node { return d.node }

func (d *Drive) IsConnected() bool { return d.node.Bool(nodetypes.PropConnected) }

// API retorna el handle CMIS del drive.
func (d *Drive) API() *API { return d.user.API() }

// Repository es el repositorio CMIS del drive.
func (d *Drive) Repository() string { return d.user.CurrentRepository() }

// Authenticated es false para drives cargados desde el repositorio, que no
// guardan credenciales.
func (d *Drive) Authenticated() bool { return d.user.API().hasCredentials() }
