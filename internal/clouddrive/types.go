// Package clouddrive contiene el núcleo del framework anfitrión de drives:
// proveedores, usuarios remotos, drives, conectores y el servicio que
// orquesta la conexión de un drive sobre el repositorio de nodos.
package clouddrive

import (
	"context"

	"github.com/dropDatabas3/clouddrive/internal/nodes"
)

// Provider describe un proveedor de almacenamiento remoto.
type Provider interface {
	ID() string
	Name() string
	// AuthURL es la URL a la que se envía al usuario para autenticarse.
	AuthURL() string
}

// User es un usuario autenticado en el proveedor remoto.
type User interface {
	ID() string
	Username() string
	Email() string
	Provider() Provider
}

// PendingUser lo implementan usuarios que pueden quedar a medio construir
// (autenticación en dos pasos aún no completada).
type PendingUser interface {
	Pending() bool
}

// IsPending reporta si u todavía no completó su autenticación.
func IsPending(u User) bool {
	p, ok := u.(PendingUser)
	return ok && p.Pending()
}

// Drive es un espejo local de un almacenamiento remoto montado en un nodo.
type Drive interface {
	ID() string
	Title() string
	User() User
	Node() *nodes.Node
	IsConnected() bool
}

// Connector conecta un proveedor concreto con el framework.
type Connector interface {
	Provider() Provider
	// Authenticate intercambia un código de acceso por un usuario del proveedor.
	Authenticate(ctx context.Context, code string) (User, error)
	// CreateDrive construye un drive nuevo para user sobre el nodo raíz dado.
	CreateDrive(ctx context.Context, user User, node *nodes.Node) (Drive, error)
	// LoadDrive reconstruye un drive existente desde su nodo raíz.
	LoadDrive(ctx context.Context, node *nodes.Node) (Drive, error)
}
