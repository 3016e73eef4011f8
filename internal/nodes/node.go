// Package nodes persiste los nodos del repositorio local donde se montan los
// drives. Cada nodo tiene un tipo declarado en nodetypes y un mapa de
// propiedades validado al guardarse.
package nodes

import (
	"context"
	"errors"
	"strings"
	"time"
)

// ErrNotFound indica que no existe un nodo en la ruta pedida.
var ErrNotFound = errors.New("nodes: not found")

// Node es un nodo del repositorio.
type Node struct {
	ID         string
	Path       string
	Type       string
	Trashed    bool
	Properties map[string]any
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// String retorna una propiedad string o "" si no existe o tiene otro tipo.
func (n *Node) String(name string) string {
	s, _ := n.Properties[name].(string)
	return s
}

// Bool retorna una propiedad booleana.
func (n *Node) Bool(name string) bool {
	b, _ := n.Properties[name].(bool)
	return b
}

// Time retorna una propiedad fecha (zero si no existe).
func (n *Node) Time(name string) time.Time {
	t, _ := n.Properties[name].(time.Time)
	return t
}

// Set asigna una propiedad; value nil la elimina.
func (n *Node) Set(name string, value any) {
	if n.Properties == nil {
		n.Properties = map[string]any{}
	}
	if value == nil {
		delete(n.Properties, name)
		return
	}
	n.Properties[name] = value
}

// Clone retorna una copia profunda del nodo (slices de propiedades incluidos).
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	cp := *n
	cp.Properties = make(map[string]any, len(n.Properties))
	for k, v := range n.Properties {
		switch vv := v.(type) {
		case []string:
			cp.Properties[k] = append([]string(nil), vv...)
		case []time.Time:
			cp.Properties[k] = append([]time.Time(nil), vv...)
		case []bool:
			cp.Properties[k] = append([]bool(nil), vv...)
		default:
			cp.Properties[k] = v
		}
	}
	return &cp
}

// Store define el acceso a nodos.
type Store interface {
	// Get retorna el nodo en path o ErrNotFound.
	Get(ctx context.Context, path string) (*Node, error)
	// Save valida y guarda (inserta o actualiza por path). Asigna ID y fechas.
	Save(ctx context.Context, n *Node) error
	// List retorna los nodos de un tipo (incluye subtipos), ordenados por path.
	List(ctx context.Context, typeName string) ([]*Node, error)
	// Delete elimina el nodo; no falla si no existe.
	Delete(ctx context.Context, path string) error
	Close() error
}

// CleanPath normaliza una ruta de nodo: siempre absoluta, sin "/" final.
func CleanPath(p string) string {
	p = strings.TrimSpace(p)
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	for len(p) > 1 && strings.HasSuffix(p, "/") {
		p = strings.TrimSuffix(p, "/")
	}
	return p
}
