package nodes

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dropDatabas3/clouddrive/internal/nodetypes"
)

// memoryStore implementa Store en memoria. Guarda y retorna copias.
type memoryStore struct {
	mu    sync.RWMutex
	nodes map[string]*Node
}

// NewMemory crea un Store en memoria.
func NewMemory() Store {
	return &memoryStore{nodes: map[string]*Node{}}
}

func (s *memoryStore) Get(_ context.Context, path string) (*Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.nodes[CleanPath(path)]
	if !ok {
		return nil, ErrNotFound
	}
	return n.Clone(), nil
}

func (s *memoryStore) Save(_ context.Context, n *Node) error {
	if err := nodetypes.Validate(n.Type, n.Properties); err != nil {
		return err
	}
	n.Path = CleanPath(n.Path)
	now := time.Now().UTC()

	s.mu.Lock()
	defer s.mu.Unlock()
	if prev, ok := s.nodes[n.Path]; ok {
		if n.ID != "" && n.ID != prev.ID {
			return fmt.Errorf("nodes: path %s already used by node %s", n.Path, prev.ID)
		}
		n.ID = prev.ID
		n.CreatedAt = prev.CreatedAt
	} else {
		if n.ID == "" {
			n.ID = uuid.NewString()
		}
		n.CreatedAt = now
	}
	n.UpdatedAt = now
	s.nodes[n.Path] = n.Clone()
	return nil
}

func (s *memoryStore) List(_ context.Context, typeName string) ([]*Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Node
	for _, n := range s.nodes {
		if nodetypes.IsA(n.Type, typeName) {
			out = append(out, n.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

func (s *memoryStore) Delete(_ context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.nodes, CleanPath(path))
	return nil
}

func (s *memoryStore) Close() error { return nil }
