// Package pg implementa nodes.Store sobre PostgreSQL (pgx). Las propiedades se
// guardan como JSONB y se normalizan con nodetypes.Coerce al leer.
package pg

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropDatabas3/clouddrive/internal/nodes"
	"github.com/dropDatabas3/clouddrive/internal/nodetypes"
	"github.com/dropDatabas3/clouddrive/internal/store"
	migrations "github.com/dropDatabas3/clouddrive/migrations/postgres"
)

type pgStore struct {
	pool *pgxpool.Pool
}

// New crea un Store sobre un pool existente.
func New(pool *pgxpool.Pool) nodes.Store {
	return &pgStore{pool: pool}
}

// Migrate aplica las migraciones del store de nodos.
func Migrate(ctx context.Context, pool *pgxpool.Pool) (*store.MigrationResult, error) {
	return store.NewMigrator(migrations.NodesFS, migrations.NodesDir).Run(ctx, pool)
}

const selectCols = `id::text, path, node_type, trashed, properties, created_at, updated_at`

func scanNode(row pgx.Row) (*nodes.Node, error) {
	var (
		n     nodes.Node
		props []byte
	)
	if err := row.Scan(&n.ID, &n.Path, &n.Type, &n.Trashed, &props, &n.CreatedAt, &n.UpdatedAt); err != nil {
		return nil, err
	}
	n.Properties = map[string]any{}
	if len(props) > 0 {
		if err := json.Unmarshal(props, &n.Properties); err != nil {
			return nil, fmt.Errorf("pg: decode properties of %s: %w", n.Path, err)
		}
	}
	nodetypes.Coerce(n.Type, n.Properties)
	return &n, nil
}

func (s *pgStore) Get(ctx context.Context, path string) (*nodes.Node, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+selectCols+` FROM drive_nodes WHERE path = $1`, nodes.CleanPath(path))
	n, err := scanNode(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nodes.ErrNotFound
	}
	return n, err
}

func (s *pgStore) Save(ctx context.Context, n *nodes.Node) error {
	if err := nodetypes.Validate(n.Type, n.Properties); err != nil {
		return err
	}
	n.Path = nodes.CleanPath(n.Path)
	generated := n.ID == ""
	if generated {
		n.ID = uuid.NewString()
	}
	props, err := json.Marshal(n.Properties)
	if err != nil {
		return fmt.Errorf("pg: encode properties: %w", err)
	}

	// El path es la identidad lógica: en conflicto se conserva el id original.
	// Un id explícito distinto del guardado no puede pisar el path.
	row := s.pool.QueryRow(ctx, `
		INSERT INTO drive_nodes (id, path, node_type, trashed, properties)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (path) DO UPDATE
		   SET node_type = EXCLUDED.node_type,
		       trashed = EXCLUDED.trashed,
		       properties = EXCLUDED.properties,
		       updated_at = NOW()
		 WHERE drive_nodes.id = EXCLUDED.id OR $6
		RETURNING id::text, created_at, updated_at`,
		n.ID, n.Path, n.Type, n.Trashed, props, generated)
	if err := row.Scan(&n.ID, &n.CreatedAt, &n.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("nodes: path %s already used by another node", n.Path)
		}
		return fmt.Errorf("pg: save node: %w", err)
	}
	return nil
}

func (s *pgStore) List(ctx context.Context, typeName string) ([]*nodes.Node, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+selectCols+` FROM drive_nodes ORDER BY path`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*nodes.Node
	for rows.Next() {
		n, err := scanNode(rows)
		if err != nil {
			return nil, err
		}
		if nodetypes.IsA(n.Type, typeName) {
			out = append(out, n)
		}
	}
	return out, rows.Err()
}

func (s *pgStore) Delete(ctx context.Context, path string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM drive_nodes WHERE path = $1`, nodes.CleanPath(path))
	return err
}

func (s *pgStore) Close() error {
	s.pool.Close()
	return nil
}
