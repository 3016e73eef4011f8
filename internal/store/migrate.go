// Package store contiene la infraestructura compartida por los stores SQL:
// apertura del pool de Postgres y el runner de migraciones embebidas.
package store

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Las migraciones SQL se embeben en el binario.
// Formato de archivo: {version}_{name}.sql (ej: 0001_nodes.sql)

// Migrator aplica migraciones SQL a una base de datos.
type Migrator struct {
	migrationsFS  embed.FS
	migrationsDir string
}

// NewMigrator crea un nuevo Migrator.
func NewMigrator(migrationsFS embed.FS, migrationsDir string) *Migrator {
	return &Migrator{migrationsFS: migrationsFS, migrationsDir: migrationsDir}
}

// Migration representa una migración individual.
type Migration struct {
	Version int
	Name    string
	SQL     string
}

// MigrationResult resultado de aplicar migraciones.
type MigrationResult struct {
	Applied  []int
	Skipped  []int
	Duration time.Duration
}

// Executor abstrae pgxpool.Pool / pgx.Conn / pgx.Tx.
type Executor interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

var migrationFilePattern = regexp.MustCompile(`^(\d+)_(.+)\.sql$`)

// ParseMigrations lee y parsea las migraciones del FS embebido, ordenadas por versión.
func (m *Migrator) ParseMigrations() ([]Migration, error) {
	var migrations []Migration
	err := fs.WalkDir(m.migrationsFS, m.migrationsDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		matches := migrationFilePattern.FindStringSubmatch(filepath.Base(path))
		if matches == nil {
			return nil // Ignorar archivos que no coinciden
		}
		version, _ := strconv.Atoi(matches[1])
		content, err := m.migrationsFS.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		migrations = append(migrations, Migration{Version: version, Name: matches[2], SQL: string(content)})
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(migrations, func(i, j int) bool { return migrations[i].Version < migrations[j].Version })
	return migrations, nil
}

// Run aplica las migraciones pendientes.
func (m *Migrator) Run(ctx context.Context, exec Executor) (*MigrationResult, error) {
	start := time.Now()
	result := &MigrationResult{}

	if _, err := exec.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS _migrations (
			version INT PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			applied_at TIMESTAMPTZ DEFAULT NOW()
		)`); err != nil {
		return result, fmt.Errorf("creating migrations table: %w", err)
	}

	applied, err := appliedVersions(ctx, exec)
	if err != nil {
		return result, fmt.Errorf("getting applied migrations: %w", err)
	}
	migrations, err := m.ParseMigrations()
	if err != nil {
		return result, fmt.Errorf("parsing migrations: %w", err)
	}

	for _, mig := range migrations {
		if applied[mig.Version] {
			result.Skipped = append(result.Skipped, mig.Version)
			continue
		}
		if _, err := exec.Exec(ctx, mig.SQL); err != nil {
			result.Duration = time.Since(start)
			return result, fmt.Errorf("applying migration %d_%s: %w", mig.Version, mig.Name, err)
		}
		if _, err := exec.Exec(ctx,
			"INSERT INTO _migrations (version, name) VALUES ($1, $2)",
			mig.Version, mig.Name,
		); err != nil {
			result.Duration = time.Since(start)
			return result, fmt.Errorf("recording migration %d: %w", mig.Version, err)
		}
		result.Applied = append(result.Applied, mig.Version)
	}

	result.Duration = time.Since(start)
	return result, nil
}

func appliedVersions(ctx context.Context, exec Executor) (map[int]bool, error) {
	rows, err := exec.Query(ctx, "SELECT version FROM _migrations")
	if err != nil {
		return nil, err
	}
	versions, err := pgx.CollectRows(rows, pgx.RowTo[int])
	if err != nil {
		return nil, err
	}
	applied := make(map[int]bool, len(versions))
	for _, v := range versions {
		applied[v] = true
	}
	return applied, nil
}
