// Package migrations embeds SQL migration files.
package migrations

import "embed"

// NodesFS contiene las migraciones del store de nodos.
//
//go:embed nodes/*.sql
var NodesFS embed.FS

// NodesDir is the directory within NodesFS where migrations live.
const NodesDir = "nodes"
