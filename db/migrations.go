// Package db ships the goose SQL migrations inside the binary.
package db

import "embed"

// Migrations holds migrations/*.sql; goose reads it through SetBaseFS.
//
//go:embed migrations/*.sql
var Migrations embed.FS

const MigrationsDir = "migrations"
