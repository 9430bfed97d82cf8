// Package migrations holds the bun migrations for the postgres store.
package migrations

import "github.com/uptrace/bun/migrate"

// Migrations is the registry every migration file adds itself to.
var Migrations = migrate.NewMigrations() //nolint:gochecknoglobals // -
