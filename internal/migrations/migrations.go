package migrations

import "github.com/uptrace/bun/migrate"

// Migrations is the ordered collection applied by the db command.
var Migrations = migrate.NewMigrations()
