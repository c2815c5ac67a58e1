package database

import "embed"

//go:embed migrations/*.sql
var MigrationsFS embed.FS

// MigrationsPath is the directory inside MigrationsFS holding the SQL files.
const MigrationsPath = "migrations"
