// Package appfs embeds the static files shipped with the binaries.
package appfs

import "embed"

// FS holds `migrations/*.sql` and `templates/email/*`.
//
//go:embed migrations/*.sql templates/email/*
var FS embed.FS

const (
	MigrationsDir     = "migrations"
	EmailTemplatesDir = "templates/email"
)
