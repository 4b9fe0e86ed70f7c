package chatstream

import "embed"

// MigrationsFS holds the embedded SQL migrations applied at startup.
//
//go:embed migrations/*.sql
var MigrationsFS embed.FS
