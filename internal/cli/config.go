package cli

import (
	"github.com/caarlos0/env/v11"
)

// EnvConfig holds settings read from the environment. Flags always win;
// the environment only supplies defaults.
type EnvConfig struct {
	// Database is the default SQLite path used when --db is omitted.
	Database string `env:"RETRACE_DB"`
}

// defaultDatabase returns the database path from RETRACE_DB, or "" if
// unset. Parse errors are treated as unset - a broken environment should
// not stop an explicit --db from working.
func defaultDatabase() string {
	var cfg EnvConfig
	if err := env.Parse(&cfg); err != nil {
		return ""
	}
	return cfg.Database
}

// requireDatabase validates that a command ended up with a database path
// from either its --db flag or the environment.
func requireDatabase(path string) error {
	if path == "" {
		return NewExitError(ExitCommandError, "no database specified: use --db or set RETRACE_DB")
	}
	return nil
}
