// Package server parses policy API flags and launches the service.
package server

import (
	"context"
	"flag"

	app "github.com/aarons2222/letlog/internal/app/server"
	entrypoint "github.com/aarons2222/letlog/internal/platform/cmd"
)

// Config holds server command configuration.
type Config struct {
	app.Config
}

// ParseConfig parses environment and flags into Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg.Config); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "The policy API listen address")
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "The SQLite database path")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the policy API service.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceServer, func(context.Context) error {
		return app.Run(ctx, cfg.Config)
	})
}
