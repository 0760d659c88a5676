// Package sweeper parses sweeper flags and launches the background process.
package sweeper

import (
	"context"
	"flag"
	"time"

	entrypoint "github.com/aarons2222/letlog/internal/platform/cmd"
	"github.com/aarons2222/letlog/internal/platform/config"
	"github.com/aarons2222/letlog/internal/storage/sqlite"
	"github.com/aarons2222/letlog/internal/sweeper"
)

// Config holds sweeper command configuration.
type Config struct {
	DBPath    string        `env:"LETLOG_DB_PATH" envDefault:"letlog.db"`
	Interval  time.Duration `env:"LETLOG_SWEEP_INTERVAL" envDefault:"1h"`
	BatchSize int           `env:"LETLOG_SWEEP_BATCH_SIZE" envDefault:"500"`
}

// ParseConfig parses environment and flags into Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := config.ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "The SQLite database path")
	fs.DurationVar(&cfg.Interval, "interval", cfg.Interval, "Time between sweeps")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the invitation sweeper.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceSweeper, func(context.Context) error {
		store, err := sqlite.Open(cfg.DBPath)
		if err != nil {
			return err
		}
		defer store.Close()

		runner, err := sweeper.New(store, sweeper.Config{
			Interval:  cfg.Interval,
			BatchSize: cfg.BatchSize,
		}, nil)
		if err != nil {
			return err
		}
		return runner.Run(ctx)
	})
}
