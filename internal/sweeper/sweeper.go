// Package sweeper expires overdue invitations in the background.
//
// Expiry is lazy everywhere else: the engine denies a stale token whenever
// one is presented. The sweeper exists so tokens that are never presented
// again still reach their terminal state and drop out of the pending
// uniqueness constraint.
package sweeper

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/aarons2222/letlog/internal/platform/config"
	"github.com/aarons2222/letlog/internal/platform/timeouts"
	"github.com/aarons2222/letlog/internal/storage"
)

// Config holds sweeper process configuration.
type Config struct {
	Interval  time.Duration `env:"LETLOG_SWEEP_INTERVAL" envDefault:"1h"`
	BatchSize int           `env:"LETLOG_SWEEP_BATCH_SIZE" envDefault:"500"`
}

// LoadConfigFromEnv reads sweeper configuration from the environment.
func LoadConfigFromEnv() (Config, error) {
	var cfg Config
	if err := config.ParseEnv(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse sweeper env: %w", err)
	}
	return cfg.withDefaults(), nil
}

func (c Config) withDefaults() Config {
	if c.Interval <= 0 {
		c.Interval = time.Hour
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 500
	}
	return c
}

// Sweeper periodically transitions overdue pending invitations to expired.
type Sweeper struct {
	store storage.InvitationStore
	cfg   Config
	clock func() time.Time
}

// New creates a sweeper over the invitation store.
func New(store storage.InvitationStore, cfg Config, clock func() time.Time) (*Sweeper, error) {
	if store == nil {
		return nil, errors.New("invitation store is required")
	}
	if clock == nil {
		clock = time.Now
	}
	return &Sweeper{store: store, cfg: cfg.withDefaults(), clock: clock}, nil
}

// Run sweeps once immediately, then on every interval tick until the
// context ends.
func (s *Sweeper) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	if expired, err := s.SweepOnce(ctx); err != nil {
		log.Printf("sweep: %v", err)
	} else if expired > 0 {
		log.Printf("sweep: expired %d invitations", expired)
	}

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			expired, err := s.SweepOnce(ctx)
			if err != nil {
				log.Printf("sweep: %v", err)
				continue
			}
			if expired > 0 {
				log.Printf("sweep: expired %d invitations", expired)
			}
		}
	}
}

// SweepOnce expires one batch of overdue invitations and reports how many
// rows it transitioned.
func (s *Sweeper) SweepOnce(ctx context.Context) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, timeouts.StoreSweep)
	defer cancel()

	now := s.clock().UTC()
	due, err := s.store.ListPendingInvitationsExpiringBefore(ctx, now, s.cfg.BatchSize)
	if err != nil {
		return 0, fmt.Errorf("list due invitations: %w", err)
	}

	expired := 0
	for _, inv := range due {
		if err := s.store.MarkInvitationExpired(ctx, inv.ID, now); err != nil {
			// A conflict means the invitation reached a terminal state
			// since listing; skip it and keep sweeping.
			if errors.Is(err, storage.ErrConflict) {
				continue
			}
			return expired, fmt.Errorf("expire invitation %s: %w", inv.ID, err)
		}
		expired++
	}
	return expired, nil
}
