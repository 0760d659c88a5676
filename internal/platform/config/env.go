// Package config holds the small helpers every LETLOG_ env-config loader
// and CLI entry point shares.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// ParseEnv fills target from environment variables per its env tags.
// Component loaders wrap this so a malformed value fails startup rather
// than silently defaulting.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}
