package policy

import (
	"fmt"
	"time"

	"github.com/aarons2222/letlog/internal/platform/config"
)

// Config carries the engine's tunable constants.
//
// These are read at startup so operators can adjust windows without code
// changes; no call site carries its own literal.
type Config struct {
	// InvitationTTLDays bounds how long an issued invitation stays
	// acceptable.
	InvitationTTLDays int `env:"LETLOG_INVITATION_TTL_DAYS" envDefault:"7"`
	// ReviewWindowDays bounds tenant reviews of landlords after a tenancy
	// ends. Job-based reviews carry no window.
	ReviewWindowDays int `env:"LETLOG_REVIEW_WINDOW_DAYS" envDefault:"60"`
	// ComplianceWarningDays is part of the shared constants surface used
	// by compliance displays outside this engine.
	ComplianceWarningDays int `env:"LETLOG_COMPLIANCE_WARNING_DAYS" envDefault:"30"`
	// Locale selects the reason-string catalog.
	Locale string `env:"LETLOG_LOCALE" envDefault:"en-US"`
}

// LoadConfigFromEnv loads engine configuration from the environment.
// Zero or negative day counts fall back to the documented defaults.
func LoadConfigFromEnv() (Config, error) {
	var cfg Config
	if err := config.ParseEnv(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse policy env: %w", err)
	}
	return cfg.withDefaults(), nil
}

// DefaultConfig returns the engine defaults without consulting the
// environment.
func DefaultConfig() Config {
	return Config{}.withDefaults()
}

func (c Config) withDefaults() Config {
	if c.InvitationTTLDays <= 0 {
		c.InvitationTTLDays = 7
	}
	if c.ReviewWindowDays <= 0 {
		c.ReviewWindowDays = 60
	}
	if c.ComplianceWarningDays <= 0 {
		c.ComplianceWarningDays = 30
	}
	if c.Locale == "" {
		c.Locale = "en-US"
	}
	return c
}

// InvitationTTL returns the invitation lifetime as a duration.
func (c Config) InvitationTTL() time.Duration {
	return time.Duration(c.InvitationTTLDays) * 24 * time.Hour
}
