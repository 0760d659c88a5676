// Package identity verifies actor identity at the process boundary.
//
// Authentication itself is delegated to an external identity provider. This
// package only checks the provider's signed access token and yields a
// verified actor with a closed-enum role; there is no ambient current-user
// anywhere downstream of it.
package identity

import (
	"crypto/ed25519"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/golang-jwt/jwt/v5"

	apperrors "github.com/aarons2222/letlog/internal/platform/errors"
	"github.com/aarons2222/letlog/internal/role"
)

// Actor is a verified request principal.
type Actor struct {
	UserID      string
	Role        role.Role
	DisplayName string
}

// accessTokenEnv holds raw env values before post-parse validation.
type accessTokenEnv struct {
	Issuer    string `env:"LETLOG_ACCESS_TOKEN_ISSUER"`
	Audience  string `env:"LETLOG_ACCESS_TOKEN_AUDIENCE"`
	PublicKey string `env:"LETLOG_ACCESS_TOKEN_PUBLIC_KEY"`
}

// Config defines how access tokens are verified.
type Config struct {
	Issuer   string
	Audience string
	Key      ed25519.PublicKey
	Now      func() time.Time
}

// accessTokenClaims is the internal claims type used for JWT parsing.
type accessTokenClaims struct {
	jwt.RegisteredClaims
	Role        string `json:"role"`
	DisplayName string `json:"name"`
}

// LoadConfigFromEnv reads access-token verification configuration.
func LoadConfigFromEnv(now func() time.Time) (Config, error) {
	var raw accessTokenEnv
	if err := env.Parse(&raw); err != nil {
		return Config{}, fmt.Errorf("parse access token env: %w", err)
	}
	issuer := strings.TrimSpace(raw.Issuer)
	audience := strings.TrimSpace(raw.Audience)
	publicKey := strings.TrimSpace(raw.PublicKey)
	if issuer == "" {
		return Config{}, fmt.Errorf("LETLOG_ACCESS_TOKEN_ISSUER is required")
	}
	if audience == "" {
		return Config{}, fmt.Errorf("LETLOG_ACCESS_TOKEN_AUDIENCE is required")
	}
	if publicKey == "" {
		return Config{}, fmt.Errorf("LETLOG_ACCESS_TOKEN_PUBLIC_KEY is required")
	}
	keyBytes, err := decodeBase64(publicKey)
	if err != nil {
		return Config{}, fmt.Errorf("decode access token public key: %w", err)
	}
	if len(keyBytes) != ed25519.PublicKeySize {
		return Config{}, fmt.Errorf("access token public key must be %d bytes", ed25519.PublicKeySize)
	}
	if now == nil {
		now = time.Now
	}
	return Config{
		Issuer:   issuer,
		Audience: audience,
		Key:      ed25519.PublicKey(keyBytes),
		Now:      now,
	}, nil
}

// VerifyAccessToken verifies a bearer token and returns its actor.
func VerifyAccessToken(token string, cfg Config) (Actor, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Actor{}, apperrors.New(apperrors.CodeIdentityTokenInvalid, "access token is required")
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Issuer == "" || cfg.Audience == "" || len(cfg.Key) != ed25519.PublicKeySize {
		return Actor{}, errors.New("access token verifier is not configured")
	}

	var parsed accessTokenClaims
	_, err := jwt.ParseWithClaims(token, &parsed, func(t *jwt.Token) (any, error) {
		return cfg.Key, nil
	},
		jwt.WithValidMethods([]string{"EdDSA"}),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil {
		return Actor{}, mapJWTError(err)
	}

	if parsed.Issuer == "" || parsed.Issuer != cfg.Issuer {
		return Actor{}, apperrors.WithMetadata(
			apperrors.CodeIdentityTokenMismatch,
			"access token issuer mismatch",
			map[string]string{"Field": "issuer"},
		)
	}
	if !audienceContains(parsed.Audience, cfg.Audience) {
		return Actor{}, apperrors.WithMetadata(
			apperrors.CodeIdentityTokenMismatch,
			"access token audience mismatch",
			map[string]string{"Field": "audience"},
		)
	}
	if parsed.ExpiresAt == nil {
		return Actor{}, apperrors.New(apperrors.CodeIdentityTokenInvalid, "access token exp is required")
	}

	now := cfg.Now().UTC()
	if !parsed.ExpiresAt.Time.UTC().After(now) {
		return Actor{}, apperrors.New(apperrors.CodeIdentityTokenExpired, "access token is expired")
	}
	if parsed.NotBefore != nil && now.Before(parsed.NotBefore.Time.UTC()) {
		return Actor{}, apperrors.New(apperrors.CodeIdentityTokenInvalid, "access token not active yet")
	}

	userID := strings.TrimSpace(parsed.Subject)
	if userID == "" {
		return Actor{}, apperrors.New(apperrors.CodeIdentityTokenInvalid, "access token sub is required")
	}

	// No fallback role: a token without a parseable role claim fails
	// verification outright.
	if strings.TrimSpace(parsed.Role) == "" {
		return Actor{}, apperrors.New(apperrors.CodeIdentityRoleMissing, "access token role is required")
	}
	actorRole, err := role.Parse(parsed.Role)
	if err != nil {
		return Actor{}, err
	}

	return Actor{
		UserID:      userID,
		Role:        actorRole,
		DisplayName: strings.TrimSpace(parsed.DisplayName),
	}, nil
}

// mapJWTError converts jwt parse failures to domain errors.
func mapJWTError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return apperrors.Wrap(apperrors.CodeIdentityTokenExpired, "access token is expired", err)
	default:
		return apperrors.Wrap(apperrors.CodeIdentityTokenInvalid, "access token is invalid", err)
	}
}

func audienceContains(audience jwt.ClaimStrings, expected string) bool {
	for _, value := range audience {
		if value == expected {
			return true
		}
	}
	return false
}

// decodeBase64 accepts both standard and raw (unpadded) encodings.
func decodeBase64(value string) ([]byte, error) {
	if decoded, err := base64.StdEncoding.DecodeString(value); err == nil {
		return decoded, nil
	}
	return base64.RawStdEncoding.DecodeString(value)
}
