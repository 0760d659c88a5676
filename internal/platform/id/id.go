// Package id generates identifiers and opaque tokens.
//
// Record identifiers are UUIDv4 values rendered as lowercase unpadded
// base32 (26 characters) so they stay URL- and filename-safe without
// case-sensitivity hazards.
package id

import (
	"crypto/rand"
	"encoding/base32"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// idEncoding renders 16 UUID bytes as 26 unpadded base32 characters.
var idEncoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// NewID returns a new random record identifier.
func NewID() (string, error) {
	value, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("generate uuid: %w", err)
	}
	return strings.ToLower(idEncoding.EncodeToString(value[:])), nil
}

// tokenBytes sizes opaque tokens at 256 bits of entropy. Invitation tokens
// must be unguessable and carry no decodable claims, so they are raw random
// bytes rather than any structured value.
const tokenBytes = 32

// NewToken returns a new opaque URL-safe token.
func NewToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
