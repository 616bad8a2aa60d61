// Package config - password.go holds password hashing configuration.
package config

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// DefaultBcryptCost balances hashing latency against brute-force cost.
const DefaultBcryptCost = 12

// PasswordConfig holds configuration for password hashing and
// verification.
type PasswordConfig struct {
	BcryptCost int
}

// NewPasswordConfig builds a password configuration. A zero cost uses
// the default.
func NewPasswordConfig(cost int) (*PasswordConfig, error) {
	if cost == 0 {
		cost = DefaultBcryptCost
	}
	if cost < 10 || cost > 14 {
		return nil, fmt.Errorf("bcrypt cost out of range: %d (must be 10-14)", cost)
	}
	return &PasswordConfig{BcryptCost: cost}, nil
}

// HashPassword hashes a password using bcrypt.
func (c *PasswordConfig) HashPassword(pw string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(pw), c.BcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// VerifyPassword verifies a password against a stored hash.
func (c *PasswordConfig) VerifyPassword(pw, storedHash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(storedHash), []byte(pw)) == nil
}
