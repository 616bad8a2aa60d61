// Package config - jwt.go holds JWT signing configuration.
package config

import "fmt"

// DefaultJWTExpirationHours is the token lifetime when not configured.
const DefaultJWTExpirationHours = 24

// JWTConfig holds configuration for JWT token generation and validation.
type JWTConfig struct {
	Secret          string
	ExpirationHours int
}

// NewJWTConfig builds a JWT configuration from the loaded settings.
func NewJWTConfig(secret string, expirationHours int) (*JWTConfig, error) {
	if secret == "" {
		return nil, fmt.Errorf("JWT secret cannot be empty")
	}
	if expirationHours < 1 {
		expirationHours = DefaultJWTExpirationHours
	}
	return &JWTConfig{Secret: secret, ExpirationHours: expirationHours}, nil
}
