package config

import (
	"fmt"
	"time"
)

// AuthConfig configures JWT verification against an identity provider.
// When Enabled is false the admin endpoints accept any caller; meant for
// local development only.
type AuthConfig struct {
	Enabled     bool          `koanf:"enabled"`
	JwksURL     string        `koanf:"jwksurl"`
	Issuer      string        `koanf:"issuer"`
	MinInterval time.Duration `koanf:"mininterval"`
}

func (c *AuthConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.JwksURL == "" {
		return fmt.Errorf("auth is enabled but JWKS URL is empty")
	}
	if c.Issuer == "" {
		return fmt.Errorf("auth is enabled but issuer is empty")
	}
	if c.MinInterval <= 0 {
		return fmt.Errorf("auth JWKS refresh interval must be greater than zero")
	}
	return nil
}
