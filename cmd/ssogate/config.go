package main

import (
	"fmt"
	"time"

	"github.com/kbukum/ssogate/auth"
	"github.com/kbukum/ssogate/config"
	"github.com/kbukum/ssogate/httpclient"
	"github.com/kbukum/ssogate/observability"
	"github.com/kbukum/ssogate/redis"
	"github.com/kbukum/ssogate/server"
	"github.com/kbukum/ssogate/validation"
)

// Config is the full ssogate configuration.
type Config struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`

	Server        server.Config        `yaml:"server" mapstructure:"server"`
	HTTP          httpclient.Config    `yaml:"http" mapstructure:"http"`
	JWKS          JWKSConfig           `yaml:"jwks" mapstructure:"jwks"`
	Auth          auth.Config          `yaml:"auth" mapstructure:"auth"`
	Token         TokenConfig          `yaml:"token" mapstructure:"token"`
	Observability observability.Config `yaml:"observability" mapstructure:"observability"`
}

// JWKSConfig configures the key-set cache.
type JWKSConfig struct {
	// Timeout bounds one key-set fetch.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
	// Redis shares fetched key sets between instances when enabled.
	Redis redis.Config `yaml:"redis" mapstructure:"redis"`
}

// TokenConfig configures the session tokens issued after a successful login.
type TokenConfig struct {
	Secret string        `yaml:"secret" mapstructure:"secret" validate:"required,min=32"`
	Issuer string        `yaml:"issuer" mapstructure:"issuer" validate:"required"`
	TTL    time.Duration `yaml:"ttl" mapstructure:"ttl" validate:"gt=0"`
}

// ApplyDefaults fills unset fields in every section.
func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = serviceName
	}
	c.ServiceConfig.ApplyDefaults()
	c.Server.ApplyDefaults()
	c.HTTP.ApplyDefaults()
	if c.JWKS.Timeout == 0 {
		c.JWKS.Timeout = 20 * time.Second
	}
	c.JWKS.Redis.ApplyDefaults()
	c.Auth.ApplyDefaults()
	if c.Token.Issuer == "" {
		c.Token.Issuer = serviceName
	}
	if c.Token.TTL == 0 {
		c.Token.TTL = 24 * time.Hour
	}
	c.Observability.ApplyDefaults()
}

// Validate checks every section.
func (c *Config) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	if err := c.Server.Validate(); err != nil {
		return err
	}
	if err := c.HTTP.Validate(); err != nil {
		return err
	}
	if c.JWKS.Timeout < 0 {
		return fmt.Errorf("jwks.timeout must be non-negative (got: %s)", c.JWKS.Timeout)
	}
	if err := c.JWKS.Redis.Validate(); err != nil {
		return fmt.Errorf("jwks: %w", err)
	}
	if err := c.Auth.Validate(); err != nil {
		return err
	}
	if err := validation.Validate(&c.Token); err != nil {
		return fmt.Errorf("token: %w", err)
	}
	return c.Observability.Validate()
}
