// Command mocksso runs the mock identity provider for local development.
// Point the ssogate auth.google.auth_url and auth.google.certs_url at it
// (and the GitHub and GitLab endpoints under /github and /gitlab).
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/kbukum/ssogate/bootstrap"
	"github.com/kbukum/ssogate/config"
	"github.com/kbukum/ssogate/jwt"
	"github.com/kbukum/ssogate/logger"
	"github.com/kbukum/ssogate/sso/ssotest"
	"github.com/kbukum/ssogate/util"
)

const serviceName = "mocksso"

// Config configures the mock provider.
type Config struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`

	Port         int    `yaml:"port" mapstructure:"port"`
	Issuer       string `yaml:"issuer" mapstructure:"issuer"`
	ClientSecret string `yaml:"client_secret" mapstructure:"client_secret"`
	// KeyFile is a PEM RSA private key. A fresh key is generated when empty.
	KeyFile string `yaml:"key_file" mapstructure:"key_file"`
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = serviceName
	}
	if c.Port == 0 {
		c.Port = 8090
	}
	c.ServiceConfig.ApplyDefaults()
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535 (got: %d)", c.Port)
	}
	return c.ServiceConfig.Validate()
}

func (c *Config) options() ([]ssotest.Option, error) {
	var opts []ssotest.Option
	if c.Issuer != "" {
		opts = append(opts, ssotest.WithIssuer(c.Issuer))
	}
	if c.ClientSecret != "" {
		opts = append(opts, ssotest.WithClientSecret(c.ClientSecret))
	}
	if c.KeyFile != "" {
		data, err := os.ReadFile(c.KeyFile)
		if err != nil {
			return nil, err
		}
		priv, err := jwt.ParseRSAPrivateKeyPEM(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", c.KeyFile, err)
		}
		key, err := jwt.NewRSA(jwt.RS256, ssotest.DefaultKeyID, priv)
		if err != nil {
			return nil, err
		}
		opts = append(opts, ssotest.WithKey(key))
	}
	return opts, nil
}

func main() {
	configFile := flag.String("config", "", "path to the config file")
	flag.Parse()

	if err := run(context.Background(), *configFile); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", serviceName, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configFile string) error {
	var cfg Config
	if err := config.LoadConfig(serviceName, &cfg, config.WithConfigFile(configFile)); err != nil {
		return err
	}
	app, err := bootstrap.NewApp(&cfg)
	if err != nil {
		return err
	}

	opts, err := cfg.options()
	if err != nil {
		return err
	}
	provider, err := ssotest.New(opts...)
	if err != nil {
		return err
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           provider,
		ReadHeaderTimeout: 10 * time.Second,
	}

	app.OnStart(func(context.Context) error {
		ln, err := net.Listen("tcp", addr)
		if err != nil {
			return fmt.Errorf("bind %s: %w", addr, err)
		}
		go func() {
			if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
				app.Logger.Error("Mock provider stopped", logger.Fields(logger.FieldError, err.Error()))
			}
		}()
		return nil
	})
	app.OnStop(srv.Shutdown)

	base := fmt.Sprintf("http://localhost:%d", cfg.Port)
	app.Summary.Add("issuer", provider.Issuer())
	app.Summary.Add("google auth", base+"/auth")
	app.Summary.Add("google certs", base+"/certs")
	app.Summary.Add("github", base+"/github/access_token, "+base+"/github/user")
	app.Summary.Add("gitlab", base+"/gitlab/token, "+base+"/gitlab/token/info")
	app.Summary.Add("client secret", util.Coalesce(cfg.ClientSecret, ssotest.DefaultClientSecret))

	return app.Run(ctx)
}
