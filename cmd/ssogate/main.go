// Command ssogate serves the single sign-on exchange endpoints: clients post
// a provider credential and receive a session token for the verified user.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"go.opentelemetry.io/otel"

	"github.com/kbukum/ssogate/auth"
	"github.com/kbukum/ssogate/bootstrap"
	"github.com/kbukum/ssogate/config"
	"github.com/kbukum/ssogate/httpclient"
	"github.com/kbukum/ssogate/jwks"
	"github.com/kbukum/ssogate/logger"
	"github.com/kbukum/ssogate/observability"
	"github.com/kbukum/ssogate/redis"
	"github.com/kbukum/ssogate/server"
	"github.com/kbukum/ssogate/sso"
)

const serviceName = "ssogate"

func main() {
	configFile := flag.String("config", "", "path to the config file")
	envFile := flag.String("env", "", "path to a .env file")
	flag.Parse()

	if err := run(context.Background(), *configFile, *envFile); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", serviceName, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configFile, envFile string) error {
	var cfg Config
	if err := config.LoadConfig(serviceName, &cfg,
		config.WithConfigFile(configFile),
		config.WithEnvFile(envFile),
	); err != nil {
		return err
	}

	app, err := bootstrap.NewApp(&cfg)
	if err != nil {
		return err
	}
	log := app.Logger

	shutdownTelemetry, err := observability.Setup(ctx, cfg.Observability, observability.Resource{
		Name:        cfg.Name,
		Version:     cfg.Version,
		Environment: cfg.Environment,
	})
	app.OnStop(bootstrap.Hook(shutdownTelemetry))
	if err != nil {
		_ = app.Shutdown()
		return fmt.Errorf("observability: %w", err)
	}

	var keyOpts []jwks.Option
	if cfg.JWKS.Redis.Enabled {
		rdb, err := redis.New(cfg.JWKS.Redis, log)
		if err != nil {
			_ = app.Shutdown()
			return err
		}
		app.OnStop(func(context.Context) error { return rdb.Close() })
		app.OnStart(func(ctx context.Context) error {
			// The shared tier is optional at runtime; lookups fall back to the provider.
			if err := rdb.Ping(ctx); err != nil {
				log.Warn("Redis unreachable at startup", logger.Fields(logger.FieldError, err.Error()))
			}
			return nil
		})
		keyOpts = append(keyOpts, jwks.WithStore(redis.NewKeySetStore(rdb, "")))
	}

	srv, err := buildServer(&cfg, log, keyOpts...)
	if err != nil {
		_ = app.Shutdown()
		return err
	}

	app.OnStart(srv.Start)
	app.OnStop(srv.Stop)

	app.Summary.Add("environment", cfg.Environment)
	app.Summary.Add("listen", srv.Addr()+cfg.Server.BasePath)
	app.Summary.Add("providers", cfg.Auth.Describe())
	app.Summary.Add("key set store", cfg.JWKS.Redis.Describe())
	app.Summary.Add("telemetry", cfg.Observability.Describe())
	app.Summary.Add("logging", cfg.Logging.Level+"/"+cfg.Logging.Format)

	return app.Run(ctx)
}

// buildServer wires the outbound client, key-set cache, extractors,
// authentication service and token granter behind the HTTP server.
func buildServer(cfg *Config, log *logger.Logger, keyOpts ...jwks.Option) (*server.Server, error) {
	client, err := httpclient.New(cfg.HTTP, httpclient.WithTracerProvider(otel.GetTracerProvider()))
	if err != nil {
		return nil, err
	}
	keys := jwks.New(client, append([]jwks.Option{
		jwks.WithTimeout(cfg.JWKS.Timeout),
		jwks.WithLogger(log),
		jwks.WithMeterProvider(otel.GetMeterProvider()),
	}, keyOpts...)...)

	authService, err := auth.New(cfg.Auth, sso.NewExtractors(client, keys, sso.WithLogger(log)),
		auth.WithLogger(log),
		auth.WithTracerProvider(otel.GetTracerProvider()),
		auth.WithMeterProvider(otel.GetMeterProvider()),
	)
	if err != nil {
		return nil, err
	}
	granter, err := newHMACGranter(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("token granter: %w", err)
	}

	srv := server.New(cfg.Server, log)
	srv.ApplyMiddleware()
	server.NewAPI(authService, granter, cfg.Server.BasePath, cfg.Server.MaxBodyBytes(), log).
		Register(srv.GinEngine())
	srv.RegisterHealth(cfg.Name, cfg.Version, authService.SupportedServices)
	return srv, nil
}
