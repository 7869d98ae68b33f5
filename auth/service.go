package auth

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/ssogate/errors"
	"github.com/kbukum/ssogate/logger"
	"github.com/kbukum/ssogate/sso"
)

const instrumentationName = "github.com/kbukum/ssogate/auth"

// ClientConfig is the public part of a bound provider, safe to hand to
// browsers.
type ClientConfig struct {
	AuthURL  string `json:"authUrl"`
	ClientID string `json:"clientId"`
}

type extractor func(ctx context.Context, d sso.Details) (string, error)

type binding struct {
	provider sso.Provider
	bind     func(cfg *Config, ex *sso.Extractors) (extractor, ClientConfig, bool)
}

// bindings lists every provider in binding order. Each binding keeps its
// own copy of the provider config.
var bindings = []binding{
	{sso.ProviderGoogle, func(cfg *Config, ex *sso.Extractors) (extractor, ClientConfig, bool) {
		if cfg.Google == nil || cfg.Google.ClientID == "" {
			return nil, ClientConfig{}, false
		}
		c := *cfg.Google
		return func(ctx context.Context, d sso.Details) (string, error) { return ex.Google(ctx, &c, d) },
			ClientConfig{AuthURL: c.AuthURL, ClientID: c.ClientID}, true
	}},
	{sso.ProviderGitHub, func(cfg *Config, ex *sso.Extractors) (extractor, ClientConfig, bool) {
		if cfg.GitHub == nil || cfg.GitHub.ClientID == "" {
			return nil, ClientConfig{}, false
		}
		c := *cfg.GitHub
		return func(ctx context.Context, d sso.Details) (string, error) { return ex.GitHub(ctx, &c, d) },
			ClientConfig{AuthURL: c.AuthURL, ClientID: c.ClientID}, true
	}},
	{sso.ProviderGitLab, func(cfg *Config, ex *sso.Extractors) (extractor, ClientConfig, bool) {
		if cfg.GitLab == nil || cfg.GitLab.ClientID == "" {
			return nil, ClientConfig{}, false
		}
		c := *cfg.GitLab
		return func(ctx context.Context, d sso.Details) (string, error) { return ex.GitLab(ctx, &c, d) },
			ClientConfig{AuthURL: c.AuthURL, ClientID: c.ClientID}, true
	}},
}

// Service resolves external user ids through the bound providers. It is
// immutable after New and safe for concurrent use.
type Service struct {
	extractors map[string]extractor
	order      []string
	clients    map[string]ClientConfig

	log      *logger.Logger
	tracer   trace.Tracer
	outcomes metric.Int64Counter
	latency  metric.Float64Histogram
}

// Option customizes a Service.
type Option func(*Service)

// WithLogger sets the logger.
func WithLogger(l *logger.Logger) Option {
	return func(s *Service) { s.log = l.WithComponent("auth") }
}

// WithTracerProvider sets the tracer provider for extraction spans.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(s *Service) { s.tracer = tp.Tracer(instrumentationName) }
}

// WithMeterProvider sets the meter provider for extraction metrics.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(s *Service) { s.outcomes, s.latency = newInstruments(mp) }
}

// New validates cfg and binds every provider that has a client id.
func New(cfg Config, ex *sso.Extractors, opts ...Option) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &Service{
		extractors: make(map[string]extractor),
		clients:    make(map[string]ClientConfig),
		log:        logger.Nop(),
		tracer:     otel.Tracer(instrumentationName),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.outcomes == nil {
		s.outcomes, s.latency = newInstruments(otel.GetMeterProvider())
	}

	for _, b := range bindings {
		fn, client, ok := b.bind(&cfg, ex)
		if !ok {
			continue
		}
		name := string(b.provider)
		s.extractors[name] = fn
		s.clients[name] = client
		s.order = append(s.order, name)
	}
	return s, nil
}

func newInstruments(mp metric.MeterProvider) (metric.Int64Counter, metric.Float64Histogram) {
	meter := mp.Meter(instrumentationName)
	outcomes, err := meter.Int64Counter("ssogate.auth.extractions",
		metric.WithDescription("External id extractions by provider and outcome"))
	if err != nil {
		logger.Error("create extraction counter", logger.Fields(logger.FieldError, err.Error()))
	}
	latency, err := meter.Float64Histogram("ssogate.auth.extraction.duration",
		metric.WithDescription("External id extraction latency"),
		metric.WithUnit("ms"))
	if err != nil {
		logger.Error("create extraction histogram", logger.Fields(logger.FieldError, err.Error()))
	}
	return outcomes, latency
}

// ClientConfig returns the public settings of every bound provider.
func (s *Service) ClientConfig() map[string]ClientConfig {
	out := make(map[string]ClientConfig, len(s.clients))
	for k, v := range s.clients {
		out[k] = v
	}
	return out
}

// SupportsService reports whether name is a bound provider.
func (s *Service) SupportsService(name string) bool {
	_, ok := s.extractors[name]
	return ok
}

// SupportedServices returns the bound providers in binding order.
func (s *Service) SupportedServices() []string {
	return append([]string(nil), s.order...)
}

// ExtractID resolves d to the external user id at provider name.
func (s *Service) ExtractID(ctx context.Context, name string, d sso.Details) (string, error) {
	fn, ok := s.extractors[name]
	if !ok {
		return "", errors.UnsupportedService(name)
	}

	ctx, span := s.tracer.Start(ctx, "auth.ExtractID",
		trace.WithAttributes(attribute.String("sso.provider", name)))
	defer span.End()

	start := time.Now()
	id, err := fn(ctx, d)
	if err == nil && id == "" {
		err = errors.Validation("failed to get user ID")
	}
	elapsed := time.Since(start)

	outcome := "success"
	if err != nil {
		outcome = string(errors.CodeOf(err))
		if outcome == "" {
			outcome = "unknown"
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
	}
	attrs := metric.WithAttributes(attribute.String("provider", name), attribute.String("outcome", outcome))
	if s.outcomes != nil {
		s.outcomes.Add(ctx, 1, attrs)
	}
	if s.latency != nil {
		s.latency.Record(ctx, float64(elapsed.Microseconds())/1000, attrs)
	}

	log := s.log.WithContext(ctx)
	fields := logger.Fields(
		logger.FieldProvider, name,
		logger.FieldDuration, elapsed.Milliseconds(),
	)
	if err != nil {
		fields[logger.FieldCode] = outcome
		fields[logger.FieldError] = err.Error()
		log.Warn("external id extraction failed", fields)
		return "", err
	}
	log.Info("external id extracted", fields)
	return id, nil
}
