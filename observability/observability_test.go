package observability

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestConfig_ApplyDefaults(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()

	want := Config{
		Endpoint: "localhost:4318",
		Tracing:  TracingConfig{SampleRate: 1.0},
		Metrics:  MetricsConfig{Interval: 15 * time.Second},
	}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("defaults mismatch (-want +got):\n%s", diff)
	}

	cfg = Config{Endpoint: "otel:4318", Tracing: TracingConfig{SampleRate: 0.25}}
	cfg.ApplyDefaults()
	if cfg.Endpoint != "otel:4318" || cfg.Tracing.SampleRate != 0.25 {
		t.Errorf("explicit values overwritten: %+v", cfg)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{"defaults", Config{Tracing: TracingConfig{SampleRate: 1}}, ""},
		{"zero rate", Config{}, ""},
		{"rate above one", Config{Tracing: TracingConfig{SampleRate: 1.5}}, "sample_rate"},
		{"negative rate", Config{Tracing: TracingConfig{SampleRate: -0.1}}, "sample_rate"},
		{"negative interval", Config{Metrics: MetricsConfig{Interval: -time.Second}}, "interval"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestConfig_Describe(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{"disabled", Config{Endpoint: "x:1"}, "disabled"},
		{"tracing", Config{Endpoint: "x:1", Tracing: TracingConfig{Enabled: true, SampleRate: 0.5}}, "otlp(x:1) tracing=0.5"},
		{
			"both",
			Config{
				Endpoint: "x:1",
				Tracing:  TracingConfig{Enabled: true, SampleRate: 1},
				Metrics:  MetricsConfig{Enabled: true, Interval: 30 * time.Second},
			},
			"otlp(x:1) tracing=1 metrics=30s",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cfg.Describe(); got != tt.want {
				t.Errorf("Describe() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSetup_Disabled(t *testing.T) {
	shutdown, err := Setup(context.Background(), Config{}, Resource{Name: "test"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}

func TestSampler(t *testing.T) {
	tests := []struct {
		rate float64
		want string
	}{
		{1.0, sdktrace.ParentBased(sdktrace.AlwaysSample()).Description()},
		{2.0, sdktrace.ParentBased(sdktrace.AlwaysSample()).Description()},
		{0, sdktrace.NeverSample().Description()},
		{-1, sdktrace.NeverSample().Description()},
		{0.5, sdktrace.ParentBased(sdktrace.TraceIDRatioBased(0.5)).Description()},
	}
	for _, tt := range tests {
		if got := sampler(tt.rate).Description(); got != tt.want {
			t.Errorf("sampler(%g) = %q, want %q", tt.rate, got, tt.want)
		}
	}
}

func TestHTTPMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	m, err := NewHTTPMetrics(mp)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ctx := context.Background()
	for _, status := range []int{200, 200, 404} {
		m.RecordRequestStart(ctx)
		m.RecordRequestEnd(ctx, "POST", status, 3*time.Millisecond)
	}
	m.RecordRequestStart(ctx)

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(ctx, &rm); err != nil {
		t.Fatalf("collect: %v", err)
	}

	totals := map[string]int64{}
	var active int64
	var histograms uint64
	for _, sm := range rm.ScopeMetrics {
		for _, md := range sm.Metrics {
			switch md.Name {
			case "http.server.request.total":
				for _, dp := range md.Data.(metricdata.Sum[int64]).DataPoints {
					status, _ := dp.Attributes.Value("http.response.status_code")
					totals[status.AsString()] += dp.Value
				}
			case "http.server.active_requests":
				for _, dp := range md.Data.(metricdata.Sum[int64]).DataPoints {
					active += dp.Value
				}
			case "http.server.request.duration":
				for _, dp := range md.Data.(metricdata.Histogram[float64]).DataPoints {
					histograms += dp.Count
				}
			}
		}
	}

	if diff := cmp.Diff(map[string]int64{"200": 2, "404": 1}, totals); diff != "" {
		t.Errorf("request totals mismatch (-want +got):\n%s", diff)
	}
	if active != 1 {
		t.Errorf("active requests = %d, want 1", active)
	}
	if histograms != 3 {
		t.Errorf("duration samples = %d, want 3", histograms)
	}
}
