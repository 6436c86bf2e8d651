package telemetry

import (
	"context"
)

// Telemetry bundles the logger and metrics of a tool invocation.
type Telemetry struct {
	Logger  *Logger
	Metrics *Metrics
	Config  *Config
}

// telemetryContextKey is the context key for telemetry instances.
type telemetryContextKey struct{}

// NewTelemetry creates a new telemetry instance from configuration.
func NewTelemetry(cfg *Config) (*Telemetry, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger, err := NewLogger(cfg.Logging)
	if err != nil {
		return nil, err
	}

	metrics, err := NewMetrics(cfg.Metrics)
	if err != nil {
		return nil, err
	}

	return &Telemetry{
		Logger:  logger.WithField("service", cfg.ServiceName),
		Metrics: metrics,
		Config:  cfg,
	}, nil
}

// WithContext adds the telemetry instance and its logger to the context.
func (t *Telemetry) WithContext(ctx context.Context) context.Context {
	ctx = context.WithValue(ctx, telemetryContextKey{}, t)
	return t.Logger.WithContext(ctx)
}

// FromTelemetryContext retrieves the telemetry instance from the context.
// If none is stored, it returns an instance that logs and records nothing.
func FromTelemetryContext(ctx context.Context) *Telemetry {
	if t, ok := ctx.Value(telemetryContextKey{}).(*Telemetry); ok {
		return t
	}
	return &Telemetry{
		Logger:  NewNopLogger(),
		Metrics: NewNopMetrics(),
		Config:  DefaultConfig(),
	}
}

// Flush writes collected metrics to the configured textfile, if any.
func (t *Telemetry) Flush() error {
	return t.Metrics.WriteTextfile(t.Config.Metrics.TextfilePath)
}
