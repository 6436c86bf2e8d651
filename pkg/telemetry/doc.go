// Package telemetry provides logging and metrics for configglue.
//
// Logging is structured with zerolog. Parsers take a *Logger and derive a
// component logger carrying a session identifier, so that log lines from
// the sub-parsers created while following includes can be correlated:
//
//	logger, err := telemetry.NewLogger(telemetry.DefaultConfig().Logging)
//	if err != nil {
//	    return err
//	}
//	p, err := parser.New(s, parser.WithLogger(logger))
//
// Metrics are Prometheus counters and histograms registered on a private
// registry. A disabled MetricsConfig yields a no-op instance, so callers
// never need nil checks:
//
//	m, _ := telemetry.NewMetrics(telemetry.MetricsConfig{Enabled: true, Namespace: "configglue"})
//	p, err := parser.New(s, parser.WithMetrics(m))
//	...
//	_ = m.WriteTextfile("/var/lib/node_exporter/configglue.prom")
//
// Recorded series:
//
//   - files_read_total{status}: files read ("ok") or skipped ("skipped")
//   - includes_total: include directives followed
//   - read_duration_seconds: duration of Read calls
//   - interpolation_fallbacks_total{source}: references resolved from
//     __main__ or __noschema__
//   - validation_errors_total: errors reported by validation
//   - saves_total{status}: files written by Save
package telemetry
