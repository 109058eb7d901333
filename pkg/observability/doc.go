// Package observability provides structured logging, Prometheus metrics,
// health checks, OpenTelemetry wiring, and graceful shutdown helpers.
//
// # Logging
//
//	logger := observability.NewLogger(observability.InfoLevel, os.Stdout)
//	logger.WithField("tenant_id", tenantID).Info("project created")
//
// Request-scoped loggers pick up the request id and user id from the
// context:
//
//	logger := observability.FromContext(r.Context())
//
// # Metrics
//
// Metrics cover HTTP traffic, authorization decisions, login attempts,
// and database pool state. Authorization counters are labeled by
// operation and outcome so denial spikes are visible per route.
package observability
