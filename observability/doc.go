// Package observability wires OpenTelemetry export for a registry-aware
// process.
//
// Tracing and metrics:
//
//	tp, err := observability.InitTracer(ctx, cfg.TracerConfig())
//	defer tp.Shutdown(ctx)
//
//	mp, err := observability.InitMeter(ctx, cfg.MeterConfig())
//	defer mp.Shutdown(ctx)
//
// Component does the same under bootstrap lifecycle control.
//
// Registry call outcomes:
//
//	m, err := observability.NewDiscoveryMetrics(otel.Meter("registryd"))
//	client := discovery.NewClient(p, ep, discovery.WithObserver(m))
//
// Register and Deregister swallow registry failures; DiscoveryMetrics
// counts them under registry.failures by operation and outcome.
package observability
