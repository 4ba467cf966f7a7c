package bootstrap

import (
	"context"
	"time"

	"github.com/kbukum/svcreg/component"
)

// logSummary writes one startup line per described component and one with
// the aggregate health.
func (a *App[C]) logSummary(ctx context.Context, took time.Duration) {
	for _, d := range a.Components.Descriptions() {
		fields := map[string]interface{}{
			"type":    d.Type,
			"details": d.Details,
		}
		if d.Port > 0 {
			fields["port"] = d.Port
		}
		a.Logger.Info(d.Name, fields)
	}

	health := a.Components.HealthAll(ctx)
	healthy := 0
	for _, h := range health {
		if h.Status == component.StatusHealthy {
			healthy++
		}
	}
	a.Logger.Info("Application started", map[string]interface{}{
		"name":       a.Name,
		"version":    a.Version,
		"startup_ms": took.Milliseconds(),
		"status":     string(component.Aggregate(health)),
		"healthy":    healthy,
		"components": len(health),
		"exit_hooks": len(a.ShutdownHooks()),
	})
}
