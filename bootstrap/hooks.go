package bootstrap

import (
	"context"
	"fmt"
)

// Hook is a lifecycle callback that runs during application startup or shutdown.
type Hook func(ctx context.Context) error

type namedHook struct {
	name string
	fn   Hook
}

// OnStart registers a hook that runs after all components are started
// but before the application is marked as ready.
func (a *App[C]) OnStart(hooks ...Hook) {
	a.onStart = append(a.onStart, hooks...)
}

// OnReady registers a hook that runs after the ready check.
func (a *App[C]) OnReady(hooks ...Hook) {
	a.onReady = append(a.onReady, hooks...)
}

// OnStop registers a hook that runs during graceful shutdown before
// components are stopped.
func (a *App[C]) OnStop(hooks ...Hook) {
	a.onStop = append(a.onStop, hooks...)
}

// AddShutdownHook registers fn to run once during shutdown, after the
// OnStop hooks and before components are stopped. A second registration
// under the same name is ignored, so callers that may register repeatedly
// (discovery.Client on every Register) install at most one hook.
//
// AddShutdownHook satisfies discovery.ShutdownRegistrar.
func (a *App[C]) AddShutdownHook(name string, fn func(ctx context.Context) error) {
	a.hookMu.Lock()
	defer a.hookMu.Unlock()
	for _, h := range a.shutdownHooks {
		if h.name == name {
			return
		}
	}
	a.shutdownHooks = append(a.shutdownHooks, namedHook{name: name, fn: fn})
	a.Logger.Debug("shutdown hook installed", map[string]interface{}{"hook": name})
}

// ShutdownHooks returns the names of installed shutdown hooks in order.
func (a *App[C]) ShutdownHooks() []string {
	a.hookMu.Lock()
	defer a.hookMu.Unlock()
	names := make([]string, len(a.shutdownHooks))
	for i, h := range a.shutdownHooks {
		names[i] = h.name
	}
	return names
}

// runHooks executes a slice of hooks sequentially, returning the first error.
func runHooks(ctx context.Context, hooks []Hook) error {
	for i, h := range hooks {
		if err := h(ctx); err != nil {
			return fmt.Errorf("hook %d failed: %w", i, err)
		}
	}
	return nil
}
