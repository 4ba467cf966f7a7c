package bootstrap

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/kbukum/svcreg/component"
	"github.com/kbukum/svcreg/config"
	"github.com/kbukum/svcreg/discovery"
	"github.com/kbukum/svcreg/discovery/static"
	"github.com/kbukum/svcreg/logger"
)

// testConfig is a minimal config for testing that satisfies the Config interface.
type testConfig struct {
	config.ServiceConfig
}

// mockComponent implements component.Component for testing.
type mockComponent struct {
	name     string
	startErr error
	stopErr  error
	health   component.Health
	started  bool
	stopped  bool
	order    *[]string
}

func (m *mockComponent) Name() string { return m.name }
func (m *mockComponent) Start(ctx context.Context) error {
	m.started = true
	return m.startErr
}
func (m *mockComponent) Stop(ctx context.Context) error {
	m.stopped = true
	if m.order != nil {
		*m.order = append(*m.order, "component:"+m.name)
	}
	return m.stopErr
}
func (m *mockComponent) Health(ctx context.Context) component.Health {
	return m.health
}

func newTestConfig(name, version string) *testConfig {
	return &testConfig{
		ServiceConfig: config.ServiceConfig{
			Name:        name,
			Version:     version,
			Environment: config.EnvDevelopment,
		},
	}
}

func newTestApp(t *testing.T) *App[*testConfig] {
	t.Helper()
	app, err := NewApp(newTestConfig("orders", "1.0.0"), WithLogger(logger.NewNop()))
	if err != nil {
		t.Fatalf("NewApp failed: %v", err)
	}
	return app
}

func TestNewApp(t *testing.T) {
	app := newTestApp(t)
	if app.Name != "orders" || app.Version != "1.0.0" {
		t.Errorf("unexpected name/version %q/%q", app.Name, app.Version)
	}
	if app.Components == nil {
		t.Error("expected component registry")
	}
	if app.gracefulTimeout != DefaultGracefulTimeout {
		t.Errorf("expected default timeout, got %v", app.gracefulTimeout)
	}
}

func TestNewAppValidation(t *testing.T) {
	_, err := NewApp(&testConfig{}, WithLogger(logger.NewNop()))
	if err == nil {
		t.Error("expected validation error for missing name")
	}
}

func TestWithGracefulTimeout(t *testing.T) {
	app, err := NewApp(newTestConfig("orders", "1"), WithLogger(logger.NewNop()), WithGracefulTimeout(3*time.Second))
	if err != nil {
		t.Fatal(err)
	}
	if app.gracefulTimeout != 3*time.Second {
		t.Errorf("expected 3s, got %v", app.gracefulTimeout)
	}
}

func TestWithLogger(t *testing.T) {
	custom := logger.NewNop()
	app, err := NewApp(newTestConfig("orders", "1"), WithLogger(custom))
	if err != nil {
		t.Fatal(err)
	}
	if app.Logger != custom {
		t.Error("expected custom logger to be set")
	}
}

func TestRegisterComponentDuplicate(t *testing.T) {
	app := newTestApp(t)
	if err := app.RegisterComponent(&mockComponent{name: "discovery"}); err != nil {
		t.Fatal(err)
	}
	if err := app.RegisterComponent(&mockComponent{name: "discovery"}); err == nil {
		t.Error("expected duplicate registration error")
	}
}

func TestReadyCheck(t *testing.T) {
	tests := []struct {
		name    string
		health  []component.Health
		wantErr bool
	}{
		{"empty", nil, false},
		{"all healthy", []component.Health{{Name: "a", Status: component.StatusHealthy}}, false},
		{"degraded", []component.Health{{Name: "a", Status: component.StatusDegraded, Message: "not registered"}}, true},
		{"unhealthy", []component.Health{{Name: "a", Status: component.StatusUnhealthy}}, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			app := newTestApp(t)
			for i, h := range tc.health {
				app.RegisterComponent(&mockComponent{name: fmt.Sprintf("c%d", i), health: h})
			}
			err := app.ReadyCheck(context.Background())
			if (err != nil) != tc.wantErr {
				t.Errorf("ReadyCheck() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestAddShutdownHookIdempotent(t *testing.T) {
	app := newTestApp(t)
	calls := 0
	hook := func(ctx context.Context) error {
		calls++
		return nil
	}

	app.AddShutdownHook("discovery.deregister", hook)
	app.AddShutdownHook("discovery.deregister", hook)
	app.AddShutdownHook("flush", hook)

	if names := app.ShutdownHooks(); len(names) != 2 || names[0] != "discovery.deregister" || names[1] != "flush" {
		t.Fatalf("unexpected hooks %v", names)
	}
	if err := app.Shutdown(context.Background()); err != nil {
		t.Fatal(err)
	}
	if calls != 2 {
		t.Errorf("expected 2 hook calls, got %d", calls)
	}
}

func TestShutdownOrder(t *testing.T) {
	app := newTestApp(t)
	order := []string{}

	app.RegisterComponent(&mockComponent{name: "http-server", order: &order, health: component.Health{Status: component.StatusHealthy}})
	app.OnStop(func(ctx context.Context) error {
		order = append(order, "onStop")
		return nil
	})
	app.AddShutdownHook("exit", func(ctx context.Context) error {
		order = append(order, "exit")
		return nil
	})

	if err := app.RunTask(context.Background(), func(ctx context.Context) error { return nil }); err != nil {
		t.Fatal(err)
	}

	want := []string{"onStop", "exit", "component:http-server"}
	if fmt.Sprint(order) != fmt.Sprint(want) {
		t.Errorf("order = %v, want %v", order, want)
	}
}

func TestShutdownRunsOnce(t *testing.T) {
	app := newTestApp(t)
	calls := 0
	app.AddShutdownHook("exit", func(ctx context.Context) error {
		calls++
		return nil
	})

	app.Shutdown(context.Background())
	app.Shutdown(context.Background())
	if calls != 1 {
		t.Errorf("expected shutdown work once, got %d", calls)
	}
}

func TestShutdownHookErrorReported(t *testing.T) {
	app := newTestApp(t)
	comp := &mockComponent{name: "http-server"}
	app.RegisterComponent(comp)
	app.AddShutdownHook("exit", func(ctx context.Context) error { return fmt.Errorf("registry unreachable") })

	err := app.RunTask(context.Background(), func(ctx context.Context) error { return nil })
	if err == nil {
		t.Error("expected hook error to be returned")
	}
	if !comp.stopped {
		t.Error("components must stop even when a hook fails")
	}
}

func TestRunTaskWithHooks(t *testing.T) {
	app := newTestApp(t)

	order := []string{}
	app.OnStart(func(ctx context.Context) error {
		order = append(order, "start")
		return nil
	})
	app.OnConfigure(func(ctx context.Context, a *App[*testConfig]) error {
		order = append(order, "configure")
		return nil
	})
	app.OnReady(func(ctx context.Context) error {
		order = append(order, "ready")
		return nil
	})
	app.OnStop(func(ctx context.Context) error {
		order = append(order, "stop")
		return nil
	})

	app.RunTask(context.Background(), func(ctx context.Context) error {
		order = append(order, "task")
		return nil
	})

	expected := []string{"start", "configure", "ready", "task", "stop"}
	if fmt.Sprint(order) != fmt.Sprint(expected) {
		t.Errorf("order = %v, want %v", order, expected)
	}
}

func TestRunTaskError(t *testing.T) {
	app := newTestApp(t)
	err := app.RunTask(context.Background(), func(ctx context.Context) error {
		return fmt.Errorf("task error")
	})
	if err == nil || err.Error() != "task error" {
		t.Errorf("expected task error, got %v", err)
	}
}

func TestRunTaskComponentStartError(t *testing.T) {
	app := newTestApp(t)
	first := &mockComponent{name: "http-server"}
	app.RegisterComponent(first)
	app.RegisterComponent(&mockComponent{name: "discovery", startErr: fmt.Errorf("boom")})

	executed := false
	err := app.RunTask(context.Background(), func(ctx context.Context) error {
		executed = true
		return nil
	})
	if err == nil {
		t.Error("expected start error")
	}
	if executed {
		t.Error("task must not run after a start failure")
	}
	if !first.stopped {
		t.Error("started components must be stopped after a start failure")
	}
}

func TestRunReturnsOnContextCancel(t *testing.T) {
	app := newTestApp(t)
	comp := &mockComponent{name: "http-server", health: component.Health{Status: component.StatusHealthy}}
	app.RegisterComponent(comp)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	if err := app.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !comp.started || !comp.stopped {
		t.Errorf("expected start and stop, got started=%v stopped=%v", comp.started, comp.stopped)
	}
}

func TestWaitForSignalContextCancellation(t *testing.T) {
	app := newTestApp(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if sig := app.WaitForSignal(ctx); sig != nil {
		t.Errorf("expected nil signal for context cancellation, got %v", sig)
	}
}

// The discovery client installs its exit hook on the App and the hook
// deregisters on shutdown.
func TestDiscoveryExitHook(t *testing.T) {
	app := newTestApp(t)
	provider := static.NewProvider(nil)
	client := discovery.NewClient(provider, discovery.Endpoint{Host: "localhost", Port: 8500},
		discovery.WithLogger(logger.NewNop()),
		discovery.WithShutdownRegistrar(app),
	)

	ctx := context.Background()
	client.Register(ctx, discovery.RegisterRequest{ServiceName: "orders", Address: "10.0.0.5", Port: 8443})
	client.Register(ctx, discovery.RegisterRequest{ServiceName: "orders", Address: "10.0.0.5", Port: 8443})

	if names := app.ShutdownHooks(); len(names) != 1 || names[0] != discovery.DeregisterHookName {
		t.Fatalf("expected one deregistration hook, got %v", names)
	}

	if err := app.Shutdown(ctx); err != nil {
		t.Fatal(err)
	}
	if client.State() != discovery.StateUnregistered {
		t.Error("expected client to be deregistered on shutdown")
	}
	if got, _ := provider.Discover(ctx, "orders"); len(got) != 0 {
		t.Errorf("expected registry entry removed, got %+v", got)
	}
}
