package component

import (
	"context"
	"fmt"
	"testing"

	"github.com/kbukum/svcreg/logger"
)

// mockComponent implements Component for testing.
type mockComponent struct {
	name       string
	startErr   error
	stopErr    error
	health     Health
	startOrder *[]string
	stopOrder  *[]string
}

func (m *mockComponent) Name() string { return m.name }
func (m *mockComponent) Start(ctx context.Context) error {
	if m.startOrder != nil {
		*m.startOrder = append(*m.startOrder, m.name)
	}
	return m.startErr
}
func (m *mockComponent) Stop(ctx context.Context) error {
	if m.stopOrder != nil {
		*m.stopOrder = append(*m.stopOrder, m.name)
	}
	return m.stopErr
}
func (m *mockComponent) Health(ctx context.Context) Health {
	return m.health
}

type describedComponent struct {
	mockComponent
	desc Description
}

func (d *describedComponent) Describe() Description { return d.desc }

func newTestRegistry() *Registry {
	return NewRegistry(logger.NewNop())
}

func TestRegister(t *testing.T) {
	r := newTestRegistry()
	c := &mockComponent{name: "http-server", health: Health{Name: "http-server", Status: StatusHealthy}}

	if err := r.Register(c); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if got := r.Get("http-server"); got == nil || got.Name() != "http-server" {
		t.Errorf("Get returned %v", got)
	}
	if got := r.Get("missing"); got != nil {
		t.Error("expected nil for unregistered component")
	}
}

func TestRegisterDuplicate(t *testing.T) {
	r := newTestRegistry()
	r.Register(&mockComponent{name: "discovery"})

	if err := r.Register(&mockComponent{name: "discovery"}); err == nil {
		t.Error("expected error for duplicate registration")
	}
}

func TestStartAll(t *testing.T) {
	r := newTestRegistry()
	order := []string{}

	r.Register(&mockComponent{name: "http-server", startOrder: &order})
	r.Register(&mockComponent{name: "discovery", startOrder: &order})

	if err := r.StartAll(context.Background()); err != nil {
		t.Fatalf("StartAll failed: %v", err)
	}
	if len(order) != 2 || order[0] != "http-server" || order[1] != "discovery" {
		t.Errorf("expected start order [http-server, discovery], got %v", order)
	}
}

func TestStartAllError(t *testing.T) {
	r := newTestRegistry()
	order := []string{}
	r.Register(&mockComponent{name: "http-server", startOrder: &order, stopOrder: &order})
	r.Register(&mockComponent{name: "discovery", startErr: fmt.Errorf("bind: address in use")})

	if err := r.StartAll(context.Background()); err == nil {
		t.Fatal("expected error from StartAll")
	}
	if err := r.StopAll(context.Background()); err != nil {
		t.Fatalf("StopAll failed: %v", err)
	}
	if len(order) != 2 || order[1] != "http-server" {
		t.Errorf("expected started component to be stopped, got %v", order)
	}
}

func TestStopAllReverseOrder(t *testing.T) {
	r := newTestRegistry()
	order := []string{}

	r.Register(&mockComponent{name: "http-server", stopOrder: &order})
	r.Register(&mockComponent{name: "discovery", stopOrder: &order})
	r.Register(&mockComponent{name: "metrics", stopOrder: &order})

	r.StartAll(context.Background())
	if err := r.StopAll(context.Background()); err != nil {
		t.Fatalf("StopAll failed: %v", err)
	}

	if len(order) != 3 || order[0] != "metrics" || order[1] != "discovery" || order[2] != "http-server" {
		t.Errorf("expected reverse stop order, got %v", order)
	}
}

func TestStopAllSkipsUnstarted(t *testing.T) {
	r := newTestRegistry()
	order := []string{}
	r.Register(&mockComponent{name: "discovery", stopOrder: &order})

	if err := r.StopAll(context.Background()); err != nil {
		t.Fatalf("StopAll failed: %v", err)
	}
	if len(order) != 0 {
		t.Errorf("expected 0 stops for unstarted components, got %d", len(order))
	}
}

func TestStopAllWithErrors(t *testing.T) {
	r := newTestRegistry()
	order := []string{}
	r.Register(&mockComponent{name: "http-server", stopOrder: &order})
	r.Register(&mockComponent{name: "discovery", stopErr: fmt.Errorf("deregister failed")})
	r.StartAll(context.Background())

	if err := r.StopAll(context.Background()); err == nil {
		t.Error("expected error from StopAll")
	}
	if len(order) != 1 {
		t.Error("expected remaining components to stop after a failure")
	}
}

func TestHealthAll(t *testing.T) {
	r := newTestRegistry()
	r.Register(&mockComponent{
		name:   "http-server",
		health: Health{Name: "http-server", Status: StatusHealthy},
	})
	r.Register(&mockComponent{
		name:   "discovery",
		health: Health{Name: "discovery", Status: StatusDegraded, Message: "not registered"},
	})

	results := r.HealthAll(context.Background())
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Status != StatusHealthy || results[1].Status != StatusDegraded {
		t.Errorf("unexpected results %+v", results)
	}
}

func TestAggregate(t *testing.T) {
	tests := []struct {
		name string
		in   []Health
		want HealthStatus
	}{
		{"empty", nil, StatusHealthy},
		{"all healthy", []Health{{Status: StatusHealthy}, {Status: StatusHealthy}}, StatusHealthy},
		{"degraded", []Health{{Status: StatusHealthy}, {Status: StatusDegraded}}, StatusDegraded},
		{"unhealthy wins", []Health{{Status: StatusDegraded}, {Status: StatusUnhealthy}}, StatusUnhealthy},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Aggregate(tc.in); got != tc.want {
				t.Errorf("Aggregate() = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestDescriptions(t *testing.T) {
	r := newTestRegistry()
	r.Register(&mockComponent{name: "plain"})
	r.Register(&describedComponent{
		mockComponent: mockComponent{name: "discovery"},
		desc:          Description{Type: "discovery", Details: "provider=consul"},
	})

	descs := r.Descriptions()
	if len(descs) != 1 {
		t.Fatalf("expected 1 description, got %d", len(descs))
	}
	if descs[0].Name != "discovery" {
		t.Errorf("expected name fallback to component name, got %q", descs[0].Name)
	}
}

func TestAll(t *testing.T) {
	r := newTestRegistry()
	r.Register(&mockComponent{name: "a"})
	r.Register(&mockComponent{name: "b"})

	all := r.All()
	if len(all) != 2 || all[0].Name() != "a" || all[1].Name() != "b" {
		t.Errorf("unexpected order %v", all)
	}
}
