package testutil_test

import (
	"context"
	"errors"
	"testing"

	"github.com/kbukum/svcreg/component"
	"github.com/kbukum/svcreg/testutil"
)

type mockComponent struct {
	name     string
	started  bool
	stopped  bool
	resets   int
	state    string
	startErr error
}

func (m *mockComponent) Name() string { return m.name }

func (m *mockComponent) Start(context.Context) error {
	if m.startErr != nil {
		return m.startErr
	}
	m.started, m.stopped = true, false
	return nil
}

func (m *mockComponent) Stop(context.Context) error {
	m.started, m.stopped = false, true
	return nil
}

func (m *mockComponent) Health(context.Context) component.Health {
	return component.Health{Name: m.name, Status: component.StatusHealthy}
}

func (m *mockComponent) Reset(context.Context) error {
	m.resets++
	m.state = ""
	return nil
}

func (m *mockComponent) Snapshot(context.Context) (interface{}, error) { return m.state, nil }

func (m *mockComponent) Restore(_ context.Context, s interface{}) error {
	str, ok := s.(string)
	if !ok {
		return errors.New("bad snapshot")
	}
	m.state = str
	return nil
}

var _ testutil.TestComponent = (*mockComponent)(nil)

func TestSetup_StartsAndStops(t *testing.T) {
	comp := &mockComponent{name: "registry"}

	cleanup, err := testutil.Setup(comp)
	if err != nil {
		t.Fatalf("Setup() failed: %v", err)
	}
	if !comp.started {
		t.Error("component should be started after Setup()")
	}
	if err := cleanup(); err != nil {
		t.Fatalf("cleanup() failed: %v", err)
	}
	if !comp.stopped {
		t.Error("component should be stopped after cleanup()")
	}
}

func TestSetup_StartError(t *testing.T) {
	comp := &mockComponent{name: "registry", startErr: errors.New("port in use")}
	cleanup, err := testutil.Setup(comp)
	if err == nil {
		t.Fatal("expected start error")
	}
	if cleanup != nil {
		t.Error("expected nil cleanup on failure")
	}
}

func TestTHelper_SetupRegistersCleanup(t *testing.T) {
	comp := &mockComponent{name: "registry"}

	t.Run("inner", func(t *testing.T) {
		testutil.T(t).Setup(comp)
		if !comp.started {
			t.Error("component should be started")
		}
	})

	if !comp.stopped {
		t.Error("component should be stopped after the subtest ends")
	}
}

func TestTHelper_SnapshotRestoreReset(t *testing.T) {
	comp := &mockComponent{name: "registry", state: "orders"}
	h := testutil.T(t)

	snap := h.Snapshot(comp)
	h.Reset(comp)
	if comp.state != "" || comp.resets != 1 {
		t.Fatalf("expected reset state, got %q after %d resets", comp.state, comp.resets)
	}
	h.Restore(comp, snap)
	if comp.state != "orders" {
		t.Errorf("expected restored state %q, got %q", "orders", comp.state)
	}
}
