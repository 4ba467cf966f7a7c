package main

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/kbukum/svcreg/component"
	"github.com/kbukum/svcreg/discovery"
	"github.com/kbukum/svcreg/logger"
)

// clientSource yields the discovery client once it has started.
type clientSource interface {
	Client() *discovery.Client
}

// peerWatcher resolves the configured peer services on an interval and
// reports which of them currently have no healthy instance.
type peerWatcher struct {
	cfg    PeersConfig
	source clientSource
	log    *logger.Logger

	mu         sync.RWMutex
	unresolved map[string]bool
	resolved   map[string]discovery.Instance
	cancel     context.CancelFunc
	done       chan struct{}
}

var _ component.Component = (*peerWatcher)(nil)

func newPeerWatcher(cfg PeersConfig, source clientSource, log *logger.Logger) *peerWatcher {
	return &peerWatcher{
		cfg:        cfg,
		source:     source,
		log:        log.WithComponent("peers"),
		unresolved: make(map[string]bool),
		resolved:   make(map[string]discovery.Instance),
	}
}

func (w *peerWatcher) Name() string { return "peers" }

func (w *peerWatcher) Start(ctx context.Context) error {
	if len(w.cfg.Services) == 0 {
		return nil
	}
	w.sweep(ctx)

	loopCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	done := make(chan struct{})
	w.mu.Lock()
	w.cancel, w.done = cancel, done
	w.mu.Unlock()

	go func() {
		defer close(done)
		ticker := time.NewTicker(w.cfg.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-loopCtx.Done():
				return
			case <-ticker.C:
				w.sweep(loopCtx)
			}
		}
	}()
	return nil
}

func (w *peerWatcher) Stop(ctx context.Context) error {
	w.mu.Lock()
	cancel, done := w.cancel, w.done
	w.cancel, w.done = nil, nil
	w.mu.Unlock()
	if cancel != nil {
		cancel()
		<-done
	}
	return nil
}

// sweep resolves every peer once.
func (w *peerWatcher) sweep(ctx context.Context) {
	client := w.source.Client()
	if client == nil {
		return
	}
	for _, name := range w.cfg.Services {
		inst, ok := client.Discover(ctx, name)

		w.mu.Lock()
		was := w.unresolved[name]
		if ok {
			w.resolved[name] = inst
			delete(w.unresolved, name)
		} else {
			delete(w.resolved, name)
			w.unresolved[name] = true
		}
		w.mu.Unlock()

		switch {
		case ok && was:
			w.log.Info("peer resolved", map[string]interface{}{
				logger.FieldServiceName: name,
				logger.FieldInstanceID:  inst.ID,
			})
		case !ok && !was:
			w.log.Warn("peer unresolved", map[string]interface{}{
				logger.FieldServiceName: name,
			})
		}
	}
}

// Resolved returns the last instance chosen for name.
func (w *peerWatcher) Resolved(name string) (discovery.Instance, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	inst, ok := w.resolved[name]
	return inst, ok
}

// Health is degraded while any peer has no healthy instance.
func (w *peerWatcher) Health(ctx context.Context) component.Health {
	w.mu.RLock()
	missing := make([]string, 0, len(w.unresolved))
	for name := range w.unresolved {
		missing = append(missing, name)
	}
	w.mu.RUnlock()

	if len(missing) == 0 {
		return component.Health{Name: w.Name(), Status: component.StatusHealthy}
	}
	sort.Strings(missing)
	return component.Health{
		Name:    w.Name(),
		Status:  component.StatusDegraded,
		Message: "unresolved: " + strings.Join(missing, ","),
	}
}
