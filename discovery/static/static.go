package static

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"sync"

	"github.com/kbukum/svcreg/discovery"
	"github.com/kbukum/svcreg/logger"
)

// Provider implements discovery.Provider using an in-memory list of
// instances. Useful for local development and testing. Every instance is
// treated as passing.
type Provider struct {
	mu        sync.RWMutex
	instances map[string][]discovery.Instance // keyed by service name
}

func init() {
	discovery.RegisterProviderFactory(discovery.ProviderStatic, func(cfg discovery.Config, _ any, _ *logger.Logger) (discovery.Provider, error) {
		return NewProvider(cfg.StaticEndpoints), nil
	})
}

// NewProvider creates a Provider pre-populated from static config.
func NewProvider(endpoints []discovery.StaticEndpoint) *Provider {
	sp := &Provider{
		instances: make(map[string][]discovery.Instance),
	}
	for _, ep := range endpoints {
		sp.instances[ep.Name] = append(sp.instances[ep.Name], discovery.Instance{
			ID:       fmt.Sprintf("%s-%s", ep.Name, net.JoinHostPort(ep.Address, strconv.Itoa(ep.Port))),
			Name:     ep.Name,
			Address:  ep.Address,
			Port:     ep.Port,
			Tags:     ep.Tags,
			Metadata: ep.Metadata,
		})
	}
	return sp
}

// --- Registry implementation ---

// Register upserts an instance keyed by its ID.
func (s *Provider) Register(_ context.Context, reg *discovery.Registration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.removeLocked(reg.ID)
	s.instances[reg.Name] = append(s.instances[reg.Name], discovery.Instance{
		ID:       reg.ID,
		Name:     reg.Name,
		Address:  reg.Address,
		Port:     reg.Port,
		Tags:     reg.Tags,
		Metadata: reg.Metadata,
	})
	return nil
}

// Deregister removes a service instance by ID. Unknown IDs are ignored.
func (s *Provider) Deregister(_ context.Context, instanceID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeLocked(instanceID)
	return nil
}

func (s *Provider) removeLocked(instanceID string) {
	for name, list := range s.instances {
		for i, inst := range list {
			if inst.ID == instanceID {
				s.instances[name] = append(list[:i:i], list[i+1:]...)
				return
			}
		}
	}
}

// --- Discovery implementation ---

// Discover returns a copy of the instances registered under serviceName.
// An unknown name yields an empty slice and no error.
func (s *Provider) Discover(_ context.Context, serviceName string) ([]discovery.Instance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]discovery.Instance, len(s.instances[serviceName]))
	copy(out, s.instances[serviceName])
	return out, nil
}

// Close is a no-op for the static provider.
func (s *Provider) Close() error {
	return nil
}

// Compile-time check.
var _ discovery.Provider = (*Provider)(nil)
