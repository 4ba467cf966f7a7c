package discovery

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/kbukum/svcreg/component"
	"github.com/kbukum/svcreg/errors"
	"github.com/kbukum/svcreg/logger"
	"github.com/kbukum/svcreg/resilience"
)

// ProviderFactory creates a Provider from a Config.
// providerCfg holds provider-specific configuration (e.g., *consul.Config).
// Providers should type-assert providerCfg to their own config type.
type ProviderFactory func(cfg Config, providerCfg any, log *logger.Logger) (Provider, error)

var (
	factoriesMu       sync.RWMutex
	providerFactories = make(map[string]ProviderFactory)
)

// RegisterProviderFactory registers a discovery backend factory for the given
// provider name. Implementation packages call this (typically in an init
// function) to make themselves available to New and the Component.
func RegisterProviderFactory(name string, f ProviderFactory) {
	factoriesMu.Lock()
	defer factoriesMu.Unlock()
	providerFactories[name] = f
}

func lookupFactory(name string) (ProviderFactory, bool) {
	factoriesMu.RLock()
	defer factoriesMu.RUnlock()
	f, ok := providerFactories[name]
	return f, ok
}

// New builds a Client from configuration using the registered factory for
// cfg.Provider. Defaults are applied to cfg before validation.
func New(cfg Config, providerCfg any, log *logger.Logger, opts ...Option) (*Client, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("discovery config: %w", err)
	}
	if log == nil {
		log = logger.Get("discovery")
	}

	f, ok := lookupFactory(cfg.Provider)
	if !ok {
		return nil, errors.InvalidInput("provider", fmt.Sprintf("discovery provider %q is not registered", cfg.Provider))
	}
	p, err := f(cfg, providerCfg, log)
	if err != nil {
		return nil, fmt.Errorf("discovery provider %s: %w", cfg.Provider, err)
	}

	base := []Option{WithLogger(log)}
	if cfg.Registration.HostID != "" {
		base = append(base, WithHostID(cfg.Registration.HostID))
	}
	return NewClient(p, cfg.Registry, append(base, opts...)...), nil
}

// Component wraps a Client and implements component.Component. When
// registration is enabled it registers on Start, keeps the registration
// fresh, and deregisters on Stop.
type Component struct {
	cfg         Config
	providerCfg any
	opts        []Option
	log         *logger.Logger

	mu     sync.RWMutex
	client *Client
	cancel context.CancelFunc
	done   chan struct{}
}

// NewComponent creates a discovery Component for use with the component registry.
// providerCfg holds provider-specific configuration (e.g., *consul.Config for Consul).
func NewComponent(cfg Config, providerCfg any, log *logger.Logger, opts ...Option) *Component {
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	cfg.ApplyDefaults()
	return &Component{
		cfg:         cfg,
		providerCfg: providerCfg,
		opts:        opts,
		log:         log.WithComponent("discovery"),
	}
}

// ensure Component satisfies component.Component.
var _ component.Component = (*Component)(nil)

// Name returns the component name.
func (c *Component) Name() string { return "discovery" }

// Client returns the Client built on Start, or nil if not started.
func (c *Component) Client() *Client {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.client
}

// Start builds the Client and, when enabled, registers the local instance.
// A registration that still fails after retries is logged and left to the
// re-registration loop; it does not fail Start.
func (c *Component) Start(ctx context.Context) error {
	client, err := New(c.cfg, c.providerCfg, c.log, c.opts...)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.client = client
	c.mu.Unlock()

	if !c.cfg.Enabled {
		c.log.Info("discovery started, registration disabled", map[string]interface{}{
			"provider": c.cfg.Provider,
		})
		return nil
	}

	req := c.cfg.Registration.Request()
	if err := c.registerWithRetry(ctx, client, req); err != nil {
		c.log.Warn("initial registration failed", map[string]interface{}{
			logger.FieldServiceName: req.ServiceName,
			logger.FieldError:       err.Error(),
		})
	}

	if interval := c.cfg.Registration.ReregisterInterval; interval > 0 {
		loopCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		done := make(chan struct{})
		c.mu.Lock()
		c.cancel, c.done = cancel, done
		c.mu.Unlock()
		go c.reregisterLoop(loopCtx, client, req, interval, done)
	}

	c.log.Info("discovery component started", map[string]interface{}{
		"provider":           c.cfg.Provider,
		logger.FieldRegistry: client.Endpoint().Address(),
	})
	return nil
}

// registerWithRetry retries retryable registration failures with backoff.
func (c *Component) registerWithRetry(ctx context.Context, client *Client, req RegisterRequest) error {
	cfg := c.cfg.Registration.Retry
	cfg.OnRetry = func(attempt int, err error, wait time.Duration) {
		c.log.Debug("registration attempt failed, retrying", map[string]interface{}{
			logger.FieldServiceName: req.ServiceName,
			"attempt":               attempt,
			"wait_ms":               wait.Milliseconds(),
			logger.FieldError:       err.Error(),
		})
	}
	return resilience.RetryFunc(ctx, cfg, func() error {
		return client.register(ctx, req)
	})
}

// reregisterLoop re-upserts the registration on every tick so an instance
// dropped by the registry comes back.
func (c *Component) reregisterLoop(ctx context.Context, client *Client, req RegisterRequest, interval time.Duration, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			client.Register(ctx, req)
		}
	}
}

// Stop ends the re-registration loop, deregisters, and closes the provider.
func (c *Component) Stop(ctx context.Context) error {
	c.mu.Lock()
	client, cancel, done := c.client, c.cancel, c.done
	c.cancel, c.done = nil, nil
	c.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
	if client == nil {
		return nil
	}

	c.log.Info("discovery component stopping")
	client.Deregister(ctx)
	return client.Close()
}

// Health reports unhealthy before Start and degraded while registration is
// enabled but not in effect.
func (c *Component) Health(ctx context.Context) component.Health {
	client := c.Client()
	if client == nil {
		return component.Health{
			Name:    c.Name(),
			Status:  component.StatusUnhealthy,
			Message: "discovery not initialized",
		}
	}
	if !c.cfg.Enabled {
		return component.Health{
			Name:    c.Name(),
			Status:  component.StatusHealthy,
			Message: "registration disabled",
		}
	}
	if id, ok := client.Identity(); ok {
		return component.Health{
			Name:    c.Name(),
			Status:  component.StatusHealthy,
			Message: "registered as " + id.InstanceID,
		}
	}
	return component.Health{
		Name:    c.Name(),
		Status:  component.StatusDegraded,
		Message: "not registered",
	}
}

// Describe returns infrastructure summary info for the bootstrap display.
func (c *Component) Describe() component.Description {
	cfg := c.cfg
	return component.Description{
		Name:    "Discovery",
		Type:    "discovery",
		Details: fmt.Sprintf("provider=%s registry=%s service=%s", cfg.Provider, cfg.Registry.Address(), cfg.Registration.ServiceName),
		Port:    cfg.Registration.Port,
	}
}
