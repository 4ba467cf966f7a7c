package consul

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/hashicorp/consul/api"

	"github.com/kbukum/svcreg/discovery"
	"github.com/kbukum/svcreg/errors"
	"github.com/kbukum/svcreg/logger"
)

// Provider implements discovery.Provider against a Consul agent's HTTP API.
//
//	register:   PUT /v1/agent/service/register
//	deregister: PUT /v1/agent/service/deregister/{id}
//	discover:   GET /v1/health/service/{name}?passing=1
//
// Errors are AppErrors: PROTOCOL_FAILURE when the agent answered with a
// non-200 status, TRANSPORT_FAILURE otherwise.
type Provider struct {
	client *api.Client
	log    *logger.Logger
}

func init() {
	discovery.RegisterProviderFactory(discovery.ProviderConsul, func(cfg discovery.Config, providerCfg any, log *logger.Logger) (discovery.Provider, error) {
		var ccfg *Config
		switch v := providerCfg.(type) {
		case *Config:
			ccfg = v
		case Config:
			ccfg = &v
		case nil:
		default:
			return nil, fmt.Errorf("consul: unexpected provider config %T", providerCfg)
		}
		return NewProvider(cfg.Registry, ccfg, log)
	})
}

// NewProvider creates a Provider for the agent at ep. cfg may be nil.
func NewProvider(ep discovery.Endpoint, cfg *Config, log *logger.Logger) (*Provider, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("consul config: %w", err)
	}
	if log == nil {
		log = logger.Get("discovery.consul")
	}

	client, err := api.NewClient(apiConfig(ep, cfg))
	if err != nil {
		return nil, fmt.Errorf("consul client: %w", err)
	}

	return &Provider{client: client, log: log}, nil
}

func apiConfig(ep discovery.Endpoint, cfg *Config) *api.Config {
	apiCfg := api.DefaultConfig()
	apiCfg.Address = ep.Address()
	apiCfg.Scheme = cfg.Scheme
	if cfg.Token != "" {
		apiCfg.Token = cfg.Token
	}
	if cfg.Datacenter != "" {
		apiCfg.Datacenter = cfg.Datacenter
	}
	if cfg.Namespace != "" {
		apiCfg.Namespace = cfg.Namespace
	}
	if cfg.Partition != "" {
		apiCfg.Partition = cfg.Partition
	}

	if cfg.TLS != nil && cfg.TLS.Enabled {
		apiCfg.TLSConfig = api.TLSConfig{
			Address:            cfg.TLS.ServerName,
			CAFile:             cfg.TLS.CACert,
			CAPath:             cfg.TLS.CAPath,
			CertFile:           cfg.TLS.ClientCert,
			KeyFile:            cfg.TLS.ClientKey,
			InsecureSkipVerify: cfg.TLS.InsecureSkipVerify,
		}
	}

	if t := apiCfg.Transport; t != nil && cfg.Pool != nil {
		t.MaxIdleConns = cfg.Pool.MaxIdleConns
		t.MaxIdleConnsPerHost = cfg.Pool.MaxIdleConnsPerHost
		t.MaxConnsPerHost = cfg.Pool.MaxConnsPerHost
		t.IdleConnTimeout = cfg.Pool.IdleConnTimeout
	}
	return apiCfg
}

// Register upserts reg with the agent.
func (p *Provider) Register(ctx context.Context, reg *discovery.Registration) error {
	err := p.client.Agent().ServiceRegisterOpts(toAgentRegistration(reg), api.ServiceRegisterOpts{}.WithContext(ctx))
	if err != nil {
		return classify(discovery.OpRegister, reg.Name, err)
	}
	p.log.Debug("consul register ok", map[string]interface{}{
		logger.FieldInstanceID: reg.ID,
	})
	return nil
}

// Deregister removes the instance with the given ID from the agent.
func (p *Provider) Deregister(ctx context.Context, instanceID string) error {
	q := (&api.QueryOptions{}).WithContext(ctx)
	if err := p.client.Agent().ServiceDeregisterOpts(instanceID, q); err != nil {
		return classify(discovery.OpDeregister, instanceID, err)
	}
	p.log.Debug("consul deregister ok", map[string]interface{}{
		logger.FieldInstanceID: instanceID,
	})
	return nil
}

// Discover returns the instances of serviceName whose checks are all
// passing. An empty slice with a nil error means none are.
func (p *Provider) Discover(ctx context.Context, serviceName string) ([]discovery.Instance, error) {
	q := (&api.QueryOptions{}).WithContext(ctx)
	entries, _, err := p.client.Health().Service(serviceName, "", true, q)
	if err != nil {
		return nil, classify(discovery.OpDiscover, serviceName, err)
	}

	instances := make([]discovery.Instance, 0, len(entries))
	for _, e := range entries {
		if e == nil || e.Service == nil {
			continue
		}
		instances = append(instances, toInstance(e))
	}
	return instances, nil
}

// Close is a no-op; the HTTP client does not require explicit closing.
func (p *Provider) Close() error {
	return nil
}

func toAgentRegistration(reg *discovery.Registration) *api.AgentServiceRegistration {
	return &api.AgentServiceRegistration{
		ID:      reg.ID,
		Name:    reg.Name,
		Address: reg.Address,
		Port:    reg.Port,
		Tags:    reg.Tags,
		Meta:    reg.Metadata,
		Check: &api.AgentServiceCheck{
			Name:                           reg.Check.Name,
			HTTP:                           reg.Check.URL,
			Interval:                       reg.Check.Interval,
			Timeout:                        reg.Check.Timeout,
			Status:                         reg.Check.Status,
			TLSSkipVerify:                  reg.Check.TLSSkipVerify,
			DeregisterCriticalServiceAfter: reg.Check.DeregisterAfter,
		},
	}
}

func toInstance(e *api.ServiceEntry) discovery.Instance {
	address := e.Service.Address
	if address == "" && e.Node != nil {
		address = e.Node.Address
	}
	return discovery.Instance{
		ID:       e.Service.ID,
		Name:     e.Service.Service,
		Address:  address,
		Port:     e.Service.Port,
		Tags:     e.Service.Tags,
		Metadata: e.Service.Meta,
	}
}

// classify maps a consul api error to the registry error taxonomy.
func classify(op discovery.Operation, subject string, err error) error {
	var statusErr api.StatusError
	if stderrors.As(err, &statusErr) {
		return errors.ProtocolFailure(string(op), subject, statusErr.Code, strings.TrimSpace(statusErr.Body))
	}
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if stderrors.As(err, &syntaxErr) || stderrors.As(err, &typeErr) {
		return errors.ProtocolFailure(string(op), subject, http.StatusOK, "malformed response body").WithCause(err)
	}
	return errors.TransportFailure(string(op), subject, err)
}

// Compile-time check.
var _ discovery.Provider = (*Provider)(nil)
