package discovery

import (
	"net"
	"strconv"
	"time"

	"github.com/kbukum/svcreg/errors"
	"github.com/kbukum/svcreg/resilience"
	"github.com/kbukum/svcreg/validation"
)

// Provider names.
const (
	ProviderConsul = "consul"
	ProviderStatic = "static"
)

// DefaultRequestTimeout bounds each registry call.
const DefaultRequestTimeout = 2 * time.Second

// Config holds service discovery and registration configuration.
type Config struct {
	// Enabled controls whether the discovery component registers this
	// process. Discovery through the static provider still works when false.
	Enabled bool `mapstructure:"enabled"`

	// Provider selects the discovery backend: "consul" or "static".
	Provider string `mapstructure:"provider" validate:"required,oneof=consul static"`

	// Registry is the registry agent endpoint.
	Registry Endpoint `mapstructure:"registry"`

	// Registration describes the local instance.
	Registration RegistrationConfig `mapstructure:"registration"`

	// StaticEndpoints provides instances for the static provider.
	StaticEndpoints []StaticEndpoint `mapstructure:"static_endpoints" validate:"dive"`
}

// Endpoint locates the registry. It is fixed for the lifetime of a Client.
type Endpoint struct {
	Host           string        `mapstructure:"host" validate:"required"`
	Port           int           `mapstructure:"port" validate:"min=1,max=65535"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// Address returns host:port.
func (e Endpoint) Address() string {
	return net.JoinHostPort(e.Host, strconv.Itoa(e.Port))
}

func (e *Endpoint) applyDefaults() {
	if e.Host == "" {
		e.Host = "localhost"
	}
	if e.Port == 0 {
		e.Port = 8500
	}
	if e.RequestTimeout <= 0 {
		e.RequestTimeout = DefaultRequestTimeout
	}
}

// RegistrationConfig describes how this process advertises itself.
type RegistrationConfig struct {
	ServiceName string `mapstructure:"service_name"`

	// Address is advertised to other services. Resolved from the local
	// host when empty.
	Address string `mapstructure:"address"`
	Port    int    `mapstructure:"port" validate:"min=0,max=65535"`

	// HostID overrides the host part of the instance ID.
	HostID string `mapstructure:"host_id"`

	HealthPath      string        `mapstructure:"health_path"`
	HealthScheme    string        `mapstructure:"health_scheme" validate:"omitempty,oneof=http https"`
	HealthInterval  time.Duration `mapstructure:"health_interval"`
	HealthTimeout   time.Duration `mapstructure:"health_timeout"`
	DeregisterAfter time.Duration `mapstructure:"deregister_after"`
	TLSSkipVerify   bool          `mapstructure:"tls_skip_verify"`

	Tags     []string          `mapstructure:"tags"`
	Metadata map[string]string `mapstructure:"metadata"`

	// ReregisterInterval drives the optional background re-registration
	// loop. Zero disables it.
	ReregisterInterval time.Duration `mapstructure:"reregister_interval"`

	// Retry governs the initial registration made by Component.Start.
	Retry resilience.RetryConfig `mapstructure:"retry"`
}

// Request converts the configuration into a RegisterRequest.
func (r RegistrationConfig) Request() RegisterRequest {
	return RegisterRequest{
		ServiceName:     r.ServiceName,
		Address:         r.Address,
		Port:            r.Port,
		HealthPath:      r.HealthPath,
		HealthScheme:    r.HealthScheme,
		Interval:        r.HealthInterval,
		Timeout:         r.HealthTimeout,
		DeregisterAfter: r.DeregisterAfter,
		TLSSkipVerify:   r.TLSSkipVerify,
		Tags:            r.Tags,
		Metadata:        r.Metadata,
	}
}

// StaticEndpoint describes a statically configured service instance.
type StaticEndpoint struct {
	Name     string            `mapstructure:"name" validate:"required"`
	Address  string            `mapstructure:"address" validate:"required"`
	Port     int               `mapstructure:"port" validate:"min=1,max=65535"`
	Tags     []string          `mapstructure:"tags"`
	Metadata map[string]string `mapstructure:"metadata"`
}

// ApplyDefaults fills zero-valued fields with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.Provider == "" {
		c.Provider = ProviderStatic
	}
	c.Registry.applyDefaults()
	if c.Registration.HealthPath == "" {
		c.Registration.HealthPath = DefaultHealthPath
	}
	if c.Registration.HealthInterval == 0 {
		c.Registration.HealthInterval = DefaultCheckInterval
	}
	if c.Registration.HealthTimeout == 0 {
		c.Registration.HealthTimeout = DefaultCheckTimeout
	}
	retry := &c.Registration.Retry
	if retry.InitialBackoff == 0 {
		retry.InitialBackoff = 500 * time.Millisecond
	}
	if retry.MaxBackoff == 0 {
		retry.MaxBackoff = 5 * time.Second
	}
	if retry.Jitter == 0 {
		retry.Jitter = 0.1
	}
	retry.ApplyDefaults()
}

// Validate checks that required fields are present and consistent.
func (c *Config) Validate() error {
	if err := validation.Validate(c); err != nil {
		return err
	}
	if c.Enabled {
		if c.Registration.ServiceName == "" {
			return errors.MissingField("registration.service_name")
		}
		if c.Registration.Port <= 0 {
			return errors.InvalidInput("registration.port", "must be between 1 and 65535")
		}
	}
	return nil
}
