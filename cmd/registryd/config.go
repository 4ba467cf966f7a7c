package main

import (
	"time"

	"github.com/kbukum/svcreg/config"
	"github.com/kbukum/svcreg/discovery"
	"github.com/kbukum/svcreg/discovery/consul"
	"github.com/kbukum/svcreg/observability"
	"github.com/kbukum/svcreg/server"
	"github.com/kbukum/svcreg/validation"
	"github.com/kbukum/svcreg/version"
)

const serviceName = "registryd"

// Config is the registryd configuration. Every key can be set from the
// environment, e.g. DISCOVERY_REGISTRY_HOST or SERVER_PORT.
type Config struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`

	Server        server.Config        `yaml:"server" mapstructure:"server"`
	Discovery     discovery.Config     `yaml:"discovery" mapstructure:"discovery"`
	Consul        consul.Config        `yaml:"consul" mapstructure:"consul"`
	Observability observability.Config `yaml:"observability" mapstructure:"observability"`
	Peers         PeersConfig          `yaml:"peers" mapstructure:"peers"`
}

// PeersConfig lists services resolved on an interval.
type PeersConfig struct {
	Services []string      `yaml:"services" mapstructure:"services" validate:"dive,required"`
	Interval time.Duration `yaml:"interval" mapstructure:"interval"`
}

// ApplyDefaults fills unset fields. The registration inherits the service
// name, the server port and the health path unless set explicitly, and
// carries the build version in its metadata.
func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = serviceName
	}
	c.ServiceConfig.ApplyDefaults()
	c.Server.ApplyDefaults()

	reg := &c.Discovery.Registration
	if reg.ServiceName == "" {
		reg.ServiceName = c.Name
	}
	if reg.Port == 0 {
		reg.Port = c.Server.Port
	}
	if reg.HealthPath == "" {
		reg.HealthPath = c.Server.HealthPath
	}
	build := version.Get()
	if c.Version == "" {
		c.Version = build.Version
	}
	build.Version = c.Version
	if reg.Metadata == nil {
		reg.Metadata = make(map[string]string)
	}
	for k, v := range build.Metadata() {
		if _, ok := reg.Metadata[k]; !ok {
			reg.Metadata[k] = v
		}
	}
	c.Discovery.ApplyDefaults()
	c.Consul.ApplyDefaults()

	if c.Observability.ServiceName == "" {
		c.Observability.ServiceName = c.Name
	}
	if c.Observability.ServiceVersion == "" {
		c.Observability.ServiceVersion = c.Version
	}
	if c.Observability.Environment == "" {
		c.Observability.Environment = c.Environment
	}
	c.Observability.ApplyDefaults()

	if c.Peers.Interval <= 0 {
		c.Peers.Interval = 30 * time.Second
	}
}

// Validate checks every section.
func (c *Config) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	if err := c.Server.Validate(); err != nil {
		return err
	}
	if err := c.Discovery.Validate(); err != nil {
		return err
	}
	if c.Discovery.Provider == discovery.ProviderConsul {
		if err := c.Consul.Validate(); err != nil {
			return err
		}
	}
	if err := c.Observability.Validate(); err != nil {
		return err
	}
	return validation.Validate(&c.Peers)
}
