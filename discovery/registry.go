package discovery

import (
	"context"
)

// Registration is the payload written to the registry for one instance.
type Registration struct {
	ID       string
	Name     string
	Address  string
	Port     int
	Tags     []string
	Metadata map[string]string
	Check    HealthCheck
}

// Registry defines the contract for service registration and deregistration.
type Registry interface {
	// Register upserts an instance. Registering the same ID again replaces
	// the previous entry.
	Register(ctx context.Context, reg *Registration) error

	// Deregister removes the instance with the given ID.
	Deregister(ctx context.Context, instanceID string) error

	// Close releases any resources held by the registry.
	Close() error
}
