package discovery

import (
	"context"
	"errors"
)

// ErrNoHealthyInstances is the cause attached to an EMPTY_RESULT returned
// by Lookup.
var ErrNoHealthyInstances = errors.New("no healthy instances")

// Instance is one passing instance returned by a discovery query.
type Instance struct {
	ID       string            `json:"id"`
	Name     string            `json:"name"`
	Address  string            `json:"address"`
	Port     int               `json:"port"`
	Tags     []string          `json:"tags,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Discovery defines the contract for querying passing service instances.
type Discovery interface {
	// Discover returns the instances of serviceName whose health checks are
	// all passing. An empty result with a nil error means the query
	// succeeded and nothing is healthy.
	Discover(ctx context.Context, serviceName string) ([]Instance, error)

	// Close releases any resources held by the discovery backend.
	Close() error
}

// Provider is a registry backend that supports both registration and
// discovery.
type Provider interface {
	Registry
	Discovery
}
