// Package discovery is a service-registry client.
//
// A process uses it to advertise itself to a shared registry, to withdraw
// that advertisement on shutdown, and to look up one healthy instance of
// another named service.
//
// # Architecture
//
//   - Client: owns the registry endpoint and the local instance identity;
//     performs Register, Deregister, Discover and Lookup
//   - Provider: speaks the registry's wire protocol (Registry + Discovery)
//   - BuildHealthCheck: pure construction of the health-check descriptor
//   - Observer: receives the outcome of every registry call
//   - Component: lifecycle wrapper (register on Start, deregister on Stop)
//
// Register and Deregister never return errors. Registry failures are
// logged and reported to the Observer so that a registry outage cannot
// take the owning process down. Discover collapses every failure to
// "not found"; Lookup returns the same result with a typed error.
//
// # Backends
//
//   - discovery/consul: Consul agent HTTP API
//   - discovery/static: in-memory list for development and tests
package discovery
