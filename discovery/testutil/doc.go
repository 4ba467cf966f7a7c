// Package testutil provides a stub registry agent for discovery tests.
//
// Registry serves the register, deregister, and health endpoints of the
// Consul agent API from an httptest server, records every request, and can
// be told to fail, stall, or return arbitrary health bodies.
//
//	reg := testutil.NewRegistry()
//	roottestutil.T(t).Setup(reg)
//	reg.AddHealthy("orders", discovery.Instance{Address: "10.0.0.5", Port: 8443})
//
//	p, _ := consul.NewProvider(reg.Endpoint(), nil, logger.NewNop())
//	client := discovery.NewClient(p, reg.Endpoint())
package testutil
