// Package server provides the HTTP server a registered service runs: Gin
// wrapped in h2c, with the health endpoint the registry's HTTP check polls.
//
// # Middleware
//
// Built-in middleware (server/middleware):
//
//   - Recovery: panic recovery with structured logging
//   - RequestID: request ID generation and propagation
//   - RequestLogger: request logging, quiet on the health path
//
// # Endpoints
//
// Built-in endpoints (server/endpoint):
//
//   - Config.HealthPath: aggregate component health, 503 when unhealthy
//   - /alive: process liveness
package server
