// Package logger provides structured logging for svcreg using zerolog.
//
// Registry operations never return their failures to the caller, so the
// logger is the primary place those failures become visible. Every log line
// emitted by the discovery packages carries the service name, the instance
// identifier and, for failures, the failure kind.
//
// # Configuration
//
//	logging:
//	  level: "info"
//	  format: "json"
//
// # Usage
//
//	log := logger.Get("discovery")
//	log.Warn("register failed", logger.Fields("service_name", "orders"))
package logger
