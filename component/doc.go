// Package component defines the lifecycle contract shared by the parts of
// a registry-aware process.
//
// Components require startup, shutdown, and health reporting. They are
// registered with a Registry (usually owned by bootstrap.App) which starts
// them in registration order and stops them in reverse.
//
// # Interfaces
//
//   - Component: Name/Start/Stop/Health
//   - Describable: one-line description for the startup log
package component
