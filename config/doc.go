// Package config loads process configuration.
//
// LoadConfig resolves a config.yml and an optional .env file, binds every
// environment variable under several nested key spellings, and unmarshals
// the result with Viper. REGISTRY_HOST therefore reaches a field tagged
// `mapstructure:"host"` inside a struct tagged `mapstructure:"registry"`.
//
// # Usage
//
//	var cfg Config
//	if err := config.LoadConfig("registryd", &cfg); err != nil {
//	    return err
//	}
//
// ServiceConfig is the base struct embedded by every process config; it
// follows the ApplyDefaults/Validate convention used across the module.
package config
