package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func TestServiceConfigApplyDefaults(t *testing.T) {
	t.Run("empty environment defaults to development", func(t *testing.T) {
		cfg := ServiceConfig{Name: "registryd"}
		cfg.ApplyDefaults()
		if cfg.Environment != EnvDevelopment {
			t.Errorf("expected development, got %q", cfg.Environment)
		}
		if !cfg.Debug {
			t.Error("expected debug=true for development")
		}
		if cfg.Logging.ServiceName != "registryd" {
			t.Errorf("expected logging service name propagated, got %q", cfg.Logging.ServiceName)
		}
	})

	t.Run("production keeps debug false", func(t *testing.T) {
		cfg := ServiceConfig{Name: "registryd", Environment: EnvProduction}
		cfg.ApplyDefaults()
		if cfg.Debug {
			t.Error("expected debug=false for production")
		}
	})
}

func TestServiceConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     ServiceConfig
		wantErr bool
	}{
		{"valid development", ServiceConfig{Name: "svc", Environment: EnvDevelopment}, false},
		{"valid production", ServiceConfig{Name: "svc", Environment: EnvProduction}, false},
		{"missing name", ServiceConfig{Environment: EnvProduction}, true},
		{"invalid environment", ServiceConfig{Name: "svc", Environment: "moon"}, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := tc.cfg
			cfg.Logging.ApplyDefaults()
			err := cfg.Validate()
			if (err != nil) != tc.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

type registryEndpoint struct {
	Host           string        `mapstructure:"host"`
	Port           int           `mapstructure:"port"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

type testConfig struct {
	ServiceConfig `mapstructure:",squash"`
	Registry      registryEndpoint `mapstructure:"registry"`
}

func TestLoadConfigWithYAML(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yml")

	yamlContent := `
name: orders
environment: staging
registry:
  host: consul.internal
  port: 8500
  request_timeout: 3s
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	var cfg testConfig
	if err := LoadConfig("orders", &cfg, WithConfigFile(configPath), WithEnvFile(filepath.Join(dir, "missing.env"))); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Name != "orders" || cfg.Environment != EnvStaging {
		t.Errorf("unexpected service config %+v", cfg.ServiceConfig)
	}
	if cfg.Registry.Host != "consul.internal" || cfg.Registry.Port != 8500 {
		t.Errorf("unexpected registry %+v", cfg.Registry)
	}
	if cfg.Registry.RequestTimeout != 3*time.Second {
		t.Errorf("RequestTimeout = %v", cfg.Registry.RequestTimeout)
	}
}

func TestLoadConfigEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yml")
	if err := os.WriteFile(configPath, []byte("name: orders\nregistry:\n  host: file-host\n  port: 8500\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("REGISTRY_HOST", "10.0.0.2")
	t.Setenv("REGISTRY_PORT", "8501")

	var cfg testConfig
	if err := LoadConfig("orders", &cfg, WithConfigFile(configPath), WithEnvFile(filepath.Join(dir, "missing.env"))); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Registry.Host != "10.0.0.2" || cfg.Registry.Port != 8501 {
		t.Errorf("expected env override, got %+v", cfg.Registry)
	}
}

func TestLoadConfigDotEnv(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	if err := os.WriteFile(envPath, []byte("REGISTRY_REQUEST_TIMEOUT=750ms\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Unsetenv("REGISTRY_REQUEST_TIMEOUT") })

	var cfg testConfig
	if err := LoadConfig("orders", &cfg, WithConfigFile(filepath.Join(dir, "none.yml")), WithEnvFile(envPath)); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Registry.RequestTimeout != 750*time.Millisecond {
		t.Errorf("RequestTimeout = %v", cfg.Registry.RequestTimeout)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	var cfg testConfig
	err := LoadConfig("nonexistent-service", &cfg, WithConfigFile("/nonexistent/path.yml"), WithEnvFile("/nonexistent/.env"))
	if err != nil {
		t.Fatalf("expected LoadConfig to succeed with missing file, got %v", err)
	}
}

type mockFS struct {
	files map[string]bool
}

func (m *mockFS) Exists(path string) bool   { return m.files[path] }
func (m *mockFS) LoadEnv(path string) error { return nil }

func TestResolveFiles(t *testing.T) {
	fs := &mockFS{files: map[string]bool{
		filepath.Join("cmd", "registryd", "config.yml"): true,
		"config.yml": true,
		".env":       true,
	}}

	files := ResolveFiles("registryd", LoaderConfig{FileSystem: fs})
	if files.ConfigFile != filepath.Join("cmd", "registryd", "config.yml") {
		t.Errorf("ConfigFile = %q", files.ConfigFile)
	}
	if files.EnvFile != ".env" {
		t.Errorf("EnvFile = %q", files.EnvFile)
	}

	explicit := ResolveFiles("registryd", LoaderConfig{FileSystem: fs, ConfigFile: "/tmp/x.yml"})
	if explicit.ConfigFile != "/tmp/x.yml" {
		t.Errorf("explicit ConfigFile = %q", explicit.ConfigFile)
	}
}

func TestEnvKeyVariants(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"PORT", []string{"port"}},
		{"REGISTRY_HOST", []string{"registry_host", "registry.host"}},
		{"REGISTRY_REQUEST_TIMEOUT", []string{
			"registry_request_timeout",
			"registry.request.timeout",
			"registry.request_timeout",
			"registry_request.timeout",
		}},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			if got := EnvKeyVariants(tc.in); !reflect.DeepEqual(got, tc.want) {
				t.Errorf("EnvKeyVariants(%q) = %v, want %v", tc.in, got, tc.want)
			}
		})
	}
}

func TestLoaderOptions(t *testing.T) {
	var lc LoaderConfig
	fs := &mockFS{}
	WithFileSystem(fs)(&lc)
	WithConfigFile("/path/to/config.yml")(&lc)
	WithEnvFile("/path/to/.env")(&lc)

	if lc.FileSystem == nil || lc.ConfigFile != "/path/to/config.yml" || lc.EnvFile != "/path/to/.env" {
		t.Errorf("unexpected loader config %+v", lc)
	}
}
