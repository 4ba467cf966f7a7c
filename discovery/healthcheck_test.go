package discovery

import (
	"testing"
	"time"
)

func TestHealthCheckURL_Scheme(t *testing.T) {
	tests := []struct {
		name   string
		port   int
		scheme string
		want   string
	}{
		{"https port", 443, "", "https://10.0.0.5:443/health"},
		{"alternate https port", 8443, "", "https://10.0.0.5:8443/health"},
		{"plain port", 8080, "", "http://10.0.0.5:8080/health"},
		{"port 80", 80, "", "http://10.0.0.5:80/health"},
		{"override to https", 9000, "https", "https://10.0.0.5:9000/health"},
		{"override to http", 443, "HTTP", "http://10.0.0.5:443/health"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := HealthCheckURL("10.0.0.5", tc.port, "/health", tc.scheme)
			if got != tc.want {
				t.Errorf("HealthCheckURL() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"health", "/health"},
		{"/health", "/health"},
		{"//health", "/health"},
		{"", "/health"},
		{"  ", "/health"},
		{"status/live", "/status/live"},
	}
	for _, tc := range tests {
		if got := NormalizePath(tc.in); got != tc.want {
			t.Errorf("NormalizePath(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestHealthCheckURL_IPv6(t *testing.T) {
	got := HealthCheckURL("fd00::5", 8080, "health", "")
	if got != "http://[fd00::5]:8080/health" {
		t.Errorf("unexpected URL %q", got)
	}
}

func TestBuildHealthCheck_Defaults(t *testing.T) {
	hc := BuildHealthCheck(HealthCheckInput{
		ServiceName: "orders",
		Address:     "10.0.0.5",
		Port:        8080,
		Path:        "health",
	})

	if hc.URL != "http://10.0.0.5:8080/health" {
		t.Errorf("URL = %q", hc.URL)
	}
	if hc.Interval != "10s" {
		t.Errorf("Interval = %q, want 10s", hc.Interval)
	}
	if hc.Timeout != "5s" {
		t.Errorf("Timeout = %q, want 5s", hc.Timeout)
	}
	if hc.Status != "critical" {
		t.Errorf("Status = %q, want critical", hc.Status)
	}
	if hc.DeregisterAfter != "" {
		t.Errorf("DeregisterAfter = %q, want empty", hc.DeregisterAfter)
	}
	if hc.TLSSkipVerify {
		t.Error("TLSSkipVerify should default to false")
	}
	if hc.Name != "orders health check" {
		t.Errorf("Name = %q", hc.Name)
	}
}

func TestBuildHealthCheck_Explicit(t *testing.T) {
	hc := BuildHealthCheck(HealthCheckInput{
		ServiceName:     "orders",
		Address:         "orders.internal",
		Port:            443,
		Path:            "/ready",
		Interval:        30 * time.Second,
		Timeout:         time.Second,
		DeregisterAfter: time.Minute,
		TLSSkipVerify:   true,
	})

	want := HealthCheck{
		Name:            "orders health check",
		URL:             "https://orders.internal:443/ready",
		Interval:        "30s",
		Timeout:         "1s",
		Status:          "critical",
		TLSSkipVerify:   true,
		DeregisterAfter: "1m0s",
	}
	if hc != want {
		t.Errorf("BuildHealthCheck() = %+v, want %+v", hc, want)
	}
}

func TestBuildHealthCheck_Deterministic(t *testing.T) {
	in := HealthCheckInput{ServiceName: "orders", Address: "10.0.0.5", Port: 8443}
	if BuildHealthCheck(in) != BuildHealthCheck(in) {
		t.Error("expected identical descriptors for identical input")
	}
}
