package discovery

import (
	"net"
	"strconv"
	"strings"
	"time"
)

// Health-check defaults.
const (
	DefaultHealthPath    = "/health"
	DefaultCheckInterval = 10 * time.Second
	DefaultCheckTimeout  = 5 * time.Second
	DefaultInitialStatus = "critical"
	SchemeHTTP           = "http"
	SchemeHTTPS          = "https"
	wellKnownHTTPSPort   = 443
	alternateHTTPSPort   = 8443
)

// HealthCheckInput is everything BuildHealthCheck needs.
type HealthCheckInput struct {
	ServiceName     string
	Address         string
	Port            int
	Path            string
	Interval        time.Duration
	Timeout         time.Duration
	DeregisterAfter time.Duration
	// Scheme overrides the port-based scheme choice when set.
	Scheme        string
	TLSSkipVerify bool
}

// HealthCheck is the descriptor the registry uses to poll an instance.
// Durations are rendered as Go duration strings ("10s").
type HealthCheck struct {
	Name            string
	URL             string
	Interval        string
	Timeout         string
	Status          string
	TLSSkipVerify   bool
	DeregisterAfter string
}

// BuildHealthCheck turns an instance description into the registry's
// health-check descriptor. It performs no I/O.
//
// The URL scheme is https for ports 443 and 8443 and http otherwise, unless
// in.Scheme is set. The path always starts with "/".
func BuildHealthCheck(in HealthCheckInput) HealthCheck {
	interval := in.Interval
	if interval <= 0 {
		interval = DefaultCheckInterval
	}
	timeout := in.Timeout
	if timeout <= 0 {
		timeout = DefaultCheckTimeout
	}

	hc := HealthCheck{
		URL:           HealthCheckURL(in.Address, in.Port, in.Path, in.Scheme),
		Interval:      interval.String(),
		Timeout:       timeout.String(),
		Status:        DefaultInitialStatus,
		TLSSkipVerify: in.TLSSkipVerify,
	}
	if in.ServiceName != "" {
		hc.Name = in.ServiceName + " health check"
	}
	if in.DeregisterAfter > 0 {
		hc.DeregisterAfter = in.DeregisterAfter.String()
	}
	return hc
}

// HealthCheckURL formats the URL the registry polls.
func HealthCheckURL(address string, port int, path, scheme string) string {
	if scheme == "" {
		scheme = SchemeForPort(port)
	}
	return strings.ToLower(scheme) + "://" + net.JoinHostPort(address, strconv.Itoa(port)) + NormalizePath(path)
}

// SchemeForPort returns "https" for the conventional HTTPS ports and "http"
// for everything else.
func SchemeForPort(port int) string {
	if port == wellKnownHTTPSPort || port == alternateHTTPSPort {
		return SchemeHTTPS
	}
	return SchemeHTTP
}

// NormalizePath returns path with exactly one leading "/". An empty path
// becomes DefaultHealthPath.
func NormalizePath(path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return DefaultHealthPath
	}
	return "/" + strings.TrimLeft(path, "/")
}
