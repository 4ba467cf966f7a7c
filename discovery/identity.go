package discovery

import (
	"net"
	"os"
	"strings"
)

// Identity names the instance a Client has registered.
type Identity struct {
	ServiceName string
	InstanceID  string
	Address     string
	Port        int
}

// InstanceID derives the registry key for serviceName running on hostID.
// The result depends only on its inputs, so registering twice from the same
// host yields the same key and the registry treats it as an upsert.
func InstanceID(serviceName, hostID string) string {
	return serviceName + "-" + hostID
}

// HostIdentifier derives a host identifier from the advertised address by
// replacing separators with "-" ("10.0.0.5" becomes "10-0-0-5"). When the
// address is empty the machine host name is used.
func HostIdentifier(address string) string {
	address = strings.Trim(strings.TrimSpace(address), "[]")
	if address == "" {
		if h, err := os.Hostname(); err == nil {
			address = h
		}
	}
	return strings.NewReplacer(".", "-", ":", "-", "%", "-").Replace(address)
}

// AddressResolver returns the address to advertise when the caller did
// not provide one.
type AddressResolver func() (string, error)

// LocalIP returns the IP address of the interface used for outbound
// traffic. No packets are sent; dialing UDP only selects a route.
func LocalIP() (string, error) {
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		return "", err
	}
	defer conn.Close()
	return conn.LocalAddr().(*net.UDPAddr).IP.String(), nil
}
