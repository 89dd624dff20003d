package model

import (
	"fmt"
	"net"
	"net/netip"
	"strconv"
)

// Endpoint is a host and port of a login server, game world or the local
// listener. Immutable once created.
type Endpoint struct {
	Host string
	Port int
}

// NewEndpoint creates an Endpoint.
func NewEndpoint(host string, port int) Endpoint {
	return Endpoint{Host: host, Port: port}
}

// ParseEndpoint parses "host:port".
func ParseEndpoint(s string) (Endpoint, error) {
	host, portStr, err := net.SplitHostPort(s)
	if err != nil {
		return Endpoint{}, fmt.Errorf("parsing endpoint %q: %w", s, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil || port <= 0 || port > 0xFFFF {
		return Endpoint{}, fmt.Errorf("parsing endpoint %q: invalid port", s)
	}
	return Endpoint{Host: host, Port: port}, nil
}

// EndpointFromIPv4 builds an Endpoint from the 4 raw octets and port the
// character list carries.
func EndpointFromIPv4(ip [4]byte, port uint16) Endpoint {
	return Endpoint{Host: netip.AddrFrom4(ip).String(), Port: int(port)}
}

// IPv4 returns the host as 4 octets. Only literal IPv4 hosts qualify.
func (e Endpoint) IPv4() ([4]byte, error) {
	addr, err := netip.ParseAddr(e.Host)
	if err != nil || !addr.Is4() {
		return [4]byte{}, fmt.Errorf("endpoint %s: host is not an IPv4 literal", e)
	}
	return addr.As4(), nil
}

func (e Endpoint) String() string {
	return net.JoinHostPort(e.Host, strconv.Itoa(e.Port))
}
