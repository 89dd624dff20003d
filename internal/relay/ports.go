package relay

import (
	"errors"
	"fmt"
	"net"
	"strconv"
)

// ErrNoFreePort is returned when every port from the start to 65535 is taken.
var ErrNoFreePort = errors.New("relay: no free port")

// listenFrom binds the first free port at or above start and keeps it.
// start 0 lets the OS choose.
func listenFrom(host string, start int) (net.Listener, error) {
	if start == 0 {
		return net.Listen("tcp", net.JoinHostPort(host, "0"))
	}
	for port := start; port <= 0xFFFF; port++ {
		ln, err := net.Listen("tcp", net.JoinHostPort(host, strconv.Itoa(port)))
		if err == nil {
			return ln, nil
		}
	}
	return nil, fmt.Errorf("%w on %s from %d", ErrNoFreePort, host, start)
}
