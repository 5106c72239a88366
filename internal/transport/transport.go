// File: internal/transport/transport.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Platform-independent listener options and address helpers.

package transport

import (
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/momentics/hioload-echo/api"
)

// DefaultWriteTimeout bounds how long Send waits for a non-blocking socket
// to become writable again.
const DefaultWriteTimeout = time.Second

// ListenConfig describes the listening endpoint.
type ListenConfig struct {
	Host         string        // bind host; empty means all interfaces
	Port         int           // bind port; 0 picks an ephemeral port
	WriteTimeout time.Duration // applied to every accepted connection
}

// resolveIPv4 maps the configured host onto a 4-byte address.
func resolveIPv4(host string) ([4]byte, error) {
	var out [4]byte
	if host == "" {
		return out, nil
	}
	ip := net.ParseIP(host)
	if ip == nil {
		addr, err := net.ResolveIPAddr("ip4", host)
		if err != nil {
			return out, fmt.Errorf("resolve %q: %w", host, err)
		}
		ip = addr.IP
	}
	v4 := ip.To4()
	if v4 == nil {
		return out, fmt.Errorf("host %q is not IPv4: %w", host, api.ErrInvalidArgument)
	}
	copy(out[:], v4)
	return out, nil
}

func formatAddr(ip []byte, port int) string {
	return net.JoinHostPort(net.IP(ip).String(), strconv.Itoa(port))
}
