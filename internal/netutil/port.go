// Package netutil resolves the controller's listen address. The escape
// controller usually shares a host with a debug-port browser and other
// local tooling, so a single hardcoded port collides too easily; the
// resolver probes a candidate list and binds the first free address.
package netutil

import (
	"fmt"
	"net"
	"strings"
)

// SelectBindAddr returns the address the HTTP server should listen on.
// A free preferred address always wins. When it is taken, autoFallback
// decides whether the candidates are probed in order or the collision
// is an error.
func SelectBindAddr(preferred string, candidates []string, autoFallback bool) (string, error) {
	if preferred != "" {
		if addrFree(preferred) {
			return preferred, nil
		}
		if !autoFallback {
			return "", fmt.Errorf("bind address %s is in use and fallback is disabled", preferred)
		}
	}

	for _, addr := range candidates {
		if addrFree(addr) {
			return addr, nil
		}
	}

	return "", fmt.Errorf("no free bind address among %s", strings.Join(append([]string{preferred}, candidates...), ", "))
}

// addrFree probes addr with a throwaway listener. Any listen failure
// reads as taken; candidate lists routinely name ports owned by other
// processes and that is not an error worth surfacing.
func addrFree(addr string) bool {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return false
	}
	_ = ln.Close()
	return true
}
