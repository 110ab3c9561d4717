package netutil

import (
	"net"
	"strings"
	"testing"
)

// reserveAddr grabs an ephemeral port and keeps it held, returning the
// address and a release func.
func reserveAddr(t *testing.T) (string, func()) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	return ln.Addr().String(), func() { _ = ln.Close() }
}

// freeAddr grabs an ephemeral port and releases it immediately so the
// address is almost certainly bindable.
func freeAddr(t *testing.T) string {
	t.Helper()
	addr, release := reserveAddr(t)
	release()
	return addr
}

func TestSelectBindAddrPrefersFreeAddress(t *testing.T) {
	addr := freeAddr(t)

	got, err := SelectBindAddr(addr, nil, false)
	if err != nil {
		t.Fatalf("SelectBindAddr() error = %v", err)
	}
	if got != addr {
		t.Fatalf("SelectBindAddr() = %q, want %q", got, addr)
	}
}

func TestSelectBindAddrFallsBackWhenPreferredTaken(t *testing.T) {
	busy, release := reserveAddr(t)
	defer release()
	free := freeAddr(t)

	got, err := SelectBindAddr(busy, []string{busy, free}, true)
	if err != nil {
		t.Fatalf("SelectBindAddr() error = %v", err)
	}
	if got != free {
		t.Fatalf("SelectBindAddr() = %q, want %q", got, free)
	}
}

func TestSelectBindAddrNoFallbackIsAnError(t *testing.T) {
	busy, release := reserveAddr(t)
	defer release()

	_, err := SelectBindAddr(busy, []string{freeAddr(t)}, false)
	if err == nil {
		t.Fatal("SelectBindAddr() = nil error; want collision without fallback to fail")
	}
	if !strings.Contains(err.Error(), busy) {
		t.Fatalf("SelectBindAddr() error = %v; want the taken address named", err)
	}
}

func TestSelectBindAddrExhaustedCandidates(t *testing.T) {
	busy, release := reserveAddr(t)
	defer release()

	_, err := SelectBindAddr(busy, []string{busy}, true)
	if err == nil {
		t.Fatal("SelectBindAddr() = nil error; want exhausted candidates to fail")
	}
}
