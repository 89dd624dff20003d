package testutil

import (
	"net"
	"testing"
	"time"
)

// FakeAddr реализует net.Addr для MockConn.
type FakeAddr string

func (FakeAddr) Network() string  { return "tcp" }
func (a FakeAddr) String() string { return string(a) }

// ListenTCP открывает listener на loopback со случайным портом.
// Возвращает listener и его адрес "host:port"; закрывается по окончании теста.
func ListenTCP(t testing.TB) (net.Listener, string) {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to create TCP listener: %v", err)
	}
	t.Cleanup(func() { _ = ln.Close() })

	return ln, ln.Addr().String()
}

// AcceptTCP ждёт одно входящее соединение не дольше timeout.
// Fake login and game servers use it to pick up what the relay dials.
func AcceptTCP(t testing.TB, ln net.Listener, timeout time.Duration) net.Conn {
	t.Helper()

	if tl, ok := ln.(*net.TCPListener); ok {
		if err := tl.SetDeadline(time.Now().Add(timeout)); err != nil {
			t.Fatalf("set accept deadline: %v", err)
		}
	}
	conn, err := ln.Accept()
	if err != nil {
		t.Fatalf("no connection on %s within %v: %v", ln.Addr(), timeout, err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	return conn
}

// WaitFor polls cond every 10ms and fails the test if it does not hold
// within timeout.
func WaitFor(t testing.TB, cond func() bool, timeout time.Duration) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()

	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("condition not met within %v", timeout)
		}
		<-ticker.C
	}
}
