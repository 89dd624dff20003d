package testutil

import (
	"bytes"
	"net"
	"sync"
	"time"
)

// MockConn: mock для net.Conn, используется в unit тестах.
// Запоминает каждый Write и время, когда он случился.
type MockConn struct {
	mu       sync.Mutex
	readBuf  []byte
	writes   [][]byte
	times    []time.Time
	writeErr error
	closed   bool
}

// NewMockConn создаёт новый MockConn экземпляр.
func NewMockConn() *MockConn {
	return &MockConn{}
}

// Read читает данные из readBuf.
func (m *MockConn) Read(b []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return 0, net.ErrClosed
	}
	n := copy(b, m.readBuf)
	m.readBuf = m.readBuf[n:]
	return n, nil
}

// Write записывает данные, или возвращает ошибку из FailWrites.
func (m *MockConn) Write(b []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return 0, net.ErrClosed
	}
	if m.writeErr != nil {
		return 0, m.writeErr
	}
	m.writes = append(m.writes, bytes.Clone(b))
	m.times = append(m.times, time.Now())
	return len(b), nil
}

// FailWrites makes every following Write return err.
func (m *MockConn) FailWrites(err error) {
	m.mu.Lock()
	m.writeErr = err
	m.mu.Unlock()
}

// Writes returns a copy of every buffer written so far.
func (m *MockConn) Writes() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]byte, len(m.writes))
	copy(out, m.writes)
	return out
}

// WriteTimes returns when each write happened.
func (m *MockConn) WriteTimes() []time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]time.Time, len(m.times))
	copy(out, m.times)
	return out
}

// WriteCount returns the number of Write() calls since creation.
func (m *MockConn) WriteCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.writes)
}

// Close закрывает соединение.
func (m *MockConn) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	return nil
}

// LocalAddr возвращает локальный адрес (mock).
func (m *MockConn) LocalAddr() net.Addr {
	return FakeAddr("127.0.0.1:7171")
}

// RemoteAddr возвращает удалённый адрес (mock).
func (m *MockConn) RemoteAddr() net.Addr {
	return FakeAddr("192.168.1.100:54321")
}

// SetDeadline устанавливает deadline (no-op).
func (m *MockConn) SetDeadline(time.Time) error { return nil }

// SetReadDeadline ничего не делает.
func (m *MockConn) SetReadDeadline(time.Time) error { return nil }

// SetWriteDeadline ничего не делает.
func (m *MockConn) SetWriteDeadline(time.Time) error { return nil }
