package testutil

import "sync"

// MockConn implements hub.Conn for testing, recording every message in
// receive order.
type MockConn struct {
	Name     string
	messages [][]byte
	mu       sync.Mutex
}

// NewMockConn creates a new MockConn with the given name.
func NewMockConn(name string) *MockConn {
	return &MockConn{Name: name}
}

// Send records a message sent to the mock connection.
func (m *MockConn) Send(data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]byte, len(data))
	copy(cp, data)
	m.messages = append(m.messages, cp)
}

// Messages returns a copy of all messages received, in order.
func (m *MockConn) Messages() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([][]byte, len(m.messages))
	copy(cp, m.messages)
	return cp
}
