package usb

import (
	"sync"
	"time"
)

// MockEndpoint is an in-memory, scripted Endpoint for tests. Each call to
// ReadBulk pops the next scripted segment and copies as much of it into
// buf as fits; once segments are exhausted it either returns io.EOF-style
// zero bytes or blocks until Shutdown (ErrNoDevice) or the timeout
// (ErrTimeout), depending on BlockWhenEmpty.
//
// Grounded on the teacher's net.Pipe-driven scripted-server tests
// (connectionmgr/binary_streaming_test.go) and its hand-rolled MockSDR
// fake (internal/sdr/mock.go) — a deterministic stand-in satisfying a
// hardware interface, not a generated mock.
type MockEndpoint struct {
	mu             sync.Mutex
	segments       [][]byte
	claimed        bool
	claimErr       error
	readErr        error
	BlockWhenEmpty bool
	halted         bool
	closed         chan struct{}
	once           sync.Once
	written        [][]byte
}

// NewMockEndpoint constructs a fake endpoint that yields segments in
// order on successive ReadBulk calls.
func NewMockEndpoint(segments ...[]byte) *MockEndpoint {
	return &MockEndpoint{segments: segments, closed: make(chan struct{})}
}

// Push appends another scripted segment to be returned by a future read.
func (m *MockEndpoint) Push(segment []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.segments = append(m.segments, segment)
}

// FailNextRead arranges for the next ReadBulk call to return err.
func (m *MockEndpoint) FailNextRead(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.readErr = err
}

func (m *MockEndpoint) ClaimInterface() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.claimErr != nil {
		return m.claimErr
	}
	m.claimed = true
	return nil
}

func (m *MockEndpoint) ReleaseInterface() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.claimed = false
	return nil
}

func (m *MockEndpoint) ReadBulk(buf []byte, timeout time.Duration) (int, error) {
	m.mu.Lock()
	if m.readErr != nil {
		err := m.readErr
		m.readErr = nil
		m.mu.Unlock()
		return 0, err
	}
	if len(m.segments) > 0 {
		seg := m.segments[0]
		m.segments = m.segments[1:]
		m.mu.Unlock()
		n := copy(buf, seg)
		return n, nil
	}
	blocking := m.BlockWhenEmpty
	m.mu.Unlock()

	if !blocking {
		return 0, nil
	}

	select {
	case <-m.closed:
		return 0, ErrNoDevice
	case <-time.After(timeout):
		return 0, ErrTimeout
	}
}

// WriteBulk records buf and always succeeds; control-plane tests read it
// back with LastWrite.
func (m *MockEndpoint) WriteBulk(buf []byte, _ time.Duration) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := append([]byte(nil), buf...)
	m.written = append(m.written, cp)
	return len(buf), nil
}

// LastWrite returns the most recent buffer passed to WriteBulk.
func (m *MockEndpoint) LastWrite() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.written) == 0 {
		return nil
	}
	return m.written[len(m.written)-1]
}

func (m *MockEndpoint) SetFeatureHalt(time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.halted = true
	return nil
}

func (m *MockEndpoint) ClearHalt() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.halted = false
	return nil
}

// Halted reports whether SetFeatureHalt was called without a matching
// ClearHalt, for assertions in stall-recovery tests.
func (m *MockEndpoint) Halted() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.halted
}

// Shutdown unblocks any pending ReadBulk call waiting with
// BlockWhenEmpty set, simulating device disconnection.
func (m *MockEndpoint) Shutdown() {
	m.once.Do(func() { close(m.closed) })
}
