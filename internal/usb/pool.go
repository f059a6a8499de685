package usb

import (
	"sync"
	"time"
)

// AsyncPool wraps an open BulkChannel and a fixed set of outstanding
// bulk-IN transfers. Go has no async libusb-style transfer queue, so
// each Submit spawns a goroutine that waits for the previous submission's
// Recv to finish, performs one synchronous Recv, and reports its result
// on a buffered completion channel; Poll drains the next ready one.
// Slices are therefore filled in submission order, one Recv at a time.
// This mirrors the producer goroutines the teacher spawns per in-flight
// transfer in connectionmgr's StartRXStream.
type AsyncPool struct {
	ch      *BulkChannel
	timeout time.Duration

	mu          sync.Mutex
	outstanding int
	results     chan transferResult
	tail        chan struct{}
}

type transferResult struct {
	n   int
	err error
}

// NewAsyncPool prepares a pool over ch. maxInFlight sizes the completion
// buffer. Submit does not enforce it and never blocks: submissions beyond
// maxInFlight still start, and their goroutines wait to report until Poll
// frees a slot.
func NewAsyncPool(ch *BulkChannel, timeout time.Duration, maxInFlight int) *AsyncPool {
	if maxInFlight < 1 {
		maxInFlight = 1
	}
	return &AsyncPool{
		ch:      ch,
		timeout: timeout,
		results: make(chan transferResult, maxInFlight),
	}
}

// Submit hands ownership of slice to an in-flight transfer. slice must
// remain valid until the matching Poll returns.
func (p *AsyncPool) Submit(slice []byte) error {
	p.mu.Lock()
	p.outstanding++
	prev := p.tail
	next := make(chan struct{})
	p.tail = next
	p.mu.Unlock()

	go func() {
		if prev != nil {
			<-prev
		}
		n, err := p.ch.Recv(slice, p.timeout)
		close(next)
		p.results <- transferResult{n: n, err: err}
	}()
	return nil
}

// Poll completes the next ready transfer, blocking for at most timeout.
func (p *AsyncPool) Poll(timeout time.Duration) (int, error) {
	select {
	case r := <-p.results:
		p.mu.Lock()
		p.outstanding--
		p.mu.Unlock()
		return r.n, r.err
	case <-time.After(timeout):
		return 0, &OpError{Op: "poll", Cause: ErrTimeout}
	}
}

// IsEmpty reports whether no transfers are outstanding.
func (p *AsyncPool) IsEmpty() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.outstanding == 0
}
