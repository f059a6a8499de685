package usb

import (
	"sync"
	"time"
)

// BulkChannel owns one bulk-IN endpoint for its lifetime. open/close are
// idempotent: double-open is a no-op and close on a never-opened channel
// is a no-op, matching device/src/gige/channel.rs's ReceiveChannel.
type BulkChannel struct {
	mu     sync.Mutex
	ep     Endpoint
	opened bool
}

// NewBulkChannel wraps an already-constructed Endpoint. The endpoint is
// not claimed until Open is called.
func NewBulkChannel(ep Endpoint) *BulkChannel {
	return &BulkChannel{ep: ep}
}

func (c *BulkChannel) Open() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.opened {
		return nil
	}
	if err := c.ep.ClaimInterface(); err != nil {
		return &OpError{Op: "open", Cause: err}
	}
	c.opened = true
	return nil
}

func (c *BulkChannel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.opened {
		return nil
	}
	if err := c.ep.ReleaseInterface(); err != nil {
		return &OpError{Op: "close", Cause: err}
	}
	c.opened = false
	return nil
}

func (c *BulkChannel) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.opened
}

// Recv issues one synchronous bulk read of up to len(buf) bytes.
func (c *BulkChannel) Recv(buf []byte, timeout time.Duration) (int, error) {
	c.mu.Lock()
	opened := c.opened
	c.mu.Unlock()

	if !opened {
		return 0, &OpError{Op: "recv", Cause: ErrNotOpen}
	}

	n, err := c.ep.ReadBulk(buf, timeout)
	if err != nil {
		return n, &OpError{Op: "recv", Cause: err}
	}
	return n, nil
}

// SetHalt issues an endpoint-halt feature request, used to recover a
// stalled bulk-IN pipe before retrying a blocked transfer.
func (c *BulkChannel) SetHalt(timeout time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.opened {
		return &OpError{Op: "set_halt", Cause: ErrNotOpen}
	}
	if err := c.ep.SetFeatureHalt(timeout); err != nil {
		return &OpError{Op: "set_halt", Cause: err}
	}
	return nil
}

func (c *BulkChannel) ClearHalt() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.opened {
		return &OpError{Op: "clear_halt", Cause: ErrNotOpen}
	}
	if err := c.ep.ClearHalt(); err != nil {
		return &OpError{Op: "clear_halt", Cause: err}
	}
	return nil
}
