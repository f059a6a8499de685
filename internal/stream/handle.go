package stream

import (
	"errors"
	"sync"
	"time"

	"github.com/cenkalti/backoff"

	"github.com/rjboer/govision/internal/frame"
	"github.com/rjboer/govision/internal/logging"
	"github.com/rjboer/govision/internal/registers"
	"github.com/rjboer/govision/internal/usb"
)

// state is the Handle's lifecycle, spec §5: Closed -> Open(Idle) ->
// Open(Streaming) -> Open(Idle) -> Closed.
type state int

const (
	stateClosed state = iota
	stateOpenIdle
	stateOpenStreaming
)

// Handle is the caller-facing streaming control surface (C7), guarding a
// single shared usb.BulkChannel across manual reads and the background
// streaming loop with one mutex, the same exclusivity cameleon's
// StreamHandle enforces with its internal Mutex<StreamingLoop>.
type Handle struct {
	mu    sync.Mutex
	state state
	ch    *usb.BulkChannel
	pool  *usb.AsyncPool
	params Params
	log   logging.Logger

	loop       *loop
	cancel     chan struct{}
	recycle    chan []byte
}

// Open claims the underlying endpoint and discovers stream parameters
// from ctrl, retrying transient discovery failures with backoff the way
// cameleon's connection setup retries a busy control channel.
func Open(ep usb.Endpoint, ctrl registers.DeviceControl, maxInFlight int, log logging.Logger) (*Handle, error) {
	if log == nil {
		log = logging.Default()
	}

	ch := usb.NewBulkChannel(ep)
	if err := ch.Open(); err != nil {
		return nil, mapControlError(err)
	}

	var params Params
	discover := func() error {
		p, err := FromControl(ctrl)
		if err != nil {
			var se *Error
			if errors.As(err, &se) && (se.Kind == KindInvalidDevice || se.Kind == KindDisconnected) {
				return backoff.Permanent(err)
			}
			return err
		}
		params = p
		return nil
	}

	policy := backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 3)
	if err := backoff.Retry(discover, policy); err != nil {
		ch.Close()
		var se *Error
		if as, ok := err.(*Error); ok {
			se = as
		} else {
			se = newError(KindIo, err)
		}
		return nil, se
	}

	pool := usb.NewAsyncPool(ch, params.Timeout, maxInFlight)

	return &Handle{
		state:   stateOpenIdle,
		ch:      ch,
		pool:    pool,
		params:  params,
		log:     log,
		recycle: make(chan []byte, maxInFlight),
	}, nil
}

// Params reports the parameters discovered at Open.
func (h *Handle) Params() Params {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.params
}

// SetParams overrides the discovered Params without rediscovering them,
// e.g. after the caller changes a transfer-size feature on the device
// directly. It has no effect on a loop already running with the old
// Params; stop and restart the loop to pick up the change. The async
// pool's per-transfer receive timeout stays the one discovered at Open.
func (h *Handle) SetParams(p Params) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.params = p
}

// Stats returns the running loop's jitter tracker, or nil if no loop is
// active.
func (h *Handle) Stats() *Stats {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.loop == nil {
		return nil
	}
	return h.loop.stats
}

// IsLoopRunning reports whether the Handle is in the streaming state:
// StartStreamingLoop has succeeded and neither StopStreamingLoop nor
// Close has run since. A loop that exited on a fatal error still counts
// as running until it is stopped.
func (h *Handle) IsLoopRunning() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state == stateOpenStreaming
}

// StartStreamingLoop transitions Open-Idle -> Open-Streaming and starts
// the background producer goroutine delivering payloads on sender. It
// does not rediscover parameters: the loop runs with the Params found at
// Open or set through SetParams.
// Starting while already streaming is InStreaming, not a silent no-op
// (spec §5 invariant).
func (h *Handle) StartStreamingLoop(sender chan<- *Payload) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.state == stateClosed {
		return newError(KindDisconnected, nil)
	}
	if h.state == stateOpenStreaming {
		return newError(KindInStreaming, nil)
	}

	h.cancel = make(chan struct{})
	l := newLoop(h.ch, h.pool, h.params, sender, h.recycle, h.cancel, h.log)
	h.loop = l
	h.state = stateOpenStreaming

	go l.run()
	return nil
}

// StopStreamingLoop signals cancellation and blocks until the loop
// observes it, bounded by one read timeout (spec §6 property 6).
func (h *Handle) StopStreamingLoop() error {
	h.mu.Lock()
	if h.state != stateOpenStreaming {
		h.mu.Unlock()
		return nil
	}
	l := h.loop
	cancel := h.cancel
	h.mu.Unlock()

	close(cancel)
	<-l.done

	h.mu.Lock()
	h.state = stateOpenIdle
	h.loop = nil
	h.cancel = nil
	h.mu.Unlock()
	return nil
}

// ReturnBuffer gives a previously delivered payload's backing buffer back
// to the loop for recycling. It never blocks: a full recycle queue just
// means the buffer is dropped and a fresh one allocated next time.
func (h *Handle) ReturnBuffer(buf []byte) {
	select {
	case h.recycle <- buf:
	default:
	}
}

// ReadLeader, ReadPayload, and ReadTrailer perform a single manual
// transaction outside the streaming loop; they are rejected while a loop
// is running since both would contend for the same endpoint (spec §5).
// BufferTooSmall is a programmer error on this path only - the worker
// never raises it, since it sizes its own scratch buffers.
func (h *Handle) ReadLeader(buf []byte) (frame.Leader, error) {
	required := int(h.Params().LeaderSize)
	n, err := h.manualRecv(buf, required)
	if err != nil {
		return frame.Leader{}, err
	}
	leader, err := frame.ParseLeader(buf[:n])
	if err != nil {
		return frame.Leader{}, newError(KindInvalidPayload, err)
	}
	return leader, nil
}

func (h *Handle) ReadTrailer(buf []byte) (frame.Trailer, error) {
	required := int(h.Params().TrailerSize)
	n, err := h.manualRecv(buf, required)
	if err != nil {
		return frame.Trailer{}, err
	}
	trailer, err := frame.ParseTrailer(buf[:n])
	if err != nil {
		return frame.Trailer{}, newError(KindInvalidPayload, err)
	}
	return trailer, nil
}

// ReadPayload drives the same payload_count/final1/final2 submission
// plan the streaming loop uses, through the same async pool, since the
// two planes are never active at once (spec §5).
func (h *Handle) ReadPayload(buf []byte) (int, error) {
	params, pool, err := h.beginManualAccess()
	if err != nil {
		return 0, err
	}
	required := params.MaximumPayloadSize()
	if len(buf) < required {
		return 0, newError(KindBufferTooSmall, nil)
	}

	n, err := submitPayloadPlan(pool, params, buf[:required])
	if err != nil {
		return 0, mapStreamError(err)
	}
	return n, nil
}

func (h *Handle) manualRecv(buf []byte, required int) (int, error) {
	ch, timeout, err := h.beginManualChannelAccess()
	if err != nil {
		return 0, err
	}
	if len(buf) < required {
		return 0, newError(KindBufferTooSmall, nil)
	}

	n, err := ch.Recv(buf[:required], timeout)
	if err != nil {
		return 0, mapStreamError(err)
	}
	return n, nil
}

// beginManualAccess rejects manual access outside Open-Idle and, if
// allowed, returns the state needed to drive a manual payload read.
func (h *Handle) beginManualAccess() (Params, *usb.AsyncPool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.state == stateClosed {
		return Params{}, nil, newError(KindDisconnected, nil)
	}
	if h.state == stateOpenStreaming {
		return Params{}, nil, newError(KindInStreaming, nil)
	}
	return h.params, h.pool, nil
}

// beginManualChannelAccess is beginManualAccess's counterpart for the
// leader/trailer single-transfer reads, which go straight through the
// channel rather than the async pool.
func (h *Handle) beginManualChannelAccess() (*usb.BulkChannel, time.Duration, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.state == stateClosed {
		return nil, 0, newError(KindDisconnected, nil)
	}
	if h.state == stateOpenStreaming {
		return nil, 0, newError(KindInStreaming, nil)
	}
	return h.ch, h.params.Timeout, nil
}

// Close stops any running loop and releases the underlying endpoint.
// Closing an already-closed Handle is a no-op.
func (h *Handle) Close() error {
	if h.IsLoopRunning() {
		if err := h.StopStreamingLoop(); err != nil {
			return err
		}
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.state == stateClosed {
		return nil
	}
	h.state = stateClosed
	if err := h.ch.Close(); err != nil {
		return mapControlError(err)
	}
	return nil
}

