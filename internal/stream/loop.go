package stream

import (
	"errors"
	"time"

	"github.com/rjboer/govision/internal/frame"
	"github.com/rjboer/govision/internal/logging"
	"github.com/rjboer/govision/internal/usb"
)

// Channel is the subset of usb.BulkChannel the loop needs: a single
// Recv, used for the leader and trailer reads of each block; the payload
// body is read through the async pool instead (spec §4.1/§4.3).
type Channel interface {
	Recv(buf []byte, timeout time.Duration) (int, error)
}

// loop is the per-stream producer goroutine, ported from cameleon's
// StreamingLoop::run (stream_handle.rs): read leader, read payload
// (through the async pool), read trailer, build a Payload, deliver it
// without blocking, and recycle the caller's returned buffers for reuse.
// Leader and trailer buffers are never swapped between iterations - each
// keeps its own size-appropriate scratch buffer (see SPEC_FULL.md Design
// Notes, resolving the open buffer-reuse question against swapping).
type loop struct {
	ch     Channel
	params Params
	pool   *usb.AsyncPool

	sender   chan<- *Payload
	recycle  <-chan []byte
	cancel   <-chan struct{}
	done     chan struct{}
	log      logging.Logger
	stats    *Stats

	leaderBuf  []byte
	trailerBuf []byte
}

func newLoop(ch Channel, pool *usb.AsyncPool, params Params, sender chan<- *Payload, recycle <-chan []byte, cancel <-chan struct{}, log logging.Logger) *loop {
	return &loop{
		ch:         ch,
		params:     params,
		pool:       pool,
		sender:     sender,
		recycle:    recycle,
		cancel:     cancel,
		done:       make(chan struct{}),
		log:        log,
		stats:      NewStats(64),
		leaderBuf:  make([]byte, params.LeaderSize),
		trailerBuf: make([]byte, params.TrailerSize),
	}
}

// run drives one streaming session until cancellation or a fatal error.
// It always closes done on return so StopStreamingLoop can observe exit
// within one read timeout (spec §6 property 6).
func (l *loop) run() {
	defer close(l.done)

	for {
		select {
		case <-l.cancel:
			return
		default:
		}

		payloadBuf := l.acquirePayloadBuffer()

		n, err := l.readLeader()
		if err != nil {
			if l.handleFatal(err, "read leader") {
				return
			}
			continue
		}
		leader, err := frame.ParseLeader(l.leaderBuf[:n])
		if err != nil {
			l.log.Warn("malformed leader", logging.Err(err))
			continue
		}

		payloadN, err := submitPayloadPlan(l.pool, l.params, payloadBuf)
		if err != nil {
			if l.handleFatal(err, "read payload") {
				return
			}
			continue
		}

		tn, err := l.readTrailer()
		if err != nil {
			if l.handleFatal(err, "read trailer") {
				return
			}
			continue
		}
		trailer, err := frame.ParseTrailer(l.trailerBuf[:tn])
		if err != nil {
			l.log.Warn("malformed trailer", logging.Err(err))
			continue
		}

		payload, err := buildPayload(leader, trailer, payloadBuf, payloadN)
		if err != nil {
			l.log.Warn("invalid payload", logging.Err(err))
			continue
		}
		l.stats.observe(time.Now())

		select {
		case l.sender <- payload:
		default:
			l.log.Warn("dropping payload: consumer not keeping up",
				logging.Field{Key: "block_id", Value: payload.ID})
		}
	}
}

func (l *loop) readLeader() (int, error) {
	n, err := l.ch.Recv(l.leaderBuf, l.params.Timeout)
	if err != nil {
		return 0, mapStreamError(err)
	}
	return n, nil
}

func (l *loop) readTrailer() (int, error) {
	n, err := l.ch.Recv(l.trailerBuf, l.params.Timeout)
	if err != nil {
		return 0, mapStreamError(err)
	}
	return n, nil
}

// submitPayloadPlan submits the payload transfer plan derived from
// params - payload_count transfers of payload_size, followed by the two
// optional final transfers - across buf, then drains the pool until
// every submitted slice has completed, following cameleon's
// read_payload (stream_handle.rs). It is shared by the streaming loop
// and Handle.ReadPayload's manual path, both of which read the same
// plan through the same async pool. Every transfer is submitted before
// the first Poll; the pool fills the slices in submission order.
func submitPayloadPlan(pool *usb.AsyncPool, params Params, buf []byte) (int, error) {
	cursor := 0
	submit := func(size int) error {
		if err := pool.Submit(buf[cursor : cursor+size]); err != nil {
			return err
		}
		cursor += size
		return nil
	}

	for i := uint32(0); i < params.PayloadCount; i++ {
		if err := submit(int(params.PayloadSize)); err != nil {
			return 0, mapStreamError(err)
		}
	}
	if params.PayloadFinal1Size != 0 {
		if err := submit(int(params.PayloadFinal1Size)); err != nil {
			return 0, mapStreamError(err)
		}
	}
	if params.PayloadFinal2Size != 0 {
		if err := submit(int(params.PayloadFinal2Size)); err != nil {
			return 0, mapStreamError(err)
		}
	}

	readLen := 0
	for !pool.IsEmpty() {
		n, err := pool.Poll(params.Timeout)
		if err != nil {
			return 0, mapStreamError(err)
		}
		readLen += n
	}
	return readLen, nil
}

// acquirePayloadBuffer reuses a buffer the caller has returned if one is
// immediately available and its capacity covers MaximumPayloadSize,
// otherwise allocates a fresh one; a returned buffer that is too small
// is dropped, not resized. This bounds steady-state allocation to the
// number of buffers actually in flight (spec §6 buffer retention policy).
func (l *loop) acquirePayloadBuffer() []byte {
	select {
	case buf := <-l.recycle:
		if cap(buf) >= l.params.MaximumPayloadSize() {
			return buf[:l.params.MaximumPayloadSize()]
		}
	default:
	}
	return make([]byte, l.params.MaximumPayloadSize())
}

// handleFatal logs and reports whether err should stop the loop entirely.
func (l *loop) handleFatal(err error, op string) bool {
	var se *Error
	if !errors.As(err, &se) {
		se = newError(KindIo, err)
	}
	if isFatal(se) {
		l.log.Error("stream loop stopping", logging.Field{Key: "op", Value: op}, logging.Err(se))
		return true
	}
	l.log.Warn("transient stream error", logging.Field{Key: "op", Value: op}, logging.Err(se))
	return false
}
