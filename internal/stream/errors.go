// Package stream implements the streaming core (C5-C8): parameter
// discovery, the producer loop, the caller-facing Handle, and the error
// taxonomy that separates fatal conditions from ones the loop can retry
// past.
package stream

import (
	"errors"
	"fmt"

	"github.com/rjboer/govision/internal/usb"
)

// Kind classifies a stream.Error, mirroring cameleon's gige::StreamError
// and gige::ControlError enums (src/gige/mod.rs).
type Kind int

const (
	KindIo Kind = iota
	KindDisconnected
	KindTimeout
	KindBufferTooSmall
	KindInvalidPayload
	KindInStreaming
	KindPoisoned
	KindInvalidDevice
	KindBusy
)

func (k Kind) String() string {
	switch k {
	case KindIo:
		return "Io"
	case KindDisconnected:
		return "Disconnected"
	case KindTimeout:
		return "Timeout"
	case KindBufferTooSmall:
		return "BufferTooSmall"
	case KindInvalidPayload:
		return "InvalidPayload"
	case KindInStreaming:
		return "InStreaming"
	case KindPoisoned:
		return "Poisoned"
	case KindInvalidDevice:
		return "InvalidDevice"
	case KindBusy:
		return "Busy"
	default:
		return "Unknown"
	}
}

// Error is the error type returned from every stream operation.
type Error struct {
	Kind  Kind
	Cause error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("stream: %s: %v", e.Kind, e.Cause)
	}
	return fmt.Sprintf("stream: %s", e.Kind)
}

func (e *Error) Unwrap() error { return e.Cause }

// Is supports errors.Is(err, KindX) style comparisons against a bare Kind
// wrapped in an *Error with no cause, e.g. errors.Is(err, &Error{Kind: KindTimeout}).
func (e *Error) Is(target error) bool {
	var other *Error
	if errors.As(target, &other) {
		return other.Kind == e.Kind
	}
	return false
}

func newError(kind Kind, cause error) *Error { return &Error{Kind: kind, Cause: cause} }

// mapControlError translates a usb package error observed on the control
// plane into a stream.Error, following cameleon's impl From<gev::Error>
// for ControlError: Busy is reported as-is on the control plane, since a
// control transaction can legitimately be retried.
func mapControlError(err error) *Error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, usb.ErrTimeout):
		return newError(KindTimeout, err)
	case errors.Is(err, usb.ErrNoDevice):
		return newError(KindDisconnected, err)
	case errors.Is(err, usb.ErrBusy):
		return newError(KindBusy, err)
	case errors.Is(err, usb.ErrStalled):
		return newError(KindIo, err)
	case errors.Is(err, usb.ErrNotOpen):
		return newError(KindDisconnected, err)
	default:
		return newError(KindIo, err)
	}
}

// mapStreamError translates a usb package error observed on the stream
// (payload) plane. Busy has no retry meaning mid-stream, so it collapses
// to Io here, the one place the two planes diverge in cameleon's mapping.
func mapStreamError(err error) *Error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, usb.ErrTimeout):
		return newError(KindTimeout, err)
	case errors.Is(err, usb.ErrNoDevice):
		return newError(KindDisconnected, err)
	case errors.Is(err, usb.ErrBusy):
		return newError(KindIo, err)
	case errors.Is(err, usb.ErrStalled):
		return newError(KindIo, err)
	case errors.Is(err, usb.ErrNotOpen):
		return newError(KindDisconnected, err)
	default:
		return newError(KindIo, err)
	}
}

// isFatal reports whether the loop must stop rather than continue to the
// next block (spec §6: only Disconnected and Poisoned are fatal).
func isFatal(err *Error) bool {
	return err.Kind == KindDisconnected || err.Kind == KindPoisoned
}
