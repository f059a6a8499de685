// Package usb implements the bulk-endpoint transport (C1) and the async
// submission pool layered over it (C2) that the streaming core reads
// leader/payload/trailer blocks through.
package usb

import "time"

// Endpoint is the contract a concrete bulk-IN transport must satisfy.
// It is deliberately narrow: claim/release the interface, read bulk
// data with a timeout, and recover from a stall. Device enumeration and
// descriptor parsing are out of this package's scope (spec §1) — callers
// construct an Endpoint already bound to one physical interface.
type Endpoint interface {
	ClaimInterface() error
	ReleaseInterface() error

	// ReadBulk blocks for at most timeout and returns the number of
	// bytes copied into buf. A short read is not itself an error; the
	// caller (BulkChannel.Recv) returns whatever count is reported.
	ReadBulk(buf []byte, timeout time.Duration) (int, error)

	// WriteBulk blocks for at most timeout and returns the number of
	// bytes accepted from buf. Only control-plane endpoints (registers.
	// Client's Transport) issue writes; the streaming-plane endpoint
	// never does.
	WriteBulk(buf []byte, timeout time.Duration) (int, error)

	// SetFeatureHalt issues the standard SET_FEATURE(ENDPOINT_HALT)
	// control request against this endpoint's address.
	SetFeatureHalt(timeout time.Duration) error
	ClearHalt() error
}
