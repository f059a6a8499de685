package usb

import "time"

// BulkTransport pairs a bulk-OUT and bulk-IN endpoint into the
// control-plane Send/Recv contract internal/registers.Client needs,
// mirroring how a device exposes one pair of bulk endpoints for command
// round trips distinct from the high-throughput streaming endpoint
// (spec §4.1 vs §4.3). Many devices use the same physical endpoint pair
// for both directions of a single vendor-specific bulk pipe; out and in
// may be the same Endpoint value.
type BulkTransport struct {
	out Endpoint
	in  Endpoint
}

// NewBulkTransport builds a control transport over out (commands) and in
// (acknowledgements).
func NewBulkTransport(out, in Endpoint) *BulkTransport {
	return &BulkTransport{out: out, in: in}
}

func (t *BulkTransport) Send(buf []byte, timeout time.Duration) (int, error) {
	return t.out.WriteBulk(buf, timeout)
}

func (t *BulkTransport) Recv(buf []byte, timeout time.Duration) (int, error) {
	return t.in.ReadBulk(buf, timeout)
}
