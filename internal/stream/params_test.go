package stream

import (
	"encoding/binary"
	"errors"
	"testing"
	"time"

	"github.com/rjboer/govision/internal/registers"
)

// fakeTransport is a minimal in-memory register file, just enough to
// drive registers.Client through FromControl.
type fakeTransport struct {
	mem     map[uint64][]byte
	lastCmd []byte
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{mem: make(map[uint64][]byte)}
}

func (f *fakeTransport) setU64(addr uint64, v uint64) {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, v)
	f.mem[addr] = buf
}

func (f *fakeTransport) setU32(addr uint64, v uint32) {
	buf := make([]byte, 4)
	binary.BigEndian.PutUint32(buf, v)
	f.mem[addr] = buf
}

func (f *fakeTransport) Send(buf []byte, _ time.Duration) (int, error) {
	f.lastCmd = append([]byte(nil), buf...)
	return len(buf), nil
}

func (f *fakeTransport) Recv(buf []byte, _ time.Duration) (int, error) {
	const (
		opReadMem     = 0x0080
		ackBit        = 0x8000
		ackHeaderSize = 12
	)
	reqID := binary.BigEndian.Uint16(f.lastCmd[2:4])
	addr := binary.BigEndian.Uint64(f.lastCmd[4:12])
	length := binary.BigEndian.Uint32(f.lastCmd[12:16])

	data, ok := f.mem[addr]
	if !ok {
		data = make([]byte, length)
	}
	ack := make([]byte, ackHeaderSize+len(data))
	binary.BigEndian.PutUint16(ack[0:2], uint16(opReadMem|ackBit))
	binary.BigEndian.PutUint16(ack[4:6], reqID)
	binary.BigEndian.PutUint32(ack[8:12], uint32(len(data)))
	copy(ack[ackHeaderSize:], data)
	return copy(buf, ack), nil
}

func TestFromControlDiscoversParams(t *testing.T) {
	tp := newFakeTransport()
	const sbrmAddr, sirmAddr = 0x5000, 0x6000
	tp.setU32(0x10, 1000) // max response time, ms
	tp.setU64(0x1D4, sbrmAddr)
	tp.setU64(sbrmAddr+0x04, sirmAddr)
	tp.setU32(sirmAddr+0x00, 50)
	tp.setU32(sirmAddr+0x04, 26)
	tp.setU32(sirmAddr+0x08, 4096)
	tp.setU32(sirmAddr+0x0C, 16)
	tp.setU32(sirmAddr+0x10, 512)
	tp.setU32(sirmAddr+0x14, 0)

	ctrl := registers.NewClient(tp, time.Second)
	params, err := FromControl(ctrl)
	if err != nil {
		t.Fatalf("FromControl: %v", err)
	}
	if params.LeaderSize != 50 || params.TrailerSize != 26 {
		t.Fatalf("leader/trailer size = %d/%d", params.LeaderSize, params.TrailerSize)
	}
	if params.PayloadSize != 4096 || params.PayloadCount != 16 {
		t.Fatalf("payload size/count = %d/%d", params.PayloadSize, params.PayloadCount)
	}
	if params.Timeout != time.Second {
		t.Fatalf("timeout = %v, want 1s", params.Timeout)
	}
	if got, want := params.MaximumPayloadSize(), 4096*16+512; got != want {
		t.Fatalf("MaximumPayloadSize = %d, want %d", got, want)
	}
}

func TestFromControlInvalidDeviceWhenNoSirm(t *testing.T) {
	tp := newFakeTransport()
	tp.setU32(0x10, 1000)
	tp.setU64(0x1D4, 0x5000)
	// SIRM pointer left unset -> reads as zero.

	ctrl := registers.NewClient(tp, time.Second)
	_, err := FromControl(ctrl)
	var se *Error
	if !errors.As(err, &se) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if se.Kind != KindInvalidDevice {
		t.Fatalf("Kind = %s, want InvalidDevice", se.Kind)
	}
}

func TestMaximumPayloadSizeUsesDerivedFormula(t *testing.T) {
	p := Params{PayloadSize: 4096, PayloadCount: 3, PayloadFinal1Size: 8192, PayloadFinal2Size: 512}
	if got, want := p.MaximumPayloadSize(), 4096*3+8192+512; got != want {
		t.Fatalf("MaximumPayloadSize = %d, want %d", got, want)
	}
}
