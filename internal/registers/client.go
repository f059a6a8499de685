// Package registers implements the typed ABRM/SBRM/SIRM register-map
// client (C3): a control-plane round trip over a command/acknowledge
// header, generalized from the teacher's IIOD binary command framing
// (internal/connectionmgr/binary.go, now deleted from this tree — see
// DESIGN.md) to address-and-length addressed register reads/writes, the
// shape shown in device/examples/gige/device_control.rs
// (cmd.ReadMem(addr, len) -> send -> recv ack -> parse).
package registers

import (
	"encoding/binary"
	"fmt"
	"time"
)

// DeviceControl is the external contract the streaming core consumes at
// start to discover stream parameters (spec §6). The core never retains
// it across loop iterations.
type DeviceControl interface {
	ReadMemory(address uint64, length int) ([]byte, error)
	WriteMemory(address uint64, data []byte) error
}

// Transport is the control-channel send/recv pair a Client round-trips
// commands over. It is distinct from usb.Endpoint: the control plane is
// a request/response pair of bulk endpoints, not a single streaming
// receive pipe (spec §4.1 vs §4.3).
type Transport interface {
	Send(buf []byte, timeout time.Duration) (int, error)
	Recv(buf []byte, timeout time.Duration) (int, error)
}

const (
	opReadMem  uint16 = 0x0080
	opWriteMem uint16 = 0x0082
	ackBit     uint16 = 0x8000

	cmdHeaderSize = 16 // opcode(2) + requestID(2) + address(8) + length(4)
	ackHeaderSize = 12 // opcode(2) + status(2) + requestID(2) + reserved(2) + length(4)

	statusSuccess uint16 = 0
)

// Client is the concrete DeviceControl backed by a control Transport.
type Client struct {
	transport Transport
	timeout   time.Duration
	nextReqID uint16
}

// NewClient wraps transport with the given per-transaction timeout.
func NewClient(transport Transport, timeout time.Duration) *Client {
	return &Client{transport: transport, timeout: timeout}
}

func (c *Client) requestID() uint16 {
	c.nextReqID++
	return c.nextReqID
}

// ReadMemory issues a ReadMem transaction and returns exactly length
// bytes from address.
func (c *Client) ReadMemory(address uint64, length int) ([]byte, error) {
	reqID := c.requestID()
	cmd := make([]byte, cmdHeaderSize)
	binary.BigEndian.PutUint16(cmd[0:2], opReadMem)
	binary.BigEndian.PutUint16(cmd[2:4], reqID)
	binary.BigEndian.PutUint64(cmd[4:12], address)
	binary.BigEndian.PutUint32(cmd[12:16], uint32(length))

	if _, err := c.transport.Send(cmd, c.timeout); err != nil {
		return nil, fmt.Errorf("registers: send ReadMem: %w", err)
	}

	ack := make([]byte, ackHeaderSize+length)
	n, err := c.transport.Recv(ack, c.timeout)
	if err != nil {
		return nil, fmt.Errorf("registers: recv ReadMem ack: %w", err)
	}
	if n < ackHeaderSize {
		return nil, fmt.Errorf("registers: ReadMem ack too short: %d bytes", n)
	}

	gotOpcode := binary.BigEndian.Uint16(ack[0:2])
	status := binary.BigEndian.Uint16(ack[2:4])
	gotReqID := binary.BigEndian.Uint16(ack[4:6])
	payloadLen := binary.BigEndian.Uint32(ack[8:12])

	if gotOpcode != opReadMem|ackBit {
		return nil, fmt.Errorf("registers: unexpected ack opcode 0x%04x", gotOpcode)
	}
	if gotReqID != reqID {
		return nil, fmt.Errorf("registers: ack request id mismatch: want %d, got %d", reqID, gotReqID)
	}
	if status != statusSuccess {
		return nil, fmt.Errorf("registers: ReadMem failed with status %d", status)
	}
	if int(payloadLen) < length || n < ackHeaderSize+length {
		return nil, fmt.Errorf("registers: ReadMem returned %d bytes, wanted %d", payloadLen, length)
	}

	return ack[ackHeaderSize : ackHeaderSize+length], nil
}

// WriteMemory issues a WriteMem transaction.
func (c *Client) WriteMemory(address uint64, data []byte) error {
	reqID := c.requestID()
	cmd := make([]byte, cmdHeaderSize+len(data))
	binary.BigEndian.PutUint16(cmd[0:2], opWriteMem)
	binary.BigEndian.PutUint16(cmd[2:4], reqID)
	binary.BigEndian.PutUint64(cmd[4:12], address)
	binary.BigEndian.PutUint32(cmd[12:16], uint32(len(data)))
	copy(cmd[cmdHeaderSize:], data)

	if _, err := c.transport.Send(cmd, c.timeout); err != nil {
		return fmt.Errorf("registers: send WriteMem: %w", err)
	}

	ack := make([]byte, ackHeaderSize)
	n, err := c.transport.Recv(ack, c.timeout)
	if err != nil {
		return fmt.Errorf("registers: recv WriteMem ack: %w", err)
	}
	if n < ackHeaderSize {
		return fmt.Errorf("registers: WriteMem ack too short: %d bytes", n)
	}

	gotOpcode := binary.BigEndian.Uint16(ack[0:2])
	status := binary.BigEndian.Uint16(ack[2:4])
	gotReqID := binary.BigEndian.Uint16(ack[4:6])

	if gotOpcode != opWriteMem|ackBit {
		return fmt.Errorf("registers: unexpected ack opcode 0x%04x", gotOpcode)
	}
	if gotReqID != reqID {
		return fmt.Errorf("registers: ack request id mismatch: want %d, got %d", reqID, gotReqID)
	}
	if status != statusSuccess {
		return fmt.Errorf("registers: WriteMem failed with status %d", status)
	}
	return nil
}
