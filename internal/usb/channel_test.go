package usb

import (
	"errors"
	"testing"
	"time"
)

func TestBulkChannelOpenCloseIdempotent(t *testing.T) {
	ep := NewMockEndpoint()
	ch := NewBulkChannel(ep)

	if ch.IsOpen() {
		t.Fatalf("new channel must start closed")
	}
	if err := ch.Close(); err != nil {
		t.Fatalf("close on never-opened channel: %v", err)
	}

	if err := ch.Open(); err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := ch.Open(); err != nil {
		t.Fatalf("second open must be a no-op: %v", err)
	}
	if !ch.IsOpen() {
		t.Fatalf("channel should report open")
	}

	if err := ch.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := ch.Close(); err != nil {
		t.Fatalf("second close must be a no-op: %v", err)
	}
	if ch.IsOpen() {
		t.Fatalf("channel should report closed")
	}
}

func TestBulkChannelRecvRequiresOpen(t *testing.T) {
	ch := NewBulkChannel(NewMockEndpoint([]byte("hello")))
	buf := make([]byte, 5)
	if _, err := ch.Recv(buf, time.Second); !errors.Is(err, ErrNotOpen) {
		t.Fatalf("expected ErrNotOpen, got %v", err)
	}
}

func TestBulkChannelRecv(t *testing.T) {
	ep := NewMockEndpoint([]byte("hello"))
	ch := NewBulkChannel(ep)
	if err := ch.Open(); err != nil {
		t.Fatalf("open: %v", err)
	}

	buf := make([]byte, 5)
	n, err := ch.Recv(buf, time.Second)
	if err != nil {
		t.Fatalf("recv: %v", err)
	}
	if n != 5 || string(buf) != "hello" {
		t.Fatalf("unexpected recv result: n=%d buf=%q", n, buf)
	}
}

func TestBulkChannelHaltRecovery(t *testing.T) {
	ep := NewMockEndpoint()
	ch := NewBulkChannel(ep)
	if err := ch.Open(); err != nil {
		t.Fatalf("open: %v", err)
	}

	if err := ch.SetHalt(time.Second); err != nil {
		t.Fatalf("set_halt: %v", err)
	}
	if !ep.Halted() {
		t.Fatalf("expected endpoint to report halted")
	}
	if err := ch.ClearHalt(); err != nil {
		t.Fatalf("clear_halt: %v", err)
	}
	if ep.Halted() {
		t.Fatalf("expected endpoint to report cleared")
	}
}
