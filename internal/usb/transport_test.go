package usb

import (
	"testing"
	"time"
)

func TestBulkTransportSendRecv(t *testing.T) {
	out := NewMockEndpoint()
	in := NewMockEndpoint([]byte("ack"))

	tp := NewBulkTransport(out, in)
	if _, err := tp.Send([]byte("cmd"), time.Second); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if string(out.LastWrite()) != "cmd" {
		t.Fatalf("LastWrite = %q, want %q", out.LastWrite(), "cmd")
	}

	buf := make([]byte, 3)
	n, err := tp.Recv(buf, time.Second)
	if err != nil {
		t.Fatalf("Recv: %v", err)
	}
	if string(buf[:n]) != "ack" {
		t.Fatalf("Recv = %q, want %q", buf[:n], "ack")
	}
}
