package usb

import (
	"errors"
	"testing"
	"time"
)

func TestAsyncPoolSubmitPollDrains(t *testing.T) {
	ep := NewMockEndpoint([]byte("AAAA"), []byte("BBB"), []byte("CC"))
	ch := NewBulkChannel(ep)
	if err := ch.Open(); err != nil {
		t.Fatalf("open: %v", err)
	}

	pool := NewAsyncPool(ch, time.Second, 3)

	bufs := [][]byte{make([]byte, 4), make([]byte, 3), make([]byte, 2)}
	for _, b := range bufs {
		if err := pool.Submit(b); err != nil {
			t.Fatalf("submit: %v", err)
		}
	}

	total := 0
	for !pool.IsEmpty() {
		n, err := pool.Poll(time.Second)
		if err != nil {
			t.Fatalf("poll: %v", err)
		}
		total += n
	}

	if total != 9 {
		t.Fatalf("expected 9 bytes total, got %d", total)
	}
}

func TestAsyncPoolPollTimeout(t *testing.T) {
	ep := NewMockEndpoint()
	ep.BlockWhenEmpty = true
	ch := NewBulkChannel(ep)
	if err := ch.Open(); err != nil {
		t.Fatalf("open: %v", err)
	}

	pool := NewAsyncPool(ch, 50*time.Millisecond, 1)
	if err := pool.Submit(make([]byte, 4)); err != nil {
		t.Fatalf("submit: %v", err)
	}

	if _, err := pool.Poll(10 * time.Millisecond); !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected timeout, got %v", err)
	}
}
