package stream

import (
	"errors"
	"testing"

	"github.com/rjboer/govision/internal/usb"
)

func TestMapControlErrorBusyStaysBusy(t *testing.T) {
	se := mapControlError(usb.ErrBusy)
	if se.Kind != KindBusy {
		t.Fatalf("Kind = %s, want Busy", se.Kind)
	}
}

func TestMapStreamErrorBusyCollapsesToIo(t *testing.T) {
	se := mapStreamError(usb.ErrBusy)
	if se.Kind != KindIo {
		t.Fatalf("Kind = %s, want Io", se.Kind)
	}
}

func TestMapErrorTimeoutAndDisconnect(t *testing.T) {
	if se := mapControlError(usb.ErrTimeout); se.Kind != KindTimeout {
		t.Fatalf("timeout Kind = %s", se.Kind)
	}
	if se := mapControlError(usb.ErrNoDevice); se.Kind != KindDisconnected {
		t.Fatalf("no-device Kind = %s", se.Kind)
	}
}

func TestIsFatalOnlyDisconnectedAndPoisoned(t *testing.T) {
	cases := map[Kind]bool{
		KindIo:             false,
		KindTimeout:        false,
		KindBusy:           false,
		KindBufferTooSmall: false,
		KindInvalidPayload: false,
		KindInStreaming:    false,
		KindDisconnected:   true,
		KindPoisoned:       true,
	}
	for kind, want := range cases {
		if got := isFatal(&Error{Kind: kind}); got != want {
			t.Fatalf("isFatal(%s) = %v, want %v", kind, got, want)
		}
	}
}

func TestErrorIsMatchesByKind(t *testing.T) {
	err := newError(KindTimeout, usb.ErrTimeout)
	var wrapped error = err
	if !errors.Is(wrapped, &Error{Kind: KindTimeout}) {
		t.Fatalf("expected errors.Is to match on Kind")
	}
	if errors.Is(wrapped, &Error{Kind: KindBusy}) {
		t.Fatalf("expected errors.Is not to match a different Kind")
	}
}
