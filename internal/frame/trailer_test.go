package frame

import "testing"

func TestParseTrailerAndAsImage(t *testing.T) {
	buf := make([]byte, 26)
	putU16(buf[0:2], uint16(PayloadStatusSuccess))
	putU64(buf[4:12], 42)
	putU64(buf[12:20], 1024)
	putU32(buf[22:26], 480)

	tr, err := ParseTrailer(buf)
	if err != nil {
		t.Fatalf("ParseTrailer: %v", err)
	}
	if !tr.Status.Success() {
		t.Fatalf("expected success status")
	}
	if tr.BlockID != 42 || tr.ValidPayloadSize != 1024 {
		t.Fatalf("BlockID/ValidPayloadSize = %d/%d", tr.BlockID, tr.ValidPayloadSize)
	}

	img, err := tr.AsImage()
	if err != nil {
		t.Fatalf("AsImage: %v", err)
	}
	if img.ActualHeight != 480 {
		t.Fatalf("ActualHeight = %d, want 480", img.ActualHeight)
	}
}

func TestParseTrailerChunk(t *testing.T) {
	buf := make([]byte, 20)
	putU16(buf[0:2], uint16(PayloadStatusSuccess))
	putU64(buf[4:12], 1)
	putU64(buf[12:20], 8)

	tr, err := ParseTrailer(buf)
	if err != nil {
		t.Fatalf("ParseTrailer: %v", err)
	}
	ct := tr.AsChunk()
	if ct.BlockID != 1 {
		t.Fatalf("BlockID = %d, want 1", ct.BlockID)
	}
}

func TestParseTrailerTooShort(t *testing.T) {
	if _, err := ParseTrailer(make([]byte, 4)); err == nil {
		t.Fatalf("expected error for short trailer")
	}
}
