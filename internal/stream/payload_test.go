package stream

import (
	"encoding/binary"
	"errors"
	"strings"
	"testing"

	"github.com/rjboer/govision/internal/frame"
)

func u64(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}

func u32(v uint32) []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, v)
	return b
}

func u16(v uint16) []byte {
	b := make([]byte, 2)
	binary.BigEndian.PutUint16(b, v)
	return b
}

func buildImageLeaderBuf(blockID uint64, width, height uint32) []byte {
	buf := make([]byte, 46)
	copy(buf[2:10], u64(blockID))
	copy(buf[12:14], u16(uint16(frame.PayloadTypeImage)))
	copy(buf[16:20], u32(width))
	copy(buf[20:24], u32(height))
	return buf
}

func buildExtendedLeaderBuf(blockID uint64, width, heightHint uint32) []byte {
	buf := buildImageLeaderBuf(blockID, width, heightHint)
	copy(buf[12:14], u16(uint16(frame.PayloadTypeImageExtendedChunk)))
	return buf
}

func buildImageTrailerBuf(blockID uint64, validSize uint64, height uint32) []byte {
	buf := make([]byte, 26)
	copy(buf[4:12], u64(blockID))
	copy(buf[12:20], u64(validSize))
	copy(buf[22:26], u32(height))
	return buf
}

func TestBuildPayloadImage(t *testing.T) {
	leaderBuf := buildImageLeaderBuf(1, 640, 480)
	leader, err := frame.ParseLeader(leaderBuf)
	if err != nil {
		t.Fatalf("ParseLeader: %v", err)
	}

	data := make([]byte, 4096)
	trailerBuf := buildImageTrailerBuf(1, 4096, 480)
	trailer, err := frame.ParseTrailer(trailerBuf)
	if err != nil {
		t.Fatalf("ParseTrailer: %v", err)
	}

	p, err := buildPayload(leader, trailer, data, len(data))
	if err != nil {
		t.Fatalf("buildPayload: %v", err)
	}
	if p.Type != frame.PayloadTypeImage {
		t.Fatalf("Type = %s", p.Type)
	}
	if p.ImageInfo == nil || p.ImageInfo.ImageSize != p.ValidPayloadSize {
		t.Fatalf("ImageSize must equal ValidPayloadSize for a plain Image payload")
	}
	if p.ImageInfo.Height != 480 {
		t.Fatalf("Height = %d, want 480", p.ImageInfo.Height)
	}
}

func TestBuildPayloadRejectsShortRead(t *testing.T) {
	leaderBuf := buildImageLeaderBuf(1, 640, 480)
	leader, _ := frame.ParseLeader(leaderBuf)
	trailerBuf := buildImageTrailerBuf(1, 4096, 480)
	trailer, _ := frame.ParseTrailer(trailerBuf)

	data := make([]byte, 100)
	_, err := buildPayload(leader, trailer, data, len(data))
	var se *Error
	if !errors.As(err, &se) || se.Kind != KindInvalidPayload {
		t.Fatalf("expected InvalidPayload, got %v", err)
	}
	want := "expected 4096, but got 100"
	if !strings.Contains(se.Error(), want) {
		t.Fatalf("error %q does not contain %q", se.Error(), want)
	}
}

func TestBuildPayloadExtendedChunkWalksToImageSize(t *testing.T) {
	const imageSize = 200
	leaderBuf := buildExtendedLeaderBuf(9, 64, 32)
	leader, _ := frame.ParseLeader(leaderBuf)

	// The image is itself the innermost chunk record: id(4) | data(imageSize) | size(4).
	// Its start coincides with offset 0, which is what terminates the backward walk.
	var payload []byte
	payload = append(payload, u32(0)...)
	payload = append(payload, make([]byte, imageSize)...)
	payload = append(payload, u32(imageSize)...)

	trailerBuf := buildImageTrailerBuf(9, uint64(len(payload)), 32)
	trailer, _ := frame.ParseTrailer(trailerBuf)

	p, err := buildPayload(leader, trailer, payload, len(payload))
	if err != nil {
		t.Fatalf("buildPayload: %v", err)
	}
	if p.ImageInfo.ImageSize != imageSize {
		t.Fatalf("ImageSize = %d, want %d", p.ImageInfo.ImageSize, imageSize)
	}
}
