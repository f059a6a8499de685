// Package frame parses the leader/payload/trailer framing of a single
// streamed image block (C4). It is pure: no I/O, no channels, just byte
// layouts over buffers already filled in by internal/usb, mirroring how
// cameleon's stream_handle.rs keeps PayloadBuilder free of any transport
// dependency.
package frame

import "fmt"

// PayloadType identifies what kind of payload a leader announces.
type PayloadType uint16

const (
	PayloadTypeImage              PayloadType = 1
	PayloadTypeImageExtendedChunk PayloadType = 2
	PayloadTypeChunk              PayloadType = 3
)

func (t PayloadType) String() string {
	switch t {
	case PayloadTypeImage:
		return "Image"
	case PayloadTypeImageExtendedChunk:
		return "ImageExtendedChunk"
	case PayloadTypeChunk:
		return "Chunk"
	default:
		return fmt.Sprintf("PayloadType(%d)", uint16(t))
	}
}

// PayloadStatus is the trailer's per-block status code.
type PayloadStatus uint16

const (
	PayloadStatusSuccess PayloadStatus = 0
)

// Success reports whether the device considered this block well formed.
func (s PayloadStatus) Success() bool { return s == PayloadStatusSuccess }
