package frame

import (
	"encoding/binary"
	"fmt"
)

// Generic trailer header layout, common to every payload type:
//
//	status             uint16 @0
//	reserved           uint16 @2
//	block_id           uint64 @4
//	valid_payload_size uint64 @12
const genericTrailerSize = 20

// Image trailers extend the generic header with the actual delivered
// height, which may differ from the leader's height_hint on a partial or
// re-synchronized block:
//
//	reserved      uint16 @20
//	actual_height uint32 @22
const imageTrailerExtraSize = 26 - genericTrailerSize

// Trailer is the parsed generic trailer header.
type Trailer struct {
	Status           PayloadStatus
	BlockID          uint64
	ValidPayloadSize uint64
	raw              []byte
}

// ParseTrailer parses the generic portion of a trailer.
func ParseTrailer(buf []byte) (Trailer, error) {
	if len(buf) < genericTrailerSize {
		return Trailer{}, fmt.Errorf("frame: trailer too short: %d bytes", len(buf))
	}
	return Trailer{
		Status:           PayloadStatus(binary.BigEndian.Uint16(buf[0:2])),
		BlockID:          binary.BigEndian.Uint64(buf[4:12]),
		ValidPayloadSize: binary.BigEndian.Uint64(buf[12:20]),
		raw:              buf,
	}, nil
}

// ImageTrailer carries the actual delivered height of an image block.
type ImageTrailer struct {
	Trailer
	ActualHeight uint32
}

// AsImage specializes a Trailer for an Image/ImageExtendedChunk block.
func (t Trailer) AsImage() (ImageTrailer, error) {
	need := genericTrailerSize + imageTrailerExtraSize
	if len(t.raw) < need {
		return ImageTrailer{}, fmt.Errorf("frame: image trailer too short: %d bytes, want %d", len(t.raw), need)
	}
	return ImageTrailer{
		Trailer:      t,
		ActualHeight: binary.BigEndian.Uint32(t.raw[22:26]),
	}, nil
}

// ChunkTrailer carries no fields beyond the generic trailer.
type ChunkTrailer struct {
	Trailer
}

// AsChunk specializes a Trailer for a Chunk block.
func (t Trailer) AsChunk() ChunkTrailer {
	return ChunkTrailer{Trailer: t}
}
