package frame

import (
	"encoding/binary"
	"fmt"
)

// Generic leader header layout, common to every payload type:
//
//	reserved    uint16  @0
//	block_id    uint64  @2
//	reserved    uint16  @10
//	payload_type uint16 @12
const genericLeaderSize = 14

// Image/ImageExtendedChunk leaders extend the generic header with:
//
//	reserved     uint16 @14
//	width        uint32 @16
//	height_hint  uint32 @20 (present for layout symmetry; cameleon calls
//	                         this a hint because the trailer's actual
//	                         height is authoritative for Image payloads)
//	x_offset     uint32 @24
//	y_offset     uint32 @28
//	pixel_format uint32 @32
//	reserved     uint16 @36
//	timestamp    uint64 @38
const imageLeaderExtraSize = 46 - genericLeaderSize

// Chunk leaders extend the generic header with just a timestamp:
//
//	reserved  uint16 @14
//	timestamp uint64 @16
const chunkLeaderExtraSize = 24 - genericLeaderSize

// Leader is the parsed generic leader header.
type Leader struct {
	BlockID uint64
	Type    PayloadType
	raw     []byte
}

// ParseLeader parses the generic portion of a leader. buf must contain at
// least the full leader for its announced type; callers read
// MaximumLeaderSize bytes up front and pass the whole buffer here.
func ParseLeader(buf []byte) (Leader, error) {
	if len(buf) < genericLeaderSize {
		return Leader{}, fmt.Errorf("frame: leader too short: %d bytes", len(buf))
	}
	return Leader{
		BlockID: binary.BigEndian.Uint64(buf[2:10]),
		Type:    PayloadType(binary.BigEndian.Uint16(buf[12:14])),
		raw:     buf,
	}, nil
}

// ImageLeader carries the geometry fields of an Image/ImageExtendedChunk
// leader.
type ImageLeader struct {
	Leader
	Width       uint32
	HeightHint  uint32
	XOffset     uint32
	YOffset     uint32
	PixelFormat uint32
	Timestamp   uint64
}

// AsImage specializes a Leader of type Image or ImageExtendedChunk.
func (l Leader) AsImage() (ImageLeader, error) {
	if l.Type != PayloadTypeImage && l.Type != PayloadTypeImageExtendedChunk {
		return ImageLeader{}, fmt.Errorf("frame: leader type %s is not an image leader", l.Type)
	}
	need := genericLeaderSize + imageLeaderExtraSize
	if len(l.raw) < need {
		return ImageLeader{}, fmt.Errorf("frame: image leader too short: %d bytes, want %d", len(l.raw), need)
	}
	b := l.raw
	return ImageLeader{
		Leader:      l,
		Width:       binary.BigEndian.Uint32(b[16:20]),
		HeightHint:  binary.BigEndian.Uint32(b[20:24]),
		XOffset:     binary.BigEndian.Uint32(b[24:28]),
		YOffset:     binary.BigEndian.Uint32(b[28:32]),
		PixelFormat: binary.BigEndian.Uint32(b[32:36]),
		Timestamp:   binary.BigEndian.Uint64(b[38:46]),
	}, nil
}

// ChunkLeader carries the fields of a Chunk leader.
type ChunkLeader struct {
	Leader
	Timestamp uint64
}

// AsChunk specializes a Leader of type Chunk.
func (l Leader) AsChunk() (ChunkLeader, error) {
	if l.Type != PayloadTypeChunk {
		return ChunkLeader{}, fmt.Errorf("frame: leader type %s is not a chunk leader", l.Type)
	}
	need := genericLeaderSize + chunkLeaderExtraSize
	if len(l.raw) < need {
		return ChunkLeader{}, fmt.Errorf("frame: chunk leader too short: %d bytes, want %d", len(l.raw), need)
	}
	return ChunkLeader{
		Leader:    l,
		Timestamp: binary.BigEndian.Uint64(l.raw[16:24]),
	}, nil
}
