package stream

import (
	"fmt"

	"github.com/rjboer/govision/internal/frame"
)

// ImageInfo describes the geometry of an Image or ImageExtendedChunk
// payload, combining the leader's announced dimensions with the
// trailer's actual delivered height and the resolved image byte size.
type ImageInfo struct {
	Width       uint32
	Height      uint32
	XOffset     uint32
	YOffset     uint32
	PixelFormat uint32
	ImageSize   uint64
}

// Payload is a single delivered image block, handed to the caller's
// sender channel (spec §6).
type Payload struct {
	ID               uint64
	Type             frame.PayloadType
	ImageInfo        *ImageInfo
	Data             []byte
	ValidPayloadSize uint64
	Timestamp        uint64
}

// buildPayload validates the trailer and assembles a Payload from a
// parsed leader, trailer, and the raw payload scratch buffer, following
// cameleon's PayloadBuilder::build (stream_handle.rs): check status,
// check the claimed valid size actually fits what was read, then
// dispatch on payload type. BufferTooSmall is never raised here - a
// trailer claiming more valid bytes than were actually read is a
// malformed payload, not an undersized caller buffer.
func buildPayload(l frame.Leader, tr frame.Trailer, payloadBuf []byte, bytesRead int) (*Payload, error) {
	if !tr.Status.Success() {
		return nil, newError(KindIo, nil)
	}
	if tr.ValidPayloadSize > uint64(bytesRead) {
		err := fmt.Errorf("the actual read payload size is smaller than the size specified in the trailer: expected %d, but got %d", tr.ValidPayloadSize, bytesRead)
		return nil, newError(KindInvalidPayload, err)
	}
	data := payloadBuf[:tr.ValidPayloadSize]

	switch l.Type {
	case frame.PayloadTypeImage:
		return buildImagePayload(l, tr, data)
	case frame.PayloadTypeImageExtendedChunk:
		return buildExtendedChunkPayload(l, tr, data)
	case frame.PayloadTypeChunk:
		return buildChunkPayload(l, tr, data)
	default:
		return nil, newError(KindInvalidPayload, nil)
	}
}

func buildImagePayload(l frame.Leader, tr frame.Trailer, data []byte) (*Payload, error) {
	imgLeader, err := l.AsImage()
	if err != nil {
		return nil, newError(KindInvalidPayload, err)
	}
	imgTrailer, err := tr.AsImage()
	if err != nil {
		return nil, newError(KindInvalidPayload, err)
	}

	return &Payload{
		ID:   l.BlockID,
		Type: frame.PayloadTypeImage,
		ImageInfo: &ImageInfo{
			Width:       imgLeader.Width,
			Height:      imgTrailer.ActualHeight,
			XOffset:     imgLeader.XOffset,
			YOffset:     imgLeader.YOffset,
			PixelFormat: imgLeader.PixelFormat,
			ImageSize:   tr.ValidPayloadSize,
		},
		Data:             data,
		ValidPayloadSize: tr.ValidPayloadSize,
		Timestamp:        imgLeader.Timestamp,
	}, nil
}

func buildExtendedChunkPayload(l frame.Leader, tr frame.Trailer, data []byte) (*Payload, error) {
	imgLeader, err := l.AsImage()
	if err != nil {
		return nil, newError(KindInvalidPayload, err)
	}
	imgTrailer, err := tr.AsImage()
	if err != nil {
		return nil, newError(KindInvalidPayload, err)
	}

	imageSize, err := frame.WalkChunksForImageSize(data, tr.ValidPayloadSize)
	if err != nil {
		return nil, newError(KindInvalidPayload, err)
	}

	return &Payload{
		ID:   l.BlockID,
		Type: frame.PayloadTypeImageExtendedChunk,
		ImageInfo: &ImageInfo{
			Width:       imgLeader.Width,
			Height:      imgTrailer.ActualHeight,
			XOffset:     imgLeader.XOffset,
			YOffset:     imgLeader.YOffset,
			PixelFormat: imgLeader.PixelFormat,
			ImageSize:   imageSize,
		},
		Data:             data,
		ValidPayloadSize: tr.ValidPayloadSize,
		Timestamp:        imgLeader.Timestamp,
	}, nil
}

func buildChunkPayload(l frame.Leader, tr frame.Trailer, data []byte) (*Payload, error) {
	chunkLeader, err := l.AsChunk()
	if err != nil {
		return nil, newError(KindInvalidPayload, err)
	}

	return &Payload{
		ID:               l.BlockID,
		Type:             frame.PayloadTypeChunk,
		ImageInfo:        nil,
		Data:             data,
		ValidPayloadSize: tr.ValidPayloadSize,
		Timestamp:        chunkLeader.Timestamp,
	}, nil
}
