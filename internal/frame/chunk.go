package frame

import "encoding/binary"

// InvalidPayloadError reports a malformed ImageExtendedChunk payload
// encountered while walking its chunk footers backward.
type InvalidPayloadError struct {
	Msg string
}

func (e *InvalidPayloadError) Error() string { return "failed to parse chunk data: " + e.Msg }

const (
	chunkFooterSizeFieldLen = 4
	chunkFooterIDFieldLen   = 4
)

// WalkChunksForImageSize scans an ImageExtendedChunk payload backward
// from validPayloadSize, one chunk record at a time, until the cursor
// reaches exactly 0. Every record, including the innermost one whose
// data is the image itself, is laid out chunk_id(4) | data(data_size) |
// data_size(4); the chunk_id's value is never inspected, only its width
// skipped, so the walk reads the trailing size field, then steps back
// over that record's data and id together. Landing on exactly 0 means
// the record just decoded starts at the beginning of payload, so its
// data_size is the image size.
func WalkChunksForImageSize(payload []byte, validPayloadSize uint64) (uint64, error) {
	cursor := validPayloadSize

	for {
		if cursor < chunkFooterSizeFieldLen {
			return 0, &InvalidPayloadError{Msg: "size field missing"}
		}
		cursor -= chunkFooterSizeFieldLen
		dataSize := uint64(binary.BigEndian.Uint32(payload[cursor : cursor+chunkFooterSizeFieldLen]))

		step := dataSize + chunkFooterIDFieldLen
		if step > cursor {
			return 0, &InvalidPayloadError{Msg: "chunk data size is smaller than specified size"}
		}
		cursor -= step

		if cursor == 0 {
			return dataSize, nil
		}
	}
}
