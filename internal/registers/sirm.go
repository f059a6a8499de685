package registers

import (
	"encoding/binary"
	"fmt"
)

// Offsets relative to the SIRM base address.
const (
	sirmMaxLeaderSizeOffset         = 0x00000000
	sirmMaxTrailerSizeOffset        = 0x00000004
	sirmPayloadTransferSizeOffset   = 0x00000008
	sirmPayloadTransferCountOffset  = 0x0000000C
	sirmPayloadFinalTransfer1Offset = 0x00000010
	sirmPayloadFinalTransfer2Offset = 0x00000014
	sirmFieldLen                    = 4
)

// Sirm is a typed accessor over the Stream Interface Register Map, the
// source of the six size fields of stream.Params (spec §4.5); the
// timeout comes from the ABRM instead.
type Sirm struct {
	baseAddr uint64
}

func (s *Sirm) readUint32(ctrl DeviceControl, offset uint64, field string) (uint32, error) {
	raw, err := ctrl.ReadMemory(s.baseAddr+offset, sirmFieldLen)
	if err != nil {
		return 0, fmt.Errorf("sirm: read %s: %w", field, err)
	}
	return binary.BigEndian.Uint32(raw), nil
}

func (s *Sirm) MaximumLeaderSize(ctrl DeviceControl) (uint32, error) {
	return s.readUint32(ctrl, sirmMaxLeaderSizeOffset, "maximum_leader_size")
}

func (s *Sirm) MaximumTrailerSize(ctrl DeviceControl) (uint32, error) {
	return s.readUint32(ctrl, sirmMaxTrailerSizeOffset, "maximum_trailer_size")
}

func (s *Sirm) PayloadTransferSize(ctrl DeviceControl) (uint32, error) {
	return s.readUint32(ctrl, sirmPayloadTransferSizeOffset, "payload_transfer_size")
}

func (s *Sirm) PayloadTransferCount(ctrl DeviceControl) (uint32, error) {
	return s.readUint32(ctrl, sirmPayloadTransferCountOffset, "payload_transfer_count")
}

func (s *Sirm) PayloadFinalTransfer1Size(ctrl DeviceControl) (uint32, error) {
	return s.readUint32(ctrl, sirmPayloadFinalTransfer1Offset, "payload_final_transfer1_size")
}

func (s *Sirm) PayloadFinalTransfer2Size(ctrl DeviceControl) (uint32, error) {
	return s.readUint32(ctrl, sirmPayloadFinalTransfer2Offset, "payload_final_transfer2_size")
}
