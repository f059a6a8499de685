package registers

import (
	"encoding/binary"
	"fmt"
)

// Offsets relative to the SBRM base address.
const (
	sbrmSIRMAddressOffset = 0x00000004
	sbrmSIRMAddressLen    = 8
)

// Sbrm is a typed accessor over the Streaming Bootstrap Register Map.
type Sbrm struct {
	baseAddr uint64
}

// Sirm follows the optional pointer to the Stream Interface Register
// Map. A zero pointer means the device has no SIRM — spec §3 invariant
// 5 makes this a hard device-invalidity error for the streaming path,
// but Sbrm.Sirm itself only reports absence; the caller (stream.Params)
// is responsible for turning that into InvalidDevice, mirroring the
// original `SBRM.sirm()` returning an optional.
func (s *Sbrm) Sirm(ctrl DeviceControl) (*Sirm, error) {
	raw, err := ctrl.ReadMemory(s.baseAddr+sbrmSIRMAddressOffset, sbrmSIRMAddressLen)
	if err != nil {
		return nil, fmt.Errorf("sbrm: read sirm address: %w", err)
	}
	addr := binary.BigEndian.Uint64(raw)
	if addr == 0 {
		return nil, nil
	}
	return &Sirm{baseAddr: addr}, nil
}
