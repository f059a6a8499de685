package stream

import (
	"time"

	"github.com/rjboer/govision/internal/registers"
)

// Params is the set of values the streaming core discovers from the
// device's register maps before it can size buffers and drive transfers
// (spec §4.5).
type Params struct {
	LeaderSize        uint32
	TrailerSize       uint32
	PayloadSize       uint32
	PayloadCount      uint32
	PayloadFinal1Size uint32
	PayloadFinal2Size uint32
	Timeout           time.Duration
}

// MaximumPayloadSize is the upper bound on a payload transfer's total
// size: payload_count transfers of payload_size plus the two final
// transfers, mirroring cameleon's StreamParams::maximum_payload_size.
// Actual payload size may be smaller depending on camera settings; the
// scratch buffer must still be allocated at this bound.
func (p Params) MaximumPayloadSize() int {
	return int(p.PayloadSize)*int(p.PayloadCount) + int(p.PayloadFinal1Size) + int(p.PayloadFinal2Size)
}

// FromControl walks ABRM -> SBRM -> SIRM to discover Params. A device
// with no SIRM cannot stream; that is InvalidDevice, never a bare I/O
// error, mirroring cameleon's `sirm().ok_or(Error::InvalidDevice)?`.
func FromControl(ctrl registers.DeviceControl) (Params, error) {
	abrm := registers.NewAbrm()

	timeout, err := abrm.MaximumDeviceResponseTime(ctrl)
	if err != nil {
		return Params{}, newError(KindIo, err)
	}

	sbrm, err := abrm.Sbrm(ctrl)
	if err != nil {
		return Params{}, newError(KindIo, err)
	}

	sirm, err := sbrm.Sirm(ctrl)
	if err != nil {
		return Params{}, newError(KindIo, err)
	}
	if sirm == nil {
		return Params{}, newError(KindInvalidDevice, nil)
	}

	leaderSize, err := sirm.MaximumLeaderSize(ctrl)
	if err != nil {
		return Params{}, newError(KindIo, err)
	}
	trailerSize, err := sirm.MaximumTrailerSize(ctrl)
	if err != nil {
		return Params{}, newError(KindIo, err)
	}
	payloadSize, err := sirm.PayloadTransferSize(ctrl)
	if err != nil {
		return Params{}, newError(KindIo, err)
	}
	payloadCount, err := sirm.PayloadTransferCount(ctrl)
	if err != nil {
		return Params{}, newError(KindIo, err)
	}
	final1, err := sirm.PayloadFinalTransfer1Size(ctrl)
	if err != nil {
		return Params{}, newError(KindIo, err)
	}
	final2, err := sirm.PayloadFinalTransfer2Size(ctrl)
	if err != nil {
		return Params{}, newError(KindIo, err)
	}

	return Params{
		LeaderSize:        leaderSize,
		TrailerSize:       trailerSize,
		PayloadSize:       payloadSize,
		PayloadCount:      payloadCount,
		PayloadFinal1Size: final1,
		PayloadFinal2Size: final2,
		Timeout:           timeout,
	}, nil
}
