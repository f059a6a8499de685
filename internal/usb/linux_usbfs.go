//go:build linux

package usb

import (
	"fmt"
	"sync"
	"time"
	"unsafe"

	"golang.org/x/sys/unix"
)

// USBFSEndpoint is a concrete Endpoint backed by a Linux usbfs character
// device (/dev/bus/usb/BBB/DDD), the no-cgo analogue of the teacher's
// reach for golang.org/x/crypto/ssh in internal/sdr/ssh_sysfs.go when no
// pure-Go SDK covers the transport it needs.
//
// ioctl request codes below are the standard linux/usbdevice_fs.h
// _IOR/_IOW/_IOWR encodings for USBDEVFS_CLAIMINTERFACE,
// USBDEVFS_RELEASEINTERFACE, USBDEVFS_BULK, USBDEVFS_CONTROL and
// USBDEVFS_RESETEP, computed once rather than re-derived per call.
const (
	ioctlClaimInterface   = 0x8004550f
	ioctlReleaseInterface = 0x80045510
	ioctlResetEndpoint    = 0x80045503
	ioctlBulkTransfer     = 0xc0185502
	ioctlControlTransfer  = 0xc0185500
)

type usbfsBulkTransfer struct {
	ep      uint32
	length  uint32
	timeout uint32
	_       uint32 // pad to align data on 8-byte boundary
	data    uintptr
}

type usbfsCtrlTransfer struct {
	requestType uint8
	request     uint8
	value       uint16
	index       uint16
	length      uint16
	timeout     uint32
	data        uintptr
}

const (
	ctrlOutStandardEndpoint = 0x02 // Direction=Out, Type=Standard, Recipient=Endpoint
	stdRequestSetFeature    = 0x03
	featureEndpointHalt     = 0x00
)

// USBFSEndpoint claims interface ifaceNumber and moves data over
// endpointAddr on the given usbfs device node.
type USBFSEndpoint struct {
	mu            sync.Mutex
	devicePath    string
	ifaceNumber   uint32
	endpointAddr  uint8
	fd            int
	claimed       bool
}

// NewUSBFSEndpoint opens devicePath (e.g. "/dev/bus/usb/001/004") for an
// interface/endpoint pair. The fd stays open across Claim/Release cycles;
// only the interface claim is idempotent-tracked by BulkChannel (channel.go).
func NewUSBFSEndpoint(devicePath string, ifaceNumber uint32, endpointAddr uint8) (*USBFSEndpoint, error) {
	fd, err := unix.Open(devicePath, unix.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("usbfs: open %s: %w", devicePath, err)
	}
	return &USBFSEndpoint{
		devicePath:   devicePath,
		ifaceNumber:  ifaceNumber,
		endpointAddr: endpointAddr,
		fd:           fd,
	}, nil
}

func (e *USBFSEndpoint) ioctl(req uintptr, arg unsafe.Pointer) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(e.fd), req, uintptr(arg))
	if errno != 0 {
		return mapErrno(errno)
	}
	return nil
}

func mapErrno(errno unix.Errno) error {
	switch errno {
	case unix.ETIMEDOUT:
		return ErrTimeout
	case unix.ENODEV, unix.ENOENT:
		return ErrNoDevice
	case unix.EBUSY:
		return ErrBusy
	case unix.EPIPE:
		return ErrStalled
	default:
		return errno
	}
}

func (e *USBFSEndpoint) ClaimInterface() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.claimed {
		return nil
	}
	iface := e.ifaceNumber
	if err := e.ioctl(ioctlClaimInterface, unsafe.Pointer(&iface)); err != nil {
		return err
	}
	e.claimed = true
	return nil
}

func (e *USBFSEndpoint) ReleaseInterface() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.claimed {
		return nil
	}
	iface := e.ifaceNumber
	if err := e.ioctl(ioctlReleaseInterface, unsafe.Pointer(&iface)); err != nil {
		return err
	}
	e.claimed = false
	return nil
}

func (e *USBFSEndpoint) ReadBulk(buf []byte, timeout time.Duration) (int, error) {
	if len(buf) == 0 {
		return 0, nil
	}

	xfer := usbfsBulkTransfer{
		ep:      uint32(e.endpointAddr),
		length:  uint32(len(buf)),
		timeout: uint32(timeout / time.Millisecond),
		data:    uintptr(unsafe.Pointer(&buf[0])),
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	n, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(e.fd), ioctlBulkTransfer, uintptr(unsafe.Pointer(&xfer)))
	if errno != 0 {
		return 0, mapErrno(errno)
	}
	return int(n), nil
}

func (e *USBFSEndpoint) WriteBulk(buf []byte, timeout time.Duration) (int, error) {
	if len(buf) == 0 {
		return 0, nil
	}

	xfer := usbfsBulkTransfer{
		ep:      uint32(e.endpointAddr),
		length:  uint32(len(buf)),
		timeout: uint32(timeout / time.Millisecond),
		data:    uintptr(unsafe.Pointer(&buf[0])),
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	n, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(e.fd), ioctlBulkTransfer, uintptr(unsafe.Pointer(&xfer)))
	if errno != 0 {
		return 0, mapErrno(errno)
	}
	return int(n), nil
}

func (e *USBFSEndpoint) SetFeatureHalt(timeout time.Duration) error {
	ctrl := usbfsCtrlTransfer{
		requestType: ctrlOutStandardEndpoint,
		request:     stdRequestSetFeature,
		value:       featureEndpointHalt,
		index:       uint16(e.endpointAddr),
		length:      0,
		timeout:     uint32(timeout / time.Millisecond),
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ioctl(ioctlControlTransfer, unsafe.Pointer(&ctrl))
}

func (e *USBFSEndpoint) ClearHalt() error {
	ep := uint32(e.endpointAddr)
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ioctl(ioctlResetEndpoint, unsafe.Pointer(&ep))
}

// Close releases the underlying file descriptor. Callers should Close
// after ReleaseInterface.
func (e *USBFSEndpoint) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return unix.Close(e.fd)
}
