package bus

import (
	"errors"
	"fmt"
	"sync"
)

// BufferSize is the transmit and receive buffer size of a typical Wire
// implementation. A transaction can carry at most this many bytes,
// including the register address bytes of a write.
const BufferSize = 32

// Addr is a right-aligned 7-bit bus address.
type Addr uint8

// Addr7 masks v to a 7-bit address.
func Addr7(v uint8) Addr {
	return Addr(v & 0x7f)
}

// String returns the address in hex.
func (a Addr) String() string {
	return fmt.Sprintf("0x%02x", uint8(a))
}

// Status is the result code of EndTransmission. Zero means success; any
// other value is a failure whose meaning is opaque to the driver.
type Status uint8

const (
	// StatusOK indicates the transaction completed.
	StatusOK Status = 0
	// StatusDataTooLong indicates the transmit buffer overflowed.
	StatusDataTooLong Status = 1
	// StatusAddrNACK indicates no device acknowledged the address.
	StatusAddrNACK Status = 2
	// StatusDataNACK indicates the device rejected a data byte.
	StatusDataNACK Status = 3
	// StatusOther indicates an unspecified bus error.
	StatusOther Status = 4
	// StatusTimeout indicates the bus transaction timed out.
	StatusTimeout Status = 5
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusOK:
		return "OK"
	case StatusDataTooLong:
		return "DATA_TOO_LONG"
	case StatusAddrNACK:
		return "ADDR_NACK"
	case StatusDataNACK:
		return "DATA_NACK"
	case StatusOther:
		return "OTHER"
	case StatusTimeout:
		return "TIMEOUT"
	default:
		return fmt.Sprintf("STATUS(%d)", uint8(s))
	}
}

// ErrStatus is wrapped by the error returned from Status.Err.
var ErrStatus = errors.New("bus transaction failed")

// Err returns nil for StatusOK and an error wrapping ErrStatus otherwise.
func (s Status) Err() error {
	if s == StatusOK {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrStatus, s)
}

// Bus errors.
var (
	// ErrBufferFull is returned by WriteByte when the transmit buffer is full.
	ErrBufferFull = errors.New("transmit buffer full")

	// ErrNoData is returned by ReadByte when no received bytes are pending.
	ErrNoData = errors.New("no data available")
)

// Bus is a blocking, addressed two-wire bus.
//
// Lock and Unlock bracket one logical operation. The remaining methods are
// only called while the lock is held.
type Bus interface {
	sync.Locker

	// BeginTransmission starts queueing an outgoing transaction to addr.
	BeginTransmission(addr Addr)

	// WriteByte queues one byte into the outgoing transaction.
	WriteByte(c byte) error

	// EndTransmission sends the queued transaction. When stop is false the
	// bus is held for a repeated start.
	EndTransmission(stop bool) Status

	// RequestFrom reads count bytes from addr into the receive buffer and
	// returns how many were received.
	RequestFrom(addr Addr, count int, stop bool) int

	// Available returns the number of received bytes not yet read.
	Available() int

	// ReadByte returns the next received byte.
	ReadByte() (byte, error)
}
