package fram

import (
	"errors"
	"fmt"

	"github.com/fram-kit/fram-go/pkg/bus"
)

// Driver errors.
var (
	// ErrOutOfRange is returned when offset+length exceeds the capacity.
	ErrOutOfRange = errors.New("fram: range exceeds device capacity")

	// ErrTransport is returned when a bus transaction reports failure.
	ErrTransport = errors.New("fram: bus transaction failed")

	// ErrShortRead is returned when the bus delivers fewer bytes than
	// requested.
	ErrShortRead = errors.New("fram: short read")

	// ErrInvalidConfig is returned for an unusable Config.
	ErrInvalidConfig = errors.New("fram: invalid configuration")

	// ErrNotFixedSize is returned by Get and Put for types without a fixed
	// binary size.
	ErrNotFixedSize = errors.New("fram: type has no fixed size")
)

// OpError reports the chunk at which an operation failed. Bytes before
// Offset were transferred; bytes from Offset on were not.
type OpError struct {
	// Op is the logical operation (read, write, move, erase).
	Op string

	// Offset is the start of the failing chunk.
	Offset int

	// Addr is the bus address the failing chunk was sent to.
	Addr bus.Addr

	// Status is the bus status for transport failures.
	Status bus.Status

	// Err is ErrTransport or ErrShortRead, possibly wrapped.
	Err error
}

func (e *OpError) Error() string {
	return fmt.Sprintf("fram: %s at offset %d (addr %s): %v", e.Op, e.Offset, e.Addr, e.Err)
}

func (e *OpError) Unwrap() error {
	return e.Err
}
