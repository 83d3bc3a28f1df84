package log

import (
	"time"
)

// Event is one captured bus transaction, device operation or error.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// SessionID groups the events of one driver session (UUID).
	SessionID string `cbor:"2,keyasint"`

	// Direction of the data transfer.
	Direction Direction `cbor:"3,keyasint"`

	// Layer where the event was captured.
	Layer Layer `cbor:"4,keyasint"`

	// Category classifies the event type.
	Category Category `cbor:"5,keyasint"`

	// Device is the device variant name (e.g. "MB85RC1M"), if known.
	Device string `cbor:"6,keyasint,omitempty"`

	// Type-specific payload (one of these will be set).
	Transaction *TransactionEvent `cbor:"10,keyasint,omitempty"` // Bus layer
	Operation   *OperationEvent   `cbor:"11,keyasint,omitempty"` // Device layer
	Error       *ErrorEventData   `cbor:"12,keyasint,omitempty"` // Either layer
}

// Direction indicates which way data moved.
type Direction uint8

const (
	// DirectionWrite indicates data sent to the device.
	DirectionWrite Direction = 0
	// DirectionRead indicates data received from the device.
	DirectionRead Direction = 1
)

// String returns the direction name.
func (d Direction) String() string {
	switch d {
	case DirectionWrite:
		return "WRITE"
	case DirectionRead:
		return "READ"
	default:
		return "UNKNOWN"
	}
}

// Layer indicates which layer captured the event.
type Layer uint8

const (
	// LayerBus is the raw transaction layer.
	LayerBus Layer = 0
	// LayerDevice is the driver API layer.
	LayerDevice Layer = 1
)

// String returns the layer name.
func (l Layer) String() string {
	switch l {
	case LayerBus:
		return "BUS"
	case LayerDevice:
		return "DEVICE"
	default:
		return "UNKNOWN"
	}
}

// Category classifies the event type.
type Category uint8

const (
	// CategoryTransaction indicates a single bus transaction.
	CategoryTransaction Category = 0
	// CategoryOperation indicates a completed logical operation.
	CategoryOperation Category = 1
	// CategoryError indicates an error event.
	CategoryError Category = 2
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryTransaction:
		return "TRANSACTION"
	case CategoryOperation:
		return "OPERATION"
	case CategoryError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// TransactionEvent captures one bus transaction.
type TransactionEvent struct {
	// Addr is the 7-bit bus address the transaction was sent to.
	Addr uint8 `cbor:"1,keyasint"`

	// Stop is false when the bus was held for a repeated start.
	Stop bool `cbor:"2,keyasint,omitempty"`

	// Requested is the number of bytes requested (reads only).
	Requested int `cbor:"3,keyasint,omitempty"`

	// Size is the number of bytes transferred.
	Size int `cbor:"4,keyasint"`

	// Data is the transferred bytes (may be truncated). For writes the
	// register address bytes are included.
	Data []byte `cbor:"5,keyasint,omitempty"`

	// Truncated indicates if Data was truncated.
	Truncated bool `cbor:"6,keyasint,omitempty"`

	// Status is the EndTransmission result (writes only, 0 = success).
	Status uint8 `cbor:"7,keyasint,omitempty"`
}

// Failed reports whether the transaction failed on the bus or delivered
// fewer bytes than requested.
func (t *TransactionEvent) Failed() bool {
	return t.Status != 0 || t.Size < t.Requested
}

// OperationEvent captures one logical device operation.
type OperationEvent struct {
	// Op is the operation name (read, write, move, erase).
	Op string `cbor:"1,keyasint"`

	// Offset is the start offset (source offset for move).
	Offset uint32 `cbor:"2,keyasint"`

	// Target is the destination offset (move only).
	Target *uint32 `cbor:"3,keyasint,omitempty"`

	// Length is the number of bytes the operation covers.
	Length int `cbor:"4,keyasint"`

	// Transactions is the number of bus transactions issued.
	Transactions int `cbor:"5,keyasint"`

	// Duration is the wall time the operation held the bus.
	// Stored as nanoseconds.
	Duration time.Duration `cbor:"6,keyasint"`

	// Err is the error message if the operation failed.
	Err string `cbor:"7,keyasint,omitempty"`
}

// ErrorEventData captures errors at any layer.
type ErrorEventData struct {
	// Layer where the error occurred.
	Layer Layer `cbor:"1,keyasint"`

	// Message is the error message.
	Message string `cbor:"2,keyasint"`

	// Code is the bus status code (if applicable).
	Code *int `cbor:"3,keyasint,omitempty"`

	// Context describes what operation was being performed.
	Context string `cbor:"4,keyasint,omitempty"`
}
