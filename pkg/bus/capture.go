package bus

import (
	"time"

	"github.com/fram-kit/fram-go/pkg/log"
)

// MaxCaptureDataSize is the maximum payload recorded per transaction.
// Bus transactions are at most BufferSize bytes, so this only matters for
// buses with larger buffers.
const MaxCaptureDataSize = 256

// Capture is a Bus that forwards to another Bus and records every
// transaction to a log.Logger.
//
// Capture keeps the transaction in progress in its own fields; like the
// rest of the Bus contract those are only touched with the lock held.
type Capture struct {
	bus       Bus
	logger    log.Logger
	sessionID string
	device    string

	txAddr  Addr
	txData  []byte
	pending *log.Event
}

// NewCapture wraps b. A nil logger disables recording.
func NewCapture(b Bus, logger log.Logger, sessionID string) *Capture {
	if logger == nil {
		logger = log.NoopLogger{}
	}
	return &Capture{
		bus:       b,
		logger:    logger,
		sessionID: sessionID,
	}
}

// SetDevice sets the device variant name stamped on recorded events.
func (c *Capture) SetDevice(name string) {
	c.device = name
}

// Lock acquires the underlying bus.
func (c *Capture) Lock() {
	c.bus.Lock()
}

// Unlock records any pending read and releases the underlying bus.
func (c *Capture) Unlock() {
	c.flush()
	c.bus.Unlock()
}

// BeginTransmission starts a new outgoing transaction.
func (c *Capture) BeginTransmission(addr Addr) {
	c.flush()
	c.txAddr = addr
	c.txData = c.txData[:0]
	c.bus.BeginTransmission(addr)
}

// WriteByte queues b on the underlying bus.
func (c *Capture) WriteByte(b byte) error {
	if err := c.bus.WriteByte(b); err != nil {
		return err
	}
	c.txData = append(c.txData, b)
	return nil
}

// EndTransmission sends the transaction and records it.
func (c *Capture) EndTransmission(stop bool) Status {
	status := c.bus.EndTransmission(stop)

	event := c.newEvent(log.DirectionWrite)
	event.Transaction = &log.TransactionEvent{
		Addr:   uint8(c.txAddr),
		Stop:   stop,
		Size:   len(c.txData),
		Status: uint8(status),
	}
	event.Transaction.Data, event.Transaction.Truncated = truncate(c.txData)
	c.logger.Log(event)

	return status
}

// RequestFrom performs the read; the event is recorded once the received
// bytes have been drained or the next transaction starts.
func (c *Capture) RequestFrom(addr Addr, count int, stop bool) int {
	c.flush()
	n := c.bus.RequestFrom(addr, count, stop)

	event := c.newEvent(log.DirectionRead)
	event.Transaction = &log.TransactionEvent{
		Addr:      uint8(addr),
		Stop:      stop,
		Requested: count,
		Size:      n,
	}
	c.pending = &event
	return n
}

// Available returns the number of received bytes not yet read.
func (c *Capture) Available() int {
	return c.bus.Available()
}

// ReadByte returns the next received byte.
func (c *Capture) ReadByte() (byte, error) {
	b, err := c.bus.ReadByte()
	if err == nil && c.pending != nil {
		tx := c.pending.Transaction
		if len(tx.Data) < MaxCaptureDataSize {
			tx.Data = append(tx.Data, b)
		} else {
			tx.Truncated = true
		}
	}
	return b, err
}

func (c *Capture) flush() {
	if c.pending == nil {
		return
	}
	c.logger.Log(*c.pending)
	c.pending = nil
}

func (c *Capture) newEvent(dir log.Direction) log.Event {
	return log.Event{
		Timestamp: time.Now(),
		SessionID: c.sessionID,
		Direction: dir,
		Layer:     log.LayerBus,
		Category:  log.CategoryTransaction,
		Device:    c.device,
	}
}

func truncate(data []byte) ([]byte, bool) {
	if len(data) > MaxCaptureDataSize {
		return append([]byte(nil), data[:MaxCaptureDataSize]...), true
	}
	return append([]byte(nil), data...), false
}

// Compile-time interface satisfaction check.
var _ Bus = (*Capture)(nil)
