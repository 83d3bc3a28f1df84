package fram

import (
	"log/slog"
	"time"

	"github.com/fram-kit/fram-go/pkg/bus"
	"github.com/fram-kit/fram-go/pkg/log"
)

// Addressing and transfer limits.
const (
	// DeviceAddr is the MB85RC device type code, ORed with the selector.
	DeviceAddr = 0b1010000

	// BankSize is the span of the 16-bit register address.
	BankSize = 65536

	// ReadChunkMax is the payload limit of one read transaction.
	ReadChunkMax = 32

	// WriteChunkMax is the payload limit of one write transaction; the
	// other two bytes of the bus buffer carry the register address.
	WriteChunkMax = 30

	// StagingSize is the buffer Move relocates data through.
	StagingSize = WriteChunkMax
)

// Device is one MB85RC chip on a bus. Capacity and bus address are fixed at
// construction. A Device is safe for concurrent use; operations serialize
// on the bus lock.
type Device struct {
	bus      bus.Bus
	variant  Variant
	selector uint8
	logger   *slog.Logger
	capture  log.Logger
	session  string
}

// New creates a Device on b. When cfg.Capture is set, b is wrapped in a
// bus.Capture so every transaction is recorded as well.
func New(b bus.Bus, cfg Config) (*Device, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	logger = logger.With(slog.String("device", cfg.Variant.Name))

	d := &Device{
		bus:      b,
		variant:  cfg.Variant,
		selector: cfg.Selector,
		logger:   logger,
		capture:  cfg.Capture,
		session:  cfg.SessionID,
	}
	if cfg.Capture != nil {
		c := bus.NewCapture(b, cfg.Capture, cfg.SessionID)
		c.SetDevice(cfg.Variant.Name)
		d.bus = c
	}
	return d, nil
}

// Capacity returns the device size in bytes.
func (d *Device) Capacity() int {
	return d.variant.Capacity
}

// Variant returns the configured part.
func (d *Device) Variant() Variant {
	return d.variant
}

// EffectiveAddr returns the bus address a transaction starting at offset
// is sent to.
func (d *Device) EffectiveAddr(offset int) bus.Addr {
	addr := DeviceAddr | d.selector
	if d.variant.Boundary == BoundaryDualAddressSpace && offset >= BankSize {
		addr |= 1
	}
	return bus.Addr7(addr)
}

// Read returns length bytes starting at offset.
func (d *Device) Read(offset, length int) ([]byte, error) {
	if err := d.checkRange(offset, length); err != nil {
		return nil, err
	}
	buf := make([]byte, length)
	if err := d.ReadInto(offset, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// ReadInto fills buf with the bytes starting at offset.
func (d *Device) ReadInto(offset int, buf []byte) (err error) {
	if err := d.checkRange(offset, len(buf)); err != nil {
		return err
	}

	o := d.acquire("read", offset, len(buf))
	defer d.release(o, &err)

	return d.readChunks(o, offset, buf)
}

// Write stores data starting at offset.
func (d *Device) Write(offset int, data []byte) (err error) {
	if err := d.checkRange(offset, len(data)); err != nil {
		return err
	}

	o := d.acquire("write", offset, len(data))
	defer d.release(o, &err)

	return d.writeChunks(o, offset, data)
}

// Move copies length bytes from offset from to offset to. The ranges may
// overlap; the result is as if the source had been read in full before
// any of it was written.
func (d *Device) Move(from, to, length int) (err error) {
	if err := d.checkRange(from, length); err != nil {
		return err
	}
	if err := d.checkRange(to, length); err != nil {
		return err
	}
	if from == to || length == 0 {
		return nil
	}

	o := d.acquire("move", from, length)
	o.target = &to
	defer d.release(o, &err)

	return d.moveChunks(o, from, to, length)
}

// Erase sets every byte of the device to zero.
func (d *Device) Erase() (err error) {
	o := d.acquire("erase", 0, d.Capacity())
	defer d.release(o, &err)

	return d.eraseChunks(o)
}

func (d *Device) checkRange(offset, length int) error {
	if offset < 0 || length < 0 || offset > d.Capacity()-length {
		return &OpError{Op: "range", Offset: offset, Addr: d.EffectiveAddr(offset), Err: ErrOutOfRange}
	}
	return nil
}

// op tracks one logical operation while the bus is held.
type op struct {
	name         string
	offset       int
	target       *int
	length       int
	start        time.Time
	transactions int
}

func (d *Device) acquire(name string, offset, length int) *op {
	d.bus.Lock()
	return &op{
		name:   name,
		offset: offset,
		length: length,
		start:  time.Now(),
	}
}

func (d *Device) release(o *op, errp *error) {
	d.bus.Unlock()

	elapsed := time.Since(o.start)
	err := *errp

	d.logger.Debug("operation complete",
		slog.String("op", o.name),
		slog.Int("offset", o.offset),
		slog.Int("length", o.length),
		slog.Int("transactions", o.transactions),
		slog.Duration("elapsed", elapsed),
		slog.Bool("ok", err == nil),
	)

	if d.capture == nil {
		return
	}
	event := log.Event{
		Timestamp: time.Now(),
		SessionID: d.session,
		Direction: log.DirectionWrite,
		Layer:     log.LayerDevice,
		Category:  log.CategoryOperation,
		Device:    d.variant.Name,
		Operation: &log.OperationEvent{
			Op:           o.name,
			Offset:       uint32(o.offset),
			Length:       o.length,
			Transactions: o.transactions,
			Duration:     elapsed,
		},
	}
	if o.name == "read" {
		event.Direction = log.DirectionRead
	}
	if o.target != nil {
		t := uint32(*o.target)
		event.Operation.Target = &t
	}
	if err != nil {
		event.Operation.Err = err.Error()
	}
	d.capture.Log(event)
}
