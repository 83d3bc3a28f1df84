package fram

import (
	"fmt"
	"log/slog"

	"github.com/fram-kit/fram-go/pkg/bus"
)

// chunk returns how many of remaining bytes at offset fit in one
// transaction of at most limit bytes. On a dual address space device a
// chunk never crosses BankSize, since each bank has its own bus address.
func (d *Device) chunk(offset, remaining, limit int) int {
	count := min(remaining, limit)
	if d.variant.Boundary == BoundaryDualAddressSpace && offset < BankSize && offset+count >= BankSize {
		count = BankSize - offset
	}
	return count
}

// setRegister starts a transaction to addr and queues the big-endian
// register address of offset.
func (d *Device) setRegister(addr bus.Addr, offset int) error {
	d.bus.BeginTransmission(addr)
	if err := d.bus.WriteByte(byte(offset >> 8)); err != nil {
		return err
	}
	return d.bus.WriteByte(byte(offset))
}

// readChunks fills buf from offset. The bus must be held.
func (d *Device) readChunks(o *op, offset int, buf []byte) error {
	for len(buf) > 0 {
		count := d.chunk(offset, len(buf), ReadChunkMax)
		addr := d.EffectiveAddr(offset)

		o.transactions++
		if err := d.setRegister(addr, offset); err != nil {
			return d.fail(o, offset, addr, bus.StatusDataTooLong, err)
		}
		if status := d.bus.EndTransmission(false); status != bus.StatusOK {
			d.logger.Info("read set address failed",
				slog.Int("offset", offset), slog.String("addr", addr.String()), slog.String("status", status.String()))
			return d.fail(o, offset, addr, status, status.Err())
		}

		o.transactions++
		d.bus.RequestFrom(addr, count, true)
		if avail := d.bus.Available(); avail < count {
			d.logger.Info("didn't receive enough bytes",
				slog.Int("offset", offset), slog.Int("count", count), slog.Int("available", avail))
			return d.shortRead(o, offset, addr, avail, count)
		}
		for i := 0; i < count; i++ {
			b, err := d.bus.ReadByte()
			if err != nil {
				return d.shortRead(o, offset, addr, i, count)
			}
			buf[i] = b
		}

		offset += count
		buf = buf[count:]
	}
	return nil
}

// writeChunks stores data at offset. The bus must be held.
func (d *Device) writeChunks(o *op, offset int, data []byte) error {
	for len(data) > 0 {
		count := d.chunk(offset, len(data), WriteChunkMax)
		addr := d.EffectiveAddr(offset)

		o.transactions++
		if err := d.setRegister(addr, offset); err != nil {
			return d.fail(o, offset, addr, bus.StatusDataTooLong, err)
		}
		for _, b := range data[:count] {
			if err := d.bus.WriteByte(b); err != nil {
				return d.fail(o, offset, addr, bus.StatusDataTooLong, err)
			}
		}
		if status := d.bus.EndTransmission(true); status != bus.StatusOK {
			d.logger.Info("write failed",
				slog.Int("offset", offset), slog.String("addr", addr.String()), slog.String("status", status.String()))
			return d.fail(o, offset, addr, status, status.Err())
		}

		offset += count
		data = data[count:]
	}
	return nil
}

func (d *Device) fail(o *op, offset int, addr bus.Addr, status bus.Status, cause error) error {
	return &OpError{
		Op:     o.name,
		Offset: offset,
		Addr:   addr,
		Status: status,
		Err:    fmt.Errorf("%w: %w", ErrTransport, cause),
	}
}

func (d *Device) shortRead(o *op, offset int, addr bus.Addr, got, want int) error {
	return &OpError{
		Op:     o.name,
		Offset: offset,
		Addr:   addr,
		Err:    fmt.Errorf("%w: got %d of %d bytes", ErrShortRead, got, want),
	}
}
