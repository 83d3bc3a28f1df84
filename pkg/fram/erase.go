package fram

import "log/slog"

// eraseChunks zero-fills the device. The bus must be held.
func (d *Device) eraseChunks(o *op) error {
	var zero [WriteChunkMax]byte

	for offset := 0; offset < d.Capacity(); {
		count := min(d.Capacity()-offset, len(zero))
		if err := d.writeChunks(o, offset, zero[:count]); err != nil {
			d.logger.Info("write failed during erase", slog.Int("offset", offset))
			return err
		}
		offset += count
	}
	return nil
}
