package fram

// moveChunks relocates length bytes from from to to through a staging
// buffer. The bus must be held.
//
// When the destination is above the source, chunks are taken from the
// high end downward; below the source, from the low end upward. Either
// way a chunk of source is always read before the write that could
// overlap it.
func (d *Device) moveChunks(o *op, from, to, length int) error {
	var stage [StagingSize]byte

	if to > from {
		from += length
		to += length
		for length > 0 {
			count := min(length, len(stage))
			from -= count
			to -= count

			if err := d.readChunks(o, from, stage[:count]); err != nil {
				return err
			}
			if err := d.writeChunks(o, to, stage[:count]); err != nil {
				return err
			}
			length -= count
		}
		return nil
	}

	for length > 0 {
		count := min(length, len(stage))

		if err := d.readChunks(o, from, stage[:count]); err != nil {
			return err
		}
		if err := d.writeChunks(o, to, stage[:count]); err != nil {
			return err
		}
		from += count
		to += count
		length -= count
	}
	return nil
}
