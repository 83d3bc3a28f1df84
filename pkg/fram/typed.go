package fram

import (
	"encoding/binary"
	"fmt"
)

// Get loads a fixed-size value stored at offset.
//
// Values use the little-endian layout of encoding/binary. T must have a
// fixed binary size: numbers, booleans, arrays and structs of those. The
// caller owns the layout; nothing records which type was stored where.
func Get[T any](d *Device, offset int) (T, error) {
	var v T
	size := binary.Size(&v)
	if size < 0 {
		return v, fmt.Errorf("%w: %T", ErrNotFixedSize, v)
	}

	buf, err := d.Read(offset, size)
	if err != nil {
		return v, err
	}
	if _, err := binary.Decode(buf, binary.LittleEndian, &v); err != nil {
		return v, err
	}
	return v, nil
}

// Put stores a fixed-size value at offset. See Get for the layout.
func Put[T any](d *Device, offset int, v T) error {
	if binary.Size(&v) < 0 {
		return fmt.Errorf("%w: %T", ErrNotFixedSize, v)
	}

	buf, err := binary.Append(nil, binary.LittleEndian, &v)
	if err != nil {
		return err
	}
	return d.Write(offset, buf)
}
