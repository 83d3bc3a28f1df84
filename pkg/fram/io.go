package fram

import (
	"errors"
	"io"
)

// ReadAt implements io.ReaderAt. Reads that extend past the end of the
// device return the bytes up to the end and io.EOF.
func (d *Device) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, d.checkRange(-1, 0)
	}
	size := int64(d.Capacity())
	if off >= size {
		return 0, io.EOF
	}

	n := len(p)
	atEnd := false
	if rem := size - off; int64(n) > rem {
		n = int(rem)
		atEnd = true
	}
	if err := d.ReadInto(int(off), p[:n]); err != nil {
		return transferred(err, int(off)), err
	}
	if atEnd {
		return n, io.EOF
	}
	return n, nil
}

// WriteAt implements io.WriterAt. Writes must fit inside the device.
// On failure n counts the bytes written before the failing chunk.
func (d *Device) WriteAt(p []byte, off int64) (int, error) {
	if off < 0 || off > int64(d.Capacity()) {
		return 0, d.checkRange(-1, 0)
	}
	if err := d.Write(int(off), p); err != nil {
		return transferred(err, int(off)), err
	}
	return len(p), nil
}

// transferred returns how many bytes from start completed before err.
func transferred(err error, start int) int {
	var opErr *OpError
	if errors.As(err, &opErr) && opErr.Offset > start {
		return opErr.Offset - start
	}
	return 0
}

// Compile-time interface satisfaction checks.
var (
	_ io.ReaderAt = (*Device)(nil)
	_ io.WriterAt = (*Device)(nil)
)
