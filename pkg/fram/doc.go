// Package fram drives Fujitsu MB85RC ferroelectric RAM over a two-wire bus.
//
// A Device exposes the chip as a linear, byte-addressable space of
// Capacity bytes. Reads and writes of any length are split into bus
// transactions of at most ReadChunkMax and WriteChunkMax payload bytes; the
// limits differ because a write transaction also carries the two register
// address bytes in the same 32 byte bus buffer.
//
// # Variants
//
// Capacity and addressing are described by a Variant value rather than a
// type per part:
//
//	MB85RC64    8 KiB
//	MB85RC256V  32 KiB
//	MB85RC512   64 KiB
//	MB85RC1M    128 KiB, dual address space
//
// The register address is 16 bits wide. MB85RC1M reaches its upper 64 KiB
// by answering on a second bus address (bit 0 set), so a transfer crossing
// offset 65536 is split at the boundary and each half is sent to the
// address for its bank. Because bit 0 is taken, the MB85RC1M selector must
// be even.
//
// # Operations
//
//	dev, err := fram.New(b, fram.Config{Variant: fram.MB85RC1M, Selector: 0})
//	err = dev.Write(65500, payload)       // crosses the bank boundary
//	data, err := dev.Read(65500, len(payload))
//	err = dev.Move(50, 75, 40)            // overlapping ranges are safe
//	err = dev.Erase()
//
//	n, err := fram.Get[uint32](dev, 0)
//	err = fram.Put(dev, 0, n+1)
//
// Every operation holds the bus lock from its first transaction to its
// last, so concurrent callers sharing one bus never interleave chunks.
//
// # Failures
//
// The first failing transaction aborts the operation; nothing is retried
// and bytes already transferred stay transferred. The returned *OpError
// names the offset of the failing chunk, so callers can tell how far a
// write, move or erase progressed. Ranges that do not fit inside the
// device fail with ErrOutOfRange before the bus is touched.
package fram
