// Package bus defines the two-wire (I2C) bus contract consumed by the FRAM
// driver.
//
// The contract follows the transaction model of microcontroller Wire
// libraries rather than a read/write-buffer model:
//
//	bus.BeginTransmission(addr)
//	bus.WriteByte(hi)
//	bus.WriteByte(lo)
//	status := bus.EndTransmission(false)    // repeated start
//	n := bus.RequestFrom(addr, count, true) // stop after the read
//	for bus.Available() > 0 { b, _ := bus.ReadByte() }
//
// A Bus is shared between all devices attached to it. Callers acquire it
// with Lock for the duration of one logical operation, so the register
// address written by one transaction cannot be disturbed by another
// goroutine before the payload that depends on it has been transferred.
//
// # Capture
//
// Capture wraps any Bus and records each completed transaction as a
// log.Event. Combined with log.FileLogger this produces capture files that
// the fram-log tool can view, filter and export.
package bus
