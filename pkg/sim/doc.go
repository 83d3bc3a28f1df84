// Package sim simulates MB85RC FRAM chips on a two-wire bus.
//
// Bus implements bus.Bus with the buffer limits of a microcontroller Wire
// library: a transaction carries at most 32 bytes, including the two
// register address bytes of a write. Chips behave like the parts: writing
// two address bytes sets an internal pointer that auto-increments on every
// data byte and wraps at the end of memory. A 128KiB chip answers on two
// bus addresses; the low address bit selects the upper 64KiB bank.
//
// The simulator records every transaction and can inject failures, which
// makes it the test double for the fram package and the backend of the
// fram-sim command. ImageStore persists chip contents between runs.
package sim
