package sim

import (
	"fmt"
	"sync"

	"github.com/fram-kit/fram-go/pkg/bus"
)

// DeviceAddr is the MB85RC device type code in the upper address bits.
const DeviceAddr = 0b1010000

// BankSize is the span addressed by the two register address bytes.
const BankSize = 65536

// Chip is one simulated FRAM device.
type Chip struct {
	mu   sync.Mutex
	mem  []byte
	base bus.Addr
	dual bool
	ptr  int
}

// NewChip creates a zero-filled chip of size bytes strapped to selector
// (0-7). Chips larger than BankSize use address bit 0 as the bank select,
// so their selector must be even.
func NewChip(size int, selector uint8) (*Chip, error) {
	if size <= 0 || size > 2*BankSize {
		return nil, fmt.Errorf("sim: unsupported chip size %d", size)
	}
	if selector > 7 {
		return nil, fmt.Errorf("sim: selector %d out of range", selector)
	}
	dual := size > BankSize
	if dual && selector&1 != 0 {
		return nil, fmt.Errorf("sim: selector %d must be even for a %d byte chip", selector, size)
	}
	return &Chip{
		mem:  make([]byte, size),
		base: bus.Addr7(DeviceAddr | selector),
		dual: dual,
	}, nil
}

// Size returns the memory size in bytes.
func (c *Chip) Size() int {
	return len(c.mem)
}

// Addrs returns the bus addresses the chip answers on.
func (c *Chip) Addrs() []bus.Addr {
	if c.dual {
		return []bus.Addr{c.base, c.base | 1}
	}
	return []bus.Addr{c.base}
}

// Bytes returns a copy of the chip memory.
func (c *Chip) Bytes() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]byte(nil), c.mem...)
}

// Load replaces the chip memory. data must match the chip size.
func (c *Chip) Load(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(data) != len(c.mem) {
		return fmt.Errorf("sim: image is %d bytes, chip is %d", len(data), len(c.mem))
	}
	copy(c.mem, data)
	return nil
}

// Fill sets every byte of memory to b.
func (c *Chip) Fill(b byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.mem {
		c.mem[i] = b
	}
}

// write applies a write transaction received on addr.
func (c *Chip) write(addr bus.Addr, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(data) < 2 {
		return
	}
	ptr := int(data[0])<<8 | int(data[1])
	if c.dual && addr&1 != 0 {
		ptr |= BankSize
	}
	c.ptr = ptr % len(c.mem)

	for _, b := range data[2:] {
		c.mem[c.ptr] = b
		c.advance()
	}
}

// read returns count bytes from the current address pointer.
func (c *Chip) read(count int) []byte {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]byte, count)
	for i := range out {
		out[i] = c.mem[c.ptr]
		c.advance()
	}
	return out
}

func (c *Chip) advance() {
	c.ptr++
	if c.ptr == len(c.mem) {
		c.ptr = 0
	}
}
