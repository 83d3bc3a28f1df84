package sim

import (
	"errors"
	"fmt"
	"sync"

	"github.com/fram-kit/fram-go/pkg/bus"
)

// Kind distinguishes write and read transactions.
type Kind uint8

const (
	// KindWrite is a BeginTransmission/EndTransmission transaction.
	KindWrite Kind = iota
	// KindRead is a RequestFrom transaction.
	KindRead
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindWrite:
		return "WRITE"
	case KindRead:
		return "READ"
	default:
		return "UNKNOWN"
	}
}

// Transaction is the record of one simulated bus transaction.
type Transaction struct {
	// Seq numbers transactions from 1 since the last Reset.
	Seq int

	// Kind is write or read.
	Kind Kind

	// Addr is the bus address the transaction was sent to.
	Addr bus.Addr

	// Register is the 16-bit register address of a write carrying at
	// least two bytes.
	Register uint16

	// Payload is the data byte count: bytes after the register address for
	// writes, bytes delivered for reads.
	Payload int

	// Requested is the byte count asked for by a read.
	Requested int

	// Stop is false when the transaction ended with a repeated start.
	Stop bool

	// Status is the result reported for writes.
	Status bus.Status
}

// Failed reports whether the transaction failed or delivered short.
func (t Transaction) Failed() bool {
	return t.Status != bus.StatusOK || t.Payload < t.Requested
}

// ErrAddrInUse is returned by Attach when a chip already answers on an
// address.
var ErrAddrInUse = errors.New("sim: bus address already in use")

// Bus is a simulated two-wire bus hosting any number of chips.
type Bus struct {
	// lock is the exclusive-use lock exposed through Lock/Unlock.
	lock sync.Mutex

	// mu guards the fields below.
	mu    sync.Mutex
	chips map[bus.Addr]*Chip

	txAddr   bus.Addr
	txBuf    []byte
	overflow bool

	rx []byte

	seq          int
	transactions []Transaction

	failAt     int
	failStatus bus.Status
	shortBy    int
	holds      int
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{
		chips: make(map[bus.Addr]*Chip),
		txBuf: make([]byte, 0, bus.BufferSize),
	}
}

// Attach connects a chip to the bus.
func (b *Bus) Attach(c *Chip) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, addr := range c.Addrs() {
		if _, ok := b.chips[addr]; ok {
			return fmt.Errorf("%w: %s", ErrAddrInUse, addr)
		}
	}
	for _, addr := range c.Addrs() {
		b.chips[addr] = c
	}
	return nil
}

// Lock acquires exclusive use of the bus.
func (b *Bus) Lock() {
	b.lock.Lock()
	b.mu.Lock()
	b.holds++
	b.mu.Unlock()
}

// Unlock releases the bus.
func (b *Bus) Unlock() {
	b.lock.Unlock()
}

// Holds returns how many times the bus lock has been acquired.
func (b *Bus) Holds() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.holds
}

// BeginTransmission starts queueing a write transaction.
func (b *Bus) BeginTransmission(addr bus.Addr) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.txAddr = addr
	b.txBuf = b.txBuf[:0]
	b.overflow = false
}

// WriteByte queues one byte. The transmit buffer holds bus.BufferSize
// bytes; overflow is reported here and again by EndTransmission.
func (b *Bus) WriteByte(c byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.txBuf) >= bus.BufferSize {
		b.overflow = true
		return bus.ErrBufferFull
	}
	b.txBuf = append(b.txBuf, c)
	return nil
}

// EndTransmission delivers the queued bytes to the addressed chip.
func (b *Bus) EndTransmission(stop bool) bus.Status {
	b.mu.Lock()
	defer b.mu.Unlock()

	tx := b.next(KindWrite, b.txAddr)
	tx.Stop = stop
	if len(b.txBuf) >= 2 {
		tx.Register = uint16(b.txBuf[0])<<8 | uint16(b.txBuf[1])
		tx.Payload = len(b.txBuf) - 2
	}

	chip, ok := b.chips[b.txAddr]
	switch {
	case b.injectFailure(tx.Seq):
		tx.Status = b.failStatus
	case b.overflow:
		tx.Status = bus.StatusDataTooLong
	case !ok:
		tx.Status = bus.StatusAddrNACK
	default:
		chip.write(b.txAddr, b.txBuf)
	}

	b.txBuf = b.txBuf[:0]
	b.transactions = append(b.transactions, tx)
	return tx.Status
}

// RequestFrom reads up to count bytes (at most bus.BufferSize) from the
// addressed chip into the receive buffer.
func (b *Bus) RequestFrom(addr bus.Addr, count int, stop bool) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	tx := b.next(KindRead, addr)
	tx.Stop = stop
	tx.Requested = count
	b.rx = b.rx[:0]

	n := count
	if n > bus.BufferSize {
		n = bus.BufferSize
	}
	if b.shortBy > 0 {
		n -= b.shortBy
	}
	if n < 0 {
		n = 0
	}

	chip, ok := b.chips[addr]
	switch {
	case b.injectFailure(tx.Seq):
		n = 0
	case !ok:
		n = 0
	case n > 0:
		b.rx = append(b.rx, chip.read(n)...)
	}

	tx.Payload = n
	b.transactions = append(b.transactions, tx)
	return n
}

// Available returns the number of unread received bytes.
func (b *Bus) Available() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.rx)
}

// ReadByte returns the next received byte.
func (b *Bus) ReadByte() (byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.rx) == 0 {
		return 0, bus.ErrNoData
	}
	c := b.rx[0]
	b.rx = b.rx[1:]
	return c, nil
}

// FailAfter makes the n-th transaction from now (1-based) fail. Writes
// report status; reads deliver no data. n <= 0 disarms the fault.
func (b *Bus) FailAfter(n int, status bus.Status) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if n <= 0 {
		b.failAt = 0
		return
	}
	if status == bus.StatusOK {
		status = bus.StatusOther
	}
	b.failAt = b.seq + n
	b.failStatus = status
}

// ShortReads makes every read deliver n bytes fewer than requested.
func (b *Bus) ShortReads(n int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.shortBy = n
}

// Transactions returns a copy of the transaction log.
func (b *Bus) Transactions() []Transaction {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Transaction(nil), b.transactions...)
}

// Count returns the number of transactions since the last Reset.
func (b *Bus) Count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.transactions)
}

// Reset clears the transaction log, faults and sequence numbering.
func (b *Bus) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.seq = 0
	b.transactions = nil
	b.failAt = 0
	b.shortBy = 0
}

func (b *Bus) next(kind Kind, addr bus.Addr) Transaction {
	b.seq++
	return Transaction{Seq: b.seq, Kind: kind, Addr: addr}
}

func (b *Bus) injectFailure(seq int) bool {
	if b.failAt == 0 || seq != b.failAt {
		return false
	}
	b.failAt = 0
	return true
}

// Compile-time interface satisfaction check.
var _ bus.Bus = (*Bus)(nil)
