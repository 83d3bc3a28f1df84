// Package interactive provides the interactive command-line interface
// for fram-sim.
package interactive

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"golang.org/x/crypto/blake2b"

	"github.com/fram-kit/fram-go/pkg/fram"
	"github.com/fram-kit/fram-go/pkg/sim"
)

// maxDump caps how many bytes read prints.
const maxDump = 4096

// Shell handles interactive mode for fram-sim.
type Shell struct {
	dev *fram.Device
	bus *sim.Bus
	rl  *readline.Instance
}

// New creates a shell for dev. b is the simulated bus dev talks to and is
// only used for transaction statistics.
func New(dev *fram.Device, b *sim.Bus) (*Shell, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "fram> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}
	return &Shell{dev: dev, bus: b, rl: rl}, nil
}

// Stdout returns a writer that coordinates with the readline input.
func (s *Shell) Stdout() io.Writer {
	return s.rl.Stdout()
}

// Run starts the interactive command loop.
func (s *Shell) Run(ctx context.Context, cancel context.CancelFunc) {
	defer s.rl.Close()

	out := s.rl.Stdout()
	printHelp(out)

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := s.rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			}
			fmt.Fprintln(out, "Exiting...")
			cancel()
			return
		}

		if !s.Exec(line, out) {
			fmt.Fprintln(out, "Exiting...")
			cancel()
			return
		}
	}
}

// Exec runs one command line, writing its output to w. It returns false
// when the command asks to quit.
func (s *Shell) Exec(line string, w io.Writer) bool {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return true
	}
	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	var err error
	switch cmd {
	case "help", "?":
		printHelp(w)
	case "info":
		s.cmdInfo(w)
	case "read", "r":
		err = s.cmdRead(w, args)
	case "write", "w":
		err = s.cmdWrite(w, args)
	case "fill":
		err = s.cmdFill(w, args)
	case "move", "mv":
		err = s.cmdMove(w, args)
	case "erase":
		err = s.cmdErase(w)
	case "get32":
		err = s.cmdGet32(w, args)
	case "put32":
		err = s.cmdPut32(w, args)
	case "digest":
		err = s.cmdDigest(w)
	case "stats":
		s.cmdStats(w)
	case "quit", "exit", "q":
		return false
	default:
		fmt.Fprintf(w, "Unknown command: %s (type 'help' for commands)\n", cmd)
	}

	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
	}
	return true
}

func printHelp(w io.Writer) {
	fmt.Fprintln(w, `
FRAM Commands:
  Data:
    read <off> <len>         - Hex dump a range
    write <off> <hex>        - Write hex bytes at offset
    fill <off> <len> <byte>  - Write len copies of byte
    move <from> <to> <len>   - Move a range (ranges may overlap)
    erase                    - Zero the whole device
    get32 <off>              - Read a little-endian uint32
    put32 <off> <val>        - Write a little-endian uint32

  Inspection:
    info                     - Show device parameters
    digest                   - BLAKE2b-256 of the device contents
    stats                    - Bus transaction counts

  General:
    help                     - Show this help
    quit                     - Exit

  Numbers accept decimal or 0x-prefixed hex.`)
}

func (s *Shell) cmdInfo(w io.Writer) {
	v := s.dev.Variant()
	fmt.Fprintf(w, "Device:   %s\n", v.Name)
	fmt.Fprintf(w, "Capacity: %d bytes\n", v.Capacity)
	fmt.Fprintf(w, "Boundary: %s\n", v.Boundary)
	fmt.Fprintf(w, "Address:  %s", s.dev.EffectiveAddr(0))
	if v.Boundary == fram.BoundaryDualAddressSpace {
		fmt.Fprintf(w, ", %s", s.dev.EffectiveAddr(fram.BankSize))
	}
	fmt.Fprintln(w)
}

func (s *Shell) cmdRead(w io.Writer, args []string) error {
	nums, err := parseArgs(args, "read <off> <len>")
	if err != nil {
		return err
	}
	off, n := nums[0], nums[1]
	if n > maxDump {
		return fmt.Errorf("length %d exceeds %d", n, maxDump)
	}

	data, err := s.dev.Read(off, n)
	if err != nil {
		return err
	}
	dumpAt(w, off, data)
	return nil
}

func (s *Shell) cmdWrite(w io.Writer, args []string) error {
	if len(args) != 2 {
		return errors.New("usage: write <off> <hex>")
	}
	off, err := parseNum(args[0])
	if err != nil {
		return err
	}
	data, err := hex.DecodeString(strings.TrimPrefix(args[1], "0x"))
	if err != nil {
		return fmt.Errorf("invalid hex: %w", err)
	}

	if err := s.dev.Write(off, data); err != nil {
		return err
	}
	fmt.Fprintf(w, "Wrote %d bytes at %d\n", len(data), off)
	return nil
}

func (s *Shell) cmdFill(w io.Writer, args []string) error {
	nums, err := parseArgs(args, "fill <off> <len> <byte>")
	if err != nil {
		return err
	}
	off, n, b := nums[0], nums[1], nums[2]
	if b < 0 || b > 0xff {
		return fmt.Errorf("byte value %d out of range", b)
	}
	if n < 0 || n > s.dev.Capacity() {
		return fmt.Errorf("length %d out of range", n)
	}

	data := make([]byte, n)
	for i := range data {
		data[i] = byte(b)
	}
	if err := s.dev.Write(off, data); err != nil {
		return err
	}
	fmt.Fprintf(w, "Filled %d bytes at %d with 0x%02x\n", n, off, b)
	return nil
}

func (s *Shell) cmdMove(w io.Writer, args []string) error {
	nums, err := parseArgs(args, "move <from> <to> <len>")
	if err != nil {
		return err
	}
	if err := s.dev.Move(nums[0], nums[1], nums[2]); err != nil {
		return err
	}
	fmt.Fprintf(w, "Moved %d bytes from %d to %d\n", nums[2], nums[0], nums[1])
	return nil
}

func (s *Shell) cmdErase(w io.Writer) error {
	if err := s.dev.Erase(); err != nil {
		return err
	}
	fmt.Fprintf(w, "Erased %d bytes\n", s.dev.Capacity())
	return nil
}

func (s *Shell) cmdGet32(w io.Writer, args []string) error {
	nums, err := parseArgs(args, "get32 <off>")
	if err != nil {
		return err
	}
	v, err := fram.Get[uint32](s.dev, nums[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "%d (0x%08x)\n", v, v)
	return nil
}

func (s *Shell) cmdPut32(w io.Writer, args []string) error {
	if len(args) != 2 {
		return errors.New("usage: put32 <off> <val>")
	}
	off, err := parseNum(args[0])
	if err != nil {
		return err
	}
	v, err := strconv.ParseUint(args[1], 0, 32)
	if err != nil {
		return fmt.Errorf("invalid value %q", args[1])
	}
	if err := fram.Put(s.dev, off, uint32(v)); err != nil {
		return err
	}
	fmt.Fprintf(w, "Stored %d at %d\n", v, off)
	return nil
}

func (s *Shell) cmdDigest(w io.Writer) error {
	h, err := blake2b.New256(nil)
	if err != nil {
		return err
	}
	r := io.NewSectionReader(s.dev, 0, int64(s.dev.Capacity()))
	if _, err := io.Copy(h, r); err != nil {
		return err
	}
	fmt.Fprintf(w, "%x\n", h.Sum(nil))
	return nil
}

func (s *Shell) cmdStats(w io.Writer) {
	if s.bus == nil {
		fmt.Fprintln(w, "No bus statistics available")
		return
	}

	var writes, reads, failed, payload int
	for _, tx := range s.bus.Transactions() {
		switch tx.Kind {
		case sim.KindWrite:
			writes++
		case sim.KindRead:
			reads++
		}
		if tx.Failed() {
			failed++
		}
		payload += tx.Payload
	}
	fmt.Fprintf(w, "Transactions: %d (write %d, read %d)\n", writes+reads, writes, reads)
	fmt.Fprintf(w, "Failed:       %d\n", failed)
	fmt.Fprintf(w, "Payload:      %d bytes\n", payload)
	fmt.Fprintf(w, "Lock holds:   %d\n", s.bus.Holds())
}

// dumpAt writes a hex dump of data labelled with device offsets.
func dumpAt(w io.Writer, off int, data []byte) {
	for i := 0; i < len(data); i += 16 {
		end := min(i+16, len(data))
		fmt.Fprintf(w, "%08x  % x\n", off+i, data[i:end])
	}
}

func parseArgs(args []string, usage string) ([]int, error) {
	want := len(strings.Fields(usage)) - 1
	if len(args) != want {
		return nil, errors.New("usage: " + usage)
	}
	nums := make([]int, len(args))
	for i, a := range args {
		n, err := parseNum(a)
		if err != nil {
			return nil, err
		}
		nums[i] = n
	}
	return nums, nil
}

func parseNum(s string) (int, error) {
	n, err := strconv.ParseInt(s, 0, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", s)
	}
	return int(n), nil
}
