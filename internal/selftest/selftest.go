// Package selftest exercises a device end to end: typed access, chunked
// transfers across the bank boundary, overlapping moves and erase.
//
// Every step overwrites device memory.
package selftest

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/fram-kit/fram-go/pkg/fram"
)

// Step names in the order Run executes them.
const (
	StepSimple      = "simple read/write"
	StepBoundary    = "boundary cross"
	StepMove        = "move"
	StepErase       = "erase"
	StepVerifyErase = "verify erase"
)

const (
	stepCount      = 5
	blockSize      = 128
	boundarySpread = 120
	verifyChunk    = 32
)

// Options configures Run.
type Options struct {
	// Iterations is the number of boundary cross rounds. Zero means 100.
	Iterations int

	// Seed seeds the random test data.
	Seed uint64

	// Logger receives step progress. If nil, logging is disabled.
	Logger *slog.Logger
}

// Step is the outcome of one step.
type Step struct {
	Name     string
	Duration time.Duration
	Err      error
}

// Report collects the step outcomes of one run.
type Report struct {
	Device   string
	Counter  uint32
	Steps    []Step
	Duration time.Duration
}

// Passed reports whether every step ran and succeeded.
func (r *Report) Passed() bool {
	return r.Failed() == nil && len(r.Steps) == stepCount
}

// Failed returns the failing step, or nil.
func (r *Report) Failed() *Step {
	for i := range r.Steps {
		if r.Steps[i].Err != nil {
			return &r.Steps[i]
		}
	}
	return nil
}

// WriteText writes a human readable summary of the report.
func (r *Report) WriteText(w io.Writer) {
	fmt.Fprintf(w, "Self test: %s\n", r.Device)
	for _, s := range r.Steps {
		status := "PASS"
		if s.Err != nil {
			status = "FAIL"
		}
		fmt.Fprintf(w, "  [%s] %-20s %s\n", status, s.Name, formatElapsed(s.Duration))
		if s.Err != nil {
			fmt.Fprintf(w, "         %v\n", s.Err)
		}
	}
	fmt.Fprintf(w, "Boot counter: %d\n", r.Counter)
	fmt.Fprintf(w, "Total: %s\n", formatElapsed(r.Duration))
}

// MismatchError reports data that did not read back as expected.
type MismatchError struct {
	Offset int
	Got    byte
	Want   byte
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("data at offset %d was %02x expected %02x", e.Offset, e.Got, e.Want)
}

// Run executes all steps against d and stops at the first failure or when
// ctx is cancelled.
func Run(ctx context.Context, d *fram.Device, opts Options) *Report {
	if opts.Iterations <= 0 {
		opts.Iterations = 100
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	t := &tester{
		dev:    d,
		opts:   opts,
		rng:    rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15)),
		logger: logger,
		report: &Report{Device: d.Variant().Name},
	}

	start := time.Now()
	steps := []struct {
		name string
		fn   func(context.Context) error
	}{
		{StepSimple, t.simple},
		{fmt.Sprintf("%s x%d", StepBoundary, opts.Iterations), t.boundary},
		{StepMove, t.move},
		{StepErase, t.erase},
		{StepVerifyErase, t.verifyErase},
	}
	for _, s := range steps {
		if !t.run(ctx, s.name, s.fn) {
			break
		}
	}
	t.report.Duration = time.Since(start)
	return t.report
}

type tester struct {
	dev    *fram.Device
	opts   Options
	rng    *rand.Rand
	logger *slog.Logger
	report *Report
}

func (t *tester) run(ctx context.Context, name string, fn func(context.Context) error) bool {
	t.logger.Info(name + ": starting")
	start := time.Now()

	err := ctx.Err()
	if err == nil {
		err = fn(ctx)
	}

	elapsed := time.Since(start)
	t.report.Steps = append(t.report.Steps, Step{Name: name, Duration: elapsed, Err: err})
	if err != nil {
		t.logger.Error(name+": failed", slog.Any("error", err))
		return false
	}
	t.logger.Info(name+": completed in "+formatElapsed(elapsed), slog.Duration("elapsed", elapsed))
	return true
}

func (t *tester) simple(context.Context) error {
	v, err := fram.Get[uint32](t.dev, 0)
	if err != nil {
		return err
	}
	t.logger.Debug("counter", slog.Uint64("value", uint64(v)))

	v++
	if err := fram.Put(t.dev, 0, v); err != nil {
		return err
	}
	t.report.Counter = v
	return nil
}

// boundaryBase is the highest start offset of the boundary rounds: just
// below the bank boundary on dual address space parts, otherwise as close
// to the end of memory as a block fits.
func (t *tester) boundaryBase() int {
	if t.dev.Variant().Boundary == fram.BoundaryDualAddressSpace {
		return fram.BankSize - 1
	}
	return t.dev.Capacity() - blockSize
}

func (t *tester) boundary(ctx context.Context) error {
	want := make([]byte, blockSize)
	got := make([]byte, blockSize)
	base := t.boundaryBase()

	for i := 0; i < t.opts.Iterations; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		t.fill(want)
		clear(got)

		off := base - t.rng.IntN(boundarySpread)
		if err := t.dev.Write(off, want); err != nil {
			return err
		}
		if err := t.dev.ReadInto(off, got); err != nil {
			return err
		}
		if err := compare(off, got, want); err != nil {
			return err
		}
	}
	return nil
}

func (t *tester) move(context.Context) error {
	orig := make([]byte, blockSize)
	t.fill(orig)

	cases := []struct{ from, to, length int }{
		{50, 75, 40},
		{50, 25, 40},
	}
	for _, c := range cases {
		if err := t.dev.Write(0, orig); err != nil {
			return err
		}
		got, err := t.dev.Read(0, blockSize)
		if err != nil {
			return err
		}
		if err := compare(0, got, orig); err != nil {
			return err
		}

		if err := t.dev.Move(c.from, c.to, c.length); err != nil {
			return err
		}
		if got, err = t.dev.Read(0, blockSize); err != nil {
			return err
		}

		want := bytes.Clone(orig)
		copy(want[c.to:c.to+c.length], orig[c.from:c.from+c.length])
		if err := compare(0, got, want); err != nil {
			return fmt.Errorf("move(%d, %d, %d): %w", c.from, c.to, c.length, err)
		}
	}
	return nil
}

func (t *tester) erase(context.Context) error {
	return t.dev.Erase()
}

func (t *tester) verifyErase(ctx context.Context) error {
	buf := make([]byte, verifyChunk)
	zero := make([]byte, verifyChunk)

	for off := 0; off < t.dev.Capacity(); off += verifyChunk {
		if err := ctx.Err(); err != nil {
			return err
		}
		n := min(verifyChunk, t.dev.Capacity()-off)
		if err := t.dev.ReadInto(off, buf[:n]); err != nil {
			return err
		}
		if err := compare(off, buf[:n], zero[:n]); err != nil {
			return err
		}
	}
	return nil
}

func (t *tester) fill(buf []byte) {
	for i := range buf {
		buf[i] = byte(t.rng.Uint32())
	}
}

func compare(base int, got, want []byte) error {
	for i := range want {
		if got[i] != want[i] {
			return &MismatchError{Offset: base + i, Got: got[i], Want: want[i]}
		}
	}
	return nil
}

// formatElapsed renders d as m:ss.mmm.
func formatElapsed(d time.Duration) string {
	ms := d.Milliseconds()
	return fmt.Sprintf("%d:%02d.%03d", ms/60000, ms/1000%60, ms%1000)
}
