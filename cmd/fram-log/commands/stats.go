package commands

import (
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/fram-kit/fram-go/pkg/bus"
	"github.com/fram-kit/fram-go/pkg/log"
)

// Stats holds aggregate statistics about a log file.
type Stats struct {
	TotalEvents       int
	EventsByLayer     map[log.Layer]int
	EventsByCategory  map[log.Category]int
	EventsByDirection map[log.Direction]int
	Addrs             map[uint8]*AddrStats
	Ops               map[string]*OpStats
	Sessions          map[string]int
	FailedTx          int
	Errors            int
	TimeRange         struct {
		Start time.Time
		End   time.Time
	}
}

// AddrStats holds transaction statistics for one bus address.
type AddrStats struct {
	Writes       int
	Reads        int
	BytesWritten int
	BytesRead    int
	Failed       int
}

// OpStats holds statistics for one kind of device operation.
type OpStats struct {
	Count        int
	Failed       int
	Bytes        int
	Transactions int
	Duration     time.Duration
}

func newStats() *Stats {
	return &Stats{
		EventsByLayer:     make(map[log.Layer]int),
		EventsByCategory:  make(map[log.Category]int),
		EventsByDirection: make(map[log.Direction]int),
		Addrs:             make(map[uint8]*AddrStats),
		Ops:               make(map[string]*OpStats),
		Sessions:          make(map[string]int),
	}
}

func (s *Stats) add(event log.Event) {
	s.TotalEvents++
	s.EventsByLayer[event.Layer]++
	s.EventsByCategory[event.Category]++
	s.EventsByDirection[event.Direction]++
	s.Sessions[event.SessionID]++

	if s.TimeRange.Start.IsZero() || event.Timestamp.Before(s.TimeRange.Start) {
		s.TimeRange.Start = event.Timestamp
	}
	if event.Timestamp.After(s.TimeRange.End) {
		s.TimeRange.End = event.Timestamp
	}

	switch {
	case event.Transaction != nil:
		tx := event.Transaction
		a, ok := s.Addrs[tx.Addr]
		if !ok {
			a = &AddrStats{}
			s.Addrs[tx.Addr] = a
		}
		if event.Direction == log.DirectionRead {
			a.Reads++
			a.BytesRead += tx.Size
		} else {
			a.Writes++
			a.BytesWritten += tx.Size
		}
		if tx.Failed() {
			a.Failed++
			s.FailedTx++
		}

	case event.Operation != nil:
		op := event.Operation
		o, ok := s.Ops[op.Op]
		if !ok {
			o = &OpStats{}
			s.Ops[op.Op] = o
		}
		o.Count++
		o.Bytes += op.Length
		o.Transactions += op.Transactions
		o.Duration += op.Duration
		if op.Err != "" {
			o.Failed++
		}

	case event.Error != nil:
		s.Errors++
	}
}

// RunStats analyzes the log file and prints statistics.
func RunStats(path string, w io.Writer) error {
	reader, err := log.NewReader(path)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	stats := newStats()
	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		stats.add(event)
	}

	printStats(w, stats)
	return nil
}

func printStats(w io.Writer, stats *Stats) {
	fmt.Fprintln(w, "=== FRAM Capture Statistics ===")
	fmt.Fprintln(w)

	if stats.TotalEvents > 0 {
		fmt.Fprintf(w, "Time Range: %s to %s\n",
			stats.TimeRange.Start.Format(time.RFC3339),
			stats.TimeRange.End.Format(time.RFC3339))
		fmt.Fprintf(w, "Duration:   %s\n", stats.TimeRange.End.Sub(stats.TimeRange.Start).Round(time.Millisecond))
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Total Events: %d\n", stats.TotalEvents)
	fmt.Fprintf(w, "Sessions:     %d\n", len(stats.Sessions))
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Events by Layer:")
	for _, layer := range []log.Layer{log.LayerBus, log.LayerDevice} {
		if count := stats.EventsByLayer[layer]; count > 0 {
			fmt.Fprintf(w, "  %-12s %d\n", layer.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Events by Category:")
	for _, cat := range []log.Category{log.CategoryTransaction, log.CategoryOperation, log.CategoryError} {
		if count := stats.EventsByCategory[cat]; count > 0 {
			fmt.Fprintf(w, "  %-12s %d\n", cat.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Events by Direction:")
	for _, dir := range []log.Direction{log.DirectionWrite, log.DirectionRead} {
		if count := stats.EventsByDirection[dir]; count > 0 {
			fmt.Fprintf(w, "  %-12s %d\n", dir.String()+":", count)
		}
	}

	if len(stats.Addrs) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Transactions by Address:")
		addrs := make([]uint8, 0, len(stats.Addrs))
		for a := range stats.Addrs {
			addrs = append(addrs, a)
		}
		slices.Sort(addrs)
		for _, a := range addrs {
			s := stats.Addrs[a]
			fmt.Fprintf(w, "  %s  writes %d (%d bytes), reads %d (%d bytes), failed %d\n",
				bus.Addr(a), s.Writes, s.BytesWritten, s.Reads, s.BytesRead, s.Failed)
		}
	}

	if len(stats.Ops) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Operations:")
		names := make([]string, 0, len(stats.Ops))
		for name := range stats.Ops {
			names = append(names, name)
		}
		slices.Sort(names)
		for _, name := range names {
			o := stats.Ops[name]
			fmt.Fprintf(w, "  %-6s %d (%d bytes, %d transactions, %s), failed %d\n",
				name, o.Count, o.Bytes, o.Transactions, formatDuration(o.Duration), o.Failed)
		}
	}

	if stats.FailedTx > 0 || stats.Errors > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Failed Transactions: %d\n", stats.FailedTx)
		fmt.Fprintf(w, "Errors: %d\n", stats.Errors)
	}
}
