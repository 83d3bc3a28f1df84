package commands

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/fram-kit/fram-go/pkg/log"
)

func TestStatsOutput(t *testing.T) {
	path := createTestLogFile(t, sampleEvents())

	var buf bytes.Buffer
	if err := RunStats(path, &buf); err != nil {
		t.Fatalf("RunStats failed: %v", err)
	}
	output := buf.String()

	for _, want := range []string{
		"Total Events: 3",
		"Sessions:     1",
		"BUS:",
		"DEVICE:",
		"TRANSACTION:",
		"OPERATION:",
		"0x50  writes 1 (4 bytes), reads 0 (0 bytes), failed 0",
		"0x51  writes 0 (0 bytes), reads 1 (20 bytes), failed 1",
		"move   1 (40 bytes, 6 transactions, 1.500ms), failed 0",
		"Failed Transactions: 1",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output:\n%s", want, output)
		}
	}
}

func TestStatsAggregation(t *testing.T) {
	ts := time.Date(2026, 1, 28, 10, 0, 0, 0, time.UTC)
	stats := newStats()
	for i, e := range []log.Event{
		{Timestamp: ts, SessionID: "a", Operation: &log.OperationEvent{Op: "write", Length: 30, Transactions: 1}},
		{Timestamp: ts.Add(time.Second), SessionID: "b", Operation: &log.OperationEvent{Op: "write", Length: 10, Transactions: 1, Err: "boom"}},
		{Timestamp: ts.Add(-time.Second), SessionID: "a", Category: log.CategoryError, Error: &log.ErrorEventData{Message: "x"}},
	} {
		stats.add(e)
		if stats.TotalEvents != i+1 {
			t.Fatalf("expected %d events, got %d", i+1, stats.TotalEvents)
		}
	}

	w := stats.Ops["write"]
	if w == nil || w.Count != 2 || w.Bytes != 40 || w.Failed != 1 {
		t.Errorf("unexpected write stats: %+v", w)
	}
	if len(stats.Sessions) != 2 {
		t.Errorf("expected 2 sessions, got %d", len(stats.Sessions))
	}
	if stats.Errors != 1 {
		t.Errorf("expected 1 error, got %d", stats.Errors)
	}
	if !stats.TimeRange.Start.Equal(ts.Add(-time.Second)) || !stats.TimeRange.End.Equal(ts.Add(time.Second)) {
		t.Errorf("unexpected time range: %v", stats.TimeRange)
	}
}

func TestStatsEmptyFile(t *testing.T) {
	path := createTestLogFile(t, nil)

	var buf bytes.Buffer
	if err := RunStats(path, &buf); err != nil {
		t.Fatalf("RunStats failed: %v", err)
	}
	if !strings.Contains(buf.String(), "Total Events: 0") {
		t.Errorf("expected zero events, got:\n%s", buf.String())
	}
}
