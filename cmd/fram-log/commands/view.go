// Package commands implements the fram-log CLI commands.
package commands

import (
	"encoding/hex"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/fram-kit/fram-go/pkg/bus"
	"github.com/fram-kit/fram-go/pkg/log"
)

// ViewFilter specifies criteria for filtering events in the view command.
type ViewFilter struct {
	Layer      *log.Layer
	Direction  *log.Direction
	Category   *log.Category
	FailedOnly bool
}

func (f ViewFilter) toFilter() log.Filter {
	return log.Filter{
		Layer:      f.Layer,
		Direction:  f.Direction,
		Category:   f.Category,
		FailedOnly: f.FailedOnly,
	}
}

// formatEvent writes a human-readable representation of the event to w.
func formatEvent(w io.Writer, event log.Event) {
	// Header line: timestamp [sess:id] DIRECTION LAYER Type
	ts := event.Timestamp.UTC().Format("2006-01-02T15:04:05.000000Z")
	sess := shortenSessionID(event.SessionID)

	var typeLabel string
	switch {
	case event.Transaction != nil:
		typeLabel = "Transaction " + bus.Addr(event.Transaction.Addr).String()
	case event.Operation != nil:
		typeLabel = "Op " + event.Operation.Op
	case event.Error != nil:
		typeLabel = "Error"
	default:
		typeLabel = "Unknown"
	}

	fmt.Fprintf(w, "%s [sess:%s] %-5s %-6s %s", ts, sess, event.Direction, event.Layer, typeLabel)
	if event.Device != "" {
		fmt.Fprintf(w, " (%s)", event.Device)
	}
	fmt.Fprintln(w)

	switch {
	case event.Transaction != nil:
		formatTransactionDetails(w, event.Direction, event.Transaction)
	case event.Operation != nil:
		formatOperationDetails(w, event.Operation)
	case event.Error != nil:
		formatErrorDetails(w, event.Error)
	}

	fmt.Fprintln(w)
}

// shortenSessionID returns the first 8 characters of the session ID.
func shortenSessionID(id string) string {
	if len(id) >= 8 {
		return id[:8]
	}
	return id
}

func formatTransactionDetails(w io.Writer, dir log.Direction, tx *log.TransactionEvent) {
	if dir == log.DirectionRead {
		fmt.Fprintf(w, "  Size: %d of %d bytes\n", tx.Size, tx.Requested)
	} else {
		fmt.Fprintf(w, "  Size: %d bytes\n", tx.Size)
		if len(tx.Data) >= 2 {
			fmt.Fprintf(w, "  Register: 0x%02x%02x\n", tx.Data[0], tx.Data[1])
		}
	}
	if len(tx.Data) > 0 {
		fmt.Fprintf(w, "  Data: %s", hex.EncodeToString(tx.Data))
		if tx.Truncated {
			fmt.Fprintf(w, " (truncated)")
		}
		fmt.Fprintln(w)
	}
	if !tx.Stop {
		fmt.Fprintln(w, "  Repeated start")
	}
	if tx.Status != 0 {
		fmt.Fprintf(w, "  Status: %s\n", bus.Status(tx.Status))
	}
}

func formatOperationDetails(w io.Writer, op *log.OperationEvent) {
	if op.Target != nil {
		fmt.Fprintf(w, "  Range: %d -> %d, %d bytes\n", op.Offset, *op.Target, op.Length)
	} else {
		fmt.Fprintf(w, "  Range: %d, %d bytes\n", op.Offset, op.Length)
	}
	fmt.Fprintf(w, "  Transactions: %d\n", op.Transactions)
	fmt.Fprintf(w, "  Duration: %s\n", formatDuration(op.Duration))
	if op.Err != "" {
		fmt.Fprintf(w, "  Error: %s\n", op.Err)
	}
}

func formatErrorDetails(w io.Writer, err *log.ErrorEventData) {
	fmt.Fprintf(w, "  Layer: %s\n", err.Layer.String())
	fmt.Fprintf(w, "  Message: %s\n", err.Message)
	if err.Code != nil {
		fmt.Fprintf(w, "  Code: %d\n", *err.Code)
	}
	if err.Context != "" {
		fmt.Fprintf(w, "  Context: %s\n", err.Context)
	}
}

// formatDuration formats a duration for display.
func formatDuration(d time.Duration) string {
	if d < time.Millisecond {
		return fmt.Sprintf("%.3fus", float64(d.Nanoseconds())/1000)
	}
	if d < time.Second {
		return fmt.Sprintf("%.3fms", float64(d.Microseconds())/1000)
	}
	return fmt.Sprintf("%.3fs", d.Seconds())
}

// ParseLayerFlag parses a layer string (case-insensitive).
func ParseLayerFlag(s string) (log.Layer, error) {
	switch strings.ToLower(s) {
	case "bus":
		return log.LayerBus, nil
	case "device":
		return log.LayerDevice, nil
	default:
		return 0, fmt.Errorf("invalid layer: %s (must be bus or device)", s)
	}
}

// ParseDirectionFlag parses a direction string (case-insensitive).
func ParseDirectionFlag(s string) (log.Direction, error) {
	switch strings.ToLower(s) {
	case "write", "w":
		return log.DirectionWrite, nil
	case "read", "r":
		return log.DirectionRead, nil
	default:
		return 0, fmt.Errorf("invalid direction: %s (must be write or read)", s)
	}
}

// ParseCategoryFlag parses a category string (case-insensitive).
func ParseCategoryFlag(s string) (log.Category, error) {
	switch strings.ToLower(s) {
	case "transaction", "tx":
		return log.CategoryTransaction, nil
	case "operation", "op":
		return log.CategoryOperation, nil
	case "error":
		return log.CategoryError, nil
	default:
		return 0, fmt.Errorf("invalid category: %s (must be transaction, operation, or error)", s)
	}
}

// ParseAddrFlag parses a 7-bit bus address in decimal or 0x hex.
func ParseAddrFlag(s string) (uint8, error) {
	v, err := strconv.ParseUint(s, 0, 8)
	if err != nil || v > 0x7f {
		return 0, fmt.Errorf("invalid address: %s (must be 0-0x7f)", s)
	}
	return uint8(v), nil
}

// RunView executes the view command.
func RunView(path string, filter ViewFilter, output io.Writer) error {
	reader, err := log.NewFilteredReader(path, filter.toFilter())
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		formatEvent(output, event)
	}

	return nil
}
