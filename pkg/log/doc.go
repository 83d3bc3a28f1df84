// Package log provides bus-transaction capture for the FRAM driver.
//
// This package defines the Logger interface and Event types recording what
// happened on the two-wire bus and at the device API. It is separate from
// operational logging (slog): a capture is a complete machine-readable
// trace of every transaction, suitable for post-mortem analysis of partial
// writes, failed moves and address selection.
//
// # Basic Usage
//
//	// For development: log to console via slog
//	cfg.Capture = log.NewSlogAdapter(slog.Default())
//
//	// For analysis: write to a capture file
//	cfg.Capture, _ = log.NewFileLogger("/var/log/fram/session.flog")
//
//	// Both
//	cfg.Capture = log.NewMultiLogger(
//	    log.NewSlogAdapter(slog.Default()),
//	    fileLogger,
//	)
//
// # Event Types
//
//   - Bus: one event per completed transaction (TransactionEvent)
//   - Device: one event per logical operation (OperationEvent)
//   - Errors at either layer (ErrorEventData)
//
// # File Format
//
// Capture files are a stream of CBOR-encoded events with the .flog
// extension. The fram-log CLI tool views, filters and exports them.
package log
