package log

import (
	"context"
	"log/slog"
)

// SlogAdapter writes capture events to an slog.Logger at Debug level.
// Useful during development to watch transactions on the console.
type SlogAdapter struct {
	logger *slog.Logger
}

// NewSlogAdapter creates a new SlogAdapter that writes to the given slog.Logger.
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	return &SlogAdapter{logger: logger}
}

// Log writes the event to the slog logger.
func (a *SlogAdapter) Log(event Event) {
	attrs := []slog.Attr{
		slog.String("session", event.SessionID),
		slog.String("direction", event.Direction.String()),
		slog.String("layer", event.Layer.String()),
		slog.String("category", event.Category.String()),
	}
	if event.Device != "" {
		attrs = append(attrs, slog.String("device", event.Device))
	}

	switch {
	case event.Transaction != nil:
		tx := event.Transaction
		attrs = append(attrs,
			slog.Int("addr", int(tx.Addr)),
			slog.Int("size", tx.Size),
		)
		if tx.Requested > 0 {
			attrs = append(attrs, slog.Int("requested", tx.Requested))
		}
		if tx.Status != 0 {
			attrs = append(attrs, slog.Int("status", int(tx.Status)))
		}
	case event.Operation != nil:
		op := event.Operation
		attrs = append(attrs,
			slog.String("op", op.Op),
			slog.Uint64("offset", uint64(op.Offset)),
			slog.Int("length", op.Length),
			slog.Int("transactions", op.Transactions),
			slog.Duration("duration", op.Duration),
		)
		if op.Target != nil {
			attrs = append(attrs, slog.Uint64("target", uint64(*op.Target)))
		}
		if op.Err != "" {
			attrs = append(attrs, slog.String("error", op.Err))
		}
	case event.Error != nil:
		attrs = append(attrs,
			slog.String("error_layer", event.Error.Layer.String()),
			slog.String("error_msg", event.Error.Message),
			slog.String("error_context", event.Error.Context),
		)
		if event.Error.Code != nil {
			attrs = append(attrs, slog.Int("error_code", *event.Error.Code))
		}
	}

	a.logger.LogAttrs(context.Background(), slog.LevelDebug, "capture", attrs...)
}

// Compile-time interface satisfaction check.
var _ Logger = (*SlogAdapter)(nil)
