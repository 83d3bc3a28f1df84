package fram

import (
	"fmt"
	"log/slog"

	"github.com/fram-kit/fram-go/pkg/log"
)

// MaxSelector is the highest address selector the A0-A2 pins can strap.
const MaxSelector = 7

// Config configures a Device.
type Config struct {
	// Variant is the part on the bus.
	Variant Variant

	// Selector is the 0-7 value strapped on the address pins. MB85RC1M
	// only accepts even selectors.
	Selector uint8

	// Logger is the optional logger for operational output.
	// If nil, logging is disabled.
	Logger *slog.Logger

	// Capture optionally records every bus transaction and operation.
	Capture log.Logger

	// SessionID is stamped on captured events.
	SessionID string
}

// DefaultConfig returns a Config for an MB85RC256V on selector 0.
func DefaultConfig() Config {
	return Config{
		Variant: MB85RC256V,
	}
}

// Validate checks if the config is usable.
func (c *Config) Validate() error {
	v := c.Variant
	switch v.Boundary {
	case BoundaryNone:
		if v.Capacity <= 0 || v.Capacity > BankSize {
			return fmt.Errorf("%w: capacity %d needs a dual address space", ErrInvalidConfig, v.Capacity)
		}
	case BoundaryDualAddressSpace:
		if v.Capacity <= BankSize || v.Capacity > 2*BankSize {
			return fmt.Errorf("%w: capacity %d does not fit two banks", ErrInvalidConfig, v.Capacity)
		}
		if c.Selector&1 != 0 {
			return fmt.Errorf("%w: selector %d must be even for %s", ErrInvalidConfig, c.Selector, v.Name)
		}
	default:
		return fmt.Errorf("%w: boundary rule %d", ErrInvalidConfig, v.Boundary)
	}
	if c.Selector > MaxSelector {
		return fmt.Errorf("%w: selector %d out of range 0-%d", ErrInvalidConfig, c.Selector, MaxSelector)
	}
	return nil
}
