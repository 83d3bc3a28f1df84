package fram

import (
	"fmt"
	"strings"
)

// BoundaryRule selects how offsets map onto bus addresses.
type BoundaryRule uint8

const (
	// BoundaryNone addresses the whole device through the 16-bit register.
	BoundaryNone BoundaryRule = iota

	// BoundaryDualAddressSpace splits the device at BankSize; the upper bank
	// is reached through the device address with bit 0 set.
	BoundaryDualAddressSpace
)

// String returns the rule name.
func (r BoundaryRule) String() string {
	switch r {
	case BoundaryNone:
		return "none"
	case BoundaryDualAddressSpace:
		return "dual-address-space"
	default:
		return "unknown"
	}
}

// Variant describes one part of the MB85RC family.
type Variant struct {
	Name     string
	Capacity int
	Boundary BoundaryRule
}

// Supported parts.
var (
	MB85RC64   = Variant{Name: "MB85RC64", Capacity: 8192, Boundary: BoundaryNone}
	MB85RC256V = Variant{Name: "MB85RC256V", Capacity: 32768, Boundary: BoundaryNone}
	MB85RC512  = Variant{Name: "MB85RC512", Capacity: 65536, Boundary: BoundaryNone}
	MB85RC1M   = Variant{Name: "MB85RC1M", Capacity: 131072, Boundary: BoundaryDualAddressSpace}
)

// Variants returns the supported parts in order of capacity.
func Variants() []Variant {
	return []Variant{MB85RC64, MB85RC256V, MB85RC512, MB85RC1M}
}

// ParseVariant looks up a part by name, case-insensitively. The "MB85RC"
// prefix may be omitted ("256v", "1m").
func ParseVariant(name string) (Variant, error) {
	key := strings.ToUpper(strings.TrimSpace(name))
	for _, v := range Variants() {
		if key == v.Name || "MB85RC"+key == v.Name {
			return v, nil
		}
	}
	return Variant{}, fmt.Errorf("%w: unknown variant %q", ErrInvalidConfig, name)
}

// String returns the part name.
func (v Variant) String() string {
	return v.Name
}
