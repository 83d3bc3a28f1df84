package fram

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, MB85RC256V, cfg.Variant)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"64 selector 7", Config{Variant: MB85RC64, Selector: 7}, false},
		{"512 selector 3", Config{Variant: MB85RC512, Selector: 3}, false},
		{"1M selector 6", Config{Variant: MB85RC1M, Selector: 6}, false},
		{"selector 8", Config{Variant: MB85RC256V, Selector: 8}, true},
		{"1M odd selector", Config{Variant: MB85RC1M, Selector: 1}, true},
		{"zero variant", Config{}, true},
		{"large without dual space", Config{Variant: Variant{Name: "X", Capacity: 131072}}, true},
		{"dual space too small", Config{Variant: Variant{Name: "X", Capacity: 8192, Boundary: BoundaryDualAddressSpace}}, true},
		{"unknown rule", Config{Variant: Variant{Name: "X", Capacity: 8192, Boundary: 9}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidConfig)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestParseVariant(t *testing.T) {
	for _, name := range []string{"MB85RC1M", "mb85rc1m", "1m", " 1M "} {
		v, err := ParseVariant(name)
		require.NoError(t, err, name)
		assert.Equal(t, MB85RC1M, v)
	}

	v, err := ParseVariant("256v")
	require.NoError(t, err)
	assert.Equal(t, 32768, v.Capacity)

	_, err = ParseVariant("24LC256")
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestVariantsOrderedByCapacity(t *testing.T) {
	vs := Variants()
	require.Len(t, vs, 4)
	for i := 1; i < len(vs); i++ {
		assert.Less(t, vs[i-1].Capacity, vs[i].Capacity)
	}
	assert.Equal(t, "dual-address-space", MB85RC1M.Boundary.String())
	assert.Equal(t, "none", MB85RC512.Boundary.String())
}

func TestChunkClampsAtBankBoundary(t *testing.T) {
	dual := &Device{variant: MB85RC1M}
	flat := &Device{variant: MB85RC512}

	tests := []struct {
		name                     string
		dev                      *Device
		offset, remaining, limit int
		want                     int
	}{
		{"below limit", dual, 0, 10, WriteChunkMax, 10},
		{"limited", dual, 0, 100, ReadChunkMax, 32},
		{"straddles boundary", dual, 65530, 100, ReadChunkMax, 6},
		{"ends on boundary", dual, 65506, 100, WriteChunkMax, 30},
		{"above boundary", dual, 65536, 100, WriteChunkMax, 30},
		{"flat device never clamps", flat, 65530, 6, ReadChunkMax, 6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.dev.chunk(tt.offset, tt.remaining, tt.limit))
		})
	}
}

func TestEffectiveAddr(t *testing.T) {
	dual := &Device{variant: MB85RC1M, selector: 4}
	assert.EqualValues(t, 0x54, dual.EffectiveAddr(0))
	assert.EqualValues(t, 0x54, dual.EffectiveAddr(65535))
	assert.EqualValues(t, 0x55, dual.EffectiveAddr(65536))
	assert.EqualValues(t, 0x55, dual.EffectiveAddr(131071))

	flat := &Device{variant: MB85RC512, selector: 7}
	assert.EqualValues(t, 0x57, flat.EffectiveAddr(65535))
}
