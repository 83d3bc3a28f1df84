package fram_test

import (
	"testing"

	"github.com/fram-kit/fram-go/pkg/fram"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type counters struct {
	Boots  uint32
	Resets uint16
	Flags  [2]byte
	Temp   int16
}

func TestPutGetUint32LittleEndian(t *testing.T) {
	rig := newRig(t, fram.MB85RC256V, 0)

	require.NoError(t, fram.Put(rig.dev, 0, uint32(0x11223344)))
	assert.Equal(t, []byte{0x44, 0x33, 0x22, 0x11}, rig.chip.Bytes()[:4])

	v, err := fram.Get[uint32](rig.dev, 0)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x11223344), v)
}

func TestIncrementCounter(t *testing.T) {
	rig := newRig(t, fram.MB85RC64, 0)

	for i := 0; i < 5; i++ {
		v, err := fram.Get[uint32](rig.dev, 100)
		require.NoError(t, err)
		require.NoError(t, fram.Put(rig.dev, 100, v+1))
	}

	v, err := fram.Get[uint32](rig.dev, 100)
	require.NoError(t, err)
	assert.Equal(t, uint32(5), v)
}

func TestPutGetStruct(t *testing.T) {
	rig := newRig(t, fram.MB85RC1M, 0)
	want := counters{Boots: 42, Resets: 7, Flags: [2]byte{1, 0}, Temp: -12}

	// Straddles the bank boundary.
	off := fram.BankSize - 5
	require.NoError(t, fram.Put(rig.dev, off, want))

	got, err := fram.Get[counters](rig.dev, off)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestTypedRejectsVariableSize(t *testing.T) {
	rig := newRig(t, fram.MB85RC64, 0)

	err := fram.Put(rig.dev, 0, "hello")
	assert.ErrorIs(t, err, fram.ErrNotFixedSize)

	_, err = fram.Get[struct{ Name string }](rig.dev, 0)
	assert.ErrorIs(t, err, fram.ErrNotFixedSize)
	assert.Zero(t, rig.bus.Count())
}

func TestTypedOutOfRange(t *testing.T) {
	rig := newRig(t, fram.MB85RC64, 0)

	err := fram.Put(rig.dev, rig.dev.Capacity()-3, uint64(1))
	assert.ErrorIs(t, err, fram.ErrOutOfRange)

	_, err = fram.Get[uint64](rig.dev, rig.dev.Capacity()-7)
	assert.ErrorIs(t, err, fram.ErrOutOfRange)
}
