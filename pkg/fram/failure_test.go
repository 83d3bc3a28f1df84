package fram_test

import (
	"errors"
	"testing"

	"github.com/fram-kit/fram-go/pkg/bus"
	"github.com/fram-kit/fram-go/pkg/fram"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteFailsFast(t *testing.T) {
	rig := newRig(t, fram.MB85RC256V, 0)
	data := sequence(100)

	rig.bus.FailAfter(2, bus.StatusDataNACK)
	err := rig.dev.Write(0, data)

	require.Error(t, err)
	assert.ErrorIs(t, err, fram.ErrTransport)
	assert.ErrorIs(t, err, bus.ErrStatus)
	assert.Equal(t, 2, rig.bus.Count(), "no chunk after the failing one is attempted")

	var opErr *fram.OpError
	require.True(t, errors.As(err, &opErr))
	assert.Equal(t, "write", opErr.Op)
	assert.Equal(t, 30, opErr.Offset)
	assert.Equal(t, bus.StatusDataNACK, opErr.Status)

	mem := rig.chip.Bytes()
	assert.Equal(t, data[:30], mem[:30], "chunks before the failure stay written")
	assert.Equal(t, make([]byte, 70), mem[30:100])
}

func TestReadFailsFastOnAddressPhase(t *testing.T) {
	rig := newRig(t, fram.MB85RC256V, 0)

	// Transaction 3 is the register write of the second chunk.
	rig.bus.FailAfter(3, bus.StatusAddrNACK)
	_, err := rig.dev.Read(0, 100)

	assert.ErrorIs(t, err, fram.ErrTransport)
	assert.Equal(t, 3, rig.bus.Count())

	var opErr *fram.OpError
	require.True(t, errors.As(err, &opErr))
	assert.Equal(t, 32, opErr.Offset)
}

func TestReadFailsOnShortData(t *testing.T) {
	rig := newRig(t, fram.MB85RC256V, 0)

	rig.bus.ShortReads(1)
	_, err := rig.dev.Read(0, 64)

	assert.ErrorIs(t, err, fram.ErrShortRead)
	assert.NotErrorIs(t, err, fram.ErrTransport)
	assert.Equal(t, 2, rig.bus.Count())
}

func TestReadFailsWhenRequestDeliversNothing(t *testing.T) {
	rig := newRig(t, fram.MB85RC256V, 0)

	rig.bus.FailAfter(2, bus.StatusOK)
	_, err := rig.dev.Read(0, 10)
	assert.ErrorIs(t, err, fram.ErrShortRead)
}

func TestMoveFailsFastLeavingPartialState(t *testing.T) {
	rig := newRig(t, fram.MB85RC256V, 0)
	orig := sequence(128)
	require.NoError(t, rig.dev.Write(0, orig))
	rig.bus.Reset()

	// Each staged chunk is register write, read, data write: fail the
	// second chunk's data write.
	rig.bus.FailAfter(6, bus.StatusDataNACK)
	err := rig.dev.Move(0, 60, 60)

	require.ErrorIs(t, err, fram.ErrTransport)
	assert.Equal(t, 6, rig.bus.Count())

	mem := rig.chip.Bytes()
	assert.Equal(t, orig[30:60], mem[90:120], "high chunk moved")
	assert.Equal(t, orig[60:90], mem[60:90], "low chunk not moved")
}

func TestEraseFailsFast(t *testing.T) {
	rig := newRig(t, fram.MB85RC64, 0)
	rig.chip.Fill(0xff)

	rig.bus.FailAfter(5, bus.StatusTimeout)
	err := rig.dev.Erase()

	require.ErrorIs(t, err, fram.ErrTransport)
	assert.Equal(t, 5, rig.bus.Count())

	mem := rig.chip.Bytes()
	assert.Equal(t, make([]byte, 120), mem[:120])
	assert.Equal(t, byte(0xff), mem[120])
}

func TestUnattachedDeviceNACKs(t *testing.T) {
	rig := newRig(t, fram.MB85RC256V, 0)

	other, err := fram.New(rig.bus, fram.Config{Variant: fram.MB85RC256V, Selector: 5})
	require.NoError(t, err)

	err = other.Write(0, []byte{1})
	var opErr *fram.OpError
	require.True(t, errors.As(err, &opErr))
	assert.Equal(t, bus.StatusAddrNACK, opErr.Status)
	assert.Equal(t, bus.Addr(0x55), opErr.Addr)
}

func TestLockReleasedAfterFailure(t *testing.T) {
	rig := newRig(t, fram.MB85RC256V, 0)

	rig.bus.FailAfter(1, bus.StatusOther)
	require.Error(t, rig.dev.Write(0, []byte{1, 2, 3}))

	// Would deadlock if the failed write kept the bus.
	require.NoError(t, rig.dev.Write(0, []byte{1, 2, 3}))
	assert.Equal(t, 2, rig.bus.Holds())
}
