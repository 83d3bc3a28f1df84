package fram_test

import (
	"testing"

	"github.com/fram-kit/fram-go/pkg/bus"
	"github.com/fram-kit/fram-go/pkg/fram"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// stubBus is a bus.Bus scripted with testify expectations.
type stubBus struct{ mock.Mock }

func (b *stubBus) Lock()                           { b.Called() }
func (b *stubBus) Unlock()                         { b.Called() }
func (b *stubBus) BeginTransmission(addr bus.Addr) { b.Called(addr) }
func (b *stubBus) WriteByte(c byte) error          { return b.Called(c).Error(0) }
func (b *stubBus) EndTransmission(stop bool) bus.Status {
	return b.Called(stop).Get(0).(bus.Status)
}
func (b *stubBus) RequestFrom(addr bus.Addr, count int, stop bool) int {
	return b.Called(addr, count, stop).Int(0)
}
func (b *stubBus) Available() int { return b.Called().Int(0) }
func (b *stubBus) ReadByte() (byte, error) {
	ret := b.Called()
	return ret.Get(0).(byte), ret.Error(1)
}

func newStubDevice(t *testing.T, stub *stubBus, variant fram.Variant, selector uint8) *fram.Device {
	t.Helper()
	dev, err := fram.New(stub, fram.Config{Variant: variant, Selector: selector})
	require.NoError(t, err)
	return dev
}

func TestReadCallSequence(t *testing.T) {
	stub := &stubBus{}
	mock.InOrder(
		stub.On("Lock").Return().Once(),
		stub.On("BeginTransmission", bus.Addr(0x51)).Return().Once(),
		stub.On("WriteByte", byte(0x12)).Return(nil).Once(),
		stub.On("WriteByte", byte(0x34)).Return(nil).Once(),
		stub.On("EndTransmission", false).Return(bus.StatusOK).Once(),
		stub.On("RequestFrom", bus.Addr(0x51), 2, true).Return(2).Once(),
		stub.On("Available").Return(2).Once(),
		stub.On("ReadByte").Return(byte(0xca), nil).Once(),
		stub.On("ReadByte").Return(byte(0xfe), nil).Once(),
		stub.On("Unlock").Return().Once(),
	)

	dev := newStubDevice(t, stub, fram.MB85RC256V, 1)
	got, err := dev.Read(0x1234, 2)

	require.NoError(t, err)
	assert.Equal(t, []byte{0xca, 0xfe}, got)
	stub.AssertExpectations(t)
}

func TestWriteCallSequence(t *testing.T) {
	stub := &stubBus{}
	mock.InOrder(
		stub.On("Lock").Return().Once(),
		stub.On("BeginTransmission", bus.Addr(0x51)).Return().Once(),
		stub.On("WriteByte", byte(0x00)).Return(nil).Once(),
		stub.On("WriteByte", byte(0x08)).Return(nil).Once(),
		stub.On("WriteByte", byte(0xab)).Return(nil).Once(),
		stub.On("EndTransmission", true).Return(bus.StatusOK).Once(),
		stub.On("Unlock").Return().Once(),
	)

	dev := newStubDevice(t, stub, fram.MB85RC1M, 0)
	require.NoError(t, dev.Write(fram.BankSize+8, []byte{0xab}))
	stub.AssertExpectations(t)
}

func TestReadStopsAfterAddressNACK(t *testing.T) {
	stub := &stubBus{}
	stub.On("Lock").Return().Once()
	stub.On("BeginTransmission", bus.Addr(0x50)).Return()
	stub.On("WriteByte", mock.Anything).Return(nil)
	stub.On("EndTransmission", false).Return(bus.StatusAddrNACK).Once()
	stub.On("Unlock").Return().Once()

	dev := newStubDevice(t, stub, fram.MB85RC64, 0)
	_, err := dev.Read(0, 8)

	assert.ErrorIs(t, err, fram.ErrTransport)
	stub.AssertExpectations(t)
	stub.AssertNotCalled(t, "RequestFrom", mock.Anything, mock.Anything, mock.Anything)
	stub.AssertNotCalled(t, "ReadByte")
}

func TestWriteStopsOnBufferOverflow(t *testing.T) {
	stub := &stubBus{}
	stub.On("Lock").Return().Once()
	stub.On("BeginTransmission", bus.Addr(0x50)).Return().Once()
	stub.On("WriteByte", byte(0x00)).Return(nil).Twice()
	stub.On("WriteByte", byte(0x01)).Return(bus.ErrBufferFull).Once()
	stub.On("Unlock").Return().Once()

	dev := newStubDevice(t, stub, fram.MB85RC64, 0)
	err := dev.Write(0, []byte{0x01, 0x02})

	assert.ErrorIs(t, err, fram.ErrTransport)
	assert.ErrorIs(t, err, bus.ErrBufferFull)
	stub.AssertExpectations(t)
	stub.AssertNotCalled(t, "EndTransmission", mock.Anything)
}

func TestOutOfRangeNeverTouchesBus(t *testing.T) {
	stub := &stubBus{}
	dev := newStubDevice(t, stub, fram.MB85RC64, 0)

	_, err := dev.Read(8190, 3)
	assert.ErrorIs(t, err, fram.ErrOutOfRange)
	assert.ErrorIs(t, dev.Write(-1, []byte{1}), fram.ErrOutOfRange)
	assert.ErrorIs(t, dev.Move(0, 8000, 200), fram.ErrOutOfRange)

	stub.AssertNotCalled(t, "Lock")
}
