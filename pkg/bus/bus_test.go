package bus

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAddr7Masks(t *testing.T) {
	assert.Equal(t, Addr(0x50), Addr7(0x50))
	assert.Equal(t, Addr(0x50), Addr7(0xd0))
	assert.Equal(t, "0x51", Addr(0x51).String())
}

func TestStatusErr(t *testing.T) {
	assert.NoError(t, StatusOK.Err())

	for _, s := range []Status{StatusDataTooLong, StatusAddrNACK, StatusDataNACK, StatusOther, StatusTimeout, Status(42)} {
		err := s.Err()
		assert.Error(t, err, s.String())
		assert.True(t, errors.Is(err, ErrStatus), s.String())
		assert.Contains(t, err.Error(), s.String())
	}
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "ADDR_NACK", StatusAddrNACK.String())
	assert.Equal(t, "STATUS(42)", Status(42).String())
}
