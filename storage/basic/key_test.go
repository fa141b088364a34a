package basic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUintCodecs(t *testing.T) {
	buf := make([]byte, 8)

	c4 := Uint32Codec{}
	require.Equal(t, 4, c4.Size())
	c4.Encode(buf[:4], 0xcafe)
	assert.Equal(t, uint32(0xcafe), c4.Decode(buf[:4]))

	c8 := Uint64Codec{}
	require.Equal(t, 8, c8.Size())
	c8.Encode(buf, 1<<40+7)
	assert.Equal(t, uint64(1<<40+7), c8.Decode(buf))

	assert.Negative(t, CompareUint32(1, 2))
	assert.Zero(t, CompareUint32(7, 7))
	assert.Positive(t, CompareUint64(9, 2))
}

func TestBytesCodec(t *testing.T) {
	for _, width := range []int{8, 16, 32, 64} {
		c := BytesCodec{Width: width}
		require.Equal(t, width, c.Size())

		buf := make([]byte, width)
		c.Encode(buf, []byte("user"))
		got := c.Decode(buf)
		require.Len(t, got, width)
		assert.Equal(t, []byte("user"), got[:4])
		for _, b := range got[4:] {
			assert.Zero(t, b, "right padding")
		}
	}

	t.Run("超宽键截断到宽度", func(t *testing.T) {
		c := BytesCodec{Width: 8}
		buf := make([]byte, 8)
		c.Encode(buf, []byte("0123456789"))
		assert.Equal(t, []byte("01234567"), c.Decode(buf))
	})

	t.Run("字典序比较", func(t *testing.T) {
		assert.Negative(t, CompareBytes([]byte("abc"), []byte("abd")))
		assert.Zero(t, CompareBytes([]byte("abc"), []byte("abc")))
		assert.Positive(t, CompareBytes([]byte("b"), []byte("ab")))
	})
}
