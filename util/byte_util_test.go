package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIntCodecRoundTrip(t *testing.T) {
	for _, v := range []int32{0, 1, -1, 512, -512, 1<<31 - 1, -(1 << 31)} {
		assert.Equal(t, v, ReadB4Byte2Int32(ConvertInt4Bytes(v)), "int32 %d", v)
	}
	for _, v := range []uint32{0, 1, 511, 1<<32 - 1} {
		assert.Equal(t, v, ReadUB4Byte2UInt32(ConvertUInt4Bytes(v)), "uint32 %d", v)
	}
	for _, v := range []int64{0, -1, 1 << 40, -(1 << 40)} {
		assert.Equal(t, v, ReadB8Byte2Int64(ConvertLong8Bytes(v)), "int64 %d", v)
	}
	for _, v := range []uint64{0, 1, 1<<64 - 1} {
		assert.Equal(t, v, ReadUB8Byte2UInt64(ConvertULong8Bytes(v)), "uint64 %d", v)
	}
}

func TestOffsetReadWrite(t *testing.T) {
	buf := make([]byte, 16)
	WriteInt4(buf, 4, -77)
	WriteUInt4(buf, 8, 0xdeadbeef)
	assert.Equal(t, int32(-77), ReadInt4(buf, 4))
	assert.Equal(t, uint32(0xdeadbeef), ReadUInt4(buf, 8))
	assert.Equal(t, int32(0), ReadInt4(buf, 0), "neighbouring bytes untouched")
	assert.Equal(t, int32(0), ReadInt4(buf, 12))
}
