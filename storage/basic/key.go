package basic

import (
	"bytes"

	"github.com/zhukovaskychina/xmysql-storage/util"
)

// Uint32Codec stores 4-byte unsigned integer keys.
type Uint32Codec struct{}

func (Uint32Codec) Size() int { return 4 }

func (Uint32Codec) Encode(buf []byte, key uint32) {
	copy(buf, util.ConvertUInt4Bytes(key))
}

func (Uint32Codec) Decode(buf []byte) uint32 {
	return util.ReadUB4Byte2UInt32(buf)
}

// CompareUint32 is the natural order on uint32 keys.
func CompareUint32(a, b uint32) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// Uint64Codec stores 8-byte unsigned integer keys.
type Uint64Codec struct{}

func (Uint64Codec) Size() int { return 8 }

func (Uint64Codec) Encode(buf []byte, key uint64) {
	copy(buf, util.ConvertULong8Bytes(key))
}

func (Uint64Codec) Decode(buf []byte) uint64 {
	return util.ReadUB8Byte2UInt64(buf)
}

// CompareUint64 is the natural order on uint64 keys.
func CompareUint64(a, b uint64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// BytesCodec stores fixed-width byte-string keys, zero padded on the right.
// Widths of 8/16/32/64 match the supported generic key sizes.
type BytesCodec struct {
	Width int
}

func (c BytesCodec) Size() int { return c.Width }

func (c BytesCodec) Encode(buf []byte, key []byte) {
	n := copy(buf[:c.Width], key)
	for i := n; i < c.Width; i++ {
		buf[i] = 0
	}
}

func (c BytesCodec) Decode(buf []byte) []byte {
	out := make([]byte, c.Width)
	copy(out, buf[:c.Width])
	return out
}

// CompareBytes orders byte-string keys lexically.
func CompareBytes(a, b []byte) int {
	return bytes.Compare(a, b)
}
