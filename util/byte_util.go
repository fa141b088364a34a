package util

import "encoding/binary"

// Fixed-width integer codecs for page bytes. Layouts are little-endian,
// the native order on every target this engine supports.

// ConvertInt4Bytes 将int32转换为4字节
func ConvertInt4Bytes(value int32) []byte {
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf, uint32(value))
	return buf
}

// ConvertUInt4Bytes 将uint32转换为4字节
func ConvertUInt4Bytes(value uint32) []byte {
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf, value)
	return buf
}

// ConvertLong8Bytes 将int64转换为8字节
func ConvertLong8Bytes(value int64) []byte {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, uint64(value))
	return buf
}

// ConvertULong8Bytes 将uint64转换为8字节
func ConvertULong8Bytes(value uint64) []byte {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, value)
	return buf
}

// ReadB4Byte2Int32 从4字节读取int32
func ReadB4Byte2Int32(buf []byte) int32 {
	return int32(binary.LittleEndian.Uint32(buf))
}

// ReadUB4Byte2UInt32 从4字节读取uint32
func ReadUB4Byte2UInt32(buf []byte) uint32 {
	return binary.LittleEndian.Uint32(buf)
}

// ReadB8Byte2Int64 从8字节读取int64
func ReadB8Byte2Int64(buf []byte) int64 {
	return int64(binary.LittleEndian.Uint64(buf))
}

// ReadUB8Byte2UInt64 从8字节读取uint64
func ReadUB8Byte2UInt64(buf []byte) uint64 {
	return binary.LittleEndian.Uint64(buf)
}

// WriteInt4 writes an int32 into buf at offset.
func WriteInt4(buf []byte, offset int, value int32) {
	binary.LittleEndian.PutUint32(buf[offset:offset+4], uint32(value))
}

// WriteUInt4 writes a uint32 into buf at offset.
func WriteUInt4(buf []byte, offset int, value uint32) {
	binary.LittleEndian.PutUint32(buf[offset:offset+4], value)
}

// ReadInt4 reads an int32 from buf at offset.
func ReadInt4(buf []byte, offset int) int32 {
	return int32(binary.LittleEndian.Uint32(buf[offset : offset+4]))
}

// ReadUInt4 reads a uint32 from buf at offset.
func ReadUInt4(buf []byte, offset int) uint32 {
	return binary.LittleEndian.Uint32(buf[offset : offset+4])
}
