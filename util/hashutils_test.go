package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHashCode(t *testing.T) {
	a := HashCode([]byte("page-1"))
	b := HashCode([]byte("page-1"))
	c := HashCode([]byte("page-2"))

	assert.Equal(t, a, b, "stable for equal input")
	assert.NotEqual(t, a, c)

	// Consecutive page ids must spread across low bits.
	seen := make(map[uint64]bool)
	for i := int32(0); i < 128; i++ {
		seen[HashCode(ConvertInt4Bytes(i))&0xff] = true
	}
	assert.Greater(t, len(seen), 64)
}
