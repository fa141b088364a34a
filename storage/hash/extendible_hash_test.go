package hash

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zhukovaskychina/xmysql-storage/storage/common"
)

func identityHasher(key int) uint64 {
	return uint64(key)
}

func TestExtendibleHashBasic(t *testing.T) {
	h := NewExtendibleHash[int, string](2, identityHasher)

	t.Run("插入与查找", func(t *testing.T) {
		h.Insert(1, "a")
		h.Insert(2, "b")

		v, ok := h.Find(1)
		require.True(t, ok)
		assert.Equal(t, "a", v)

		_, ok = h.Find(3)
		assert.False(t, ok)
	})

	t.Run("重复键覆盖", func(t *testing.T) {
		h.Insert(1, "a2")
		v, ok := h.Find(1)
		require.True(t, ok)
		assert.Equal(t, "a2", v)
	})

	t.Run("删除", func(t *testing.T) {
		assert.True(t, h.Remove(2))
		assert.False(t, h.Remove(2))
		_, ok := h.Find(2)
		assert.False(t, ok)
	})
}

func TestExtendibleHashSplit(t *testing.T) {
	t.Run("低位碰撞键连续分裂", func(t *testing.T) {
		h := NewExtendibleHash[int, int](2, identityHasher)
		assert.Equal(t, 0, h.GlobalDepth())

		// 0, 4, 8 share the low two bits; splitting must walk up to bit 2.
		h.Insert(0, 0)
		h.Insert(4, 4)
		h.Insert(8, 8)

		assert.Equal(t, 3, h.GlobalDepth())
		assert.Equal(t, 8, h.NumBuckets())
		require.NoError(t, h.Validate())

		for _, k := range []int{0, 4, 8} {
			v, ok := h.Find(k)
			require.True(t, ok, "key %d", k)
			assert.Equal(t, k, v)
		}
	})

	t.Run("目录翻倍后共享不变式", func(t *testing.T) {
		h := NewExtendibleHash[int, int](4, identityHasher)
		for i := 0; i < 200; i++ {
			h.Insert(i, i*10)
		}
		require.NoError(t, h.Validate())
		assert.Equal(t, 200, h.Size())

		for i := 0; i < 200; i++ {
			v, ok := h.Find(i)
			require.True(t, ok, "key %d", i)
			assert.Equal(t, i*10, v)
		}
	})

	t.Run("局部深度不超过全局深度", func(t *testing.T) {
		h := NewExtendibleHash[int, int](1, identityHasher)
		for i := 0; i < 64; i++ {
			h.Insert(i, i)
		}
		require.NoError(t, h.Validate())
		gd := h.GlobalDepth()
		for slot := 0; slot < h.NumBuckets(); slot++ {
			assert.LessOrEqual(t, h.LocalDepth(slot), gd)
		}
	})
}

func TestExtendibleHashConcurrent(t *testing.T) {
	h := NewExtendibleHash[int, int](8, identityHasher)

	var wg sync.WaitGroup
	for g := 0; g < 4; g++ {
		wg.Add(1)
		go func(base int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				h.Insert(base*1000+i, i)
			}
		}(g)
	}
	wg.Wait()

	require.NoError(t, h.Validate())
	assert.Equal(t, 400, h.Size())
	for g := 0; g < 4; g++ {
		for i := 0; i < 100; i++ {
			v, ok := h.Find(g*1000 + i)
			require.True(t, ok)
			assert.Equal(t, i, v)
		}
	}
}

func TestPageIDHasherSpread(t *testing.T) {
	// xxhash over the byte encoding must not collapse consecutive ids.
	seen := make(map[uint64]bool)
	for i := 0; i < 64; i++ {
		seen[PageIDHasher(common.PageID(i))] = true
	}
	assert.Greater(t, len(seen), 60)
}
