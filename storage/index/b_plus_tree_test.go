package index

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zhukovaskychina/xmysql-storage/storage/basic"
	"github.com/zhukovaskychina/xmysql-storage/storage/buffer_pool"
	"github.com/zhukovaskychina/xmysql-storage/storage/common"
	"github.com/zhukovaskychina/xmysql-storage/storage/disk"
	"github.com/zhukovaskychina/xmysql-storage/storage/pages"
)

func newTestTree(t *testing.T, leafMax, internalMax int) (*BPlusTree[uint32], *buffer_pool.BufferPoolManager, *disk.FileDiskManager) {
	t.Helper()
	dm, err := disk.NewFileDiskManager(filepath.Join(t.TempDir(), "index.ibd"))
	require.NoError(t, err)
	t.Cleanup(func() { dm.Close() })

	pool := buffer_pool.NewBufferPoolManager(64, 16, dm)

	// Page 0 is the header page the tree records its root in; reserve and
	// format it before the tree allocates any node.
	header, err := pool.NewPage()
	require.NoError(t, err)
	require.Equal(t, common.HeaderPageID, header.ID())
	pages.HeaderView(header).Init()
	require.True(t, pool.UnpinPage(header.ID(), true))

	tree := NewBPlusTree[uint32]("test_index", pool, basic.Uint32Codec{}, basic.CompareUint32, common.InvalidPageID)
	if leafMax > 0 {
		tree.SetNodeCapacity(leafMax, internalMax)
	}
	return tree, pool, dm
}

func rid(k uint32) common.RID {
	return common.NewRID(common.PageID(k), int32(k))
}

// validateTree walks the whole tree checking size bounds, key ordering,
// parent pointers and the leaf chain.
func validateTree(t *testing.T, tree *BPlusTree[uint32], pool *buffer_pool.BufferPoolManager) {
	t.Helper()
	if tree.IsEmpty() {
		return
	}
	codec := basic.Uint32Codec{}
	queue := []common.PageID{tree.RootPageID()}
	var leaves []common.PageID

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]

		p, err := pool.FetchPage(id)
		require.NoError(t, err)
		v := pages.View(p)
		if !v.IsRootPage() {
			require.GreaterOrEqual(t, v.GetSize(), v.GetMinSize(), "page %d underfull", id)
		}
		require.LessOrEqual(t, v.GetSize(), v.GetMaxSize(), "page %d overfull", id)

		if v.IsLeafPage() {
			leaf := pages.LeafView[uint32](p, codec)
			for i := 1; i < leaf.GetSize(); i++ {
				require.Less(t, leaf.KeyAt(i-1), leaf.KeyAt(i), "leaf %d key order", id)
			}
			leaves = append(leaves, id)
		} else {
			node := pages.InternalView[uint32](p, codec)
			seen := make(map[common.PageID]bool)
			for i := 0; i < node.GetSize(); i++ {
				child := node.ValueAt(i)
				require.True(t, child.IsValid(), "page %d slot %d", id, i)
				require.False(t, seen[child], "page %d duplicates child %d", id, child)
				seen[child] = true
				if i >= 2 {
					require.Less(t, node.KeyAt(i-1), node.KeyAt(i), "internal %d key order", id)
				}
				cp, err := pool.FetchPage(child)
				require.NoError(t, err)
				require.Equal(t, id, pages.View(cp).ParentPageID(), "child %d parent pointer", child)
				pool.UnpinPage(child, false)
				queue = append(queue, child)
			}
		}
		pool.UnpinPage(id, false)
	}

	// BFS visits leaves left to right; the chain must agree.
	for i := 0; i < len(leaves); i++ {
		p, err := pool.FetchPage(leaves[i])
		require.NoError(t, err)
		leaf := pages.LeafView[uint32](p, codec)
		if i == 0 {
			assert.Equal(t, common.InvalidPageID, leaf.PrevPageID())
		} else {
			assert.Equal(t, leaves[i-1], leaf.PrevPageID(), "leaf %d prev", leaves[i])
		}
		if i == len(leaves)-1 {
			assert.Equal(t, common.InvalidPageID, leaf.NextPageID())
		} else {
			assert.Equal(t, leaves[i+1], leaf.NextPageID(), "leaf %d next", leaves[i])
		}
		pool.UnpinPage(leaves[i], false)
	}
	assert.Equal(t, 0, pool.PinnedCount(), "validation must not leak pins")
}

func collectKeys(t *testing.T, it *IndexIterator[uint32]) []uint32 {
	t.Helper()
	var keys []uint32
	for !it.IsEnd() {
		keys = append(keys, it.Key())
		require.NoError(t, it.Next())
	}
	it.Close()
	return keys
}

func TestBPlusTreeInsertAndGet(t *testing.T) {
	tree, pool, _ := newTestTree(t, 4, 4)
	txn := basic.NewTransaction()

	t.Run("空树查找", func(t *testing.T) {
		_, ok, err := tree.GetValue(1, txn)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("插入后点查", func(t *testing.T) {
		for k := uint32(1); k <= 10; k++ {
			ok, err := tree.Insert(k, rid(k), txn)
			require.NoError(t, err)
			require.True(t, ok, "insert %d", k)
		}
		for k := uint32(1); k <= 10; k++ {
			got, ok, err := tree.GetValue(k, txn)
			require.NoError(t, err)
			require.True(t, ok, "get %d", k)
			assert.Equal(t, rid(k), got)
		}
		assert.Equal(t, 0, pool.PinnedCount())
	})

	t.Run("重复键拒绝且保留原值", func(t *testing.T) {
		ok, err := tree.Insert(5, common.NewRID(999, 999), txn)
		require.NoError(t, err)
		assert.False(t, ok)

		got, ok, err := tree.GetValue(5, txn)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, rid(5), got, "duplicate insert must not overwrite")
		assert.Equal(t, 0, pool.PinnedCount())
	})

	validateTree(t, tree, pool)
}

func TestBPlusTreeSplitCascade(t *testing.T) {
	tree, pool, _ := newTestTree(t, 4, 4)
	txn := basic.NewTransaction()

	// Sequential inserts drive splits all the way to a fresh root.
	for k := uint32(1); k <= 100; k++ {
		ok, err := tree.Insert(k, rid(k), txn)
		require.NoError(t, err)
		require.True(t, ok)
	}
	validateTree(t, tree, pool)

	rootPage, err := pool.FetchPage(tree.RootPageID())
	require.NoError(t, err)
	root := pages.View(rootPage)
	assert.False(t, root.IsLeafPage(), "100 keys at capacity 4 must grow an internal root")
	assert.True(t, root.IsRootPage())
	pool.UnpinPage(rootPage.ID(), false)

	t.Run("点查50", func(t *testing.T) {
		got, ok, err := tree.GetValue(50, txn)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, rid(50), got)
	})

	t.Run("全量升序遍历", func(t *testing.T) {
		it, err := tree.Iterator()
		require.NoError(t, err)
		keys := collectKeys(t, it)
		require.Len(t, keys, 100)
		for i, k := range keys {
			assert.Equal(t, uint32(i+1), k)
		}
	})

	t.Run("范围遍历从25", func(t *testing.T) {
		it, err := tree.IteratorAt(25)
		require.NoError(t, err)
		keys := collectKeys(t, it)
		require.Len(t, keys, 76)
		assert.Equal(t, uint32(25), keys[0])
		assert.Equal(t, uint32(100), keys[len(keys)-1])
	})

	assert.Equal(t, 0, pool.PinnedCount())
}

func TestBPlusTreeDeleteWithCoalesce(t *testing.T) {
	tree, pool, dm := newTestTree(t, 4, 4)
	txn := basic.NewTransaction()

	for k := uint32(1); k <= 20; k++ {
		ok, err := tree.Insert(k, rid(k), txn)
		require.NoError(t, err)
		require.True(t, ok)
	}
	for k := uint32(10); k <= 20; k++ {
		require.NoError(t, tree.Remove(k, txn))
		validateTree(t, tree, pool)
	}

	it, err := tree.Iterator()
	require.NoError(t, err)
	keys := collectKeys(t, it)
	require.Len(t, keys, 9)
	for i, k := range keys {
		assert.Equal(t, uint32(i+1), k)
	}

	assert.Greater(t, dm.Stats()["deallocated"], uint64(0), "merges must free pages")
	assert.Equal(t, 0, pool.PinnedCount())
}

func TestBPlusTreeDeleteToEmpty(t *testing.T) {
	tree, pool, _ := newTestTree(t, 4, 4)
	txn := basic.NewTransaction()

	for k := uint32(1); k <= 30; k++ {
		_, err := tree.Insert(k, rid(k), txn)
		require.NoError(t, err)
	}
	for k := uint32(1); k <= 30; k++ {
		require.NoError(t, tree.Remove(k, txn))
	}

	assert.True(t, tree.IsEmpty())
	assert.Equal(t, common.InvalidPageID, tree.RootPageID())
	assert.Equal(t, 0, pool.PinnedCount())

	t.Run("清空后可复用", func(t *testing.T) {
		ok, err := tree.Insert(7, rid(7), txn)
		require.NoError(t, err)
		require.True(t, ok)
		got, ok, err := tree.GetValue(7, txn)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, rid(7), got)
		validateTree(t, tree, pool)
	})

	t.Run("删除不存在的键为空操作", func(t *testing.T) {
		require.NoError(t, tree.Remove(999, txn))
		assert.Equal(t, 0, pool.PinnedCount())
	})
}

func TestBPlusTreeMixedWorkload(t *testing.T) {
	tree, pool, _ := newTestTree(t, 4, 4)
	txn := basic.NewTransaction()

	// Deterministic pseudo-shuffle of 1..211 (3 generates Z/211).
	const n = 211
	k := uint32(1)
	inserted := make(map[uint32]bool)
	for i := 0; i < n-1; i++ {
		k = (k * 3) % n
		ok, err := tree.Insert(k, rid(k), txn)
		require.NoError(t, err)
		require.True(t, ok, "insert %d", k)
		inserted[k] = true
	}
	require.Len(t, inserted, n-1)
	validateTree(t, tree, pool)

	// Drop the odd keys in another shuffled order.
	k = 1
	for i := 0; i < n-1; i++ {
		k = (k * 3) % n
		if k%2 == 1 {
			require.NoError(t, tree.Remove(k, txn))
			delete(inserted, k)
		}
	}
	validateTree(t, tree, pool)

	for probe := uint32(1); probe < n; probe++ {
		_, ok, err := tree.GetValue(probe, txn)
		require.NoError(t, err)
		assert.Equal(t, inserted[probe], ok, "key %d presence", probe)
	}

	it, err := tree.Iterator()
	require.NoError(t, err)
	keys := collectKeys(t, it)
	require.Len(t, keys, len(inserted))
	for i := 1; i < len(keys); i++ {
		assert.Less(t, keys[i-1], keys[i])
	}
	assert.Equal(t, 0, pool.PinnedCount())
}

func TestIndexIteratorEdges(t *testing.T) {
	tree, pool, _ := newTestTree(t, 4, 4)
	txn := basic.NewTransaction()

	t.Run("空树迭代器", func(t *testing.T) {
		it, err := tree.Iterator()
		require.NoError(t, err)
		assert.True(t, it.IsEnd())
		it.Close()
	})

	for k := uint32(10); k <= 50; k += 10 {
		_, err := tree.Insert(k, rid(k), txn)
		require.NoError(t, err)
	}

	t.Run("起点落在键之间", func(t *testing.T) {
		it, err := tree.IteratorAt(25)
		require.NoError(t, err)
		keys := collectKeys(t, it)
		assert.Equal(t, []uint32{30, 40, 50}, keys)
	})

	t.Run("起点超过最大键", func(t *testing.T) {
		it, err := tree.IteratorAt(99)
		require.NoError(t, err)
		assert.True(t, it.IsEnd())
		it.Close()
		assert.Equal(t, 0, pool.PinnedCount())
	})

	t.Run("提前Close释放pin", func(t *testing.T) {
		it, err := tree.Iterator()
		require.NoError(t, err)
		require.False(t, it.IsEnd())
		it.Close()
		assert.Equal(t, 0, pool.PinnedCount())
	})
}

func TestBPlusTreeNaturalCapacity(t *testing.T) {
	// Page-derived capacities: 39 keys per leaf, 60 children per node.
	tree, pool, _ := newTestTree(t, 0, 0)
	txn := basic.NewTransaction()

	for k := uint32(1); k <= 500; k++ {
		ok, err := tree.Insert(k, rid(k), txn)
		require.NoError(t, err)
		require.True(t, ok)
	}
	validateTree(t, tree, pool)

	got, ok, err := tree.GetValue(321, txn)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, rid(321), got)

	it, err := tree.Iterator()
	require.NoError(t, err)
	keys := collectKeys(t, it)
	assert.Len(t, keys, 500)
	assert.Equal(t, 0, pool.PinnedCount())
}
