package index

import (
	"github.com/zhukovaskychina/xmysql-storage/storage/buffer_pool"
	"github.com/zhukovaskychina/xmysql-storage/storage/common"
)

// IndexIterator walks the leaf chain in ascending key order. It owns at
// most one pinned leaf at a time; Close releases the pin when iteration
// stops before the end.
type IndexIterator[K any] struct {
	tree *BPlusTree[K]
	page *buffer_pool.Page
	pos  int
	end  bool
}

// Iterator positions at the smallest key.
func (t *BPlusTree[K]) Iterator() (*IndexIterator[K], error) {
	if t.IsEmpty() {
		return &IndexIterator[K]{tree: t, end: true}, nil
	}
	var zero K
	page, err := t.findLeafPage(zero, true)
	if err != nil {
		return nil, err
	}
	it := &IndexIterator[K]{tree: t, page: page}
	if err := it.skipExhausted(); err != nil {
		return nil, err
	}
	return it, nil
}

// IteratorAt positions at the first key >= the given key.
func (t *BPlusTree[K]) IteratorAt(key K) (*IndexIterator[K], error) {
	if t.IsEmpty() {
		return &IndexIterator[K]{tree: t, end: true}, nil
	}
	page, err := t.findLeafPage(key, false)
	if err != nil {
		return nil, err
	}
	it := &IndexIterator[K]{tree: t, page: page}
	it.pos = t.leafView(page).KeyIndex(key, t.cmp)
	if err := it.skipExhausted(); err != nil {
		return nil, err
	}
	return it, nil
}

// skipExhausted hops to the next leaf while the position is past the
// current leaf's last slot, releasing each exhausted leaf's pin.
func (it *IndexIterator[K]) skipExhausted() error {
	for !it.end {
		leaf := it.tree.leafView(it.page)
		if it.pos < leaf.GetSize() {
			return nil
		}
		next := leaf.NextPageID()
		it.tree.pool.UnpinPage(it.page.ID(), false)
		it.page = nil
		if !next.IsValid() {
			it.end = true
			return nil
		}
		page, err := it.tree.pool.FetchPage(next)
		if err != nil {
			it.end = true
			return err
		}
		it.page = page
		it.pos = 0
	}
	return nil
}

// IsEnd reports whether iteration is exhausted.
func (it *IndexIterator[K]) IsEnd() bool {
	return it.end
}

// Item returns the key and record id at the current position.
func (it *IndexIterator[K]) Item() (K, common.RID) {
	leaf := it.tree.leafView(it.page)
	return leaf.ItemAt(it.pos)
}

// Key returns the key at the current position.
func (it *IndexIterator[K]) Key() K {
	k, _ := it.Item()
	return k
}

// RID returns the record id at the current position.
func (it *IndexIterator[K]) RID() common.RID {
	_, rid := it.Item()
	return rid
}

// Next advances one position, hopping along the leaf chain on overflow.
func (it *IndexIterator[K]) Next() error {
	if it.end {
		return nil
	}
	it.pos++
	return it.skipExhausted()
}

// Close releases the pinned leaf. Safe to call after the iterator reached
// the end.
func (it *IndexIterator[K]) Close() {
	if it.page != nil {
		it.tree.pool.UnpinPage(it.page.ID(), false)
		it.page = nil
	}
	it.end = true
}
