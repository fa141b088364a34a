package pages

import (
	"fmt"
	"strings"

	"github.com/zhukovaskychina/xmysql-storage/storage/basic"
	"github.com/zhukovaskychina/xmysql-storage/storage/buffer_pool"
	"github.com/zhukovaskychina/xmysql-storage/storage/common"
	"github.com/zhukovaskychina/xmysql-storage/util"
)

// Leaf header extends the shared header with the sibling chain.
const (
	offPrevPageID = SharedHeaderSize
	offNextPageID = SharedHeaderSize + 4

	// LeafHeaderSize 叶子节点头部大小
	LeafHeaderSize = SharedHeaderSize + 8

	ridSize = 8
)

// BPlusTreeLeafPage views a leaf node: the shared header, prev/next page
// ids, then (key, RID) slots in ascending key order.
type BPlusTreeLeafPage[K any] struct {
	BPlusTreePage
	codec basic.KeyCodec[K]
}

// LeafView wraps a frame's bytes in a leaf view.
func LeafView[K any](p *buffer_pool.Page, codec basic.KeyCodec[K]) BPlusTreeLeafPage[K] {
	return BPlusTreeLeafPage[K]{BPlusTreePage: View(p), codec: codec}
}

// LeafMaxSize derives the slot capacity from the page geometry.
func LeafMaxSize(keySize int) int {
	return (common.PageSize-LeafHeaderSize)/(keySize+ridSize) - 1
}

// Init formats the page as an empty leaf with page-derived capacity.
func (l BPlusTreeLeafPage[K]) Init(pageID, parentID common.PageID) {
	l.initHeader(LeafPage, pageID, parentID, LeafMaxSize(l.codec.Size()))
	l.SetPrevPageID(common.InvalidPageID)
	l.SetNextPageID(common.InvalidPageID)
}

// PrevPageID returns the left sibling's page id.
func (l BPlusTreeLeafPage[K]) PrevPageID() common.PageID {
	return common.PageID(util.ReadInt4(l.data, offPrevPageID))
}

// SetPrevPageID writes the left sibling's page id.
func (l BPlusTreeLeafPage[K]) SetPrevPageID(id common.PageID) {
	util.WriteInt4(l.data, offPrevPageID, int32(id))
}

// NextPageID returns the right sibling's page id.
func (l BPlusTreeLeafPage[K]) NextPageID() common.PageID {
	return common.PageID(util.ReadInt4(l.data, offNextPageID))
}

// SetNextPageID writes the right sibling's page id.
func (l BPlusTreeLeafPage[K]) SetNextPageID(id common.PageID) {
	util.WriteInt4(l.data, offNextPageID, int32(id))
}

func (l BPlusTreeLeafPage[K]) pairSize() int {
	return l.codec.Size() + ridSize
}

func (l BPlusTreeLeafPage[K]) slotOffset(index int) int {
	return LeafHeaderSize + index*l.pairSize()
}

// KeyAt returns the key stored at the slot.
func (l BPlusTreeLeafPage[K]) KeyAt(index int) K {
	off := l.slotOffset(index)
	return l.codec.Decode(l.data[off : off+l.codec.Size()])
}

// RIDAt returns the record id stored at the slot.
func (l BPlusTreeLeafPage[K]) RIDAt(index int) common.RID {
	off := l.slotOffset(index) + l.codec.Size()
	return common.RID{
		PageNum: common.PageID(util.ReadInt4(l.data, off)),
		SlotNum: util.ReadInt4(l.data, off+4),
	}
}

// ItemAt returns the key and record id stored at the slot.
func (l BPlusTreeLeafPage[K]) ItemAt(index int) (K, common.RID) {
	return l.KeyAt(index), l.RIDAt(index)
}

func (l BPlusTreeLeafPage[K]) setItem(index int, key K, rid common.RID) {
	off := l.slotOffset(index)
	l.codec.Encode(l.data[off:off+l.codec.Size()], key)
	util.WriteInt4(l.data, off+l.codec.Size(), int32(rid.PageNum))
	util.WriteInt4(l.data, off+l.codec.Size()+4, rid.SlotNum)
}

func (l BPlusTreeLeafPage[K]) copySlots(dstIndex, srcIndex, n int) {
	if n <= 0 {
		return
	}
	dst := l.slotOffset(dstIndex)
	src := l.slotOffset(srcIndex)
	copy(l.data[dst:dst+n*l.pairSize()], l.data[src:src+n*l.pairSize()])
}

func copyLeafSlots[K any](dst, src BPlusTreeLeafPage[K], dstIndex, srcIndex, n int) {
	if n <= 0 {
		return
	}
	size := n * dst.pairSize()
	copy(dst.data[dst.slotOffset(dstIndex):dst.slotOffset(dstIndex)+size],
		src.data[src.slotOffset(srcIndex):src.slotOffset(srcIndex)+size])
}

// KeyIndex returns the first slot whose key is >= the given key, which is
// GetSize() when every stored key is smaller.
func (l BPlusTreeLeafPage[K]) KeyIndex(key K, cmp basic.Comparator[K]) int {
	begin, end := 0, l.GetSize()
	for begin < end {
		mid := begin + (end-begin)/2
		if cmp(key, l.KeyAt(mid)) <= 0 {
			end = mid
		} else {
			begin = mid + 1
		}
	}
	return begin
}

// Lookup finds the record id for an exact key match.
func (l BPlusTreeLeafPage[K]) Lookup(key K, cmp basic.Comparator[K]) (common.RID, bool) {
	idx := l.KeyIndex(key, cmp)
	if idx < l.GetSize() && cmp(key, l.KeyAt(idx)) == 0 {
		return l.RIDAt(idx), true
	}
	return common.RID{}, false
}

// Insert places the pair in key order and returns the size after the
// insert. The caller has already ruled the key out as a duplicate.
func (l BPlusTreeLeafPage[K]) Insert(key K, rid common.RID, cmp basic.Comparator[K]) int {
	idx := l.KeyIndex(key, cmp)
	l.copySlots(idx+1, idx, l.GetSize()-idx)
	l.setItem(idx, key, rid)
	l.IncreaseSize(1)
	return l.GetSize()
}

// InsertAt places the pair at the slot, shifting later slots right.
func (l BPlusTreeLeafPage[K]) InsertAt(index int, key K, rid common.RID) {
	l.copySlots(index+1, index, l.GetSize()-index)
	l.setItem(index, key, rid)
	l.IncreaseSize(1)
}

// RemoveAt deletes the slot, shifting later slots left.
func (l BPlusTreeLeafPage[K]) RemoveAt(index int) {
	l.copySlots(index, index+1, l.GetSize()-index-1)
	l.IncreaseSize(-1)
}

// RemoveRecord deletes the key if present and returns the size after.
func (l BPlusTreeLeafPage[K]) RemoveRecord(key K, cmp basic.Comparator[K]) int {
	idx := l.KeyIndex(key, cmp)
	if idx < l.GetSize() && cmp(key, l.KeyAt(idx)) == 0 {
		l.RemoveAt(idx)
	}
	return l.GetSize()
}

// MoveHalfTo moves the upper half of the slots into the fresh right
// sibling and links it into the leaf chain. The old right neighbour's prev
// pointer is repaired through the buffer pool when one exists.
func (l BPlusTreeLeafPage[K]) MoveHalfTo(recipient BPlusTreeLeafPage[K], pool *buffer_pool.BufferPoolManager) error {
	keep := (l.GetMaxSize() + 1) / 2
	moved := l.GetSize() - keep
	copyLeafSlots(recipient, l, 0, keep, moved)
	recipient.SetSize(moved)
	l.SetSize(keep)

	oldNext := l.NextPageID()
	recipient.SetNextPageID(oldNext)
	recipient.SetPrevPageID(l.PageID())
	l.SetNextPageID(recipient.PageID())

	if oldNext.IsValid() {
		p, err := pool.FetchPage(oldNext)
		if err != nil {
			return err
		}
		LeafView[K](p, l.codec).SetPrevPageID(recipient.PageID())
		pool.UnpinPage(oldNext, true)
	}
	return nil
}

// MoveFirstToEndOf shifts this leaf's first slot onto the end of the left
// sibling. Used by redistribution when this leaf is the right sibling.
func (l BPlusTreeLeafPage[K]) MoveFirstToEndOf(recipient BPlusTreeLeafPage[K]) {
	key, rid := l.ItemAt(0)
	recipient.setItem(recipient.GetSize(), key, rid)
	recipient.IncreaseSize(1)
	l.RemoveAt(0)
}

// MoveLastToFrontOf shifts this leaf's last slot onto the front of the
// right sibling. Used by redistribution when this leaf is the left sibling.
func (l BPlusTreeLeafPage[K]) MoveLastToFrontOf(recipient BPlusTreeLeafPage[K]) {
	key, rid := l.ItemAt(l.GetSize() - 1)
	l.IncreaseSize(-1)
	recipient.InsertAt(0, key, rid)
}

// MergeIntoLeft appends every slot of this leaf to the left sibling. The
// caller repairs the leaf chain and the parent.
func (l BPlusTreeLeafPage[K]) MergeIntoLeft(recipient BPlusTreeLeafPage[K]) {
	copyLeafSlots(recipient, l, recipient.GetSize(), 0, l.GetSize())
	recipient.IncreaseSize(l.GetSize())
	l.SetSize(0)
}

// MergeIntoRight prepends every slot of this leaf to the right sibling.
func (l BPlusTreeLeafPage[K]) MergeIntoRight(recipient BPlusTreeLeafPage[K]) {
	recipient.copySlots(l.GetSize(), 0, recipient.GetSize())
	copyLeafSlots(recipient, l, 0, 0, l.GetSize())
	recipient.IncreaseSize(l.GetSize())
	l.SetSize(0)
}

// ToString renders the leaf for debugging.
func (l BPlusTreeLeafPage[K]) ToString() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "leaf[page=%d parent=%d size=%d prev=%d next=%d]",
		l.PageID(), l.ParentPageID(), l.GetSize(), l.PrevPageID(), l.NextPageID())
	for i := 0; i < l.GetSize(); i++ {
		k, rid := l.ItemAt(i)
		fmt.Fprintf(&sb, " %v->%s", k, rid)
	}
	return sb.String()
}
