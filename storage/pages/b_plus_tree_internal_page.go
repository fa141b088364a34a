package pages

import (
	"fmt"
	"strings"

	"github.com/zhukovaskychina/xmysql-storage/storage/basic"
	"github.com/zhukovaskychina/xmysql-storage/storage/buffer_pool"
	"github.com/zhukovaskychina/xmysql-storage/storage/common"
	"github.com/zhukovaskychina/xmysql-storage/util"
)

const childSize = 4

// BPlusTreeInternalPage views an internal node: the shared header followed
// by (key, child page id) slots. Slot 0's key is a "-infinity" sentinel and
// never read; child i covers keys in [key(i), key(i+1)).
type BPlusTreeInternalPage[K any] struct {
	BPlusTreePage
	codec basic.KeyCodec[K]
}

// InternalView wraps a frame's bytes in an internal node view.
func InternalView[K any](p *buffer_pool.Page, codec basic.KeyCodec[K]) BPlusTreeInternalPage[K] {
	return BPlusTreeInternalPage[K]{BPlusTreePage: View(p), codec: codec}
}

// InternalMaxSize derives the slot capacity from the page geometry.
func InternalMaxSize(keySize int) int {
	return (common.PageSize-SharedHeaderSize)/(keySize+childSize) - 1
}

// Init formats the page as an empty internal node.
func (n BPlusTreeInternalPage[K]) Init(pageID, parentID common.PageID) {
	n.initHeader(InternalPage, pageID, parentID, InternalMaxSize(n.codec.Size()))
}

func (n BPlusTreeInternalPage[K]) pairSize() int {
	return n.codec.Size() + childSize
}

func (n BPlusTreeInternalPage[K]) slotOffset(index int) int {
	return SharedHeaderSize + index*n.pairSize()
}

// KeyAt returns the key stored at the slot. Slot 0 holds the sentinel and
// its value is meaningless.
func (n BPlusTreeInternalPage[K]) KeyAt(index int) K {
	off := n.slotOffset(index)
	return n.codec.Decode(n.data[off : off+n.codec.Size()])
}

// SetKeyAt writes the key at the slot.
func (n BPlusTreeInternalPage[K]) SetKeyAt(index int, key K) {
	off := n.slotOffset(index)
	n.codec.Encode(n.data[off:off+n.codec.Size()], key)
}

// ValueAt returns the child page id at the slot.
func (n BPlusTreeInternalPage[K]) ValueAt(index int) common.PageID {
	return common.PageID(util.ReadInt4(n.data, n.slotOffset(index)+n.codec.Size()))
}

// SetValueAt writes the child page id at the slot.
func (n BPlusTreeInternalPage[K]) SetValueAt(index int, id common.PageID) {
	util.WriteInt4(n.data, n.slotOffset(index)+n.codec.Size(), int32(id))
}

// ValueIndex returns the slot holding the given child page id, or -1.
func (n BPlusTreeInternalPage[K]) ValueIndex(id common.PageID) int {
	for i := 0; i < n.GetSize(); i++ {
		if n.ValueAt(i) == id {
			return i
		}
	}
	return -1
}

func (n BPlusTreeInternalPage[K]) setEntry(index int, key K, id common.PageID) {
	n.SetKeyAt(index, key)
	n.SetValueAt(index, id)
}

func (n BPlusTreeInternalPage[K]) copySlots(dstIndex, srcIndex, count int) {
	if count <= 0 {
		return
	}
	dst := n.slotOffset(dstIndex)
	src := n.slotOffset(srcIndex)
	copy(n.data[dst:dst+count*n.pairSize()], n.data[src:src+count*n.pairSize()])
}

func copyInternalSlots[K any](dst, src BPlusTreeInternalPage[K], dstIndex, srcIndex, count int) {
	if count <= 0 {
		return
	}
	size := count * dst.pairSize()
	copy(dst.data[dst.slotOffset(dstIndex):dst.slotOffset(dstIndex)+size],
		src.data[src.slotOffset(srcIndex):src.slotOffset(srcIndex)+size])
}

// Lookup returns the child covering the key: the largest slot i >= 1 whose
// key is <= the given key, or slot 0 when every stored key is greater.
func (n BPlusTreeInternalPage[K]) Lookup(key K, cmp basic.Comparator[K]) common.PageID {
	begin, end := 1, n.GetSize()
	for begin < end {
		mid := begin + (end-begin)/2
		if cmp(key, n.KeyAt(mid)) >= 0 {
			begin = mid + 1
		} else {
			end = mid
		}
	}
	return n.ValueAt(begin - 1)
}

// PopulateNewRoot fills a fresh root with its first two children.
func (n BPlusTreeInternalPage[K]) PopulateNewRoot(oldChild common.PageID, key K, newChild common.PageID) {
	n.SetValueAt(0, oldChild)
	n.setEntry(1, key, newChild)
	n.SetSize(2)
}

// InsertNodeAfter places (key, newChild) immediately after the slot whose
// child is oldChild, returning the size after the insert.
func (n BPlusTreeInternalPage[K]) InsertNodeAfter(oldChild common.PageID, key K, newChild common.PageID) int {
	idx := n.ValueIndex(oldChild)
	n.copySlots(idx+2, idx+1, n.GetSize()-idx-1)
	n.setEntry(idx+1, key, newChild)
	n.IncreaseSize(1)
	return n.GetSize()
}

// RemoveAt deletes the slot, shifting later slots left.
func (n BPlusTreeInternalPage[K]) RemoveAt(index int) {
	n.copySlots(index, index+1, n.GetSize()-index-1)
	n.IncreaseSize(-1)
}

// MoveHalfTo moves the upper half of the slots into the fresh right
// sibling and re-parents every moved child through the buffer pool. The
// separator key that belongs above the sibling is the moved block's first
// key; the caller reads it before calling.
func (n BPlusTreeInternalPage[K]) MoveHalfTo(recipient BPlusTreeInternalPage[K], pool *buffer_pool.BufferPoolManager) error {
	keep := (n.GetMaxSize() + 1) / 2
	moved := n.GetSize() - keep
	copyInternalSlots(recipient, n, 0, keep, moved)
	recipient.SetSize(moved)
	n.SetSize(keep)
	return recipient.adoptChildren(0, moved, pool)
}

// adoptChildren updates parent pointers of the children in [from, to).
func (n BPlusTreeInternalPage[K]) adoptChildren(from, to int, pool *buffer_pool.BufferPoolManager) error {
	for i := from; i < to; i++ {
		childID := n.ValueAt(i)
		p, err := pool.FetchPage(childID)
		if err != nil {
			return err
		}
		View(p).SetParentPageID(n.PageID())
		pool.UnpinPage(childID, true)
	}
	return nil
}

// MoveFirstToEndOf shifts this node's first child onto the end of the left
// sibling, pulling the old separator down as the moved entry's key.
func (n BPlusTreeInternalPage[K]) MoveFirstToEndOf(recipient BPlusTreeInternalPage[K], separator K, pool *buffer_pool.BufferPoolManager) error {
	recipient.setEntry(recipient.GetSize(), separator, n.ValueAt(0))
	recipient.IncreaseSize(1)
	n.RemoveAt(0)
	return recipient.adoptChildren(recipient.GetSize()-1, recipient.GetSize(), pool)
}

// MoveLastToFrontOf shifts this node's last child onto the front of the
// right sibling; the old separator becomes the key above the sibling's
// previously-first child.
func (n BPlusTreeInternalPage[K]) MoveLastToFrontOf(recipient BPlusTreeInternalPage[K], separator K, pool *buffer_pool.BufferPoolManager) error {
	last := n.GetSize() - 1
	movedChild := n.ValueAt(last)
	n.IncreaseSize(-1)

	recipient.copySlots(1, 0, recipient.GetSize())
	recipient.SetValueAt(0, movedChild)
	recipient.SetKeyAt(1, separator)
	recipient.IncreaseSize(1)
	return recipient.adoptChildren(0, 1, pool)
}

// MergeIntoLeft appends this node's children to the left sibling, pulling
// the separator down above this node's first child.
func (n BPlusTreeInternalPage[K]) MergeIntoLeft(recipient BPlusTreeInternalPage[K], separator K, pool *buffer_pool.BufferPoolManager) error {
	base := recipient.GetSize()
	copyInternalSlots(recipient, n, base, 0, n.GetSize())
	recipient.SetKeyAt(base, separator)
	recipient.IncreaseSize(n.GetSize())
	moved := n.GetSize()
	n.SetSize(0)
	return recipient.adoptChildren(base, base+moved, pool)
}

// MergeIntoRight prepends this node's children to the right sibling,
// pulling the separator down above the sibling's previously-first child.
func (n BPlusTreeInternalPage[K]) MergeIntoRight(recipient BPlusTreeInternalPage[K], separator K, pool *buffer_pool.BufferPoolManager) error {
	moved := n.GetSize()
	recipient.copySlots(moved, 0, recipient.GetSize())
	copyInternalSlots(recipient, n, 0, 0, moved)
	recipient.SetKeyAt(moved, separator)
	recipient.IncreaseSize(moved)
	n.SetSize(0)
	return recipient.adoptChildren(0, moved, pool)
}

// ToString renders the node for debugging.
func (n BPlusTreeInternalPage[K]) ToString() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "internal[page=%d parent=%d size=%d]",
		n.PageID(), n.ParentPageID(), n.GetSize())
	for i := 0; i < n.GetSize(); i++ {
		if i == 0 {
			fmt.Fprintf(&sb, " (-inf)->%d", n.ValueAt(i))
		} else {
			fmt.Fprintf(&sb, " %v->%d", n.KeyAt(i), n.ValueAt(i))
		}
	}
	return sb.String()
}
