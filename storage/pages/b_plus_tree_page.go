// Package pages implements the byte-level node layouts the index stores
// inside buffer pool frames: the shared node header, leaf and internal
// entry arrays, and the header (catalog) page.
package pages

import (
	"github.com/zhukovaskychina/xmysql-storage/storage/buffer_pool"
	"github.com/zhukovaskychina/xmysql-storage/storage/common"
	"github.com/zhukovaskychina/xmysql-storage/util"
)

// IndexPageType tags the node kind stored in a page.
type IndexPageType uint32

const (
	InvalidIndexPage IndexPageType = iota
	LeafPage
	InternalPage
)

// Shared node header layout. Fixed-width little-endian fields in
// declaration order, no padding.
const (
	offPageType     = 0
	offSize         = 4
	offMaxSize      = 8
	offParentPageID = 12
	offPageID       = 16
	offLSN          = 20

	// SharedHeaderSize 节点公共头部大小
	SharedHeaderSize = 24
)

// BPlusTreePage views the shared header of a node page. Leaf and internal
// views embed it; code picks the concrete view after checking PageType.
type BPlusTreePage struct {
	data []byte
}

// View wraps a frame's bytes in a shared header view.
func View(p *buffer_pool.Page) BPlusTreePage {
	return BPlusTreePage{data: p.Data()}
}

// PageType returns the node kind tag.
func (b BPlusTreePage) PageType() IndexPageType {
	return IndexPageType(util.ReadUInt4(b.data, offPageType))
}

// SetPageType writes the node kind tag.
func (b BPlusTreePage) SetPageType(t IndexPageType) {
	util.WriteUInt4(b.data, offPageType, uint32(t))
}

// IsLeafPage reports whether the page holds a leaf node.
func (b BPlusTreePage) IsLeafPage() bool {
	return b.PageType() == LeafPage
}

// IsRootPage reports whether the node has no parent.
func (b BPlusTreePage) IsRootPage() bool {
	return b.ParentPageID() == common.InvalidPageID
}

// GetSize returns the number of stored entries.
func (b BPlusTreePage) GetSize() int {
	return int(util.ReadInt4(b.data, offSize))
}

// SetSize writes the entry count.
func (b BPlusTreePage) SetSize(size int) {
	util.WriteInt4(b.data, offSize, int32(size))
}

// IncreaseSize adjusts the entry count by amount.
func (b BPlusTreePage) IncreaseSize(amount int) {
	b.SetSize(b.GetSize() + amount)
}

// GetMaxSize returns the entry capacity before a split is forced.
func (b BPlusTreePage) GetMaxSize() int {
	return int(util.ReadInt4(b.data, offMaxSize))
}

// SetMaxSize writes the entry capacity.
func (b BPlusTreePage) SetMaxSize(size int) {
	util.WriteInt4(b.data, offMaxSize, int32(size))
}

// GetMinSize returns the underflow threshold: half capacity rounded up for
// ordinary nodes, 1 for a root leaf and 2 for a root internal node.
func (b BPlusTreePage) GetMinSize() int {
	if b.IsRootPage() {
		if b.IsLeafPage() {
			return 1
		}
		return 2
	}
	return (b.GetMaxSize() + 1) / 2
}

// ParentPageID returns the parent node's page id.
func (b BPlusTreePage) ParentPageID() common.PageID {
	return common.PageID(util.ReadInt4(b.data, offParentPageID))
}

// SetParentPageID writes the parent node's page id.
func (b BPlusTreePage) SetParentPageID(id common.PageID) {
	util.WriteInt4(b.data, offParentPageID, int32(id))
}

// PageID returns the node's own page id as recorded in the header.
func (b BPlusTreePage) PageID() common.PageID {
	return common.PageID(util.ReadInt4(b.data, offPageID))
}

// SetPageID writes the node's own page id.
func (b BPlusTreePage) SetPageID(id common.PageID) {
	util.WriteInt4(b.data, offPageID, int32(id))
}

// LSN returns the node's log sequence number. Unused until logging exists.
func (b BPlusTreePage) LSN() common.LSN {
	return common.LSN(util.ReadInt4(b.data, offLSN))
}

// SetLSN writes the node's log sequence number.
func (b BPlusTreePage) SetLSN(lsn common.LSN) {
	util.WriteInt4(b.data, offLSN, int32(lsn))
}

func (b BPlusTreePage) initHeader(t IndexPageType, pageID, parentID common.PageID, maxSize int) {
	b.SetPageType(t)
	b.SetSize(0)
	b.SetMaxSize(maxSize)
	b.SetParentPageID(parentID)
	b.SetPageID(pageID)
	b.SetLSN(common.InvalidLSN)
}
