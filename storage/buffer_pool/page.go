package buffer_pool

import (
	"github.com/zhukovaskychina/xmysql-storage/storage/common"
)

// Page is one buffer pool frame. The frame is the in-memory home of at most
// one on-disk page at a time; pageID carries the on-disk identity. All
// mutation happens under the pool latch, so the accessors do not lock.
type Page struct {
	// 页面内容
	data [common.PageSize]byte

	pageID   common.PageID
	pinCount int32
	dirty    bool
}

func newPage() *Page {
	return &Page{pageID: common.InvalidPageID}
}

// Data returns the page content. The slice aliases the frame memory.
func (p *Page) Data() []byte {
	return p.data[:]
}

// ID returns the on-disk identity of the resident page.
func (p *Page) ID() common.PageID {
	return p.pageID
}

// PinCount returns the number of live references to this frame.
func (p *Page) PinCount() int {
	return int(p.pinCount)
}

// IsDirty reports whether the frame differs from its on-disk image.
func (p *Page) IsDirty() bool {
	return p.dirty
}

// SetDirty marks the frame as modified.
func (p *Page) SetDirty(dirty bool) {
	p.dirty = dirty
}

// ResetMemory zeroes the frame content.
func (p *Page) ResetMemory() {
	for i := range p.data {
		p.data[i] = 0
	}
}

// reset clears the frame back to its never-used state.
func (p *Page) reset() {
	p.ResetMemory()
	p.pageID = common.InvalidPageID
	p.pinCount = 0
	p.dirty = false
}
