package pages

import (
	"bytes"

	"github.com/zhukovaskychina/xmysql-storage/storage/buffer_pool"
	"github.com/zhukovaskychina/xmysql-storage/storage/common"
	"github.com/zhukovaskychina/xmysql-storage/util"
)

// The header page is the reserved catalog at page id 0: a record count
// followed by fixed-width (index name, root page id) records. Indexes
// persist their root here every time it changes.
const (
	headerCountOffset  = 0
	headerRecordOffset = 4

	// HeaderNameSize 索引名最大长度
	HeaderNameSize = 32

	headerRecordSize = HeaderNameSize + 4

	// HeaderMaxRecords is how many index records one page holds.
	HeaderMaxRecords = (common.PageSize - headerRecordOffset) / headerRecordSize
)

// HeaderPage views the catalog page.
type HeaderPage struct {
	data []byte
}

// HeaderView wraps a frame's bytes in a header page view.
func HeaderView(p *buffer_pool.Page) HeaderPage {
	return HeaderPage{data: p.Data()}
}

// Init formats an empty catalog.
func (h HeaderPage) Init() {
	util.WriteInt4(h.data, headerCountOffset, 0)
}

// RecordCount returns the number of catalog records.
func (h HeaderPage) RecordCount() int {
	return int(util.ReadInt4(h.data, headerCountOffset))
}

func (h HeaderPage) setRecordCount(n int) {
	util.WriteInt4(h.data, headerCountOffset, int32(n))
}

func (h HeaderPage) recordOffset(i int) int {
	return headerRecordOffset + i*headerRecordSize
}

func (h HeaderPage) nameAt(i int) []byte {
	off := h.recordOffset(i)
	raw := h.data[off : off+HeaderNameSize]
	if idx := bytes.IndexByte(raw, 0); idx >= 0 {
		return raw[:idx]
	}
	return raw
}

func (h HeaderPage) find(name string) int {
	for i := 0; i < h.RecordCount(); i++ {
		if string(h.nameAt(i)) == name {
			return i
		}
	}
	return -1
}

// InsertRecord adds a catalog record. It fails on a duplicate name, an
// over-long name, or a full page.
func (h HeaderPage) InsertRecord(name string, rootPageID common.PageID) bool {
	if len(name) == 0 || len(name) > HeaderNameSize {
		return false
	}
	if h.find(name) >= 0 {
		return false
	}
	n := h.RecordCount()
	if n >= HeaderMaxRecords {
		return false
	}
	off := h.recordOffset(n)
	for i := 0; i < HeaderNameSize; i++ {
		h.data[off+i] = 0
	}
	copy(h.data[off:off+HeaderNameSize], name)
	util.WriteInt4(h.data, off+HeaderNameSize, int32(rootPageID))
	h.setRecordCount(n + 1)
	return true
}

// UpdateRecord rewrites the root page id of an existing record.
func (h HeaderPage) UpdateRecord(name string, rootPageID common.PageID) bool {
	i := h.find(name)
	if i < 0 {
		return false
	}
	util.WriteInt4(h.data, h.recordOffset(i)+HeaderNameSize, int32(rootPageID))
	return true
}

// DeleteRecord removes a record, compacting the tail.
func (h HeaderPage) DeleteRecord(name string) bool {
	i := h.find(name)
	if i < 0 {
		return false
	}
	n := h.RecordCount()
	copy(h.data[h.recordOffset(i):h.recordOffset(n)],
		h.data[h.recordOffset(i+1):h.recordOffset(n)])
	h.setRecordCount(n - 1)
	return true
}

// GetRootID looks a named index's root page id up.
func (h HeaderPage) GetRootID(name string) (common.PageID, bool) {
	i := h.find(name)
	if i < 0 {
		return common.InvalidPageID, false
	}
	return common.PageID(util.ReadInt4(h.data, h.recordOffset(i)+HeaderNameSize)), true
}
