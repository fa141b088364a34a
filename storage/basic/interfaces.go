package basic

import (
	"github.com/zhukovaskychina/xmysql-storage/storage/common"
)

// DiskManager provides fixed-size paged I/O over the database file.
// Every buffer supplied to ReadPage/WritePage is exactly common.PageSize
// bytes long.
type DiskManager interface {
	// ReadPage reads one page into data. Reading past the current end of
	// file yields a zero-filled page.
	ReadPage(pageID common.PageID, data []byte) error

	// WritePage writes one page at the page's file offset.
	WritePage(pageID common.PageID, data []byte) error

	// AllocatePage reserves a fresh page id.
	AllocatePage() common.PageID

	// DeallocatePage returns a page id to the free pool.
	DeallocatePage(pageID common.PageID)

	// Close flushes and closes the underlying file.
	Close() error
}

// Comparator induces a total order on keys. The result is negative when
// a < b, zero when equal, positive when a > b.
type Comparator[K any] func(a, b K) int

// KeyCodec encodes fixed-width keys into page bytes. Size is constant for
// the lifetime of an index; the buffer passed to Encode/Decode is exactly
// Size() bytes of the slot.
type KeyCodec[K any] interface {
	Size() int
	Encode(buf []byte, key K)
	Decode(buf []byte) K
}
