package disk

import (
	"io"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"
	"github.com/zhukovaskychina/xmysql-storage/logger"
	"github.com/zhukovaskychina/xmysql-storage/storage/common"
)

// FileDiskManager is the file-backed disk manager: one database file, read
// and written in units of common.PageSize at offset pageID*PageSize.
// Page ids are handed out monotonically; page 0 is reserved for the header
// page and allocated like any other page on a fresh file.
type FileDiskManager struct {
	mu sync.Mutex

	file *os.File
	path string

	// nextPageID 下一个可分配页号
	nextPageID common.PageID

	syncOnWrite bool

	// Statistics
	numReads       uint64
	numWrites      uint64
	numAllocated   uint64
	numDeallocated uint64
}

// NewFileDiskManager opens (creating if absent) the database file at path.
func NewFileDiskManager(path string) (*FileDiskManager, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.Wrapf(err, "create data dir for %s", path)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, errors.Wrapf(err, "open db file %s", path)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, errors.Wrapf(err, "stat db file %s", path)
	}

	dm := &FileDiskManager{
		file:       f,
		path:       path,
		nextPageID: common.PageID(info.Size() / common.PageSize),
	}
	logger.Debugf("disk manager opened %s, %d pages", path, dm.nextPageID)
	return dm, nil
}

// SetSyncOnWrite makes every WritePage durable before returning.
func (dm *FileDiskManager) SetSyncOnWrite(sync bool) {
	dm.syncOnWrite = sync
}

// ReadPage reads one page into data. A read past the current end of file
// returns a zero-filled page; the page comes into existence on first write.
func (dm *FileDiskManager) ReadPage(pageID common.PageID, data []byte) error {
	if !pageID.IsValid() {
		return errors.Wrapf(os.ErrInvalid, "read page %d", pageID)
	}
	dm.mu.Lock()
	defer dm.mu.Unlock()

	offset := int64(pageID) * common.PageSize
	n, err := dm.file.ReadAt(data[:common.PageSize], offset)
	if err != nil && err != io.EOF {
		return errors.Wrapf(err, "read page %d of %s", pageID, dm.path)
	}
	for i := n; i < common.PageSize; i++ {
		data[i] = 0
	}
	atomic.AddUint64(&dm.numReads, 1)
	return nil
}

// WritePage writes one page at the page's file offset.
func (dm *FileDiskManager) WritePage(pageID common.PageID, data []byte) error {
	if !pageID.IsValid() {
		return errors.Wrapf(os.ErrInvalid, "write page %d", pageID)
	}
	dm.mu.Lock()
	defer dm.mu.Unlock()

	offset := int64(pageID) * common.PageSize
	if _, err := dm.file.WriteAt(data[:common.PageSize], offset); err != nil {
		return errors.Wrapf(err, "write page %d of %s", pageID, dm.path)
	}
	if dm.syncOnWrite {
		if err := fdatasync(dm.file); err != nil {
			return errors.Wrapf(err, "sync page %d of %s", pageID, dm.path)
		}
	}
	atomic.AddUint64(&dm.numWrites, 1)
	return nil
}

// AllocatePage reserves a fresh page id.
func (dm *FileDiskManager) AllocatePage() common.PageID {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	id := dm.nextPageID
	dm.nextPageID++
	atomic.AddUint64(&dm.numAllocated, 1)
	return id
}

// DeallocatePage records that a page id was freed. Freed ids are not
// recycled; only the count is tracked.
func (dm *FileDiskManager) DeallocatePage(pageID common.PageID) {
	atomic.AddUint64(&dm.numDeallocated, 1)
}

// Sync forces file contents to stable storage.
func (dm *FileDiskManager) Sync() error {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	return errors.Wrapf(fdatasync(dm.file), "sync %s", dm.path)
}

// NumPages returns the number of pages ever allocated for this file.
func (dm *FileDiskManager) NumPages() int {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	return int(dm.nextPageID)
}

// Path returns the database file path.
func (dm *FileDiskManager) Path() string {
	return dm.path
}

// Stats returns read/write/allocation counters.
func (dm *FileDiskManager) Stats() map[string]uint64 {
	return map[string]uint64{
		"reads":       atomic.LoadUint64(&dm.numReads),
		"writes":      atomic.LoadUint64(&dm.numWrites),
		"allocated":   atomic.LoadUint64(&dm.numAllocated),
		"deallocated": atomic.LoadUint64(&dm.numDeallocated),
	}
}

// Close flushes and closes the database file.
func (dm *FileDiskManager) Close() error {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	if dm.file == nil {
		return nil
	}
	if err := fdatasync(dm.file); err != nil {
		logger.Errorf("sync on close of %s: %v", dm.path, err)
	}
	err := dm.file.Close()
	dm.file = nil
	return errors.Wrapf(err, "close %s", dm.path)
}
