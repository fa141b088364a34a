package buffer_pool

import (
	"container/list"
	"sync"
	"sync/atomic"

	"github.com/zhukovaskychina/xmysql-storage/logger"
	"github.com/zhukovaskychina/xmysql-storage/storage/basic"
	"github.com/zhukovaskychina/xmysql-storage/storage/common"
	"github.com/zhukovaskychina/xmysql-storage/storage/hash"
)

const (
	// DEFAULT_POOL_SIZE 默认缓冲池大小（页数）
	DEFAULT_POOL_SIZE = 64
)

// BufferPoolManager owns a fixed set of frames, the page table mapping
// resident page ids to frames, the LRU replacer and the free list. A single
// coarse latch serialises every operation.
//
// Frame state invariants:
//   - a frame with pinCount > 0 is in neither the replacer nor the free list
//   - a resident frame with pinCount == 0 is in the replacer
//   - a non-resident frame is in the free list
//   - a page table entry exists iff its frame is resident
type BufferPoolManager struct {
	mu sync.Mutex

	poolSize int
	frames   []*Page

	pageTable *hash.ExtendibleHash[common.PageID, *Page]
	replacer  *LRUReplacer[*Page]
	freeList  *list.List

	disk basic.DiskManager

	// Statistics
	hitCount  uint64
	missCount uint64
}

// NewBufferPoolManager creates a pool of poolSize frames over the given
// disk manager. Every frame starts on the free list.
func NewBufferPoolManager(poolSize int, bucketSize int, disk basic.DiskManager) *BufferPoolManager {
	if poolSize <= 0 {
		poolSize = DEFAULT_POOL_SIZE
	}
	m := &BufferPoolManager{
		poolSize:  poolSize,
		frames:    make([]*Page, poolSize),
		pageTable: hash.NewExtendibleHash[common.PageID, *Page](bucketSize, hash.PageIDHasher),
		replacer:  NewLRUReplacer[*Page](),
		freeList:  list.New(),
		disk:      disk,
	}
	for i := 0; i < poolSize; i++ {
		m.frames[i] = newPage()
		m.freeList.PushBack(m.frames[i])
	}
	return m
}

// FetchPage pins the page and returns its frame, reading it from disk after
// evicting a victim when it is not resident.
func (m *BufferPoolManager) FetchPage(pageID common.PageID) (*Page, error) {
	if !pageID.IsValid() {
		return nil, basic.ErrInvalidPageID
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if p, ok := m.pageTable.Find(pageID); ok {
		if p.pinCount == 0 {
			m.replacer.Erase(p)
		}
		p.pinCount++
		atomic.AddUint64(&m.hitCount, 1)
		return p, nil
	}
	atomic.AddUint64(&m.missCount, 1)

	p, err := m.obtainFrame()
	if err != nil {
		return nil, err
	}
	if err := m.disk.ReadPage(pageID, p.data[:]); err != nil {
		m.freeList.PushBack(p)
		return nil, err
	}
	p.pageID = pageID
	p.pinCount = 1
	p.dirty = false
	m.pageTable.Insert(pageID, p)
	return p, nil
}

// NewPage allocates a fresh on-disk page, pins a zeroed frame for it and
// returns the frame. The new page id is carried by the frame.
func (m *BufferPoolManager) NewPage() (*Page, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.freeList.Len() == 0 && m.replacer.Size() == 0 {
		return nil, basic.ErrBufferPoolFull
	}

	pageID := m.disk.AllocatePage()
	p, err := m.obtainFrame()
	if err != nil {
		return nil, err
	}
	p.ResetMemory()
	p.pageID = pageID
	p.pinCount = 1
	p.dirty = false
	m.pageTable.Insert(pageID, p)
	return p, nil
}

// obtainFrame takes a frame from the free list, or evicts the LRU victim,
// writing it back first when dirty. Caller holds the latch.
func (m *BufferPoolManager) obtainFrame() (*Page, error) {
	if front := m.freeList.Front(); front != nil {
		m.freeList.Remove(front)
		return front.Value.(*Page), nil
	}

	p, ok := m.replacer.Victim()
	if !ok {
		return nil, basic.ErrBufferPoolFull
	}
	if p.dirty {
		if err := m.disk.WritePage(p.pageID, p.data[:]); err != nil {
			// Put the victim back; evicting without the write-back
			// would lose the page.
			m.replacer.Insert(p)
			return nil, err
		}
		p.dirty = false
	}
	m.pageTable.Remove(p.pageID)
	return p, nil
}

// UnpinPage drops one reference to the page. When the pin count reaches
// zero the frame becomes eligible for eviction. A true dirty hint sticks;
// unpinning clean never clears an earlier dirty mark.
func (m *BufferPoolManager) UnpinPage(pageID common.PageID, dirty bool) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.pageTable.Find(pageID)
	if !ok || p.pinCount <= 0 {
		return false
	}
	p.pinCount--
	if p.pinCount == 0 {
		m.replacer.Insert(p)
	}
	if dirty {
		p.dirty = true
	}
	return true
}

// FlushPage writes the resident page back to disk. Pin count, dirty flag
// and replacer membership are untouched.
func (m *BufferPoolManager) FlushPage(pageID common.PageID) bool {
	if !pageID.IsValid() {
		return false
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.pageTable.Find(pageID)
	if !ok {
		return false
	}
	if err := m.disk.WritePage(pageID, p.data[:]); err != nil {
		logger.Errorf("flush page %d: %v", pageID, err)
		return false
	}
	return true
}

// FlushAll writes every resident dirty frame back to disk. Called on
// shutdown.
func (m *BufferPoolManager) FlushAll() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, p := range m.frames {
		if p.pageID.IsValid() && p.dirty {
			if err := m.disk.WritePage(p.pageID, p.data[:]); err != nil {
				logger.Errorf("flush page %d: %v", p.pageID, err)
			}
		}
	}
}

// DeletePage drops the page from the pool and deallocates it on disk. A
// pinned page cannot be deleted. The freed frame goes back to the free
// list.
func (m *BufferPoolManager) DeletePage(pageID common.PageID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if p, ok := m.pageTable.Find(pageID); ok {
		if p.pinCount != 0 {
			return false
		}
		m.pageTable.Remove(pageID)
		m.replacer.Erase(p)
		p.reset()
		m.freeList.PushBack(p)
	}
	m.disk.DeallocatePage(pageID)
	return true
}

// PoolSize returns the number of frames.
func (m *BufferPoolManager) PoolSize() int {
	return m.poolSize
}

// PinnedCount returns the number of frames with a positive pin count. A
// quiescent pool reports zero.
func (m *BufferPoolManager) PinnedCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for _, p := range m.frames {
		if p.pinCount > 0 {
			n++
		}
	}
	return n
}

// HitRate returns the page table hit ratio.
func (m *BufferPoolManager) HitRate() float64 {
	hits := atomic.LoadUint64(&m.hitCount)
	total := hits + atomic.LoadUint64(&m.missCount)
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total)
}
