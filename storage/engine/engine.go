// Package engine assembles the storage core: configuration, disk manager,
// buffer pool and the header-page catalog of named B+Tree indexes.
package engine

import (
	"sync"

	"github.com/juju/errors"
	"github.com/zhukovaskychina/xmysql-storage/conf"
	"github.com/zhukovaskychina/xmysql-storage/logger"
	"github.com/zhukovaskychina/xmysql-storage/storage/basic"
	"github.com/zhukovaskychina/xmysql-storage/storage/buffer_pool"
	"github.com/zhukovaskychina/xmysql-storage/storage/common"
	"github.com/zhukovaskychina/xmysql-storage/storage/disk"
	"github.com/zhukovaskychina/xmysql-storage/storage/index"
	"github.com/zhukovaskychina/xmysql-storage/storage/pages"
)

// Engine owns the disk manager and buffer pool for one database file and
// mediates catalog access to the header page.
type Engine struct {
	mu sync.Mutex

	cfg  *conf.StorageConfig
	disk *disk.FileDiskManager
	pool *buffer_pool.BufferPoolManager

	closed bool
}

// Open brings the engine up against the configured data file, formatting
// the header page when the file is fresh.
func Open(cfg *conf.StorageConfig) (*Engine, error) {
	if cfg == nil {
		cfg = conf.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	if err := logger.Init(&logger.LogConfig{LogPath: cfg.LogPath, LogLevel: cfg.LogLevel}); err != nil {
		return nil, errors.Annotate(err, "init logger")
	}

	dm, err := disk.NewFileDiskManager(cfg.DataFilePath())
	if err != nil {
		return nil, errors.Annotatef(err, "open data file %s", cfg.DataFilePath())
	}
	dm.SetSyncOnWrite(cfg.SyncOnWrite)

	e := &Engine{
		cfg:  cfg,
		disk: dm,
		pool: buffer_pool.NewBufferPoolManager(cfg.PoolSize, cfg.BucketSize, dm),
	}

	if dm.NumPages() == 0 {
		if err := e.formatHeaderPage(); err != nil {
			dm.Close()
			return nil, errors.Trace(err)
		}
	}
	logger.Infof("storage engine opened, data=%s pool=%d pages",
		cfg.DataFilePath(), cfg.PoolSize)
	return e, nil
}

// formatHeaderPage allocates page 0 on a fresh file and writes the empty
// catalog.
func (e *Engine) formatHeaderPage() error {
	p, err := e.pool.NewPage()
	if err != nil {
		return errors.Annotate(err, "allocate header page")
	}
	if p.ID() != common.HeaderPageID {
		return errors.Errorf("header page allocated as %d, want %d", p.ID(), common.HeaderPageID)
	}
	pages.HeaderView(p).Init()
	e.pool.UnpinPage(p.ID(), true)
	if !e.pool.FlushPage(common.HeaderPageID) {
		return errors.New("flush header page")
	}
	return nil
}

// Pool exposes the buffer pool to index handles and tests.
func (e *Engine) Pool() *buffer_pool.BufferPoolManager {
	return e.pool
}

// Disk exposes the disk manager.
func (e *Engine) Disk() *disk.FileDiskManager {
	return e.disk
}

// rootOf reads the catalog record of a named index.
func (e *Engine) rootOf(name string) (common.PageID, bool, error) {
	p, err := e.pool.FetchPage(common.HeaderPageID)
	if err != nil {
		return common.InvalidPageID, false, errors.Annotate(err, "fetch header page")
	}
	root, ok := pages.HeaderView(p).GetRootID(name)
	e.pool.UnpinPage(common.HeaderPageID, false)
	return root, ok, nil
}

// registerIndex inserts a catalog record for a new index.
func (e *Engine) registerIndex(name string) error {
	p, err := e.pool.FetchPage(common.HeaderPageID)
	if err != nil {
		return errors.Annotate(err, "fetch header page")
	}
	ok := pages.HeaderView(p).InsertRecord(name, common.InvalidPageID)
	e.pool.UnpinPage(common.HeaderPageID, ok)
	if !ok {
		return errors.Errorf("register index %q: duplicate name or catalog full", name)
	}
	return nil
}

// CreateIndex registers a named index in the catalog and returns an empty
// B+Tree handle for it.
func CreateIndex[K any](e *Engine, name string, codec basic.KeyCodec[K],
	cmp basic.Comparator[K]) (*index.BPlusTree[K], error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.registerIndex(name); err != nil {
		return nil, errors.Trace(err)
	}
	logger.Infof("created index %q", name)
	return index.NewBPlusTree[K](name, e.pool, codec, cmp, common.InvalidPageID), nil
}

// OpenIndex returns a handle for an index already in the catalog.
func OpenIndex[K any](e *Engine, name string, codec basic.KeyCodec[K],
	cmp basic.Comparator[K]) (*index.BPlusTree[K], error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	root, ok, err := e.rootOf(name)
	if err != nil {
		return nil, errors.Trace(err)
	}
	if !ok {
		return nil, errors.Annotatef(basic.ErrIndexNotFound, "index %q", name)
	}
	return index.NewBPlusTree[K](name, e.pool, codec, cmp, root), nil
}

// Close flushes dirty frames per configuration and closes the data file.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil
	}
	e.closed = true
	if e.cfg.FlushOnClose {
		e.pool.FlushAll()
	}
	logger.Infof("storage engine closed, data=%s", e.cfg.DataFilePath())
	return errors.Trace(e.disk.Close())
}
