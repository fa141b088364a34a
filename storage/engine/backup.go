package engine

import (
	"io"
	"os"

	"github.com/golang/snappy"
	"github.com/juju/errors"
	"github.com/zhukovaskychina/xmysql-storage/logger"
)

// Backup flushes every dirty frame and streams a snappy-compressed
// snapshot of the data file to path. The snapshot is a point-in-time copy;
// writers must be quiescent for a consistent image.
func (e *Engine) Backup(path string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.pool.FlushAll()
	if err := e.disk.Sync(); err != nil {
		return errors.Annotate(err, "sync before backup")
	}

	src, err := os.Open(e.disk.Path())
	if err != nil {
		return errors.Annotate(err, "open data file for backup")
	}
	defer src.Close()

	dst, err := os.Create(path)
	if err != nil {
		return errors.Annotatef(err, "create backup file %s", path)
	}
	defer dst.Close()

	w := snappy.NewBufferedWriter(dst)
	n, err := io.Copy(w, src)
	if err != nil {
		return errors.Annotate(err, "copy backup")
	}
	if err := w.Close(); err != nil {
		return errors.Annotate(err, "finish backup stream")
	}
	logger.Infof("backup of %s written to %s (%d bytes raw)", e.disk.Path(), path, n)
	return nil
}

// RestoreBackup decompresses a snapshot produced by Backup into a data
// file at dstPath. The engine pointed at that file must not be open.
func RestoreBackup(srcPath, dstPath string) error {
	src, err := os.Open(srcPath)
	if err != nil {
		return errors.Annotatef(err, "open backup %s", srcPath)
	}
	defer src.Close()

	dst, err := os.Create(dstPath)
	if err != nil {
		return errors.Annotatef(err, "create data file %s", dstPath)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, snappy.NewReader(src)); err != nil {
		return errors.Annotate(err, "decompress backup")
	}
	return errors.Trace(dst.Sync())
}
