//go:build linux

package disk

import (
	"os"

	"golang.org/x/sys/unix"
)

// fdatasync flushes file data without forcing a metadata write.
func fdatasync(f *os.File) error {
	return unix.Fdatasync(int(f.Fd()))
}
