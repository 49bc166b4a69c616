//go:build unix

package dfc

import (
	"github.com/spf13/afero"
	"golang.org/x/sys/unix"
)

// canAccess asks the kernel on the host filesystem and falls back to
// permission bits for other filesystems.
func canAccess(fs afero.Fs, path string, mode AccessMode) bool {
	if _, ok := fs.(*afero.OsFs); ok {
		var how uint32
		if mode&AccessRead != 0 {
			how |= unix.R_OK
		}
		if mode&AccessWrite != 0 {
			how |= unix.W_OK
		}
		return unix.Access(path, how) == nil
	}
	return canAccessByMode(fs, path, mode)
}
