package dfc

import "github.com/spf13/afero"

// canAccessByMode checks the owner permission bits of path.
func canAccessByMode(fs afero.Fs, path string, mode AccessMode) bool {
	info, err := fs.Stat(path)
	if err != nil {
		return false
	}
	perm := info.Mode().Perm()
	if mode&AccessRead != 0 && perm&0400 == 0 {
		return false
	}
	if mode&AccessWrite != 0 && perm&0200 == 0 {
		return false
	}
	return true
}
