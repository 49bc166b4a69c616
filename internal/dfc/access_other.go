//go:build !unix

package dfc

import "github.com/spf13/afero"

func canAccess(fs afero.Fs, path string, mode AccessMode) bool {
	return canAccessByMode(fs, path, mode)
}
