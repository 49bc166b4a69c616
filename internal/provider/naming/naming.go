// Package naming holds display-name rules shared by providers.
package naming

import (
	"fmt"
	"strings"
)

// Unique returns name, or name with " (n)" inserted before its extension
// when name is already taken.
func Unique(name string, taken map[string]bool) string {
	if !taken[name] {
		return name
	}
	base, ext := name, ""
	if i := strings.LastIndexByte(name, '.'); i > 0 {
		base, ext = name[:i], name[i:]
	}
	for n := 1; ; n++ {
		candidate := fmt.Sprintf("%s (%d)%s", base, n, ext)
		if !taken[candidate] {
			return candidate
		}
	}
}

// Valid reports whether name can be used as a display name: non-empty, not
// a relative path element, and free of separators.
func Valid(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	return !strings.ContainsAny(name, "/\x00")
}
