package dfc

import (
	"fmt"
	"strings"
	"sync"
)

// AccessMode is a set of URI permissions.
type AccessMode int

const (
	AccessRead AccessMode = 1 << iota
	AccessWrite

	AccessReadWrite = AccessRead | AccessWrite
)

// ParseAccessMode parses "r", "w" or "rw".
func ParseAccessMode(s string) (AccessMode, error) {
	var mode AccessMode
	for _, c := range strings.ToLower(strings.TrimSpace(s)) {
		switch c {
		case 'r':
			mode |= AccessRead
		case 'w':
			mode |= AccessWrite
		default:
			return 0, fmt.Errorf("invalid access mode %q", s)
		}
	}
	if mode == 0 {
		return 0, fmt.Errorf("empty access mode")
	}
	return mode, nil
}

func (m AccessMode) String() string {
	var b strings.Builder
	if m&AccessRead != 0 {
		b.WriteByte('r')
	}
	if m&AccessWrite != 0 {
		b.WriteByte('w')
	}
	return b.String()
}

// grantTable holds the URI permissions granted to the caller. A grant on a
// tree URI covers every document URI reached through that tree; a grant on
// a document URI covers exactly that document.
// This implementation is safe for concurrent use.
type grantTable struct {
	mu     sync.RWMutex
	grants map[string]AccessMode
}

func newGrantTable() *grantTable {
	return &grantTable{grants: make(map[string]AccessMode)}
}

// grantKey returns the key under which a permission for u is stored.
func grantKey(u URI) string {
	if IsTreeURI(u) {
		return newContentURI(u.authority, pathTree, TreeDocumentID(u)).String()
	}
	return u.String()
}

func (g *grantTable) grant(u URI, mode AccessMode) {
	g.mu.Lock()
	defer g.mu.Unlock()
	key := grantKey(u)
	g.grants[key] |= mode
}

func (g *grantTable) revoke(u URI, mode AccessMode) {
	g.mu.Lock()
	defer g.mu.Unlock()
	key := grantKey(u)
	remaining := g.grants[key] &^ mode
	if remaining == 0 {
		delete(g.grants, key)
		return
	}
	g.grants[key] = remaining
}

func (g *grantTable) check(u URI, mode AccessMode) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.grants[grantKey(u)]&mode == mode
}

// list returns the granted URIs and their modes.
func (g *grantTable) list() map[string]AccessMode {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make(map[string]AccessMode, len(g.grants))
	for k, v := range g.grants {
		out[k] = v
	}
	return out
}
