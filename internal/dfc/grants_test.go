package dfc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAccessMode(t *testing.T) {
	tests := []struct {
		in      string
		want    AccessMode
		wantErr bool
	}{
		{"r", AccessRead, false},
		{"w", AccessWrite, false},
		{"rw", AccessReadWrite, false},
		{"WR", AccessReadWrite, false},
		{"", 0, true},
		{"x", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseAccessMode(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
	assert.Equal(t, "rw", AccessReadWrite.String())
}

func TestGrantTable(t *testing.T) {
	g := newGrantTable()
	tree := BuildTreeDocumentURI("a", "t")
	single := BuildDocumentURI("a", "d")

	g.grant(tree, AccessRead)
	g.grant(single, AccessReadWrite)

	assert.True(t, g.check(BuildDocumentURIUsingTree(tree, "child"), AccessRead), "tree grant covers its documents")
	assert.False(t, g.check(BuildDocumentURIUsingTree(tree, "child"), AccessWrite))
	assert.False(t, g.check(BuildTreeDocumentURI("a", "other"), AccessRead))
	assert.False(t, g.check(BuildDocumentURI("a", "child"), AccessRead), "tree grant does not cover direct document uris")
	assert.True(t, g.check(single, AccessReadWrite))

	g.revoke(single, AccessWrite)
	assert.True(t, g.check(single, AccessRead))
	assert.False(t, g.check(single, AccessWrite))

	g.revoke(single, AccessRead)
	assert.Len(t, g.list(), 1)
}
