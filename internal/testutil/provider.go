package testutil

import (
	"testing"

	"github.com/spf13/afero"

	"dfc-go/internal/dfc"
	"dfc-go/internal/provider/memory"
)

// TestAuthority is the authority of the provider built by NewTestTree.
const TestAuthority = "com.example.test"

// TestTree bundles a resolver with one registered in-memory provider whose
// root tree is granted read/write.
type TestTree struct {
	Resolver *dfc.ContentResolver
	Provider *memory.MemoryProvider
	Logger   *RecordingLogger
	Fs       afero.Fs
	TreeURI  dfc.URI
}

// NewTestTree builds a TestTree backed by an in-memory filesystem.
func NewTestTree(t *testing.T) *TestTree {
	t.Helper()

	logger := NewRecordingLogger()
	fs := afero.NewMemMapFs()
	r := dfc.NewContentResolver(logger, fs)
	p := memory.NewMemoryProvider(TestAuthority)
	r.Register(p)

	treeURI := dfc.BuildTreeDocumentURI(TestAuthority, memory.RootID)
	r.Grant(treeURI, dfc.AccessReadWrite)

	return &TestTree{Resolver: r, Provider: p, Logger: logger, Fs: fs, TreeURI: treeURI}
}

// DocumentURI returns the tree-scoped URI of documentID.
func (tt *TestTree) DocumentURI(documentID string) dfc.URI {
	return dfc.BuildDocumentURIUsingTree(tt.TreeURI, documentID)
}

// MustAddFile adds a file under parentID and fails the test on error.
func (tt *TestTree) MustAddFile(t *testing.T, parentID, name, mimeType string, content []byte) string {
	t.Helper()
	id, err := tt.Provider.AddFile(parentID, name, mimeType, content)
	if err != nil {
		t.Fatalf("adding file %s: %v", name, err)
	}
	return id
}

// MustAddDirectory adds a directory under parentID and fails the test on error.
func (tt *TestTree) MustAddDirectory(t *testing.T, parentID, name string) string {
	t.Helper()
	id, err := tt.Provider.AddDirectory(parentID, name)
	if err != nil {
		t.Fatalf("adding directory %s: %v", name, err)
	}
	return id
}
