package gitlib

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	git2go "github.com/libgit2/git2go/v34"
	"github.com/stretchr/testify/require"
)

// TestRepo builds throwaway git repositories for tests. It lives in the
// main package so the analysis packages can construct real histories in
// their integration tests.
type TestRepo struct {
	T      *testing.T
	Path   string
	native *git2go.Repository
}

// NewTestRepo initializes an empty repository under t.TempDir().
func NewTestRepo(t *testing.T) *TestRepo {
	t.Helper()

	dir := t.TempDir()

	repo, err := git2go.InitRepository(dir, false)
	require.NoError(t, err)

	t.Cleanup(repo.Free)

	return &TestRepo{T: t, Path: dir, native: repo}
}

// Repository opens the test repository through the gitlib wrapper.
func (tr *TestRepo) Repository() *Repository {
	tr.T.Helper()

	repo, err := OpenRepository(tr.Path)
	require.NoError(tr.T, err)

	tr.T.Cleanup(repo.Free)

	return repo
}

// WriteFile creates or overwrites a file in the working directory.
func (tr *TestRepo) WriteFile(name, content string) {
	tr.T.Helper()

	path := filepath.Join(tr.Path, name)

	err := os.MkdirAll(filepath.Dir(path), 0o755)
	require.NoError(tr.T, err)

	err = os.WriteFile(path, []byte(content), 0o644)
	require.NoError(tr.T, err)
}

// RemoveFile deletes a file from the working directory.
func (tr *TestRepo) RemoveFile(name string) {
	tr.T.Helper()

	err := os.Remove(filepath.Join(tr.Path, name))
	require.NoError(tr.T, err)
}

// Commit stages everything and commits it with the given author name and
// timestamp. Fixed timestamps keep checkpoint selection deterministic.
func (tr *TestRepo) Commit(message, author string, when time.Time) Hash {
	tr.T.Helper()

	index, err := tr.native.Index()
	require.NoError(tr.T, err)

	defer index.Free()

	err = index.AddAll([]string{"*"}, git2go.IndexAddDefault, nil)
	require.NoError(tr.T, err)

	// AddAll stages new and modified files; UpdateAll stages deletions.
	err = index.UpdateAll([]string{"*"}, nil)
	require.NoError(tr.T, err)

	err = index.Write()
	require.NoError(tr.T, err)

	treeID, err := index.WriteTree()
	require.NoError(tr.T, err)

	tree, err := tr.native.LookupTree(treeID)
	require.NoError(tr.T, err)

	defer tree.Free()

	sig := &git2go.Signature{
		Name:  author,
		Email: author + "@example.com",
		When:  when,
	}

	var parents []*git2go.Commit

	head, headErr := tr.native.Head()
	if headErr == nil {
		parent, lookupErr := tr.native.LookupCommit(head.Target())
		require.NoError(tr.T, lookupErr)

		defer parent.Free()
		head.Free()

		parents = append(parents, parent)
	}

	oid, err := tr.native.CreateCommit("HEAD", sig, sig, message, tree, parents...)
	require.NoError(tr.T, err)

	return HashFromOid(oid)
}
