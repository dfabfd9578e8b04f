package gitlib_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/theseus/pkg/gitlib"
)

const sampleHex = "a1b2c3d4e5f6a7b8c9d0a1b2c3d4e5f6a7b8c9d0"

func TestHashRoundTrip(t *testing.T) {
	t.Parallel()

	h := gitlib.NewHash(sampleHex)
	assert.Equal(t, sampleHex, h.String())
	assert.False(t, h.IsZero())

	var zero gitlib.Hash

	assert.True(t, zero.IsZero())
}

func TestHashMalformedInputIsZero(t *testing.T) {
	t.Parallel()

	assert.True(t, gitlib.NewHash("not-hex").IsZero())
}

func TestRepositoryCommitAndTree(t *testing.T) {
	tr := gitlib.NewTestRepo(t)

	tr.WriteFile("main.py", "print('hi')\n")
	tr.WriteFile("sub/util.py", "pass\n")
	first := tr.Commit("first", "alice", time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC))

	repo := tr.Repository()

	commit, err := repo.LookupCommit(first)
	require.NoError(t, err)

	defer commit.Free()

	assert.Equal(t, "alice", commit.Author().Name)
	assert.Equal(t, 0, commit.NumParents())

	tree, err := commit.Tree()
	require.NoError(t, err)

	defer tree.Free()

	blobs, err := tree.Blobs()
	require.NoError(t, err)
	require.Len(t, blobs, 2)

	paths := []string{blobs[0].Path, blobs[1].Path}
	assert.Contains(t, paths, "main.py")
	assert.Contains(t, paths, "sub/util.py")
}

func TestResolveRef(t *testing.T) {
	tr := gitlib.NewTestRepo(t)

	tr.WriteFile("a.py", "x\n")
	tip := tr.Commit("first", "alice", time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC))

	repo := tr.Repository()

	resolved, err := repo.ResolveRef("HEAD")
	require.NoError(t, err)
	assert.Equal(t, tip, resolved)

	_, err = repo.ResolveRef("missing-branch")
	require.Error(t, err)
}

func TestLogFirstParentOrder(t *testing.T) {
	tr := gitlib.NewTestRepo(t)

	tr.WriteFile("a.py", "one\n")
	c1 := tr.Commit("first", "alice", time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC))

	tr.WriteFile("a.py", "one\ntwo\n")
	c2 := tr.Commit("second", "alice", time.Date(2021, 2, 1, 0, 0, 0, 0, time.UTC))

	repo := tr.Repository()

	iter, err := repo.Log(&gitlib.LogOptions{From: c2, FirstParent: true})
	require.NoError(t, err)

	defer iter.Close()

	var seen []gitlib.Hash

	err = iter.ForEach(func(c *gitlib.Commit) error {
		seen = append(seen, c.Hash())

		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []gitlib.Hash{c2, c1}, seen)
}

func TestLogFailsOnMissingObject(t *testing.T) {
	tr := gitlib.NewTestRepo(t)

	tr.WriteFile("a.py", "one\n")
	c1 := tr.Commit("first", "alice", time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC))

	tr.WriteFile("a.py", "one\ntwo\n")
	c2 := tr.Commit("second", "alice", time.Date(2021, 2, 1, 0, 0, 0, 0, time.UTC))

	// Delete the root commit's loose object so the walk hits a hole in the
	// object store after yielding the tip.
	hex := c1.String()
	err := os.Remove(filepath.Join(tr.Path, ".git", "objects", hex[:2], hex[2:]))
	require.NoError(t, err)

	repo := tr.Repository()

	iter, err := repo.Log(&gitlib.LogOptions{From: c2})
	require.NoError(t, err)

	defer iter.Close()

	// The walk must fail loudly, not end as if the history were complete.
	err = iter.ForEach(func(*gitlib.Commit) error { return nil })
	require.Error(t, err)
}

func TestDiffTouchedPaths(t *testing.T) {
	tr := gitlib.NewTestRepo(t)

	tr.WriteFile("a.py", "one\n")
	tr.WriteFile("b.py", "keep\n")
	c1 := tr.Commit("first", "alice", time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC))

	tr.WriteFile("a.py", "one\ntwo\n")
	tr.RemoveFile("b.py")
	tr.WriteFile("c.py", "new\n")
	c2 := tr.Commit("second", "alice", time.Date(2021, 2, 1, 0, 0, 0, 0, time.UTC))

	repo := tr.Repository()

	oldTree := treeOf(t, repo, c1)
	defer oldTree.Free()

	newTree := treeOf(t, repo, c2)
	defer newTree.Free()

	diff, err := repo.DiffTreeToTree(oldTree, newTree)
	require.NoError(t, err)

	defer diff.Free()

	paths, err := diff.TouchedPaths()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a.py", "b.py", "c.py"}, paths)
}

func TestBlameFile(t *testing.T) {
	tr := gitlib.NewTestRepo(t)

	tr.WriteFile("a.py", "one\n")
	c1 := tr.Commit("first", "alice", time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC))

	tr.WriteFile("a.py", "one\ntwo\n")
	c2 := tr.Commit("second", "bob", time.Date(2021, 2, 1, 0, 0, 0, 0, time.UTC))

	repo := tr.Repository()

	spans, err := repo.BlameFile("a.py", c2)
	require.NoError(t, err)

	byCommit := make(map[gitlib.Hash]int)
	for _, span := range spans {
		byCommit[span.Commit] += span.Lines
	}

	assert.Equal(t, 1, byCommit[c1])
	assert.Equal(t, 1, byCommit[c2])
}

func treeOf(t *testing.T, repo *gitlib.Repository, h gitlib.Hash) *gitlib.Tree {
	t.Helper()

	commit, err := repo.LookupCommit(h)
	require.NoError(t, err)

	defer commit.Free()

	tree, err := commit.Tree()
	require.NoError(t, err)

	return tree
}
