package survival

import (
	"fmt"

	"github.com/Sumatoshi-tech/theseus/internal/cohort"
	"github.com/Sumatoshi-tech/theseus/internal/sampler"
	"github.com/Sumatoshi-tech/theseus/pkg/gitlib"
)

// History is the repository surface the engine consumes. Implementations
// are read-only views over existing history.
type History interface {
	// WalkAncestry visits every commit reachable from the tip, including
	// merged-in lines of history.
	WalkAncestry(visit func(cohort.Commit) error) error
	// FirstParentWalk returns a walk over the mainline only: from the tip,
	// following just the first parent at each step.
	FirstParentWalk() sampler.Walk
	// FilesAt lists every blob in the commit's tree.
	FilesAt(h gitlib.Hash) ([]FileEntry, error)
	// ChangedPaths returns every path touched by any delta between the two
	// commits' trees: added, removed or modified.
	ChangedPaths(old, cur gitlib.Hash) ([]string, error)
	// Blame attributes the lines of path as of the given commit.
	Blame(h gitlib.Hash, path string) ([]gitlib.BlameSpan, error)
}

// GitHistory implements History over a libgit2 repository.
type GitHistory struct {
	repo *gitlib.Repository
	tip  gitlib.Hash
}

// NewGitHistory creates a GitHistory rooted at the given tip commit.
func NewGitHistory(repo *gitlib.Repository, tip gitlib.Hash) *GitHistory {
	return &GitHistory{repo: repo, tip: tip}
}

// Tip returns the commit the walks start from.
func (g *GitHistory) Tip() gitlib.Hash {
	return g.tip
}

// WalkAncestry visits the full ancestry graph of the tip.
func (g *GitHistory) WalkAncestry(visit func(cohort.Commit) error) error {
	iter, err := g.repo.Log(&gitlib.LogOptions{From: g.tip})
	if err != nil {
		return fmt.Errorf("walk ancestry: %w", err)
	}
	defer iter.Close()

	return iter.ForEach(func(c *gitlib.Commit) error {
		return visit(cohort.Commit{
			Hash:    c.Hash(),
			Author:  c.Author().Name,
			When:    c.When(),
			Parents: c.NumParents(),
		})
	})
}

// FirstParentWalk follows first-parent links from the tip to the root.
func (g *GitHistory) FirstParentWalk() sampler.Walk {
	return func(visit func(sampler.Link) error) error {
		commit, err := g.repo.LookupCommit(g.tip)
		if err != nil {
			return fmt.Errorf("walk first-parent: %w", err)
		}

		for {
			visitErr := visit(sampler.Link{Hash: commit.Hash(), When: commit.When()})
			if visitErr != nil {
				commit.Free()

				return visitErr
			}

			if commit.NumParents() == 0 {
				commit.Free()

				return nil
			}

			parent, parentErr := commit.Parent(0)
			commit.Free()

			if parentErr != nil {
				return fmt.Errorf("walk first-parent: %w", parentErr)
			}

			commit = parent
		}
	}
}

// FilesAt lists every blob in the commit's tree with its size.
func (g *GitHistory) FilesAt(h gitlib.Hash) ([]FileEntry, error) {
	commit, err := g.repo.LookupCommit(h)
	if err != nil {
		return nil, fmt.Errorf("files at %s: %w", h, err)
	}
	defer commit.Free()

	tree, err := commit.Tree()
	if err != nil {
		return nil, fmt.Errorf("files at %s: %w", h, err)
	}
	defer tree.Free()

	blobs, err := tree.Blobs()
	if err != nil {
		return nil, fmt.Errorf("files at %s: %w", h, err)
	}

	entries := make([]FileEntry, len(blobs))
	for i, blob := range blobs {
		entries[i] = FileEntry{Path: blob.Path, Size: blob.Size}
	}

	return entries, nil
}

// ChangedPaths diffs the trees of two commits and returns the touched
// paths.
func (g *GitHistory) ChangedPaths(old, cur gitlib.Hash) ([]string, error) {
	oldTree, err := g.treeOf(old)
	if err != nil {
		return nil, err
	}
	defer oldTree.Free()

	curTree, err := g.treeOf(cur)
	if err != nil {
		return nil, err
	}
	defer curTree.Free()

	diff, err := g.repo.DiffTreeToTree(oldTree, curTree)
	if err != nil {
		return nil, fmt.Errorf("changed paths %s..%s: %w", old, cur, err)
	}
	defer diff.Free()

	return diff.TouchedPaths()
}

// Blame attributes the lines of path as of the given commit.
func (g *GitHistory) Blame(h gitlib.Hash, path string) ([]gitlib.BlameSpan, error) {
	return g.repo.BlameFile(path, h)
}

func (g *GitHistory) treeOf(h gitlib.Hash) (*gitlib.Tree, error) {
	commit, err := g.repo.LookupCommit(h)
	if err != nil {
		return nil, fmt.Errorf("tree of %s: %w", h, err)
	}
	defer commit.Free()

	tree, err := commit.Tree()
	if err != nil {
		return nil, fmt.Errorf("tree of %s: %w", h, err)
	}

	return tree, nil
}
