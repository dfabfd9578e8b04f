package gitlib

import (
	"fmt"

	git2go "github.com/libgit2/git2go/v34"
)

// Tree wraps a libgit2 tree.
type Tree struct {
	tree *git2go.Tree
	repo *Repository
}

// Hash returns the tree hash.
func (t *Tree) Hash() Hash {
	return HashFromOid(t.tree.Id())
}

// Free releases the tree resources.
func (t *Tree) Free() {
	if t.tree != nil {
		t.tree.Free()
		t.tree = nil
	}
}

// TreeEntry describes one blob reachable from a tree, with its full
// slash-separated path relative to the repository root.
type TreeEntry struct {
	Path string
	Hash Hash
	Size int64
}

// Blobs walks the tree recursively and returns every blob entry with its
// path and byte size. Submodule and non-blob entries are skipped.
func (t *Tree) Blobs() ([]TreeEntry, error) {
	var entries []TreeEntry

	err := walkTree(t.repo, t.tree, "", func(path string, id *git2go.Oid) error {
		blob, lookupErr := t.repo.repo.LookupBlob(id)
		if lookupErr != nil {
			return nil // Entry disappeared from the odb; skip.
		}
		defer blob.Free()

		entries = append(entries, TreeEntry{
			Path: path,
			Hash: HashFromOid(id),
			Size: blob.Size(),
		})

		return nil
	})
	if err != nil {
		return nil, err
	}

	return entries, nil
}

// walkTree recursively visits every blob in a tree, calling cb with the
// entry's full path.
func walkTree(repo *Repository, tree *git2go.Tree, prefix string, cb func(path string, id *git2go.Oid) error) error {
	count := tree.EntryCount()

	for i := uint64(0); i < count; i++ {
		entry := tree.EntryByIndex(i)
		if entry == nil {
			continue
		}

		path := entry.Name
		if prefix != "" {
			path = prefix + "/" + entry.Name
		}

		switch entry.Type {
		case git2go.ObjectBlob:
			if err := cb(path, entry.Id); err != nil {
				return err
			}
		case git2go.ObjectTree:
			subtree, err := repo.repo.LookupTree(entry.Id)
			if err != nil {
				continue // Skip entries we cannot look up.
			}

			walkErr := walkTree(repo, subtree, path, cb)
			subtree.Free()

			if walkErr != nil {
				return walkErr
			}
		default:
			// Commits (submodules) and other object types carry no lines.
		}
	}

	return nil
}

// DiffTreeToTree computes the deltas between two trees. A nil oldTree diffs
// against the empty tree.
func (r *Repository) DiffTreeToTree(oldTree, newTree *Tree) (*Diff, error) {
	opts, err := git2go.DefaultDiffOptions()
	if err != nil {
		return nil, fmt.Errorf("get diff options: %w", err)
	}

	var oldT, newT *git2go.Tree
	if oldTree != nil {
		oldT = oldTree.tree
	}

	if newTree != nil {
		newT = newTree.tree
	}

	diff, err := r.repo.DiffTreeToTree(oldT, newT, &opts)
	if err != nil {
		return nil, fmt.Errorf("diff trees: %w", err)
	}

	return &Diff{diff: diff}, nil
}

// Diff wraps a libgit2 tree diff.
type Diff struct {
	diff *git2go.Diff
}

// TouchedPaths returns every path named on either side of any delta in the
// diff: additions, deletions and modifications alike. Renames contribute
// both their old and new path.
func (d *Diff) TouchedPaths() ([]string, error) {
	numDeltas, err := d.diff.NumDeltas()
	if err != nil {
		return nil, fmt.Errorf("get num deltas: %w", err)
	}

	seen := make(map[string]struct{}, numDeltas)
	paths := make([]string, 0, numDeltas)

	add := func(p string) {
		if p == "" {
			return
		}

		if _, ok := seen[p]; ok {
			return
		}

		seen[p] = struct{}{}
		paths = append(paths, p)
	}

	for i := range numDeltas {
		delta, deltaErr := d.diff.Delta(i)
		if deltaErr != nil {
			continue
		}

		add(delta.OldFile.Path)
		add(delta.NewFile.Path)
	}

	return paths, nil
}

// Free releases the diff resources.
func (d *Diff) Free() {
	if d.diff != nil {
		_ = d.diff.Free()
		d.diff = nil
	}
}
