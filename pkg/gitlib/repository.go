package gitlib

import (
	"fmt"

	git2go "github.com/libgit2/git2go/v34"
)

// Repository wraps a libgit2 repository. All operations are read-only.
type Repository struct {
	repo *git2go.Repository
	path string
}

// OpenRepository opens the git repository at the given path.
func OpenRepository(path string) (*Repository, error) {
	repo, err := git2go.OpenRepository(path)
	if err != nil {
		return nil, fmt.Errorf("open repository: %w", err)
	}

	return &Repository{repo: repo, path: path}, nil
}

// Path returns the repository path.
func (r *Repository) Path() string {
	return r.path
}

// Free releases the repository resources.
func (r *Repository) Free() {
	if r.repo != nil {
		r.repo.Free()
		r.repo = nil
	}
}

// ResolveRef resolves a branch name, tag or revision expression to the hash
// of the commit it points at.
func (r *Repository) ResolveRef(name string) (Hash, error) {
	obj, err := r.repo.RevparseSingle(name)
	if err != nil {
		return Hash{}, fmt.Errorf("resolve ref %q: %w", name, err)
	}
	defer obj.Free()

	peeled, err := obj.Peel(git2go.ObjectCommit)
	if err != nil {
		return Hash{}, fmt.Errorf("peel ref %q to commit: %w", name, err)
	}
	defer peeled.Free()

	return HashFromOid(peeled.Id()), nil
}

// LookupCommit returns the commit with the given hash.
func (r *Repository) LookupCommit(hash Hash) (*Commit, error) {
	commit, err := r.repo.LookupCommit(hash.ToOid())
	if err != nil {
		return nil, fmt.Errorf("lookup commit: %w", err)
	}

	return &Commit{commit: commit, repo: r}, nil
}

// LookupBlob returns the blob with the given hash.
func (r *Repository) LookupBlob(hash Hash) (*Blob, error) {
	blob, err := r.repo.LookupBlob(hash.ToOid())
	if err != nil {
		return nil, fmt.Errorf("lookup blob: %w", err)
	}

	return &Blob{blob: blob}, nil
}

// LogOptions configures a commit log iteration.
type LogOptions struct {
	// From is the commit to start walking from. Zero means HEAD.
	From Hash
	// FirstParent restricts the walk to first-parent links
	// (git log --first-parent).
	FirstParent bool
}

// Log returns a commit iterator over the ancestry of the starting commit.
func (r *Repository) Log(opts *LogOptions) (*CommitIter, error) {
	walk, err := r.repo.Walk()
	if err != nil {
		return nil, fmt.Errorf("create revwalk: %w", err)
	}

	start := Hash{}
	if opts != nil {
		start = opts.From
	}

	if start.IsZero() {
		headRef, headErr := r.repo.Head()
		if headErr != nil {
			walk.Free()

			return nil, fmt.Errorf("get HEAD: %w", headErr)
		}

		start = HashFromOid(headRef.Target())
		headRef.Free()
	}

	err = walk.Push(start.ToOid())
	if err != nil {
		walk.Free()

		return nil, fmt.Errorf("push %s to revwalk: %w", start, err)
	}

	// Topological order keeps parents after children so ancestry-wide index
	// passes see a stable order across runs.
	walk.Sorting(git2go.SortTime | git2go.SortTopological)

	if opts != nil && opts.FirstParent {
		walk.SimplifyFirstParent()
	}

	return &CommitIter{walk: walk, repo: r}, nil
}
