package gitlib

import (
	"errors"
	"fmt"
	"io"
	"time"

	git2go "github.com/libgit2/git2go/v34"

	"github.com/Sumatoshi-tech/theseus/pkg/safeconv"
)

// ErrParentNotFound is returned when the requested parent commit is missing.
var ErrParentNotFound = errors.New("parent commit not found")

// Commit wraps a libgit2 commit.
type Commit struct {
	commit *git2go.Commit
	repo   *Repository
}

// Hash returns the commit hash.
func (c *Commit) Hash() Hash {
	return HashFromOid(c.commit.Id())
}

// Author returns the commit author.
func (c *Commit) Author() Signature {
	sig := c.commit.Author()

	return Signature{
		Name:  sig.Name,
		Email: sig.Email,
		When:  sig.When,
	}
}

// Committer returns the commit committer.
func (c *Commit) Committer() Signature {
	sig := c.commit.Committer()

	return Signature{
		Name:  sig.Name,
		Email: sig.Email,
		When:  sig.When,
	}
}

// When returns the committer timestamp, which is the timestamp this system
// orders history by.
func (c *Commit) When() time.Time {
	return c.commit.Committer().When
}

// NumParents returns the number of parent commits.
func (c *Commit) NumParents() int {
	return safeconv.MustUintToInt(c.commit.ParentCount())
}

// Parent returns the nth parent commit.
func (c *Commit) Parent(n int) (*Commit, error) {
	parent := c.commit.Parent(safeconv.MustIntToUint(n))
	if parent == nil {
		return nil, ErrParentNotFound
	}

	return &Commit{commit: parent, repo: c.repo}, nil
}

// Tree returns the tree associated with this commit.
func (c *Commit) Tree() (*Tree, error) {
	tree, err := c.commit.Tree()
	if err != nil {
		return nil, fmt.Errorf("get commit tree: %w", err)
	}

	return &Tree{tree: tree, repo: c.repo}, nil
}

// Free releases the commit resources.
func (c *Commit) Free() {
	if c.commit != nil {
		c.commit.Free()
		c.commit = nil
	}
}

// CommitIter iterates over commits yielded by a revision walk.
type CommitIter struct {
	walk *git2go.RevWalk
	repo *Repository
}

// Next returns the next commit, or io.EOF when the walk is exhausted. Any
// other walk failure is a real repository error and must surface: swallowing
// it would silently truncate the walk.
func (ci *CommitIter) Next() (*Commit, error) {
	oid := new(git2go.Oid)

	err := ci.walk.Next(oid)
	if err != nil {
		if git2go.IsErrorCode(err, git2go.ErrorCodeIterOver) {
			return nil, io.EOF
		}

		return nil, fmt.Errorf("advance revision walk: %w", err)
	}

	commit, lookupErr := ci.repo.repo.LookupCommit(oid)
	if lookupErr != nil {
		return nil, fmt.Errorf("lookup commit %s: %w", oid.String(), lookupErr)
	}

	return &Commit{commit: commit, repo: ci.repo}, nil
}

// ForEach calls cb for each commit in the walk, freeing commits as it goes.
func (ci *CommitIter) ForEach(cb func(*Commit) error) error {
	for {
		commit, err := ci.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}

		if err != nil {
			return err
		}

		cbErr := cb(commit)
		commit.Free()

		if cbErr != nil {
			return cbErr
		}
	}
}

// Close releases the walk resources.
func (ci *CommitIter) Close() {
	if ci.walk != nil {
		ci.walk.Free()
		ci.walk = nil
	}
}
