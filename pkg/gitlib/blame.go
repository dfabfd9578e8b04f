package gitlib

import (
	"fmt"

	git2go "github.com/libgit2/git2go/v34"
)

// BlameSpan is a run of consecutive lines attributed to one commit: the
// commit that last modified those lines as of the blamed revision.
type BlameSpan struct {
	Commit Hash
	Lines  int
}

// BlameFile attributes every line of path, as it exists at the newest
// commit, to the commit that introduced it. The returned spans cover the
// file's current content in order; their line counts sum to the file's
// current line count.
func (r *Repository) BlameFile(path string, newest Hash) ([]BlameSpan, error) {
	opts, err := git2go.DefaultBlameOptions()
	if err != nil {
		return nil, fmt.Errorf("get blame options: %w", err)
	}

	opts.NewestCommit = newest.ToOid()

	blame, err := r.repo.BlameFile(path, &opts)
	if err != nil {
		return nil, fmt.Errorf("blame %s at %s: %w", path, newest, err)
	}
	defer func() { _ = blame.Free() }()

	count := blame.HunkCount()
	spans := make([]BlameSpan, 0, count)

	for i := range count {
		hunk, hunkErr := blame.HunkByIndex(i)
		if hunkErr != nil {
			return nil, fmt.Errorf("blame hunk %d of %s: %w", i, path, hunkErr)
		}

		if hunk.FinalCommitId == nil {
			continue
		}

		spans = append(spans, BlameSpan{
			Commit: HashFromOid(hunk.FinalCommitId),
			Lines:  int(hunk.LinesInHunk),
		})
	}

	return spans, nil
}
