package survival

import (
	"github.com/Sumatoshi-tech/theseus/internal/cohort"
	"github.com/Sumatoshi-tech/theseus/internal/sampler"
	"github.com/Sumatoshi-tech/theseus/pkg/gitlib"
)

// fakeHistory is an in-memory History for unit tests.
type fakeHistory struct {
	ancestry []cohort.Commit
	chain    []sampler.Link
	files    map[gitlib.Hash][]FileEntry
	changes  map[[2]gitlib.Hash][]string
	blames   map[gitlib.Hash]map[string][]gitlib.BlameSpan
	blameErr map[string]error

	blameCalls []string
}

func newFakeHistory() *fakeHistory {
	return &fakeHistory{
		files:    make(map[gitlib.Hash][]FileEntry),
		changes:  make(map[[2]gitlib.Hash][]string),
		blames:   make(map[gitlib.Hash]map[string][]gitlib.BlameSpan),
		blameErr: make(map[string]error),
	}
}

func (f *fakeHistory) WalkAncestry(visit func(cohort.Commit) error) error {
	for _, c := range f.ancestry {
		if err := visit(c); err != nil {
			return err
		}
	}

	return nil
}

func (f *fakeHistory) FirstParentWalk() sampler.Walk {
	return func(visit func(sampler.Link) error) error {
		for _, l := range f.chain {
			if err := visit(l); err != nil {
				return err
			}
		}

		return nil
	}
}

func (f *fakeHistory) FilesAt(h gitlib.Hash) ([]FileEntry, error) {
	return f.files[h], nil
}

func (f *fakeHistory) ChangedPaths(old, cur gitlib.Hash) ([]string, error) {
	return f.changes[[2]gitlib.Hash{old, cur}], nil
}

func (f *fakeHistory) Blame(h gitlib.Hash, path string) ([]gitlib.BlameSpan, error) {
	f.blameCalls = append(f.blameCalls, h.String()[:2]+":"+path)

	if err := f.blameErr[path]; err != nil {
		return nil, err
	}

	return f.blames[h][path], nil
}

func (f *fakeHistory) setBlame(h gitlib.Hash, path string, spans ...gitlib.BlameSpan) {
	if f.blames[h] == nil {
		f.blames[h] = make(map[string][]gitlib.BlameSpan)
	}

	f.blames[h][path] = spans
}
