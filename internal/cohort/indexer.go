// Package cohort indexes the full ancestry of a ref: every commit reachable
// from the tip, including merged-in lines of history. Blame on a mainline
// file can attribute lines to commits outside the mainline, so those must
// be indexable too.
package cohort

import (
	"sort"
	"time"

	"github.com/Sumatoshi-tech/theseus/pkg/gitlib"
)

// MissingCohort is the fallback label for attributed commits absent from
// the index, e.g. when history is shallow or truncated. Keeping them under
// an explicit label preserves line-count consistency across dimensions.
const MissingCohort = "MISSING"

// Commit carries the metadata the indexer needs from one commit.
type Commit struct {
	Hash    gitlib.Hash
	Author  string
	When    time.Time
	Parents int
}

// Indexer accumulates cohort labels, author names and source-commit
// timestamps over one full-ancestry pass.
type Indexer struct {
	layout     string
	cohorts    map[gitlib.Hash]string
	authors    map[gitlib.Hash]string
	sourceWhen map[gitlib.Hash]int64
	cohortSet  map[string]struct{}
	authorSet  map[string]struct{}
}

// NewIndexer creates an Indexer that buckets commit dates with the given
// Go time layout, in UTC.
func NewIndexer(layout string) *Indexer {
	return &Indexer{
		layout:     layout,
		cohorts:    make(map[gitlib.Hash]string),
		authors:    make(map[gitlib.Hash]string),
		sourceWhen: make(map[gitlib.Hash]int64),
		cohortSet:  make(map[string]struct{}),
		authorSet:  make(map[string]struct{}),
	}
}

// Observe indexes one commit. Only commits with exactly one parent register
// as source commits for survival tracking: blame attributes lines to the
// nearest single-parent edit, never to a merge.
func (ix *Indexer) Observe(c Commit) {
	label := c.When.UTC().Format(ix.layout)

	ix.cohorts[c.Hash] = label
	ix.authors[c.Hash] = c.Author
	ix.cohortSet[label] = struct{}{}
	ix.authorSet[c.Author] = struct{}{}

	if c.Parents == 1 {
		ix.sourceWhen[c.Hash] = c.When.Unix()
	}
}

// Cohort returns the cohort label of the commit, or MissingCohort when the
// commit was never indexed.
func (ix *Indexer) Cohort(h gitlib.Hash) string {
	if label, ok := ix.cohorts[h]; ok {
		return label
	}

	return MissingCohort
}

// AuthorOf returns the author name of an indexed commit.
func (ix *Indexer) AuthorOf(h gitlib.Hash) (string, bool) {
	name, ok := ix.authors[h]

	return name, ok
}

// SourceTimestamp returns the epoch-second timestamp of an indexed
// single-parent commit.
func (ix *Indexer) SourceTimestamp(h gitlib.Hash) (int64, bool) {
	ts, ok := ix.sourceWhen[h]

	return ts, ok
}

// Cohorts returns the distinct cohort labels observed, sorted.
func (ix *Indexer) Cohorts() []string {
	return sortedKeys(ix.cohortSet)
}

// Authors returns the distinct author names observed, sorted.
func (ix *Indexer) Authors() []string {
	return sortedKeys(ix.authorSet)
}

// CommitCount returns the number of commits indexed.
func (ix *Indexer) CommitCount() int {
	return len(ix.cohorts)
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	return keys
}
