package survival_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/theseus/internal/cohort"
	"github.com/Sumatoshi-tech/theseus/internal/filter"
	"github.com/Sumatoshi-tech/theseus/internal/sampler"
	"github.com/Sumatoshi-tech/theseus/internal/survival"
	"github.com/Sumatoshi-tech/theseus/pkg/gitlib"
)

// growingRepo commits three revisions of a.py, one line added per year.
func growingRepo(t *testing.T) (*gitlib.TestRepo, []gitlib.Hash) {
	t.Helper()

	tr := gitlib.NewTestRepo(t)

	tr.WriteFile("a.py", "line one\n")
	c1 := tr.Commit("first", "alice", time.Date(2021, 6, 1, 0, 0, 0, 0, time.UTC))

	tr.WriteFile("a.py", "line one\nline two\n")
	c2 := tr.Commit("second", "alice", time.Date(2022, 6, 1, 0, 0, 0, 0, time.UTC))

	tr.WriteFile("a.py", "line one\nline two\nline three\n")
	c3 := tr.Commit("third", "bob", time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC))

	return tr, []gitlib.Hash{c1, c2, c3}
}

func TestGitHistoryWalks(t *testing.T) {
	tr, commits := growingRepo(t)
	history := survival.NewGitHistory(tr.Repository(), commits[2])

	var ancestry []gitlib.Hash

	err := history.WalkAncestry(func(c cohort.Commit) error {
		ancestry = append(ancestry, c.Hash)

		return nil
	})
	require.NoError(t, err)
	assert.Len(t, ancestry, 3)

	var chain []gitlib.Hash

	err = history.FirstParentWalk()(func(l sampler.Link) error {
		chain = append(chain, l.Hash)

		return nil
	})
	require.NoError(t, err)
	require.Equal(t, []gitlib.Hash{commits[2], commits[1], commits[0]}, chain)
}

func TestGitHistoryFilesAndDiffs(t *testing.T) {
	tr, commits := growingRepo(t)

	tr.WriteFile("b.py", "other\n")
	c4 := tr.Commit("fourth", "bob", time.Date(2023, 7, 1, 0, 0, 0, 0, time.UTC))

	history := survival.NewGitHistory(tr.Repository(), c4)

	files, err := history.FilesAt(c4)
	require.NoError(t, err)
	require.Len(t, files, 2)

	changed, err := history.ChangedPaths(commits[2], c4)
	require.NoError(t, err)
	assert.Equal(t, []string{"b.py"}, changed)

	changed, err = history.ChangedPaths(commits[0], commits[1])
	require.NoError(t, err)
	assert.Equal(t, []string{"a.py"}, changed)
}

func TestGitHistoryBlame(t *testing.T) {
	tr, commits := growingRepo(t)
	history := survival.NewGitHistory(tr.Repository(), commits[2])

	spans, err := history.Blame(commits[2], "a.py")
	require.NoError(t, err)

	lines := 0
	byCommit := make(map[gitlib.Hash]int)

	for _, span := range spans {
		lines += span.Lines
		byCommit[span.Commit] += span.Lines
	}

	assert.Equal(t, 3, lines)
	assert.Equal(t, 1, byCommit[commits[0]])
	assert.Equal(t, 1, byCommit[commits[1]])
	assert.Equal(t, 1, byCommit[commits[2]])
}

func TestEngineSurvivalDecayAgainstRealRepository(t *testing.T) {
	tr := gitlib.NewTestRepo(t)

	tr.WriteFile("a.py", "line one\n")
	tr.Commit("first", "alice", time.Date(2021, 6, 1, 0, 0, 0, 0, time.UTC))

	tr.WriteFile("a.py", "line one\nline two\nline three\n")
	c2 := tr.Commit("second", "bob", time.Date(2022, 6, 1, 0, 0, 0, 0, time.UTC))

	tr.WriteFile("a.py", "line one\nline two\n")
	c3 := tr.Commit("third", "alice", time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC))

	tr.WriteFile("a.py", "line one\n")
	c4 := tr.Commit("fourth", "bob", time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))

	engine := survival.New(survival.Options{
		History:      survival.NewGitHistory(tr.Repository(), c4),
		Filter:       filter.New(filter.Options{}),
		CohortLayout: "2006",
		Interval:     0,
	})

	result, err := engine.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, result.Checkpoints, 4)

	surv := result.Accumulator.Survival()

	// The second commit's two lines decay one checkpoint at a time; once
	// the last one is deleted the commit stops appearing instead of
	// recording zeros.
	assert.Equal(t, []survival.SurvivalPoint{
		{Timestamp: result.Checkpoints[1].When.Unix(), Lines: 2},
		{Timestamp: result.Checkpoints[2].When.Unix(), Lines: 1},
	}, surv[c2.String()])

	// The later commits only deleted lines and never contribute any.
	assert.NotContains(t, surv, c3.String())
	assert.NotContains(t, surv, c4.String())
}

func TestEngineAgainstRealRepository(t *testing.T) {
	tr, commits := growingRepo(t)

	engine := survival.New(survival.Options{
		History:      survival.NewGitHistory(tr.Repository(), commits[2]),
		Filter:       filter.New(filter.Options{}),
		CohortLayout: "2006",
		Interval:     0,
	})

	result, err := engine.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, result.Checkpoints, 3)
	assert.Equal(t, 3, result.CommitsIndexed)

	values, rows := result.Accumulator.SeriesFor(survival.KindCohort)
	require.Equal(t, []string{"2021", "2022", "2023"}, values)
	assert.Equal(t, [][]int{{1, 1, 1}, {0, 1, 1}, {0, 0, 1}}, rows)

	authors, authorRows := result.Accumulator.SeriesFor(survival.KindAuthor)
	require.Equal(t, []string{"alice", "bob"}, authors)
	assert.Equal(t, [][]int{{1, 2, 2}, {0, 0, 1}}, authorRows)

	// The root commit has no parent, so only the two later commits get
	// survival series.
	surv := result.Accumulator.Survival()
	require.Len(t, surv, 2)
	assert.Equal(t, []survival.SurvivalPoint{
		{Timestamp: result.Checkpoints[1].When.Unix(), Lines: 1},
		{Timestamp: result.Checkpoints[2].When.Unix(), Lines: 1},
	}, surv[commits[1].String()])
	assert.Equal(t, []survival.SurvivalPoint{
		{Timestamp: result.Checkpoints[2].When.Unix(), Lines: 1},
	}, surv[commits[2].String()])
}
