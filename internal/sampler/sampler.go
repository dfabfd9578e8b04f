// Package sampler selects sparse checkpoints along the first-parent chain
// of a ref. Sampling exists purely to bound the number of full-histogram
// recomputations; it is never used to resolve commit identity for blame,
// which relies on the full-ancestry index instead.
package sampler

import (
	"time"

	"github.com/Sumatoshi-tech/theseus/pkg/gitlib"
)

// Checkpoint is one sampled reporting point in branch history.
type Checkpoint struct {
	Hash gitlib.Hash
	When time.Time
}

// Link is one step of the first-parent chain, tip to root.
type Link struct {
	Hash gitlib.Hash
	When time.Time
}

// Walk enumerates the first-parent chain starting at the tip and following
// only the first parent at each step, stopping at the root.
type Walk func(visit func(Link) error) error

// Sample walks the chain and selects a commit whenever its timestamp is
// more than interval older than the previously selected one. The tip is
// always selected. Checkpoints are returned oldest first, ready for
// chronological processing; because selection walks backward from the tip,
// the gap closest to the tip may be smaller than the interval.
func Sample(walk Walk, interval time.Duration) ([]Checkpoint, error) {
	var (
		selected []Checkpoint
		last     time.Time
		haveLast bool
	)

	err := walk(func(l Link) error {
		if !haveLast || l.When.Before(last.Add(-interval)) {
			selected = append(selected, Checkpoint{Hash: l.Hash, When: l.When})
			last = l.When
			haveLast = true
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	for i, j := 0, len(selected)-1; i < j; i, j = i+1, j-1 {
		selected[i], selected[j] = selected[j], selected[i]
	}

	return selected, nil
}
