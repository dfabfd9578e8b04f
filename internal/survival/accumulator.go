package survival

import (
	"sort"
	"strconv"
	"time"
)

// SurvivalPoint is one recorded (checkpoint timestamp, surviving lines)
// pair for a source commit.
type SurvivalPoint struct {
	Timestamp int64
	Lines     int
}

// Accumulator merges per-file histograms into checkpoint histograms and
// appends them to the run's aligned time series. The key universe is closed
// at construction: every series has exactly one entry per checkpoint, with
// zeros for keys absent at that checkpoint.
type Accumulator struct {
	universe   []Key
	series     map[Key][]int
	timestamps []time.Time
	survival   map[string][]SurvivalPoint
}

// NewAccumulator creates an Accumulator over the given closed key universe.
// The universe must hold keys of the four series kinds only; sha keys are
// tracked sparsely on the side.
func NewAccumulator(universe map[Key]struct{}) *Accumulator {
	keys := make([]Key, 0, len(universe))
	for key := range universe {
		keys = append(keys, key)
	}

	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Kind != keys[j].Kind {
			return keys[i].Kind < keys[j].Kind
		}

		return lessValue(keys[i].Kind, keys[i].Value, keys[j].Value)
	})

	series := make(map[Key][]int, len(keys))
	for _, key := range keys {
		series[key] = []int{}
	}

	return &Accumulator{
		universe: keys,
		series:   series,
		survival: make(map[string][]SurvivalPoint),
	}
}

// Append records one checkpoint's merged histogram: a zero-filled sample
// for every universe key, plus sparse survival entries for every source
// commit with surviving lines.
func (a *Accumulator) Append(when time.Time, hist Histogram) {
	a.timestamps = append(a.timestamps, when)

	for _, key := range a.universe {
		a.series[key] = append(a.series[key], hist[key])
	}

	for key, count := range hist {
		if key.Kind == KindSHA && count > 0 {
			a.survival[key.Value] = append(a.survival[key.Value], SurvivalPoint{
				Timestamp: when.Unix(),
				Lines:     count,
			})
		}
	}
}

// Timestamps returns the checkpoint timestamps, one per Append call.
func (a *Accumulator) Timestamps() []time.Time {
	return a.timestamps
}

// SeriesFor returns the key values of one kind in deterministic display
// order, with each value's per-checkpoint counts. All rows have the same
// length as Timestamps().
func (a *Accumulator) SeriesFor(kind Kind) (values []string, rows [][]int) {
	for _, key := range a.universe {
		if key.Kind == kind {
			values = append(values, key.Value)
			rows = append(rows, a.series[key])
		}
	}

	return values, rows
}

// Survival returns the sparse per-source-commit survival series, entries in
// recording order.
func (a *Accumulator) Survival() map[string][]SurvivalPoint {
	return a.survival
}

// lessValue orders key values for display: numerically for filesize,
// lexicographically for everything else.
func lessValue(kind Kind, a, b string) bool {
	if kind == KindFilesize {
		ai, aErr := strconv.ParseInt(a, 10, 64)
		bi, bErr := strconv.ParseInt(b, 10, 64)

		if aErr == nil && bErr == nil {
			return ai < bi
		}
	}

	return a < b
}
