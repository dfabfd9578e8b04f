// Package survival implements the incremental attribution engine: it walks
// sampled checkpoints of a ref's mainline, attributes every live line of
// every trackable file to its introducing commit via blame, and accumulates
// the results into aligned per-dimension time series plus per-commit
// survival series.
package survival

import "strconv"

// Kind names a histogram dimension.
type Kind string

// Histogram dimensions.
const (
	// KindCohort buckets lines by the introducing commit's date cohort.
	KindCohort Kind = "cohort"
	// KindExt buckets lines by file extension.
	KindExt Kind = "ext"
	// KindAuthor buckets lines by the introducing commit's author.
	KindAuthor Kind = "author"
	// KindFilesize buckets lines by the containing blob's byte size.
	KindFilesize Kind = "filesize"
	// KindSHA tracks surviving lines per introducing source commit.
	KindSHA Kind = "sha"
)

// Key is a tagged dimension value.
type Key struct {
	Kind  Kind
	Value string
}

// FilesizeValue renders a blob size as a filesize dimension value.
func FilesizeValue(size int64) string {
	return strconv.FormatInt(size, 10)
}

// Histogram counts live lines per dimension key, scoped either to one file
// at one checkpoint or merged across all files at one checkpoint.
type Histogram map[Key]int

// Add merges other into h. Merging is commutative counter addition, so the
// merge order across files does not affect the result.
func (h Histogram) Add(other Histogram) {
	for key, count := range other {
		h[key] += count
	}
}

// FileEntry is one trackable blob present in a checkpoint's tree.
type FileEntry struct {
	Path string
	Size int64
}
