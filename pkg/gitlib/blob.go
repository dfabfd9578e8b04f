package gitlib

import (
	"bytes"

	git2go "github.com/libgit2/git2go/v34"
)

// Blob wraps a libgit2 blob.
type Blob struct {
	blob *git2go.Blob
}

// Hash returns the blob hash.
func (b *Blob) Hash() Hash {
	return HashFromOid(b.blob.Id())
}

// Size returns the blob size in bytes.
func (b *Blob) Size() int64 {
	return b.blob.Size()
}

// Contents returns the blob contents.
func (b *Blob) Contents() []byte {
	return b.blob.Contents()
}

// LineCount returns the number of lines in the blob. A trailing newline does
// not start an extra line, matching what blame reports for the file.
func (b *Blob) LineCount() int {
	data := b.blob.Contents()
	if len(data) == 0 {
		return 0
	}

	n := bytes.Count(data, []byte{'\n'})
	if data[len(data)-1] != '\n' {
		n++
	}

	return n
}

// IsBinary reports whether libgit2 considers the blob binary.
func (b *Blob) IsBinary() bool {
	return b.blob.IsBinary()
}

// Free releases the blob resources.
func (b *Blob) Free() {
	if b.blob != nil {
		b.blob.Free()
		b.blob = nil
	}
}
