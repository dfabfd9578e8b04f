// Package filter decides which paths count as trackable source files.
package filter

import (
	"path"

	"github.com/bmatcuk/doublestar"
	"github.com/src-d/enry/v2"
)

// Filter is a memoized trackable-path predicate. A path is trackable when
// it is a recognized source-code file (unless the all-filetypes override is
// set), matches every allow pattern, and matches no ignore pattern.
// Decisions depend only on the path, never on the commit, so they are
// cached for the lifetime of the run.
type Filter struct {
	all    bool
	only   []string
	ignore []string
	memo   map[string]bool
}

// Options configures a Filter.
type Options struct {
	// AllFiletypes disables the source-code catalog check.
	AllFiletypes bool
	// Only lists glob patterns that must all match (empty: no restriction).
	Only []string
	// Ignore lists glob patterns any of which excludes the path.
	Ignore []string
}

// New creates a Filter.
func New(opts Options) *Filter {
	return &Filter{
		all:    opts.AllFiletypes,
		only:   opts.Only,
		ignore: opts.Ignore,
		memo:   make(map[string]bool),
	}
}

// Trackable reports whether the path should be analyzed.
func (f *Filter) Trackable(p string) bool {
	if decision, ok := f.memo[p]; ok {
		return decision
	}

	decision := f.decide(p)
	f.memo[p] = decision

	return decision
}

func (f *Filter) decide(p string) bool {
	if !f.all && !isSourceFile(p) {
		return false
	}

	for _, pattern := range f.only {
		ok, err := doublestar.Match(pattern, p)
		if err != nil || !ok {
			return false
		}
	}

	for _, pattern := range f.ignore {
		ok, err := doublestar.Match(pattern, p)
		if err == nil && ok {
			return false
		}
	}

	return true
}

// isSourceFile consults the linguist catalog via enry. Data and prose
// filetypes (JSON, Markdown, YAML, plain text, ...) are configuration or
// documentation rather than code and are excluded.
func isSourceFile(p string) bool {
	lang := enry.GetLanguage(path.Base(p), nil)
	if lang == enry.OtherLanguage {
		return false
	}

	switch enry.GetLanguageType(lang) {
	case enry.Programming, enry.Markup:
		return true
	default:
		return false
	}
}
