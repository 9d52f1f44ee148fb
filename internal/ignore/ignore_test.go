package ignore_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/diwire/core/internal/ignore"
)

func TestFilter_ExcludesSimplePattern(t *testing.T) {
	f := ignore.Filter{Patterns: []ignore.Pattern{{Glob: "vendor"}}}

	assert.True(t, f.Excludes("vendor/lib/thing.go"))
	assert.False(t, f.Excludes("internal/lib/thing.go"))
}

func TestFilter_NegationReincludes(t *testing.T) {
	f := ignore.Filter{Patterns: []ignore.Pattern{
 {Glob: "generated"},
 {Glob: "generated/keep.go", Negation: true},
	}}

	assert.True(t, f.Excludes("generated/other.go"))
	assert.False(t, f.Excludes("generated/keep.go"))
}

func TestFilter_AnchoredPattern(t *testing.T) {
	f := ignore.Filter{Patterns: []ignore.Pattern{{Glob: "/build"}}}

	assert.True(t, f.Excludes("build"))
	assert.False(t, f.Excludes("internal/build"))
}

func TestLoad_MissingFileYieldsEmptyFilter(t *testing.T) {
	f := ignore.Load("/nonexistent/path/.gitignore")
	assert.Empty(t, f.Patterns)
	assert.False(t, f.Excludes("anything.go"))
}
