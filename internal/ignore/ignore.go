// Package ignore implements gitignore-style path filtering, used by
// goframe's source walk to exclude vendor/generated directories from
// binding discovery. Grounded in gitignore-pattern matching, kept
// essentially as-is since its matching rules are domain-agnostic: a
// compile-time DI scanner needs the same "skip this relative path" answer
// a code-generation scanner does.
package ignore

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
)

// Pattern is a single gitignore-style pattern.
type Pattern struct {
	Glob string
	Negation bool
	DirOnly bool
}

// Filter evaluates a set of patterns against repo-relative paths.
type Filter struct {
	Patterns []Pattern
}

// Load parses a.gitignore-shaped file at path. A missing file yields an
// empty Filter rather than an error, since most module roots don't carry
// one.
func Load(path string) Filter {
	f, err := os.Open(path)
	if err != nil {
 return Filter{}
	}
	defer f.Close()

	var patterns []Pattern
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
 line := strings.TrimSpace(scanner.Text())
 if line == "" || strings.HasPrefix(line, "#") {
 continue
 }

 p := Pattern{}
 if strings.HasPrefix(line, "!") {
 p.Negation = true
 line = line[1:]
 }
 if strings.HasSuffix(line, "/") {
 p.DirOnly = true
 line = strings.TrimSuffix(line, "/")
 }
 p.Glob = line
 patterns = append(patterns, p)
	}
	return Filter{Patterns: patterns}
}

// LoadFromModuleRoot loads ".gitignore" from root, returning an empty
// Filter if absent.
func LoadFromModuleRoot(root string) Filter {
	return Load(filepath.Join(root, ".gitignore"))
}

// Excludes reports whether relPath matches the filter, the last matching
// pattern (negations included) winning per gitignore semantics.
func (f Filter) Excludes(relPath string) bool {
	relPath = filepath.ToSlash(relPath)

	excluded := false
	for _, p := range f.Patterns {
 if matches(relPath, p.Glob) {
 excluded = !p.Negation
 }
	}
	return excluded
}

func matches(path, pattern string) bool {
	if strings.HasPrefix(pattern, "/") {
 pattern = pattern[1:]
 matched, _ := filepath.Match(pattern, path)
 return matched
	}

	if strings.Contains(pattern, "/") {
 if matched, _ := filepath.Match(pattern, path); matched {
 return true
 }
 return strings.HasPrefix(path, pattern+"/") || strings.HasPrefix(path, pattern)
	}

	base := filepath.Base(path)
	if matched, _ := filepath.Match(pattern, base); matched {
 return true
	}

	for _, part := range strings.Split(path, "/") {
 if matched, _ := filepath.Match(pattern, part); matched {
 return true
 }
	}
	return false
}
