package goframe

import (
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/diwire/core/oracle"
)

// rawContribution is one "//diwire:contributes <Scope>" or
// "//diwire:container <Scope>" directive discovered while walking a
// package, before visibility filtering has been applied.
type rawContribution struct {
	scope oracle.ClassID
	ref oracle.ClassRef
	isContainer bool
	exported bool
}

// VisibilityFilter decides whether a cross-module contribution is visible
// to a scope's resolution, generalized from gitignore/exclude
// package-path filtering into the single rule
// Go visibility actually gives us: an unexported declaration never crosses
// a package boundary, so it can never contribute to a scope resolved from
// another package.
type VisibilityFilter struct{}

// Allows reports whether a contribution marked exported is visible.
func (VisibilityFilter) Allows(exported bool) bool { return exported }

// ScopeHints implements oracle.ScopeHintRegistry over the contribution and
// binding-container directives discovered during Load. Per-scope filtered
// views are computed lazily and cached, with concurrent requests for the
// same scope collapsed via singleflight — multiple graphs resolved in
// parallel by resolve.ResolveAll routinely share scopes, and re-filtering
// the same raw list on every one of them would be wasted work.
type ScopeHints struct {
	raw map[oracle.ClassID][]rawContribution
	filter VisibilityFilter

	group singleflight.Group
	mu sync.Mutex
	contribCache map[oracle.ClassID][]oracle.ClassRef
	containerCache map[oracle.ClassID][]oracle.ClassRef
}

// NewScopeHints builds a ScopeHints from the raw contributions gathered
// while walking packages.
func NewScopeHints(raw map[oracle.ClassID][]rawContribution) *ScopeHints {
	return &ScopeHints{
 raw: raw,
 contribCache: make(map[oracle.ClassID][]oracle.ClassRef),
 containerCache: make(map[oracle.ClassID][]oracle.ClassRef),
	}
}

func (s *ScopeHints) ContributionsFor(scope oracle.ClassID) []oracle.ClassRef {
	v, _, _ := s.group.Do("contrib:"+string(scope), func() (interface{}, error) {
 return s.filtered(scope, false), nil
	})
	return v.([]oracle.ClassRef)
}

func (s *ScopeHints) BindingContainersFor(scope oracle.ClassID) []oracle.ClassRef {
	v, _, _ := s.group.Do("container:"+string(scope), func() (interface{}, error) {
 return s.filtered(scope, true), nil
	})
	return v.([]oracle.ClassRef)
}

func (s *ScopeHints) filtered(scope oracle.ClassID, wantContainer bool) []oracle.ClassRef {
	cache := s.contribCache
	if wantContainer {
 cache = s.containerCache
	}

	s.mu.Lock()
	if cached, ok := cache[scope]; ok {
 s.mu.Unlock()
 return cached
	}
	s.mu.Unlock()

	var out []oracle.ClassRef
	for _, rc := range s.raw[scope] {
 if rc.isContainer != wantContainer {
 continue
 }
 if !s.filter.Allows(rc.exported) {
 continue
 }
 out = append(out, rc.ref)
	}

	s.mu.Lock()
	cache[scope] = out
	s.mu.Unlock()
	return out
}
