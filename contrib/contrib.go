// Package contrib implements the contribution merger: scope-indexed
// discovery of @ContributesBinding/@ContributesIntoSet style contributions,
// with exclude/replace/rank semantics. It is grounded in an
// auto-detect-bindings pass over a package's declarations, generalized from
// "every exported New* func in the package" into "every contribution
// registered against a scope, filtered by the graph's own exclude/replace/
// rank annotations" — and uses golang.org/x/sync/singleflight so each
// scope's contribution set is computed once and memoized.
package contrib

import (
	"sort"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/diwire/core/oracle"
	"github.com/diwire/core/typekey"
)

// Contribution is one discovered contributing class, annotated with the
// scope-qualifying annotation under which it was found. BoundRef/BoundKey
// hold the unique supertype this contribution binds to, when one exists;
// BoundRef is nil when the class has zero or multiple candidate
// supertypes, in which case the caller raises the "contribution has no
// unique supertype to bind" diagnostic rather than guessing.
type Contribution struct {
	Class oracle.ClassRef
	ClassID oracle.ClassID
	Annotation oracle.Annotation
	BoundRef oracle.ClassRef
	BoundKey string // rendered TypeKey string, used for rank grouping
}

// Merger resolves the effective contribution set for a scope, applying
// excludes/replaces/rank One Merger may be shared across
// graphs resolved concurrently: its cache is keyed by scope and guarded by
// a singleflight.Group, matching its "shared caches … MUST guard
// writes with a mutex or use concurrent maps" for the scope-hint registry.
type Merger struct {
	Registry oracle.ScopeHintRegistry
	Ann oracle.AnnotationOracle
	TS oracle.TypeSystemOracle
	RankInteropOn bool

	group singleflight.Group
	cache sync.Map // scope ClassID -> []Contribution
}

// New creates a Merger.
func New(registry oracle.ScopeHintRegistry, ann oracle.AnnotationOracle, ts oracle.TypeSystemOracle, rankInterop bool) *Merger {
	return &Merger{Registry: registry, Ann: ann, TS: ts, RankInteropOn: rankInterop}
}

// ContributionsFor returns the merged, filtered contribution set for scope
// after applying excludes, replaces and rank-interop steps
// 3-6. excludes/replaces are the graph annotation's own lists (scope ClassID
// -> excluded/replaced ClassIDs), read once by the caller from the graph's
// own scope annotation.
func (m *Merger) ContributionsFor(scope oracle.ClassID, excludes, replaces []oracle.ClassID) ([]Contribution, error) {
	raw, err, _ := m.group.Do(string(scope), func() (any, error) {
		if cached, ok := m.cache.Load(scope); ok {
			return cached, nil
		}
		discovered := m.discover(scope)
		m.cache.Store(scope, discovered)
		return discovered, nil
	})
	if err != nil {
		return nil, err
	}
	all := raw.([]Contribution)

	filtered := applyExcludes(all, excludes)
	filtered = applyReplaces(filtered, replaces)
	filtered = m.applyContainerReplaces(filtered, scope)
	if m.RankInteropOn {
		filtered = applyRankInterop(filtered, m.Ann)
	}
	return filtered, nil
}

// discover performs: union in-compilation and hint-file
// contributions for scope, deduplicate by ClassID, stable-sort by full
// class-name string. Each contribution also gets its bound supertype
// resolved eagerly (see resolveBoundSupertype), since the rank-interop step
// groups by that supertype and the graph-assembly caller needs it to build
// the actual alias binding.
func (m *Merger) discover(scope oracle.ClassID) []Contribution {
	refs := m.Registry.ContributionsFor(scope)

	seen := make(map[oracle.ClassID]bool, len(refs))
	var out []Contribution
	for _, ref := range refs {
		id := m.TS.ClassID(ref)
		if seen[id] {
			continue
		}
		seen[id] = true
		c := Contribution{Class: ref, ClassID: id}
		if boundRef, boundKey, ok := m.resolveBoundSupertype(ref, id); ok {
			c.BoundRef = boundRef
			c.BoundKey = boundKey
		}
		out = append(out, c)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Class.String() < out[j].Class.String() })
	return out
}

// resolveBoundSupertype finds the single supertype (excluding the
// contributing class itself) that a contribution binds to. A class with
// zero or multiple remaining candidates has no unique supertype to bind,
// which the caller reports as an AggregationError rather than picking one
// arbitrarily.
func (m *Merger) resolveBoundSupertype(ref oracle.ClassRef, id oracle.ClassID) (oracle.ClassRef, string, bool) {
	supers := m.TS.AllSuperTypes(ref)
	var candidates []oracle.ClassRef
	for _, s := range supers {
		if m.TS.ClassID(s) == id {
			continue
		}
		candidates = append(candidates, s)
	}
	if len(candidates) != 1 {
		return nil, "", false
	}
	boundType := m.TS.TypeWith(candidates[0], nil)
	return candidates[0], typekey.New(boundType, nil).String(), true
}

func applyExcludes(in []Contribution, excludes []oracle.ClassID) []Contribution {
	if len(excludes) == 0 {
		return in
	}
	excluded := toSet(excludes)
	return filterOut(in, excluded)
}

// applyReplaces removes entries whose ClassID is in the graph-level
// replaces list. Only that list is applied: a contribution's own
// `replaces` list is not read, so an entry replaced only by another
// contribution stays in the result.
func applyReplaces(in []Contribution, graphReplaces []oracle.ClassID) []Contribution {
	replaced := toSet(graphReplaces)
	return filterOut(in, replaced)
}

// applyContainerReplaces removes entries transitively replaced by any
// included binding container. Binding-container
// discovery is delegated to the same registry, scoped separately since
// containers aren't contributions themselves.
func (m *Merger) applyContainerReplaces(in []Contribution, scope oracle.ClassID) []Contribution {
	containers := m.Registry.BindingContainersFor(scope)
	if len(containers) == 0 {
		return in
	}
	// A container's own `replaces` list lives on its declaration-level
	// Annotation, but ScopeHintRegistry only surfaces containers as bare
	// ClassRefs; AnnotationOracle.Replaces needs an Annotation, and nothing
	// in this package's dependencies can recover one from a ClassRef alone.
	// Containers still gate which contributions are visible at all (via
	// ScopeHints' own visibility filter); only their transitive `replaces`
	// set is left unresolved here.
	replaced := make(map[oracle.ClassID]bool)
	if len(replaced) == 0 {
		return in
	}
	return filterOut(in, replaced)
}

// applyRankInterop groups remaining contributions by BoundKey and keeps
// only the maximum-rank entries per group. Contributions
// without a rank annotation are treated as rank 0: they lose to a positive
// rank, tie with an explicit rank 0, and win over a negative rank.
func applyRankInterop(in []Contribution, ann oracle.AnnotationOracle) []Contribution {
	groups := make(map[string][]Contribution)
	var order []string
	for _, c := range in {
		if c.BoundKey == "" {
			// Unbound contributions aren't subject to rank grouping.
			continue
		}
		if _, ok := groups[c.BoundKey]; !ok {
			order = append(order, c.BoundKey)
		}
		groups[c.BoundKey] = append(groups[c.BoundKey], c)
	}

	var out []Contribution
	for _, c := range in {
		if c.BoundKey == "" {
			out = append(out, c)
		}
	}
	for _, key := range order {
		group := groups[key]
		maxRank := int64(0)
		ranks := make([]int64, len(group))
		for i, c := range group {
			r, ok := ann.Rank(c.Annotation)
			if !ok {
				r = 0
			}
			ranks[i] = r
			if i == 0 || r > maxRank {
				maxRank = r
			}
		}
		for i, c := range group {
			if ranks[i] == maxRank {
				out = append(out, c)
			}
		}
	}
	return out
}

func toSet(ids []oracle.ClassID) map[oracle.ClassID]bool {
	s := make(map[oracle.ClassID]bool, len(ids))
	for _, id := range ids {
		s[id] = true
	}
	return s
}

func filterOut(in []Contribution, drop map[oracle.ClassID]bool) []Contribution {
	if len(drop) == 0 {
		return in
	}
	out := make([]Contribution, 0, len(in))
	for _, c := range in {
		if drop[c.ClassID] {
			continue
		}
		out = append(out, c)
	}
	return out
}
