// Package graph implements the binding graph: the per-graph-node container
// of resolved bindings, with lazy dependency
// thunks and the dual-registration rule for Map<K, Provider<V>>
// multibindings. It is grounded in a dependency-graph accumulator type,
// generalized from "one provider per concrete type" into "one
// Binding (of twelve variants) per ContextualTypeKey, with multibinding
// aggregation."
package graph

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/diwire/core/binding"
	"github.com/diwire/core/diag"
	"github.com/diwire/core/lookup"
	"github.com/diwire/core/oracle"
	"github.com/diwire/core/parentctx"
	"github.com/diwire/core/stack"
	"github.com/diwire/core/typekey"
)

// ErrPutAllUnsupported is returned when a map multibinding's assembly site
// finds an ancestor graph already contributing to the same Map<K, V> key.
// Merging map entries across a graph-extension boundary (the source's
// "putAll" across graphs) isn't supported; the caller still gets a usable
// (if incomplete) local multibinding rather than a hard failure.
var ErrPutAllUnsupported = errors.New("graph: putAll across graph extensions is not supported")

func firstLocString(loc oracle.Location, has bool) string {
	if !has || loc == nil {
		return "<unknown>"
	}
	return loc.String()
}

// entry pairs a stored binding with a lazily-forced, memoized dependency
// thunk (: "Dependencies are recorded lazily … but only forced at
// validation time").
type entry struct {
	b binding.Binding
	once sync.Once
	deps []typekey.ContextualTypeKey
	forcing bool
}

// Node is a single DependencyGraphNode: one graph's resolved binding set.
type Node struct {
	Name string

	Lookup *lookup.Lookup
	Diags *diag.Collector
	Stack *stack.Stack
	// Parents is this graph's ancestor-extension stack, nil for a graph
	// with no ancestors. Consulted by PutAllMapBinding to detect a
	// descendant contributing to a map multibinding an ancestor already
	// owns.
	Parents *parentctx.Stack

	mu sync.Mutex
	bindings map[string]*entry // Key.String -> entry
	multi map[string]*binding.Multibinding
}

// New creates an empty Node for the named graph. parents may be nil.
func New(name string, lk *lookup.Lookup, diags *diag.Collector, parents *parentctx.Stack) *Node {
	return &Node{
		Name: name,
		Lookup: lk,
		Diags: diags,
		Stack: stack.New(name),
		Parents: parents,
		bindings: make(map[string]*entry),
		multi: make(map[string]*binding.Multibinding),
	}
}

// AddBinding registers b under its TypeKey. Duplicate registration is
// rejected: an Absent is silently dropped ( invariant (c)); any
// other duplicate emits [DuplicateBinding] with both source locations and
// the current stack, and the original registration wins.
func (n *Node) AddBinding(b binding.Binding) {
	if b.Kind() == binding.KindAbsent {
		return
	}
	key := b.TypeKey().String()

	n.mu.Lock()
	defer n.mu.Unlock()

	if existing, ok := n.bindings[key]; ok {
		loc, hasLoc := b.Location()
		existingLoc, existingHasLoc := existing.b.Location()
		var reportLoc oracle.Location
		if hasLoc {
			reportLoc = loc
		} else if existingHasLoc {
			reportLoc = existingLoc
		}
		d := diag.New(diag.DuplicateBinding, reportLoc, "duplicate binding for %s (first declared at %s)", b.TypeKey(), firstLocString(existingLoc, existingHasLoc)).
			WithStack(n.Stack.Render(0))
		n.Diags.Report(d)
		return
	}
	n.bindings[key] = &entry{b: b}
}

// GetOrCreateBinding returns the cached binding for ctk, or invokes the
// Lookup. On a miss with no default, it emits [MissingBinding] including
// similarity hints — same type different qualifier; a multibinding whose
// element type matches — searched only on failure (sub/supertypes are not
// searched), per
//
func (n *Node) GetOrCreateBinding(ctk typekey.ContextualTypeKey) (binding.Binding, error) {
	key := ctk.Key.String()

	n.mu.Lock()
	if e, ok := n.bindings[key]; ok {
		n.mu.Unlock()
		return e.b, nil
	}
	n.mu.Unlock()

	result, err := n.Lookup.Lookup(ctk)
	if err != nil {
		return nil, err
	}
	if !result.Found {
		hints := n.similarityHints(ctk)
		var loc oracle.Location
		d := diag.New(diag.MissingBinding, loc, "no binding found for %s", ctk.Render()).WithHints(hints)
		n.Diags.Report(d)
		return nil, fmt.Errorf("missing binding for %s", ctk.Render())
	}

	n.AddBinding(result.Binding)
	return result.Binding, nil
}

// similarityHints performs the same-type-different-qualifier and matching-
// element-type multibinding searches on a lookup failure. It does not
// search sub/supertypes, so it never produces a Subtype or Supertype hint.
func (n *Node) similarityHints(ctk typekey.ContextualTypeKey) []diag.Hint {
	n.mu.Lock()
	defer n.mu.Unlock()

	var hints []diag.Hint
	for _, e := range n.bindings {
		if e.b.TypeKey().Canonical.String() == ctk.Key.Canonical.String() && !e.b.TypeKey().Equal(ctk.Key) {
			hints = append(hints, diag.Hint{Kind: diag.HintDifferentQualifier, Display: e.b.TypeKey().String()})
		}
	}
	for key, m := range n.multi {
		for _, sb := range m.SourceBindings {
			if sb.Binding.TypeKey().Canonical.String() == ctk.Key.Canonical.String() {
				hints = append(hints, diag.Hint{Kind: diag.HintMultibinding, Display: key})
				break
			}
		}
	}
	return hints
}

// PutAllMapBinding reports whether typeKey's map multibinding may be
// assembled locally given n's ancestor chain. An ancestor graph that
// already makes this same Map<K, V> key available cannot have its
// contributions merged with this graph's own (the source's "putAll"
// across graph extensions): this raises an AggregationError diagnostic and
// returns ErrPutAllUnsupported instead of silently dropping the conflict.
func (n *Node) PutAllMapBinding(typeKey typekey.Key) error {
	if n.Parents == nil || !n.Parents.Contains(typeKey) {
		return nil
	}
	d := diag.New(diag.AggregationError, nil,
		"map multibinding %s is already provided by an ancestor graph; merging map entries across graph extensions (putAll) is not supported", typeKey).
		WithStack(n.Stack.Render(0))
	n.Diags.Report(d)
	return fmt.Errorf("%s: %w", typeKey, ErrPutAllUnsupported)
}

// GetOrCreateMultibinding idempotently creates the Set or Map multibinding
// for typeKey. For map multibindings, it also registers a binding at the
// Map<K, Provider<V>> key pointing at the same instance, so
// consumers may depend on either form, and checks PutAllMapBinding first.
func (n *Node) GetOrCreateMultibinding(typeKey typekey.Key, isMap, allowEmpty bool) *binding.Multibinding {
	key := typeKey.String()

	n.mu.Lock()
	if m, ok := n.multi[key]; ok {
		n.mu.Unlock()
		return m
	}
	n.mu.Unlock()

	if isMap {
		_ = n.PutAllMapBinding(typeKey) // diagnostic already reported on failure; still assemble locally
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	if m, ok := n.multi[key]; ok {
		return m
	}

	m := &binding.Multibinding{
		Base: binding.Base{Key: typeKey},
		IsMap: isMap,
		IsSet: !isMap,
		AllowEmpty: allowEmpty,
	}
	n.registerMultibindingLocked(key, typeKey, isMap, m)
	return m
}

// GetOrCreateMultibindingWithSources is GetOrCreateMultibinding, additionally
// merging sources into the multibinding's contribution list. Safe to call
// once per discovered @IntoSet/@IntoMap/@ElementsIntoSet group as the
// scanner's contributions are assembled.
func (n *Node) GetOrCreateMultibindingWithSources(typeKey typekey.Key, isMap, allowEmpty bool, sources []binding.BindingWithAnnotations) *binding.Multibinding {
	m := n.GetOrCreateMultibinding(typeKey, isMap, allowEmpty)
	n.mu.Lock()
	defer n.mu.Unlock()
	m.SourceBindings = append(m.SourceBindings, sources...)
	m.SortSourceBindings()
	return m
}

// registerMultibindingLocked stores m under key and, for map multibindings,
// dual-registers it under the Map<K, Provider<V>> alias key too. Callers
// must hold n.mu.
func (n *Node) registerMultibindingLocked(key string, typeKey typekey.Key, isMap bool, m *binding.Multibinding) {
	n.multi[key] = m
	// Multibindings are themselves Bindings (its read views cover
	// them uniformly), so they're also reachable through FindBinding,
	// Contains, and BindingsSnapshot like any other stored binding.
	n.bindings[key] = &entry{b: m}

	if isMap {
		// Dual-registration: Map<K, Provider<V>> addresses the same
		// instance, so a consumer asking for either form gets the same
		// Multibinding object.
		providerKey := mapProviderKey(typeKey)
		n.multi[providerKey.String()] = m
		n.bindings[providerKey.String()] = &entry{b: m}
	}
}

// mapProviderKey derives the Map<K, Provider<V>> key alias for a
// Map<K, V> multibinding's own key. The canonical type itself already
// captures the K/V identity (see typekey.WrappedType); this alias only
// needs a distinguishable string suffix so both forms resolve to the one
// stored Multibinding.
func mapProviderKey(k typekey.Key) typekey.Key {
	return typekey.New(providerWrappedAlias{k.Canonical}, k.Qualifier)
}

// providerWrappedAlias renders as the owning map key suffixed to mark the
// Provider<V>-valued form, giving it a distinct Key.String from the plain
// Map<K, V> key while both map to the same stored Multibinding via the
// dual-registration in GetOrCreateMultibinding.
type providerWrappedAlias struct{ inner fmt.Stringer }

func (p providerWrappedAlias) String() string { return p.inner.String() + "{Provider-valued}" }

// FindBinding is a read view: returns the stored binding for key, if any.
func (n *Node) FindBinding(key typekey.Key) (binding.Binding, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	e, ok := n.bindings[key.String()]
	if !ok {
		return nil, false
	}
	return e.b, true
}

// Contains reports whether key has a stored binding.
func (n *Node) Contains(key typekey.Key) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	_, ok := n.bindings[key.String()]
	return ok
}

// BindingsSnapshot returns every stored binding, sorted by TypeKey render
// for deterministic iteration.
func (n *Node) BindingsSnapshot() []binding.Binding {
	n.mu.Lock()
	defer n.mu.Unlock()

	out := make([]binding.Binding, 0, len(n.bindings))
	for _, e := range n.bindings {
		out = append(out, e.b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TypeKey().Less(out[j].TypeKey()) })
	return out
}

// Dependencies returns the memoized, lazily-forced dependency set for a
// stored binding's key, per its thunk model. Forcing is reentrancy-
// guarded: a key forced while already being forced (on the same goroutine)
// reports itself, rather than recursing forever, leaving cycle detection to
// package validate which walks this same data with stack awareness.
func (n *Node) Dependencies(key typekey.Key) ([]typekey.ContextualTypeKey, error) {
	n.mu.Lock()
	e, ok := n.bindings[key.String()]
	n.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("no binding for %s", key)
	}

	if e.forcing {
		return nil, fmt.Errorf("reentrant forcing of dependency thunk for %s", key)
	}

	e.once.Do(func() {
		e.forcing = true
		e.deps = e.b.Dependencies()
		e.forcing = false
	})
	return e.deps, nil
}
