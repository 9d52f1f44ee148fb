package binding

import (
	"sort"

	"github.com/diwire/core/oracle"
	"github.com/diwire/core/typekey"
)

// BindingWithAnnotations pairs a source binding contributed to a
// multibinding with the @IntoMap/@MapKey-style annotations that determine
// its position
type BindingWithAnnotations struct {
	Binding Binding
	Annotations []oracle.Annotation
	// MapKey is the rendered map key when the owning Multibinding IsMap; it
	// participates in the deterministic sort tuple below.
	MapKey string
}

// Multibinding is the aggregated Set or Map binding assembled from
// contributions. Its dependencies are the union of each source
// binding's own dependencies.
type Multibinding struct {
	Base
	IsSet bool
	IsMap bool
	AllowEmpty bool
	SourceBindings []BindingWithAnnotations
}

// Kind implements Binding.
func (Multibinding) Kind() Kind { return KindMultibinding }

// Parameters implements Binding: a Multibinding itself takes no parameters;
// its source bindings do.
func (Multibinding) Parameters() []Parameter { return nil }

// Dependencies implements Binding: the union of each source binding's
// derived dependencies. An empty, allowEmpty multibinding is a
// terminal binding with no dependencies ( supplement on the
// empty-multibinding Open Question).
func (m Multibinding) Dependencies() []typekey.ContextualTypeKey {
	if len(m.SourceBindings) == 0 {
 return nil
	}
	seen := make(map[string]bool)
	var deps []typekey.ContextualTypeKey
	for _, sb := range m.SourceBindings {
 for _, d := range sb.Binding.Dependencies() {
 k := d.Render()
 if seen[k] {
 continue
 }
 seen[k] = true
 deps = append(deps, d)
 }
	}
	return deps
}

// SortSourceBindings orders SourceBindings by a deterministic tuple:
// (typeKey, nameHint, scope, parameters).
func (m *Multibinding) SortSourceBindings() {
	sort.SliceStable(m.SourceBindings, func(i, j int) bool {
 a, b := m.SourceBindings[i].Binding, m.SourceBindings[j].Binding
 if !a.TypeKey().Equal(b.TypeKey()) {
 return a.TypeKey().Less(b.TypeKey())
 }
 if a.NameHint() != b.NameHint() {
 return a.NameHint() < b.NameHint()
 }
 as, aok := a.Scope()
 bs, bok := b.Scope()
 if aok != bok {
 return !aok // unscoped sorts before scoped
 }
 if as != bs {
 return as < bs
 }
 return paramsLess(a.Parameters(), b.Parameters())
	})
}

func paramsLess(a, b []Parameter) bool {
	n := len(a)
	if len(b) < n {
 n = len(b)
	}
	for i := 0; i < n; i++ {
 ar, br := a[i].ContextualKey.Render(), b[i].ContextualKey.Render()
 if ar != br {
 return ar < br
 }
	}
	return len(a) < len(b)
}

// IsEmpty reports whether this multibinding has zero contributions.
func (m Multibinding) IsEmpty() bool { return len(m.SourceBindings) == 0 }
