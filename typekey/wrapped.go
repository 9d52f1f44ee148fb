// Package typekey implements the canonical identity used for every bindable
// slot in a graph: TypeKey, the WrappedType decomposition that recognizes
// Provider<T>/Lazy<T>/Map<K,V> wrapper shells, and ContextualTypeKey, which
// pairs a TypeKey with the wrapper shape a particular parameter or accessor
// actually saw.
//
// Construction is grounded in a short-type-name/config-type string-surgery
// approach, generalized from ad hoc prefix/suffix slicing
// into a structural decomposition driven by an oracle.TypeSystemOracle
// instead of regexing rendered type strings.
package typekey

import (
	"strings"

	"github.com/diwire/core/oracle"
)

// Kind discriminates the variants of WrappedType.
type Kind int

// Wrapper kinds, in the order decomposes them.
const (
	KindCanonical Kind = iota
	KindProvider
	KindLazy
	KindMap
)

// WrappedType is a tagged union over a carrier type: a binding either
// resolves to the canonical type directly, or to that type wrapped in a
// deferred Provider/Lazy accessor, or to a multibinding map keyed by it.
// Instantiated here with the carrier fixed to oracle.Type, since that is
// the only carrier this core ever needs.
type WrappedType struct {
	Kind Kind

	// Canonical holds the unwrapped type when Kind == KindCanonical.
	Canonical oracle.Type

	// Inner holds the wrapped type for KindProvider/KindLazy.
	Inner *WrappedType
	// ClassID identifies which configured Provider/Lazy class this is.
	ClassID oracle.ClassID

	// KeyType and Value hold the key/value shape for KindMap.
	KeyType oracle.Type
	Value *WrappedType
	// CanonicalTypeThunk holds the Map<K, V> type itself, with V already
	// normalized to its innermost canonical form. Carried separately from
	// Value (which may still be a Provider/Lazy-wrapped node) so
	// CanonicalType can return the map's own type rather than recursing into
	// V — Map<K, V> and Map<K, Provider<V>> must resolve to the same
	// TypeKey, not to V itself.
	CanonicalTypeThunk oracle.Type
}

// Provider builds a Provider<inner> node.
func Provider(inner *WrappedType, classID oracle.ClassID) *WrappedType {
	return &WrappedType{Kind: KindProvider, Inner: inner, ClassID: classID}
}

// Lazy builds a Lazy<inner> node.
func Lazy(inner *WrappedType, classID oracle.ClassID) *WrappedType {
	return &WrappedType{Kind: KindLazy, Inner: inner, ClassID: classID}
}

// MapOf builds a Map<key, value> node. canonical is the Map<K, V> type
// itself (V normalized), used as this node's CanonicalType.
func MapOf(key oracle.Type, value *WrappedType, canonical oracle.Type) *WrappedType {
	return &WrappedType{Kind: KindMap, KeyType: key, Value: value, CanonicalTypeThunk: canonical}
}

// Canon builds a leaf Canonical(t) node.
func Canon(t oracle.Type) *WrappedType {
	return &WrappedType{Kind: KindCanonical, Canonical: t}
}

// Build decomposes a raw oracle type into its WrappedType shape, following
// the recursive procedure of:
//
// 1. Map<K, V> (two type arguments) → Map(K, recurse(V))
// 2. a configured Provider class → Provider(recurse(arg), classID)
// 3. a configured Lazy class → Lazy(recurse(arg), classID)
// 4. otherwise → Canonical(type), flexible-null normalized
func Build(ts oracle.TypeSystemOracle, t oracle.Type) *WrappedType {
	if ref, ok := ts.RawClassOf(t); ok {
		if ts.IsMapClass(ref) {
			args := ts.TypeArguments(t)
			if len(args) == 2 {
				value := Build(ts, args[1])
				canonical := ts.TypeWith(ref, []oracle.Type{args[0], value.CanonicalType()})
				return MapOf(args[0], value, canonical)
			}
		}
		if id, ok := ts.IsProviderClass(ref); ok {
			args := ts.TypeArguments(t)
			if len(args) == 1 {
				return Provider(Build(ts, args[0]), id)
			}
		}
		if id, ok := ts.IsLazyClass(ref); ok {
			args := ts.TypeArguments(t)
			if len(args) == 1 {
				return Lazy(Build(ts, args[0]), id)
			}
		}
	}

	normalized := t
	if ts.HasFlexibleNullability(t) {
		normalized = ts.MakeNotNull(t)
	}
	return Canon(normalized)
}

// CanonicalType unwraps to the innermost Canonical payload
// ("WrappedType::canonical_type(W(X)) == W.canonical_type(X) for any
// nesting" — testable property 2). For KindMap it returns the Map<K, V>
// type itself (via CanonicalTypeThunk), not V, so Map<K,V> and
// Map<K,Provider<V>> both key to the same Map<K,V> TypeKey and neither
// collides with a plain V binding.
func (w *WrappedType) CanonicalType() oracle.Type {
	switch w.Kind {
	case KindCanonical:
		return w.Canonical
	case KindProvider, KindLazy:
		return w.Inner.CanonicalType()
	case KindMap:
		return w.CanonicalTypeThunk
	default:
		return nil
	}
}

// IsDeferrable reports whether any Provider/Lazy wrapper appears anywhere on
// the path from the root to a Canonical leaf, or the canonical type is a
// Map whose value subtree is itself deferrable.
func (w *WrappedType) IsDeferrable() bool {
	switch w.Kind {
	case KindProvider, KindLazy:
		return true
	case KindMap:
		return w.Value.IsDeferrable()
	default:
		return false
	}
}

// FindMapValueType returns the wrapped value type of a Map node, if w (or
// any ancestor in a Provider/Lazy chain) is a Map.
func (w *WrappedType) FindMapValueType() (*WrappedType, bool) {
	switch w.Kind {
	case KindMap:
		return w.Value, true
	case KindProvider, KindLazy:
		return w.Inner.FindMapValueType()
	default:
		return nil, false
	}
}

// IsProvider reports whether the outermost wrapper is Provider<...>.
func (w *WrappedType) IsProvider() bool { return w.Kind == KindProvider }

// IsLazy reports whether the outermost wrapper is Lazy<...>.
func (w *WrappedType) IsLazy() bool { return w.Kind == KindLazy }

// IsLazyWrappedInProvider reports Provider<Lazy<...>>.
func (w *WrappedType) IsLazyWrappedInProvider() bool {
	return w.Kind == KindProvider && w.Inner != nil && w.Inner.Kind == KindLazy
}

// Equal reports structural equality between two WrappedType trees, comparing
// leaves by their oracle.Type.String rendering.
func (w *WrappedType) Equal(o *WrappedType) bool {
	if w == nil || o == nil {
		return w == o
	}
	if w.Kind != o.Kind {
		return false
	}
	switch w.Kind {
	case KindCanonical:
		return typeString(w.Canonical) == typeString(o.Canonical)
	case KindProvider, KindLazy:
		return w.ClassID == o.ClassID && w.Inner.Equal(o.Inner)
	case KindMap:
		return typeString(w.KeyType) == typeString(o.KeyType) && w.Value.Equal(o.Value)
	default:
		return false
	}
}

// Render produces a deterministic nested-generic rendering, e.g.
// "Provider<Lazy<X>>" or "Map<Int, Provider<String>>".
func (w *WrappedType) Render() string {
	var b strings.Builder
	w.render(&b)
	return b.String()
}

func (w *WrappedType) render(b *strings.Builder) {
	switch w.Kind {
	case KindCanonical:
		b.WriteString(typeString(w.Canonical))
	case KindProvider:
		b.WriteString("Provider<")
		w.Inner.render(b)
		b.WriteString(">")
	case KindLazy:
		b.WriteString("Lazy<")
		w.Inner.render(b)
		b.WriteString(">")
	case KindMap:
		b.WriteString("Map<")
		b.WriteString(typeString(w.KeyType))
		b.WriteString(", ")
		w.Value.render(b)
		b.WriteString(">")
	}
}

func typeString(t oracle.Type) string {
	if t == nil {
		return "<nil>"
	}
	return t.String()
}
