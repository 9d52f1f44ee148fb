package typekey

import (
	"hash/fnv"
	"strings"

	"github.com/diwire/core/oracle"
)

// Key is the canonical identity for a bindable slot in a graph: a pair of
// (canonicalType, qualifier) Two Keys are equal iff they resolve
// the same binding slot — regardless of how many Provider<_>/Lazy<_>
// wrapper layers a particular request saw.
type Key struct {
	Canonical oracle.Type
	Qualifier oracle.Annotation // nil when unqualified
}

// New builds a Key from an already-unwrapped canonical type and an optional
// qualifier annotation.
func New(canonical oracle.Type, qualifier oracle.Annotation) Key {
	return Key{Canonical: canonical, Qualifier: qualifier}
}

// Of derives the Key that owns a given WrappedType, i.e. the key addressing
// whatever Canonical/Map type it unwraps to.
func Of(w *WrappedType, qualifier oracle.Annotation) Key {
	return Key{Canonical: w.CanonicalType(), Qualifier: qualifier}
}

// setAlias renders as "Set<inner>", giving a Set<V> multibinding's owning
// key a distinct canonical-type identity from a plain V binding. Go has no
// built-in generic Set marker type the way it has map[K]V for Map<K,V>, so
// this mirrors the existing map-alias idiom (see graph.providerWrappedAlias)
// instead of inventing a parallel decomposition path through WrappedType.
type setAlias struct{ inner oracle.Type }

func (s setAlias) String() string { return "Set<" + s.inner.String() + ">" }

// SetOf derives the owning Key for a Set<elementType> multibinding, used by
// a frontend grouping @IntoSet/@ElementsIntoSet contributions before they
// reach the Binding Graph.
func SetOf(elementType oracle.Type, qualifier oracle.Annotation) Key {
	return Key{Canonical: setAlias{inner: elementType}, Qualifier: qualifier}
}

// render produces the deterministic string uses for equality,
// hashing, and stable ordering ("render(short=false) lexicographic
// comparison"). Two Keys addressing the same slot MUST render identically;
// this requires the TypeSystemOracle's Type.String to be a stable,
// fully-qualified rendering.
func (k Key) render() string {
	var b strings.Builder
	if k.Qualifier != nil {
		b.WriteString("@")
		b.WriteString(k.Qualifier.String())
		b.WriteString(" ")
	}
	if k.Canonical != nil {
		b.WriteString(k.Canonical.String())
	} else {
		b.WriteString("<nil>")
	}
	return b.String()
}

// String implements fmt.Stringer and is also the Key's stable render.
func (k Key) String() string { return k.render() }

// Equal reports whether two Keys address the same binding slot (testable
// property 1: reflexive, symmetric, transitive, since it reduces to string
// equality of the canonical render).
func (k Key) Equal(o Key) bool { return k.render() == o.render() }

// Less orders Keys by their stable render string, used throughout the core
// for SortedMap/SortedSet iteration.
func (k Key) Less(o Key) bool { return k.render() < o.render() }

// Hash returns an FNV-1a hash consistent with Equal: Hash(a) == Hash(b)
// whenever a.Equal(b).
func (k Key) Hash() uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(k.render()))
	return h.Sum64()
}

// IsQualified reports whether the key carries a qualifier annotation.
func (k Key) IsQualified() bool { return k.Qualifier != nil }
