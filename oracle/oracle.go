// Package oracle declares the external collaborators the core consumes to
// stay frontend-agnostic: the Type System Oracle, Annotation Oracle,
// Declaration Source, Scope Hint Registry, Diagnostic Reporter, and
// Incremental-Compilation Tracker. None of these are implemented here — see
// package goframe for a go/types-backed adapter. The Code Emitter is
// declared in package resolve.
package oracle

// Type is an opaque handle to a frontend type. The core never inspects it
// directly; it only ever asks the TypeSystemOracle questions about it.
type Type interface {
	// String renders the type for diagnostics and stable ordering.
	String() string
}

// ClassRef is an opaque handle to a declared class/interface/object.
type ClassRef interface {
	String() string
}

// ClassID identifies a class across the whole compilation, stable across
// distinct Type values that denote the same declaration.
type ClassID string

// Decl is an opaque handle to a declaration (function, property, parameter,
// constructor, etc.) that annotations and locations can be asked about.
type Decl interface {
	String() string
}

// Annotation is an opaque handle to a single annotation instance attached to
// a Decl. Two Annotations are structurally equal iff AnnotationOracle.Equal
// reports them equal.
type Annotation interface {
	String() string
}

// Location is an opaque source location used for diagnostic reporting.
type Location interface {
	String() string
}

// TypeSystemOracle answers structural questions about frontend types.
// It is the sole authority the core uses to decompose a raw type into its
// WrappedType shape (see package typekey).
type TypeSystemOracle interface {
	// RawClassOf returns the declared class backing a type, or ok=false for
	// non-class types (e.g. type variables that could not be resolved).
	RawClassOf(t Type) (ref ClassRef, ok bool)
	// IsSubtype reports whether a is assignable to b.
	IsSubtype(a, b Type) bool
	// AllSuperTypes lists every supertype (interfaces and superclasses) of a
	// class, including itself, in an oracle-defined but deterministic order.
	AllSuperTypes(ref ClassRef) []ClassRef
	// ClassID returns the stable identity of a class reference.
	ClassID(ref ClassRef) ClassID
	// TypeArguments returns the generic type arguments applied to t, or nil
	// if t is not a parameterized type.
	TypeArguments(t Type) []Type
	// IsMarkedNullable reports whether t is written as nullable.
	IsMarkedNullable(t Type) bool
	// HasFlexibleNullability reports whether t's nullability is platform-
	// flexible (neither definitely nullable nor definitely non-null).
	HasFlexibleNullability(t Type) bool
	// MakeNotNull returns t with nullability normalized away.
	MakeNotNull(t Type) Type
	// TypeWith constructs a concrete parameterized type from a class and its
	// type arguments, used when remapping generic bindings to a call site.
	TypeWith(ref ClassRef, args []Type) Type
	// IsProviderClass reports whether ref is one of the configured
	// Provider<T> wrapper classes, returning its ClassID for rendering.
	IsProviderClass(ref ClassRef) (id ClassID, ok bool)
	// IsLazyClass reports whether ref is one of the configured Lazy<T>
	// wrapper classes, returning its ClassID for rendering.
	IsLazyClass(ref ClassRef) (id ClassID, ok bool)
	// IsMapClass reports whether ref is the built-in Map<K, V> class.
	IsMapClass(ref ClassRef) bool
	// IsMembersInjectorClass reports whether ref is the MembersInjector<T>
	// wrapper class used by MembersInjected bindings.
	IsMembersInjectorClass(ref ClassRef) bool
}

// AnnotationOracle answers questions about annotations attached to
// declarations, with structural (not identity) equality.
type AnnotationOracle interface {
	HasAnnotation(d Decl, id ClassID) bool
	AnnotationsIn(d Decl, ids map[ClassID]struct{}) []Annotation
	QualifierAnnotation(d Decl) (Annotation, bool)
	MapKeyAnnotation(d Decl) (Annotation, bool)
	ScopeClassID(a Annotation) (ClassID, bool)
	AdditionalScopes(a Annotation) []ClassID
	Excludes(a Annotation) []ClassID
	Replaces(a Annotation) []ClassID
	Rank(a Annotation) (int64, bool)

	IsAnnotatedInject(d Decl) bool
	IsAnnotatedProvides(d Decl) bool
	IsAnnotatedBinds(d Decl) bool
	IsAnnotatedMultibinds(d Decl) bool
	IsAnnotatedIntoSet(d Decl) bool
	IsAnnotatedElementsIntoSet(d Decl) bool
	IsAnnotatedIntoMap(d Decl) bool
	IsAnnotatedAssistedFactory(d Decl) bool
	IsAnnotatedContributes(d Decl) bool
	IsAnnotatedBindingContainer(d Decl) bool

	// Equal reports structural equality: same ClassID and same canonicalized
	// argument map.
	Equal(a, b Annotation) bool
	// Hash returns a hash consistent with Equal.
	Hash(a Annotation) uint64
}

// Member describes a single injectable field/property/setter discovered on
// a class by the Declaration Source.
type Member struct {
	Decl Decl
	Type Type
	Name string
}

// ParamInfo describes one parameter of a function-shaped Decl (a
// constructor, an @Provides function, a members-injector function, an
// assisted-factory's single abstract function). IsAssisted and HasDefault
// mirror the corresponding Parameter/ContextualTypeKey fields in packages
// binding and typekey.
type ParamInfo struct {
	Decl Decl
	Name string
	Type Type
	IsAssisted bool
	HasDefault bool
}

// DeclarationSource exposes the shape of a declared class: its members,
// inject-constructor, single-abstract-method (for assisted factories),
// companion/nested classes, and an origin tag used purely for diagnostics.
type DeclarationSource interface {
	InjectableMembers(ref ClassRef) []Member
	InjectConstructor(ref ClassRef) (Decl, bool)
	SingleAbstractFunction(ref ClassRef) (Decl, bool)
	NestedClasses(ref ClassRef) []ClassRef
	Origin(ref ClassRef) string
	IsObject(ref ClassRef) bool
	Location(d Decl) Location

	// Parameters returns the parameter list of a function-shaped Decl
	// (constructor, provider function, members-injector function, assisted
	// factory's abstract function).
	Parameters(d Decl) []ParamInfo
	// ReturnType returns the single provided type of a provider/constructor
	// Decl.
	ReturnType(d Decl) Type
	// IsAssistedInjectedClass reports whether ref is annotated as an
	// assisted-injected class (its constructor has assisted parameters).
	IsAssistedInjectedClass(ref ClassRef) bool
	// IsAssistedFactory reports whether ref is an assisted-factory
	// interface over some assisted-injected class, returning that class.
	IsAssistedFactory(ref ClassRef) (target ClassRef, ok bool)
}

// ScopeHintRegistry enumerates contributing class refs for a scope, as
// discovered from generated hint declarations. Implementations MUST honor
// visibility: internal contributions from other modules are filtered out.
type ScopeHintRegistry interface {
	ContributionsFor(scope ClassID) []ClassRef
	BindingContainersFor(scope ClassID) []ClassRef
}

// DiagnosticReporter delivers rendered diagnostics. The core never writes to
// stdio directly.
type DiagnosticReporter interface {
	Error(loc Location, message string)
	Warning(loc Location, message string)
}

// IncrementalTracker optionally records that a declaration was consulted
// during resolution, for incremental-compilation lookup tracking. A no-op
// implementation is valid.
type IncrementalTracker interface {
	RecordLookup(d Decl)
}

// NoopTracker is an IncrementalTracker that records nothing.
type NoopTracker struct{}

// RecordLookup implements IncrementalTracker.
func (NoopTracker) RecordLookup(Decl) {}
