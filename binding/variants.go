package binding

import (
	"github.com/diwire/core/oracle"
	"github.com/diwire/core/typekey"
)

// ConstructorInjected represents a class with an @Inject constructor. Its
// dependencies are the constructor parameters minus any assisted ones.
type ConstructorInjected struct {
	Base
	ClassRef oracle.ClassRef
	Constructor oracle.Decl
	IsAssisted bool
	Annotations []oracle.Annotation
	InjectedMembers []Parameter
	Params []Parameter
}

// Kind implements Binding.
func (ConstructorInjected) Kind() Kind { return KindConstructorInjected }

// Parameters implements Binding.
func (c ConstructorInjected) Parameters() []Parameter { return c.Params }

// Dependencies implements Binding: constructor parameters minus assisted.
func (c ConstructorInjected) Dependencies() []typekey.ContextualTypeKey {
	return dependencyKeys(c.Params)
}

// ObjectClass represents a singleton value (source-language "object"). It
// has no dependencies.
type ObjectClass struct {
	Base
	ClassRef oracle.ClassRef
	Annotations []oracle.Annotation
}

// Kind implements Binding.
func (ObjectClass) Kind() Kind { return KindObjectClass }

// Parameters implements Binding.
func (ObjectClass) Parameters() []Parameter { return nil }

// Dependencies implements Binding.
func (ObjectClass) Dependencies() []typekey.ContextualTypeKey { return nil }

// Provided is the result of an @Provides function/property. Its
// dependencies are its parameters.
type Provided struct {
	Base
	ProviderFactory oracle.Decl
	Annotations []oracle.Annotation
	AliasedType *typekey.Key
	Params []Parameter
}

// Kind implements Binding.
func (Provided) Kind() Kind { return KindProvided }

// Parameters implements Binding.
func (p Provided) Parameters() []Parameter { return p.Params }

// Dependencies implements Binding.
func (p Provided) Dependencies() []typekey.ContextualTypeKey { return dependencyKeys(p.Params) }

// Alias is an @Binds mapping; it resolves lazily to the underlying binding
// on first use and is never itself scoped. Its sole dependency is the
// aliased contextual type key.
type Alias struct {
	Base
	AliasedKey typekey.ContextualTypeKey
	IR oracle.Decl

	resolved Binding
	isResolved bool
}

// Kind implements Binding.
func (Alias) Kind() Kind { return KindAlias }

// Parameters implements Binding.
func (Alias) Parameters() []Parameter { return nil }

// Dependencies implements Binding.
func (a Alias) Dependencies() []typekey.ContextualTypeKey {
	return []typekey.ContextualTypeKey{a.AliasedKey}
}

// Resolve memoizes the underlying binding this alias points to
// invariant (d): "An Alias's aliasedType is resolved against the containing
// graph on demand, memoized." resolver is called at most once.
func (a *Alias) Resolve(resolver func(typekey.ContextualTypeKey) (Binding, error)) (Binding, error) {
	if a.isResolved {
 return a.resolved, nil
	}
	b, err := resolver(a.AliasedKey)
	if err != nil {
 return nil, err
	}
	a.resolved = b
	a.isResolved = true
	return b, nil
}

// Assisted is a factory interface over an assisted-injected class. Its
// dependencies are handled entirely by Target, so Assisted itself reports
// only the non-assisted parameters of the factory function (if any).
type Assisted struct {
	Base
	ClassRef oracle.ClassRef
	Target *ConstructorInjected
	Function oracle.Decl
	Params []Parameter
}

// Kind implements Binding.
func (Assisted) Kind() Kind { return KindAssisted }

// Parameters implements Binding.
func (a Assisted) Parameters() []Parameter { return a.Params }

// Dependencies implements Binding.
func (a Assisted) Dependencies() []typekey.ContextualTypeKey { return dependencyKeys(a.Params) }

// BoundInstance is an instance supplied by the graph creator at
// construction time. It has no dependencies.
type BoundInstance struct {
	Base
	InstanceName string
	ClassReceiver *typekey.Key
}

// Kind implements Binding.
func (BoundInstance) Kind() Kind { return KindBoundInstance }

// Parameters implements Binding.
func (BoundInstance) Parameters() []Parameter { return nil }

// Dependencies implements Binding.
func (BoundInstance) Dependencies() []typekey.ContextualTypeKey { return nil }

// Absent marks a parameter with a default and no available binding. Per
// invariant (c), Absent is never stored in the graph; it exists
// only transiently in lookup results.
type Absent struct {
	Base
}

// Kind implements Binding.
func (Absent) Kind() Kind { return KindAbsent }

// Parameters implements Binding.
func (Absent) Parameters() []Parameter { return nil }

// Dependencies implements Binding.
func (Absent) Dependencies() []typekey.ContextualTypeKey { return nil }

// GraphDependency reaches a value through an included graph's accessor.
type GraphDependency struct {
	Base
	OwnerKey typekey.Key
	Getter oracle.Decl
	IsProviderFieldAccessor bool
}

// Kind implements Binding.
func (GraphDependency) Kind() Kind { return KindGraphDependency }

// Parameters implements Binding.
func (GraphDependency) Parameters() []Parameter { return nil }

// Dependencies implements Binding.
func (GraphDependency) Dependencies() []typekey.ContextualTypeKey { return nil }

// GraphExtension instantiates a nested sub-graph.
type GraphExtension struct {
	Base
	ExtensionKey typekey.Key
	Params []Parameter
}

// Kind implements Binding.
func (GraphExtension) Kind() Kind { return KindGraphExtension }

// Parameters implements Binding.
func (g GraphExtension) Parameters() []Parameter { return g.Params }

// Dependencies implements Binding. Extension instantiation parameters are
// graph-instance style inputs supplied at the call site, not resolved
// dependency edges, mirroring GraphDependency's empty set.
func (GraphExtension) Dependencies() []typekey.ContextualTypeKey { return nil }

// GraphExtensionFactory is the factory interface used to create a
// GraphExtension.
type GraphExtensionFactory struct {
	Base
	ExtensionKey typekey.Key
	Function oracle.Decl
}

// Kind implements Binding.
func (GraphExtensionFactory) Kind() Kind { return KindGraphExtensionFactory }

// Parameters implements Binding.
func (GraphExtensionFactory) Parameters() []Parameter { return nil }

// Dependencies implements Binding.
func (GraphExtensionFactory) Dependencies() []typekey.ContextualTypeKey { return nil }

// MembersInjected performs post-construction member injection.
type MembersInjected struct {
	Base
	Function oracle.Decl
	IsFromInjectorFunction bool
	TargetClassID oracle.ClassID
	Params []Parameter
}

// Kind implements Binding.
func (MembersInjected) Kind() Kind { return KindMembersInjected }

// Parameters implements Binding.
func (m MembersInjected) Parameters() []Parameter { return m.Params }

// Dependencies implements Binding.
func (m MembersInjected) Dependencies() []typekey.ContextualTypeKey { return dependencyKeys(m.Params) }
