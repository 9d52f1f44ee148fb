// Package binding implements the set of binding variants: a sealed-style
// set of variants representing every way a value can be produced in a
// graph, plus the Parameter model. This is the Go translation of a
// "sealed hierarchy of Binding variants": instead of a polymorphic class
// hierarchy, each variant
// is a concrete struct and Binding is a narrow interface every variant
// implements, with callers type-switching on Kind in place of the
// pattern-matching a sealed subclass hierarchy would use.
package binding

import (
	"github.com/diwire/core/oracle"
	"github.com/diwire/core/typekey"
)

// Kind discriminates the Binding variants.
type Kind int

// The Binding variants named in
const (
	KindConstructorInjected Kind = iota
	KindObjectClass
	KindProvided
	KindAlias
	KindAssisted
	KindBoundInstance
	KindAbsent
	KindGraphDependency
	KindGraphExtension
	KindGraphExtensionFactory
	KindMultibinding
	KindMembersInjected
)

// String renders the kind name for diagnostics.
func (k Kind) String() string {
	switch k {
	case KindConstructorInjected:
 return "ConstructorInjected"
	case KindObjectClass:
 return "ObjectClass"
	case KindProvided:
 return "Provided"
	case KindAlias:
 return "Alias"
	case KindAssisted:
 return "Assisted"
	case KindBoundInstance:
 return "BoundInstance"
	case KindAbsent:
 return "Absent"
	case KindGraphDependency:
 return "GraphDependency"
	case KindGraphExtension:
 return "GraphExtension"
	case KindGraphExtensionFactory:
 return "GraphExtensionFactory"
	case KindMultibinding:
 return "Multibinding"
	case KindMembersInjected:
 return "MembersInjected"
	default:
 return "Unknown"
	}
}

// Binding is the common capability set every variant carries: says
// "every variant carries at least {typeKey, scope?, parameters,
// dependencies, nameHint, contextualTypeKey, reportableLocation?}".
type Binding interface {
	Kind() Kind
	TypeKey() typekey.Key
	ContextualKey() typekey.ContextualTypeKey
	Scope() (oracle.ClassID, bool)
	NameHint() string
	Location() (oracle.Location, bool)
	Parameters() []Parameter
	// Dependencies returns the set of contextual keys this binding requires.
	// It is intentionally cheap to call repeatedly: callers needing
	// memoized/lazy evaluation (e.g. the BindingGraph's lazy dependency
	// thunks) wrap it themselves.
	Dependencies() []typekey.ContextualTypeKey
}

// Base carries the fields common to every variant; each concrete variant
// embeds Base and implements the Kind-specific parts of Binding.
type Base struct {
	Key typekey.Key
	Ctx typekey.ContextualTypeKey
	ScopeID oracle.ClassID
	HasScope bool
	NameHintV string
	Loc oracle.Location
	HasLoc bool
}

// TypeKey implements Binding.
func (b Base) TypeKey() typekey.Key { return b.Key }

// ContextualKey implements Binding.
func (b Base) ContextualKey() typekey.ContextualTypeKey { return b.Ctx }

// Scope implements Binding.
func (b Base) Scope() (oracle.ClassID, bool) { return b.ScopeID, b.HasScope }

// NameHint implements Binding.
func (b Base) NameHint() string { return b.NameHintV }

// Location implements Binding.
func (b Base) Location() (oracle.Location, bool) { return b.Loc, b.HasLoc }
