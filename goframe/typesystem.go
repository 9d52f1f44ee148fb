package goframe

import (
	"go/types"
	"sort"

	"github.com/diwire/core/oracle"
)

// WrapperConfig names the generic wrapper types a TypeSystem recognizes as
// Provider<T>/Lazy<T>, since Go has no built-in equivalents. Defaults to
// the container package this module's own runtime would ship, but any
// module can point these at its own generic wrapper types.
type WrapperConfig struct {
	ProviderPkgPath, ProviderName string
	LazyPkgPath, LazyName string
}

// DefaultWrapperConfig matches github.com/diwire/runtime's Provider[T]/
// Lazy[T] generic wrapper types.
func DefaultWrapperConfig() WrapperConfig {
	return WrapperConfig{
 ProviderPkgPath: "github.com/diwire/runtime", ProviderName: "Provider",
 LazyPkgPath: "github.com/diwire/runtime", LazyName: "Lazy",
	}
}

// TypeSystem implements oracle.TypeSystemOracle over go/types.
type TypeSystem struct {
	Wrappers WrapperConfig
	allTypes []*types.Named // every named type seen across loaded packages, for AllSuperTypes
	ifaceTypes map[*types.Named]*types.Interface
}

// NewTypeSystem creates a TypeSystem. allNamed is every named type
// discovered by the Loader, used to answer AllSuperTypes.
func NewTypeSystem(wrappers WrapperConfig, allNamed []*types.Named) *TypeSystem {
	ts := &TypeSystem{Wrappers: wrappers, allTypes: allNamed, ifaceTypes: make(map[*types.Named]*types.Interface)}
	for _, n := range allNamed {
 if iface, ok := n.Underlying().(*types.Interface); ok {
 ts.ifaceTypes[n] = iface
 }
	}
	return ts
}

// RawClassOf implements oracle.TypeSystemOracle. Builtin map types get a
// synthetic classRef so IsMapClass/TypeArguments can recognize the Map<K,
// V> multibinding shape even though Go maps aren't named
// classes.
func (ts *TypeSystem) RawClassOf(t oracle.Type) (oracle.ClassRef, bool) {
	gt := unwrap(t)
	u := gt
	for {
 if p, ok := u.(*types.Pointer); ok {
 u = p.Elem()
 continue
 }
 break
	}
	if m, ok := u.Underlying().(*types.Map); ok {
 return wrapMap(m), true
	}
	named, ok := u.(*types.Named)
	if !ok {
 return nil, false
	}
	return wrapNamed(named), true
}

func (ts *TypeSystem) IsSubtype(a, b oracle.Type) bool {
	return types.AssignableTo(unwrap(a), unwrap(b))
}

func (ts *TypeSystem) AllSuperTypes(ref oracle.ClassRef) []oracle.ClassRef {
	cr := unwrapClass(ref)
	if cr.isMap {
 return []oracle.ClassRef{ref}
	}
	out := []oracle.ClassRef{ref}
	for _, n := range ts.allTypes {
 if n == cr.named {
 continue
 }
 iface, ok := ts.ifaceTypes[n]
 if !ok {
 continue
 }
 if types.Implements(cr.named, iface) || types.Implements(types.NewPointer(cr.named), iface) {
 out = append(out, wrapNamed(n))
 }
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}

func (ts *TypeSystem) ClassID(ref oracle.ClassRef) oracle.ClassID {
	cr := unwrapClass(ref)
	if cr.isMap {
 return oracle.ClassID("builtin.map")
	}
	return oracle.ClassID(cr.named.Obj().Pkg().Path() + "." + cr.named.Obj().Name())
}

func (ts *TypeSystem) TypeArguments(t oracle.Type) []oracle.Type {
	gt := unwrap(t)
	if m, ok := gt.Underlying().(*types.Map); ok {
 return []oracle.Type{wrapType(m.Key()), wrapType(m.Elem())}
	}
	named, ok := gt.(*types.Named)
	if !ok {
 return nil
	}
	targs := named.TypeArgs()
	if targs == nil {
 return nil
	}
	out := make([]oracle.Type, targs.Len())
	for i := 0; i < targs.Len(); i++ {
 out[i] = wrapType(targs.At(i))
	}
	return out
}

// IsMarkedNullable reports pointer types as nullable: the closest Go
// analogue to a source-language nullable annotation, since Go has no
// nullability syntax of its own.
func (ts *TypeSystem) IsMarkedNullable(t oracle.Type) bool {
	_, ok := unwrap(t).(*types.Pointer)
	return ok
}

// HasFlexibleNullability is always false: Go's type system has no
// platform-flexible nullability concept, so every type is either
// definitely a pointer (nullable) or definitely not.
func (ts *TypeSystem) HasFlexibleNullability(oracle.Type) bool { return false }

func (ts *TypeSystem) MakeNotNull(t oracle.Type) oracle.Type {
	if p, ok := unwrap(t).(*types.Pointer); ok {
 return wrapType(p.Elem())
	}
	return t
}

func (ts *TypeSystem) TypeWith(ref oracle.ClassRef, args []oracle.Type) oracle.Type {
	cr := unwrapClass(ref)
	if cr.isMap {
 if len(args) != 2 {
 return wrapType(types.NewMap(cr.keyVal, cr.valVal))
 }
 return wrapType(types.NewMap(unwrap(args[0]), unwrap(args[1])))
	}
	if len(args) == 0 {
 return wrapType(cr.named)
	}
	targs := make([]types.Type, len(args))
	for i, a := range args {
 targs[i] = unwrap(a)
	}
	inst, err := types.Instantiate(nil, cr.named.Origin(), targs, false)
	if err != nil {
 return wrapType(cr.named)
	}
	return wrapType(inst)
}

func (ts *TypeSystem) IsProviderClass(ref oracle.ClassRef) (oracle.ClassID, bool) {
	cr := unwrapClass(ref)
	if cr.isMap || cr.named.Obj().Pkg() == nil {
 return "", false
	}
	if cr.named.Obj().Pkg().Path() == ts.Wrappers.ProviderPkgPath && cr.named.Obj().Name() == ts.Wrappers.ProviderName {
 return oracle.ClassID(ts.Wrappers.ProviderPkgPath + "." + ts.Wrappers.ProviderName), true
	}
	return "", false
}

func (ts *TypeSystem) IsLazyClass(ref oracle.ClassRef) (oracle.ClassID, bool) {
	cr := unwrapClass(ref)
	if cr.isMap || cr.named.Obj().Pkg() == nil {
 return "", false
	}
	if cr.named.Obj().Pkg().Path() == ts.Wrappers.LazyPkgPath && cr.named.Obj().Name() == ts.Wrappers.LazyName {
 return oracle.ClassID(ts.Wrappers.LazyPkgPath + "." + ts.Wrappers.LazyName), true
	}
	return "", false
}

func (ts *TypeSystem) IsMapClass(ref oracle.ClassRef) bool {
	return unwrapClass(ref).isMap
}

func (ts *TypeSystem) IsMembersInjectorClass(ref oracle.ClassRef) bool {
	cr := unwrapClass(ref)
	return !cr.isMap && cr.named.Obj().Name() == "MembersInjector"
}
