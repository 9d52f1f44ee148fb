package typekey_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diwire/core/oracle"
	"github.com/diwire/core/typekey"
)

// fakeType is a minimal oracle.Type used to exercise the decomposition
// without a real frontend, mirroring a string-identity approach to
// type references.
type fakeType struct {
	name string
	args []oracle.Type
	// flex marks a flexible-nullability type that Build should normalize.
	flex bool
}

func (f *fakeType) String() string { return f.name }

type fakeClass struct{ name string }

func (c *fakeClass) String() string { return c.name }

// fakeOracle recognizes "Provider", "Lazy", and "Map" by name prefix.
type fakeOracle struct{}

func (fakeOracle) RawClassOf(t oracle.Type) (oracle.ClassRef, bool) {
	ft := t.(*fakeType)
	switch ft.name {
	case "Provider", "Lazy", "Map":
 return &fakeClass{name: ft.name}, true
	}
	return &fakeClass{name: ft.name}, true
}
func (fakeOracle) IsSubtype(a, b oracle.Type) bool { return false }
func (fakeOracle) AllSuperTypes(oracle.ClassRef) []oracle.ClassRef { return nil }
func (fakeOracle) ClassID(ref oracle.ClassRef) oracle.ClassID {
	return oracle.ClassID(ref.(*fakeClass).name)
}
func (fakeOracle) TypeArguments(t oracle.Type) []oracle.Type { return t.(*fakeType).args }
func (fakeOracle) IsMarkedNullable(oracle.Type) bool { return false }
func (fakeOracle) HasFlexibleNullability(t oracle.Type) bool { return t.(*fakeType).flex }
func (fakeOracle) MakeNotNull(t oracle.Type) oracle.Type {
	ft := t.(*fakeType)
	return &fakeType{name: ft.name, args: ft.args}
}
func (fakeOracle) TypeWith(ref oracle.ClassRef, args []oracle.Type) oracle.Type {
	return &fakeType{name: ref.(*fakeClass).name, args: args}
}
func (fakeOracle) IsProviderClass(ref oracle.ClassRef) (oracle.ClassID, bool) {
	if ref.(*fakeClass).name == "Provider" {
 return "Provider", true
	}
	return "", false
}
func (fakeOracle) IsLazyClass(ref oracle.ClassRef) (oracle.ClassID, bool) {
	if ref.(*fakeClass).name == "Lazy" {
 return "Lazy", true
	}
	return "", false
}
func (fakeOracle) IsMapClass(ref oracle.ClassRef) bool { return ref.(*fakeClass).name == "Map" }
func (fakeOracle) IsMembersInjectorClass(oracle.ClassRef) bool { return false }

func str(s string) *fakeType { return &fakeType{name: s} }

func TestBuild_Canonical(t *testing.T) {
	o := fakeOracle{}
	w := typekey.Build(o, str("String"))
	assert.Equal(t, typekey.KindCanonical, w.Kind)
	assert.Equal(t, "String", w.Render())
	assert.False(t, w.IsDeferrable())
}

func TestBuild_NestedProviderLazy(t *testing.T) {
	o := fakeOracle{}
	x := str("X")
	lazyX := &fakeType{name: "Lazy", args: []oracle.Type{x}}
	providerLazyX := &fakeType{name: "Provider", args: []oracle.Type{lazyX}}

	w := typekey.Build(o, providerLazyX)
	require.Equal(t, typekey.KindProvider, w.Kind)
	assert.True(t, w.IsLazyWrappedInProvider())
	assert.True(t, w.IsDeferrable())
	assert.Equal(t, "Provider<Lazy<X>>", w.Render())
	assert.Equal(t, "X", w.CanonicalType().String())
}

func TestBuild_MapWithDeferrableValue(t *testing.T) {
	o := fakeOracle{}
	k := str("Int")
	v := str("String")
	providerV := &fakeType{name: "Provider", args: []oracle.Type{v}}
	mapKV := &fakeType{name: "Map", args: []oracle.Type{k, providerV}}

	w := typekey.Build(o, mapKV)
	require.Equal(t, typekey.KindMap, w.Kind)
	assert.True(t, w.IsDeferrable(), "Map<K, Provider<V>> must be deferrable")
	assert.Equal(t, "Map<Int, Provider<String>>", w.Render())
}

func TestBuild_FlexibleNullabilityNormalized(t *testing.T) {
	o := fakeOracle{}
	flex := &fakeType{name: "T", flex: true}
	w := typekey.Build(o, flex)
	assert.Equal(t, typekey.KindCanonical, w.Kind)
	assert.False(t, o.IsMarkedNullable(w.Canonical))
}

func TestKey_EqualityIgnoresWrapperNesting(t *testing.T) {
	o := fakeOracle{}
	x := str("X")
	providerX := &fakeType{name: "Provider", args: []oracle.Type{x}}
	lazyX := &fakeType{name: "Lazy", args: []oracle.Type{x}}

	wPlain := typekey.Build(o, x)
	wProvider := typekey.Build(o, providerX)
	wLazy := typekey.Build(o, lazyX)

	kPlain := typekey.Of(wPlain, nil)
	kProvider := typekey.Of(wProvider, nil)
	kLazy := typekey.Of(wLazy, nil)

	assert.True(t, kPlain.Equal(kProvider))
	assert.True(t, kPlain.Equal(kLazy))
	assert.Equal(t, kPlain.Hash(), kProvider.Hash())
}

func TestKey_Ordering(t *testing.T) {
	a := typekey.New(str("A"), nil)
	b := typekey.New(str("B"), nil)
	assert.True(t, a.Less(b))
	assert.False(t, b.Less(a))
}

func TestContextualTypeKey_RenderWithQualifierAndDefault(t *testing.T) {
	o := fakeOracle{}
	type fakeAnnotation struct{ name string }
	ctk := typekey.NewContextual(o, str("String"), nil, true)
	assert.Equal(t, "String =...", ctk.Render())
	_ = fakeAnnotation{}
}

func TestContextualTypeKey_EqualityExcludesRawType(t *testing.T) {
	o := fakeOracle{}
	a := typekey.NewContextual(o, str("String"), nil, false)
	b := typekey.NewContextual(o, &fakeType{name: "String"}, nil, false)
	assert.True(t, a.Equal(b))
}
