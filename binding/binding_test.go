package binding_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/diwire/core/binding"
	"github.com/diwire/core/oracle"
	"github.com/diwire/core/typekey"
)

type fakeType struct{ name string }

func (f *fakeType) String() string { return f.name }

func ctk(name string) typekey.ContextualTypeKey {
	t := &fakeType{name: name}
	return typekey.ContextualTypeKey{Key: typekey.New(t, nil), Wrapped: typekey.Canon(t), RawType: t}
}

func param(name string, assisted, instance bool) binding.Parameter {
	return binding.Parameter{Name: name, ContextualKey: ctk(name), IsAssisted: assisted, IsGraphInstance: instance}
}

func TestConstructorInjected_DependenciesExcludeAssistedAndInstanceParams(t *testing.T) {
	c := binding.ConstructorInjected{
 Params: []binding.Parameter{
 param("a", false, false),
 param("b", true, false),
 param("c", false, true),
 param("d", false, false),
 },
	}

	deps := c.Dependencies()
	var names []string
	for _, d := range deps {
 names = append(names, d.Key.String())
	}
	assert.ElementsMatch(t, []string{"a", "d"}, names)
}

func TestObjectClassAndBoundInstance_HaveNoDependencies(t *testing.T) {
	assert.Empty(t, binding.ObjectClass{}.Dependencies())
	assert.Empty(t, binding.BoundInstance{}.Dependencies())
	assert.Empty(t, binding.Absent{}.Dependencies())
}

func TestAlias_DependenciesIsSoleAliasedKey(t *testing.T) {
	a := binding.Alias{AliasedKey: ctk("Target")}
	assert.Equal(t, []typekey.ContextualTypeKey{ctk("Target")}, a.Dependencies())
}

func TestAlias_ResolveMemoizesAndCallsResolverOnce(t *testing.T) {
	calls := 0
	resolver := func(typekey.ContextualTypeKey) (binding.Binding, error) {
 calls++
 return binding.ObjectClass{}, nil
	}

	a := &binding.Alias{AliasedKey: ctk("Target")}
	_, err := a.Resolve(resolver)
	assert.NoError(t, err)
	_, err = a.Resolve(resolver)
	assert.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestKind_StringRendersEveryVariant(t *testing.T) {
	cases := map[binding.Kind]string{
 binding.KindConstructorInjected: "ConstructorInjected",
 binding.KindObjectClass: "ObjectClass",
 binding.KindProvided: "Provided",
 binding.KindAlias: "Alias",
 binding.KindAssisted: "Assisted",
 binding.KindBoundInstance: "BoundInstance",
 binding.KindAbsent: "Absent",
 binding.KindGraphDependency: "GraphDependency",
 binding.KindGraphExtension: "GraphExtension",
 binding.KindGraphExtensionFactory: "GraphExtensionFactory",
 binding.KindMultibinding: "Multibinding",
 binding.KindMembersInjected: "MembersInjected",
	}
	for k, want := range cases {
 assert.Equal(t, want, k.String())
	}
	assert.Equal(t, "Unknown", binding.Kind(999).String())
}

func TestBase_AccessorsRoundTrip(t *testing.T) {
	b := binding.Base{
 Key: ctk("X").Key,
 Ctx: ctk("X"),
 ScopeID: oracle.ClassID("Singleton"),
 HasScope: true,
 NameHintV: "getX",
 HasLoc: false,
	}
	assert.Equal(t, ctk("X").Key, b.TypeKey())
	assert.Equal(t, ctk("X"), b.ContextualKey())
	scope, ok := b.Scope()
	assert.True(t, ok)
	assert.Equal(t, oracle.ClassID("Singleton"), scope)
	assert.Equal(t, "getX", b.NameHint())
	_, hasLoc := b.Location()
	assert.False(t, hasLoc)
}
