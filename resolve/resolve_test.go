package resolve_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diwire/core/lookup"
	"github.com/diwire/core/oracle"
	"github.com/diwire/core/resolve"
	"github.com/diwire/core/typekey"
	"github.com/diwire/core/validate"
)

type fakeType struct{ name string }

func (f *fakeType) String() string { return f.name }

func ctk(name string) typekey.ContextualTypeKey {
	t := &fakeType{name: name}
	return typekey.ContextualTypeKey{Key: typekey.New(t, nil), Wrapped: typekey.Canon(t), RawType: t}
}

type fakeDecl struct{ name string }

func (f fakeDecl) String() string { return f.name }

func TestResolveGraph_TwoIndependentRootsOrderAndPlan(t *testing.T) {
	spec := resolve.GraphSpec{
 Name: "AppGraph",
 Providers: []*lookup.DeclaredProvider{
 {Key: ctk("A").Key, Decl: fakeDecl{"provideA"}, NameHint: "getA"},
 {Key: ctk("B").Key, Decl: fakeDecl{"provideB"}, NameHint: "getB"},
 },
 Roots: []validate.Root{
 {Key: ctk("A"), Context: "accessor getA"},
 {Key: ctk("B"), Context: "accessor getB"},
 },
 OwnScopes: map[oracle.ClassID]bool{},
	}

	plan, err := resolve.ResolveGraph(spec)
	require.NoError(t, err)

	assert.Len(t, plan.BindingsInTopoOrder, 2)
	assert.Empty(t, plan.DeferredTypes)
	assert.Empty(t, plan.InstanceFields)
	assert.ElementsMatch(t, []string{"getA", "getB"}, plan.Proto.AccessorCallableNames)
}

func TestResolveGraph_MissingBindingFails(t *testing.T) {
	spec := resolve.GraphSpec{
 Name: "AppGraph",
 Roots: []validate.Root{
 {Key: ctk("Missing"), Context: "accessor getMissing"},
 },
	}

	_, err := resolve.ResolveGraph(spec)
	assert.Error(t, err)
}

func TestResolveAll_RunsSpecsInParallel(t *testing.T) {
	specs := []resolve.GraphSpec{
 {
 Name: "GraphOne",
 Providers: []*lookup.DeclaredProvider{
 {Key: ctk("A1").Key, Decl: fakeDecl{"provideA1"}},
 },
 Roots: []validate.Root{{Key: ctk("A1"), Context: "accessor"}},
 },
 {
 Name: "GraphTwo",
 Providers: []*lookup.DeclaredProvider{
 {Key: ctk("A2").Key, Decl: fakeDecl{"provideA2"}},
 },
 Roots: []validate.Root{{Key: ctk("A2"), Context: "accessor"}},
 },
	}

	plans, err := resolve.ResolveAll(context.Background(), specs)
	require.NoError(t, err)
	require.Len(t, plans, 2)
	assert.Equal(t, "GraphOne", plans[0].Node.Name)
	assert.Equal(t, "GraphTwo", plans[1].Node.Name)
}
