package planner_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diwire/core/binding"
	"github.com/diwire/core/diag"
	"github.com/diwire/core/graph"
	"github.com/diwire/core/lookup"
	"github.com/diwire/core/oracle"
	"github.com/diwire/core/planner"
	"github.com/diwire/core/typekey"
)

type fakeType struct{ name string }

func (f *fakeType) String() string { return f.name }

func ctk(name string) typekey.ContextualTypeKey {
	t := &fakeType{name: name}
	return typekey.ContextualTypeKey{Key: typekey.New(t, nil), Wrapped: typekey.Canon(t), RawType: t}
}

func newNode() *graph.Node {
	lk := lookup.New(nil, nil, nil, nil)
	return graph.New("AppGraph", lk, diag.NewCollector(nil), nil)
}

func TestPlan_ScopedBindingAlwaysGetsField(t *testing.T) {
	n := newNode()
	n.AddBinding(binding.ConstructorInjected{
 Base: binding.Base{Key: ctk("Service").Key, ScopeID: oracle.ClassID("AppScope"), HasScope: true},
	})

	p := planner.New(n, false)
	plan := p.Plan([]planner.Root{{Key: ctk("Service")}})
	require.Len(t, plan.ProviderFields, 1)
	assert.Equal(t, "Service", plan.ProviderFields[0].String())
}

func TestPlan_UnscopedSingleUseNoField(t *testing.T) {
	n := newNode()
	n.AddBinding(binding.ObjectClass{Base: binding.Base{Key: ctk("Service").Key}})

	p := planner.New(n, false)
	plan := p.Plan([]planner.Root{{Key: ctk("Service")}})
	assert.Empty(t, plan.ProviderFields)
}

func TestPlan_MultibindingNeverGetsField(t *testing.T) {
	n := newNode()
	m := n.GetOrCreateMultibinding(ctk("Set<Foo>").Key, false, true)
	_ = m

	p := planner.New(n, false)
	plan := p.Plan([]planner.Root{{Key: ctk("Set<Foo>")}})
	assert.Empty(t, plan.ProviderFields)
}
