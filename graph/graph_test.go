package graph_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diwire/core/binding"
	"github.com/diwire/core/diag"
	"github.com/diwire/core/graph"
	"github.com/diwire/core/lookup"
	"github.com/diwire/core/parentctx"
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
	diags := diag.NewCollector(nil)
	return graph.New("AppGraph", lk, diags, nil)
}

func TestNode_AddAndFindBinding(t *testing.T) {
	n := newNode()
	b := binding.ObjectClass{Base: binding.Base{Key: ctk("A").Key}}
	n.AddBinding(b)

	found, ok := n.FindBinding(ctk("A").Key)
	require.True(t, ok)
	assert.Equal(t, binding.KindObjectClass, found.Kind())
}

func TestNode_DuplicateBindingReportsDiagnostic(t *testing.T) {
	n := newNode()
	n.AddBinding(binding.ObjectClass{Base: binding.Base{Key: ctk("A").Key}})
	n.AddBinding(binding.ObjectClass{Base: binding.Base{Key: ctk("A").Key}})

	require.Len(t, n.Diags.Fatal(), 1)
	assert.Equal(t, diag.DuplicateBinding, n.Diags.Fatal()[0].Code)
}

func TestNode_AbsentBindingSilentlyDropped(t *testing.T) {
	n := newNode()
	n.AddBinding(binding.Absent{Base: binding.Base{Key: ctk("A").Key}})

	_, ok := n.FindBinding(ctk("A").Key)
	assert.False(t, ok)
}

func TestNode_GetOrCreateMultibinding_MapDualRegistration(t *testing.T) {
	n := newNode()
	m := n.GetOrCreateMultibinding(ctk("Map<K,V>").Key, true, true)
	again := n.GetOrCreateMultibinding(ctk("Map<K,V>").Key, true, true)
	assert.Same(t, m, again)

	// The Map<K, V> key and its Provider-valued alias both hold m.
	snap := n.BindingsSnapshot()
	require.Len(t, snap, 2)
	for _, b := range snap {
 assert.Same(t, m, b)
	}
}

func TestNode_BindingsSnapshotSortedByKey(t *testing.T) {
	n := newNode()
	n.AddBinding(binding.ObjectClass{Base: binding.Base{Key: ctk("B").Key}})
	n.AddBinding(binding.ObjectClass{Base: binding.Base{Key: ctk("A").Key}})

	snap := n.BindingsSnapshot()
	require.Len(t, snap, 2)
	assert.True(t, snap[0].TypeKey().Less(snap[1].TypeKey()))
}

func TestNode_PutAllMapBinding_AncestorConflictReportsDiagnostic(t *testing.T) {
	lk := lookup.New(nil, nil, nil, nil)
	diags := diag.NewCollector(nil)
	key := ctk("Map<K,V>").Key

	parents := parentctx.New()
	parents.Add(key)
	parents.PushParentGraph("ParentGraph", nil)

	n := graph.New("ChildGraph", lk, diags, parents)

	err := n.PutAllMapBinding(key)
	require.ErrorIs(t, err, graph.ErrPutAllUnsupported)
	require.Len(t, diags.Fatal(), 1)
	assert.Equal(t, diag.AggregationError, diags.Fatal()[0].Code)
}

func TestNode_GetOrCreateMultibinding_StillAssemblesAfterPutAllConflict(t *testing.T) {
	lk := lookup.New(nil, nil, nil, nil)
	diags := diag.NewCollector(nil)
	key := ctk("Map<K,V>").Key

	parents := parentctx.New()
	parents.Add(key)
	parents.PushParentGraph("ParentGraph", nil)

	n := graph.New("ChildGraph", lk, diags, parents)

	m := n.GetOrCreateMultibinding(key, true, true)
	require.NotNil(t, m)
	require.Len(t, diags.Fatal(), 1)
}

func TestNode_DependenciesMemoized(t *testing.T) {
	n := newNode()
	n.AddBinding(binding.ObjectClass{Base: binding.Base{Key: ctk("A").Key}})

	deps, err := n.Dependencies(ctk("A").Key)
	require.NoError(t, err)
	assert.Empty(t, deps)
}
