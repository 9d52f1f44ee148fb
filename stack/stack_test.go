package stack_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diwire/core/stack"
	"github.com/diwire/core/typekey"
)

type fakeType struct{ name string }

func (f *fakeType) String() string { return f.name }

func ctk(name string) typekey.ContextualTypeKey {
	t := &fakeType{name: name}
	return typekey.ContextualTypeKey{Key: typekey.New(t, nil), Wrapped: typekey.Canon(t), RawType: t}
}

func TestStack_PushPopOrder(t *testing.T) {
	s := stack.New("AppGraph")
	s.Push(stack.RequestedAt(ctk("A"), "accessor a"))
	s.Push(stack.InjectedAt(ctk("B"), "A injects B", nil))
	require.Equal(t, 2, s.Len())

	top, ok := s.Pop()
	require.True(t, ok)
	assert.Equal(t, "B", top.ContextualKey.Key.Canonical.String())
	assert.Equal(t, 1, s.Len())
}

func TestStack_EntriesSince(t *testing.T) {
	s := stack.New("AppGraph")
	s.Push(stack.RequestedAt(ctk("A"), ""))
	s.Push(stack.InjectedAt(ctk("B"), "", nil))
	s.Push(stack.InjectedAt(ctk("C"), "", nil))

	// C depends on A again; the cycle is queried before the repeated A is
	// pushed, so the segment runs from A to the top of the stack.
	segment := s.EntriesSince(ctk("A"))
	require.Len(t, segment, 3)
	assert.Equal(t, "A", segment[0].ContextualKey.Key.Canonical.String())
	assert.Equal(t, "C", segment[2].ContextualKey.Key.Canonical.String())
}

func TestStack_RenderHasFooterAndTruncation(t *testing.T) {
	s := stack.New("AppGraph")
	for _, n := range []string{"A", "B", "C"} {
 s.Push(stack.RequestedAt(ctk(n), ""))
	}
	out := s.Render(2)
	assert.Contains(t, out, "graph: AppGraph")
	assert.Contains(t, out, "...")
}

func TestStack_LastEntryOrGraphFallsBackToGraphName(t *testing.T) {
	s := stack.New("AppGraph")
	assert.Equal(t, "AppGraph", s.LastEntryOrGraph())
}
