package parentctx_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diwire/core/oracle"
	"github.com/diwire/core/parentctx"
	"github.com/diwire/core/typekey"
)

type fakeType struct{ name string }

func (f *fakeType) String() string { return f.name }

func key(name string) typekey.Key { return typekey.New(&fakeType{name: name}, nil) }

func TestStack_PushIntroducesKeysAndMarkPropagates(t *testing.T) {
	s := parentctx.New()
	s.Add(key("A"))
	s.PushParentGraph("RootGraph", []oracle.ClassID{"AppScope"})

	require.True(t, s.Contains(key("A")))
	s.Mark(key("A"), "", false)
	assert.Contains(t, s.UsedKeys(), key("A").String())
}

func TestStack_PopRederivesAvailable(t *testing.T) {
	s := parentctx.New()
	s.Add(key("A"))
	s.PushParentGraph("RootGraph", nil)
	s.Add(key("B"))
	s.PushParentGraph("ChildGraph", nil)

	require.True(t, s.Contains(key("A")))
	require.True(t, s.Contains(key("B")))

	s.PopParentGraph()
	assert.True(t, s.Contains(key("A")))
	assert.False(t, s.Contains(key("B")))
}

func TestStack_MarkRetroactiveIntroductionByScope(t *testing.T) {
	s := parentctx.New()
	s.PushParentGraph("RootGraph", []oracle.ClassID{"AppScope"})

	s.Mark(key("Unseen"), "AppScope", true)
	assert.True(t, s.Contains(key("Unseen")))
}

func TestStack_CurrentParentGraph(t *testing.T) {
	s := parentctx.New()
	_, ok := s.CurrentParentGraph()
	assert.False(t, ok)

	s.PushParentGraph("RootGraph", nil)
	name, ok := s.CurrentParentGraph()
	require.True(t, ok)
	assert.Equal(t, "RootGraph", name)
}
