package binding_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/diwire/core/binding"
)

func TestMultibinding_DependenciesIsDedupedUnionOfSources(t *testing.T) {
	src1 := binding.ConstructorInjected{Params: []binding.Parameter{param("a", false, false), param("shared", false, false)}}
	src2 := binding.ConstructorInjected{Params: []binding.Parameter{param("shared", false, false), param("b", false, false)}}

	m := binding.Multibinding{
 IsSet: true,
 SourceBindings: []binding.BindingWithAnnotations{
 {Binding: src1},
 {Binding: src2},
 },
	}

	var names []string
	for _, d := range m.Dependencies() {
 names = append(names, d.Key.String())
	}
	assert.ElementsMatch(t, []string{"a", "shared", "b"}, names)
}

func TestMultibinding_EmptyAllowEmptyHasNoDependencies(t *testing.T) {
	m := binding.Multibinding{IsSet: true, AllowEmpty: true}
	assert.True(t, m.IsEmpty())
	assert.Empty(t, m.Dependencies())
}

func TestMultibinding_SortSourceBindingsOrdersByTypeKeyThenNameHint(t *testing.T) {
	mkBinding := func(key, nameHint string) binding.Binding {
 return binding.ObjectClass{Base: binding.Base{Key: ctk(key).Key, NameHintV: nameHint}}
	}

	m := &binding.Multibinding{
 SourceBindings: []binding.BindingWithAnnotations{
 {Binding: mkBinding("Z", "zeta")},
 {Binding: mkBinding("A", "beta")},
 {Binding: mkBinding("A", "alpha")},
 },
	}
	m.SortSourceBindings()

	var order []string
	for _, sb := range m.SourceBindings {
 order = append(order, sb.Binding.NameHint())
	}
	assert.Equal(t, []string{"alpha", "beta", "zeta"}, order)
}
