package validate_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diwire/core/binding"
	"github.com/diwire/core/diag"
	"github.com/diwire/core/graph"
	"github.com/diwire/core/lookup"
	"github.com/diwire/core/typekey"
	"github.com/diwire/core/validate"
)

type fakeType struct{ name string }

func (f *fakeType) String() string { return f.name }

func ctk(name string) typekey.ContextualTypeKey {
	t := &fakeType{name: name}
	return typekey.ContextualTypeKey{Key: typekey.New(t, nil), Wrapped: typekey.Canon(t), RawType: t}
}

func newNode() (*graph.Node, *diag.Collector) {
	lk := lookup.New(nil, nil, nil, nil)
	diags := diag.NewCollector(nil)
	return graph.New("AppGraph", lk, diags, nil), diags
}

func TestValidate_AcyclicGraphSucceeds(t *testing.T) {
	n, diags := newNode()
	n.AddBinding(binding.ConstructorInjected{
 Base: binding.Base{Key: ctk("App").Key},
 Params: []binding.Parameter{{Name: "svc", ContextualKey: ctk("Service")}},
	})
	n.AddBinding(binding.ObjectClass{Base: binding.Base{Key: ctk("Service").Key}})

	v := validate.New(n, diags, nil, nil)
	err := v.Validate([]validate.Root{{Key: ctk("App"), Context: "accessor"}})
	require.NoError(t, err)
	assert.False(t, diags.HasFatal())
}

func TestValidate_MissingBindingReportsDiagnostic(t *testing.T) {
	n, diags := newNode()
	n.AddBinding(binding.ConstructorInjected{
 Base: binding.Base{Key: ctk("App").Key},
 Params: []binding.Parameter{{Name: "svc", ContextualKey: ctk("Service")}},
	})

	v := validate.New(n, diags, nil, nil)
	err := v.Validate([]validate.Root{{Key: ctk("App"), Context: "accessor"}})
	require.Error(t, err)
	require.NotEmpty(t, diags.Fatal())
	assert.Equal(t, diag.MissingBinding, diags.Fatal()[0].Code)
}

func TestValidate_CycleWithDeferrableParameterSucceeds(t *testing.T) {
	n, diags := newNode()
	deferredKey := typekey.ContextualTypeKey{Key: ctk("B").Key, Wrapped: typekey.Provider(typekey.Canon(&fakeType{name: "B"}), "ProviderClass")}

	n.AddBinding(binding.ConstructorInjected{
 Base: binding.Base{Key: ctk("A").Key},
 Params: []binding.Parameter{{Name: "b", ContextualKey: deferredKey}},
	})
	n.AddBinding(binding.ConstructorInjected{
 Base: binding.Base{Key: ctk("B").Key},
 Params: []binding.Parameter{{Name: "a", ContextualKey: ctk("A")}},
	})

	v := validate.New(n, diags, nil, nil)
	err := v.Validate([]validate.Root{{Key: ctk("A"), Context: "accessor"}})
	require.NoError(t, err)
}
