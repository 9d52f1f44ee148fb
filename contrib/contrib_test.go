package contrib_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diwire/core/contrib"
	"github.com/diwire/core/oracle"
)

type fakeClass struct{ name string }

func (f *fakeClass) String() string { return f.name }

type fakeAnnotation struct {
	rank int64
	hasRnk bool
}

func (f *fakeAnnotation) String() string { return "ann" }

type fakeRegistry struct {
	byScope map[oracle.ClassID][]oracle.ClassRef
	containers map[oracle.ClassID][]oracle.ClassRef
}

func (r *fakeRegistry) ContributionsFor(scope oracle.ClassID) []oracle.ClassRef {
	return r.byScope[scope]
}
func (r *fakeRegistry) BindingContainersFor(scope oracle.ClassID) []oracle.ClassRef {
	return r.containers[scope]
}

type fakeTS struct{ oracle.TypeSystemOracle }

func (fakeTS) ClassID(ref oracle.ClassRef) oracle.ClassID { return oracle.ClassID(ref.String()) }
func (fakeTS) AllSuperTypes(oracle.ClassRef) []oracle.ClassRef { return nil }

type fakeAnn struct{ oracle.AnnotationOracle }

func (fakeAnn) Rank(a oracle.Annotation) (int64, bool) {
	fa, ok := a.(*fakeAnnotation)
	if !ok {
 return 0, false
	}
	return fa.rank, fa.hasRnk
}

func TestContributionsFor_DedupAndSort(t *testing.T) {
	reg := &fakeRegistry{byScope: map[oracle.ClassID][]oracle.ClassRef{
 "App": {&fakeClass{"pkg.Impl2"}, &fakeClass{"pkg.Impl1"}, &fakeClass{"pkg.Impl1"}},
	}}
	m := contrib.New(reg, fakeAnn{}, fakeTS{}, false)

	got, err := m.ContributionsFor("App", nil, nil)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "pkg.Impl1", got[0].Class.String())
	assert.Equal(t, "pkg.Impl2", got[1].Class.String())
}

func TestContributionsFor_ExcludesRemoveEntries(t *testing.T) {
	reg := &fakeRegistry{byScope: map[oracle.ClassID][]oracle.ClassRef{
 "App": {&fakeClass{"pkg.Impl1"}, &fakeClass{"pkg.Impl2"}},
	}}
	m := contrib.New(reg, fakeAnn{}, fakeTS{}, false)

	got, err := m.ContributionsFor("App", []oracle.ClassID{"pkg.Impl1"}, nil)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "pkg.Impl2", got[0].Class.String())
}

func TestContributionsFor_RankInteropKeepsUnboundContributions(t *testing.T) {
	reg := &fakeRegistry{byScope: map[oracle.ClassID][]oracle.ClassRef{
 "App": {&fakeClass{"pkg.Impl1"}, &fakeClass{"pkg.Impl2"}},
	}}
	m := contrib.New(reg, fakeAnn{}, fakeTS{}, true)

	got, err := m.ContributionsFor("App", nil, nil)
	require.NoError(t, err)
	// fakeTS reports no supertypes, so no contribution gets a BoundKey and
	// rank grouping passes every entry through unchanged.
	require.Len(t, got, 2)
}
