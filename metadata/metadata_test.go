package metadata_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diwire/core/metadata"
)

func TestNew_SortsAndBuildsBitfield(t *testing.T) {
	m := metadata.New(true,
 []string{"pkg.BProvider", "pkg.AProvider"},
 []metadata.Accessor{
 {Name: "getService", IsMultibinding: false},
 {Name: "getAll", IsMultibinding: true},
 },
 nil,
	)

	assert.Equal(t, []string{"getAll", "getService"}, m.AccessorCallableNames)
	assert.True(t, m.AccessorIsMultibinding(0))
	assert.False(t, m.AccessorIsMultibinding(1))
	assert.Equal(t, []string{"pkg.AProvider", "pkg.BProvider"}, m.ProviderFactoryClasses)
}

func TestEncodeDecode_RoundTrips(t *testing.T) {
	m := metadata.New(true, []string{"pkg.A"}, []metadata.Accessor{{Name: "getA"}}, []string{"pkg.Container"})

	data, err := metadata.Encode(m)
	require.NoError(t, err)

	got, err := metadata.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, m, got)
}
