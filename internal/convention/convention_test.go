package convention_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diwire/core/internal/convention"
)

func TestParseDirectiveLine(t *testing.T) {
	d, ok := convention.ParseDirectiveLine("// diwire:provides AppScope")
	require.True(t, ok)
	assert.Equal(t, "provides", d.Kind)
	assert.Equal(t, "AppScope", d.Value)

	_, ok = convention.ParseDirectiveLine("// just a regular comment")
	assert.False(t, ok)
}

func TestParseDirectives_MultipleLines(t *testing.T) {
	doc := "// diwire:inject\n// diwire:scope AppScope\n// unrelated\n"
	ds := convention.ParseDirectives(doc)
	require.Len(t, ds, 2)
	assert.True(t, convention.HasKind(ds, convention.KindInject))
	v, ok := convention.ValueOf(ds, convention.KindScope)
	require.True(t, ok)
	assert.Equal(t, "AppScope", v)
}

func TestParseModulePath_ReadsModuleDirective(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "go.mod"), []byte("module example.com/widgets\n\ngo 1.25\n"), 0o644))

	path, err := convention.ParseModulePath(dir)
	require.NoError(t, err)
	assert.Equal(t, "example.com/widgets", path)
}

func TestBuildConfig_NoGenerateFileYieldsDefaults(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "go.mod"), []byte("module example.com/widgets\n\ngo 1.25\n"), 0o644))

	cfg, err := convention.BuildConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, "example.com/widgets", cfg.ModulePath)
	assert.Empty(t, cfg.Groups)
}

func TestBuildConfig_ParsesGenerateFileDirectives(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "go.mod"), []byte("module example.com/widgets\n\ngo 1.25\n"), 0o644))
	generate := `package widgets

// diwire:app widgetcli "Widget CLI" "Widget Management Tool"
// diwire:group controllers []apis.Controller internal/apis/controllers
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "generate.go"), []byte(generate), 0o644))

	cfg, err := convention.BuildConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, "widgetcli", cfg.AppName)
	assert.Equal(t, "Widget CLI", cfg.AppShort)
	assert.Equal(t, "Widget Management Tool", cfg.AppLong)
	require.Contains(t, cfg.Groups, "controllers")
	assert.Equal(t, "apis.Controller", cfg.Groups["controllers"].Interface)
}
