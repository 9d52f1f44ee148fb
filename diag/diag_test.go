package diag_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diwire/core/diag"
	"github.com/diwire/core/oracle"
)

type fakeLoc struct{ s string }

func (f fakeLoc) String() string { return f.s }

type recordingReporter struct {
	errors []string
	warnings []string
}

func (r *recordingReporter) Error(loc oracle.Location, message string) {
	r.errors = append(r.errors, message)
}
func (r *recordingReporter) Warning(loc oracle.Location, message string) {
	r.warnings = append(r.warnings, message)
}

func TestDiagnostic_ErrorRendersCodeMessageCycleHintsStack(t *testing.T) {
	d := diag.New(diag.DependencyCycle, fakeLoc{"loc1"}, "cycle at %s", "Foo").
 WithCycle([]string{"A", "B", "A"}).
 WithHints([]diag.Hint{{Kind: diag.HintSubtype, Display: "Bar"}}).
 WithStack(" at Foo\n at Bar")

	msg := d.Error()
	assert.Contains(t, msg, "[DependencyCycle]")
	assert.Contains(t, msg, "cycle at Foo")
	assert.Contains(t, msg, "A --> B --> A")
	assert.Contains(t, msg, "Subtype: Bar")
	assert.Contains(t, msg, "at Foo")
}

func TestWithHints_TruncatesToFive(t *testing.T) {
	var hints []diag.Hint
	for i := 0; i < 8; i++ {
 hints = append(hints, diag.Hint{Kind: diag.HintSubtype, Display: "x"})
	}
	d := diag.New(diag.MissingBinding, nil, "missing").WithHints(hints)
	assert.Len(t, d.Hints, 5)
}

func TestCollector_SeparatesFatalFromWarnings(t *testing.T) {
	c := diag.NewCollector(nil)
	c.Report(diag.New(diag.MissingBinding, nil, "missing Foo"))
	c.Report(diag.Warn(diag.ProviderOverrides, nil, "redundant provides"))

	assert.True(t, c.HasFatal())
	assert.Len(t, c.Fatal(), 1)
	assert.Len(t, c.Warnings(), 1)
	require.Error(t, c.Err())
}

func TestCollector_ForwardsToReporterBySeverity(t *testing.T) {
	r := &recordingReporter{}
	c := diag.NewCollector(r)
	c.Report(diag.New(diag.MissingBinding, fakeLoc{"x"}, "missing Foo"))
	c.Report(diag.Warn(diag.ProviderOverrides, fakeLoc{"y"}, "redundant"))

	assert.Len(t, r.errors, 1)
	assert.Len(t, r.warnings, 1)
	assert.Contains(t, r.errors[0], "missing Foo")
}

func TestCollector_NilReporterIsValid(t *testing.T) {
	c := diag.NewCollector(nil)
	assert.NotPanics(t, func() {
 c.Report(diag.New(diag.MissingBinding, nil, "missing"))
	})
}

func TestCollector_NoFatalYieldsNilErr(t *testing.T) {
	c := diag.NewCollector(nil)
	c.Report(diag.Warn(diag.ProviderOverrides, nil, "warn only"))
	assert.NoError(t, c.Err())
}
