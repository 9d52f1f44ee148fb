// Package diag implements the error taxonomy of: a fixed set of
// diagnostic codes, a structured Diagnostic carrying the offending binding
// stack and (for missing bindings) similarity hints, and a Collector that
// replaces the source's throwing exitProcessing with ordinary Go error
// returns, per design notes ("Stack-unwinding diagnostics").
package diag

import (
	"fmt"
	"strings"

	"github.com/diwire/core/oracle"
)

// Code is a diagnostic code string, one per failure class in
type Code string

// The fixed diagnostic taxonomy.
const (
	MissingBinding Code = "MissingBinding"
	DuplicateBinding Code = "DuplicateBinding"
	DependencyCycle Code = "DependencyCycle"
	IncompatiblyScopedBindings Code = "IncompatiblyScopedBindings"
	MultibindsError Code = "MultibindsError"
	ProvidesError Code = "ProvidesError"
	BindsError Code = "BindsError"
	AggregationError Code = "AggregationError"
	ProviderOverrides Code = "ProviderOverrides"
)

// Hint labels the four similarity-hint classes names for
// MissingBinding diagnostics.
type HintKind string

// Hint classes.
const (
	HintDifferentQualifier HintKind = "Different qualifier"
	HintMultibinding HintKind = "Multibinding"
	HintSubtype HintKind = "Subtype"
	HintSupertype HintKind = "Supertype"
)

// Hint is one "similar binding" suggestion attached to a MissingBinding
// diagnostic. Up to 3–5 are rendered
type Hint struct {
	Kind HintKind
	Display string
}

// Diagnostic is one structured failure, rendered with its binding stack, a
// cycle diagram when Code == DependencyCycle, and similarity hints when
// Code == MissingBinding.
type Diagnostic struct {
	Code Code
	Message string
	Location oracle.Location
	// Stack is the pre-rendered binding stack trace (see package stack),
	// indented with a "..." ellipsis if truncated by the caller.
	Stack string
	// Cycle holds the rendered vertices of a DependencyCycle, in order, for
	// "A --> B --> C --> A" diagram rendering.
	Cycle []string
	// Hints holds up to 5 similarity suggestions for MissingBinding.
	Hints []Hint
	// Fatal marks whether this diagnostic aborts resolution of the graph
	// under inspection (: every validator diagnostic is fatal;
	// warnings such as redundant @Provides are not).
	Fatal bool
}

// Error implements the error interface so a Diagnostic can be returned and
// wrapped like any other Go error, replacing the source's thrown
// exitProcessing.
func (d *Diagnostic) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s", d.Code, d.Message)
	if len(d.Cycle) > 0 {
 fmt.Fprintf(&b, "\nCycle: %s", strings.Join(d.Cycle, " --> "))
	}
	for _, h := range d.Hints {
 fmt.Fprintf(&b, "\n %s: %s", h.Kind, h.Display)
	}
	if d.Stack != "" {
 fmt.Fprintf(&b, "\n%s", d.Stack)
	}
	return b.String()
}

// New builds a fatal Diagnostic.
func New(code Code, loc oracle.Location, format string, args...any) *Diagnostic {
	return &Diagnostic{Code: code, Message: fmt.Sprintf(format, args...), Location: loc, Fatal: true}
}

// Warn builds a non-fatal Diagnostic.
func Warn(code Code, loc oracle.Location, format string, args...any) *Diagnostic {
	return &Diagnostic{Code: code, Message: fmt.Sprintf(format, args...), Location: loc, Fatal: false}
}

// WithStack attaches a rendered binding stack trace.
func (d *Diagnostic) WithStack(s string) *Diagnostic {
	d.Stack = s
	return d
}

// WithCycle attaches a rendered cycle path for DependencyCycle diagnostics.
func (d *Diagnostic) WithCycle(path []string) *Diagnostic {
	d.Cycle = path
	return d
}

// WithHints attaches up to 5 similarity hints for MissingBinding
// diagnostics, truncating any excess ("up to 3–5").
func (d *Diagnostic) WithHints(hints []Hint) *Diagnostic {
	if len(hints) > 5 {
 hints = hints[:5]
	}
	d.Hints = hints
	return d
}

// Collector gathers diagnostics for a single graph's resolution, separating
// fatal diagnostics (which abort processing of that graph) from
// warnings (which don't). It forwards every diagnostic to an
// oracle.DiagnosticReporter for delivery, keeping the core itself free of
// stdio ("no external I/O within the core").
type Collector struct {
	reporter oracle.DiagnosticReporter
	fatal []*Diagnostic
	warnings []*Diagnostic
}

// NewCollector creates a Collector that forwards to reporter. A nil
// reporter is valid; diagnostics are simply not delivered externally.
func NewCollector(reporter oracle.DiagnosticReporter) *Collector {
	return &Collector{reporter: reporter}
}

// Report records a diagnostic, delivering it to the reporter if present.
func (c *Collector) Report(d *Diagnostic) {
	if c.reporter != nil {
 if d.Fatal {
 c.reporter.Error(d.Location, d.Error())
 } else {
 c.reporter.Warning(d.Location, d.Error())
 }
	}
	if d.Fatal {
 c.fatal = append(c.fatal, d)
	} else {
 c.warnings = append(c.warnings, d)
	}
}

// Fatal returns every fatal diagnostic recorded so far.
func (c *Collector) Fatal() []*Diagnostic { return c.fatal }

// Warnings returns every non-fatal diagnostic recorded so far.
func (c *Collector) Warnings() []*Diagnostic { return c.warnings }

// HasFatal reports whether any fatal diagnostic was recorded, i.e. whether
// the graph under inspection must abort
func (c *Collector) HasFatal() bool { return len(c.fatal) > 0 }

// Err returns the first fatal diagnostic as an error, or nil.
func (c *Collector) Err() error {
	if len(c.fatal) == 0 {
 return nil
	}
	return c.fatal[0]
}
