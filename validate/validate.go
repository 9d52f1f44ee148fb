// Package validate implements the dependency graph validator: a
// DFS from every accessor and injector root that detects dependency
// cycles (deferral-aware), missing bindings, and scope incompatibility. It
// is grounded in graph-completeness checks over a resolved dependency graph,
// generalized from "every package has a resolvable New* chain" into the
// full deferred-cycle/scope/missing-binding validation a compile-time DI
// container needs.
package validate

import (
	"fmt"

	"github.com/diwire/core/binding"
	"github.com/diwire/core/diag"
	"github.com/diwire/core/graph"
	"github.com/diwire/core/oracle"
	"github.com/diwire/core/parentctx"
	"github.com/diwire/core/stack"
	"github.com/diwire/core/typekey"
)

// Root is one entry point the validator seeds its DFS from: an accessor
// method or a members-injector function.
type Root struct {
	Key typekey.ContextualTypeKey
	Context string
}

// Validator runs the DFS over a single graph Node.
type Validator struct {
	Node *graph.Node
	Diags *diag.Collector
	Parents *parentctx.Stack // nil if this graph has no ancestors
	// OwnScopes is the set of scopes this graph itself declares (its own
	// @Scope annotation plus "additional scopes"), consulted by scope
	// compatibility checking without package graph needing to know about
	// the scope model.
	OwnScopes map[oracle.ClassID]bool

	visiting map[string]bool // keys on the current DFS path
	done map[string]bool // keys fully processed (no need to revisit)
	deferred map[string]bool
}

// New creates a Validator for node.
func New(node *graph.Node, diags *diag.Collector, parents *parentctx.Stack, ownScopes map[oracle.ClassID]bool) *Validator {
	return &Validator{
 Node: node,
 Diags: diags,
 Parents: parents,
 OwnScopes: ownScopes,
 visiting: make(map[string]bool),
 done: make(map[string]bool),
 deferred: make(map[string]bool),
	}
}

// Validate seeds a DFS from every root, then checks referenced-but-missing
// bindings and scope compatibility across the whole graph. It stops at the
// first fatal diagnostic: validation emits one structured diagnostic per
// failure and aborts processing of that graph.
func (v *Validator) Validate(roots []Root) error {
	for _, r := range roots {
 if err := v.visit(r.Key, stack.RequestedAt(r.Key, r.Context)); err != nil {
 return err
 }
 if v.Diags.HasFatal() {
 return v.Diags.Err()
 }
	}

	if err := v.checkMissingReferenced(); err != nil {
 return err
	}
	return v.checkScopeCompatibility()
}

// visit runs the DFS for a single contextual key. The cycle check happens
// against the stack as it stands BEFORE entry is pushed, so a reappearing
// key's EntriesSince search finds the path back to its true first
// occurrence rather than the frame being pushed for this very call.
func (v *Validator) visit(ctk typekey.ContextualTypeKey, entry stack.Entry) error {
	keyStr := ctk.Key.String()

	if v.visiting[keyStr] {
 segment := v.Node.Stack.EntriesSince(ctk)
 if pathHasDeferrableEdge(segment) || ctk.IsDeferrable() {
 v.deferred[keyStr] = true
 return nil
 }
 if lastIsMultibindingContribution(segment) {
 return nil
 }
 cyclePath := renderCycle(segment)
 d := diag.New(diag.DependencyCycle, nil, "dependency cycle detected").WithCycle(cyclePath).WithStack(v.Node.Stack.Render(0))
 v.Diags.Report(d)
 return fmt.Errorf("%w", d)
	}
	if v.done[keyStr] {
 return nil
	}

	v.Node.Stack.Push(entry)
	defer v.Node.Stack.Pop()

	v.visiting[keyStr] = true
	defer delete(v.visiting, keyStr)

	b, err := v.Node.GetOrCreateBinding(ctk)
	if err != nil {
 // GetOrCreateBinding already reported [MissingBinding]; propagate so
 // the caller aborts this graph's resolution
 return err
	}

	if m, ok := b.(*binding.Multibinding); ok {
 for _, sb := range m.SourceBindings {
 contribEntry := stack.ContributedToMultibinding(sb.Binding.ContextualKey, "")
 for _, dep := range sb.Binding.Dependencies() {
 if err := v.visit(dep, contribEntry); err != nil {
 return err
 }
 }
 }
 v.done[keyStr] = true
 return nil
	}

	for _, dep := range b.Dependencies() {
 if err := v.visit(dep, stack.InjectedAt(dep, "", nil)); err != nil {
 return err
 }
	}

	v.done[keyStr] = true
	return nil
}

func pathHasDeferrableEdge(segment []stack.Entry) bool {
	for _, e := range segment {
 if e.IsDeferrable {
 return true
 }
	}
	return false
}

func lastIsMultibindingContribution(segment []stack.Entry) bool {
	if len(segment) == 0 {
 return false
	}
	return segment[len(segment)-1].Usage == stack.UsageContributedToMulti
}

func renderCycle(segment []stack.Entry) []string {
	out := make([]string, len(segment))
	for i, e := range segment {
 out[i] = e.DisplayKey
	}
	return out
}

// checkMissingReferenced implements: after the DFS,
// verify every key referenced by some binding's dependencies has a
// corresponding binding in the graph.
func (v *Validator) checkMissingReferenced() error {
	for _, b := range v.Node.BindingsSnapshot() {
 for _, dep := range b.Dependencies() {
 if !v.Node.Contains(dep.Key) {
 d := diag.New(diag.MissingBinding, nil, "binding %s references missing key %s", b.TypeKey(), dep.Render())
 v.Diags.Report(d)
 return fmt.Errorf("%w", d)
 }
 }
	}
	return nil
}

// checkScopeCompatibility implements: every scoped
// constructor/provided binding requires the current graph or an extended
// ancestor to declare that scope.
func (v *Validator) checkScopeCompatibility() error {
	for _, b := range v.Node.BindingsSnapshot() {
 scope, hasScope := b.Scope()
 if !hasScope {
 continue
 }
 switch b.Kind() {
 case binding.KindConstructorInjected, binding.KindProvided:
 default:
 continue
 }
 if v.declaresScope(scope) {
 continue
 }
 if v.Parents != nil && v.Parents.ContainsScope(scope) {
 ancestor, _ := v.Parents.CurrentParentGraph()
 d := diag.Warn(diag.IncompatiblyScopedBindings, nil,
 "binding %s is scoped to %s, declared by ancestor %s but not used there; consider adding an accessor on %s",
 b.TypeKey(), scope, ancestor, ancestor)
 v.Diags.Report(d)
 continue
 }
 d := diag.New(diag.IncompatiblyScopedBindings, nil, "binding %s is scoped to %s, which neither this graph nor any ancestor declares", b.TypeKey(), scope)
 v.Diags.Report(d)
 return fmt.Errorf("%w", d)
	}
	return nil
}

// declaresScope reports whether this graph's own scope set (not its
// ancestors') includes scope.
func (v *Validator) declaresScope(scope oracle.ClassID) bool {
	return v.OwnScopes != nil && v.OwnScopes[scope]
}
