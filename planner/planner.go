// Package planner implements the provider-field planner: a BFS from
// accessor/injector roots deciding which bindings need a memoized field in
// the generated implementation. It is grounded in field-emission decisions
// from a code-generation driver, generalized from "every New* result gets a
// struct field" into scoped/multibinding/reference-count field rules.
package planner

import (
	"sort"

	"github.com/diwire/core/binding"
	"github.com/diwire/core/graph"
	"github.com/diwire/core/typekey"
)

// Root is one accessor or injector entry point to BFS from.
type Root struct {
	Key typekey.ContextualTypeKey
}

// Plan is the computed field assignment: which TypeKeys need a memoized
// field, sorted for deterministic field naming.
type Plan struct {
	ProviderFields []typekey.Key
}

// Planner computes the field plan for a single graph Node.
type Planner struct {
	Node *graph.Node
	IsExtendable bool // true if descendants may extend this graph
	MultibindingOf map[string]bool // TypeKey.String -> this key is a contribution into some multibinding
}

// New creates a Planner for node.
func New(node *graph.Node, isExtendable bool) *Planner {
	return &Planner{Node: node, IsExtendable: isExtendable, MultibindingOf: make(map[string]bool)}
}

// Plan runs the BFS from roots and applies its rules, returning the
// sorted set of TypeKeys that need a field.
func (p *Planner) Plan(roots []Root) Plan {
	refCount := make(map[string]int)
	visited := make(map[string]bool)
	needsField := make(map[string]bool)

	p.markMultibindingContributions()

	var queue []typekey.Key
	for _, r := range roots {
 queue = append(queue, r.Key.Key)
	}

	for len(queue) > 0 {
 key := queue[0]
 queue = queue[1:]
 keyStr := key.String()

 b, ok := p.Node.FindBinding(key)
 if !ok {
 continue
 }

 refCount[keyStr]++
 if p.needsFieldFor(b, refCount[keyStr]) {
 needsField[keyStr] = true
 }

 if visited[keyStr] {
 continue
 }
 visited[keyStr] = true

 for _, dep := range b.Dependencies() {
 queue = append(queue, dep.Key)
 }
 if m, ok := b.(*binding.Multibinding); ok {
 for _, sb := range m.SourceBindings {
 for _, dep := range sb.Binding.Dependencies() {
 queue = append(queue, dep.Key)
 }
 }
 }
	}

	if p.IsExtendable {
 for _, b := range p.Node.BindingsSnapshot() {
 if b.Kind() != binding.KindProvided {
 continue
 }
 if _, hasScope := b.Scope(); hasScope {
 needsField[b.TypeKey().String()] = true
 }
 }
	}

	var keys []typekey.Key
	for _, b := range p.Node.BindingsSnapshot() {
 if needsField[b.TypeKey().String()] {
 keys = append(keys, b.TypeKey())
 }
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })

	return Plan{ProviderFields: keys}
}

// markMultibindingContributions records which keys are contributed into a
// multibinding's aggregation (: "unless they are contributions
// into a multibinding — collected into the multibinding's assembly site
// instead").
func (p *Planner) markMultibindingContributions() {
	for _, b := range p.Node.BindingsSnapshot() {
 m, ok := b.(*binding.Multibinding)
 if !ok {
 continue
 }
 for _, sb := range m.SourceBindings {
 p.MultibindingOf[sb.Binding.TypeKey().String()] = true
 }
	}
}

// needsFieldFor applies its per-kind rules given the reference
// count seen so far for this binding (including the current visit).
func (p *Planner) needsFieldFor(b binding.Binding, refCount int) bool {
	switch b.Kind() {
	case binding.KindGraphDependency:
 return true
	case binding.KindMembersInjected:
 return true
	case binding.KindMultibinding:
 return false
	}
	if _, hasScope := b.Scope(); hasScope {
 return true
	}
	if p.MultibindingOf[b.TypeKey().String()] {
 return false
	}
	return refCount >= 2
}
