// Package resolve is the top-level orchestrator wiring the Binding Lookup,
// Binding Graph, Contribution Merger, Parent Context, Topological Sorter,
// Validator, and Provider-Field Planner into the single `ResolveGraph` /
// `ResolveAll` entry points a frontend calls. It also carries the Code
// Emitter collaborator and its ResolvedGraphPlan payload: these reference
// binding/graph/typekey types an Emitter implementation needs, which is why
// they live here rather than in package oracle (keeping oracle's own
// external-interface set free of a dependency on the core's internal
// binding model). Grounded in a top-level command-orchestration flow,
// generalized from "scan one package, emit one file" into "resolve N
// independent graphs, each through the full lookup-graph-validate-plan
// pipeline."
package resolve

import (
	"context"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/diwire/core/binding"
	"github.com/diwire/core/contrib"
	"github.com/diwire/core/diag"
	"github.com/diwire/core/graph"
	"github.com/diwire/core/lookup"
	"github.com/diwire/core/metadata"
	"github.com/diwire/core/oracle"
	"github.com/diwire/core/parentctx"
	"github.com/diwire/core/planner"
	"github.com/diwire/core/toposort"
	"github.com/diwire/core/typekey"
	"github.com/diwire/core/validate"
)

// ResolvedGraphPlan is the payload handed to a Code Emitter: "receives a
// ResolvedGraphPlan { node, bindingsInTopoOrder, deferredTypes,
// providerFields, instanceFields, proto }". Proto is the persisted
// GraphMetadata that gets attached to the generated class.
type ResolvedGraphPlan struct {
	Node *graph.Node
	BindingsInTopoOrder []binding.Binding
	DeferredTypes []typekey.Key
	ProviderFields []typekey.Key
	// InstanceFields holds BoundInstance bindings: values the graph
	// creator supplies at construction time rather than fields the planner
	// computes, kept distinct from ProviderFields so an Emitter can thread
	// constructor parameters differently from memoized provider fields.
	InstanceFields []typekey.Key
	Proto metadata.GraphMetadata
}

// Emitter is the Code Emitter collaborator, out of scope for this core — a
// consumer that turns a ResolvedGraphPlan into generated source. The core
// never calls it directly; a frontend wires it in after
// ResolveGraph/ResolveAll succeeds.
type Emitter interface {
	Emit(plan *ResolvedGraphPlan) error
}

// GraphSpec is everything a frontend must supply to resolve one graph.
type GraphSpec struct {
	Name string
	TS oracle.TypeSystemOracle
	Ann oracle.AnnotationOracle
	Decls oracle.DeclarationSource
	Tracker oracle.IncrementalTracker
	Reporter oracle.DiagnosticReporter
	Providers []*lookup.DeclaredProvider
	Aliases []*lookup.DeclaredAlias
	Roots []validate.Root
	OwnScopes map[oracle.ClassID]bool
	Parents *parentctx.Stack
	IsExtendable bool

	// ScopeHints, when non-nil, is consulted once per scope in Scopes to
	// discover @ContributesBinding/@ContributesIntoSet-style contributions
	// via the Contribution Merger. Excludes/Replaces are this graph's own
	// exclude/replace lists (shared across every scope queried); RankInterop
	// turns on max-rank-wins grouping for contributions sharing a bound
	// supertype.
	ScopeHints oracle.ScopeHintRegistry
	Scopes []oracle.ClassID
	Excludes []oracle.ClassID
	Replaces []oracle.ClassID
	RankInteropOn bool

	// Multibindings carries every @IntoSet/@ElementsIntoSet/@IntoMap
	// contributing @Provides function discovered by the frontend, grouped
	// into Set/Map aggregates before validation runs.
	Multibindings []*lookup.MultibindingElement
}

// ResolveGraph runs the full lookup-graph-validate-plan pipeline for a
// single graph.
func ResolveGraph(spec GraphSpec) (*ResolvedGraphPlan, error) {
	lk := lookup.New(spec.TS, spec.Ann, spec.Decls, spec.Tracker)
	for _, p := range spec.Providers {
		lk.AddProvider(p)
	}
	for _, a := range spec.Aliases {
		lk.AddAlias(a)
	}

	diags := diag.NewCollector(spec.Reporter)

	if err := mergeContributions(lk, diags, spec); err != nil {
		return nil, err
	}

	node := graph.New(spec.Name, lk, diags, spec.Parents)

	assembleMultibindings(node, lk, spec.Multibindings)

	v := validate.New(node, diags, spec.Parents, spec.OwnScopes)
	if err := v.Validate(spec.Roots); err != nil {
		return nil, err
	}

	order, deferred, err := sortBindings(node)
	if err != nil {
		return nil, err
	}

	p := planner.New(node, spec.IsExtendable)
	var proots []planner.Root
	for _, r := range spec.Roots {
		proots = append(proots, planner.Root{Key: r.Key})
	}
	plan := p.Plan(proots)

	var instanceFields []typekey.Key
	for _, b := range node.BindingsSnapshot() {
		if b.Kind() == binding.KindBoundInstance {
			instanceFields = append(instanceFields, b.TypeKey())
		}
	}

	proto := buildMetadata(node, spec.Name != "")

	return &ResolvedGraphPlan{
		Node: node,
		BindingsInTopoOrder: order,
		DeferredTypes: deferred,
		ProviderFields: plan.ProviderFields,
		InstanceFields: instanceFields,
		Proto: proto,
	}, nil
}

// mergeContributions runs the Contribution Merger over every scope the
// graph owns and threads the result into lk as Binds-style aliases, so a
// contributing class ends up reachable under its bound supertype's key the
// same way an explicit @Binds function would be. A contribution with no
// unique supertype to bind raises an AggregationError diagnostic and is
// skipped rather than guessed at.
func mergeContributions(lk *lookup.Lookup, diags *diag.Collector, spec GraphSpec) error {
	if spec.ScopeHints == nil || len(spec.Scopes) == 0 {
		return nil
	}
	merger := contrib.New(spec.ScopeHints, spec.Ann, spec.TS, spec.RankInteropOn)

	for _, scope := range spec.Scopes {
		contribs, err := merger.ContributionsFor(scope, spec.Excludes, spec.Replaces)
		if err != nil {
			return err
		}
		for _, c := range contribs {
			if c.BoundRef == nil {
				d := diag.New(diag.AggregationError, nil,
					"contribution %s has no unique supertype to bind", c.Class)
				diags.Report(d)
				continue
			}
			lk.AddAlias(aliasForContribution(spec.TS, c))
		}
	}
	return nil
}

// aliasForContribution builds the Binds-style alias that makes a
// contributing class reachable under its bound supertype's key.
func aliasForContribution(ts oracle.TypeSystemOracle, c contrib.Contribution) *lookup.DeclaredAlias {
	boundKey := typekey.New(ts.TypeWith(c.BoundRef, nil), nil)
	classType := ts.TypeWith(c.Class, nil)
	aliasedCtk := typekey.NewContextual(ts, classType, nil, false)
	return &lookup.DeclaredAlias{
		Key: boundKey,
		AliasedKey: aliasedCtk,
		NameHint: c.Class.String(),
	}
}

// assembleMultibindings groups elements by owning key and registers each
// group as a Set or Map multibinding on node, before validation runs so
// Validator's own GetOrCreateBinding cache hit finds them pre-populated.
func assembleMultibindings(node *graph.Node, lk *lookup.Lookup, elements []*lookup.MultibindingElement) {
	if len(elements) == 0 {
		return
	}

	var order []string
	grouped := make(map[string][]*lookup.MultibindingElement)
	owning := make(map[string]typekey.Key)
	for _, e := range elements {
		k := e.OwningKey.String()
		if _, ok := grouped[k]; !ok {
			order = append(order, k)
			owning[k] = e.OwningKey
		}
		grouped[k] = append(grouped[k], e)
	}

	for _, k := range order {
		group := grouped[k]
		isMap := group[0].IsMap

		sources := make([]binding.BindingWithAnnotations, 0, len(group))
		for _, e := range group {
			ctk := typekey.ContextualTypeKey{Key: e.Provider.Key, Wrapped: typekey.Canon(e.Provider.Key.Canonical)}
			b := lk.BuildProvidedBinding(ctk, e.Provider)
			sources = append(sources, binding.BindingWithAnnotations{
				Binding: b,
				Annotations: e.Provider.Annotations,
				MapKey: e.MapKey,
			})
		}
		// allowEmpty: a multibinding assembled from at least one discovered
		// contribution is never itself empty; an owning key with zero
		// elements never reaches this loop at all (see len(elements) guard
		// above), so AllowEmpty only matters for a future @Multibinds
		// declaration with no contributors, which this path doesn't build.
		node.GetOrCreateMultibindingWithSources(owning[k], isMap, true, sources)
	}
}

// ResolveAll resolves every spec, potentially in parallel: permits "the
// compiler may process multiple graphs in parallel; each must operate on
// disjoint DependencyGraphNode state" — true here since each GraphSpec gets
// its own freshly constructed lookup.Lookup/graph.Node. errgroup waits for
// every spec and returns the first error; its derived context is not passed
// to ResolveGraph, so a failure does not cancel resolutions already running.
func ResolveAll(ctx context.Context, specs []GraphSpec) ([]*ResolvedGraphPlan, error) {
	results := make([]*ResolvedGraphPlan, len(specs))
	g, _ := errgroup.WithContext(ctx)

	for i, spec := range specs {
		i, spec := i, spec
		g.Go(func() error {
			plan, err := ResolveGraph(spec)
			if err != nil {
				return err
			}
			results[i] = plan
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// sortBindings builds a toposort.Graph from the node's current binding set
// and runs it, translating the result back to ordered bindings/Keys.
func sortBindings(node *graph.Node) ([]binding.Binding, []typekey.Key, error) {
	bindings := node.BindingsSnapshot()

	tg := toposort.NewGraph()
	byVertex := make(map[toposort.Vertex]binding.Binding, len(bindings))

	for _, b := range bindings {
		v := toposort.Vertex(b.TypeKey().String())
		tg.AddVertex(v)
		byVertex[v] = b

		if b.Kind() == binding.KindAssisted {
			tg.MarkImplicitlyDeferrable(v)
		}

		for _, dep := range b.Dependencies() {
			tg.AddEdge(v, toposort.Vertex(dep.Key.String()), dep.IsDeferrable())
		}
		if m, ok := b.(*binding.Multibinding); ok {
			for _, sb := range m.SourceBindings {
				for _, dep := range sb.Binding.Dependencies() {
					tg.AddEdge(v, toposort.Vertex(dep.Key.String()), dep.IsDeferrable())
				}
			}
		}
	}

	result, err := tg.Sort()
	if err != nil {
		return nil, nil, err
	}

	order := make([]binding.Binding, 0, len(result.SortedKeys))
	for _, v := range result.SortedKeys {
		if b, ok := byVertex[v]; ok {
			order = append(order, b)
		}
	}

	deferred := make([]typekey.Key, 0, len(result.DeferredTypes))
	for _, v := range result.DeferredTypes {
		if b, ok := byVertex[v]; ok {
			deferred = append(deferred, b.TypeKey())
		}
	}
	sort.Slice(deferred, func(i, j int) bool { return deferred[i].Less(deferred[j]) })

	return order, deferred, nil
}

// buildMetadata derives the persisted GraphMetadata from the
// node's final binding set.
func buildMetadata(node *graph.Node, isGraph bool) metadata.GraphMetadata {
	var providerFactories []string
	var accessors []metadata.Accessor

	for _, b := range node.BindingsSnapshot() {
		if b.Kind() == binding.KindProvided {
			if p, ok := b.(binding.Provided); ok && p.ProviderFactory != nil {
				providerFactories = append(providerFactories, p.ProviderFactory.String())
			}
		}
		if b.NameHint() != "" {
			_, isMulti := b.(*binding.Multibinding)
			accessors = append(accessors, metadata.Accessor{Name: b.NameHint(), IsMultibinding: isMulti})
		}
	}

	return metadata.New(isGraph, providerFactories, accessors, nil)
}
