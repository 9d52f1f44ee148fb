// Package toposort implements the dependency graph's topological sort:
// Tarjan SCC over the full strict+deferrable adjacency, cycle
// classification that prefers cutting deferrable edges over failing
// outright, a component-DAG collapse, and Kahn's algorithm with a
// priority queue for deterministic tie-breaks. It is grounded in
// a topological ordering pass over a plain dependency graph (there a DFS over
// acyclic New* dependencies), generalized into a cycle-tolerant,
// deferral-aware sorter. The Tarjan pass is written iteratively (an
// explicit stack, not recursion) to keep stack depth bounded for very large
// graphs; the per-component cycle re-check (hasCycleWithin) recurses.
package toposort

import (
	"container/heap"
	"fmt"
	"sort"
)

// Vertex is the sortable identity of one graph node, rendered the same way
// as typekey.Key.String by callers.
type Vertex string

// Graph is the full strict+deferrable adjacency takes as input:
// edges[v] is the set of keys v depends on, alongside which of those edges
// are deferrable (Provider<_>/Lazy<_> indirection breaks the cycle) and
// which vertices are implicitly deferrable in their entirety (e.g. assisted
// factories).
type Graph struct {
	vertices map[Vertex]bool
	deps map[Vertex]map[Vertex]bool // v -> dep -> exists
	deferrable map[Vertex]map[Vertex]bool // v -> dep -> is this edge deferrable
	implicit map[Vertex]bool // v -> is v itself wholly deferrable
}

// NewGraph creates an empty Graph.
func NewGraph() *Graph {
	return &Graph{
		vertices: make(map[Vertex]bool),
		deps: make(map[Vertex]map[Vertex]bool),
		deferrable: make(map[Vertex]map[Vertex]bool),
		implicit: make(map[Vertex]bool),
	}
}

// AddVertex ensures v is present even if it has no edges (e.g. a leaf
// binding).
func (g *Graph) AddVertex(v Vertex) {
	g.vertices[v] = true
	if g.deps[v] == nil {
		g.deps[v] = make(map[Vertex]bool)
		g.deferrable[v] = make(map[Vertex]bool)
	}
}

// AddEdge records that v depends on dep. deferrable marks the edge as
// breakable via Provider<_>/Lazy<_> indirection.
func (g *Graph) AddEdge(v, dep Vertex, deferrable bool) {
	g.AddVertex(v)
	g.AddVertex(dep)
	g.deps[v][dep] = true
	if deferrable {
		g.deferrable[v][dep] = true
	}
}

// MarkImplicitlyDeferrable marks v as wholly deferrable ( cycle
// classification preference (a): "implicitly-deferrable vertices, e.g.
// assisted factories — whole nodes deferrable").
func (g *Graph) MarkImplicitlyDeferrable(v Vertex) {
	g.AddVertex(v)
	g.implicit[v] = true
}

// Result is the TopoSortResult of
type Result struct {
	SortedKeys []Vertex
	DeferredTypes []Vertex
}

// CycleError reports a cycle's onCycle callback would
// raise: no deferrable edge exists anywhere in the offending SCC.
type CycleError struct {
	Vertices []Vertex
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("dependency cycle with no deferrable edge: %v", e.Vertices)
}

// Sort runs the four phases of and returns a valid topological
// order treating deferrable edges inside broken cycles as cut, plus the set
// of vertices requiring provider-instance indirection.
func (g *Graph) Sort() (*Result, error) {
	components := g.tarjanSCC()

	deferred := make(map[Vertex]bool)
	cutEdges := make(map[Vertex]map[Vertex]bool) // v -> dep -> cut

	for _, comp := range components {
		if len(comp) == 1 && !g.deps[comp[0]][comp[0]] {
			continue // trivial, no self-loop
		}
		if err := g.classifyCycle(comp, deferred, cutEdges); err != nil {
			return nil, err
		}
	}

	compOf := make(map[Vertex]int)
	for i, comp := range components {
		for _, v := range comp {
			compOf[v] = i
		}
	}

	// Component DAG: compDeps[i] = set of component indices i's members
	// depend on (excluding intra-component edges and cut edges).
	compDeps := make([]map[int]bool, len(components))
	for i := range components {
		compDeps[i] = make(map[int]bool)
	}
	for v, deps := range g.deps {
		for dep := range deps {
			if cutEdges[v][dep] {
				continue
			}
			cv, cd := compOf[v], compOf[dep]
			if cv == cd {
				continue
			}
			compDeps[cv][cd] = true
		}
	}

	order, err := kahnOrder(components, compDeps)
	if err != nil {
		return nil, err
	}

	var sortedKeys []Vertex
	for _, compIdx := range order {
		comp := append([]Vertex(nil), components[compIdx]...)
		sort.Slice(comp, func(i, j int) bool { return comp[i] < comp[j] })
		sortedKeys = append(sortedKeys, comp...)
	}

	var deferredTypes []Vertex
	for v := range deferred {
		deferredTypes = append(deferredTypes, v)
	}
	sort.Slice(deferredTypes, func(i, j int) bool { return deferredTypes[i] < deferredTypes[j] })

	return &Result{SortedKeys: sortedKeys, DeferredTypes: deferredTypes}, nil
}

// classifyCycle implements for one non-trivial SCC (or
// self-loop): find the minimal set of members whose deferrable edges, once
// removed, make the induced subgraph acyclic, per the stated preference
// order.
func (g *Graph) classifyCycle(comp []Vertex, deferred map[Vertex]bool, cutEdges map[Vertex]map[Vertex]bool) error {
	inComp := make(map[Vertex]bool, len(comp))
	for _, v := range comp {
		inComp[v] = true
	}

	sorted := append([]Vertex(nil), comp...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	// Preference (a): implicitly-deferrable vertices, whole node cut.
	for _, v := range sorted {
		if !g.implicit[v] {
			continue
		}
		trial := cloneCutEdges(cutEdges)
		cutAllEdgesOf(g, v, inComp, trial)
		if !hasCycleWithin(g, comp, trial) {
			mergeCutEdges(cutEdges, trial)
			deferred[v] = true
			return nil
		}
	}

	// Preference (b): vertices with at least one outgoing deferrable edge,
	// cutting only that vertex's deferrable edges.
	for _, v := range sorted {
		if len(g.deferrable[v]) == 0 {
			continue
		}
		trial := cloneCutEdges(cutEdges)
		cutDeferrableEdgesOf(g, v, inComp, trial)
		if !hasCycleWithin(g, comp, trial) {
			mergeCutEdges(cutEdges, trial)
			deferred[v] = true
			return nil
		}
	}

	// Preference (c): fallback, cut every deferrable edge within the SCC.
	trial := cloneCutEdges(cutEdges)
	any := false
	for _, v := range sorted {
		for dep := range g.deferrable[v] {
			if inComp[dep] {
				markCut(trial, v, dep)
				any = true
			}
		}
	}
	if any && !hasCycleWithin(g, comp, trial) {
		mergeCutEdges(cutEdges, trial)
		for _, v := range sorted {
			deferred[v] = true
		}
		return nil
	}

	return &CycleError{Vertices: sorted}
}

func cloneCutEdges(in map[Vertex]map[Vertex]bool) map[Vertex]map[Vertex]bool {
	out := make(map[Vertex]map[Vertex]bool, len(in))
	for v, deps := range in {
		out[v] = make(map[Vertex]bool, len(deps))
		for d := range deps {
			out[v][d] = true
		}
	}
	return out
}

func mergeCutEdges(dst, src map[Vertex]map[Vertex]bool) {
	for v, deps := range src {
		if dst[v] == nil {
			dst[v] = make(map[Vertex]bool)
		}
		for d := range deps {
			dst[v][d] = true
		}
	}
}

func markCut(m map[Vertex]map[Vertex]bool, v, dep Vertex) {
	if m[v] == nil {
		m[v] = make(map[Vertex]bool)
	}
	m[v][dep] = true
}

func cutAllEdgesOf(g *Graph, v Vertex, inComp map[Vertex]bool, cut map[Vertex]map[Vertex]bool) {
	for dep := range g.deps[v] {
		if inComp[dep] {
			markCut(cut, v, dep)
		}
	}
	for other := range inComp {
		if g.deps[other][v] {
			markCut(cut, other, v)
		}
	}
}

func cutDeferrableEdgesOf(g *Graph, v Vertex, inComp map[Vertex]bool, cut map[Vertex]map[Vertex]bool) {
	for dep := range g.deferrable[v] {
		if inComp[dep] {
			markCut(cut, v, dep)
		}
	}
}

// hasCycleWithin reports whether the induced subgraph on comp, with cut
// edges removed, still contains a cycle.
func hasCycleWithin(g *Graph, comp []Vertex, cut map[Vertex]map[Vertex]bool) bool {
	inComp := make(map[Vertex]bool, len(comp))
	for _, v := range comp {
		inComp[v] = true
	}

	const white, gray, black = 0, 1, 2
	color := make(map[Vertex]int, len(comp))

	var visit func(v Vertex) bool
	visit = func(v Vertex) bool {
		color[v] = gray
		for dep := range g.deps[v] {
			if !inComp[dep] || cut[v][dep] {
				continue
			}
			switch color[dep] {
			case gray:
				return true
			case white:
				if visit(dep) {
					return true
				}
			}
		}
		color[v] = black
		return false
	}

	for _, v := range comp {
		if color[v] == white {
			if visit(v) {
				return true
			}
		}
	}
	return false
}

// tarjanSCC computes strongly connected components iteratively (an
// explicit work stack rather than recursion, to keep stack depth bounded
// for very large graphs), returning components in an arbitrary but
// deterministic-per-run order; vertex order within a component is sorted
// by callers as needed.
func (g *Graph) tarjanSCC() [][]Vertex {
	var allVertices []Vertex
	for v := range g.vertices {
		allVertices = append(allVertices, v)
	}
	sort.Slice(allVertices, func(i, j int) bool { return allVertices[i] < allVertices[j] })

	index := make(map[Vertex]int)
	lowlink := make(map[Vertex]int)
	onStack := make(map[Vertex]bool)
	var indexStack []Vertex
	var components [][]Vertex
	nextIndex := 0

	type frame struct {
		v Vertex
		depIter []Vertex
		depIdx int
	}

	for _, start := range allVertices {
		if _, seen := index[start]; seen {
			continue
		}

		var work []*frame
		push := func(v Vertex) {
			index[v] = nextIndex
			lowlink[v] = nextIndex
			nextIndex++
			indexStack = append(indexStack, v)
			onStack[v] = true

			var deps []Vertex
			for d := range g.deps[v] {
				deps = append(deps, d)
			}
			sort.Slice(deps, func(i, j int) bool { return deps[i] < deps[j] })
			work = append(work, &frame{v: v, depIter: deps})
		}
		push(start)

		for len(work) > 0 {
			top := work[len(work)-1]
			if top.depIdx < len(top.depIter) {
				dep := top.depIter[top.depIdx]
				top.depIdx++
				if _, seen := index[dep]; !seen {
					push(dep)
					continue
				}
				if onStack[dep] {
					if index[dep] < lowlink[top.v] {
						lowlink[top.v] = index[dep]
					}
				}
				continue
			}

			work = work[:len(work)-1]
			if len(work) > 0 {
				parent := work[len(work)-1]
				if lowlink[top.v] < lowlink[parent.v] {
					lowlink[parent.v] = lowlink[top.v]
				}
			}

			if lowlink[top.v] == index[top.v] {
				var comp []Vertex
				for {
					n := len(indexStack) - 1
					w := indexStack[n]
					indexStack = indexStack[:n]
					onStack[w] = false
					comp = append(comp, w)
					if w == top.v {
						break
					}
				}
				components = append(components, comp)
			}
		}
	}

	return components
}

// kahnOrder runs Kahn's algorithm over the component DAG with a
// min-first priority queue keyed by component id (the component's
// lexicographically smallest vertex, for deterministic tie-breaks),
// emitting components with no remaining unprocessed dependency first.
func kahnOrder(components [][]Vertex, compDeps []map[int]bool) ([]int, error) {
	n := len(components)
	minKey := make([]Vertex, n)
	for i, comp := range components {
		m := comp[0]
		for _, v := range comp {
			if v < m {
				m = v
			}
		}
		minKey[i] = m
	}

	remaining := make([]int, n) // number of not-yet-emitted dependencies
	dependents := make([][]int, n)
	for i, deps := range compDeps {
		remaining[i] = len(deps)
		for dep := range deps {
			dependents[dep] = append(dependents[dep], i)
		}
	}

	pq := &compHeap{}
	heap.Init(pq)
	for i := 0; i < n; i++ {
		if remaining[i] == 0 {
			heap.Push(pq, compHeapItem{idx: i, key: minKey[i]})
		}
	}

	var order []int
	emitted := make([]bool, n)
	for pq.Len() > 0 {
		item := heap.Pop(pq).(compHeapItem)
		if emitted[item.idx] {
			continue
		}
		emitted[item.idx] = true
		order = append(order, item.idx)
		for _, dependent := range dependents[item.idx] {
			remaining[dependent]--
			if remaining[dependent] == 0 {
				heap.Push(pq, compHeapItem{idx: dependent, key: minKey[dependent]})
			}
		}
	}

	if len(order) != n {
		return nil, fmt.Errorf("toposort: component DAG retains a cycle after cut (internal error)")
	}
	return order, nil
}

type compHeapItem struct {
	idx int
	key Vertex
}

type compHeap []compHeapItem

func (h compHeap) Len() int { return len(h) }
func (h compHeap) Less(i, j int) bool { return h[i].key < h[j].key }
func (h compHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *compHeap) Push(x any) { *h = append(*h, x.(compHeapItem)) }
func (h *compHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
