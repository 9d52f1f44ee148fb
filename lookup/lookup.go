// Package lookup implements binding lookup: given a requested
// ContextualTypeKey, it answers which Binding variant(s) apply, in a fixed
// priority order. It is grounded in
// an extract-providers/build-provider flow over scanned declarations — generalized
// from "find the New* constructor for a package" into "find the Dagger/
// Hilt-shaped binding for a type", and in resolveBindings/autoDetectBindings
// in graph.go for the explicit-then-inferred binding priority.
package lookup

import (
	"fmt"
	"sync"

	"github.com/diwire/core/binding"
	"github.com/diwire/core/oracle"
	"github.com/diwire/core/typekey"
)

// DeclaredProvider is an explicit @Provides-style binding discovered ahead
// of time by the frontend and fed into the Lookup.
type DeclaredProvider struct {
	Key typekey.Key
	Decl oracle.Decl
	Params []oracle.ParamInfo
	Scope oracle.ClassID
	HasScope bool
	NameHint string
	Loc oracle.Location
	Annotations []oracle.Annotation
	AliasedType *typekey.Key
}

// DeclaredAlias is an explicit @Binds-style binding.
type DeclaredAlias struct {
	Key typekey.Key
	AliasedKey typekey.ContextualTypeKey
	Loc oracle.Location
	NameHint string
	IR oracle.Decl
}

// MultibindingElement is one @IntoSet/@ElementsIntoSet/@IntoMap-annotated
// @Provides function discovered by the frontend, carrying enough to build
// both its own Provided binding and the Set/Map aggregate it contributes
// to. OwningKey is the Set<V>/Map<K,V> TypeKey the element is grouped
// under; IsElements marks an @ElementsIntoSet contribution (a whole
// collection merged into the set, rather than a single element) and
// IsMap/MapKey are meaningful only together.
type MultibindingElement struct {
	OwningKey typekey.Key
	Provider *DeclaredProvider
	MapKey string
	IsMap bool
	IsElements bool
}

// Result is the outcome of a Lookup call.
type Result struct {
	Binding binding.Binding
	Found bool
}

// Lookup answers "for this ContextualTypeKey, which binding applies?" per
// A single Lookup is scoped to one graph; it is not safe to
// share across graphs resolved concurrently (each graph gets its own
// Lookup, matching "each must operate on disjoint
// DependencyGraphNode state").
type Lookup struct {
	TS oracle.TypeSystemOracle
	Ann oracle.AnnotationOracle
	Decls oracle.DeclarationSource
	Tracker oracle.IncrementalTracker

	Providers map[string]*DeclaredProvider // keyed by Key.String
	Aliases map[string]*DeclaredAlias

	mu sync.Mutex
	cache map[string]Result
}

// New creates a Lookup. tracker may be nil (treated as NoopTracker). ts may
// be nil, in which case only explicit providers and aliases are found.
func New(ts oracle.TypeSystemOracle, ann oracle.AnnotationOracle, decls oracle.DeclarationSource, tracker oracle.IncrementalTracker) *Lookup {
	if tracker == nil {
		tracker = oracle.NoopTracker{}
	}
	return &Lookup{
		TS: ts,
		Ann: ann,
		Decls: decls,
		Tracker: tracker,
		Providers: make(map[string]*DeclaredProvider),
		Aliases: make(map[string]*DeclaredAlias),
		cache: make(map[string]Result),
	}
}

// AddProvider registers an explicit @Provides binding.
func (l *Lookup) AddProvider(p *DeclaredProvider) { l.Providers[p.Key.String()] = p }

// AddAlias registers an explicit @Binds binding.
func (l *Lookup) AddAlias(a *DeclaredAlias) { l.Aliases[a.Key.String()] = a }

// Lookup resolves a ContextualTypeKey to a Binding, per its
// priority order. Results are memoized per ContextualTypeKey render (the
// "caching … keyed by ContextualTypeKey at the lookup layer" requirement of
//); construction of a binding may recursively call back into
// Lookup (e.g. resolving an Assisted binding's target), so the cache write
// happens only after the recursive work completes, and callers encountering
// a cache miss while already computing the same key get a fresh, unmemoized
// computation rather than deadlocking (single-threaded cooperative
// reentrancy).
func (l *Lookup) Lookup(ctk typekey.ContextualTypeKey) (Result, error) {
	cacheKey := ctk.Render()
	l.mu.Lock()
	if r, ok := l.cache[cacheKey]; ok {
		l.mu.Unlock()
		return r, nil
	}
	l.mu.Unlock()

	r, err := l.compute(ctk)
	if err != nil {
		return Result{}, err
	}

	l.mu.Lock()
	l.cache[cacheKey] = r
	l.mu.Unlock()
	return r, nil
}

func (l *Lookup) compute(ctk typekey.ContextualTypeKey) (Result, error) {
	keyStr := ctk.Key.String()

	// 1. Explicit Provided or Alias wins outright. The
	// FIR-equivalent checker is assumed to have forbidden both existing for
	// the same key; if both are present here we still prefer Provided.
	if p, ok := l.Providers[keyStr]; ok {
		return Result{Binding: l.buildProvided(ctk, p), Found: true}, nil
	}
	if a, ok := l.Aliases[keyStr]; ok {
		return Result{Binding: l.buildAlias(ctk, a), Found: true}, nil
	}

	if l.TS == nil {
		return l.absentOrEmpty(ctk), nil
	}
	ref, hasClass := l.TS.RawClassOf(ctk.Key.Canonical)
	if !hasClass {
		return l.absentOrEmpty(ctk), nil
	}

	if l.TS.IsMembersInjectorClass(ref) {
		return l.buildMembersInjectorResult(ctk, ref)
	}

	if l.Decls.IsObject(ref) {
		l.Tracker.RecordLookup(nil)
		return Result{Binding: binding.ObjectClass{Base: l.base(ctk, "", nil), ClassRef: ref}, Found: true}, nil
	}

	if ctor, ok := l.Decls.InjectConstructor(ref); ok {
		b, err := l.buildConstructorInjected(ctk, ref, ctor)
		if err != nil {
			return Result{}, err
		}
		return Result{Binding: b, Found: true}, nil
	}

	if target, ok := l.Decls.IsAssistedFactory(ref); ok {
		b, err := l.buildAssisted(ctk, ref, target)
		if err != nil {
			return Result{}, err
		}
		return Result{Binding: b, Found: true}, nil
	}

	return l.absentOrEmpty(ctk), nil
}

func (l *Lookup) absentOrEmpty(ctk typekey.ContextualTypeKey) Result {
	if ctk.HasDefault {
		return Result{Binding: binding.Absent{Base: l.base(ctk, "", nil)}, Found: true}
	}
	return Result{Found: false}
}

func (l *Lookup) base(ctk typekey.ContextualTypeKey, nameHint string, loc oracle.Location) binding.Base {
	b := binding.Base{Key: ctk.Key, Ctx: ctk, NameHintV: nameHint}
	if loc != nil {
		b.Loc = loc
		b.HasLoc = true
	}
	return b
}

func (l *Lookup) paramsOf(infos []oracle.ParamInfo) []binding.Parameter {
	var out []binding.Parameter
	for _, pi := range infos {
		var qualifier oracle.Annotation
		if pi.Decl != nil {
			if q, ok := l.Ann.QualifierAnnotation(pi.Decl); ok {
				qualifier = q
			}
		}
		ctk := typekey.NewContextual(l.TS, pi.Type, qualifier, pi.HasDefault)
		out = append(out, binding.Parameter{
			Name: pi.Name,
			ContextualKey: ctk,
			IsAssisted: pi.IsAssisted,
			Decl: pi.Decl,
		})
	}
	return out
}

func (l *Lookup) buildProvided(ctk typekey.ContextualTypeKey, p *DeclaredProvider) binding.Binding {
	b := l.base(ctk, p.NameHint, p.Loc)
	if p.HasScope {
		b.ScopeID = p.Scope
		b.HasScope = true
	}
	return binding.Provided{
		Base: b,
		ProviderFactory: p.Decl,
		Annotations: p.Annotations,
		AliasedType: p.AliasedType,
		Params: l.paramsOf(p.Params),
	}
}

// BuildProvidedBinding exposes buildProvided for callers outside this
// package that already hold a resolved ContextualTypeKey and
// DeclaredProvider — namely package resolve's multibinding assembly, which
// builds each contributing element's Provided binding directly rather than
// routing it through Lookup.Lookup's cache (a multibinding element's owning
// key is the Set/Map aggregate, not the element's own key).
func (l *Lookup) BuildProvidedBinding(ctk typekey.ContextualTypeKey, p *DeclaredProvider) binding.Binding {
	return l.buildProvided(ctk, p)
}

func (l *Lookup) buildAlias(ctk typekey.ContextualTypeKey, a *DeclaredAlias) binding.Binding {
	return binding.Alias{
		Base: l.base(ctk, a.NameHint, a.Loc),
		AliasedKey: a.AliasedKey,
		IR: a.IR,
	}
}

func (l *Lookup) buildConstructorInjected(ctk typekey.ContextualTypeKey, ref oracle.ClassRef, ctor oracle.Decl) (binding.Binding, error) {
	params := l.Decls.Parameters(ctor)
	isAssisted := l.Decls.IsAssistedInjectedClass(ref)

	members := l.Decls.InjectableMembers(ref)
	var injected []binding.Parameter
	for _, m := range members {
		var qualifier oracle.Annotation
		if q, ok := l.Ann.QualifierAnnotation(m.Decl); ok {
			qualifier = q
		}
		injected = append(injected, binding.Parameter{
			Name: m.Name,
			ContextualKey: typekey.NewContextual(l.TS, m.Type, qualifier, false),
			Decl: m.Decl,
		})
	}

	return binding.ConstructorInjected{
		Base: l.base(ctk, "", l.Decls.Location(ctor)),
		ClassRef: ref,
		Constructor: ctor,
		IsAssisted: isAssisted,
		InjectedMembers: injected,
		Params: l.paramsOf(params),
	}, nil
}

func (l *Lookup) buildAssisted(ctk typekey.ContextualTypeKey, ref, target oracle.ClassRef) (binding.Binding, error) {
	ctor, ok := l.Decls.InjectConstructor(target)
	if !ok {
		return nil, fmt.Errorf("assisted factory %s: target class has no inject constructor", ref)
	}
	targetKey := typekey.New(ctk.Key.Canonical, nil)
	targetCtx := typekey.ContextualTypeKey{Key: targetKey, Wrapped: ctk.Wrapped}
	targetBinding, err := l.buildConstructorInjected(targetCtx, target, ctor)
	if err != nil {
		return nil, err
	}
	ci := targetBinding.(binding.ConstructorInjected)

	fn, _ := l.Decls.SingleAbstractFunction(ref)
	var fnParams []binding.Parameter
	if fn != nil {
		fnParams = l.paramsOf(l.Decls.Parameters(fn))
	}

	return binding.Assisted{
		Base: l.base(ctk, "", l.Decls.Location(ctor)),
		ClassRef: ref,
		Target: &ci,
		Function: fn,
		Params: fnParams,
	}, nil
}

func (l *Lookup) buildMembersInjectorResult(ctk typekey.ContextualTypeKey, ref oracle.ClassRef) (Result, error) {
	args := l.TS.TypeArguments(ctk.RawType)
	if len(args) != 1 {
		return Result{}, fmt.Errorf("members-injector type %s: expected exactly one type argument", ref)
	}
	targetRef, ok := l.TS.RawClassOf(args[0])
	if !ok {
		return Result{}, fmt.Errorf("members-injector type %s: target has no resolvable class", ref)
	}
	b, err := l.buildMembersInjected(ctk, targetRef, args[0])
	if err != nil {
		return Result{}, err
	}
	return Result{Binding: b, Found: true}, nil
}

func (l *Lookup) buildMembersInjected(ctk typekey.ContextualTypeKey, targetRef oracle.ClassRef, targetType oracle.Type) (binding.Binding, error) {
	members := l.Decls.InjectableMembers(targetRef)
	params := make([]binding.Parameter, 0, len(members))
	for _, m := range members {
		var qualifier oracle.Annotation
		if q, ok := l.Ann.QualifierAnnotation(m.Decl); ok {
			qualifier = q
		}
		params = append(params, binding.Parameter{
			Name: m.Name,
			ContextualKey: typekey.NewContextual(l.TS, m.Type, qualifier, false),
			Decl: m.Decl,
		})
	}
	return binding.MembersInjected{
		Base: l.base(ctk, "", nil),
		TargetClassID: l.TS.ClassID(targetRef),
		Params: params,
	}, nil
}
