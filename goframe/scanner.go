package goframe

import (
	"fmt"
	"go/ast"
	"go/token"
	"go/types"
	"sort"
	"strings"

	"golang.org/x/tools/go/packages"

	"github.com/diwire/core/internal/convention"
	"github.com/diwire/core/lookup"
	"github.com/diwire/core/oracle"
	"github.com/diwire/core/resolve"
	"github.com/diwire/core/typekey"
	"github.com/diwire/core/validate"
)

// componentInfo is one "//diwire:component" interface discovered during
// load: a graph root whose methods become accessor/injector entry points,
// the Go analogue of a Dagger @Component / Hilt @EntryPoint interface.
type componentInfo struct {
	named *types.Named
	iface *types.Interface
	ownScopes map[oracle.ClassID]bool
	excludes []oracle.ClassID
	replaces []oracle.ClassID
	extendable bool
}

// Module is the result of loading one Go module's source tree: every
// oracle collaborator, fully wired, plus the component graphs discovered
// via "//diwire:component" directives, ready to hand to
// resolve.ResolveAll. Grounded in a packages.Load-based module scanner:
// same packages.Load + gitignore/exclude walk, generalized from "find the
// primary New* constructor per package" into "find every @Inject/
// @Provides/@Binds/@Component-directive-marked declaration."
type Module struct {
	Config *convention.ModuleConfig
	TS *TypeSystem
	Ann *Annotations
	Decls *Declarations
	Fset *token.FileSet

	components []componentInfo
	providers []*lookup.DeclaredProvider
	aliases []*lookup.DeclaredAlias
	multibindings []*lookup.MultibindingElement

	// ScopeHints implements oracle.ScopeHintRegistry over every
	// "//diwire:contributes"/"//diwire:container" directive found while
	// loading.
	ScopeHints *ScopeHints
}

// Load walks moduleRoot's packages and builds a Module. wrappers
// configures which generic types are recognized as Provider<T>/Lazy<T>.
func Load(moduleRoot string, wrappers WrapperConfig) (*Module, error) {
	cfg, err := convention.BuildConfig(moduleRoot)
	if err != nil {
		return nil, err
	}

	pkgCfg := &packages.Config{
		Mode: packages.NeedName | packages.NeedTypes | packages.NeedTypesInfo |
			packages.NeedSyntax | packages.NeedFiles | packages.NeedImports,
		Dir: moduleRoot,
	}

	patterns := buildPatterns(cfg)
	pkgs, err := packages.Load(pkgCfg, patterns...)
	if err != nil {
		return nil, fmt.Errorf("load packages: %w", err)
	}
	for _, pkg := range pkgs {
		for _, e := range pkg.Errors {
			return nil, fmt.Errorf("package %s: %w", pkg.PkgPath, e)
		}
	}

	var fset *token.FileSet
	if len(pkgs) > 0 {
		fset = pkgs[0].Fset
	} else {
		fset = token.NewFileSet()
	}

	idx := newDirectiveIndex()
	decls := NewDeclarations(fset, idx)

	var allNamed []*types.Named
	var components []componentInfo
	var rawContribs []rawContribution

	for _, pkg := range pkgs {
		if shouldExclude(pkg.PkgPath, cfg) {
			continue
		}
		named, comps, contribs := walkPackage(pkg, decls, idx)
		allNamed = append(allNamed, named...)
		components = append(components, comps...)
		rawContribs = append(rawContribs, contribs...)
	}

	ts := NewTypeSystem(wrappers, allNamed)
	ann := NewAnnotations(idx)

	providers, aliases, funcContribs, multibindings := buildExplicitBindings(pkgs, cfg, ts, idx)
	rawContribs = append(rawContribs, funcContribs...)

	byScope := make(map[oracle.ClassID][]rawContribution)
	for _, rc := range rawContribs {
		byScope[rc.scope] = append(byScope[rc.scope], rc)
	}

	return &Module{
		Config: cfg,
		TS: ts,
		Ann: ann,
		Decls: decls,
		Fset: fset,
		components: components,
		providers: providers,
		aliases: aliases,
		multibindings: multibindings,
		ScopeHints: NewScopeHints(byScope),
	}, nil
}

func buildPatterns(cfg *convention.ModuleConfig) []string {
	var patterns []string
	for _, scan := range cfg.ScanRoots {
		p := strings.TrimPrefix(scan, "./")
		if strings.HasPrefix(p, "cmd/") || p == "cmd/..." || p == "cmd" {
			continue
		}
		patterns = append(patterns, cfg.ModulePath+"/"+p)
	}
	return patterns
}

func shouldExclude(pkgPath string, cfg *convention.ModuleConfig) bool {
	rel := strings.TrimPrefix(pkgPath, cfg.ModulePath+"/")
	return cfg.Exclude.Excludes(rel)
}

// walkPackage records every named type's directives/AST shape into decls
// and idx, and returns the named types, any "//diwire:component" interfaces
// found, and any type-level "//diwire:container" contributions.
func walkPackage(pkg *packages.Package, decls *Declarations, idx *directiveIndex) ([]*types.Named, []componentInfo, []rawContribution) {
	if pkg.Types == nil {
		return nil, nil, nil
	}
	scope := pkg.Types.Scope()

	typeSpecDoc := make(map[string]*ast.CommentGroup)
	structASTs := make(map[string]*ast.StructType)
	funcDecls := make(map[string]*ast.FuncDecl)

	for _, f := range pkg.Syntax {
		for _, d := range f.Decls {
			switch decl := d.(type) {
			case *ast.GenDecl:
				for _, spec := range decl.Specs {
					ts, ok := spec.(*ast.TypeSpec)
					if !ok {
						continue
					}
					doc := ts.Doc
					if doc == nil {
						doc = decl.Doc
					}
					typeSpecDoc[ts.Name.Name] = doc
					if st, ok := ts.Type.(*ast.StructType); ok {
						structASTs[ts.Name.Name] = st
					}
				}
			case *ast.FuncDecl:
				if decl.Recv == nil {
					funcDecls[decl.Name.Name] = decl
				}
			}
		}
	}

	var named []*types.Named
	var components []componentInfo
	var contribs []rawContribution

	names := scope.Names()
	for _, name := range names {
		obj := scope.Lookup(name)
		tn, ok := obj.(*types.TypeName)
		if !ok {
			continue
		}
		n, ok := tn.Type().(*types.Named)
		if !ok {
			continue
		}
		named = append(named, n)
		decls.originByOwner[n] = pkg.PkgPath
		decls.namedByName[name] = append(decls.namedByName[name], n)

		directives := docDirectives(typeSpecDoc[name])
		decls.typeDirectives[n] = directives

		if st, ok := structASTs[name]; ok {
			decls.structASTByOwner[n] = st
		}

		if iface, ok := n.Underlying().(*types.Interface); ok {
			if sam, ok := singleAbstractMethod(iface); ok {
				decls.samByOwner[n] = sam
			}
			if convention.HasKind(directives, convention.KindComponent) {
				components = append(components, componentInfo{
					named: n,
					iface: iface,
					ownScopes: scopesOf(directives),
					excludes: classIDListOf(directives, convention.KindExcludes),
					replaces: classIDListOf(directives, convention.KindReplaces),
					extendable: convention.HasKind(directives, "extendable"),
				})
			}
		}

		if scopeVal, ok := convention.ValueOf(directives, convention.KindBindingContainer); ok {
			contribs = append(contribs, rawContribution{
				scope: oracle.ClassID(strings.TrimSpace(scopeVal)),
				ref: wrapNamed(n),
				isContainer: true,
				exported: ast.IsExported(name),
			})
		}
	}

	// Constructors: any top-level function directive-marked "inject" whose
	// first non-error return is a named type owned by this package.
	for fname, fn := range funcDecls {
		fnDoc := docDirectives(fn.Doc)
		if !convention.HasKind(fnDoc, convention.KindInject) {
			continue
		}
		obj := scope.Lookup(fname)
		funcObj, ok := obj.(*types.Func)
		if !ok {
			continue
		}
		sig, ok := funcObj.Type().(*types.Signature)
		if !ok || sig.Results().Len() == 0 {
			continue
		}
		owner := ownerNamedOf(sig.Results().At(0).Type())
		if owner == nil {
			continue
		}
		decls.ctorByOwner[owner] = &ctorInfo{fn: fn, obj: funcObj}
	}

	return named, components, contribs
}

func ownerNamedOf(t types.Type) *types.Named {
	if p, ok := t.(*types.Pointer); ok {
		t = p.Elem()
	}
	n, _ := t.(*types.Named)
	return n
}

func singleAbstractMethod(iface *types.Interface) (*types.Func, bool) {
	if iface.NumExplicitMethods() != 1 {
		return nil, false
	}
	return iface.ExplicitMethod(0), true
}

func scopesOf(directives []convention.Directive) map[oracle.ClassID]bool {
	out := make(map[oracle.ClassID]bool)
	for _, v := range convention.ValuesOf(directives, convention.KindScope) {
		for _, s := range strings.Split(v, ",") {
			s = strings.TrimSpace(s)
			if s != "" {
				out[oracle.ClassID(s)] = true
			}
		}
	}
	return out
}

// classIDListOf parses a single comma-separated ClassID list directive
// (KindExcludes/KindReplaces), the same splitting scopesOf uses for
// KindScope's comma-separated values.
func classIDListOf(directives []convention.Directive, kind string) []oracle.ClassID {
	val, ok := convention.ValueOf(directives, kind)
	if !ok {
		return nil
	}
	var out []oracle.ClassID
	for _, s := range strings.Split(val, ",") {
		s = strings.TrimSpace(s)
		if s != "" {
			out = append(out, oracle.ClassID(s))
		}
	}
	return out
}

// buildExplicitBindings scans every package for "//diwire:provides",
// "//diwire:binds", and "//diwire:into"-marked functions, building the
// Lookup's explicit binding set and the multibinding element list directly
// (these bypass DeclarationSource's class-shape discovery since they ARE
// the binding, not a class to decompose).
func buildExplicitBindings(pkgs []*packages.Package, cfg *convention.ModuleConfig, ts *TypeSystem, idx *directiveIndex) ([]*lookup.DeclaredProvider, []*lookup.DeclaredAlias, []rawContribution, []*lookup.MultibindingElement) {
	var providers []*lookup.DeclaredProvider
	var aliases []*lookup.DeclaredAlias
	var contribs []rawContribution
	var multibindings []*lookup.MultibindingElement

	for _, pkg := range pkgs {
		if shouldExclude(pkg.PkgPath, cfg) {
			continue
		}
		if pkg.Types == nil {
			continue
		}
		scope := pkg.Types.Scope()

		for _, f := range pkg.Syntax {
			for _, d := range f.Decls {
				fn, ok := d.(*ast.FuncDecl)
				if !ok || fn.Recv != nil {
					continue
				}
				directives := docDirectives(fn.Doc)
				if len(directives) == 0 {
					continue
				}

				obj := scope.Lookup(fn.Name.Name)
				funcObj, ok := obj.(*types.Func)
				if !ok {
					continue
				}
				sig, ok := funcObj.Type().(*types.Signature)
				if !ok || sig.Results().Len() == 0 {
					continue
				}

				fnDecl := &decl{name: pkg.PkgPath + "." + fn.Name.Name, obj: funcObj, ast: fn, pos: fn.Pos()}
				idx.setWhole(fnDecl, directives)
				loc := location{pos: pkg.Fset.Position(fn.Pos())}

				returnType := firstNonErrorResult(sig)
				if returnType == nil {
					continue
				}

				params := make([]oracle.ParamInfo, 0, sig.Params().Len())
				for i := 0; i < sig.Params().Len(); i++ {
					v := sig.Params().At(i)
					params = append(params, oracle.ParamInfo{
						Decl: &decl{name: fnDecl.name + "." + v.Name, obj: v, pos: v.Pos()},
						Name: v.Name,
						Type: wrapType(v.Type()),
					})
				}

				if intoVal, ok := convention.ValueOf(directives, convention.KindInto); ok {
					if me := buildMultibindingElement(ts, fnDecl, loc, fn.Name.Name, returnType, params, intoVal); me != nil {
						multibindings = append(multibindings, me)
					}
					continue
				}

				wrapped := typekey.Build(ts, wrapType(returnType))
				key := typekey.Of(wrapped, nil)

				if convention.HasKind(directives, convention.KindProvides) {
					scopeVal, hasScope := convention.ValueOf(directives, convention.KindProvides)
					primaryScope, _, _ := strings.Cut(scopeVal, ",")
					providers = append(providers, &lookup.DeclaredProvider{
						Key: key,
						Decl: fnDecl,
						Params: params,
						Scope: oracle.ClassID(strings.TrimSpace(primaryScope)),
						HasScope: hasScope && strings.TrimSpace(primaryScope) != "",
						NameHint: fn.Name.Name,
						Loc: loc,
					})
				}

				if convention.HasKind(directives, convention.KindBinds) {
					if sig.Params().Len() != 1 {
						continue
					}
					paramType := sig.Params().At(0).Type()
					aliasedWrapped := typekey.Build(ts, wrapType(paramType))
					aliasedCtx := typekey.ContextualTypeKey{Key: typekey.Of(aliasedWrapped, nil), Wrapped: aliasedWrapped}
					aliases = append(aliases, &lookup.DeclaredAlias{
						Key: key,
						AliasedKey: aliasedCtx,
						Loc: loc,
						NameHint: fn.Name.Name,
						IR: fnDecl,
					})
				}

				if scopeVal, ok := convention.ValueOf(directives, convention.KindContributes); ok {
					if ref, ok := ts.RawClassOf(wrapType(returnType)); ok {
						contribs = append(contribs, rawContribution{
							scope: oracle.ClassID(strings.TrimSpace(scopeVal)),
							ref: ref,
							isContainer: false,
							exported: ast.IsExported(fn.Name.Name),
						})
					}
				}
			}
		}
	}

	return providers, aliases, contribs, multibindings
}

// buildMultibindingElement builds the MultibindingElement for one
// "//diwire:into <mode>[ <mapKey>]"-marked function. mode is "set",
// "elements", or "map"; a map element's literal key is carried as the
// directive's second field, since no per-function key-type annotation
// infrastructure exists to support a richer @MapKey-style mechanism — every
// @IntoMap contribution is keyed by this literal string.
func buildMultibindingElement(ts *TypeSystem, fnDecl *decl, loc location, name string, returnType types.Type, params []oracle.ParamInfo, intoVal string) *lookup.MultibindingElement {
	fields := strings.Fields(intoVal)
	if len(fields) == 0 {
		return nil
	}
	mode := fields[0]

	var owningKey typekey.Key
	var mapKey string
	var isMap bool

	switch mode {
	case "set":
		elementWrapped := typekey.Build(ts, wrapType(returnType))
		owningKey = typekey.SetOf(elementWrapped.CanonicalType(), nil)
	case "elements":
		elemType := returnType
		if sl, ok := returnType.Underlying().(*types.Slice); ok {
			elemType = sl.Elem()
		}
		elementWrapped := typekey.Build(ts, wrapType(elemType))
		owningKey = typekey.SetOf(elementWrapped.CanonicalType(), nil)
	case "map":
		if len(fields) > 1 {
			mapKey = fields[1]
		}
		syntheticMap := types.NewMap(types.Typ[types.String], returnType)
		wrapped := typekey.Build(ts, wrapType(syntheticMap))
		owningKey = typekey.Of(wrapped, nil)
		isMap = true
	default:
		return nil
	}

	elementWrapped := typekey.Build(ts, wrapType(returnType))
	provider := &lookup.DeclaredProvider{
		Key: typekey.Of(elementWrapped, nil),
		Decl: fnDecl,
		Params: params,
		NameHint: name,
		Loc: loc,
	}

	return &lookup.MultibindingElement{
		OwningKey: owningKey,
		Provider: provider,
		MapKey: mapKey,
		IsMap: isMap,
		IsElements: mode == "elements",
	}
}

func firstNonErrorResult(sig *types.Signature) types.Type {
	results := sig.Results()
	for i := 0; i < results.Len(); i++ {
		t := results.At(i).Type()
		if !isErrorType(t) {
			return t
		}
	}
	return nil
}

// GraphSpecs builds one resolve.GraphSpec per discovered component
// interface, its accessor roots derived from the interface's method set.
func (m *Module) GraphSpecs(tracker oracle.IncrementalTracker, reporter oracle.DiagnosticReporter) []resolve.GraphSpec {
	var specs []resolve.GraphSpec
	for _, c := range m.components {
		var roots []validate.Root
		for i := 0; i < c.iface.NumMethods(); i++ {
			method := c.iface.Method(i)
			sig, ok := method.Type().(*types.Signature)
			if !ok || sig.Results().Len() == 0 {
				continue
			}
			retType := firstNonErrorResult(sig)
			if retType == nil {
				continue
			}
			wrapped := typekey.Build(m.TS, wrapType(retType))
			ctk := typekey.ContextualTypeKey{Key: typekey.Of(wrapped, nil), Wrapped: wrapped}
			roots = append(roots, validate.Root{
				Key: ctk,
				Context: fmt.Sprintf("accessor %s.%s", c.named.Obj().Name(), method.Name),
			})
		}

		var scopes []oracle.ClassID
		for s := range c.ownScopes {
			scopes = append(scopes, s)
		}
		sort.Slice(scopes, func(i, j int) bool { return scopes[i] < scopes[j] })

		specs = append(specs, resolve.GraphSpec{
			Name: c.named.Obj().Name(),
			TS: m.TS,
			Ann: m.Ann,
			Decls: m.Decls,
			Tracker: tracker,
			Reporter: reporter,
			Providers: m.providers,
			Aliases: m.aliases,
			Roots: roots,
			OwnScopes: c.ownScopes,
			IsExtendable: c.extendable,
			ScopeHints: m.ScopeHints,
			Scopes: scopes,
			Excludes: c.excludes,
			Replaces: c.replaces,
			RankInteropOn: m.Config.RankInterop,
			Multibindings: m.multibindings,
		})
	}
	return specs
}
