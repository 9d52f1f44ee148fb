package goframe

import (
	"go/ast"
	"go/token"
	"go/types"
	"strings"

	"github.com/diwire/core/internal/convention"
	"github.com/diwire/core/oracle"
)

type ctorInfo struct {
	fn *ast.FuncDecl
	obj *types.Func
}

// Declarations implements oracle.DeclarationSource over a set of loaded
// packages' go/types and go/ast data, grounded in an extract-providers/
// extract-params signature-walking approach,
// generalized from "every New* function" to "the function directive-
// marked //diwire:inject", plus struct-field and type-level directive
// scanning for a members-injection and assisted-factory concept that
// a plain constructor scan has no equivalent for.
type Declarations struct {
	fset *token.FileSet
	idx *directiveIndex

	ctorByOwner map[*types.Named]*ctorInfo
	samByOwner map[*types.Named]*types.Func
	typeDirectives map[*types.Named][]convention.Directive
	structASTByOwner map[*types.Named]*ast.StructType
	namedByName map[string][]*types.Named
	originByOwner map[*types.Named]string
}

// NewDeclarations creates an empty Declarations; the Loader populates its
// maps while walking packages.
func NewDeclarations(fset *token.FileSet, idx *directiveIndex) *Declarations {
	return &Declarations{
 fset: fset,
 idx: idx,
 ctorByOwner: make(map[*types.Named]*ctorInfo),
 samByOwner: make(map[*types.Named]*types.Func),
 typeDirectives: make(map[*types.Named][]convention.Directive),
 structASTByOwner: make(map[*types.Named]*ast.StructType),
 namedByName: make(map[string][]*types.Named),
 originByOwner: make(map[*types.Named]string),
	}
}

func namedOf(ref oracle.ClassRef) (*types.Named, bool) {
	cr := unwrapClass(ref)
	if cr.isMap {
 return nil, false
	}
	return cr.named, true
}

func (d *Declarations) InjectableMembers(ref oracle.ClassRef) []oracle.Member {
	named, ok := namedOf(ref)
	if !ok {
 return nil
	}
	st, ok := d.structASTByOwner[named]
	if !ok || st.Fields == nil {
 return nil
	}

	strct, ok := named.Underlying().(*types.Struct)
	if !ok {
 return nil
	}

	var out []oracle.Member
	fieldIdx := 0
	for _, f := range st.Fields.List {
 names := f.Names
 if len(names) == 0 {
 names = []*ast.Ident{nil} // embedded field, no explicit name
 }
 for range names {
 if fieldIdx >= strct.NumFields() {
 break
 }
 tf := strct.Field(fieldIdx)
 fieldIdx++

 directives := docDirectives(f.Doc)
 if !convention.HasKind(directives, convention.KindInject) {
 continue
 }
 fieldDecl := &decl{name: named.Obj().Name() + "." + tf.Name(), obj: tf, pos: tf.Pos()}
 d.idx.setWhole(fieldDecl, directives)
 out = append(out, oracle.Member{
 Decl: fieldDecl,
 Type: wrapType(tf.Type()),
 Name: tf.Name(),
 })
 }
	}
	return out
}

func (d *Declarations) InjectConstructor(ref oracle.ClassRef) (oracle.Decl, bool) {
	named, ok := namedOf(ref)
	if !ok {
 return nil, false
	}
	ci, ok := d.ctorByOwner[named]
	if !ok {
 return nil, false
	}
	fnDecl := &decl{name: ci.obj.Name(), obj: ci.obj, ast: ci.fn, pos: ci.fn.Pos()}
	d.idx.setWhole(fnDecl, docDirectives(ci.fn.Doc))
	return fnDecl, true
}

func (d *Declarations) SingleAbstractFunction(ref oracle.ClassRef) (oracle.Decl, bool) {
	named, ok := namedOf(ref)
	if !ok {
 return nil, false
	}
	fn, ok := d.samByOwner[named]
	if !ok {
 return nil, false
	}
	return &decl{name: fn.Name(), obj: fn, pos: fn.Pos()}, true
}

// NestedClasses always returns nil: Go has no nested-class declarations,
// so there is nothing to enumerate here.
func (d *Declarations) NestedClasses(oracle.ClassRef) []oracle.ClassRef { return nil }

func (d *Declarations) Origin(ref oracle.ClassRef) string {
	named, ok := namedOf(ref)
	if !ok {
 return "builtin"
	}
	if origin, ok := d.originByOwner[named]; ok {
 return origin
	}
	if named.Obj().Pkg() != nil {
 return named.Obj().Pkg().Path()
	}
	return "unknown"
}

// IsObject reports whether ref's type declaration carries a
// "//diwire:object" directive marking it a pre-built singleton value rather
// than a constructor-injected class (the Go analogue of a source-language
// "object" declaration).
func (d *Declarations) IsObject(ref oracle.ClassRef) bool {
	named, ok := namedOf(ref)
	if !ok {
 return false
	}
	for _, dir := range d.typeDirectives[named] {
 if dir.Kind == "object" {
 return true
 }
	}
	return false
}

func (d *Declarations) Location(target oracle.Decl) oracle.Location {
	pd, ok := target.(*decl)
	if !ok {
 return location{}
	}
	return location{pos: d.fset.Position(pd.pos)}
}

func (d *Declarations) Parameters(target oracle.Decl) []oracle.ParamInfo {
	pd, ok := target.(*decl)
	if !ok {
 return nil
	}
	fn, ok := pd.obj.(*types.Func)
	if !ok {
 return nil
	}
	sig, ok := fn.Type().(*types.Signature)
	if !ok {
 return nil
	}

	directives := d.idx.directivesOf(pd)
	assisted := make(map[string]bool)
	for _, a := range convention.ValuesOf(directives, convention.KindAssisted) {
 assisted[strings.TrimSpace(a)] = true
	}
	qualifiers := pairValues(convention.ValuesOf(directives, convention.KindQualifier))
	mapKeys := pairValues(convention.ValuesOf(directives, convention.KindMapKey))

	params := sig.Params()
	out := make([]oracle.ParamInfo, 0, params.Len())
	for i := 0; i < params.Len(); i++ {
 v := params.At(i)
 name := v.Name()
 if name == "" {
 name = "_"
 }
 paramDecl := &decl{name: pd.name + "." + name, obj: v, pos: v.Pos()}

 if q, ok := qualifiers[name]; ok {
 d.idx.setQualifier(paramDecl, &annotation{kind: convention.KindQualifier, value: q})
 }
 if mk, ok := mapKeys[name]; ok {
 d.idx.setMapKey(paramDecl, &annotation{kind: convention.KindMapKey, value: mk})
 }

 out = append(out, oracle.ParamInfo{
 Decl: paramDecl,
 Name: name,
 Type: wrapType(v.Type()),
 IsAssisted: assisted[name],
 })
	}
	return out
}

// pairValues turns ["x Name1", "y Name2"] into {"x": "Name1", "y": "Name2"}.
func pairValues(values []string) map[string]string {
	out := make(map[string]string, len(values))
	for _, v := range values {
 parts := strings.Fields(v)
 if len(parts) == 2 {
 out[parts[0]] = parts[1]
 }
	}
	return out
}

func (d *Declarations) ReturnType(target oracle.Decl) oracle.Type {
	pd, ok := target.(*decl)
	if !ok {
 return nil
	}
	fn, ok := pd.obj.(*types.Func)
	if !ok {
 return nil
	}
	sig, ok := fn.Type().(*types.Signature)
	if !ok || sig.Results().Len() == 0 {
 return nil
	}
	for i := sig.Results().Len() - 1; i >= 0; i-- {
 t := sig.Results().At(i).Type()
 if isErrorType(t) {
 continue
 }
 return wrapType(t)
	}
	return wrapType(sig.Results().At(0).Type())
}

func (d *Declarations) IsAssistedInjectedClass(ref oracle.ClassRef) bool {
	named, ok := namedOf(ref)
	if !ok {
 return false
	}
	for _, dir := range d.typeDirectives[named] {
 if dir.Kind == convention.KindAssisted {
 return true
 }
	}
	return false
}

func (d *Declarations) IsAssistedFactory(ref oracle.ClassRef) (oracle.ClassRef, bool) {
	named, ok := namedOf(ref)
	if !ok {
 return nil, false
	}
	for _, dir := range d.typeDirectives[named] {
 if dir.Kind != convention.KindAssistedFactory {
 continue
 }
 target := strings.TrimSpace(dir.Value)
 candidates := d.namedByName[target]
 if len(candidates) == 0 {
 return nil, false
 }
 return wrapNamed(candidates[0]), true
	}
	return nil, false
}

func isErrorType(t types.Type) bool {
	return types.Identical(t, types.Universe.Lookup("error").Type())
}

func docDirectives(doc *ast.CommentGroup) []convention.Directive {
	if doc == nil {
 return nil
	}
	return convention.ParseDirectives(doc.Text)
}
