// Package goframe is a go/types-backed implementation of every oracle
// interface (oracle.TypeSystemOracle, AnnotationOracle, DeclarationSource,
// ScopeHintRegistry, DiagnosticReporter), plus a Loader that walks a Go
// module with golang.org/x/tools/go/packages and builds the
// resolve.GraphSpec values the core needs. It is grounded in
// a module scanner (package loading, gitignore/exclude filtering,
// go/types signature inspection) and a cmd/ directory naming
// convention (exported-New* detection), generalized from "find the
// primary New* constructor per package" into "find @Inject constructors,
// @Provides/@Binds functions, and @Component graph roots" via the
// "//diwire:" doc-comment directive vocabulary package convention defines,
// since Go source carries no annotations of its own.
package goframe

import (
	"fmt"
	"go/ast"
	"go/token"
	"go/types"

	"github.com/diwire/core/oracle"
)

// goType adapts a go/types.Type to oracle.Type.
type goType struct {
	t types.Type
}

func wrapType(t types.Type) *goType { return &goType{t: t} }

func (g *goType) String() string { return types.TypeString(g.t, types.RelativeTo(nil)) }

// unwrap returns the underlying go/types.Type, panicking if gt did not
// originate from this package — every oracle.Type the core holds was
// built by wrapType, so this is a programmer error if it ever fires.
func unwrap(t oracle.Type) types.Type {
	gt, ok := t.(*goType)
	if !ok {
 panic(fmt.Sprintf("goframe: foreign oracle.Type %T", t))
	}
	return gt.t
}

// classRef adapts a declared Go type (struct, interface, or the
// synthetic builtin-map marker) to oracle.ClassRef.
type classRef struct {
	named *types.Named // nil for the synthetic map marker
	isMap bool
	keyVal types.Type // builtin map's key/value, only set when isMap
	valVal types.Type
}

func wrapNamed(n *types.Named) *classRef { return &classRef{named: n} }

func wrapMap(m *types.Map) *classRef {
	return &classRef{isMap: true, keyVal: m.Key(), valVal: m.Elem()}
}

func (c *classRef) String() string {
	if c.isMap {
 return "map[...]..."
	}
	return c.named.Obj().Pkg().Path() + "." + c.named.Obj().Name()
}

func unwrapClass(ref oracle.ClassRef) *classRef {
	cr, ok := ref.(*classRef)
	if !ok {
 panic(fmt.Sprintf("goframe: foreign oracle.ClassRef %T", ref))
	}
	return cr
}

// decl adapts a declaration (function, parameter, field) to oracle.Decl.
// ast carries the doc comment (nil for declarations with none, e.g.
// parameters); obj carries the go/types identity used for type
// inspection.
type decl struct {
	name string
	obj types.Object
	ast *ast.FuncDecl // non-nil only for top-level function declarations
	pos token.Pos
}

func (d *decl) String() string { return d.name }

// location adapts a token.Position to oracle.Location.
type location struct {
	pos token.Position
}

func (l location) String() string { return l.pos.String() }
