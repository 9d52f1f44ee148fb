package goframe

import (
	"strconv"
	"strings"
	"sync"

	"github.com/diwire/core/internal/convention"
	"github.com/diwire/core/oracle"
)

// annotation wraps one parsed "//diwire:<kind> <value>" directive.
type annotation struct {
	kind, value string
}

func (a *annotation) String() string { return a.kind + " " + a.value }

// directiveIndex is the registry Declarations and Annotations share: the
// Loader parses every declaration's doc comment once and records both its
// whole-declaration directives and any per-parameter qualifier/map-key
// directives, keyed by the exact *decl pointer Declarations hands back in
// a ParamInfo — so Annotations.QualifierAnnotation(d) can look the same
// instance back up.
type directiveIndex struct {
	mu sync.Mutex
	whole map[*decl][]convention.Directive
	qualifiers map[*decl]*annotation
	mapKeys map[*decl]*annotation
}

func newDirectiveIndex() *directiveIndex {
	return &directiveIndex{
 whole: make(map[*decl][]convention.Directive),
 qualifiers: make(map[*decl]*annotation),
 mapKeys: make(map[*decl]*annotation),
	}
}

func (idx *directiveIndex) setWhole(d *decl, directives []convention.Directive) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.whole[d] = directives
}

func (idx *directiveIndex) setQualifier(d *decl, a *annotation) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.qualifiers[d] = a
}

func (idx *directiveIndex) setMapKey(d *decl, a *annotation) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.mapKeys[d] = a
}

func (idx *directiveIndex) directivesOf(target oracle.Decl) []convention.Directive {
	d, ok := target.(*decl)
	if !ok {
 return nil
	}
	idx.mu.Lock()
	defer idx.mu.Unlock()
	return idx.whole[d]
}

// Annotations implements oracle.AnnotationOracle over the "//diwire:"
// directive vocabulary (see package convention), since Go has no
// annotation syntax. Each Annotation handle wraps one parsed directive.
type Annotations struct {
	idx *directiveIndex
}

func NewAnnotations(idx *directiveIndex) *Annotations { return &Annotations{idx: idx} }

func (a *Annotations) HasAnnotation(d oracle.Decl, id oracle.ClassID) bool {
	for _, dir := range a.idx.directivesOf(d) {
 if identityOf(dir) == string(id) {
 return true
 }
	}
	return false
}

func (a *Annotations) AnnotationsIn(d oracle.Decl, ids map[oracle.ClassID]struct{}) []oracle.Annotation {
	var out []oracle.Annotation
	for _, dir := range a.idx.directivesOf(d) {
 if _, ok := ids[oracle.ClassID(identityOf(dir))]; ok {
 out = append(out, &annotation{kind: dir.Kind, value: dir.Value})
 }
	}
	return out
}

// identityOf derives the stable ClassID-shaped identity of a directive:
// its kind for boolean-style directives, or its first comma-separated
// value token for scope/qualifier-style directives that name another
// class.
func identityOf(d convention.Directive) string {
	switch d.Kind {
	case convention.KindProvides, convention.KindScope, convention.KindExcludes, convention.KindReplaces:
 parts := strings.SplitN(d.Value, ",", 2)
 return strings.TrimSpace(parts[0])
	default:
 return d.Kind
	}
}

func (a *Annotations) QualifierAnnotation(d oracle.Decl) (oracle.Annotation, bool) {
	pd, ok := d.(*decl)
	if !ok {
 return nil, false
	}
	a.idx.mu.Lock()
	defer a.idx.mu.Unlock()
	ann, ok := a.idx.qualifiers[pd]
	return ann, ok
}

func (a *Annotations) MapKeyAnnotation(d oracle.Decl) (oracle.Annotation, bool) {
	pd, ok := d.(*decl)
	if !ok {
 return nil, false
	}
	a.idx.mu.Lock()
	defer a.idx.mu.Unlock()
	ann, ok := a.idx.mapKeys[pd]
	return ann, ok
}

func asAnnotation(a oracle.Annotation) *annotation {
	ann, ok := a.(*annotation)
	if !ok {
 panic("goframe: foreign oracle.Annotation")
	}
	return ann
}

func (a *Annotations) ScopeClassID(ann oracle.Annotation) (oracle.ClassID, bool) {
	an := asAnnotation(ann)
	if an.kind != convention.KindProvides && an.kind != convention.KindScope {
 return "", false
	}
	parts := strings.Split(an.value, ",")
	primary := strings.TrimSpace(parts[0])
	if primary == "" {
 return "", false
	}
	return oracle.ClassID(primary), true
}

func (a *Annotations) AdditionalScopes(ann oracle.Annotation) []oracle.ClassID {
	an := asAnnotation(ann)
	if an.kind != convention.KindProvides {
 return nil
	}
	parts := strings.Split(an.value, ",")
	if len(parts) <= 1 {
 return nil
	}
	var out []oracle.ClassID
	for _, p := range parts[1:] {
 p = strings.TrimSpace(p)
 if p != "" {
 out = append(out, oracle.ClassID(p))
 }
	}
	return out
}

func (a *Annotations) Excludes(ann oracle.Annotation) []oracle.ClassID {
	return splitClassIDs(asAnnotation(ann), convention.KindExcludes)
}

func (a *Annotations) Replaces(ann oracle.Annotation) []oracle.ClassID {
	return splitClassIDs(asAnnotation(ann), convention.KindReplaces)
}

func splitClassIDs(an *annotation, wantKind string) []oracle.ClassID {
	if an.kind != wantKind {
 return nil
	}
	var out []oracle.ClassID
	for _, p := range strings.Split(an.value, ",") {
 p = strings.TrimSpace(p)
 if p != "" {
 out = append(out, oracle.ClassID(p))
 }
	}
	return out
}

func (a *Annotations) Rank(ann oracle.Annotation) (int64, bool) {
	an := asAnnotation(ann)
	if an.kind != convention.KindRank {
 return 0, false
	}
	n, err := strconv.ParseInt(strings.TrimSpace(an.value), 10, 64)
	if err != nil {
 return 0, false
	}
	return n, true
}

func (a *Annotations) IsAnnotatedInject(d oracle.Decl) bool { return a.has(d, convention.KindInject) }
func (a *Annotations) IsAnnotatedProvides(d oracle.Decl) bool {
	return a.has(d, convention.KindProvides)
}
func (a *Annotations) IsAnnotatedBinds(d oracle.Decl) bool { return a.has(d, convention.KindBinds) }
func (a *Annotations) IsAnnotatedMultibinds(d oracle.Decl) bool {
	return a.has(d, convention.KindMultibinds)
}
func (a *Annotations) IsAnnotatedIntoSet(d oracle.Decl) bool { return a.hasIntoValue(d, "set") }
func (a *Annotations) IsAnnotatedElementsIntoSet(d oracle.Decl) bool {
	return a.hasIntoValue(d, "elements")
}
func (a *Annotations) IsAnnotatedIntoMap(d oracle.Decl) bool { return a.hasIntoValue(d, "map") }
func (a *Annotations) IsAnnotatedAssistedFactory(d oracle.Decl) bool {
	return a.has(d, convention.KindAssistedFactory)
}
func (a *Annotations) IsAnnotatedContributes(d oracle.Decl) bool {
	return a.has(d, convention.KindContributes)
}
func (a *Annotations) IsAnnotatedBindingContainer(d oracle.Decl) bool {
	return a.has(d, convention.KindBindingContainer)
}

func (a *Annotations) has(d oracle.Decl, kind string) bool {
	for _, dir := range a.idx.directivesOf(d) {
 if dir.Kind == kind {
 return true
 }
	}
	return false
}

func (a *Annotations) hasIntoValue(d oracle.Decl, want string) bool {
	for _, dir := range a.idx.directivesOf(d) {
 if dir.Kind == convention.KindInto && strings.TrimSpace(dir.Value) == want {
 return true
 }
	}
	return false
}

// Equal implements oracle.AnnotationOracle: two directive-backed
// annotations are equal iff their kind and value match exactly.
func (a *Annotations) Equal(x, y oracle.Annotation) bool {
	ax, ay := asAnnotation(x), asAnnotation(y)
	return ax.kind == ay.kind && ax.value == ay.value
}

// Hash implements oracle.AnnotationOracle with FNV-1a over "kind\x00value",
// consistent with Equal.
func (a *Annotations) Hash(x oracle.Annotation) uint64 {
	an := asAnnotation(x)
	const offset64 = 14695981039346656037
	const prime64 = 1099511628211
	h := uint64(offset64)
	for _, b := range []byte(an.kind + "\x00" + an.value) {
 h ^= uint64(b)
 h *= prime64
	}
	return h
}
