// Package convention implements the ambient configuration layer: module
// path discovery and the directive vocabulary goframe uses to recognize
// @Inject/@Provides/@Binds-shaped declarations from Go doc comments, since
// Go has no annotation syntax of its own. Grounded in a BuildConfig/
// module-root-discovery/"//autodi:" directive-parsing convention layer
// and doc-comment directive extraction, merged
// into one neutral directive vocabulary shared by both the config-file
// scan and goframe's per-declaration scan. Module-path parsing is upgraded
// from a hand-rolled bufio.Scanner line search to
// golang.org/x/mod/modfile, a real dependency previously only
// indirect.
package convention

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/mod/modfile"

	"github.com/diwire/core/internal/ignore"
)

// Directive kinds recognized in "//diwire:<kind> <value>" doc comments.
// Go has no annotation syntax, so these stand in for @Inject/@Provides/
// @Binds/@Scope/@Qualifier/@IntoMap/@IntoSet the same way an
// "//autodi:" comment convention stands in for framework annotations.
const (
	KindInject = "inject" // marks a constructor as the injected constructor
	KindAssisted = "assisted" // marks an injected constructor/class as assisted
	KindProvides = "provides" // marks a function as an @Provides binding; value is "Scope[,ExtraScope...]"
	KindBinds = "binds" // marks a function as an @Binds alias; value is the aliased type
	KindScope = "scope" // declares a custom scope annotation class
	KindQualifier = "qualifier" // value "<paramName> <QualifierName>"; attaches a qualifier to one parameter
	KindMapKey = "mapkey" // value "<paramName> <KeyAnnotationName>"; attaches a map-key annotation
	KindInto = "into" // multibinding contribution; value is "map", "set", or "elements"
	KindMultibinds = "multibinds" // declares an (possibly empty) multibinding site
	KindAssistedFactory = "factory" // marks an interface as an assisted factory; value is the target class
	KindContributes = "contributes" // marks a function as a contribution into a multibinding
	KindBindingContainer = "container" // marks a declaration as a binding container (for contrib discovery)
	KindComponent = "component" // marks an interface as a graph/component root
	KindExcludes = "excludes" // value is a comma-separated ClassID list
	KindReplaces = "replaces" // value is a comma-separated ClassID list
	KindRank = "rank" // value is an integer rank, used by rank-interop grouping
	KindApp = "app" // generate-file only: app metadata
	KindGroup = "group" // generate-file only: multibinding group wiring
	KindIgnore = "ignore" // excludes a declaration from discovery
)

// Directive is one parsed "//diwire:<kind> <value>" line.
type Directive struct {
	Kind string
	Value string
}

// ParseDirectiveLine parses a single comment line (with or without its
// leading "//") into a Directive. ok is false for lines that aren't
// diwire directives.
func ParseDirectiveLine(line string) (Directive, bool) {
	text := strings.TrimSpace(line)
	text = strings.TrimPrefix(text, "//")
	text = strings.TrimSpace(text)

	if !strings.HasPrefix(text, "diwire:") {
	return Directive{}, false
	}
	text = strings.TrimPrefix(text, "diwire:")

	parts := strings.SplitN(text, " ", 2)
	kind := strings.TrimSpace(parts[0])
	if kind == "" {
	return Directive{}, false
	}
	value := ""
	if len(parts) > 1 {
	value = strings.TrimSpace(parts[1])
	}
	return Directive{Kind: kind, Value: value}, true
}

// ParseDirectives extracts every "//diwire:" directive from a block of doc
// comment text (newline-separated), in source order.
func ParseDirectives(doc string) []Directive {
	var out []Directive
	for _, line := range strings.Split(doc, "\n") {
	if d, ok := ParseDirectiveLine(line); ok {
	out = append(out, d)
	}
	}
	return out
}

// HasKind reports whether directives contains one of the given kind.
func HasKind(directives []Directive, kind string) bool {
	for _, d := range directives {
	if d.Kind == kind {
	return true
	}
	}
	return false
}

// ValueOf returns the value of the first directive matching kind, and
// whether one was found.
func ValueOf(directives []Directive, kind string) (string, bool) {
	for _, d := range directives {
	if d.Kind == kind {
	return d.Value, true
	}
	}
	return "", false
}

// ValuesOf returns every value of directives matching kind, in order.
func ValuesOf(directives []Directive, kind string) []string {
	var out []string
	for _, d := range directives {
	if d.Kind == kind {
	out = append(out, d.Value)
	}
	}
	return out
}

// GroupConfig describes one multibinding contribution group declared via
// "//diwire:group <name> []<Interface> <path>".
type GroupConfig struct {
	Interface string
	Paths []string
}

// ModuleConfig is the resolved ambient configuration for one module root.
type ModuleConfig struct {
	ModulePath string
	ScanRoots []string
	Exclude ignore.Filter
	Groups map[string]GroupConfig
	// RankInterop turns on max-rank-wins grouping for contributions sharing
	// a bound supertype (see package contrib). Defaults to true: a module
	// with no ranked contributions at all still gets correct behavior, since
	// every contribution then groups alone.
	RankInterop bool

	AppName string
	AppShort string
	AppLong string
}

// BuildConfig discovers a ModuleConfig from moduleRoot's go.mod and an
// optional generate.go conventions file.
func BuildConfig(moduleRoot string) (*ModuleConfig, error) {
	modulePath, err := ParseModulePath(moduleRoot)
	if err != nil {
	return nil, err
	}

	appName, appShort, appLong, groups, err := parseGenerateFile(moduleRoot)
	if err != nil {
	return nil, err
	}

	return &ModuleConfig{
		ModulePath: modulePath,
		ScanRoots: []string{"internal/...", "pkg/..."},
		Exclude: ignore.LoadFromModuleRoot(moduleRoot),
		Groups: groups,
		RankInterop: true,
		AppName: appName,
		AppShort: appShort,
		AppLong: appLong,
	}, nil
}

// ParseModulePath reads the module directive out of root/go.mod using
// golang.org/x/mod/modfile, rather than a hand-rolled line scan.
func ParseModulePath(root string) (string, error) {
	path := filepath.Join(root, "go.mod")
	data, err := os.ReadFile(path)
	if err != nil {
	return "", fmt.Errorf("read go.mod: %w", err)
	}

	f, err := modfile.Parse(path, data, nil)
	if err != nil {
	return "", fmt.Errorf("parse go.mod: %w", err)
	}
	if f.Module == nil {
	return "", fmt.Errorf("module directive not found in go.mod")
	}
	return f.Module.Mod.Path, nil
}

func parseGenerateFile(root string) (appName, appShort, appLong string, groups map[string]GroupConfig, err error) {
	path := filepath.Join(root, "generate.go")
	data, readErr := os.ReadFile(path)
	if readErr != nil {
		if os.IsNotExist(readErr) {
			return "", "", "", make(map[string]GroupConfig), nil
		}
		err = fmt.Errorf("read generate.go: %w", readErr)
		return
	}

	groups = make(map[string]GroupConfig)

	for _, d := range ParseDirectives(string(data)) {
		switch d.Kind {
		case KindApp:
			// //diwire:app appname "Short" "Long"
			fields := strings.Fields(d.Value)
			if len(fields) >= 1 {
				appName = fields[0]
			}
			rest := strings.TrimSpace(strings.TrimPrefix(d.Value, appName))
			quoted := parseQuotedStrings(rest)
			if len(quoted) >= 1 {
				appShort = quoted[0]
			}
			if len(quoted) >= 2 {
				appLong = quoted[1]
			}

		case KindGroup:
			// //diwire:group user_controllers []apis.Controller internal/apis/user/controllers
			parts := strings.Fields(d.Value)
			if len(parts) >= 3 {
				groupName := parts[0]
				ifaceType := strings.TrimPrefix(parts[1], "[]")
				groupPath := parts[2]
				groups[groupName] = GroupConfig{
					Interface: ifaceType,
					Paths: []string{groupPath},
				}
			}
		}
	}

	return
}

func parseQuotedStrings(s string) []string {
	var result []string
	for {
		start := strings.Index(s, `"`)
		if start < 0 {
			break
		}
		end := strings.Index(s[start+1:], `"`)
		if end < 0 {
			break
		}
		result = append(result, s[start+1:start+1+end])
		s = s[start+1+end+1:]
	}
	return result
}
