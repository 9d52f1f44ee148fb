package binding

import (
	"github.com/diwire/core/oracle"
	"github.com/diwire/core/typekey"
)

// Parameter describes one parameter of a provider function, constructor, or
// members-injector function. Assisted
// parameters are runtime-supplied and never contribute a dependency edge;
// graph-instance parameters (an injected @Provides receiver, a bound
// creator instance) are likewise excluded from Dependencies.
type Parameter struct {
	Name string
	ContextualKey typekey.ContextualTypeKey
	IsAssisted bool
	IsGraphInstance bool
	Decl oracle.Decl
}

// dependencyKeys filters a parameter list down to the contextual keys that
// participate in the dependency graph: "non-assisted
// non-instance parameters' contextual type keys."
func dependencyKeys(params []Parameter) []typekey.ContextualTypeKey {
	var keys []typekey.ContextualTypeKey
	for _, p := range params {
 if p.IsAssisted || p.IsGraphInstance {
 continue
 }
 keys = append(keys, p.ContextualKey)
	}
	return keys
}
