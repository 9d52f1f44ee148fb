// Package parentctx implements the parent context / extension stack:
// tracks, for a chain of nested extended graphs, which keys and scopes are
// available from ancestors and which of them a descendant actually used.
// It is grounded in an include-graph
// traversal over included packages, generalized from "merge the included package's
// exported providers" into "a stack of parent levels with retroactive key
// introduction and usage marking."
package parentctx

import (
	"github.com/diwire/core/oracle"
	"github.com/diwire/core/typekey"
)

// Level is one pushed parent graph: "Level state:
// {node, deltaProvided, usedKeys}".
type Level struct {
	Node string // the ancestor graph's display name
	DeltaProvided map[string]typekey.Key
	Scopes []oracle.ClassID
	UsedKeys map[string]bool
}

// Stack is the parent-context stack. Global state mirrors:
// available set, keyIntroStack (per-key deepest-introducing level index),
// parentScopes union, pending set for the next push.
type Stack struct {
	levels []*Level
	available map[string]typekey.Key
	keyIntro map[string]int // key render -> deepest introducing level index
	parentScopes map[oracle.ClassID]bool
	pending map[string]typekey.Key
}

// New creates an empty Stack.
func New() *Stack {
	return &Stack{
 available: make(map[string]typekey.Key),
 keyIntro: make(map[string]int),
 parentScopes: make(map[oracle.ClassID]bool),
 pending: make(map[string]typekey.Key),
	}
}

// Add stages a key for introduction at the next pushed level.
func (s *Stack) Add(key typekey.Key) { s.pending[key.String()] = key }

// AddAll stages multiple keys.
func (s *Stack) AddAll(keys []typekey.Key) {
	for _, k := range keys {
 s.Add(k)
	}
}

// PushParentGraph appends a level for node, consuming pending keys and
// introducing each at this new level, accumulating scopes into
// parentScopes.
func (s *Stack) PushParentGraph(node string, scopes []oracle.ClassID) {
	lvl := &Level{
 Node: node,
 DeltaProvided: s.pending,
 Scopes: scopes,
 UsedKeys: make(map[string]bool),
	}
	levelIdx := len(s.levels)
	for str, key := range lvl.DeltaProvided {
 s.available[str] = key
 s.keyIntro[str] = levelIdx
	}
	s.pending = make(map[string]typekey.Key)
	for _, sc := range scopes {
 s.parentScopes[sc] = true
	}
	s.levels = append(s.levels, lvl)
}

// PopParentGraph reverses the most recent push: removes its level and
// re-derives available (and parentScopes) from the remaining levels, per
//
func (s *Stack) PopParentGraph() {
	if len(s.levels) == 0 {
 return
	}
	s.levels = s.levels[:len(s.levels)-1]
	s.rebuild()
}

func (s *Stack) rebuild() {
	s.available = make(map[string]typekey.Key)
	s.keyIntro = make(map[string]int)
	s.parentScopes = make(map[oracle.ClassID]bool)
	for idx, lvl := range s.levels {
 for str, key := range lvl.DeltaProvided {
 s.available[str] = key
 s.keyIntro[str] = idx
 }
 for _, sc := range lvl.Scopes {
 s.parentScopes[sc] = true
 }
	}
}

// Mark records a child's use of key: propagate "used" from the deepest
// introducing level upward. If key was never introduced but its scope
// matches some level's declared scopes, introduce it retroactively at the
// deepest matching level and mark it used there.
func (s *Stack) Mark(key typekey.Key, scope oracle.ClassID, hasScope bool) {
	str := key.String()
	idx, ok := s.keyIntro[str]
	if !ok {
 if !hasScope {
 return
 }
 for i := len(s.levels) - 1; i >= 0; i-- {
 if !levelHasScope(s.levels[i], scope) {
 continue
 }
 s.available[str] = key
 s.keyIntro[str] = i
 idx, ok = i, true
 break
 }
 if !ok {
 return
 }
	}
	for i := idx; i < len(s.levels); i++ {
 s.levels[i].UsedKeys[str] = true
	}
}

func levelHasScope(lvl *Level, scope oracle.ClassID) bool {
	for _, sc := range lvl.Scopes {
 if sc == scope {
 return true
 }
	}
	return false
}

// Contains reports whether key is available from some ancestor.
func (s *Stack) Contains(key typekey.Key) bool {
	_, ok := s.available[key.String()]
	return ok
}

// ContainsScope reports whether scope was declared by some ancestor.
func (s *Stack) ContainsScope(scope oracle.ClassID) bool { return s.parentScopes[scope] }

// CurrentParentGraph returns the nearest (topmost) ancestor's display name.
func (s *Stack) CurrentParentGraph() (string, bool) {
	if len(s.levels) == 0 {
 return "", false
	}
	return s.levels[len(s.levels)-1].Node, true
}

// AvailableKeys returns every key introduced by some ancestor.
func (s *Stack) AvailableKeys() []typekey.Key {
	out := make([]typekey.Key, 0, len(s.available))
	for _, k := range s.available {
 out = append(out, k)
	}
	return out
}

// UsedKeys returns every key string a descendant actually marked used,
// across all levels.
func (s *Stack) UsedKeys() []string {
	seen := make(map[string]bool)
	var out []string
	for _, lvl := range s.levels {
 for str := range lvl.UsedKeys {
 if !seen[str] {
 seen[str] = true
 out = append(out, str)
 }
 }
	}
	return out
}
