// Package stack implements the binding resolution trace: a push/pop
// container recording the human-readable path taken while resolving a
// binding's dependencies, used purely for diagnostics — it never
// participates in binding equality.
package stack

import (
	"fmt"
	"strings"

	"github.com/diwire/core/oracle"
	"github.com/diwire/core/typekey"
)

// Usage labels why an entry was pushed, mirroring the entry factories of
//
type Usage string

// Usage kinds produced by the entry factories below.
const (
	UsageRequested Usage = "requested"
	UsageInjected Usage = "injected at"
	UsageProvided Usage = "provided at"
	UsageContributedToMulti Usage = "contributed to multibinding"
	UsageSimpleTypeRef Usage = "type reference"
)

// Entry is one frame of the trace: "an ordered trace of
// {contextualTypeKey, usage, context, declaration, displayTypeKey,
// isSynthetic} frames".
type Entry struct {
	ContextualKey typekey.ContextualTypeKey
	Usage Usage
	Context string
	Declaration oracle.Decl
	DisplayKey string
	IsSynthetic bool
	IsDeferrable bool
}

func displayKey(ctk typekey.ContextualTypeKey) string {
	if ctk.Key.Canonical == nil {
 return ctk.Render()
	}
	return ctk.Render()
}

// RequestedAt builds the entry factory for a top-level accessor/injector
// request.
func RequestedAt(ctk typekey.ContextualTypeKey, context string) Entry {
	return Entry{ContextualKey: ctk, Usage: UsageRequested, Context: context, DisplayKey: displayKey(ctk), IsDeferrable: ctk.IsDeferrable()}
}

// InjectedAt builds the entry factory for a constructor/member injection
// site.
func InjectedAt(ctk typekey.ContextualTypeKey, context string, decl oracle.Decl) Entry {
	return Entry{ContextualKey: ctk, Usage: UsageInjected, Context: context, Declaration: decl, DisplayKey: displayKey(ctk), IsDeferrable: ctk.IsDeferrable()}
}

// ProvidedAt builds the entry factory for an @Provides parameter site.
func ProvidedAt(ctk typekey.ContextualTypeKey, context string, decl oracle.Decl) Entry {
	return Entry{ContextualKey: ctk, Usage: UsageProvided, Context: context, Declaration: decl, DisplayKey: displayKey(ctk), IsDeferrable: ctk.IsDeferrable()}
}

// ContributedToMultibinding builds the entry factory for a multibinding
// contribution edge.
func ContributedToMultibinding(ctk typekey.ContextualTypeKey, context string) Entry {
	return Entry{ContextualKey: ctk, Usage: UsageContributedToMulti, Context: context, DisplayKey: displayKey(ctk), IsDeferrable: ctk.IsDeferrable()}
}

// SimpleTypeRef builds a synthetic entry used when no richer context is
// available (e.g. similarity-hint search).
func SimpleTypeRef(ctk typekey.ContextualTypeKey) Entry {
	return Entry{ContextualKey: ctk, Usage: UsageSimpleTypeRef, DisplayKey: displayKey(ctk), IsSynthetic: true, IsDeferrable: ctk.IsDeferrable()}
}

// Stack is an ordered push/pop container of Entry frames, keyed to the
// owning graph for the footer rendered alongside its table.
type Stack struct {
	GraphName string
	entries []Entry
}

// New creates a Stack for the named owning graph.
func New(graphName string) *Stack {
	return &Stack{GraphName: graphName}
}

// Push appends an entry.
func (s *Stack) Push(e Entry) { s.entries = append(s.entries, e) }

// Pop removes and returns the most recent entry, or ok=false if empty.
func (s *Stack) Pop() (Entry, bool) {
	if len(s.entries) == 0 {
 return Entry{}, false
	}
	last := s.entries[len(s.entries)-1]
	s.entries = s.entries[:len(s.entries)-1]
	return last, true
}

// Len reports the current depth.
func (s *Stack) Len() int { return len(s.entries) }

// Entries returns a snapshot of the current stack, root first.
func (s *Stack) Entries() []Entry {
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// EntryFor returns the most recent entry whose key equals the given
// contextual key, if any, scanning from the top of the stack down.
func (s *Stack) EntryFor(ctk typekey.ContextualTypeKey) (Entry, bool) {
	for i := len(s.entries) - 1; i >= 0; i-- {
 if s.entries[i].ContextualKey.Key.Equal(ctk.Key) {
 return s.entries[i], true
 }
	}
	return Entry{}, false
}

// EntriesSince returns the slice of entries from (and including) the most
// recent occurrence of key to the top of the stack — the cycle segment,
// when key reappears.
func (s *Stack) EntriesSince(ctk typekey.ContextualTypeKey) []Entry {
	for i := len(s.entries) - 1; i >= 0; i-- {
 if s.entries[i].ContextualKey.Key.Equal(ctk.Key) {
 out := make([]Entry, len(s.entries)-i)
 copy(out, s.entries[i:])
 return out
 }
	}
	return nil
}

// LastEntryOrGraph yields the declaration of the most recent entry, or the
// graph name if the stack is empty, used as the diagnostic report site.
func (s *Stack) LastEntryOrGraph() string {
	if len(s.entries) == 0 {
 return s.GraphName
	}
	last := s.entries[len(s.entries)-1]
	if last.Declaration != nil {
 return last.Declaration.String()
	}
	return s.GraphName
}

// Render produces the table described in: columns
// "Index | Display Key | Usage | Key | Context | Deferrable?", with a
// graph-name footer. maxRows truncates with a "..." ellipsis when non-zero
// and the stack is deeper.
func (s *Stack) Render(maxRows int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%-5s %-30s %-28s %-30s %-20s %s\n", "Index", "Display Key", "Usage", "Key", "Context", "Deferrable?")

	entries := s.entries
	truncated := false
	if maxRows > 0 && len(entries) > maxRows {
 entries = entries[len(entries)-maxRows:]
 truncated = true
	}
	if truncated {
 b.WriteString("...\n")
	}
	for i, e := range entries {
 fmt.Fprintf(&b, "%-5d %-30s %-28s %-30s %-20s %v\n",
 i, e.DisplayKey, e.Usage, e.ContextualKey.Key.String(), e.Context, e.IsDeferrable)
	}
	fmt.Fprintf(&b, " graph: %s\n", s.GraphName)
	return b.String()
}
