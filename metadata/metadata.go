// Package metadata implements the persisted-metadata format of: a
// small JSON payload attached to each generated graph class so downstream
// compilations can rehydrate the graph without re-parsing. It is grounded
// grounded in a config-persistence pattern (a simple JSON sidecar file),
// generalized from "remembered scan config" into "remembered graph shape."
package metadata

import (
	"encoding/json"
	"sort"
)

// GraphMetadata is the per-graph payload lists: isGraph,
// providerFactoryClasses (sorted), accessorCallableNames (sorted),
// multibindingAccessorIndices (a bitfield, bit i set iff the i-th accessor
// in sorted order returns a multibinding), includedBindingContainers
// (sorted).
type GraphMetadata struct {
	IsGraph bool `json:"isGraph"`
	ProviderFactoryClasses []string `json:"providerFactoryClasses"`
	AccessorCallableNames []string `json:"accessorCallableNames"`
	MultibindingAccessorIndices int64 `json:"multibindingAccessorIndices"`
	IncludedBindingContainers []string `json:"includedBindingContainers"`
}

// New builds a GraphMetadata, sorting providerFactoryClasses and
// includedBindingContainers, and deriving accessorCallableNames plus the
// multibinding bitfield from accessors in the SAME sorted order the
// bitfield indexes against.
func New(isGraph bool, providerFactoryClasses []string, accessors []Accessor, includedBindingContainers []string) GraphMetadata {
	sortedAccessors := append([]Accessor(nil), accessors...)
	sort.Slice(sortedAccessors, func(i, j int) bool { return sortedAccessors[i].Name < sortedAccessors[j].Name })

	names := make([]string, len(sortedAccessors))
	var bitfield int64
	for i, a := range sortedAccessors {
 names[i] = a.Name
 if a.IsMultibinding {
 bitfield |= 1 << uint(i)
 }
	}

	providers := append([]string(nil), providerFactoryClasses...)
	sort.Strings(providers)
	containers := append([]string(nil), includedBindingContainers...)
	sort.Strings(containers)

	return GraphMetadata{
 IsGraph: isGraph,
 ProviderFactoryClasses: providers,
 AccessorCallableNames: names,
 MultibindingAccessorIndices: bitfield,
 IncludedBindingContainers: containers,
	}
}

// Accessor describes one accessor callable, used only to derive the sorted
// name list and the multibinding bitfield; it is not itself persisted.
type Accessor struct {
	Name string
	IsMultibinding bool
}

// AccessorIsMultibinding reports bit i of the bitfield, matching the
// sorted-accessor-name position i occupies in AccessorCallableNames.
func (m GraphMetadata) AccessorIsMultibinding(i int) bool {
	return m.MultibindingAccessorIndices&(1<<uint(i)) != 0
}

// Encode serializes m as the opaque extension payload attached to a graph's
// generated constructor, so a consumer package can read its parent's
// accessor/multibinding metadata without re-deriving it via reflection.
func Encode(m GraphMetadata) ([]byte, error) {
	return json.Marshal(m)
}

// Decode rehydrates a GraphMetadata from its persisted bytes.
func Decode(data []byte) (GraphMetadata, error) {
	var m GraphMetadata
	if err := json.Unmarshal(data, &m); err != nil {
 return GraphMetadata{}, err
	}
	return m, nil
}
