// Package schema is the single source of truth for the recognized
// marker/kind/option vocabulary. Each entity kind has one table entry
// describing its marker name, allowed scalar options, and reference
// fields; the loaders, resolver, and validator all dispatch through this
// table rather than branching on kind names.
package schema

import (
	"fmt"
	"strings"

	"github.com/archgraph-dev/archgraph/internal/model"
)

// MentionMarker is the reference-only marker. It creates a stub record for
// an entity that is not otherwise defined.
const MentionMarker = "mention"

// RefField describes one reference-carrying option of a kind.
type RefField struct {
	// Name is the option name carrying the reference(s).
	Name string
	// Target is the expected kind of the referenced entity. Empty for
	// qualified fields, which name their own target kind in the value.
	Target model.Kind
	// Required references that fail to resolve are Errors; optional ones
	// are Warnings (elaboration).
	Required bool
	// List fields accept a list of ids.
	List bool
	// Qualified fields take "marker:id" values (Relationship endpoints).
	Qualified bool
	// Composition edges participate in the cycle check.
	Composition bool
}

// KindSpec is the schema for one entity kind.
type KindSpec struct {
	Kind    model.Kind
	Marker  string
	Options []string
	Refs    []RefField
}

// RefField looks up a reference field by option name.
func (s KindSpec) RefField(name string) (RefField, bool) {
	for _, f := range s.Refs {
		if f.Name == name {
			return f, true
		}
	}
	return RefField{}, false
}

// HasOption reports whether the named scalar option is allowed on this kind.
func (s KindSpec) HasOption(name string) bool {
	for _, o := range s.Options {
		if o == name {
			return true
		}
	}
	return false
}

// table is the closed vocabulary. Adding a kind is a new entry here plus a
// model.Kind constant; nothing else in the pipeline changes.
var table = []KindSpec{
	{
		Kind:    model.KindPersona,
		Marker:  "persona",
		Options: []string{"goals", "description", "body"},
	},
	{
		Kind:    model.KindJourney,
		Marker:  "journey",
		Options: []string{"description", "body"},
		Refs: []RefField{
			{Name: "persona", Target: model.KindPersona},
			{Name: "epics", Target: model.KindEpic, List: true, Composition: true},
		},
	},
	{
		Kind:    model.KindEpic,
		Marker:  "epic",
		Options: []string{"description", "body"},
		Refs: []RefField{
			{Name: "epics", Target: model.KindEpic, List: true, Composition: true},
			{Name: "stories", Target: model.KindStory, List: true, Composition: true},
		},
	},
	{
		Kind:    model.KindStory,
		Marker:  "story",
		Options: []string{"description", "body", "scenario"},
		Refs: []RefField{
			{Name: "persona", Target: model.KindPersona, Required: true},
			{Name: "app", Target: model.KindApplication, Required: true},
			{Name: "accelerators", Target: model.KindAccelerator, List: true},
			{Name: "integration", Target: model.KindIntegration},
		},
	},
	{
		Kind:    model.KindApplication,
		Marker:  "application",
		Options: []string{"name", "interface", "technology", "description", "body"},
		Refs: []RefField{
			{Name: "accelerators", Target: model.KindAccelerator, List: true},
		},
	},
	{
		Kind:    model.KindAccelerator,
		Marker:  "accelerator",
		Options: []string{"description", "layers", "body"},
	},
	{
		Kind:    model.KindIntegration,
		Marker:  "integration",
		Options: []string{"description", "technology", "body"},
		Refs: []RefField{
			{Name: "applications", Target: model.KindApplication, List: true},
		},
	},
	{
		Kind:    model.KindSoftwareSystem,
		Marker:  "software_system",
		Options: []string{"description", "technology", "body"},
	},
	{
		Kind:    model.KindContainer,
		Marker:  "container",
		Options: []string{"description", "technology", "body"},
		Refs: []RefField{
			{Name: "system", Target: model.KindSoftwareSystem, Required: true},
		},
	},
	{
		Kind:    model.KindComponent,
		Marker:  "component",
		Options: []string{"description", "technology", "body"},
		Refs: []RefField{
			{Name: "container", Target: model.KindContainer, Required: true},
		},
	},
	{
		Kind:    model.KindRelationship,
		Marker:  "relationship",
		Options: []string{"description", "technology", "body"},
		Refs: []RefField{
			{Name: "from", Required: true, Qualified: true},
			{Name: "to", Required: true, Qualified: true},
		},
	},
	{
		Kind:    model.KindDeploymentNode,
		Marker:  "deployment_node",
		Options: []string{"description", "technology", "body"},
		Refs: []RefField{
			{Name: "applications", Target: model.KindApplication, List: true},
			{Name: "children", Target: model.KindDeploymentNode, List: true},
		},
	},
}

var (
	byKind   = make(map[model.Kind]KindSpec, len(table))
	byMarker = make(map[string]KindSpec, len(table))
)

func init() {
	for _, spec := range table {
		byKind[spec.Kind] = spec
		byMarker[spec.Marker] = spec
	}
}

// ForKind returns the schema entry for a kind.
func ForKind(k model.Kind) (KindSpec, bool) {
	s, ok := byKind[k]
	return s, ok
}

// ForMarker returns the schema entry for a marker name. Unknown markers
// are not errors; the declaration loader skips them.
func ForMarker(name string) (KindSpec, bool) {
	s, ok := byMarker[name]
	return s, ok
}

// All returns the table in canonical order.
func All() []KindSpec {
	out := make([]KindSpec, len(table))
	copy(out, table)
	return out
}

// ParseQualifiedRef parses a "marker:id" reference value, as used by
// Relationship endpoints.
func ParseQualifiedRef(value string) (model.Ref, error) {
	marker, id, ok := strings.Cut(value, ":")
	if !ok || marker == "" || id == "" {
		return model.Ref{}, fmt.Errorf("malformed qualified reference %q, want \"kind:id\"", value)
	}
	spec, ok := byMarker[marker]
	if !ok {
		return model.Ref{}, fmt.Errorf("unknown kind %q in qualified reference %q", marker, value)
	}
	return model.Ref{Kind: spec.Kind, ID: id}, nil
}

// ReservedDirs is the fixed set of top-level directory names that are
// never classified as Accelerator entities.
var ReservedDirs = map[string]struct{}{
	"core":         {},
	"contrib":      {},
	"applications": {},
	"docs":         {},
	"deployment":   {},
}

// IsReservedDir reports whether a top-level directory name is excluded
// from accelerator discovery, either by the reserved set or by the
// private-naming prefixes.
func IsReservedDir(name string) bool {
	if _, ok := ReservedDirs[name]; ok {
		return true
	}
	return strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_")
}
