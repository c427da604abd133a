package snapshot

import "github.com/lockwarden/lockwarden/pkg/engine"

// Document is the union of the two snapshot shapes the parser accepts:
//
//   - a flat snapshot: resources with explicit IDs plus an edge list
//   - an ARM-style template: resources identified by type and name, with
//     dependency edges declared inline via dependsOn
//
// A document with any explicit edge or any resource carrying an ID is
// treated as flat; otherwise it is parsed as a template.
type Document struct {
	Resources []DocResource `yaml:"resources" json:"resources" validate:"required,dive"`
	Edges     []DocEdge     `yaml:"edges,omitempty" json:"edges,omitempty" validate:"dive"`
}

// DocResource is one resource record in either shape.
type DocResource struct {
	// ID is the explicit resource ID (flat shape only).
	ID string `yaml:"id,omitempty" json:"id,omitempty"`

	// Type is the provider resource type. Required in both shapes.
	Type string `yaml:"type" json:"type" validate:"required"`

	// Name is the resource name. In the template shape the ID is derived
	// from Type and Name.
	Name string `yaml:"name,omitempty" json:"name,omitempty"`

	// Properties is the provider-defined property bag.
	Properties map[string]interface{} `yaml:"properties,omitempty" json:"properties,omitempty"`

	// DependsOn lists dependency references (template shape only). Entries
	// are either "type/name" paths or resourceId(...) expressions.
	DependsOn []string `yaml:"dependsOn,omitempty" json:"dependsOn,omitempty"`
}

// DocEdge is an explicit dependency edge in the flat shape.
type DocEdge struct {
	From string `yaml:"from" json:"from" validate:"required"`
	To   string `yaml:"to" json:"to" validate:"required"`
}

// Snapshot is the parsed, engine-ready form of a document.
type Snapshot struct {
	Resources []engine.Resource
	Edges     []engine.Edge
}
