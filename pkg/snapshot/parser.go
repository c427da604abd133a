// Package snapshot parses provider resource snapshots into the engine's
// resource and edge collections. It understands both a flat snapshot shape
// (explicit IDs and edges) and ARM-style templates where dependencies are
// declared inline through dependsOn references.
package snapshot

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/lockwarden/lockwarden/pkg/engine"
)

// lockTypes maps provider-specific lock resource types to the canonical
// engine lock type.
var lockTypes = map[string]bool{
	"microsoft.authorization/locks": true,
	"lock": true,
}

// Parse decodes a snapshot document (YAML or JSON; YAML is a superset) into
// engine resources and edges. The output is ready for engine.BuildGraph,
// which performs the structural validation.
func Parse(data []byte) (*Snapshot, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}

	if err := validator.New().Struct(&doc); err != nil {
		return nil, fmt.Errorf("invalid snapshot document: %w", err)
	}

	if isFlat(&doc) {
		return parseFlat(&doc)
	}
	return parseTemplate(&doc)
}

// isFlat reports whether the document uses the flat snapshot shape.
func isFlat(doc *Document) bool {
	if len(doc.Edges) > 0 {
		return true
	}
	for i := range doc.Resources {
		if doc.Resources[i].ID != "" {
			return true
		}
	}
	return false
}

// parseFlat converts a flat snapshot document.
func parseFlat(doc *Document) (*Snapshot, error) {
	snap := &Snapshot{
		Resources: make([]engine.Resource, 0, len(doc.Resources)),
		Edges:     make([]engine.Edge, 0, len(doc.Edges)),
	}

	for i := range doc.Resources {
		dr := &doc.Resources[i]
		if dr.ID == "" {
			return nil, fmt.Errorf("flat snapshot resource %d has no id", i)
		}
		snap.Resources = append(snap.Resources, engine.Resource{
			ID:         dr.ID,
			Type:       normalizeType(dr.Type),
			Name:       dr.Name,
			Properties: dr.Properties,
		})
	}

	for _, e := range doc.Edges {
		snap.Edges = append(snap.Edges, engine.Edge{From: e.From, To: e.To})
	}

	return snap, nil
}

// parseTemplate converts an ARM-style template document. Resource IDs are
// derived as "type/name" and dependsOn references become dependency edges.
func parseTemplate(doc *Document) (*Snapshot, error) {
	snap := &Snapshot{
		Resources: make([]engine.Resource, 0, len(doc.Resources)),
	}

	for i := range doc.Resources {
		dr := &doc.Resources[i]
		if dr.Name == "" {
			return nil, fmt.Errorf("template resource %d (%s) has no name", i, dr.Type)
		}

		id := templateResourceID(dr.Type, dr.Name)
		snap.Resources = append(snap.Resources, engine.Resource{
			ID:         id,
			Type:       normalizeType(dr.Type),
			Name:       dr.Name,
			Properties: dr.Properties,
		})

		for _, ref := range dr.DependsOn {
			target, err := resolveReference(ref)
			if err != nil {
				return nil, fmt.Errorf("resource %s: %w", id, err)
			}
			snap.Edges = append(snap.Edges, engine.Edge{From: id, To: target})
		}
	}

	return snap, nil
}

// templateResourceID derives the graph ID for a template resource.
func templateResourceID(resourceType, name string) string {
	return resourceType + "/" + name
}

// normalizeType maps provider lock types to engine.TypeLock and leaves every
// other type untouched.
func normalizeType(t string) string {
	if lockTypes[strings.ToLower(t)] {
		return engine.TypeLock
	}
	return t
}

// resolveReference resolves a dependsOn entry to a resource ID. Supported
// forms are the direct "type/name" path and the bracketed
// "[resourceId('type', 'name')]" template expression.
func resolveReference(ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", fmt.Errorf("empty dependsOn reference")
	}

	if strings.HasPrefix(ref, "[") && strings.HasSuffix(ref, "]") {
		return resolveResourceIDExpr(ref[1 : len(ref)-1])
	}
	return ref, nil
}

// resolveResourceIDExpr evaluates a resourceId('type', 'name', ...) template
// expression by joining its arguments into a path.
func resolveResourceIDExpr(expr string) (string, error) {
	expr = strings.TrimSpace(expr)
	const fn = "resourceId("
	if !strings.HasPrefix(expr, fn) || !strings.HasSuffix(expr, ")") {
		return "", fmt.Errorf("unsupported dependsOn expression: %s", expr)
	}

	inner := expr[len(fn) : len(expr)-1]
	parts := strings.Split(inner, ",")
	segments := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		p = strings.Trim(p, "'\"")
		if p == "" {
			return "", fmt.Errorf("empty argument in resourceId expression: %s", expr)
		}
		segments = append(segments, p)
	}
	if len(segments) < 2 {
		return "", fmt.Errorf("resourceId expression needs a type and a name: %s", expr)
	}

	return strings.Join(segments, "/"), nil
}
