package engine

import (
	"fmt"
	"strings"
)

// TypeLock is the canonical resource type for management locks. Provider
// adapters normalize provider-specific lock types (for example
// "Microsoft.Authorization/locks") to this value before graph construction.
const TypeLock = "lock"

// PropLockLevel is the property key under which a lock resource declares its
// level.
const PropLockLevel = "level"

// LockLevel is the protection level a lock imposes on its target resource.
// Levels form a total order: None < ReadOnly < CanNotDelete.
type LockLevel int

const (
	// LockNone means no lock affects the resource.
	LockNone LockLevel = iota

	// LockReadOnly denies all mutating operations on the resource.
	LockReadOnly

	// LockCanNotDelete denies deletion but permits updates.
	LockCanNotDelete
)

// String returns the wire representation of the lock level, matching the
// level strings used by provider lock resources.
func (l LockLevel) String() string {
	switch l {
	case LockReadOnly:
		return "ReadOnly"
	case LockCanNotDelete:
		return "CanNotDelete"
	default:
		return "None"
	}
}

// ParseLockLevel parses a wire-format lock level. Matching is
// case-insensitive; an empty string parses as LockNone.
func ParseLockLevel(s string) (LockLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return LockNone, nil
	case "readonly":
		return LockReadOnly, nil
	case "cannotdelete":
		return LockCanNotDelete, nil
	default:
		return LockNone, fmt.Errorf("unknown lock level: %q", s)
	}
}

// MaxLockLevel returns the stronger of two lock levels. Max is commutative
// and associative, so reducing a set of levels with it is order independent.
func MaxLockLevel(a, b LockLevel) LockLevel {
	if a > b {
		return a
	}
	return b
}

// Action is a proposed operation against a resource, gated by the ActionGate
// before any provider call is issued.
type Action string

const (
	// ActionRead reads resource state. Never blocked by a lock.
	ActionRead Action = "read"

	// ActionWrite mutates resource state in place.
	ActionWrite Action = "write"

	// ActionUpdate is an alias mutation used by declarative provisioners;
	// gated identically to ActionWrite.
	ActionUpdate Action = "update"

	// ActionDelete removes the resource.
	ActionDelete Action = "delete"
)

// ParseAction parses a wire-format action name. Matching is case-insensitive.
func ParseAction(s string) (Action, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "read":
		return ActionRead, nil
	case "write":
		return ActionWrite, nil
	case "update":
		return ActionUpdate, nil
	case "delete":
		return ActionDelete, nil
	default:
		return "", fmt.Errorf("unknown action: %q", s)
	}
}

// Mutating reports whether the action changes resource state.
func (a Action) Mutating() bool {
	switch a {
	case ActionWrite, ActionUpdate, ActionDelete:
		return true
	default:
		return false
	}
}

// Resource is a single cloud resource in a snapshot. Properties is an opaque
// provider-defined bag; the engine only reads PropLockLevel from resources of
// TypeLock.
type Resource struct {
	// ID is the unique identifier within a graph.
	ID string `json:"id"`

	// Type is the normalized resource type (e.g. "disk", "lock").
	Type string `json:"type"`

	// Name is the human-readable name, if the provider supplies one.
	Name string `json:"name,omitempty"`

	// Properties is the provider-defined property bag.
	Properties map[string]interface{} `json:"properties,omitempty"`
}

// LockLevel returns the lock level a lock-type resource declares, or LockNone
// when no level property is present.
func (r *Resource) LockLevel() (LockLevel, error) {
	v, ok := r.Properties[PropLockLevel]
	if !ok {
		return LockNone, nil
	}
	s, ok := v.(string)
	if !ok {
		return LockNone, fmt.Errorf("resource %s: property %q is not a string", r.ID, PropLockLevel)
	}
	return ParseLockLevel(s)
}

// Edge is a directed dependency edge: From depends on To. In lock terms a
// lock resource depends on the resource it protects.
type Edge struct {
	// From is the dependent resource ID.
	From string `json:"from"`

	// To is the dependency resource ID.
	To string `json:"to"`
}
