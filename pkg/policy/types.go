package policy

import (
	"context"
	"time"

	"github.com/lockwarden/lockwarden/pkg/engine"
)

// FilterInput is the data a filter predicate sees for one resource.
type FilterInput struct {
	// Resource is the resource under consideration.
	Resource *engine.Resource

	// Graph is the full graph, for filters that inspect neighbours.
	Graph *engine.ResourceGraph

	// Index is the derived lock index.
	Index *engine.LockIndex
}

// FilterFunc reports whether a resource matches the filter.
type FilterFunc func(ctx context.Context, in *FilterInput) (bool, error)

// FilterFactory builds a filter from its argument. Filters without a
// parameter receive an empty argument string.
type FilterFactory func(arg string) (FilterFunc, error)

// Policy is one declarative policy document entry: a named filter over a
// resource type, optionally backed by a Rego body, with the actions the
// caller intends to dispatch against the matched set.
type Policy struct {
	// Name uniquely identifies the policy.
	Name string `yaml:"name" json:"name" validate:"required"`

	// Resource restricts the policy to one resource type. Empty means all
	// non-lock resources.
	Resource string `yaml:"resource,omitempty" json:"resource,omitempty"`

	// Description is a human-readable summary.
	Description string `yaml:"description,omitempty" json:"description,omitempty"`

	// Filter names a registered filter to select resources with.
	Filter string `yaml:"filter,omitempty" json:"filter,omitempty"`

	// Rego is an inline Rego filter body. When set the policy registers a
	// filter named "rego:<name>".
	Rego string `yaml:"rego,omitempty" json:"rego,omitempty"`

	// Actions lists the actions the caller intends against matched
	// resources. Each must pass the action gate before dispatch.
	Actions []string `yaml:"actions,omitempty" json:"actions,omitempty"`

	// Disabled excludes the policy from evaluation without removing it.
	Disabled bool `yaml:"disabled,omitempty" json:"disabled,omitempty"`

	// Source is the file the policy was loaded from.
	Source string `yaml:"-" json:"source,omitempty"`
}

// File is the top-level shape of a policy document.
type File struct {
	Policies []Policy `yaml:"policies" validate:"required,dive"`
}

// Result is the outcome of evaluating one filter against a snapshot.
type Result struct {
	// Filter is the filter that was evaluated.
	Filter string `json:"filter"`

	// Matched holds the matching resources, sorted by ID.
	Matched []*engine.Resource `json:"matched"`

	// Considered is the number of resources the filter was applied to.
	Considered int `json:"considered"`

	// EvaluatedAt is when the evaluation ran.
	EvaluatedAt time.Time `json:"evaluated_at"`

	// Duration is how long the evaluation took.
	Duration time.Duration `json:"duration"`
}

// MatchedIDs returns the IDs of the matched resources.
func (r *Result) MatchedIDs() []string {
	ids := make([]string, 0, len(r.Matched))
	for _, res := range r.Matched {
		ids = append(ids, res.ID)
	}
	return ids
}
