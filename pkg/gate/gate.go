// Package gate implements the enforcement point that authorizes or denies a
// proposed mutating action against a locked resource. Callers must consult
// the gate before issuing any mutating provider call; the gate only renders
// the decision and never performs the action itself.
package gate

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/lockwarden/lockwarden/pkg/engine"
)

// Decision is the outcome of an authorization check.
type Decision struct {
	// Allowed indicates whether the action may proceed.
	Allowed bool `json:"allowed"`

	// Reason explains a denial. Empty when the action is allowed.
	Reason string `json:"reason,omitempty"`

	// Resource is the resource the decision applies to.
	Resource string `json:"resource"`

	// Action is the proposed action.
	Action engine.Action `json:"action"`

	// Level is the lock level in effect for the resource.
	Level engine.LockLevel `json:"level"`
}

// Gate renders allow/deny decisions from a derived lock index. A gate is
// stateless apart from its logger and may be shared across goroutines.
type Gate struct {
	logger zerolog.Logger
}

// New creates an action gate.
func New(logger zerolog.Logger) *Gate {
	return &Gate{
		logger: logger.With().Str("component", "action-gate").Logger(),
	}
}

// Authorize decides whether the proposed action on the resource is permitted
// under the lock index. The policy is:
//
//   - delete is denied at CanNotDelete
//   - write and update are denied at ReadOnly and CanNotDelete
//   - every other (action, level) combination is allowed
//
// It fails with an unknown-resource error when the resource ID is absent from
// the graph the index was derived from.
func (g *Gate) Authorize(resourceID string, action engine.Action, idx *engine.LockIndex) (Decision, error) {
	level, ok := idx.Level(resourceID)
	if !ok {
		return Decision{}, engine.NewUnknownResourceError(resourceID).
			WithOperation(string(action))
	}

	d := Decision{
		Allowed:  true,
		Resource: resourceID,
		Action:   action,
		Level:    level,
	}

	switch action {
	case engine.ActionDelete:
		if level == engine.LockCanNotDelete {
			d.Allowed = false
			d.Reason = fmt.Sprintf("resource is protected by a %s lock", level)
		}
	case engine.ActionWrite, engine.ActionUpdate:
		if level >= engine.LockReadOnly {
			d.Allowed = false
			d.Reason = fmt.Sprintf("resource is protected by a %s lock", level)
		}
	}

	g.logger.Debug().
		Str("resource", resourceID).
		Str("action", string(action)).
		Str("level", level.String()).
		Bool("allowed", d.Allowed).
		Msg("Authorization decision")

	return d, nil
}
