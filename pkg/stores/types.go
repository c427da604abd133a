package stores

import (
	"context"
	"time"
)

// EvaluationCycle records one snapshot evaluation: the provider the snapshot
// came from, the filter applied, and the shape of the graph that was built.
type EvaluationCycle struct {
	ID            string     `json:"id"`
	Provider      string     `json:"provider"`
	Filter        string     `json:"filter"`
	ResourceCount int        `json:"resource_count"`
	EdgeCount     int        `json:"edge_count"`
	LockedCount   int        `json:"locked_count"`
	MatchedCount  int        `json:"matched_count"`
	StartedAt     time.Time  `json:"started_at"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
	Error         *string    `json:"error,omitempty"`
}

// DecisionRecord records one gate decision within a cycle.
type DecisionRecord struct {
	ID        int64     `json:"id"`
	CycleID   string    `json:"cycle_id"`
	Resource  string    `json:"resource"`
	Action    string    `json:"action"`
	Allowed   bool      `json:"allowed"`
	Reason    string    `json:"reason,omitempty"`
	Level     string    `json:"level"`
	DecidedAt time.Time `json:"decided_at"`
}

// Store is the persistence interface for evaluation history.
type Store interface {
	// Init opens the underlying database.
	Init(ctx context.Context) error

	// Migrate applies pending schema migrations.
	Migrate(ctx context.Context) error

	// Close releases the database.
	Close() error

	// CreateCycle inserts a new evaluation cycle.
	CreateCycle(ctx context.Context, cycle *EvaluationCycle) error

	// CompleteCycle marks a cycle finished, recording counts or an error.
	CompleteCycle(ctx context.Context, cycle *EvaluationCycle) error

	// GetCycle fetches a cycle by ID.
	GetCycle(ctx context.Context, id string) (*EvaluationCycle, error)

	// ListCycles returns the most recent cycles, newest first.
	ListCycles(ctx context.Context, limit int) ([]EvaluationCycle, error)

	// RecordDecision inserts a gate decision.
	RecordDecision(ctx context.Context, d *DecisionRecord) error

	// ListDecisions returns the decisions recorded for a cycle.
	ListDecisions(ctx context.Context, cycleID string) ([]DecisionRecord, error)
}
