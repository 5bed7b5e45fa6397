package metrics

import (
	"context"
	"time"
)

// Metrics represents the current state of the authorization pipeline.
type Metrics struct {
	// DecisionCounts maps "provider:outcome" to the number of decisions
	DecisionCounts map[string]int64 `json:"decision_counts"`

	// DuplicateCount is the number of duplicate deliveries flagged
	DuplicateCount int64 `json:"duplicate_count"`

	// LedgerSize is the number of live deduplication ledger entries
	LedgerSize int64 `json:"ledger_size"`

	// FindingCounts maps discrepancy kind to the number of sweep findings
	FindingCounts map[string]int64 `json:"finding_counts"`

	// Timestamp when metrics were collected
	Timestamp time.Time `json:"timestamp"`
}

// Collector defines the interface for collecting metrics from the pipeline.
type Collector interface {
	// Collect gathers current metrics from the system
	Collect(ctx context.Context) (Metrics, error)

	// GetDecisionCounts returns decision counts per provider and outcome
	GetDecisionCounts(ctx context.Context) (map[string]int64, error)

	// GetDuplicateCount returns the number of duplicates flagged
	GetDuplicateCount(ctx context.Context) (int64, error)

	// GetLedgerSize returns the number of live dedup ledger entries
	GetLedgerSize(ctx context.Context) (int64, error)

	// GetFindingCounts returns sweep finding counts per discrepancy kind
	GetFindingCounts(ctx context.Context) (map[string]int64, error)
}
