package reconcile

import (
	"fmt"
	"time"

	"github.com/lancerhub/webhook-guard/authz"
)

/* Finding represents one discrepancy between the local system of record and
 * the provider's source of truth. Findings are append-only: created at sweep
 * time, persisted for audit, never mutated afterwards.
 */

// Kind classifies the discrepancy
type Kind int

const (
	MissingLocally Kind = iota + 1
	MissingUpstream
	StatusDivergence
	AmountDivergence
)

// String returns the string representation of the kind
func (k Kind) String() string {
	switch k {
	case MissingLocally:
		return "missing-locally"
	case MissingUpstream:
		return "missing-upstream"
	case StatusDivergence:
		return "status-divergence"
	case AmountDivergence:
		return "amount-divergence"
	default:
		return "unknown"
	}
}

// NewKind creates a Kind from a string
func NewKind(str string) Kind {
	switch str {
	case "missing-locally":
		return MissingLocally
	case "missing-upstream":
		return MissingUpstream
	case "status-divergence":
		return StatusDivergence
	case "amount-divergence":
		return AmountDivergence
	default:
		return 0
	}
}

// Validate checks if the kind is valid
func (k Kind) Validate() error {
	if k < MissingLocally || k > AmountDivergence {
		return fmt.Errorf("invalid discrepancy kind: %d", k)
	}
	return nil
}

// Severity grades how urgently a finding needs human attention
type Severity int

const (
	Info Severity = iota + 1
	Warning
	Critical
)

// String returns the string representation of the severity
func (s Severity) String() string {
	switch s {
	case Info:
		return "info"
	case Warning:
		return "warning"
	case Critical:
		return "critical"
	default:
		return "unknown"
	}
}

// NewSeverity creates a Severity from a string
func NewSeverity(str string) Severity {
	switch str {
	case "info":
		return Info
	case "warning":
		return Warning
	case "critical":
		return Critical
	default:
		return 0
	}
}

// Action is what the sweep did (or recommends) for a finding
type Action int

const (
	Corrected Action = iota + 1
	Alerted
	Skipped
)

// String returns the string representation of the action
func (a Action) String() string {
	switch a {
	case Corrected:
		return "corrected"
	case Alerted:
		return "alerted"
	case Skipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// Finding is one appended audit record produced by the sweep
type Finding struct {
	ID             string
	Kind           Kind
	Severity       Severity
	Provider       authz.Provider
	ObjectID       string // provider-side object id (e.g. payment intent)
	EventID        string // provider-side event id backing the observation
	LocalID        string // local transaction id, when one exists
	LocalStatus    string
	UpstreamStatus string
	LocalAmount    int64
	UpstreamAmount int64
	Currency       string
	Action         Action
	Detail         string
	DetectedAt     time.Time
}
