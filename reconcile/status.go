package reconcile

/* Transaction status vocabulary shared with the marketplace's booking and
 * payment flows. Corrections only ever move a transaction forward through
 * this lifecycle; anything that would move it backwards (or sideways in a
 * way the sweep cannot judge) is alerted instead.
 */

const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusPaid       = "paid"
	StatusFailed     = "failed"
	StatusRefunded   = "refunded"
)

// statusRank orders the lifecycle. Terminal-ish states share ranks on
// purpose: paid->failed is not a transition the sweep may apply.
var statusRank = map[string]int{
	StatusPending:    1,
	StatusProcessing: 2,
	StatusPaid:       3,
	StatusFailed:     3,
	StatusRefunded:   4,
}

// CanTransition reports whether re-applying the upstream status locally is a
// known forward transition, i.e. safe for an idempotent corrective write.
func CanTransition(from, to string) bool {
	fromRank, ok := statusRank[from]
	if !ok {
		return false
	}
	toRank, ok := statusRank[to]
	if !ok {
		return false
	}
	if fromRank == toRank {
		return false
	}
	return toRank > fromRank
}
