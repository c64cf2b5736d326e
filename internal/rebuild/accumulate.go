package rebuild

import (
	"github.com/retracehq/retrace/internal/fact"
)

// RetractionPolicy controls what a retraction without a replacing
// assertion does to subsequent snapshots.
type RetractionPolicy int

const (
	// RetractFreeze keeps the attribute's last value in later snapshots.
	// This is the default: a delta only ever sets keys.
	RetractFreeze RetractionPolicy = iota

	// RetractDelete removes the attribute from the snapshot at the
	// retracting transaction and onward.
	RetractDelete
)

// String returns the policy name as used by CLI flags.
func (p RetractionPolicy) String() string {
	switch p {
	case RetractFreeze:
		return "freeze"
	case RetractDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// Accumulate folds an ordered delta sequence (oldest first) into the
// snapshot sequence. Exactly one snapshot per delta:
//
//	snapshot[0] = copy of delta[0]
//	snapshot[i] = snapshot[i-1] overlaid with delta[i]
//
// where every key present in delta[i] wins and every other key of
// snapshot[i-1] carries forward unchanged. This reproduces exact
// point-in-time state even for transactions that touched only a subset
// of attributes.
func Accumulate(deltas []fact.Delta, policy RetractionPolicy) []fact.Snapshot {
	snapshots := make([]fact.Snapshot, 0, len(deltas))

	var prev map[string]fact.Value
	for _, delta := range deltas {
		state := mergeInto(prev, delta.Set)
		if policy == RetractDelete {
			for _, attr := range delta.Cleared {
				delete(state, attr)
			}
		}
		snapshots = append(snapshots, fact.Snapshot{
			TxID:   delta.TxID,
			TxTime: delta.TxTime,
			State:  state,
		})
		prev = state
	}

	return snapshots
}

// mergeInto returns a new map holding base overlaid with overlay.
// Overlay keys win; base keys absent from overlay carry forward.
// Neither input is mutated - each snapshot owns its state map.
func mergeInto(base, overlay map[string]fact.Value) map[string]fact.Value {
	merged := make(map[string]fact.Value, len(base)+len(overlay))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range overlay {
		merged[k] = v
	}
	return merged
}
