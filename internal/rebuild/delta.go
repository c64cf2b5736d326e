package rebuild

import (
	"sort"

	"github.com/google/uuid"
	"github.com/retracehq/retrace/internal/fact"
)

// ResolveDelta collapses one transaction group into its effective delta:
// one (attribute, value) entry per attribute asserted in the group.
//
// Retraction facts exist to identify which attributes changed; each one
// is expected to pair with the assertion that replaced the value. A
// retraction with no assertion for the same attribute means the value was
// removed outright - the attribute lands in Delta.Cleared and the
// accumulator's retraction policy decides what that does to snapshots.
//
// A group asserting two values for one attribute violates the log's
// single-assertion invariant and returns MALFORMED_FACT_GROUP; picking a
// winner silently would mask store corruption.
func ResolveDelta(entity uuid.UUID, group TxGroup) (fact.Delta, error) {
	delta := fact.Delta{
		TxID:   group.TxID,
		TxTime: group.TxTime,
		Set:    make(map[string]fact.Value),
	}

	retracted := make(map[string]bool)
	for _, rec := range group.Records {
		if rec.Added {
			if _, dup := delta.Set[rec.Attribute]; dup {
				return fact.Delta{}, NewMalformedFactGroupError(entity, group.TxID, rec.Attribute)
			}
			delta.Set[rec.Attribute] = rec.Value
			continue
		}
		retracted[rec.Attribute] = true
	}

	for attr := range retracted {
		if _, replaced := delta.Set[attr]; !replaced {
			delta.Cleared = append(delta.Cleared, attr)
		}
	}
	sort.Strings(delta.Cleared)

	return delta, nil
}
