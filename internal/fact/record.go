package fact

import (
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"
)

// Record is one row of the change log for a single entity: an assertion
// or retraction of one attribute value, tagged with the transaction that
// wrote it.
//
// Records are immutable and append-only; they are owned by the store.
// A transaction that changes attribute A from old to new is exactly one
// retraction (A, old, Added=false) plus one assertion (A, new, Added=true)
// sharing the same TxID. The very first transaction that introduces A has
// only the assertion.
type Record struct {
	// TxID is the store-issued transaction identifier. Monotonic, so
	// ascending TxID is also chronological order. Records share a TxID
	// iff they were written atomically together.
	TxID int64

	// Entity identifies the entity this fact belongs to.
	Entity uuid.UUID

	// Attribute identifies the entity field, e.g. "order.operator".
	// Normalized to NFC on ingest.
	Attribute string

	// Value is the value asserted or retracted.
	Value Value

	// Added is true for an assertion, false for a retraction.
	Added bool

	// TxTime is the wall-clock commit time supplied by the store.
	// Zero if the store did not record one; carried through unchanged
	// for display and audit, never used for ordering.
	TxTime time.Time
}

// Delta is the effective change produced by one transaction.
type Delta struct {
	// TxID identifies the transaction this delta came from.
	TxID int64

	// TxTime is the transaction's commit time, if known.
	TxTime time.Time

	// Set maps attribute to the value asserted in this transaction.
	// Retractions that paired with an assertion are consumed during
	// resolution and do not appear here.
	Set map[string]Value

	// Cleared lists attributes retracted with no replacing assertion in
	// the same transaction. Whether a cleared attribute disappears from
	// later snapshots is a pipeline policy, not a property of the delta.
	Cleared []string
}

// Snapshot is the entity's complete known state immediately after one
// transaction. Snapshots form an ordered sequence indexed by transaction
// order; each is the previous one overlaid with that transaction's delta.
type Snapshot struct {
	// TxID is the transaction this snapshot is "as of".
	TxID int64

	// TxTime is the transaction's commit time, if known.
	TxTime time.Time

	// State maps attribute to its value as of TxID.
	State map[string]Value
}

// NormalizeAttr returns the attribute name in NFC form. Attributes are
// compared byte-wise throughout, so every ingest path normalizes first.
func NormalizeAttr(attr string) string {
	return norm.NFC.String(attr)
}

// CloneState returns a shallow copy of an attribute map. Values are
// immutable, so sharing them between snapshots is safe.
func CloneState(state map[string]Value) map[string]Value {
	out := make(map[string]Value, len(state))
	for k, v := range state {
		out[k] = v
	}
	return out
}

// StateEqual reports whether two attribute maps hold the same attributes
// with equal values.
func StateEqual(a, b map[string]Value) bool {
	if len(a) != len(b) {
		return false
	}
	for k, av := range a {
		bv, ok := b[k]
		if !ok || !Equal(av, bv) {
			return false
		}
	}
	return true
}
