// Package rebuild implements entity reconstruction from the fact log.
//
// An entity's state is never stored directly. Every field-level change
// is appended to an immutable log as assertion/retraction facts keyed by
// a store-issued transaction id, and any snapshot - current or as of a
// past transaction - is derived by replaying that log:
//
//	[History fetch] → [GroupByTx] → [ResolveDelta] → [Accumulate]
//	 unordered facts   tx groups      per-tx deltas    snapshot sequence
//
// # Ordering
//
// The store returns facts in no guaranteed order. GroupByTx always sorts
// groups by ascending TxID before the fold; TxIDs are issued
// monotonically, so transaction order is chronological order. Order
// within a group is irrelevant to later stages.
//
// # Folding
//
// Each transaction's group resolves to a delta: the attributes it
// asserted. Retractions pair with the assertion that replaced the value
// and are consumed during resolution; a retraction with no replacement
// is surfaced separately and handled per the RetractionPolicy.
// Accumulate overlays deltas cumulatively, so a transaction that touched
// two of five attributes still yields a full five-attribute snapshot.
//
// # Correctness
//
// The terminal snapshot must equal the store's direct point query for
// the same entity. That equivalence is the core property of the whole
// system and is what the CLI's verify command checks.
//
// All stages after the fetch are pure, synchronous, and deterministic;
// failures are structural (see DataError), never transient, and nothing
// here retries.
package rebuild
