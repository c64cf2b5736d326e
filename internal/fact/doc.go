// Package fact defines the data model for the retrace change log.
//
// A Record is the atomic unit read from the store: one assertion or
// retraction of a single attribute of one entity, tagged with the
// transaction that wrote it. Deltas and Snapshots are the derived,
// ephemeral shapes produced by reconstruction (package rebuild); they
// hold no persistent state and are owned by the caller.
//
// Attribute values are a closed tagged variant (Value) rather than
// interface{}: string, int64, bool, timestamp, and UUID. The tag is
// preserved through storage so that a UUID written today is still a UUID
// when the history is replayed later.
package fact
