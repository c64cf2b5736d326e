// Package store provides SQLite-backed durable storage for the retrace
// fact log.
//
// The log is append-only. Entity state is never updated in place:
// changing an attribute writes a retraction of the old value plus an
// assertion of the new one, both tagged with a store-issued monotonic
// transaction id. Everything a historical query needs is in the facts
// table; the current table is a materialized convenience kept in the
// same SQL transaction as every append, so a direct point query and a
// full replay of the log always agree.
//
//   - tx_log: one row per logical transaction (id + commit timestamp)
//   - facts: the change log (entity, attribute, tagged value, added flag)
//   - current: the materialized present, one row per live attribute
//
// Transaction ids come from tx_log's AUTOINCREMENT, so they are issued
// in total order and ascending id is chronological order. Commit
// timestamps are display/audit metadata only - nothing orders by them.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Values are stored as tagged JSON TEXT (see fact.MarshalValue) so that
// the typed variant survives round-trips.
package store
