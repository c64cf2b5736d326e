package rebuild

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/retracehq/retrace/internal/fact"
)

// HistorySource is the pipeline's only external dependency: something
// that can return every assertion and retraction ever made for an
// entity, across all transactions. The store must not silently omit
// retracted facts, and callers must not rely on any iteration order.
type HistorySource interface {
	QueryHistory(ctx context.Context, entity uuid.UUID) ([]fact.Record, error)
}

// Options configures a reconstruction.
type Options struct {
	// Retraction selects what a retraction without a replacing
	// assertion does to later snapshots. Defaults to RetractFreeze.
	Retraction RetractionPolicy
}

// Reconstruct derives the full snapshot sequence for an entity from its
// raw fact history: fetch, group by transaction, resolve each group to a
// delta, fold deltas into cumulative snapshots. The last snapshot is the
// entity's current state; the whole sequence is its complete history.
//
// The computation after the fetch is pure and holds no shared state, so
// concurrent calls are safe. The fetch is a single bulk read; retry
// policy for a failed fetch belongs to the caller.
//
// An entity with no facts yields an empty (non-nil) sequence and a nil
// error - "not found" is emptiness, never an error. A failed fetch
// returns STORE_UNAVAILABLE with no partial result.
func Reconstruct(ctx context.Context, src HistorySource, entity uuid.UUID, opts Options) ([]fact.Snapshot, error) {
	records, err := src.QueryHistory(ctx, entity)
	if err != nil {
		return nil, NewStoreUnavailableError(entity, err)
	}

	groups := GroupByTx(records)

	deltas := make([]fact.Delta, 0, len(groups))
	for _, group := range groups {
		delta, err := ResolveDelta(entity, group)
		if err != nil {
			return nil, err
		}
		deltas = append(deltas, delta)
	}

	snapshots := Accumulate(deltas, opts.Retraction)

	slog.Debug("entity reconstructed",
		"entity", entity,
		"facts", len(records),
		"transactions", len(groups),
		"policy", opts.Retraction.String(),
	)

	return snapshots, nil
}

// ReconstructAt replays the history up to and including txID and returns
// the snapshot as of that transaction. The boolean is false when the
// entity has no transaction at or before txID.
func ReconstructAt(ctx context.Context, src HistorySource, entity uuid.UUID, txID int64, opts Options) (fact.Snapshot, bool, error) {
	snapshots, err := Reconstruct(ctx, src, entity, opts)
	if err != nil {
		return fact.Snapshot{}, false, err
	}

	// Snapshots are ordered by TxID ascending; take the last one at or
	// before the requested transaction.
	var found fact.Snapshot
	var ok bool
	for _, snap := range snapshots {
		if snap.TxID > txID {
			break
		}
		found = snap
		ok = true
	}
	return found, ok, nil
}
