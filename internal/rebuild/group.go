package rebuild

import (
	"sort"
	"time"

	"github.com/retracehq/retrace/internal/fact"
)

// TxGroup holds all facts written by one transaction.
type TxGroup struct {
	// TxID identifies the transaction. Groups are ordered by ascending
	// TxID, which is also chronological order (the store issues ids
	// monotonically).
	TxID int64

	// TxTime is the transaction's commit time, taken from any record in
	// the group that carries one. Zero if the store recorded none.
	TxTime time.Time

	// Records are the facts sharing this TxID. Order within a group is
	// unspecified and does not affect later stages.
	Records []fact.Record
}

// GroupByTx groups an unordered fact stream by transaction id and
// returns the groups ordered by ascending TxID.
//
// The store guarantees nothing about iteration order, so this always
// sorts; the fold in Accumulate is only correct over chronologically
// ordered groups. Empty input yields an empty (non-nil) slice - callers
// treat that as "entity not found", not as an error.
func GroupByTx(records []fact.Record) []TxGroup {
	byTx := make(map[int64]*TxGroup)
	for _, rec := range records {
		g, ok := byTx[rec.TxID]
		if !ok {
			g = &TxGroup{TxID: rec.TxID}
			byTx[rec.TxID] = g
		}
		g.Records = append(g.Records, rec)
		if g.TxTime.IsZero() && !rec.TxTime.IsZero() {
			g.TxTime = rec.TxTime
		}
	}

	groups := make([]TxGroup, 0, len(byTx))
	for _, g := range byTx {
		groups = append(groups, *g)
	}
	sort.Slice(groups, func(i, j int) bool {
		return groups[i].TxID < groups[j].TxID
	})

	return groups
}
