package testutil

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/retracehq/retrace/internal/fact"
)

// HistoryBuilder assembles a synthetic fact history for one entity,
// writing the same retraction/assertion pairs the real store would.
//
// Each Tx call is one logical transaction: attributes already set get a
// retraction of the old value plus an assertion of the new one, sharing
// the new transaction id; first-time attributes get the assertion only.
// Transaction ids are issued monotonically starting at 1.
type HistoryBuilder struct {
	entity  uuid.UUID
	nextTx  int64
	current map[string]fact.Value
	records []fact.Record
}

// NewHistoryBuilder creates a builder for the given entity.
func NewHistoryBuilder(entity uuid.UUID) *HistoryBuilder {
	return &HistoryBuilder{
		entity:  entity,
		nextTx:  1,
		current: make(map[string]fact.Value),
	}
}

// Tx appends one transaction setting the given attributes and returns
// the builder for chaining.
func (b *HistoryBuilder) Tx(changes map[string]fact.Value) *HistoryBuilder {
	txID := b.nextTx
	b.nextTx++
	txTime := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC).Add(time.Duration(txID) * time.Minute)

	for attr, newValue := range changes {
		attr = fact.NormalizeAttr(attr)
		if oldValue, ok := b.current[attr]; ok {
			b.records = append(b.records, fact.Record{
				TxID:      txID,
				Entity:    b.entity,
				Attribute: attr,
				Value:     oldValue,
				Added:     false,
				TxTime:    txTime,
			})
		}
		b.records = append(b.records, fact.Record{
			TxID:      txID,
			Entity:    b.entity,
			Attribute: attr,
			Value:     newValue,
			Added:     true,
			TxTime:    txTime,
		})
		b.current[attr] = newValue
	}

	return b
}

// RetractTx appends one retraction-only transaction removing the given
// attributes (no replacing assertions).
func (b *HistoryBuilder) RetractTx(attrs ...string) *HistoryBuilder {
	txID := b.nextTx
	b.nextTx++
	txTime := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC).Add(time.Duration(txID) * time.Minute)

	for _, attr := range attrs {
		attr = fact.NormalizeAttr(attr)
		oldValue, ok := b.current[attr]
		if !ok {
			continue
		}
		b.records = append(b.records, fact.Record{
			TxID:      txID,
			Entity:    b.entity,
			Attribute: attr,
			Value:     oldValue,
			Added:     false,
			TxTime:    txTime,
		})
		delete(b.current, attr)
	}

	return b
}

// Records returns the accumulated fact history.
func (b *HistoryBuilder) Records() []fact.Record {
	return b.records
}

// Current returns what the builder believes the entity's present state
// is, for terminal-equivalence assertions against the last snapshot.
func (b *HistoryBuilder) Current() map[string]fact.Value {
	return fact.CloneState(b.current)
}

// Source wraps the accumulated history in a MemorySource.
func (b *HistoryBuilder) Source() *MemorySource {
	return NewMemorySource(b.entity, b.records)
}

// MemorySource is an in-memory rebuild.HistorySource holding fact
// histories for any number of entities. Unknown entities yield an empty
// history, matching the store's not-found convention.
type MemorySource struct {
	histories map[uuid.UUID][]fact.Record
}

// NewMemorySource creates a source with one entity's history.
func NewMemorySource(entity uuid.UUID, records []fact.Record) *MemorySource {
	return &MemorySource{
		histories: map[uuid.UUID][]fact.Record{entity: records},
	}
}

// Add registers another entity's history and returns the source.
func (m *MemorySource) Add(entity uuid.UUID, records []fact.Record) *MemorySource {
	m.histories[entity] = records
	return m
}

// QueryHistory implements rebuild.HistorySource.
func (m *MemorySource) QueryHistory(_ context.Context, entity uuid.UUID) ([]fact.Record, error) {
	records := m.histories[entity]
	if records == nil {
		records = []fact.Record{}
	}
	return records, nil
}

// FailingSource is a rebuild.HistorySource whose fetch always fails with
// the given error. Used to test STORE_UNAVAILABLE propagation.
type FailingSource struct {
	Err error
}

// QueryHistory implements rebuild.HistorySource.
func (f *FailingSource) QueryHistory(_ context.Context, _ uuid.UUID) ([]fact.Record, error) {
	return nil, f.Err
}
