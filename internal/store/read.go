package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/retracehq/retrace/internal/fact"
)

// QueryHistory returns every assertion and retraction ever written for
// an entity, across all transactions. Retracted facts are never omitted.
//
// No result order is guaranteed; reconstruction sorts by transaction id
// itself and callers must do the same. Returns an empty slice (not nil)
// for an unknown entity - absence is not an error.
//
// This satisfies rebuild.HistorySource.
func (s *Store) QueryHistory(ctx context.Context, entity uuid.UUID) ([]fact.Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT f.tx_id, f.attribute, f.value, f.added, t.committed_at
		FROM facts f
		JOIN tx_log t ON f.tx_id = t.tx_id
		WHERE f.entity_id = ?
	`, entity.String())
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var records []fact.Record
	for rows.Next() {
		rec, err := scanRecord(rows, entity)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}

	// Return empty slice instead of nil
	if records == nil {
		records = []fact.Record{}
	}

	return records, nil
}

// QueryCurrent returns the entity's present state as a direct point
// query against the current table, with no replay involved. Returns an
// empty map (not nil) for an unknown entity.
//
// The reconstruction pipeline never calls this; it exists for callers
// validating terminal equivalence (the verify command) and for plain
// lookups that do not need history.
func (s *Store) QueryCurrent(ctx context.Context, entity uuid.UUID) (map[string]fact.Value, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT attribute, value
		FROM current
		WHERE entity_id = ?
	`, entity.String())
	if err != nil {
		return nil, fmt.Errorf("query current: %w", err)
	}
	defer rows.Close()

	state := make(map[string]fact.Value)
	for rows.Next() {
		var attr, valueJSON string
		if err := rows.Scan(&attr, &valueJSON); err != nil {
			return nil, fmt.Errorf("scan current: %w", err)
		}
		value, err := unmarshalValue(valueJSON)
		if err != nil {
			return nil, fmt.Errorf("current %s: %w", attr, err)
		}
		state[attr] = value
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate current: %w", err)
	}

	return state, nil
}

// ListEntities returns all distinct entity ids present in the fact log,
// ordered by id. Used by the CLI to enumerate what the log knows about.
func (s *Store) ListEntities(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT entity_id FROM facts
		ORDER BY entity_id
	`)
	if err != nil {
		return nil, fmt.Errorf("list entities: %w", err)
	}
	defer rows.Close()

	entities := []uuid.UUID{}
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan entity id: %w", err)
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("parse entity id %q: %w", raw, err)
		}
		entities = append(entities, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entities: %w", err)
	}

	return entities, nil
}

// scanRecord scans a facts/tx_log join row into a fact.Record.
func scanRecord(rows *sql.Rows, entity uuid.UUID) (fact.Record, error) {
	var rec fact.Record
	var valueJSON, committedAt string

	if err := rows.Scan(&rec.TxID, &rec.Attribute, &valueJSON, &rec.Added, &committedAt); err != nil {
		return fact.Record{}, fmt.Errorf("scan fact: %w", err)
	}

	rec.Entity = entity

	value, err := unmarshalValue(valueJSON)
	if err != nil {
		return fact.Record{}, fmt.Errorf("fact %s at tx %d: %w", rec.Attribute, rec.TxID, err)
	}
	rec.Value = value

	txTime, err := unmarshalTime(committedAt)
	if err != nil {
		return fact.Record{}, fmt.Errorf("fact %s at tx %d: %w", rec.Attribute, rec.TxID, err)
	}
	rec.TxTime = txTime

	return rec, nil
}
