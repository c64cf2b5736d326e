package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/retracehq/retrace/internal/fact"
)

// ErrNoChanges is returned by Assert and Retract when the requested
// write would not change the entity. No transaction is committed and no
// facts are appended.
var ErrNoChanges = errors.New("no effective changes")

// nowFunc is the commit-time source. Overridable for deterministic tests.
var nowFunc = time.Now

// SetNowFunc overrides the commit-time source and returns a restore
// function. Used for testing.
func SetNowFunc(f func() time.Time) (restore func()) {
	prev := nowFunc
	nowFunc = f
	return func() { nowFunc = prev }
}

// Assert appends one logical transaction setting the given attributes.
//
// For each attribute that currently has a different value, two facts are
// written sharing the new transaction id: a retraction of the old value
// and an assertion of the new one. An attribute being set for the first
// time gets the assertion only. Attributes whose value is unchanged are
// skipped; if nothing changes, no transaction is committed and
// ErrNoChanges is returned.
//
// The current table is updated in the same SQL transaction, so
// QueryCurrent always agrees with a replay of the log.
//
// Returns the issued transaction id and the number of attributes that
// actually changed.
func (s *Store) Assert(ctx context.Context, entity uuid.UUID, changes map[string]fact.Value) (txID int64, written int, err error) {
	if len(changes) == 0 {
		return 0, 0, ErrNoChanges
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("assert: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	txID, err = allocateTx(ctx, tx)
	if err != nil {
		return 0, 0, fmt.Errorf("assert: %w", err)
	}

	// Normalize attribute names first, then iterate sorted for
	// deterministic fact order within the transaction. Values must be
	// looked up by the normalized key, not the caller's spelling.
	normalized := make(map[string]fact.Value, len(changes))
	attrs := make([]string, 0, len(changes))
	for attr, value := range changes {
		attr = fact.NormalizeAttr(attr)
		if _, ok := normalized[attr]; !ok {
			attrs = append(attrs, attr)
		}
		normalized[attr] = value
	}
	sort.Strings(attrs)

	for _, attr := range attrs {
		newValue := normalized[attr]
		newJSON, err := marshalValue(newValue)
		if err != nil {
			return 0, 0, fmt.Errorf("assert %s: %w", attr, err)
		}

		oldJSON, exists, err := currentValue(ctx, tx, entity, attr)
		if err != nil {
			return 0, 0, fmt.Errorf("assert %s: %w", attr, err)
		}
		if exists && oldJSON == newJSON {
			continue
		}

		if exists {
			if err := insertFact(ctx, tx, txID, entity, attr, oldJSON, false); err != nil {
				return 0, 0, fmt.Errorf("assert %s: retract old: %w", attr, err)
			}
		}
		if err := insertFact(ctx, tx, txID, entity, attr, newJSON, true); err != nil {
			return 0, 0, fmt.Errorf("assert %s: %w", attr, err)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO current (entity_id, attribute, value)
			VALUES (?, ?, ?)
			ON CONFLICT(entity_id, attribute) DO UPDATE SET value = excluded.value
		`, entity.String(), attr, newJSON)
		if err != nil {
			return 0, 0, fmt.Errorf("assert %s: update current: %w", attr, err)
		}

		written++
	}

	if written == 0 {
		// Roll back the allocated tx_id rather than committing an empty
		// transaction that no fact references.
		return 0, 0, ErrNoChanges
	}

	if err := tx.Commit(); err != nil {
		return 0, 0, fmt.Errorf("assert: commit: %w", err)
	}

	slog.Debug("transaction asserted",
		"entity", entity,
		"tx", txID,
		"attributes", written,
	)

	return txID, written, nil
}

// Retract appends a retraction-only transaction removing the given
// attributes. Each attribute that currently has a value gets a single
// retraction fact (no replacing assertion) and is deleted from the
// current table. Attributes with no current value are skipped; if none
// have one, ErrNoChanges is returned.
//
// Returns the issued transaction id and the number of attributes
// actually retracted.
func (s *Store) Retract(ctx context.Context, entity uuid.UUID, attrs []string) (txID int64, written int, err error) {
	if len(attrs) == 0 {
		return 0, 0, ErrNoChanges
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("retract: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	txID, err = allocateTx(ctx, tx)
	if err != nil {
		return 0, 0, fmt.Errorf("retract: %w", err)
	}

	normalized := make([]string, 0, len(attrs))
	for _, attr := range attrs {
		normalized = append(normalized, fact.NormalizeAttr(attr))
	}
	sort.Strings(normalized)

	for _, attr := range normalized {
		oldJSON, exists, err := currentValue(ctx, tx, entity, attr)
		if err != nil {
			return 0, 0, fmt.Errorf("retract %s: %w", attr, err)
		}
		if !exists {
			continue
		}

		if err := insertFact(ctx, tx, txID, entity, attr, oldJSON, false); err != nil {
			return 0, 0, fmt.Errorf("retract %s: %w", attr, err)
		}

		_, err = tx.ExecContext(ctx, `
			DELETE FROM current WHERE entity_id = ? AND attribute = ?
		`, entity.String(), attr)
		if err != nil {
			return 0, 0, fmt.Errorf("retract %s: update current: %w", attr, err)
		}

		written++
	}

	if written == 0 {
		return 0, 0, ErrNoChanges
	}

	if err := tx.Commit(); err != nil {
		return 0, 0, fmt.Errorf("retract: commit: %w", err)
	}

	slog.Debug("transaction retracted",
		"entity", entity,
		"tx", txID,
		"attributes", written,
	)

	return txID, written, nil
}

// allocateTx inserts a tx_log row and returns the issued transaction id.
func allocateTx(ctx context.Context, tx *sql.Tx) (int64, error) {
	result, err := tx.ExecContext(ctx, `
		INSERT INTO tx_log (committed_at) VALUES (?)
	`, marshalTime(nowFunc()))
	if err != nil {
		return 0, fmt.Errorf("allocate tx: %w", err)
	}
	txID, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("allocate tx: last insert id: %w", err)
	}
	return txID, nil
}

// insertFact appends one fact row.
func insertFact(ctx context.Context, tx *sql.Tx, txID int64, entity uuid.UUID, attr, valueJSON string, added bool) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO facts (tx_id, entity_id, attribute, value, added)
		VALUES (?, ?, ?, ?, ?)
	`, txID, entity.String(), attr, valueJSON, added)
	if err != nil {
		return fmt.Errorf("insert fact: %w", err)
	}
	return nil
}

// currentValue reads an attribute's present value (as stored JSON)
// inside a write transaction.
func currentValue(ctx context.Context, tx *sql.Tx, entity uuid.UUID, attr string) (string, bool, error) {
	var value string
	err := tx.QueryRowContext(ctx, `
		SELECT value FROM current WHERE entity_id = ? AND attribute = ?
	`, entity.String(), attr).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read current: %w", err)
	}
	return value, true, nil
}
