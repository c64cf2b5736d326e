package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/retracehq/retrace/internal/fact"
	"github.com/retracehq/retrace/internal/rebuild"
)

// The store is the production rebuild.HistorySource. These tests run the
// full write-then-replay loop against real SQLite.

func TestReplay_TerminalEquivalence(t *testing.T) {
	s := createTestStore(t)
	entity := uuid.New()
	ctx := context.Background()

	when := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	mustAssert(t, s, entity, map[string]fact.Value{
		"order.id":       fact.UUID(entity),
		"order.operator": fact.String("A"),
		"order.time":     fact.Time(when),
		"order.action":   fact.String("create"),
	})
	mustAssert(t, s, entity, map[string]fact.Value{
		"order.operator": fact.String("B"),
		"order.action":   fact.String("assign"),
	})
	mustRetract(t, s, entity, "order.action")
	mustAssert(t, s, entity, map[string]fact.Value{
		"order.location": fact.String("warehouse-9"),
	})

	// Delete semantics match how the current table treats retractions
	snapshots, err := rebuild.Reconstruct(ctx, s, entity, rebuild.Options{
		Retraction: rebuild.RetractDelete,
	})
	if err != nil {
		t.Fatalf("Reconstruct() failed: %v", err)
	}
	if len(snapshots) != 4 {
		t.Fatalf("got %d snapshots, want 4", len(snapshots))
	}

	current, err := s.QueryCurrent(ctx, entity)
	if err != nil {
		t.Fatalf("QueryCurrent() failed: %v", err)
	}

	terminal := snapshots[len(snapshots)-1].State
	if !fact.StateEqual(terminal, current) {
		t.Errorf("terminal snapshot diverges from current table:\nreplay:  %v\ncurrent: %v",
			terminal, current)
	}
}

func TestReplay_FreezeKeepsRetractedValue(t *testing.T) {
	s := createTestStore(t)
	entity := uuid.New()
	ctx := context.Background()

	mustAssert(t, s, entity, map[string]fact.Value{"status": fact.String("open")})
	mustRetract(t, s, entity, "status")

	snapshots, err := rebuild.Reconstruct(ctx, s, entity, rebuild.Options{
		Retraction: rebuild.RetractFreeze,
	})
	if err != nil {
		t.Fatalf("Reconstruct() failed: %v", err)
	}
	if len(snapshots) != 2 {
		t.Fatalf("got %d snapshots, want 2", len(snapshots))
	}
	if !fact.Equal(fact.String("open"), snapshots[1].State["status"]) {
		t.Errorf("frozen value = %v, want the last asserted value", snapshots[1].State["status"])
	}
}

func TestReplay_EntitiesAreIsolated(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	a := uuid.New()
	b := uuid.New()
	mustAssert(t, s, a, map[string]fact.Value{"name": fact.String("alpha")})
	mustAssert(t, s, b, map[string]fact.Value{"name": fact.String("beta")})
	mustAssert(t, s, a, map[string]fact.Value{"name": fact.String("alpha2")})

	snapshots, err := rebuild.Reconstruct(ctx, s, b, rebuild.Options{})
	if err != nil {
		t.Fatalf("Reconstruct() failed: %v", err)
	}
	if len(snapshots) != 1 {
		t.Fatalf("got %d snapshots for entity b, want 1", len(snapshots))
	}
	if !fact.Equal(fact.String("beta"), snapshots[0].State["name"]) {
		t.Errorf("name = %v, want beta", snapshots[0].State["name"])
	}
}

func TestReplay_SnapshotCarriesCommitTime(t *testing.T) {
	s := createTestStore(t)
	entity := uuid.New()
	ctx := context.Background()

	mustAssert(t, s, entity, map[string]fact.Value{"a": fact.Int(1)})

	snapshots, err := rebuild.Reconstruct(ctx, s, entity, rebuild.Options{})
	if err != nil {
		t.Fatalf("Reconstruct() failed: %v", err)
	}
	if len(snapshots) != 1 {
		t.Fatalf("got %d snapshots, want 1", len(snapshots))
	}
	if snapshots[0].TxTime.IsZero() {
		t.Error("snapshot TxTime is zero, want the commit time from tx_log")
	}
}
