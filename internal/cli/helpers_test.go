package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/retracehq/retrace/internal/fact"
	"github.com/retracehq/retrace/internal/store"
	"github.com/retracehq/retrace/internal/testutil"
)

// fixedEntity is shared by tests that need a stable entity id in output.
const fixedEntity = "7d444840-9dc0-11d1-b245-5ffdce74fad2"

// seedOrderDatabase creates a database holding the standard three
// transaction order history and returns its path. Commit times come from
// a deterministic clock so output is stable.
func seedOrderDatabase(t *testing.T) (path string, entity uuid.UUID) {
	t.Helper()

	path = filepath.Join(t.TempDir(), "orders.db")
	entity = uuid.MustParse(fixedEntity)
	ctx := context.Background()

	epoch := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	restore := store.SetNowFunc(testutil.NewDeterministicClock(epoch, time.Minute).Now)
	defer restore()

	st, err := store.Open(path)
	require.NoError(t, err)
	defer st.Close()

	_, _, err = st.Assert(ctx, entity, map[string]fact.Value{
		"order.operator": fact.String("Alice"),
		"order.action":   fact.String("create"),
		"order.count":    fact.Int(3),
	})
	require.NoError(t, err)

	_, _, err = st.Assert(ctx, entity, map[string]fact.Value{
		"order.operator": fact.String("Bob"),
		"order.action":   fact.String("assign"),
	})
	require.NoError(t, err)

	_, _, err = st.Retract(ctx, entity, []string{"order.count"})
	require.NoError(t, err)

	return path, entity
}

// execute runs a command with args and returns its stdout.
func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}
