package cli

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/retracehq/retrace/internal/store"
)

func TestRetractMissingEntityFlag(t *testing.T) {
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewRetractCommand(rootOpts)

	_, err := execute(t, cmd, "--db", "unused.db", "order.count")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required flag")
}

func TestRetractRemovesAttribute(t *testing.T) {
	dbPath, entity := seedOrderDatabase(t)

	rootOpts := &RootOptions{Format: "text"}
	cmd := NewRetractCommand(rootOpts)
	out, err := execute(t, cmd,
		"--db", dbPath, "--entity", entity.String(), "order.action")
	require.NoError(t, err)
	assert.Contains(t, out, "tx 4 committed (1 attributes retracted)")

	st, err := store.Open(dbPath)
	require.NoError(t, err)
	defer st.Close()

	state, err := st.QueryCurrent(context.Background(), entity)
	require.NoError(t, err)
	assert.NotContains(t, state, "order.action")
	assert.Contains(t, state, "order.operator")
}

func TestRetractUnknownAttribute(t *testing.T) {
	dbPath, entity := seedOrderDatabase(t)

	rootOpts := &RootOptions{Format: "text"}
	cmd := NewRetractCommand(rootOpts)
	out, err := execute(t, cmd,
		"--db", dbPath, "--entity", entity.String(), "never.set")
	require.NoError(t, err)
	assert.Contains(t, out, "no matching attributes")
}
