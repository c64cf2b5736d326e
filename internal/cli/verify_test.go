package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/retracehq/retrace/internal/store"
)

func TestVerifyCleanDatabase(t *testing.T) {
	dbPath, _ := seedOrderDatabase(t)

	rootOpts := &RootOptions{Format: "text"}
	cmd := NewVerifyCommand(rootOpts)

	out, err := execute(t, cmd, "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "3 transactions, ok")
	assert.Contains(t, out, "all 1 entities verified")
}

func TestVerifySingleEntity(t *testing.T) {
	dbPath, entity := seedOrderDatabase(t)

	rootOpts := &RootOptions{Format: "text"}
	cmd := NewVerifyCommand(rootOpts)

	out, err := execute(t, cmd, "--db", dbPath, "--entity", entity.String())
	require.NoError(t, err)
	assert.Contains(t, out, "all 1 entities verified")
}

func TestVerifyDetectsDivergence(t *testing.T) {
	dbPath, entity := seedOrderDatabase(t)

	// Corrupt the materialized state behind the log's back
	st, err := store.Open(dbPath)
	require.NoError(t, err)
	_, err = st.DB().Exec(
		"UPDATE current SET value = ? WHERE entity_id = ? AND attribute = 'order.operator'",
		`{"type":"string","value":"Mallory"}`, entity.String(),
	)
	require.NoError(t, err)
	st.Close()

	rootOpts := &RootOptions{Format: "text"}
	cmd := NewVerifyCommand(rootOpts)

	out, err := execute(t, cmd, "--db", dbPath)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "DIVERGED")
	assert.Contains(t, out, "verification FAILED")
}

func TestVerifyInvalidEntity(t *testing.T) {
	dbPath, _ := seedOrderDatabase(t)

	rootOpts := &RootOptions{Format: "text"}
	cmd := NewVerifyCommand(rootOpts)

	_, err := execute(t, cmd, "--db", dbPath, "--entity", "not-a-uuid")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
