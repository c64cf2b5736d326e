package cli

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/google/uuid"
	"github.com/retracehq/retrace/internal/fact"
	"github.com/retracehq/retrace/internal/store"
)

func TestLoadMissingFileFlag(t *testing.T) {
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewLoadCommand(rootOpts)

	_, err := execute(t, cmd, "--db", "unused.db")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required flag")
}

func TestLoadNonExistentFixture(t *testing.T) {
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewLoadCommand(rootOpts)

	_, err := execute(t, cmd,
		"--db", filepath.Join(t.TempDir(), "test.db"),
		"--file", filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load fixture")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestLoadAppliesFixture(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")
	fixturePath := filepath.Join(tmpDir, "order.yaml")

	fixture := `
entity: 7d444840-9dc0-11d1-b245-5ffdce74fad2
transactions:
  - set:
      order.operator: Alice
      order.count: 3
  - set:
      order.operator: Bob
  - retract: [order.count]
`
	require.NoError(t, os.WriteFile(fixturePath, []byte(fixture), 0644))

	rootOpts := &RootOptions{Format: "text"}
	cmd := NewLoadCommand(rootOpts)

	out, err := execute(t, cmd, "--db", dbPath, "--file", fixturePath)
	require.NoError(t, err)
	assert.Contains(t, out, "3 transactions committed, 0 skipped, last tx 3")

	// The log now replays to the fixture's final state
	st, err := store.Open(dbPath)
	require.NoError(t, err)
	defer st.Close()

	entity := uuid.MustParse(fixedEntity)
	state, err := st.QueryCurrent(context.Background(), entity)
	require.NoError(t, err)
	assert.True(t, fact.Equal(fact.String("Bob"), state["order.operator"]))
	assert.NotContains(t, state, "order.count")
}

func TestLoadMixedStepCommitsTwoTransactions(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")
	fixturePath := filepath.Join(tmpDir, "order.yaml")

	fixture := `
entity: 7d444840-9dc0-11d1-b245-5ffdce74fad2
transactions:
  - set:
      status: open
      stale: yes-delete-me
  - set:
      status: closed
    retract: [stale]
`
	require.NoError(t, os.WriteFile(fixturePath, []byte(fixture), 0644))

	rootOpts := &RootOptions{Format: "text"}
	cmd := NewLoadCommand(rootOpts)

	// The mixed step splits: its set and its retract get separate tx ids
	out, err := execute(t, cmd, "--db", dbPath, "--file", fixturePath)
	require.NoError(t, err)
	assert.Contains(t, out, "3 transactions committed, 0 skipped, last tx 3")

	st, err := store.Open(dbPath)
	require.NoError(t, err)
	defer st.Close()

	state, err := st.QueryCurrent(context.Background(), uuid.MustParse(fixedEntity))
	require.NoError(t, err)
	assert.True(t, fact.Equal(fact.String("closed"), state["status"]))
	assert.NotContains(t, state, "stale")
}

func TestLoadSkipsNoOpTransactions(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")
	fixturePath := filepath.Join(tmpDir, "order.yaml")

	fixture := `
entity: 7d444840-9dc0-11d1-b245-5ffdce74fad2
transactions:
  - set:
      status: open
  - set:
      status: open
`
	require.NoError(t, os.WriteFile(fixturePath, []byte(fixture), 0644))

	rootOpts := &RootOptions{Format: "text"}
	cmd := NewLoadCommand(rootOpts)

	out, err := execute(t, cmd, "--db", dbPath, "--file", fixturePath)
	require.NoError(t, err)
	assert.Contains(t, out, "1 transactions committed, 1 skipped")
}
