package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/retracehq/retrace/internal/fact"
	"github.com/retracehq/retrace/internal/rebuild"
	"github.com/retracehq/retrace/internal/store"
)

// VerifyOptions holds flags for the verify command.
type VerifyOptions struct {
	*RootOptions
	Database string
	Entity   string // optional - specific entity only
}

// VerifyEntityResult holds the verification result for a single entity.
type VerifyEntityResult struct {
	Entity       string `json:"entity"`
	Transactions int    `json:"transactions"`
	Match        bool   `json:"match"`
}

// VerifyResult holds the overall verify output.
type VerifyResult struct {
	Entities []VerifyEntityResult `json:"entities"`
	AllMatch bool                 `json:"all_match"`
}

// String renders the result for text output.
func (r VerifyResult) String() string {
	var b strings.Builder
	for _, e := range r.Entities {
		status := "ok"
		if !e.Match {
			status = "DIVERGED"
		}
		fmt.Fprintf(&b, "entity %s: %d transactions, %s\n", e.Entity, e.Transactions, status)
	}
	if r.AllMatch {
		fmt.Fprintf(&b, "all %d entities verified", len(r.Entities))
	} else {
		fmt.Fprintf(&b, "verification FAILED")
	}
	return b.String()
}

// NewVerifyCommand creates the verify command.
func NewVerifyCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &VerifyOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Verify replay against the store's point queries",
		Long: `Reconstruct each entity from its raw fact history and compare the
terminal snapshot with the store's direct point query.

The two must agree attribute for attribute - that equivalence is the
core correctness property of the fact log. Verification replays with
the delete retraction policy, mirroring how the store's current table
treats outright attribute removal.

Exit codes:
  0 - every entity's terminal snapshot matches its point query
  1 - at least one entity diverged
  2 - command error (database not found, etc.)

Examples:
  retrace verify --db ./orders.db
  retrace verify --db ./orders.db --entity 3b0c...
  retrace verify --db ./orders.db --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", defaultDatabase(), "path to SQLite database (or RETRACE_DB)")
	cmd.Flags().StringVar(&opts.Entity, "entity", "", "verify specific entity only")

	return cmd
}

func runVerify(opts *VerifyOptions, cmd *cobra.Command) error {
	ctx := context.Background()
	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), ErrWriter: cmd.ErrOrStderr(), Verbose: opts.Verbose}

	if err := requireDatabase(opts.Database); err != nil {
		return err
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	var entities []uuid.UUID
	if opts.Entity != "" {
		entity, err := uuid.Parse(opts.Entity)
		if err != nil {
			return WrapExitError(ExitCommandError, "invalid entity id", err)
		}
		entities = []uuid.UUID{entity}
	} else {
		entities, err = st.ListEntities(ctx)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to list entities", err)
		}
	}

	// The store's current table deletes outright-retracted attributes,
	// so replay must do the same to be comparable.
	reconstructOpts := rebuild.Options{Retraction: rebuild.RetractDelete}

	result := VerifyResult{Entities: make([]VerifyEntityResult, 0, len(entities)), AllMatch: true}
	for _, entity := range entities {
		snapshots, err := rebuild.Reconstruct(ctx, st, entity, reconstructOpts)
		if err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("reconstruction failed for %s", entity), err)
		}

		current, err := st.QueryCurrent(ctx, entity)
		if err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("point query failed for %s", entity), err)
		}

		var terminal map[string]fact.Value
		if len(snapshots) > 0 {
			terminal = snapshots[len(snapshots)-1].State
		} else {
			terminal = map[string]fact.Value{}
		}

		match := fact.StateEqual(terminal, current)
		if !match {
			result.AllMatch = false
		}
		result.Entities = append(result.Entities, VerifyEntityResult{
			Entity:       entity.String(),
			Transactions: len(snapshots),
			Match:        match,
		})
	}

	if err := out.Success(result); err != nil {
		return err
	}

	if !result.AllMatch {
		return NewExitError(ExitFailure, "terminal snapshot diverged from point query")
	}
	return nil
}
