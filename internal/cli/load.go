package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/retracehq/retrace/internal/store"
)

// LoadOptions holds flags for the load command.
type LoadOptions struct {
	*RootOptions
	Database string
	File     string
}

// LoadResult holds the load command output.
type LoadResult struct {
	Entity       string `json:"entity"`
	Transactions int    `json:"transactions"`
	Skipped      int    `json:"skipped"` // no-op transactions (no effective changes)
	LastTxID     int64  `json:"last_tx_id"`
}

// String renders the result for text output.
func (r LoadResult) String() string {
	return fmt.Sprintf("entity %s: %d transactions committed, %d skipped, last tx %d",
		r.Entity, r.Transactions, r.Skipped, r.LastTxID)
}

// NewLoadCommand creates the load command.
func NewLoadCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LoadOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "load",
		Short: "Load a YAML fixture of transactions",
		Long: `Load a YAML fixture and append its transactions to the fact log.

The fixture names one entity and an ordered list of steps, each setting
and/or retracting attributes. A step that both sets and retracts
commits as two transactions, the set first. Steps that would change
nothing (re-setting identical values) are skipped, not committed.

Examples:
  retrace load --db ./orders.db --file ./fixtures/order.yaml`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLoad(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", defaultDatabase(), "path to SQLite database (or RETRACE_DB)")
	cmd.Flags().StringVar(&opts.File, "file", "", "path to YAML fixture (required)")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func runLoad(opts *LoadOptions, cmd *cobra.Command) error {
	ctx := context.Background()
	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), ErrWriter: cmd.ErrOrStderr(), Verbose: opts.Verbose}

	if err := requireDatabase(opts.Database); err != nil {
		return err
	}

	entity, txs, err := LoadFixture(opts.File)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load fixture", err)
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	result := LoadResult{Entity: entity.String()}
	for i, tx := range txs {
		if len(tx.Set) > 0 {
			txID, _, err := st.Assert(ctx, entity, tx.Set)
			switch {
			case errors.Is(err, store.ErrNoChanges):
				result.Skipped++
			case err != nil:
				return WrapExitError(ExitCommandError, fmt.Sprintf("fixture transaction %d failed", i), err)
			default:
				result.Transactions++
				result.LastTxID = txID
				out.VerboseLog("tx %d: set %d attributes", txID, len(tx.Set))
			}
		}
		if len(tx.Retract) > 0 {
			txID, _, err := st.Retract(ctx, entity, tx.Retract)
			switch {
			case errors.Is(err, store.ErrNoChanges):
				result.Skipped++
			case err != nil:
				return WrapExitError(ExitCommandError, fmt.Sprintf("fixture transaction %d failed", i), err)
			default:
				result.Transactions++
				result.LastTxID = txID
				out.VerboseLog("tx %d: retracted %d attributes", txID, len(tx.Retract))
			}
		}
	}

	return out.Success(result)
}
