package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/retracehq/retrace/internal/fact"
	"github.com/retracehq/retrace/internal/store"
)

// RetractOptions holds flags for the retract command.
type RetractOptions struct {
	*RootOptions
	Database string
	Entity   string
}

// RetractResult holds the retract command output.
type RetractResult struct {
	Entity     string `json:"entity"`
	TxID       int64  `json:"tx_id"`
	Attributes int    `json:"attributes"`
	NoChanges  bool   `json:"no_changes,omitempty"`
}

// String renders the result for text output.
func (r RetractResult) String() string {
	if r.NoChanges {
		return fmt.Sprintf("entity %s: no matching attributes, nothing written", r.Entity)
	}
	return fmt.Sprintf("entity %s: tx %d committed (%d attributes retracted)", r.Entity, r.TxID, r.Attributes)
}

// NewRetractCommand creates the retract command.
func NewRetractCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RetractOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "retract attribute...",
		Short: "Write one transaction removing entity attributes",
		Long: `Write one retraction-only transaction removing the given attributes.

Each attribute that currently has a value gets a retraction fact with
no replacing assertion. Whether the attribute disappears from later
reconstructed snapshots depends on the history command's --policy flag.

Examples:
  retrace retract --db ./orders.db --entity 3b0c... order.location`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRetract(opts, cmd, args)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", defaultDatabase(), "path to SQLite database (or RETRACE_DB)")
	cmd.Flags().StringVar(&opts.Entity, "entity", "", "entity UUID (required)")
	_ = cmd.MarkFlagRequired("entity")

	return cmd
}

func runRetract(opts *RetractOptions, cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), ErrWriter: cmd.ErrOrStderr(), Verbose: opts.Verbose}

	if err := requireDatabase(opts.Database); err != nil {
		return err
	}

	entity, err := uuid.Parse(opts.Entity)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid entity id", err)
	}

	attrs := make([]string, 0, len(args))
	for _, arg := range args {
		attrs = append(attrs, fact.NormalizeAttr(arg))
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	txID, written, err := st.Retract(ctx, entity, attrs)
	if errors.Is(err, store.ErrNoChanges) {
		return out.Success(RetractResult{Entity: entity.String(), NoChanges: true})
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to write transaction", err)
	}

	return out.Success(RetractResult{
		Entity:     entity.String(),
		TxID:       txID,
		Attributes: written,
	})
}
