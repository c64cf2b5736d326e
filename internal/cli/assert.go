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

// AssertOptions holds flags for the assert command.
type AssertOptions struct {
	*RootOptions
	Database string
	Entity   string
}

// AssertResult holds the assert command output.
type AssertResult struct {
	Entity     string `json:"entity"`
	TxID       int64  `json:"tx_id"`
	Attributes int    `json:"attributes"`
	NoChanges  bool   `json:"no_changes,omitempty"`
}

// String renders the result for text output.
func (r AssertResult) String() string {
	if r.NoChanges {
		return fmt.Sprintf("entity %s: no effective changes, nothing written", r.Entity)
	}
	return fmt.Sprintf("entity %s: tx %d committed (%d attributes)", r.Entity, r.TxID, r.Attributes)
}

// NewAssertCommand creates the assert command.
func NewAssertCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AssertOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "assert attribute=value...",
		Short: "Write one transaction setting entity attributes",
		Long: `Write one logical transaction setting the given attributes.

Each changed attribute appends a retraction of its old value plus an
assertion of the new one, sharing a single transaction id. Values are
typed by shape: true/false, integers, RFC 3339 timestamps, and UUIDs
are recognized; everything else is a string. Prefix a value with "str:"
to force a string.

Examples:
  retrace assert --db ./orders.db --entity 3b0c... order.operator=Alice order.count=3
  retrace assert --db ./orders.db --entity 3b0c... order.time=2024-03-01T12:00:00Z`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAssert(opts, cmd, args)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", defaultDatabase(), "path to SQLite database (or RETRACE_DB)")
	cmd.Flags().StringVar(&opts.Entity, "entity", "", "entity UUID (required)")
	_ = cmd.MarkFlagRequired("entity")

	return cmd
}

func runAssert(opts *AssertOptions, cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), ErrWriter: cmd.ErrOrStderr(), Verbose: opts.Verbose}

	if err := requireDatabase(opts.Database); err != nil {
		return err
	}

	entity, err := uuid.Parse(opts.Entity)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid entity id", err)
	}

	changes := make(map[string]fact.Value, len(args))
	for _, arg := range args {
		attr, value, err := ParseAssignment(arg)
		if err != nil {
			return WrapExitError(ExitCommandError, "invalid argument", err)
		}
		changes[attr] = value
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	txID, written, err := st.Assert(ctx, entity, changes)
	if errors.Is(err, store.ErrNoChanges) {
		return out.Success(AssertResult{Entity: entity.String(), NoChanges: true})
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to write transaction", err)
	}

	return out.Success(AssertResult{
		Entity:     entity.String(),
		TxID:       txID,
		Attributes: written,
	})
}
