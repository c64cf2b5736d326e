package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/retracehq/retrace/internal/store"
)

// EntitiesOptions holds flags for the entities command.
type EntitiesOptions struct {
	*RootOptions
	Database string
}

// EntitiesResult holds the entities command output.
type EntitiesResult struct {
	Entities []string `json:"entities"`
	LastTxID int64    `json:"last_tx_id"`
}

// String renders the result for text output.
func (r EntitiesResult) String() string {
	if len(r.Entities) == 0 {
		return "no entities recorded"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d entities, last tx %d\n", len(r.Entities), r.LastTxID)
	for _, id := range r.Entities {
		fmt.Fprintf(&b, "  %s\n", id)
	}
	return strings.TrimRight(b.String(), "\n")
}

// NewEntitiesCommand creates the entities command.
func NewEntitiesCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EntitiesOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "entities",
		Short: "List entities present in the fact log",
		Long: `List every entity the fact log has recorded facts for,
with the highest transaction id issued so far.

Examples:
  retrace entities --db ./orders.db`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEntities(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", defaultDatabase(), "path to SQLite database (or RETRACE_DB)")

	return cmd
}

func runEntities(opts *EntitiesOptions, cmd *cobra.Command) error {
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

	entities, err := st.ListEntities(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list entities", err)
	}

	lastTx, err := st.LastTxID(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read last tx id", err)
	}

	result := EntitiesResult{Entities: make([]string, 0, len(entities)), LastTxID: lastTx}
	for _, id := range entities {
		result.Entities = append(result.Entities, id.String())
	}

	return out.Success(result)
}
