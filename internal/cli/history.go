package cli

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/retracehq/retrace/internal/fact"
	"github.com/retracehq/retrace/internal/rebuild"
	"github.com/retracehq/retrace/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Database string
	Entity   string
	Policy   string
	AtTx     int64
}

// SnapshotView is the display form of one reconstructed snapshot.
type SnapshotView struct {
	TxID   int64             `json:"tx_id"`
	TxTime string            `json:"tx_time,omitempty"`
	State  map[string]string `json:"state"`
}

// HistoryResult holds the history command output.
type HistoryResult struct {
	Entity    string         `json:"entity"`
	Policy    string         `json:"policy"`
	Snapshots []SnapshotView `json:"snapshots"`
	NotFound  bool           `json:"not_found,omitempty"`
}

// String renders the result for text output.
func (r HistoryResult) String() string {
	if r.NotFound {
		return fmt.Sprintf("entity %s: no facts recorded", r.Entity)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "entity %s: %d transactions (policy=%s)\n", r.Entity, len(r.Snapshots), r.Policy)
	for _, snap := range r.Snapshots {
		if snap.TxTime != "" {
			fmt.Fprintf(&b, "tx %d (%s)\n", snap.TxID, snap.TxTime)
		} else {
			fmt.Fprintf(&b, "tx %d\n", snap.TxID)
		}
		attrs := make([]string, 0, len(snap.State))
		for attr := range snap.State {
			attrs = append(attrs, attr)
		}
		sort.Strings(attrs)
		for _, attr := range attrs {
			fmt.Fprintf(&b, "  %s = %s\n", attr, snap.State[attr])
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Reconstruct an entity's snapshot sequence",
		Long: `Replay an entity's fact history into its full snapshot sequence.

One snapshot per transaction, oldest first; the last snapshot is the
entity's current state. --at limits output to the single snapshot as of
the given transaction id.

--policy controls what a retraction without a replacing assertion does:
  freeze  the attribute keeps its last value in later snapshots (default)
  delete  the attribute disappears from the retracting snapshot onward

An entity with no facts reports "not found" and exits 0 - emptiness is
an answer, not an error.

Examples:
  retrace history --db ./orders.db --entity 3b0c...
  retrace history --db ./orders.db --entity 3b0c... --at 2
  retrace history --db ./orders.db --entity 3b0c... --policy delete --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", defaultDatabase(), "path to SQLite database (or RETRACE_DB)")
	cmd.Flags().StringVar(&opts.Entity, "entity", "", "entity UUID (required)")
	_ = cmd.MarkFlagRequired("entity")
	cmd.Flags().StringVar(&opts.Policy, "policy", "freeze", "retraction policy (freeze|delete)")
	cmd.Flags().Int64Var(&opts.AtTx, "at", 0, "show only the snapshot as of this transaction id")

	return cmd
}

func runHistory(opts *HistoryOptions, cmd *cobra.Command) error {
	ctx := context.Background()
	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), ErrWriter: cmd.ErrOrStderr(), Verbose: opts.Verbose}

	if err := requireDatabase(opts.Database); err != nil {
		return err
	}

	entity, err := uuid.Parse(opts.Entity)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid entity id", err)
	}

	policy, err := parsePolicy(opts.Policy)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid policy", err)
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	reconstructOpts := rebuild.Options{Retraction: policy}

	var snapshots []fact.Snapshot
	if opts.AtTx > 0 {
		snap, ok, err := rebuild.ReconstructAt(ctx, st, entity, opts.AtTx, reconstructOpts)
		if err != nil {
			return WrapExitError(ExitCommandError, "reconstruction failed", err)
		}
		if ok {
			snapshots = []fact.Snapshot{snap}
		}
	} else {
		snapshots, err = rebuild.Reconstruct(ctx, st, entity, reconstructOpts)
		if err != nil {
			return WrapExitError(ExitCommandError, "reconstruction failed", err)
		}
	}

	result := HistoryResult{
		Entity:    entity.String(),
		Policy:    policy.String(),
		Snapshots: make([]SnapshotView, 0, len(snapshots)),
		NotFound:  len(snapshots) == 0,
	}
	for _, snap := range snapshots {
		result.Snapshots = append(result.Snapshots, newSnapshotView(snap))
	}

	return out.Success(result)
}

// newSnapshotView flattens a snapshot for display: values in their
// human-readable form, commit time in RFC 3339 if the store recorded one.
func newSnapshotView(snap fact.Snapshot) SnapshotView {
	view := SnapshotView{
		TxID:  snap.TxID,
		State: make(map[string]string, len(snap.State)),
	}
	if !snap.TxTime.IsZero() {
		view.TxTime = snap.TxTime.UTC().Format(time.RFC3339Nano)
	}
	for attr, value := range snap.State {
		view.State[attr] = fact.Display(value)
	}
	return view
}

// parsePolicy maps the --policy flag to a rebuild.RetractionPolicy.
func parsePolicy(name string) (rebuild.RetractionPolicy, error) {
	switch name {
	case "freeze":
		return rebuild.RetractFreeze, nil
	case "delete":
		return rebuild.RetractDelete, nil
	default:
		return 0, fmt.Errorf("unknown policy %q: must be freeze or delete", name)
	}
}
