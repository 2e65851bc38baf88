package cli

import (
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/micromata/projectforge-sub013/internal/history"
	"github.com/micromata/projectforge-sub013/internal/model"
	"github.com/micromata/projectforge-sub013/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Database string
	Type     string
	ID       int64
	Actor    string
	State    bool
}

// HistoryResult lists stored entries and, on request, the replayed state of
// the selected entity.
type HistoryResult struct {
	Entries []history.Entry    `json:"entries"`
	State   *store.EntityState `json:"state,omitempty"`
}

// RenderText implements textRenderer.
func (r HistoryResult) RenderText(w io.Writer) error {
	if len(r.Entries) == 0 {
		fmt.Fprintln(w, "no history")
	}
	if err := history.Render(w, r.Entries); err != nil {
		return err
	}
	if r.State == nil {
		return nil
	}
	s := r.State
	fmt.Fprintf(w, "state of %s#%d after %d entry(ies):\n", s.EntityType, s.EntityID, s.Entries)
	for _, name := range slices.Sorted(maps.Keys(s.Values)) {
		v := "null"
		if s.Values[name] != nil {
			v = strconv.Quote(*s.Values[name])
		}
		fmt.Fprintf(w, "  %s = %s\n", name, v)
	}
	_, err := fmt.Fprintf(w, "  created=%t deleted=%t last_by=%s\n", s.Created, s.Deleted, s.LastBy)
	return err
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show stored history entries",
		Long: `Show the history entries stored by earlier copy passes.

Select one entity with --type and --id, or every entry of one actor with
--actor. --state replays the selected entity's entries into its latest
recorded property values.

Example:
  candh history --db history.db --type Project --id 1 --state
  candh history --db history.db --actor alice`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "history database (default from config)")
	cmd.Flags().StringVar(&opts.Type, "type", "", "entity type")
	cmd.Flags().Int64Var(&opts.ID, "id", 0, "entity identity")
	cmd.Flags().StringVar(&opts.Actor, "actor", "", "list entries of this actor")
	cmd.Flags().BoolVar(&opts.State, "state", false, "replay the entity's entries into its latest state")
	cmd.MarkFlagsRequiredTogether("type", "id")
	cmd.MarkFlagsMutuallyExclusive("type", "actor")
	cmd.MarkFlagsOneRequired("type", "actor")

	return cmd
}

func runHistory(opts *HistoryOptions, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	db := opts.Database
	if db == "" {
		db = opts.Config.HistoryDB
	}
	if db == "" {
		return fail(formatter, ExitCommandError, ErrCodeUsage, "no history database", errors.New("set --db or history.db"))
	}
	if opts.State && opts.Type == "" {
		return fail(formatter, ExitCommandError, ErrCodeUsage, "invalid flags", errors.New("--state requires --type and --id"))
	}
	if _, err := os.Stat(db); err != nil {
		return fail(formatter, ExitCommandError, ErrCodeStore, "history database not found", err)
	}

	st, err := store.Open(db)
	if err != nil {
		return fail(formatter, ExitCommandError, ErrCodeStore, "failed to open history database", err)
	}
	defer st.Close()

	ctx := cmd.Context()
	var result HistoryResult
	if opts.Type != "" {
		id := model.ID(opts.ID)
		result.Entries, err = st.ReadEntityHistory(ctx, opts.Type, id)
		if err == nil && opts.State {
			state := store.Replay(opts.Type, id, result.Entries)
			result.State = &state
		}
	} else {
		result.Entries, err = st.ReadByActor(ctx, opts.Actor)
	}
	if err != nil {
		return fail(formatter, ExitCommandError, ErrCodeStore, "failed to read history", err)
	}
	formatter.VerboseLog("Read %d entry(ies) from %s", len(result.Entries), db)

	return formatter.Success(result)
}
