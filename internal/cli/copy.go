package cli

import (
	"fmt"
	"io"
	"log/slog"
	"maps"
	"os"
	"slices"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/micromata/projectforge-sub013/internal/candh"
	"github.com/micromata/projectforge-sub013/internal/history"
	"github.com/micromata/projectforge-sub013/internal/metrics"
	"github.com/micromata/projectforge-sub013/internal/persist"
	"github.com/micromata/projectforge-sub013/internal/record"
	"github.com/micromata/projectforge-sub013/internal/schema"
	"github.com/micromata/projectforge-sub013/internal/store"
)

// Copy error codes (E300-E399)
const (
	ErrCodeUsage    = "E300" // invalid flag value
	ErrCodeSchema   = "E301" // schema invalid
	ErrCodeDecode   = "E302" // source or destination unreadable
	ErrCodeVerify   = "E303" // graph does not match the schema
	ErrCodeRejected = "E304" // copy rejected (type mismatch)
	ErrCodeInternal = "E305" // copy failed
	ErrCodeFinalize = "E306" // history could not be finalized
	ErrCodeStore    = "E307" // history database error
	ErrCodeOutput   = "E308" // merged destination could not be written
)

// CopyOptions holds flags for the copy command.
type CopyOptions struct {
	*RootOptions
	Source    string
	Dest      string
	Database  string
	Actor     string
	Location  string
	Out       string
	Ignore    []string
	Operation string
	NoHistory bool
	Metrics   bool

	// Recorder options override entry ids and timestamps (for testing).
	HistoryOptions []history.RecorderOption
}

// CopyResult is the outcome of one copy pass.
type CopyResult struct {
	Type     string             `json:"type"`
	Status   string             `json:"status"`
	Assigned int                `json:"assigned"`
	Stored   int                `json:"stored"`
	Output   string             `json:"output,omitempty"`
	Entries  []history.Entry    `json:"entries"`
	Metrics  map[string]float64 `json:"metrics,omitempty"`
}

// RenderText implements textRenderer.
func (r CopyResult) RenderText(w io.Writer) error {
	fmt.Fprintf(w, "%s: %s\n", r.Type, r.Status)
	if r.Assigned > 0 {
		fmt.Fprintf(w, "assigned %d identity(ies)\n", r.Assigned)
	}
	if err := history.Render(w, r.Entries); err != nil {
		return err
	}
	if r.Stored > 0 {
		fmt.Fprintf(w, "stored %d history entry(ies)\n", r.Stored)
	}
	if r.Output != "" {
		fmt.Fprintf(w, "wrote %s\n", r.Output)
	}
	for _, key := range slices.Sorted(maps.Keys(r.Metrics)) {
		fmt.Fprintf(w, "%s %g\n", key, r.Metrics[key])
	}
	return nil
}

// NewCopyCommand creates the copy command.
func NewCopyCommand(rootOpts *RootOptions) *cobra.Command {
	return newCopyCommand(&CopyOptions{RootOptions: rootOpts})
}

func newCopyCommand(opts *CopyOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "copy <schema-dir>",
		Short: "Copy a source entity graph onto a destination",
		Long: `Copy the source entity graph onto the destination, report the change
status and the history entries describing every difference.

The merged destination is written to --out; history entries are appended to
the SQLite database given by --db.

Example:
  candh copy ./schema --source new.yaml --dest current.yaml --out merged.yaml
  candh copy ./schema --source new.yaml --dest current.yaml --db history.db --actor alice`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCopy(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Source, "source", "", "source graph (YAML, required)")
	cmd.Flags().StringVar(&opts.Dest, "dest", "", "destination graph (YAML, required)")
	cmd.Flags().StringVar(&opts.Database, "db", "", "history database (default from config)")
	cmd.Flags().StringVar(&opts.Actor, "actor", "", "actor recorded on history entries (default from config)")
	cmd.Flags().StringVar(&opts.Location, "location", "", "location for date-only values (default from config)")
	cmd.Flags().StringVarP(&opts.Out, "out", "o", "", "write the merged destination to this file")
	cmd.Flags().StringSliceVar(&opts.Ignore, "ignore", nil, "root properties not to copy")
	cmd.Flags().StringVar(&opts.Operation, "op", "update", "root history operation (insert|update|delete)")
	cmd.Flags().BoolVar(&opts.NoHistory, "no-history", false, "copy without recording history")
	cmd.Flags().BoolVar(&opts.Metrics, "metrics", false, "include copy counters in the output")
	_ = cmd.MarkFlagRequired("source")
	_ = cmd.MarkFlagRequired("dest")

	return cmd
}

func runCopy(opts *CopyOptions, schemaDir string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	logger := opts.logger(cmd.ErrOrStderr())

	op, err := history.ParseOp(opts.Operation)
	if err != nil {
		return fail(formatter, ExitCommandError, ErrCodeUsage, "invalid --op", err)
	}
	loc, err := opts.location()
	if err != nil {
		return fail(formatter, ExitCommandError, ErrCodeUsage, "invalid --location", err)
	}

	validation, specs, loadErr := loadTypes(schemaDir, schema.LoadModeFailFast, formatter)
	if loadErr != nil {
		return outputValidateError(formatter, loadErr)
	}
	if !validation.Valid {
		return fail(formatter, ExitFailure, ErrCodeSchema, "schema invalid", validation.Errors[0])
	}
	reg, err := record.BuildRegistry(specs)
	if err != nil {
		return fail(formatter, ExitFailure, ErrCodeSchema, "schema invalid", err)
	}

	codec := record.NewCodec(reg, record.WithLocation(loc))
	src, err := codec.DecodeFile(opts.Source)
	if err != nil {
		return fail(formatter, ExitCommandError, ErrCodeDecode, "failed to read source", err)
	}
	dst, err := codec.DecodeFile(opts.Dest)
	if err != nil {
		return fail(formatter, ExitCommandError, ErrCodeDecode, "failed to read destination", err)
	}
	verifier := record.NewVerifier(reg)
	for _, root := range []*record.Record{src, dst} {
		if err := persist.ForceLoad(reg, root, verifier); err != nil {
			return fail(formatter, ExitCommandError, ErrCodeVerify, "graph does not match schema", err)
		}
	}
	formatter.VerboseLog("Loaded %s onto %s", src, dst)

	counters := prometheus.NewRegistry()
	observer := metrics.New(counters)
	engine := candh.New(reg,
		candh.WithLogger(logger),
		candh.WithLocation(loc),
		candh.WithObserver(observer),
		candh.WithHistoryOptions(opts.HistoryOptions...),
	)

	ctx, err := engine.CopyWith(src, dst, candh.Request{
		Ignore:    opts.Ignore,
		Operation: op,
		Actor:     opts.actor(),
		NoHistory: opts.NoHistory,
	})
	if err != nil {
		if candh.IsTypeMismatch(err) {
			return fail(formatter, ExitFailure, ErrCodeRejected, "copy rejected", err)
		}
		return fail(formatter, ExitCommandError, ErrCodeInternal, "copy failed", err)
	}

	assigned, err := persist.NewAssigner(reg).Assign(dst)
	if err != nil {
		return fail(formatter, ExitCommandError, ErrCodeInternal, "failed to assign identities", err)
	}

	result := CopyResult{
		Type:     dst.TypeName(),
		Status:   ctx.Status().String(),
		Assigned: assigned,
		Entries:  []history.Entry{},
	}
	if ctx.Recorder != nil {
		entries, err := ctx.Recorder.Finalize(dst, src)
		if err != nil {
			return fail(formatter, ExitCommandError, ErrCodeFinalize, "failed to finalize history", err)
		}
		observer.EntriesFinalized(entries)
		result.Entries = entries
	}

	if db := opts.database(); db != "" && len(result.Entries) > 0 {
		stored, err := storeEntries(cmd, logger, db, result.Entries)
		if err != nil {
			return fail(formatter, ExitCommandError, ErrCodeStore, "failed to store history", err)
		}
		result.Stored = stored
	}

	if opts.Out != "" {
		data, err := codec.Encode(dst)
		if err != nil {
			return fail(formatter, ExitCommandError, ErrCodeOutput, "failed to encode destination", err)
		}
		if err := os.WriteFile(opts.Out, data, 0o644); err != nil {
			return fail(formatter, ExitCommandError, ErrCodeOutput, "failed to write destination", err)
		}
		result.Output = opts.Out
	}

	if opts.Metrics {
		summary, err := metrics.Summarize(counters)
		if err != nil {
			return fail(formatter, ExitCommandError, ErrCodeInternal, "failed to gather metrics", err)
		}
		result.Metrics = summary
	}

	return formatter.Success(result)
}

func storeEntries(cmd *cobra.Command, logger *slog.Logger, path string, entries []history.Entry) (int, error) {
	st, err := store.Open(path, store.WithLogger(logger))
	if err != nil {
		return 0, err
	}
	defer st.Close()
	return st.WriteEntries(cmd.Context(), entries)
}

func (o *CopyOptions) actor() string {
	if o.Actor != "" {
		return o.Actor
	}
	return o.Config.Actor
}

func (o *CopyOptions) database() string {
	if o.Database != "" {
		return o.Database
	}
	return o.Config.HistoryDB
}

func (o *CopyOptions) location() (*time.Location, error) {
	if o.Location != "" {
		return time.LoadLocation(o.Location)
	}
	return o.Config.Loc()
}

// fail reports err through the formatter and returns the matching exit
// error.
func fail(formatter *OutputFormatter, exitCode int, code, message string, err error) error {
	_ = formatter.Error(code, fmt.Sprintf("%s: %v", message, err), nil)
	return WrapExitError(exitCode, code+": "+message, err)
}
