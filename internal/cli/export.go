package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/provmap/internal/eventlog"
)

// ExportOptions holds flags for the export command.
type ExportOptions struct {
	*RootOptions
	Database string
	Label    string
}

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "export --db <file> <manifest>...",
		Short: "Export registered provenance to the event log",
		Long: `Load the manifests and write every registered entry into a new
session of a SQLite event log. The index is not built; staged entries are
exported as registered.

Examples:
  provmap export --db ./ipe.db a.yaml b.cue
  provmap export --db ./ipe.db --label nightly a.yaml --format json`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Label, "label", "", "session label")

	return cmd
}

func runExport(opts *ExportOptions, paths []string, cmd *cobra.Command) error {
	ctx := context.Background()
	f := newFormatter(opts.RootOptions, cmd)

	m, _, err := loadMap(paths)
	if err != nil {
		return f.fail(ErrCodeManifest, err)
	}

	st, err := eventlog.Open(opts.Database)
	if err != nil {
		return f.fail(ErrCodeDatabase, WrapExitError(ExitCommandError, "failed to open database", err))
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()

	sess, err := st.BeginSession(ctx, opts.Label)
	if err != nil {
		return f.fail(ErrCodeDatabase, WrapExitError(ExitCommandError, "failed to begin session", err))
	}

	res, err := st.Export(ctx, sess.ID, m)
	if err != nil {
		return f.fail(ErrCodeDatabase, WrapExitError(ExitCommandError, "failed to export", err))
	}
	slog.Debug("export complete", "session", sess.ID, "visited", res.Visited, "inserted", res.Inserted)

	return f.Success(res, func(w io.Writer) {
		fmt.Fprintf(w, "Session: %s\n", res.SessionID)
		fmt.Fprintf(w, "Exported %d entries (%d visited)\n", res.Inserted, res.Visited)
	})
}
