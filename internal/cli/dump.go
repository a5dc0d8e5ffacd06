package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/provmap/internal/dump"
)

// DumpOptions holds flags for the dump command.
type DumpOptions struct {
	*RootOptions
	Output string
}

// DumpResult is the dump command's output when writing to a file.
type DumpResult struct {
	Path string `json:"path"`
	dump.Summary
}

// NewDumpCommand creates the dump command.
func NewDumpCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DumpOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "dump <manifest>...",
		Short: "Write a diagnostic dump of every entry",
		Long: `Load the manifests, build the index and write one JSON object per
entry, sorted by key.

Without --out the dump goes to stdout and nothing else is printed there.

Examples:
  provmap dump a.yaml b.cue
  provmap dump --out ipe.jsonl a.yaml --format json`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDump(opts, args, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "out", "o", "", "output file (default stdout)")

	return cmd
}

func runDump(opts *DumpOptions, paths []string, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd)

	m, _, err := loadMap(paths)
	if err != nil {
		return f.fail(ErrCodeManifest, err)
	}

	if opts.Output == "" {
		sum, err := dump.Write(cmd.OutOrStdout(), m)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to write dump", err)
		}
		f.VerboseLog("dumped %d entries (%d bytes, digest %s)", sum.Entries, sum.Bytes, sum.Digest)
		return nil
	}

	sum, err := dump.WriteFile(opts.Output, m)
	if err != nil {
		return f.fail(ErrCodeDump, WrapExitError(ExitCommandError, "failed to write dump", err))
	}

	result := DumpResult{Path: opts.Output, Summary: sum}
	return f.Success(result, func(w io.Writer) {
		fmt.Fprintf(w, "Wrote %d entries to %s\n", sum.Entries, opts.Output)
		fmt.Fprintf(w, "digest: %s\n", sum.Digest)
	})
}
