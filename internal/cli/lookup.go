package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/provmap/internal/provenance"
)

// LookupOptions holds flags for the lookup command.
type LookupOptions struct {
	*RootOptions
	Key string
}

// LookupResult is the lookup command's output.
type LookupResult struct {
	Key   string     `json:"key"`
	Found bool       `json:"found"`
	Entry *EntryView `json:"entry,omitempty"`
}

// NewLookupCommand creates the lookup command.
func NewLookupCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LookupOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "lookup --key <key> <manifest>...",
		Short: "Look up the provenance of one code object",
		Long: `Load the manifests and look up one key.

Keys are written as 0x-prefixed hex or decimal. A key with no registered
provenance exits with status 1.

Examples:
  provmap lookup --key 0x1004 a.yaml b.cue
  provmap lookup --key 4100 a.yaml --format json`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLookup(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Key, "key", "", "key to look up (required)")
	_ = cmd.MarkFlagRequired("key")

	return cmd
}

func runLookup(opts *LookupOptions, paths []string, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd)

	key, err := provenance.ParseKey(opts.Key)
	if err != nil {
		return f.fail(ErrCodeUsage, WrapExitError(ExitCommandError, "invalid key", err))
	}

	m, _, err := loadMap(paths)
	if err != nil {
		return f.fail(ErrCodeManifest, err)
	}

	e, found := m.Lookup(key)
	if !found {
		return f.fail(ErrCodeNotFound, NewExitError(ExitFailure, fmt.Sprintf("no provenance for %s", key)))
	}

	view := newEntryView(e)
	return f.Success(LookupResult{Key: key.String(), Found: true, Entry: &view}, func(w io.Writer) {
		writeEntryText(w, view)
	})
}

func writeEntryText(w io.Writer, v EntryView) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "key:\t%s\n", v.Key)
	fmt.Fprintf(tw, "table:\t%s\n", v.TableName)
	if v.ClosureDesc != "" {
		fmt.Fprintf(tw, "closure:\t%s\n", v.ClosureDesc)
	}
	if v.TypeDesc != "" {
		fmt.Fprintf(tw, "type:\t%s\n", v.TypeDesc)
	}
	if v.Label != "" {
		fmt.Fprintf(tw, "label:\t%s\n", v.Label)
	}
	fmt.Fprintf(tw, "module:\t%s\n", v.Module)
	fmt.Fprintf(tw, "srcloc:\t%s\n", v.SrcLoc)
	_ = tw.Flush()
}
