package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/provmap/internal/provenance"
)

// StatsResult reports the map before and after the index is built.
type StatsResult struct {
	Registered int              `json:"registered"`
	Before     provenance.Stats `json:"before"`
	After      provenance.Stats `json:"after"`
}

// NewStatsCommand creates the stats command.
func NewStatsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats <manifest>...",
		Short: "Show staging and index statistics",
		Long: `Load the manifests and report the map's bookkeeping before and
after the staged batches are drained into the index.

Examples:
  provmap stats a.yaml b.cue --format json`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(rootOpts, args, cmd)
		},
	}
}

func runStats(opts *RootOptions, paths []string, cmd *cobra.Command) error {
	f := newFormatter(opts, cmd)

	m, n, err := loadMap(paths)
	if err != nil {
		return f.fail(ErrCodeManifest, err)
	}

	result := StatsResult{Registered: n, Before: m.Stats()}
	m.Drain()
	result.After = m.Stats()

	return f.Success(result, func(w io.Writer) {
		fmt.Fprintf(w, "Registered %d entries\n", result.Registered)
		writeStatsText(w, "before", result.Before)
		writeStatsText(w, "after", result.After)
	})
}

func writeStatsText(w io.Writer, label string, s provenance.Stats) {
	fmt.Fprintf(w, "%-7s state=%s nodes=%d batches=%d indexed=%d drains=%d\n",
		label+":", s.StateName, s.StagedNodes, s.StagedBatches, s.Indexed, s.Drains)
}
