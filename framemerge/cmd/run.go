package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/sarchlab/framemerge/merger"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a merger and print its counters.",
	RunE: func(c *cobra.Command, _ []string) error {
		cfg, err := loadConfig(c)
		if err != nil {
			return err
		}

		sys, err := buildSystem(cfg)
		if err != nil {
			return err
		}
		defer sys.Finish()

		issue, _ := c.Flags().GetStringSlice("issue")
		if err := issueStates(sys, issue); err != nil {
			return err
		}

		if cfg.Run.Frames > 0 {
			err = sys.RunUntilFrames(cfg.Run.Frames, cfg.Run.Cycles)
		} else {
			err = sys.Run(cfg.Run.Cycles)
		}

		printSummary(c.OutOrStdout(), sys)

		return err
	},
}

func init() {
	addRunFlags(runCmd)
	rootCmd.AddCommand(runCmd)
}

func printSummary(w io.Writer, sys *merger.System) {
	counters := sys.LaneCounters()
	producer, consumer := sys.RunStates()

	fmt.Fprintf(w, "cycle              %d\n", sys.Now())
	fmt.Fprintf(w, "run states         %s / %s\n", producer, consumer)
	fmt.Fprintf(w, "assembler          %s\n", sys.AssemblerState())
	fmt.Fprintf(w, "frames sealed      %d\n", sys.FramesSealed())
	fmt.Fprintf(w, "frames malformed   %d\n", sys.MalformedFrames())
	fmt.Fprintf(w, "frames dropped     %d\n", sys.DroppedFrames())
	fmt.Fprintf(w, "declared hits      %d\n", counters.DeclaredHits)
	fmt.Fprintf(w, "actual hits        %d\n", counters.ActualHits)
	fmt.Fprintf(w, "missing hits       %d\n", counters.MissingHits)
	fmt.Fprintf(w, "masked subframes   %d\n", counters.MaskedSubframes)
	fmt.Fprintf(w, "avg frame cycles   %.1f\n", sys.FrameTime.AverageTime())
	fmt.Fprintf(w, "assembly busy      %d (%.1f%%)\n",
		sys.AssemblyBusy.BusyTimeAt(sys.Now()),
		100*sys.AssemblyBusy.Utilization(sys.Now()))
	fmt.Fprintf(w, "stale showaheads   %d\n", sys.Lanes.StaleShowaheads())

	if sys.Collector != nil {
		fmt.Fprintf(w, "frames delivered   %d\n", len(sys.Collector.Frames))
		fmt.Fprintf(w, "order violations   %d\n",
			sys.Collector.OrderViolations)
	}
}
