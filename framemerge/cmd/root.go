// Package cmd provides the command-line interface of framemerge.
package cmd

import (
	"log"
	"os"

	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"

	"github.com/sarchlab/framemerge/analysis"
	"github.com/sarchlab/framemerge/config"
	"github.com/sarchlab/framemerge/datarecording"
	"github.com/sarchlab/framemerge/merger"
	"github.com/sarchlab/framemerge/runctrl"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "framemerge",
	Short: "framemerge runs the sub-frame merging engine model.",
	Long: `framemerge merges timestamp-ordered sub-frame lanes across two ` +
		`clock domains into an ordered frame stream. It can run a ` +
		`configured merger, serve its registers over HTTP and decode ` +
		`run-control command words.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags
// appropriately.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		atexit.Exit(1)
	}

	atexit.Exit(0)
}

func init() {
	rootCmd.PersistentFlags().String("config", "",
		"Configuration file (TOML, YAML or JSON).")
	rootCmd.PersistentFlags().StringSlice("env", []string{".env"},
		"Files of FRAMEMERGE_* variables to load before the configuration.")
}

func addRunFlags(c *cobra.Command) {
	c.Flags().Uint64("cycles", 0, "Consumer cycles to run.")
	c.Flags().Int("frames", 0, "Stop after this many frames.")
	c.Flags().String("record", "",
		"Record frames and lane events into this sqlite database.")
	c.Flags().Bool("log-hooks", false, "Log integrity and control events.")
	c.Flags().Bool("log-events", false, "Log every dispatched event.")
	c.Flags().String("perf", "",
		"Write lane queue levels into this CSV file (without extension).")
	c.Flags().Uint64("perf-period", 0,
		"Consumer cycles per queue level entry. 0 reports the whole run.")
	c.Flags().StringSlice("issue", nil,
		"Run states to issue at start, e.g. prepare,sync,running.")
}

// loadConfig reads the configuration and lets explicit flags override it.
func loadConfig(c *cobra.Command) (config.Config, error) {
	envFiles, _ := c.Flags().GetStringSlice("env")
	if err := config.LoadEnv(envFiles...); err != nil {
		return config.Config{}, err
	}

	path, _ := c.Flags().GetString("config")

	cfg, err := config.Load(path)
	if err != nil {
		return cfg, err
	}

	flags := c.Flags()
	if flags.Changed("cycles") {
		cfg.Run.Cycles, _ = flags.GetUint64("cycles")
	}

	if flags.Changed("frames") {
		cfg.Run.Frames, _ = flags.GetInt("frames")
	}

	if flags.Changed("record") {
		cfg.Run.Record, _ = flags.GetString("record")
	}

	if flags.Changed("log-hooks") {
		cfg.Run.LogHooks, _ = flags.GetBool("log-hooks")
	}

	if flags.Changed("log-events") {
		cfg.Run.LogEvents, _ = flags.GetBool("log-events")
	}

	if flags.Changed("perf") {
		cfg.Run.Perf, _ = flags.GetString("perf")
	}

	if flags.Changed("perf-period") {
		cfg.Run.PerfPeriod, _ = flags.GetUint64("perf-period")
	}

	return cfg, nil
}

func buildSystem(cfg config.Config) (*merger.System, error) {
	b := merger.MakeBuilder().WithSpec(cfg.Merger)

	if cfg.Run.LogHooks {
		b = b.WithLogger(log.New(os.Stderr, "", 0))
	}

	if cfg.Run.LogEvents {
		b = b.WithEventLogger(log.New(os.Stderr, "", 0))
	}

	var rec datarecording.DataRecorder
	if cfg.Run.Record != "" {
		rec = datarecording.New(cfg.Run.Record)
		b = b.WithRecorder(rec)
	}

	switch {
	case cfg.Run.Perf != "":
		b = b.WithPerfBackend(
			analysis.NewCSVPerfAnalyzerBackend(cfg.Run.Perf),
			cfg.Run.PerfPeriod)
	case rec != nil && cfg.Run.PerfPeriod > 0:
		b = b.WithPerfBackend(
			analysis.NewRecorderBackend(rec), cfg.Run.PerfPeriod)
	}

	return b.Build("Merger")
}

// issueStates sends the named run states to the merger in order.
func issueStates(sys *merger.System, names []string) error {
	for _, n := range names {
		s, err := runctrl.ParseState(n)
		if err != nil {
			return err
		}

		cmd, err := runctrl.Encode(s)
		if err != nil {
			return err
		}

		if !sys.Issue(cmd) {
			log.Printf("run-control queue full, %s not issued", s)
		}
	}

	return nil
}
