package cmd

import (
	"context"
	"log"
	"os"
	"os/signal"

	"github.com/pkg/browser"
	"github.com/spf13/cobra"

	"github.com/sarchlab/framemerge/merger"
	"github.com/sarchlab/framemerge/monitoring"
	"github.com/sarchlab/framemerge/regs"
)

const serveChunk = 1000

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run a merger behind the HTTP monitor.",
	Long: "Run a merger behind the HTTP monitor. The merger runs until " +
		"--cycles consumer cycles have passed, or forever when it is 0. " +
		"The server stays up until interrupted.",
	RunE: func(c *cobra.Command, _ []string) error {
		cfg, err := loadConfig(c)
		if err != nil {
			return err
		}

		if !c.Flags().Changed("cycles") {
			cfg.Run.Cycles = 0
		}

		if c.Flags().Changed("port") {
			cfg.Run.MonitorPort, _ = c.Flags().GetInt("port")
		}

		sys, err := buildSystem(cfg)
		if err != nil {
			return err
		}
		defer sys.Finish()

		m := newMonitor(sys, cfg.Run.MonitorPort)

		url, err := m.StartServer()
		if err != nil {
			return err
		}

		if open, _ := c.Flags().GetBool("open"); open {
			if err := browser.OpenURL(url + "/api/regs"); err != nil {
				log.Printf("cannot open a browser: %v", err)
			}
		}

		issue, _ := c.Flags().GetStringSlice("issue")
		if err := issueStates(sys, issue); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(c.Context(), os.Interrupt)
		defer stop()

		if err := serveRun(ctx, sys, m, cfg.Run.Cycles); err != nil {
			return err
		}

		<-ctx.Done()

		return nil
	},
}

func init() {
	addRunFlags(serveCmd)
	serveCmd.Flags().Int("port", 0, "Monitor port. 0 picks a free one.")
	serveCmd.Flags().Bool("open", false, "Open the register page in a browser.")
	rootCmd.AddCommand(serveCmd)
}

func newMonitor(sys *merger.System, port int) *monitoring.Monitor {
	m := monitoring.NewMonitor().WithPortNumber(port)
	m.RegisterEngine(sys.Engine)

	for _, comp := range sys.Components() {
		m.RegisterComponent(comp)
	}

	for _, b := range sys.Buffers() {
		m.RegisterBuffer(b)
	}

	m.RegisterRegisterFile(regs.NewFile(sys))

	return m
}

// serveRun advances the merger in chunks so that the monitor can pause it
// between events.
func serveRun(
	ctx context.Context,
	sys *merger.System,
	m *monitoring.Monitor,
	cycles uint64,
) error {
	bar := m.CreateProgressBar("Cycles", cycles)
	defer m.CompleteProgressBar(bar)

	for done := uint64(0); cycles == 0 || done < cycles; done += serveChunk {
		if ctx.Err() != nil {
			return nil
		}

		step := uint64(serveChunk)
		if cycles != 0 && cycles-done < step {
			step = cycles - done
		}

		if err := sys.Run(step); err != nil {
			return err
		}

		bar.IncrementFinished(step)
	}

	return nil
}
