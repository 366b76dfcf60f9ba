// Command jumpsim runs agent-based market simulations: headless runs that
// write CSV/JSON artifacts, or a live terminal dashboard.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/quantfold/jumpsim/internal/output"
	"github.com/quantfold/jumpsim/internal/sim"
	"github.com/quantfold/jumpsim/internal/stats"
	"github.com/quantfold/jumpsim/internal/ui"
)

var version = "0.1.0-dev"

func main() {
	rootCmd := &cobra.Command{
		Use:   "jumpsim",
		Short: "Agent-based market simulator with regime-switching news",
		Long: `jumpsim simulates a population of heterogeneous trading agents whose
aggregate demand moves a single asset's price under finite liquidity.
News shocks arrive from a regime-switching heavy-tailed process and
diffuse through the agents' social network before each clearing.`,
	}

	rootCmd.PersistentFlags().String("config", "", "YAML config file (defaults used when empty)")
	rootCmd.PersistentFlags().Int("steps", 0, "Override the number of simulation steps")
	rootCmd.PersistentFlags().Uint64("seed", 0, "Override the master seed")

	rootCmd.AddCommand(
		newRunCmd(),
		newWatchCmd(),
		newVersionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("jumpsim version %s\n", version)
		},
	}
}

// loadConfig resolves the run configuration from file and flag overrides.
func loadConfig(cmd *cobra.Command) (sim.Config, error) {
	cfg := sim.DefaultConfig()

	if path, _ := cmd.Flags().GetString("config"); path != "" {
		loaded, err := sim.LoadConfig(path)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	}
	if steps, _ := cmd.Flags().GetInt("steps"); steps > 0 {
		cfg.Steps = steps
	}
	if seed, _ := cmd.Flags().GetUint64("seed"); seed != 0 {
		cfg.Seed = seed
	}
	return cfg, cfg.Validate()
}

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a headless simulation and write CSV/JSON artifacts",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if workers, _ := cmd.Flags().GetInt("workers"); workers > 0 {
				cfg.Workers = workers
			}
			outDir, _ := cmd.Flags().GetString("out")

			logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

			engine, err := sim.NewEngine(cfg)
			if err != nil {
				return fmt.Errorf("construct engine: %w", err)
			}

			run, err := output.NewRun(outDir)
			if err != nil {
				return err
			}
			collector := stats.NewCollector(cfg.Stats)

			logger.Info("starting run",
				"run_id", run.ID,
				"steps", cfg.Steps,
				"agents", cfg.Population.NumAgents,
				"seed", cfg.Seed,
			)
			start := time.Now()

			done := make(chan error, 1)
			go func() { done <- engine.Run(cmd.Context(), 0) }()

			for rec := range engine.Records() {
				collector.Update(rec.LogReturn)
				if err := run.WriteStep(rec); err != nil {
					return fmt.Errorf("write step: %w", err)
				}
			}
			if err := <-done; err != nil {
				return err
			}

			if err := run.WriteSnapshots(engine.Snapshots()); err != nil {
				return err
			}
			if err := run.Close(); err != nil {
				return err
			}

			logger.Info("run complete",
				"dir", run.Dir,
				"elapsed", time.Since(start).Round(time.Millisecond),
				"final_price", engine.Market().Price(),
				"variance", collector.Variance(),
				"kurtosis", collector.Kurtosis(),
				"jumps", collector.JumpCount(),
				"regime", engine.Regime().String(),
			)
			return nil
		},
	}
	cmd.Flags().String("out", "runs", "Base directory for run artifacts")
	cmd.Flags().Int("workers", 0, "Parallel demand workers (0 = serial)")
	return cmd
}

func newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Run a simulation with a live terminal dashboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			interval, _ := cmd.Flags().GetDuration("interval")

			// The dashboard consumes the UI channels, not the record
			// channel; let the engine drop unread records.
			cfg.DropRecords = true

			engine, err := sim.NewEngine(cfg)
			if err != nil {
				return fmt.Errorf("construct engine: %w", err)
			}

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
			go func() {
				<-sigChan
				cancel()
			}()

			channels := ui.NewChannels()
			publisher := ui.NewPublisher(channels)
			collector := stats.NewCollector(cfg.Stats)

			go func() {
				ticker := time.NewTicker(interval)
				defer ticker.Stop()

				for step := 0; step < cfg.Steps; step++ {
					select {
					case <-ctx.Done():
						return
					case <-channels.Shutdown:
						return
					case <-ticker.C:
					}

					rec := engine.Step()
					collector.Update(rec.LogReturn)
					publisher.PublishStep(ui.StepEvent{
						Record:        rec,
						Variance:      collector.Variance(),
						Kurtosis:      collector.Kurtosis(),
						JumpCount:     collector.JumpCount(),
						JumpFrequency: collector.JumpFrequency(),
					})
					if step%10 == 0 {
						publisher.PublishSnapshots(engine.Snapshots())
					}
				}
			}()

			return ui.Run(ctx, channels)
		},
	}
	cmd.Flags().Duration("interval", 20*time.Millisecond, "Wall-clock interval per simulation step")
	return cmd
}
