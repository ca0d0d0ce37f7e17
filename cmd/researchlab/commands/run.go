package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/moolen/researchlab/internal/agent/multiagent/coordinator"
	"github.com/moolen/researchlab/internal/agent/multiagent/types"
	"github.com/moolen/researchlab/internal/agent/runner"
	"github.com/moolen/researchlab/internal/agent/tui"
	"github.com/moolen/researchlab/internal/config"
	"github.com/moolen/researchlab/internal/logging"
	"github.com/moolen/researchlab/internal/report"
)

var runCmd = &cobra.Command{
	Use:   "run <topic>",
	Short: "Research a topic and print a markdown summary",
	Long: `Research a topic and produce a ~500 word markdown summary.

The report is printed to stdout, or written to --output. Nothing is written
when the run fails; the exit code is 1 in that case.

Examples:
  # Hugging Face Inference (reads HF_TOKEN)
  researchlab run "solid-state batteries"

  # Anthropic, two revision cycles, report to a file
  researchlab run "CRISPR off-target effects" --provider anthropic --max-revisions 2 -o crispr.md

  # Fully offline run
  researchlab run "anything" --provider echo --search static
`,
	Args: cobra.ExactArgs(1),
	RunE: runResearch,
}

var (
	runFlags  pipelineFlags
	runOutput string
)

func init() {
	runFlags.register(runCmd.Flags())
	runCmd.Flags().StringVarP(&runOutput, "output", "o", "", "Write the report to this file instead of stdout")
}

func runResearch(cmd *cobra.Command, args []string) error {
	if err := setupLog(logLevelFlags); err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}

	cfg, err := runFlags.loadConfig(cmd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("output") {
		cfg.Output.Path = runOutput
	}

	ctx, cancel := signalContext()
	defer cancel()

	var result *types.FinalReport
	err = withRunner(ctx, cfg, runFlags.progress, func(r *runner.Runner) error {
		var runErr error
		result, runErr = r.Run(ctx, args[0])
		return runErr
	})
	if err != nil {
		return err
	}
	return report.NewEmitter(cfg.Output, cmd.OutOrStdout()).Emit(result)
}

// withRunner builds and starts a runner, calls fn and always shuts the
// runner down, flushing the audit log and metrics file. With showProgress
// the stage view is drawn on stderr and log output is replayed afterwards.
func withRunner(ctx context.Context, cfg *config.Config, showProgress bool, fn func(*runner.Runner) error) error {
	opts := []runner.Option{runner.WithVersion(Version)}

	var progress *tui.Progress
	if showProgress {
		progress = tui.NewProgress(os.Stderr)
		opts = append(opts, runner.WithCoordinatorOptions(coordinator.WithObserver(progress)))

		release := logging.Hold()
		progress.Start()
		defer func() {
			err := progress.Stop(2 * time.Second)
			release()
			if err != nil {
				logging.GetLogger("researchlab").Warn("Progress view: %v", err)
			}
		}()
	}

	r, err := runner.New(ctx, cfg, opts...)
	if err != nil {
		return err
	}
	if err := r.Start(ctx); err != nil {
		return err
	}

	runErr := fn(r)

	// Shutdown must complete even when ctx was canceled by a signal.
	stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := r.Close(stopCtx); err != nil {
		logging.GetLogger("runner").Warn("Shutdown error: %v", err)
	}
	return runErr
}

// signalContext returns a context canceled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigCh:
			logging.GetLogger("researchlab").Warn("Received %v, canceling run", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, func() {
		signal.Stop(sigCh)
		cancel()
	}
}
