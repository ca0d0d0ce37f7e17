package commands

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/moolen/researchlab/internal/agent/runner"
	"github.com/moolen/researchlab/internal/logging"
	"github.com/moolen/researchlab/internal/report"
)

var batchCmd = &cobra.Command{
	Use:   "batch <topics.yaml>",
	Short: "Research several topics one after another",
	Long: `Research every topic listed in a YAML file, sequentially, writing one
report per topic into --output-dir.

The file is either a list of topics or a mapping with a "topics" key:

  topics:
    - solid-state batteries
    - CRISPR off-target effects

Failed topics are logged and skipped; the exit code is 1 if any topic failed.
`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

var (
	batchFlags     pipelineFlags
	batchOutputDir string
	batchFailFast  bool
)

func init() {
	batchFlags.register(batchCmd.Flags())
	batchCmd.Flags().StringVar(&batchOutputDir, "output-dir", "reports", "Directory the reports are written to")
	batchCmd.Flags().BoolVar(&batchFailFast, "fail-fast", false, "Stop at the first failed topic")
}

type topicsFile struct {
	Topics []string `yaml:"topics"`
}

// loadTopics reads a topics file in either the list or the mapping form.
// Blank entries are dropped.
func loadTopics(path string) ([]string, error) {
	// #nosec G304 -- topics path is provided by the user
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read topics file: %w", err)
	}

	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, fmt.Errorf("failed to parse topics file %q: %w", path, err)
	}

	var raw []string
	if len(node.Content) > 0 && node.Content[0].Kind == yaml.SequenceNode {
		err = node.Content[0].Decode(&raw)
	} else {
		var f topicsFile
		err = node.Decode(&f)
		raw = f.Topics
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse topics file %q: %w", path, err)
	}

	topics := make([]string, 0, len(raw))
	for _, t := range raw {
		if t = strings.TrimSpace(t); t != "" {
			topics = append(topics, t)
		}
	}
	if len(topics) == 0 {
		return nil, fmt.Errorf("topics file %q lists no topics", path)
	}
	return topics, nil
}

func runBatch(cmd *cobra.Command, args []string) error {
	if err := setupLog(logLevelFlags); err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	logger := logging.GetLogger("batch")

	topics, err := loadTopics(args[0])
	if err != nil {
		return err
	}
	cfg, err := batchFlags.loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	return withRunner(ctx, cfg, batchFlags.progress, func(r *runner.Runner) error {
		emitter := report.NewEmitter(cfg.Output, cmd.OutOrStdout())
		var failed []string

		for i, topic := range topics {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logger.Info("Topic %d/%d: %s", i+1, len(topics), topic)

			result, err := r.Run(ctx, topic)
			if err == nil {
				err = emitter.EmitTo(report.PathIn(batchOutputDir, topic, i, cfg.Output.Format), result)
			}
			if err != nil {
				logger.Error("Topic %q failed: %v", topic, err)
				failed = append(failed, topic)
				if batchFailFast {
					return err
				}
			}
		}

		logger.Info("Batch finished: %d succeeded, %d failed", len(topics)-len(failed), len(failed))
		if len(failed) > 0 {
			return errors.New("failed topics: " + strings.Join(failed, ", "))
		}
		return nil
	})
}
