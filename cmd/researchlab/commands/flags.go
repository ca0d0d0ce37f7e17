package commands

import (
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/moolen/researchlab/internal/config"
)

// pipelineFlags are the config overrides shared by run and batch.
type pipelineFlags struct {
	maxRevisions   int
	runTimeout     time.Duration
	provider       string
	model          string
	baseURL        string
	searchProvider string
	maxResults     int
	targetWords    int
	format         string
	frontmatter    bool
	appendReview   bool
	render         string
	auditLog       string
	metricsFile    string
	progress       bool
}

func (f *pipelineFlags) register(fs *pflag.FlagSet) {
	def := config.Default()

	fs.IntVar(&f.maxRevisions, "max-revisions", def.MaxRevisions, "Maximum revision cycles after the first review")
	fs.DurationVar(&f.runTimeout, "timeout", def.RunTimeout, "Timeout for one research run")
	fs.StringVar(&f.provider, "provider", def.Generation.Provider,
		"Generation provider: huggingface, openai, anthropic, azure-foundry, gemini or echo")
	fs.StringVar(&f.model, "model", "", "Generation model (defaults depend on the provider)")
	fs.StringVar(&f.baseURL, "base-url", "", "Generation endpoint override (OpenAI-compatible routers, Azure AI Foundry)")
	fs.StringVar(&f.searchProvider, "search", def.Search.Provider, "Search provider: duckduckgo, gemini or static")
	fs.IntVar(&f.maxResults, "max-results", def.Search.MaxResults, "Maximum search results handed to the writer")
	fs.IntVar(&f.targetWords, "target-words", def.Writer.TargetWords, "Soft length target of the summary")
	fs.StringVar(&f.format, "format", def.Output.Format, "Output format: markdown or html")
	fs.BoolVar(&f.frontmatter, "frontmatter", false, "Prepend run metadata as YAML frontmatter")
	fs.BoolVar(&f.appendReview, "append-review", false, "Append the reviewer's open issues to the report")
	fs.StringVar(&f.render, "render", def.Output.Render, "Terminal rendering of stdout output: auto, always or never")
	fs.StringVar(&f.auditLog, "audit-log", "", "Path to write the JSONL audit log")
	fs.StringVar(&f.metricsFile, "metrics-file", "", "Path to write Prometheus metrics in textfile format")
	fs.BoolVar(&f.progress, "progress", false, "Show live stage progress on stderr; logs are held back until the run ends")
}

// loadConfig reads the config file, applies flags the user set explicitly,
// resolves credentials and validates the result.
func (f *pipelineFlags) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	f.apply(cmd.Flags(), cfg)
	cfg.ApplyProviderDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.ResolveCredentials(os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (f *pipelineFlags) apply(fs *pflag.FlagSet, cfg *config.Config) {
	if fs.Changed("max-revisions") {
		cfg.MaxRevisions = f.maxRevisions
	}
	if fs.Changed("timeout") {
		cfg.RunTimeout = f.runTimeout
	}
	if fs.Changed("provider") && f.provider != cfg.Generation.Provider {
		// Provider-derived values from the previous provider no longer apply.
		if cfg.Generation.Model == config.DefaultModel(cfg.Generation.Provider) {
			cfg.Generation.Model = ""
		}
		if cfg.Generation.APIKeyEnv == config.DefaultAPIKeyEnv(cfg.Generation.Provider) {
			cfg.Generation.APIKeyEnv = ""
		}
		cfg.Generation.Provider = f.provider
	}
	if fs.Changed("model") {
		cfg.Generation.Model = f.model
	}
	if fs.Changed("base-url") {
		cfg.Generation.BaseURL = f.baseURL
	}
	if fs.Changed("search") {
		cfg.Search.Provider = f.searchProvider
	}
	if fs.Changed("max-results") {
		cfg.Search.MaxResults = f.maxResults
	}
	if fs.Changed("target-words") {
		cfg.Writer.TargetWords = f.targetWords
	}
	if fs.Changed("format") {
		cfg.Output.Format = f.format
	}
	if fs.Changed("frontmatter") {
		cfg.Output.Frontmatter = f.frontmatter
	}
	if fs.Changed("append-review") {
		cfg.Output.AppendReview = f.appendReview
	}
	if fs.Changed("render") {
		cfg.Output.Render = f.render
	}
	if fs.Changed("audit-log") {
		cfg.AuditLogPath = f.auditLog
	}
	if fs.Changed("metrics-file") {
		cfg.MetricsFile = f.metricsFile
	}
}
