package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Search provider names.
const (
	SearchDuckDuckGo = "duckduckgo"
	SearchGemini     = "gemini"
	SearchStatic     = "static"
)

// Generation provider names.
const (
	GenerationHuggingFace = "huggingface"
	GenerationOpenAI      = "openai"
	GenerationAnthropic   = "anthropic"
	GenerationAzure       = "azure-foundry"
	GenerationGemini      = "gemini"
	GenerationEcho        = "echo"
)

// Output formats.
const (
	FormatMarkdown = "markdown"
	FormatHTML     = "html"
)

// Terminal rendering modes for stdout output.
const (
	RenderAuto   = "auto"
	RenderAlways = "always"
	RenderNever  = "never"
)

// Config holds all configuration for a research run. It is loaded once at startup
// and handed to each component explicitly.
type Config struct {
	// MaxRevisions caps the number of revision cycles after the first review.
	MaxRevisions int `yaml:"max_revisions"`

	// RunTimeout bounds the whole pipeline.
	RunTimeout time.Duration `yaml:"run_timeout"`

	Search     SearchConfig     `yaml:"search"`
	Generation GenerationConfig `yaml:"generation"`
	Writer     WriterConfig     `yaml:"writer"`
	Output     OutputConfig     `yaml:"output"`
	Tracing    TracingConfig    `yaml:"tracing"`

	// AuditLogPath enables the JSONL audit trail when set.
	AuditLogPath string `yaml:"audit_log"`

	// MetricsFile enables writing Prometheus metrics in textfile format when set.
	MetricsFile string `yaml:"metrics_file"`
}

// SearchConfig configures the web search collaborator.
type SearchConfig struct {
	Provider   string        `yaml:"provider"`
	MaxResults int           `yaml:"max_results"`
	// BaseURL overrides the provider endpoint. Empty uses the provider default.
	BaseURL    string        `yaml:"base_url"`
	Timeout    time.Duration `yaml:"timeout"`
	MaxRetries int           `yaml:"max_retries"`
	// RateLimit is the maximum number of requests per second; 0 disables limiting.
	RateLimit float64 `yaml:"rate_limit"`
	// CacheSize is the number of queries kept in the LRU cache; 0 disables caching.
	CacheSize int `yaml:"cache_size"`
	// Model is used by search providers backed by a model (gemini).
	Model     string `yaml:"model"`
	APIKeyEnv string `yaml:"api_key_env"`
	// Static holds canned results for the static provider.
	Static []StaticResult `yaml:"static"`

	APIKey string `yaml:"-"`
}

// StaticResult is one canned search result.
type StaticResult struct {
	Title  string `yaml:"title"`
	Text   string `yaml:"text"`
	Source string `yaml:"source"`
}

// GenerationConfig configures the text-generation collaborator used by the
// writer and the reviewer.
type GenerationConfig struct {
	Provider    string        `yaml:"provider"`
	Model       string        `yaml:"model"`
	BaseURL     string        `yaml:"base_url"`
	APIKeyEnv   string        `yaml:"api_key_env"`
	MaxTokens   int           `yaml:"max_tokens"`
	Temperature float64       `yaml:"temperature"`
	Timeout     time.Duration `yaml:"timeout"`

	APIKey string `yaml:"-"`
}

// WriterConfig tunes the writer prompt.
type WriterConfig struct {
	TargetWords int `yaml:"target_words"`
}

// OutputConfig controls how the final report is emitted.
type OutputConfig struct {
	// Path is the output file; empty means stdout.
	Path         string `yaml:"path"`
	Format       string `yaml:"format"`
	Frontmatter  bool   `yaml:"frontmatter"`
	AppendReview bool   `yaml:"append_review"`
	Render       string `yaml:"render"`
}

// TracingConfig configures OTLP trace export.
type TracingConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Endpoint    string `yaml:"endpoint"`
	TLSCAPath   string `yaml:"tls_ca_path"`
	TLSInsecure bool   `yaml:"tls_insecure"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		MaxRevisions: 1,
		RunTimeout:   5 * time.Minute,
		Search: SearchConfig{
			Provider:   SearchDuckDuckGo,
			MaxResults: 5,
			Timeout:    15 * time.Second,
			MaxRetries: 3,
			RateLimit:  1,
			CacheSize:  128,
			Model:      "gemini-2.5-flash",
		},
		Generation: GenerationConfig{
			Provider:    GenerationHuggingFace,
			MaxTokens:   1024,
			Temperature: 0.3,
			Timeout:     60 * time.Second,
		},
		Writer: WriterConfig{
			TargetWords: 500,
		},
		Output: OutputConfig{
			Format: FormatMarkdown,
			Render: RenderAuto,
		},
	}
}

// defaultModels maps generation providers to the model used when none is configured.
var defaultModels = map[string]string{
	GenerationHuggingFace: "HuggingFaceH4/zephyr-7b-beta",
	GenerationOpenAI:      "gpt-4o-mini",
	GenerationAnthropic:   "claude-sonnet-4-5-20250929",
	GenerationAzure:       "claude-sonnet-4-5",
	GenerationGemini:      "gemini-2.5-flash",
	GenerationEcho:        "echo",
}

// defaultKeyEnvs maps providers to the environment variable holding their credential.
var defaultKeyEnvs = map[string]string{
	GenerationHuggingFace: "HF_TOKEN",
	GenerationOpenAI:      "OPENAI_API_KEY",
	GenerationAnthropic:   "ANTHROPIC_API_KEY",
	GenerationAzure:       "ANTHROPIC_FOUNDRY_API_KEY",
	GenerationGemini:      "GEMINI_API_KEY",
}

// DefaultModel returns the model used for a generation provider when none is configured.
func DefaultModel(provider string) string {
	return defaultModels[strings.ToLower(provider)]
}

// DefaultAPIKeyEnv returns the environment variable read for a provider's credential.
func DefaultAPIKeyEnv(provider string) string {
	return defaultKeyEnvs[strings.ToLower(provider)]
}

// ApplyProviderDefaults fills model and credential variable names that depend on
// the selected providers. It is called after file and flag values are merged.
func (c *Config) ApplyProviderDefaults() {
	c.Generation.Provider = strings.ToLower(c.Generation.Provider)
	c.Search.Provider = strings.ToLower(c.Search.Provider)

	if c.Generation.Model == "" {
		c.Generation.Model = defaultModels[c.Generation.Provider]
	}
	if c.Generation.APIKeyEnv == "" {
		c.Generation.APIKeyEnv = defaultKeyEnvs[c.Generation.Provider]
	}
	if c.Search.Provider == SearchGemini && c.Search.APIKeyEnv == "" {
		c.Search.APIKeyEnv = defaultKeyEnvs[GenerationGemini]
	}
}

// ResolveCredentials reads API keys from the configured environment variables.
// Providers that need no credential are skipped.
func (c *Config) ResolveCredentials(lookup func(string) (string, bool)) error {
	if lookup == nil {
		lookup = os.LookupEnv
	}

	if c.Generation.Provider != GenerationEcho {
		key, ok := lookup(c.Generation.APIKeyEnv)
		if !ok || strings.TrimSpace(key) == "" {
			return NewConfigError(fmt.Sprintf(
				"%s provider requires a credential: set the %s environment variable",
				c.Generation.Provider, c.Generation.APIKeyEnv))
		}
		c.Generation.APIKey = strings.TrimSpace(key)
	}

	if c.Search.Provider == SearchGemini {
		key, ok := lookup(c.Search.APIKeyEnv)
		if !ok || strings.TrimSpace(key) == "" {
			return NewConfigError(fmt.Sprintf(
				"gemini search requires a credential: set the %s environment variable",
				c.Search.APIKeyEnv))
		}
		c.Search.APIKey = strings.TrimSpace(key)
	}
	return nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.MaxRevisions < 0 {
		return NewConfigError("max_revisions must not be negative")
	}
	if c.RunTimeout <= 0 {
		return NewConfigError("run_timeout must be positive")
	}

	switch c.Search.Provider {
	case SearchDuckDuckGo, SearchGemini:
	case SearchStatic:
		for i, r := range c.Search.Static {
			if strings.TrimSpace(r.Text) == "" {
				return NewConfigError(fmt.Sprintf("search.static[%d]: text is required", i))
			}
		}
	default:
		return NewConfigError(fmt.Sprintf("unsupported search provider %q", c.Search.Provider))
	}
	if c.Search.MaxResults < 1 {
		return NewConfigError("search.max_results must be at least 1")
	}
	if c.Search.MaxRetries < 0 {
		return NewConfigError("search.max_retries must not be negative")
	}
	if c.Search.RateLimit < 0 {
		return NewConfigError("search.rate_limit must not be negative")
	}
	if c.Search.CacheSize < 0 {
		return NewConfigError("search.cache_size must not be negative")
	}

	if _, ok := defaultModels[c.Generation.Provider]; !ok {
		return NewConfigError(fmt.Sprintf("unsupported generation provider %q", c.Generation.Provider))
	}
	if c.Generation.MaxTokens < 1 {
		return NewConfigError("generation.max_tokens must be at least 1")
	}
	if c.Generation.Temperature < 0 || c.Generation.Temperature > 2 {
		return NewConfigError("generation.temperature must be between 0 and 2")
	}
	if c.Generation.Provider == GenerationAzure && c.Generation.BaseURL == "" {
		return NewConfigError("generation.base_url must be set to the Azure AI Foundry endpoint")
	}
	if c.Generation.Timeout <= 0 {
		return NewConfigError("generation.timeout must be positive")
	}

	if c.Writer.TargetWords < 50 {
		return NewConfigError("writer.target_words must be at least 50")
	}

	switch c.Output.Format {
	case FormatMarkdown, FormatHTML:
	default:
		return NewConfigError(fmt.Sprintf("unsupported output format %q", c.Output.Format))
	}
	switch c.Output.Render {
	case RenderAuto, RenderAlways, RenderNever:
	default:
		return NewConfigError(fmt.Sprintf("unsupported render mode %q", c.Output.Render))
	}

	if c.Tracing.Enabled && c.Tracing.Endpoint == "" {
		return NewConfigError("tracing.endpoint must be set when tracing is enabled")
	}
	return nil
}

// ConfigError represents a configuration error
type ConfigError struct {
	message string
}

// NewConfigError creates a new configuration error
func NewConfigError(message string) *ConfigError {
	return &ConfigError{message: message}
}

// Error returns the error message
func (e *ConfigError) Error() string {
	return e.message
}
