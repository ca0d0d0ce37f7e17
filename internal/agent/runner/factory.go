package runner

import (
	"context"
	"fmt"
	"time"

	"github.com/moolen/researchlab/internal/agent/provider"
	"github.com/moolen/researchlab/internal/config"
	"github.com/moolen/researchlab/internal/search"
)

// searchCacheTTL bounds how long a cached search result is reused within one
// process; batch runs over related topics are the main beneficiary.
const searchCacheTTL = 30 * time.Minute

// NewGenerator builds the text-generation provider selected by cfg.
// Credentials must already be resolved.
func NewGenerator(ctx context.Context, cfg config.GenerationConfig) (provider.Generator, error) {
	settings := provider.Settings{
		Model:   cfg.Model,
		APIKey:  cfg.APIKey,
		BaseURL: cfg.BaseURL,
		Timeout: cfg.Timeout,
	}

	var (
		gen provider.Generator
		err error
	)
	switch cfg.Provider {
	case config.GenerationHuggingFace:
		gen, err = provider.NewHuggingFaceGenerator(settings)
	case config.GenerationOpenAI:
		gen, err = provider.NewOpenAIGenerator(settings)
	case config.GenerationAnthropic:
		gen, err = provider.NewAnthropicGenerator(settings)
	case config.GenerationAzure:
		gen, err = provider.NewAzureFoundryGenerator(settings)
	case config.GenerationGemini:
		gen, err = provider.NewGeminiGenerator(ctx, settings)
	case config.GenerationEcho:
		gen = provider.NewEchoGenerator()
	default:
		return nil, fmt.Errorf("unsupported generation provider %q", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create %s generator: %w", cfg.Provider, err)
	}
	return gen, nil
}

// NewSearcher builds the search backend selected by cfg, wrapped in an LRU
// cache when search.cache_size is positive.
func NewSearcher(ctx context.Context, cfg config.SearchConfig) (search.Searcher, error) {
	var s search.Searcher
	switch cfg.Provider {
	case config.SearchDuckDuckGo:
		s = search.NewDuckDuckGo(search.DuckDuckGoConfig{
			BaseURL:    cfg.BaseURL,
			Timeout:    cfg.Timeout,
			MaxRetries: cfg.MaxRetries,
			RateLimit:  cfg.RateLimit,
		})
	case config.SearchGemini:
		client, err := provider.NewGenAIClient(ctx, provider.Settings{
			Model:   cfg.Model,
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
			Timeout: cfg.Timeout,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create gemini search client: %w", err)
		}
		s, err = search.NewGeminiSearcher(client, cfg.Model, cfg.Timeout)
		if err != nil {
			return nil, err
		}
	case config.SearchStatic:
		results := make([]search.Result, 0, len(cfg.Static))
		for _, r := range cfg.Static {
			results = append(results, search.Result{Title: r.Title, Text: r.Text, Source: r.Source})
		}
		s = search.NewStatic(results)
	default:
		return nil, fmt.Errorf("unsupported search provider %q", cfg.Provider)
	}

	if cfg.CacheSize <= 0 {
		return s, nil
	}
	cached, err := search.NewCachingSearcher(s, cfg.CacheSize, searchCacheTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to create search cache: %w", err)
	}
	return cached, nil
}
