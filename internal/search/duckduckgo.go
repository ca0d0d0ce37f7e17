package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/moolen/researchlab/internal/logging"
	"golang.org/x/time/rate"
)

// DefaultDuckDuckGoURL is the DuckDuckGo Instant Answer API endpoint.
const DefaultDuckDuckGoURL = "https://api.duckduckgo.com/"

// DuckDuckGoConfig configures the DuckDuckGo searcher.
type DuckDuckGoConfig struct {
	BaseURL string
	Timeout time.Duration
	// MaxRetries is the number of retries after the first attempt.
	MaxRetries int
	// RateLimit is the maximum number of requests per second. 0 disables limiting.
	RateLimit float64
}

// DuckDuckGo queries the DuckDuckGo Instant Answer API. Transient failures
// (network errors, 429 and 5xx responses) are retried with exponential backoff.
type DuckDuckGo struct {
	client     *http.Client
	baseURL    string
	maxRetries int
	limiter    *rate.Limiter
	logger     *logging.Logger

	// newBackOff is replaced in tests to avoid sleeping.
	newBackOff func() backoff.BackOff
}

// NewDuckDuckGo creates a DuckDuckGo searcher.
func NewDuckDuckGo(cfg DuckDuckGoConfig) *DuckDuckGo {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultDuckDuckGoURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}

	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}

	return &DuckDuckGo{
		client:     &http.Client{Timeout: cfg.Timeout},
		baseURL:    cfg.BaseURL,
		maxRetries: cfg.MaxRetries,
		limiter:    rate.NewLimiter(limit, 1),
		logger:     logging.GetLogger("search.duckduckgo"),
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 500 * time.Millisecond
			b.MaxInterval = 5 * time.Second
			return b
		},
	}
}

// Name implements Searcher.
func (d *DuckDuckGo) Name() string {
	return "duckduckgo"
}

// Search implements Searcher.
func (d *DuckDuckGo) Search(ctx context.Context, query string, limit int) ([]Result, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}

	var results []Result
	attempt := 0
	op := func() error {
		attempt++
		if err := d.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(err)
		}
		r, err := d.fetch(ctx, query)
		if err != nil {
			d.logger.Debug("Search attempt %d for %q failed: %v", attempt, query, err)
			return err
		}
		results = r
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(d.newBackOff(), uint64(d.maxRetries)), ctx)
	if err := backoff.Retry(op, policy); err != nil {
		return nil, fmt.Errorf("duckduckgo search failed after %d attempt(s): %w", attempt, err)
	}

	d.logger.Debug("Search for %q returned %d result(s)", query, len(results))
	return truncate(results, limit), nil
}

type ddgTopic struct {
	Text     string     `json:"Text"`
	FirstURL string     `json:"FirstURL"`
	Name     string     `json:"Name"`
	Topics   []ddgTopic `json:"Topics"`
}

type ddgResponse struct {
	Heading        string     `json:"Heading"`
	AbstractText   string     `json:"AbstractText"`
	AbstractURL    string     `json:"AbstractURL"`
	AbstractSource string     `json:"AbstractSource"`
	Answer         string     `json:"Answer"`
	Definition     string     `json:"Definition"`
	DefinitionURL  string     `json:"DefinitionURL"`
	Results        []ddgTopic `json:"Results"`
	RelatedTopics  []ddgTopic `json:"RelatedTopics"`
}

func (d *DuckDuckGo) fetch(ctx context.Context, query string) ([]Result, error) {
	u, err := url.Parse(d.baseURL)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("invalid base URL: %w", err))
	}
	q := u.Query()
	q.Set("q", query)
	q.Set("format", "json")
	q.Set("no_html", "1")
	q.Set("skip_disambig", "1")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "researchlab")

	resp, err := d.client.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, backoff.Permanent(err)
		}
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		statusErr := fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return nil, statusErr
		}
		return nil, backoff.Permanent(statusErr)
	}

	var parsed ddgResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, backoff.Permanent(fmt.Errorf("failed to parse response: %w", err))
	}
	return parsed.results(), nil
}

// results flattens an Instant Answer response into ranked results: the
// abstract first, then direct results, then related topics. Duplicate URLs
// are dropped.
func (r ddgResponse) results() []Result {
	var out []Result
	seen := map[string]bool{}
	add := func(res Result) {
		if strings.TrimSpace(res.Text) == "" {
			return
		}
		if res.Source != "" {
			if seen[res.Source] {
				return
			}
			seen[res.Source] = true
		}
		out = append(out, res)
	}

	if r.AbstractText != "" {
		title := r.Heading
		if r.AbstractSource != "" && title != "" {
			title = fmt.Sprintf("%s (%s)", r.Heading, r.AbstractSource)
		}
		add(Result{Title: title, Text: r.AbstractText, Source: r.AbstractURL})
	}
	if r.Answer != "" {
		add(Result{Title: r.Heading, Text: r.Answer})
	}
	if r.Definition != "" {
		add(Result{Title: r.Heading, Text: r.Definition, Source: r.DefinitionURL})
	}
	for _, t := range flattenTopics(r.Results) {
		add(topicResult(t))
	}
	for _, t := range flattenTopics(r.RelatedTopics) {
		add(topicResult(t))
	}
	return out
}

func flattenTopics(topics []ddgTopic) []ddgTopic {
	var out []ddgTopic
	for _, t := range topics {
		if len(t.Topics) > 0 {
			out = append(out, flattenTopics(t.Topics)...)
			continue
		}
		out = append(out, t)
	}
	return out
}

// topicResult splits "Title - description" topic text.
func topicResult(t ddgTopic) Result {
	title, text := t.Text, t.Text
	if i := strings.Index(t.Text, " - "); i > 0 {
		title = t.Text[:i]
		text = t.Text[i+3:]
	}
	return Result{Title: title, Text: text, Source: t.FirstURL}
}
