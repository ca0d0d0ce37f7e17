package runner

import (
	"context"
	"sync"
	"time"

	"github.com/moolen/researchlab/internal/agent/audit"
	"github.com/moolen/researchlab/internal/agent/provider"
	"github.com/moolen/researchlab/internal/logging"
	"github.com/moolen/researchlab/internal/metrics"
)

// sessionUsage accumulates generation usage over a CLI session.
type sessionUsage struct {
	Requests     int
	InputTokens  int
	OutputTokens int
}

// instrumentedGenerator records every generation call in metrics, the audit
// log and the debug log before handing the response back.
type instrumentedGenerator struct {
	next    provider.Generator
	metrics *metrics.Metrics
	audit   *audit.Logger
	logger  *logging.Logger

	mu    sync.Mutex
	usage sessionUsage
}

func newInstrumentedGenerator(next provider.Generator, m *metrics.Metrics, a *audit.Logger) *instrumentedGenerator {
	return &instrumentedGenerator{
		next:    next,
		metrics: m,
		audit:   a,
		logger:  logging.GetLogger("provider"),
	}
}

func (g *instrumentedGenerator) Generate(ctx context.Context, req provider.Request) (*provider.Response, error) {
	start := time.Now()
	resp, err := g.next.Generate(ctx, req)
	elapsed := time.Since(start)

	log := g.logger.WithContext(ctx)
	if g.metrics != nil {
		var in, out int
		if resp != nil {
			in, out = resp.Usage.InputTokens, resp.Usage.OutputTokens
		}
		g.metrics.ObserveGeneration(g.next.Name(), in, out, err)
	}
	if err != nil {
		log.Debug("%s generation failed after %dms: %v", g.next.Name(), elapsed.Milliseconds(), err)
		return nil, err
	}

	g.mu.Lock()
	g.usage.Requests++
	g.usage.InputTokens += resp.Usage.InputTokens
	g.usage.OutputTokens += resp.Usage.OutputTokens
	g.mu.Unlock()

	log.DebugWithFields("Generation completed",
		logging.Field("provider", g.next.Name()),
		logging.Field("model", g.next.Model()),
		logging.Field("input_tokens", resp.Usage.InputTokens),
		logging.Field("output_tokens", resp.Usage.OutputTokens),
		logging.Field("stop_reason", string(resp.StopReason)),
		logging.Field("duration_ms", elapsed.Milliseconds()),
	)

	if g.audit != nil {
		if aerr := g.audit.LogLLMRequest(logging.RunIDFromContext(ctx), g.next.Name(), g.next.Model(),
			resp.Usage.InputTokens, resp.Usage.OutputTokens, string(resp.StopReason)); aerr != nil {
			log.Warn("Failed to write audit event: %v", aerr)
		}
	}
	return resp, nil
}

func (g *instrumentedGenerator) Name() string {
	return g.next.Name()
}

func (g *instrumentedGenerator) Model() string {
	return g.next.Model()
}

// Usage returns the totals of successful calls so far.
func (g *instrumentedGenerator) Usage() sessionUsage {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.usage
}
