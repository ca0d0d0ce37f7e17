// Package runner assembles the research pipeline from configuration: the
// search and generation collaborators, the four agents, and the audit,
// metrics and tracing components that observe a run.
package runner

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/moolen/researchlab/internal/agent/audit"
	"github.com/moolen/researchlab/internal/agent/multiagent/coordinator"
	"github.com/moolen/researchlab/internal/agent/multiagent/researcher"
	"github.com/moolen/researchlab/internal/agent/multiagent/reviewer"
	"github.com/moolen/researchlab/internal/agent/multiagent/types"
	"github.com/moolen/researchlab/internal/agent/multiagent/writer"
	"github.com/moolen/researchlab/internal/agent/provider"
	"github.com/moolen/researchlab/internal/config"
	"github.com/moolen/researchlab/internal/lifecycle"
	"github.com/moolen/researchlab/internal/logging"
	"github.com/moolen/researchlab/internal/metrics"
	"github.com/moolen/researchlab/internal/search"
	"github.com/moolen/researchlab/internal/tracing"
)

// componentStopTimeout bounds each component's shutdown so an unreachable
// trace collector cannot hold up flushing the audit log.
const componentStopTimeout = 5 * time.Second

// Option customizes how a Runner is assembled.
type Option func(*options)

type options struct {
	version         string
	sessionID       string
	generator       provider.Generator
	searcher        search.Searcher
	coordinatorOpts []coordinator.Option
}

// WithVersion sets the version reported in traces.
func WithVersion(v string) Option {
	return func(o *options) { o.version = v }
}

// WithSessionID sets the audit session id instead of a random one.
func WithSessionID(id string) Option {
	return func(o *options) { o.sessionID = id }
}

// WithGenerator replaces the configured generation provider.
func WithGenerator(g provider.Generator) Option {
	return func(o *options) { o.generator = g }
}

// WithSearcher replaces the configured search backend.
func WithSearcher(s search.Searcher) Option {
	return func(o *options) { o.searcher = s }
}

// WithCoordinatorOptions passes options through to the coordinator.
func WithCoordinatorOptions(opts ...coordinator.Option) Option {
	return func(o *options) { o.coordinatorOpts = append(o.coordinatorOpts, opts...) }
}

// Runner executes research runs for one CLI session.
type Runner struct {
	cfg       *config.Config
	sessionID string

	generator   *instrumentedGenerator
	searcher    search.Searcher
	coordinator *coordinator.Coordinator

	lifecycle *lifecycle.Manager
	tracing   *tracing.Provider
	audit     *audit.Logger
	metrics   *metrics.Metrics
	registry  *prometheus.Registry

	logger *logging.Logger
}

// New builds a Runner from a validated configuration with resolved
// credentials. Call Start before Run and Close when done.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*Runner, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.sessionID == "" {
		o.sessionID = uuid.NewString()
	}

	r := &Runner{
		cfg:       cfg,
		sessionID: o.sessionID,
		lifecycle: lifecycle.NewManager(),
		registry:  prometheus.NewRegistry(),
		logger:    logging.GetLogger("runner"),
	}
	r.metrics = metrics.NewMetrics(r.registry)
	r.lifecycle.SetShutdownTimeout(componentStopTimeout)

	var err error
	r.tracing, err = tracing.NewProvider(cfg.Tracing, o.version)
	if err != nil {
		return nil, fmt.Errorf("failed to create tracing provider: %w", err)
	}

	if cfg.AuditLogPath != "" {
		r.audit, err = audit.NewLogger(cfg.AuditLogPath, r.sessionID)
		if err != nil {
			return nil, fmt.Errorf("failed to create audit logger: %w", err)
		}
	}

	gen := o.generator
	if gen == nil {
		gen, err = NewGenerator(ctx, cfg.Generation)
		if err != nil {
			r.closeAudit()
			return nil, err
		}
	}
	r.generator = newInstrumentedGenerator(gen, r.metrics, r.audit)

	r.searcher = o.searcher
	if r.searcher == nil {
		r.searcher, err = NewSearcher(ctx, cfg.Search)
		if err != nil {
			r.closeAudit()
			return nil, err
		}
	}

	coordOpts := []coordinator.Option{
		coordinator.WithTracer(r.tracing.Tracer("researchlab/coordinator")),
		coordinator.WithObserver(&logObserver{logger: logging.GetLogger("pipeline")}),
		coordinator.WithObserver(&metricsObserver{m: r.metrics}),
	}
	if r.audit != nil {
		coordOpts = append(coordOpts, coordinator.WithObserver(newAuditObserver(r.audit)))
	}
	coordOpts = append(coordOpts, o.coordinatorOpts...)

	r.coordinator = coordinator.New(
		researcher.New(r.searcher, cfg.Search.MaxResults),
		writer.New(r.generator, writer.Config{
			TargetWords: cfg.Writer.TargetWords,
			MaxTokens:   cfg.Generation.MaxTokens,
			Temperature: cfg.Generation.Temperature,
		}),
		reviewer.New(r.generator, reviewer.Config{
			MaxTokens:   cfg.Generation.MaxTokens,
			Temperature: cfg.Generation.Temperature,
		}),
		coordinator.Config{
			MaxRevisions: cfg.MaxRevisions,
			RunTimeout:   cfg.RunTimeout,
		},
		coordOpts...,
	)

	if err := r.registerComponents(); err != nil {
		r.closeAudit()
		return nil, err
	}
	return r, nil
}

// registerComponents wires the session-scoped components into the lifecycle
// manager. Stop order is audit, metrics, tracing.
func (r *Runner) registerComponents() error {
	if err := r.lifecycle.Register(r.tracing); err != nil {
		return err
	}

	metricsHook := &lifecycle.Hook{
		Label: "metrics",
		OnStop: func(context.Context) error {
			if r.cfg.MetricsFile == "" {
				return nil
			}
			return metrics.WriteTextfile(r.cfg.MetricsFile, r.registry)
		},
	}
	if err := r.lifecycle.Register(metricsHook); err != nil {
		return err
	}

	if r.audit == nil {
		return nil
	}
	auditHook := &lifecycle.Hook{
		Label: "audit",
		OnStart: func(context.Context) error {
			return r.audit.LogSessionStart(r.generator.Name(), r.generator.Model(), r.searcher.Name())
		},
		OnStop: func(context.Context) error {
			usage := r.generator.Usage()
			if err := r.audit.LogSessionMetrics(usage.Requests, usage.InputTokens, usage.OutputTokens); err != nil {
				r.logger.Warn("Failed to write session metrics: %v", err)
			}
			if err := r.audit.LogSessionEnd(); err != nil {
				r.logger.Warn("Failed to write session end: %v", err)
			}
			return r.audit.Close()
		},
	}
	return r.lifecycle.Register(auditHook, r.tracing, metricsHook)
}

func (r *Runner) closeAudit() {
	if r.audit != nil {
		_ = r.audit.Close()
	}
}

// SessionID identifies this CLI session in the audit log.
func (r *Runner) SessionID() string {
	return r.sessionID
}

// Start brings up tracing and the audit session.
func (r *Runner) Start(ctx context.Context) error {
	r.logger.Debug("Session %s: generation=%s/%s search=%s tracing=%t",
		r.sessionID, r.generator.Name(), r.generator.Model(), r.searcher.Name(), r.tracing.IsEnabled())
	return r.lifecycle.Start(ctx)
}

// Run executes the pipeline for one topic.
func (r *Runner) Run(ctx context.Context, topic string) (*types.FinalReport, error) {
	report, err := r.coordinator.Run(ctx, topic)

	if cache, ok := r.searcher.(*search.CachingSearcher); ok {
		stats := cache.Stats()
		r.logger.Debug("Search cache: %d hits, %d misses, %d expired, %d entries",
			stats.Hits, stats.Misses, stats.Expired, stats.Items)
	}
	return report, err
}

// Close flushes the audit log, writes the metrics textfile and shuts down
// tracing.
func (r *Runner) Close(ctx context.Context) error {
	return r.lifecycle.Stop(ctx)
}
