// Package coordinator drives the research pipeline: research, write, review
// and a bounded number of revisions, as an explicit state machine.
package coordinator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/moolen/researchlab/internal/agent/multiagent/types"
	"github.com/moolen/researchlab/internal/agent/multiagent/writer"
	"github.com/moolen/researchlab/internal/logging"
)

// Researcher gathers source snippets for a topic.
type Researcher interface {
	Research(ctx context.Context, topic string) ([]types.SourceSnippet, error)
}

// Writer produces a draft, or a revision of the previous one.
type Writer interface {
	Write(ctx context.Context, req writer.Request) (types.Draft, error)
}

// Reviewer critiques a draft.
type Reviewer interface {
	Review(ctx context.Context, topic string, draft types.Draft) (types.ReviewVerdict, error)
}

// Config controls the revision loop.
type Config struct {
	// MaxRevisions caps the revision cycles after the first review. Zero
	// accepts the first draft whatever the verdict.
	MaxRevisions int

	// RunTimeout bounds the whole run. Zero means no run-level deadline.
	RunTimeout time.Duration
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithObserver registers an observer. Observers are called in registration order.
func WithObserver(o Observer) Option {
	return func(c *Coordinator) { c.observers = append(c.observers, o) }
}

// WithClock replaces time.Now for transition timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) { c.now = now }
}

// WithRunIDGenerator replaces the random run id generator.
func WithRunIDGenerator(gen func() string) Option {
	return func(c *Coordinator) { c.newRunID = gen }
}

// WithTracer sets the tracer used for run and stage spans.
func WithTracer(t trace.Tracer) Option {
	return func(c *Coordinator) { c.tracer = t }
}

// Coordinator owns the pipeline state. A Coordinator may be reused for
// several sequential runs; it must not be shared between concurrent runs.
type Coordinator struct {
	researcher Researcher
	writer     Writer
	reviewer   Reviewer
	cfg        Config

	observers Observers
	now       func() time.Time
	newRunID  func() string
	tracer    trace.Tracer
	logger    *logging.Logger
}

// New creates a Coordinator.
func New(r Researcher, w Writer, rv Reviewer, cfg Config, opts ...Option) *Coordinator {
	c := &Coordinator{
		researcher: r,
		writer:     w,
		reviewer:   rv,
		cfg:        cfg,
		now:        time.Now,
		newRunID:   uuid.NewString,
		tracer:     otel.Tracer("researchlab/coordinator"),
		logger:     logging.GetLogger("coordinator"),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.cfg.MaxRevisions < 0 {
		c.cfg.MaxRevisions = 0
	}
	return c
}

// run is the mutable state of one pipeline execution.
type run struct {
	id          string
	topic       string
	state       types.State
	transitions []types.Transition
}

// Run executes the pipeline for topic. On DONE it returns the final report;
// reaching the revision limit is a normal DONE. On FAILED it returns a
// *types.StageError naming the failing stage and no report.
func (c *Coordinator) Run(ctx context.Context, topic string) (*types.FinalReport, error) {
	r := &run{id: c.newRunID(), topic: strings.TrimSpace(topic), state: types.StateStart}
	startedAt := c.now()

	if c.cfg.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.RunTimeout)
		defer cancel()
	}
	ctx = logging.WithRunID(ctx, r.id)
	ctx, span := c.tracer.Start(ctx, "research.Run",
		trace.WithAttributes(
			attribute.String("run.id", r.id),
			attribute.String("run.topic", r.topic),
			attribute.Int("run.max_revisions", c.cfg.MaxRevisions),
		),
	)
	defer span.End()

	log := c.logger.WithContext(ctx)
	c.observers.RunStarted(ctx, r.id, r.topic)

	fail := func(stage types.State, err error) (*types.FinalReport, error) {
		c.moveTo(r, types.StateFailed)
		stageErr := &types.StageError{Stage: stage, Err: err}
		span.RecordError(stageErr)
		span.SetStatus(codes.Error, stage.Stage()+" failed")
		log.Error("Run failed in %s: %v", stage, err)
		c.observers.RunCompleted(ctx, r.id, nil, stageErr)
		return nil, stageErr
	}

	if r.topic == "" {
		return fail(types.StateStart, types.ErrEmptyTopic)
	}
	log.Info("Starting research run on %q (max revisions %d)", r.topic, c.cfg.MaxRevisions)

	// RESEARCHING
	c.moveTo(r, types.StateResearching)
	var sources []types.SourceSnippet
	err := c.stage(ctx, r, 0, func(ctx context.Context) error {
		var err error
		sources, err = c.researcher.Research(ctx, r.topic)
		return err
	})
	if err != nil {
		return fail(types.StateResearching, err)
	}

	var (
		draft     types.Draft
		drafts    []types.Draft
		verdict   types.ReviewVerdict
		previous  *types.Draft
		revisions int
		reason    types.TerminationReason
	)
	for {
		// WRITING
		c.moveTo(r, types.StateWriting)
		err = c.stage(ctx, r, revisions, func(ctx context.Context) error {
			var err error
			draft, err = c.writer.Write(ctx, writer.Request{
				Topic:    r.topic,
				Sources:  sources,
				Previous: previous,
				Issues:   verdict.Issues,
				Attempt:  revisions,
			})
			return err
		})
		if err != nil {
			return fail(types.StateWriting, err)
		}
		drafts = append(drafts, draft)
		c.observers.DraftWritten(ctx, r.id, draft)

		// REVIEWING
		c.moveTo(r, types.StateReviewing)
		err = c.stage(ctx, r, revisions, func(ctx context.Context) error {
			var err error
			verdict, err = c.reviewer.Review(ctx, r.topic, draft)
			return err
		})
		if err != nil {
			return fail(types.StateReviewing, err)
		}
		c.observers.VerdictReceived(ctx, r.id, revisions, verdict)

		if verdict.Approved {
			reason = types.ReasonApproved
			break
		}
		if revisions >= c.cfg.MaxRevisions {
			reason = types.ReasonRevisionLimit
			log.Info("Revision limit reached with %d open issue(s); accepting draft %d", len(verdict.Issues), revisions)
			break
		}

		// REVISING
		c.moveTo(r, types.StateRevising)
		revisions++
		accepted := draft
		previous = &accepted
		log.Debug("Starting revision %d for %d issue(s)", revisions, len(verdict.Issues))
	}

	c.moveTo(r, types.StateDone)
	report := &types.FinalReport{
		RunID:       r.id,
		Topic:       r.topic,
		Title:       draft.Title,
		Markdown:    draft.Markdown,
		Sources:     sources,
		Drafts:      drafts,
		Verdict:     verdict,
		Revisions:   revisions,
		Approved:    verdict.Approved,
		Reason:      reason,
		Transitions: r.transitions,
		StartedAt:   startedAt,
		FinishedAt:  c.now(),
	}

	span.SetAttributes(
		attribute.Int("run.revisions", revisions),
		attribute.String("run.reason", string(reason)),
		attribute.Int("run.sources", len(sources)),
	)
	span.SetStatus(codes.Ok, "research run completed")
	log.Info("Run completed: reason=%s, revisions=%d, words=%d", reason, revisions, draft.WordCount())
	c.observers.RunCompleted(ctx, r.id, report, nil)
	return report, nil
}

// stage runs one collaborator call inside a span and reports it to observers.
// A context that is already done fails the stage without calling fn.
func (c *Coordinator) stage(ctx context.Context, r *run, attempt int, fn func(context.Context) error) error {
	stage := r.state
	ctx, span := c.tracer.Start(ctx, "research."+stage.Stage(),
		trace.WithAttributes(
			attribute.String("stage", stage.Stage()),
			attribute.Int("attempt", attempt),
		),
	)
	defer span.End()

	c.observers.StageStarted(ctx, r.id, stage, attempt)
	start := time.Now()

	err := ctx.Err()
	if err == nil {
		err = fn(ctx)
	}

	c.observers.StageCompleted(ctx, r.id, stage, attempt, time.Since(start), err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

// moveTo records a transition. Run only requests edges from the state table,
// so an illegal edge is a programming error.
func (c *Coordinator) moveTo(r *run, next types.State) {
	if !r.state.CanTransition(next) {
		panic(fmt.Sprintf("coordinator: illegal transition %s -> %s", r.state, next))
	}
	r.transitions = append(r.transitions, types.Transition{From: r.state, To: next, At: c.now()})
	c.logger.Debug("Run %s: %s -> %s", r.id, r.state, next)
	r.state = next
}
