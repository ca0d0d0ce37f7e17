package runner

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/moolen/researchlab/internal/agent/audit"
	"github.com/moolen/researchlab/internal/agent/multiagent/coordinator"
	"github.com/moolen/researchlab/internal/agent/multiagent/types"
	"github.com/moolen/researchlab/internal/logging"
	"github.com/moolen/researchlab/internal/metrics"
)

// auditObserver mirrors coordinator events into the JSONL audit log.
type auditObserver struct {
	coordinator.NopObserver
	log    *audit.Logger
	logger *logging.Logger
}

func newAuditObserver(l *audit.Logger) *auditObserver {
	return &auditObserver{log: l, logger: logging.GetLogger("audit")}
}

func (o *auditObserver) check(err error) {
	if err != nil {
		o.logger.Warn("Failed to write audit event: %v", err)
	}
}

func (o *auditObserver) RunStarted(_ context.Context, runID, topic string) {
	o.check(o.log.LogRunStart(runID, topic))
}

func (o *auditObserver) StageStarted(_ context.Context, runID string, stage types.State, attempt int) {
	o.check(o.log.LogStageStart(runID, stage.Stage(), attempt))
}

func (o *auditObserver) StageCompleted(_ context.Context, runID string, stage types.State, attempt int, elapsed time.Duration, err error) {
	o.check(o.log.LogStageComplete(runID, stage.Stage(), attempt, err == nil, elapsed))
}

func (o *auditObserver) DraftWritten(_ context.Context, runID string, draft types.Draft) {
	o.check(o.log.LogDraft(runID, draft.Attempt, draft.Title, draft.WordCount(), draft.Markdown))
}

func (o *auditObserver) VerdictReceived(_ context.Context, runID string, attempt int, verdict types.ReviewVerdict) {
	o.check(o.log.LogReviewVerdict(runID, attempt, verdict.Approved, verdict.Issues))
}

func (o *auditObserver) RunCompleted(_ context.Context, runID string, report *types.FinalReport, err error) {
	if err != nil {
		o.check(o.log.LogError(runID, failedStage(err), err))
		return
	}
	sources := make([]string, 0, len(report.Sources))
	for _, s := range report.Sources {
		sources = append(sources, s.Source)
	}
	o.check(o.log.LogRunComplete(runID, audit.RunSummary{
		Reason:    string(report.Reason),
		Revisions: report.Revisions,
		Approved:  report.Approved,
		Sources:   sources,
		Words:     len(strings.Fields(report.Markdown)),
		Duration:  report.FinishedAt.Sub(report.StartedAt),
	}))
}

// metricsObserver feeds the Prometheus pipeline metrics.
type metricsObserver struct {
	coordinator.NopObserver
	m *metrics.Metrics
}

func (o *metricsObserver) StageCompleted(_ context.Context, _ string, stage types.State, _ int, elapsed time.Duration, err error) {
	o.m.StageDuration.WithLabelValues(stage.Stage()).Observe(elapsed.Seconds())
	if err != nil {
		o.m.StageErrorsTotal.WithLabelValues(stage.Stage()).Inc()
	}
}

func (o *metricsObserver) RunCompleted(_ context.Context, _ string, report *types.FinalReport, err error) {
	if err != nil {
		o.m.RunsTotal.WithLabelValues(metrics.OutcomeFailed).Inc()
		return
	}
	outcome := metrics.OutcomeApproved
	if report.Reason == types.ReasonRevisionLimit {
		outcome = metrics.OutcomeRevisionLimit
	}
	o.m.RunsTotal.WithLabelValues(outcome).Inc()
	o.m.RevisionCycles.Observe(float64(report.Revisions))
	o.m.SourcesPerRun.Observe(float64(len(report.Sources)))
}

// logObserver reports stage progress on the console.
type logObserver struct {
	coordinator.NopObserver
	logger *logging.Logger
}

func (o *logObserver) StageCompleted(ctx context.Context, _ string, stage types.State, attempt int, elapsed time.Duration, err error) {
	if err != nil {
		return
	}
	o.logger.WithContext(ctx).Info("Stage %s (attempt %d) completed in %dms", stage.Stage(), attempt, elapsed.Milliseconds())
}

func (o *logObserver) VerdictReceived(ctx context.Context, _ string, attempt int, verdict types.ReviewVerdict) {
	log := o.logger.WithContext(ctx)
	if verdict.Approved {
		log.Info("Draft %d approved", attempt)
		return
	}
	log.Info("Draft %d has %d issue(s)", attempt, len(verdict.Issues))
	for i, issue := range verdict.Issues {
		log.Debug("  %d. %s", i+1, issue)
	}
}

func failedStage(err error) string {
	var stageErr *types.StageError
	if errors.As(err, &stageErr) {
		return stageErr.Stage.Stage()
	}
	return ""
}
