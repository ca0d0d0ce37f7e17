package coordinator

import (
	"context"
	"time"

	"github.com/moolen/researchlab/internal/agent/multiagent/types"
)

// Observer is notified of pipeline progress. Implementations must not block;
// they run on the coordinator's goroutine.
type Observer interface {
	RunStarted(ctx context.Context, runID, topic string)
	StageStarted(ctx context.Context, runID string, stage types.State, attempt int)
	StageCompleted(ctx context.Context, runID string, stage types.State, attempt int, elapsed time.Duration, err error)
	// DraftWritten is called after each successful writing stage.
	DraftWritten(ctx context.Context, runID string, draft types.Draft)
	VerdictReceived(ctx context.Context, runID string, attempt int, verdict types.ReviewVerdict)
	// RunCompleted is called exactly once per run. report is nil when err is set.
	RunCompleted(ctx context.Context, runID string, report *types.FinalReport, err error)
}

// NopObserver ignores all notifications. Embed it to implement a subset of Observer.
type NopObserver struct{}

func (NopObserver) RunStarted(context.Context, string, string) {}

func (NopObserver) StageStarted(context.Context, string, types.State, int) {}

func (NopObserver) StageCompleted(context.Context, string, types.State, int, time.Duration, error) {}

func (NopObserver) DraftWritten(context.Context, string, types.Draft) {}

func (NopObserver) VerdictReceived(context.Context, string, int, types.ReviewVerdict) {}

func (NopObserver) RunCompleted(context.Context, string, *types.FinalReport, error) {}

// Observers fans notifications out to several observers in order.
type Observers []Observer

func (o Observers) RunStarted(ctx context.Context, runID, topic string) {
	for _, obs := range o {
		obs.RunStarted(ctx, runID, topic)
	}
}

func (o Observers) StageStarted(ctx context.Context, runID string, stage types.State, attempt int) {
	for _, obs := range o {
		obs.StageStarted(ctx, runID, stage, attempt)
	}
}

func (o Observers) StageCompleted(ctx context.Context, runID string, stage types.State, attempt int, elapsed time.Duration, err error) {
	for _, obs := range o {
		obs.StageCompleted(ctx, runID, stage, attempt, elapsed, err)
	}
}

func (o Observers) DraftWritten(ctx context.Context, runID string, draft types.Draft) {
	for _, obs := range o {
		obs.DraftWritten(ctx, runID, draft)
	}
}

func (o Observers) VerdictReceived(ctx context.Context, runID string, attempt int, verdict types.ReviewVerdict) {
	for _, obs := range o {
		obs.VerdictReceived(ctx, runID, attempt, verdict)
	}
}

func (o Observers) RunCompleted(ctx context.Context, runID string, report *types.FinalReport, err error) {
	for _, obs := range o {
		obs.RunCompleted(ctx, runID, report, err)
	}
}
