package lifecycle

import "context"

// Component is anything the runner must bring up before a research run and
// tear down afterwards: the tracing exporter, the audit log, the metrics
// textfile writer.
type Component interface {
	// Start prepares the component. It must be safe to call once per Manager.Start.
	Start(ctx context.Context) error

	// Stop releases the component and flushes buffered data. It should respect
	// the context deadline.
	Stop(ctx context.Context) error

	// Name is used in log lines and error messages. Must be non-empty.
	Name() string
}

// Hook adapts a pair of functions into a Component. Nil functions are no-ops.
type Hook struct {
	Label   string
	OnStart func(ctx context.Context) error
	OnStop  func(ctx context.Context) error
}

// Start implements Component.
func (h *Hook) Start(ctx context.Context) error {
	if h.OnStart == nil {
		return nil
	}
	return h.OnStart(ctx)
}

// Stop implements Component.
func (h *Hook) Stop(ctx context.Context) error {
	if h.OnStop == nil {
		return nil
	}
	return h.OnStop(ctx)
}

// Name implements Component.
func (h *Hook) Name() string {
	return h.Label
}
