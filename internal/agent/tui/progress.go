package tui

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/moolen/researchlab/internal/agent/multiagent/types"
)

// Progress is a coordinator observer that forwards pipeline events to a
// Bubble Tea program rendering the progress view inline.
type Progress struct {
	program *tea.Program

	mu      sync.Mutex
	started bool
	done    chan struct{}
	err     error
}

// NewProgress creates a progress view writing to out. It reads no input;
// interrupts are left to the caller's signal handling.
func NewProgress(out io.Writer) *Progress {
	return &Progress{
		program: tea.NewProgram(
			NewModel(),
			tea.WithOutput(out),
			tea.WithInput(nil),
			tea.WithoutSignalHandler(),
		),
		done: make(chan struct{}),
	}
}

// Start runs the program in the background.
func (p *Progress) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return
	}
	p.started = true

	go func() {
		defer close(p.done)
		_, err := p.program.Run()
		p.mu.Lock()
		p.err = err
		p.mu.Unlock()
	}()
}

// Stop quits the program and waits for the final frame to be written.
func (p *Progress) Stop(timeout time.Duration) error {
	p.mu.Lock()
	started := p.started
	p.mu.Unlock()
	if !started {
		return nil
	}

	p.program.Quit()
	select {
	case <-p.done:
	case <-time.After(timeout):
		p.program.Kill()
		<-p.done
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if errors.Is(p.err, tea.ErrProgramKilled) {
		return nil
	}
	return p.err
}

// send drops messages until Start was called; Program.Send would block.
func (p *Progress) send(msg tea.Msg) {
	p.mu.Lock()
	started := p.started
	p.mu.Unlock()
	if started {
		p.program.Send(msg)
	}
}

func (p *Progress) RunStarted(_ context.Context, runID, topic string) {
	p.send(RunStartedMsg{RunID: runID, Topic: topic, At: time.Now()})
}

func (p *Progress) StageStarted(_ context.Context, _ string, stage types.State, attempt int) {
	p.send(StageStartedMsg{Stage: stage, Attempt: attempt, At: time.Now()})
}

func (p *Progress) StageCompleted(_ context.Context, _ string, stage types.State, attempt int, elapsed time.Duration, err error) {
	p.send(StageCompletedMsg{Stage: stage, Attempt: attempt, Elapsed: elapsed, Err: err})
}

// DraftWritten is not shown; the write row already carries the attempt.
func (p *Progress) DraftWritten(context.Context, string, types.Draft) {}

func (p *Progress) VerdictReceived(_ context.Context, _ string, attempt int, verdict types.ReviewVerdict) {
	p.send(VerdictMsg{Attempt: attempt, Issues: len(verdict.Issues), Approved: verdict.Approved})
}

func (p *Progress) RunCompleted(_ context.Context, _ string, report *types.FinalReport, err error) {
	msg := RunFinishedMsg{Err: err}
	if report != nil {
		msg.Reason = report.Reason
		msg.Revisions = report.Revisions
	}
	p.send(msg)
}
