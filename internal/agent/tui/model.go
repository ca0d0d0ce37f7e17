package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/moolen/researchlab/internal/agent/multiagent/types"
)

// stageRow is one line of the progress view.
type stageRow struct {
	stage   types.State
	attempt int
	status  Status
	elapsed time.Duration
	note    string
}

// Model is the Bubble Tea model of the progress view. It shows the stages
// of the current run in the order they started.
type Model struct {
	runID string
	topic string
	rows  []stageRow

	spinner  spinner.Model
	finished bool
	reason   types.TerminationReason
	revs     int
	err      error
}

// NewModel creates an empty progress model.
func NewModel() Model {
	return Model{spinner: newSpinner()}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case RunStartedMsg:
		// A new run replaces the previous one; batch mode reuses the view.
		m.runID = msg.RunID
		m.topic = msg.Topic
		m.rows = nil
		m.finished = false
		m.reason = ""
		m.revs = 0
		m.err = nil
		return m, nil

	case StageStartedMsg:
		m.rows = append(m.rows, stageRow{stage: msg.Stage, attempt: msg.Attempt, status: StatusActive})
		return m, nil

	case StageCompletedMsg:
		if i := m.findActive(msg.Stage, msg.Attempt); i >= 0 {
			m.rows[i].elapsed = msg.Elapsed
			m.rows[i].status = StatusCompleted
			if msg.Err != nil {
				m.rows[i].status = StatusError
				m.rows[i].note = msg.Err.Error()
			}
		}
		return m, nil

	case VerdictMsg:
		if i := m.findLast(types.StateReviewing, msg.Attempt); i >= 0 {
			if msg.Approved {
				m.rows[i].note = "approved"
			} else {
				m.rows[i].note = fmt.Sprintf("%d issue(s)", msg.Issues)
			}
		}
		return m, nil

	case RunFinishedMsg:
		m.finished = true
		m.reason = msg.Reason
		m.revs = msg.Revisions
		m.err = msg.Err
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m Model) findActive(stage types.State, attempt int) int {
	for i := len(m.rows) - 1; i >= 0; i-- {
		r := m.rows[i]
		if r.stage == stage && r.attempt == attempt && r.status == StatusActive {
			return i
		}
	}
	return -1
}

func (m Model) findLast(stage types.State, attempt int) int {
	for i := len(m.rows) - 1; i >= 0; i-- {
		if m.rows[i].stage == stage && m.rows[i].attempt == attempt {
			return i
		}
	}
	return -1
}

// View implements tea.Model.
func (m Model) View() string {
	if m.topic == "" {
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("researchlab"))
	b.WriteString(" ")
	b.WriteString(topicStyle.Render(m.topic))
	b.WriteString("\n")

	for _, r := range m.rows {
		b.WriteString(m.renderRow(r))
		b.WriteString("\n")
	}

	if m.finished {
		if m.err != nil {
			b.WriteString(summaryFailStyle.Render("✗ failed: " + m.err.Error()))
		} else {
			b.WriteString(summaryOKStyle.Render(fmt.Sprintf("✓ done (%s, %d revision(s))", m.reason, m.revs)))
		}
		b.WriteString("\n")
	}

	return b.String()
}

func (m Model) renderRow(r stageRow) string {
	var icon string
	switch r.status {
	case StatusActive:
		icon = m.spinner.View()
	case StatusCompleted:
		icon = stageDoneStyle.Render("✓")
	case StatusError:
		icon = stageErrorStyle.Render("✗")
	default:
		icon = " "
	}

	line := fmt.Sprintf("%s %s", icon, stageNameStyle.Render(r.stage.Stage()))
	if r.attempt > 0 {
		line += stageMetaStyle.Render(fmt.Sprintf(" #%d", r.attempt))
	}
	if r.status != StatusActive {
		line += stageMetaStyle.Render(" " + formatElapsed(r.elapsed))
	}
	if r.note != "" {
		style := stageMetaStyle
		switch {
		case r.status == StatusError:
			style = stageErrorStyle
		case r.note != "approved":
			style = issuesStyle
		}
		line += " " + style.Render(r.note)
	}
	return line
}

func formatElapsed(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}
