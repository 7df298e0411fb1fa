package ui

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/olivier-w/spectracast/internal/render"
)

var errCancelled = errors.New("render was cancelled")

// RenderFunc runs a render, reporting snapshots through progress.
type RenderFunc func(ctx context.Context, progress func(render.Progress)) (*render.Result, error)

// RenderResult holds the outcome of a render run.
type RenderResult struct {
	Result *render.Result
	Err    error
}

// RenderModel is the Bubbletea model for the render screen. The render
// runs on one worker goroutine; snapshots arrive over a channel.
type RenderModel struct {
	title    string
	spinner  spinner.Model
	progress progress.Model
	status   render.Progress
	started  bool
	result   *RenderResult
	width    int
	quitting bool

	run      RenderFunc
	ctx      context.Context
	cancel   context.CancelFunc
	statusCh chan render.Progress
	finished chan struct{}
}

// NewRender creates a render model. title is shown above the bar.
func NewRender(ctx context.Context, title string, run RenderFunc) RenderModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#555555", Dark: "#AAAAAA"})

	p := progress.New(
		progress.WithScaledGradient("#FF8C00", "#FF5F1F"),
		progress.WithoutPercentage(),
	)

	ctx, cancel := context.WithCancel(ctx)
	return RenderModel{
		title:    title,
		spinner:  s,
		progress: p,
		run:      run,
		ctx:      ctx,
		cancel:   cancel,
		statusCh: make(chan render.Progress, 64),
		finished: make(chan struct{}),
	}
}

// Result returns the render result after the program finishes.
func (m RenderModel) Result() RenderResult {
	if m.result != nil {
		return *m.result
	}
	return RenderResult{Err: errCancelled}
}

// Wait blocks until the worker goroutine has returned, so the render
// target is torn down before the caller exits.
func (m RenderModel) Wait() {
	<-m.finished
}

func (m RenderModel) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		m.startRender(),
		m.waitForStatus(),
	)
}

func (m RenderModel) startRender() tea.Cmd {
	return func() tea.Msg {
		defer close(m.finished)
		res, err := m.run(m.ctx, func(p render.Progress) {
			select {
			case m.statusCh <- p:
			case <-m.ctx.Done():
			}
		})
		close(m.statusCh)
		return renderDoneMsg{result: res, err: err}
	}
}

func (m RenderModel) waitForStatus() tea.Cmd {
	return func() tea.Msg {
		p, ok := <-m.statusCh
		if !ok {
			return nil
		}
		return renderStatusMsg(p)
	}
}

func (m RenderModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if isQuit(msg) {
			m.quitting = true
			m.cancel()
			m.result = &RenderResult{Err: errCancelled}
			return m, tea.Quit
		}

	case renderStatusMsg:
		m.status = render.Progress(msg)
		m.started = true
		return m, m.waitForStatus()

	case renderDoneMsg:
		if m.result == nil {
			m.result = &RenderResult{Result: msg.result, Err: msg.err}
		}
		m.quitting = true
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.progress.Width = msg.Width - 8
		if m.progress.Width < 20 {
			m.progress.Width = 20
		}
		if m.progress.Width > 60 {
			m.progress.Width = 60
		}
		return m, nil
	}

	return m, nil
}

func (m RenderModel) View() string {
	if m.quitting {
		return ""
	}

	lines := "\n"
	lines += "  " + headerStyle.Render("spectracast") + "\n"
	if m.title != "" {
		lines += "  " + titleStyle.Render(m.title) + "\n"
	}
	lines += "\n"

	if !m.started {
		lines += "  " + m.spinner.View() + " " + statusStyle.Render("Launching render target...") + "\n"
	} else {
		r := ratio(m.status)
		lines += "  " + m.progress.ViewAs(r) + fmt.Sprintf("  %.0f%%", r*100) + "\n"
		lines += "  " + helpStyle.Render(FrameLine(m.status)) + "\n"
	}

	lines += "\n  " + helpStyle.Render(helpText()) + "\n"
	return lines
}
