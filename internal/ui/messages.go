package ui

import "github.com/olivier-w/spectracast/internal/render"

// renderStatusMsg wraps a progress snapshot for the Bubbletea message loop.
type renderStatusMsg render.Progress

// renderDoneMsg signals the render goroutine finished.
type renderDoneMsg struct {
	result *render.Result
	err    error
}
