package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/olivier-w/spectracast/internal/render"
	"github.com/olivier-w/spectracast/internal/report"
	"github.com/olivier-w/spectracast/internal/util"
)

const printerBarWidth = 24

// Printer writes progress as a single line rewritten in place.
type Printer struct {
	w       io.Writer
	lastLen int
}

// NewPrinter returns a printer writing to w.
func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w}
}

func (p *Printer) line(s string) {
	pad := ""
	if n := p.lastLen - len(s); n > 0 {
		pad = strings.Repeat(" ", n)
	}
	p.lastLen = len(s)
	fmt.Fprint(p.w, "\r"+s+pad)
}

// Analyze reports extraction progress after done of total frames.
func (p *Printer) Analyze(done, total int) {
	bar := barStyle.Render(renderProgressBar(float64(done), float64(total), printerBarWidth))
	p.line(fmt.Sprintf("%s %s", bar, statusStyle.Render(fmt.Sprintf("Analyzing %d/%d", done, total))))
}

// Render reports render progress.
func (p *Printer) Render(pr render.Progress) {
	bar := barStyle.Render(renderProgressBar(float64(pr.Rendered), float64(pr.Total()), printerBarWidth))
	p.line(fmt.Sprintf("%s %s", bar, statusStyle.Render(FrameLine(pr))))
}

// Done ends the progress line.
func (p *Printer) Done() {
	if p.lastLen > 0 {
		fmt.Fprintln(p.w)
	}
	p.lastLen = 0
}

// ReportSummary describes a written feature report.
func ReportSummary(path string, meta report.Meta) string {
	var b strings.Builder
	b.WriteString(okStyle.Render("Wrote "+path) + "\n")
	if meta.Title != "" {
		b.WriteString("  " + titleStyle.Render(meta.Title))
		if meta.Artist != "" {
			b.WriteString(" " + artistStyle.Render("by "+meta.Artist))
		}
		b.WriteString("\n")
	}
	b.WriteString(helpStyle.Render(fmt.Sprintf("  %d frames @ %d fps, %.2fs, %d Hz", meta.TotalFrames, meta.FPS, meta.Duration, meta.SampleRate)) + "\n")
	return b.String()
}

// RenderSummary describes a finished render and how to mux it.
func RenderSummary(res *render.Result) string {
	var b strings.Builder
	b.WriteString(okStyle.Render(fmt.Sprintf("Done! Rendered %d frames in %s", res.Frames, util.FormatSeconds(res.Elapsed))) + "\n")
	b.WriteString(helpStyle.Render("  Average: "+util.FormatRate(res.FPS)) + "\n\n")
	b.WriteString(statusStyle.Render("Next step - compile with FFmpeg:") + "\n")
	b.WriteString("  " + res.MuxHint + "\n")
	return b.String()
}

// ErrorLine formats a fatal error for stderr.
func ErrorLine(err error) string {
	return errStyle.Render("Error: " + err.Error())
}
