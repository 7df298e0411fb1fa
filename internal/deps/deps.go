// Package deps checks for the external programs spectracast can use.
package deps

import (
	"fmt"
	"os/exec"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/olivier-w/spectracast/internal/config"
)

var (
	okMark      = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#2E7D32", Dark: "#66BB6A"}).Render("✓")
	missingMark = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#C62828", Dark: "#EF5350"}).Render("✗")
	optionMark  = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#999999", Dark: "#666666"}).Render("○")
	headStyle   = lipgloss.NewStyle().Bold(true)
	pathStyle   = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#888888", Dark: "#888888"})
)

// Dependency is an external program.
type Dependency struct {
	Name        string // command name or path
	Description string
	Required    bool
}

// CheckResult is the outcome of looking up one dependency.
type CheckResult struct {
	Dependency Dependency
	Available  bool
	Path       string
	Error      error
}

// List returns the dependencies implied by cfg. ffmpeg and ffprobe only
// widen the accepted audio formats; a configured engine command is
// required to render.
func List(cfg *config.Config) []Dependency {
	deps := []Dependency{
		{Name: cfg.FFmpeg.BinaryPath, Description: "Decoding audio formats without a native decoder"},
		{Name: cfg.FFmpeg.FFprobePath, Description: "Probing audio streams for the ffmpeg fallback"},
	}
	if cfg.Engine.Command != "" {
		deps = append(deps, Dependency{Name: cfg.Engine.Command, Description: "External render engine", Required: true})
	}
	return deps
}

// Check looks up a single dependency on PATH.
func Check(dep Dependency) CheckResult {
	result := CheckResult{Dependency: dep}

	path, err := exec.LookPath(dep.Name)
	if err != nil {
		result.Error = err
	} else {
		result.Available = true
		result.Path = path
	}
	return result
}

// CheckAll checks every dependency in deps.
func CheckAll(deps []Dependency) []CheckResult {
	results := make([]CheckResult, 0, len(deps))
	for _, dep := range deps {
		results = append(results, Check(dep))
	}
	return results
}

// MissingRequired filters results down to unavailable required programs.
func MissingRequired(results []CheckResult) []CheckResult {
	var missing []CheckResult
	for _, r := range results {
		if r.Dependency.Required && !r.Available {
			missing = append(missing, r)
		}
	}
	return missing
}

// FormatAll renders check results, one program per line.
func FormatAll(results []CheckResult) string {
	var sb strings.Builder
	sb.WriteString(headStyle.Render("External programs:") + "\n")
	for _, r := range results {
		mark := optionMark
		if r.Available {
			mark = okMark
		} else if r.Dependency.Required {
			mark = missingMark
		}
		sb.WriteString(fmt.Sprintf("  %s %s - %s\n", mark, r.Dependency.Name, r.Dependency.Description))
		if r.Available {
			sb.WriteString(pathStyle.Render("      Path: "+r.Path) + "\n")
		}
	}
	if len(results) > 0 && !hasEngine(results) {
		sb.WriteString("\n" + pathStyle.Render("Rendering uses the built-in visualizer (no engine command configured).") + "\n")
	}
	return sb.String()
}

func hasEngine(results []CheckResult) bool {
	for _, r := range results {
		if r.Dependency.Required {
			return true
		}
	}
	return false
}
