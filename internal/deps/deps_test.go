package deps

import (
	"strings"
	"testing"

	"github.com/olivier-w/spectracast/internal/config"
)

func TestListAddsEngineWhenConfigured(t *testing.T) {
	cfg := config.Default()
	if got := len(List(cfg)); got != 2 {
		t.Fatalf("expected ffmpeg and ffprobe only, got %d", got)
	}
	cfg.Engine.Command = "my-engine"
	deps := List(cfg)
	if len(deps) != 3 || !deps[2].Required || deps[2].Name != "my-engine" {
		t.Fatalf("unexpected deps %+v", deps)
	}
}

func TestMissingRequired(t *testing.T) {
	results := CheckAll([]Dependency{
		{Name: "spectracast-missing-engine", Required: true},
		{Name: "spectracast-missing-tool"},
	})
	missing := MissingRequired(results)
	if len(missing) != 1 || missing[0].Dependency.Name != "spectracast-missing-engine" {
		t.Fatalf("unexpected missing %+v", missing)
	}
	if missing[0].Error == nil {
		t.Fatal("expected lookup error")
	}
}

func TestFormatAll(t *testing.T) {
	out := FormatAll([]CheckResult{
		{Dependency: Dependency{Name: "ffmpeg", Description: "decode"}, Available: true, Path: "/usr/bin/ffmpeg"},
		{Dependency: Dependency{Name: "ffprobe", Description: "probe"}},
	})
	for _, want := range []string{"ffmpeg - decode", "Path: /usr/bin/ffmpeg", "ffprobe - probe", "built-in visualizer"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
}
