package analysis

import (
	"bytes"
	"errors"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/olivier-w/spectracast/internal/audio"
	"github.com/olivier-w/spectracast/internal/report"
	"github.com/rs/zerolog"
)

func newTestExtractor() *Extractor {
	return New(zerolog.Nop())
}

func monoBuffer(sampleRate int, samples []float32) *audio.Buffer {
	return &audio.Buffer{SampleRate: sampleRate, Channels: [][]float32{samples}}
}

func noise(seed int64, n int) []float32 {
	rng := rand.New(rand.NewSource(seed))
	out := make([]float32, n)
	for i := range out {
		out[i] = float32(rng.Float64()*2 - 1)
	}
	return out
}

func assertUnit(t *testing.T, f report.Frame) {
	t.Helper()
	for name, v := range map[string]float64{"bass": f.Bass, "mid": f.Mid, "treble": f.Treble, "rms": f.RMS} {
		if v < 0 || v > 1 {
			t.Fatalf("frame %d: %s=%f outside [0,1]", f.Frame, name, v)
		}
	}
	for i, v := range f.Spectrum {
		if v < 0 || v > 1 {
			t.Fatalf("frame %d: bin %d=%f outside [0,1]", f.Frame, i, v)
		}
	}
}

func TestExtractSilenceIsAllZero(t *testing.T) {
	buf := monoBuffer(8000, make([]float32, 8000))
	r, err := newTestExtractor().Extract(t.Context(), buf, Options{FPS: 10, Source: "/tmp/silence.wav"})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if r.Meta.TotalFrames != 10 || len(r.Frames) != 10 {
		t.Fatalf("expected 10 frames, got meta=%d len=%d", r.Meta.TotalFrames, len(r.Frames))
	}
	if r.Meta.Source != "silence.wav" {
		t.Fatalf("expected base name source, got %q", r.Meta.Source)
	}
	if r.Meta.FFTSize != 256 || r.Meta.BinCount != 128 {
		t.Fatalf("unexpected fft meta %+v", r.Meta)
	}
	for i, f := range r.Frames {
		if f.Frame != i {
			t.Fatalf("expected index %d, got %d", i, f.Frame)
		}
		if f.Time != float64(i)/10 {
			t.Fatalf("frame %d: expected time %f, got %f", i, float64(i)/10, f.Time)
		}
		if f.Bass != 0 || f.Mid != 0 || f.Treble != 0 || f.RMS != 0 {
			t.Fatalf("frame %d: expected zero features, got %+v", i, f)
		}
		if len(f.Spectrum) != BinCount {
			t.Fatalf("frame %d: expected %d bins, got %d", i, BinCount, len(f.Spectrum))
		}
		assertUnit(t, f)
	}
}

func TestExtractFrameCountIsCeiling(t *testing.T) {
	cases := []struct {
		length, rate, fps, want int
	}{
		{44100, 44100, 30, 30},
		{44101, 44100, 30, 31},
		{4410, 44100, 30, 3},   // 0.1s * 30
		{22050, 44100, 60, 30}, // 0.5s * 60
		{0, 44100, 60, 0},
	}
	for _, tc := range cases {
		buf := monoBuffer(tc.rate, make([]float32, tc.length))
		r, err := newTestExtractor().Extract(t.Context(), buf, Options{FPS: tc.fps})
		if err != nil {
			t.Fatalf("Extract: %v", err)
		}
		if len(r.Frames) != tc.want || r.Meta.TotalFrames != tc.want {
			t.Errorf("length=%d rate=%d fps=%d: expected %d frames, got %d", tc.length, tc.rate, tc.fps, tc.want, len(r.Frames))
		}
	}
}

func TestExtractNoiseStaysInUnitRange(t *testing.T) {
	buf := &audio.Buffer{SampleRate: 11025, Channels: [][]float32{noise(1, 11025), noise(2, 11025)}}
	r, err := newTestExtractor().Extract(t.Context(), buf, Options{FPS: 25})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	for _, f := range r.Frames {
		assertUnit(t, f)
	}
}

func TestExtractIsDeterministic(t *testing.T) {
	samples := noise(7, 22050)
	var outputs [][]byte
	for i := 0; i < 2; i++ {
		r, err := newTestExtractor().Extract(t.Context(), monoBuffer(22050, samples), Options{FPS: 30, Source: "noise.wav"})
		if err != nil {
			t.Fatalf("Extract: %v", err)
		}
		data, err := r.Marshal()
		if err != nil {
			t.Fatal(err)
		}
		outputs = append(outputs, data)
	}
	if !bytes.Equal(outputs[0], outputs[1]) {
		t.Fatal("expected byte-identical reports")
	}
}

func TestExtractSineLandsInBass(t *testing.T) {
	// 100 Hz per bin at 25600 Hz; a 1000 Hz tone sits on bin 10 (bass ends at 12).
	const rate = 25600
	samples := make([]float32, rate)
	for i := range samples {
		samples[i] = float32(0.8 * math.Sin(2*math.Pi*1000*float64(i)/rate))
	}
	r, err := newTestExtractor().Extract(t.Context(), monoBuffer(rate, samples), Options{FPS: 10})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	f := r.Frames[3]
	if f.Spectrum[10] != 1 {
		t.Fatalf("expected peak bin 10 normalised to 1, got %f", f.Spectrum[10])
	}
	if f.Bass <= f.Mid || f.Bass <= f.Treble {
		t.Fatalf("expected bass to dominate, got bass=%f mid=%f treble=%f", f.Bass, f.Mid, f.Treble)
	}
	if f.RMS <= 0 {
		t.Fatalf("expected positive rms, got %f", f.RMS)
	}
}

func TestExtractZeroPadsPastEnd(t *testing.T) {
	// The last window starts 100 samples before the end and is padded.
	samples := make([]float32, 1000)
	for i := range samples {
		samples[i] = 0.5
	}
	r, err := newTestExtractor().Extract(t.Context(), monoBuffer(1000, samples), Options{FPS: 10})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(r.Frames) != 10 {
		t.Fatalf("expected 10 frames, got %d", len(r.Frames))
	}
	first, last := r.Frames[0], r.Frames[9]
	if last.RMS >= first.RMS {
		t.Fatalf("expected padded window to have lower rms: first=%f last=%f", first.RMS, last.RMS)
	}
}

func TestExtractSubstitutesFailedWindow(t *testing.T) {
	samples := make([]float32, 1000)
	for i := range samples {
		samples[i] = 0.25
	}
	samples[450] = float32(math.NaN())

	r, err := newTestExtractor().Extract(t.Context(), monoBuffer(1000, samples), Options{FPS: 10})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	// frame 4 covers samples 400..655
	bad := r.Frames[4]
	if bad.RMS != 0 || bad.Bass != 0 {
		t.Fatalf("expected zero substitute frame, got %+v", bad)
	}
	for _, v := range bad.Spectrum {
		if v != 0 {
			t.Fatalf("expected zero spectrum, got %v", bad.Spectrum)
		}
	}
	if r.Frames[0].RMS == 0 {
		t.Fatal("expected neighbouring frames to be analysed normally")
	}
	if bad.Frame != 4 || len(r.Frames) != 10 {
		t.Fatal("expected substitution to keep frame ordering")
	}
}

func TestAnalyzeReportsWindowError(t *testing.T) {
	a := newAnalyzer()
	win := make([]float64, FFTSize)
	win[3] = math.Inf(1)
	if _, err := a.analyze(win); !errors.Is(err, ErrWindow) {
		t.Fatalf("expected ErrWindow, got %v", err)
	}
}

func TestExtractRejectsBadFPS(t *testing.T) {
	_, err := newTestExtractor().Extract(t.Context(), monoBuffer(100, nil), Options{FPS: 0})
	if !errors.Is(err, ErrInvalidFPS) {
		t.Fatalf("expected ErrInvalidFPS, got %v", err)
	}
}

func TestExtractProgressIsMonotonic(t *testing.T) {
	buf := monoBuffer(1000, make([]float32, 25000))
	var seen []int
	_, err := newTestExtractor().Extract(t.Context(), buf, Options{FPS: 10, Progress: func(frame, total int) {
		if total != 250 {
			t.Fatalf("expected total 250, got %d", total)
		}
		seen = append(seen, frame)
	}})
	if err != nil {
		t.Fatal(err)
	}
	if len(seen) == 0 || seen[len(seen)-1] != 250 {
		t.Fatalf("expected final progress 250, got %v", seen)
	}
	for i := 1; i < len(seen); i++ {
		if seen[i] <= seen[i-1] {
			t.Fatalf("progress not increasing: %v", seen)
		}
	}
}

func TestExtractBytesSilentWAV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "silence.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	enc := wav.NewEncoder(f, 44100, 16, 1, 1)
	pcm := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: 44100},
		Data:           make([]int, 44100),
		SourceBitDepth: 16,
	}
	if err := enc.Write(pcm); err != nil {
		t.Fatal(err)
	}
	if err := enc.Close(); err != nil {
		t.Fatal(err)
	}
	f.Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	r, err := newTestExtractor().ExtractBytes(data, path, Options{FPS: 10})
	if err != nil {
		t.Fatalf("ExtractBytes: %v", err)
	}
	if r.Meta.TotalFrames != 10 {
		t.Fatalf("expected 10 frames, got %d", r.Meta.TotalFrames)
	}
	if r.Meta.SampleRate != 44100 || r.Meta.Duration != 1 {
		t.Fatalf("unexpected meta %+v", r.Meta)
	}
	for _, fr := range r.Frames {
		if fr.Bass != 0 || fr.Mid != 0 || fr.Treble != 0 || fr.RMS != 0 {
			t.Fatalf("expected silent frame, got %+v", fr)
		}
	}
}

func TestExtractBytesDecodeError(t *testing.T) {
	_, err := newTestExtractor().ExtractBytes([]byte("nope"), "x.bin", Options{FPS: 10})
	if !errors.Is(err, audio.ErrDecode) {
		t.Fatalf("expected ErrDecode, got %v", err)
	}
}
