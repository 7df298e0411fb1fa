package audio

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"time"

	"github.com/olivier-w/spectracast/internal/media"
)

var errFFmpegNotFound = errors.New("ffmpeg not found (required for non-native containers)")

// FFmpeg names the binaries used for containers without a native decoder.
type FFmpeg struct {
	BinaryPath  string
	FFprobePath string
}

func (f FFmpeg) ffmpeg() string {
	if f.BinaryPath == "" {
		return "ffmpeg"
	}
	return f.BinaryPath
}

func (f FFmpeg) ffprobe() string {
	if f.FFprobePath == "" {
		return "ffprobe"
	}
	return f.FFprobePath
}

// Available returns whether the ffmpeg binary can be found.
func (f FFmpeg) Available() bool {
	_, err := exec.LookPath(f.ffmpeg())
	return err == nil
}

// DecodeFile reads path and decodes it. Containers the native decoders do
// not recognise are handed to ffmpeg when it is installed.
func DecodeFile(ctx context.Context, path string, ff FFmpeg) (*Buffer, []byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}

	ext := filepath.Ext(path)
	native := media.Sniff(data) != media.FormatUnknown || media.IsNativeExt(ext)
	if !native && !media.IsSupportedExt(ext) {
		return nil, nil, fmt.Errorf("%w: unsupported format %q (supported: %s)", ErrDecode, ext, media.SupportedExtsList())
	}
	if native || !ff.Available() {
		buf, err := Decode(data, path)
		return buf, data, err
	}

	buf, err := ff.decode(ctx, path)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: ffmpeg: %v", ErrDecode, err)
	}
	return buf, data, nil
}

// ffprobeResult holds parsed ffprobe JSON output.
type ffprobeResult struct {
	Streams []struct {
		CodecType  string `json:"codec_type"`
		SampleRate string `json:"sample_rate"`
		Channels   int    `json:"channels"`
	} `json:"streams"`
}

type audioProbe struct {
	sampleRate int
	channels   int
}

// probe uses ffprobe to get audio stream metadata.
func (f FFmpeg) probe(ctx context.Context, path string) (*audioProbe, error) {
	ffprobe, err := exec.LookPath(f.ffprobe())
	if err != nil {
		return nil, fmt.Errorf("ffprobe not found")
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, ffprobe,
		"-v", "quiet",
		"-print_format", "json",
		"-show_streams",
		"-select_streams", "a:0",
		path,
	)
	cmd.Stdin = nil

	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("ffprobe failed: %w", err)
	}

	var result ffprobeResult
	if err := json.Unmarshal(output, &result); err != nil {
		return nil, fmt.Errorf("parsing ffprobe output: %w", err)
	}
	if len(result.Streams) == 0 {
		return nil, fmt.Errorf("no audio stream found")
	}

	stream := result.Streams[0]
	sr, err := strconv.Atoi(stream.SampleRate)
	if err != nil || sr <= 0 {
		return nil, fmt.Errorf("invalid sample rate %q", stream.SampleRate)
	}
	if stream.Channels <= 0 {
		return nil, fmt.Errorf("invalid channel count %d", stream.Channels)
	}

	return &audioProbe{sampleRate: sr, channels: stream.Channels}, nil
}

// decode runs ffmpeg once, reading the whole file as 32-bit float PCM at
// the source sample rate and channel count.
func (f FFmpeg) decode(ctx context.Context, path string) (*Buffer, error) {
	ffmpeg, err := exec.LookPath(f.ffmpeg())
	if err != nil {
		return nil, errFFmpegNotFound
	}

	probe, err := f.probe(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("probing %s: %w", path, err)
	}

	cmd := exec.CommandContext(ctx, ffmpeg,
		"-v", "quiet",
		"-i", path,
		"-vn",
		"-f", "f32le",
		"-acodec", "pcm_f32le",
		"-ar", strconv.Itoa(probe.sampleRate),
		"-ac", strconv.Itoa(probe.channels),
		"pipe:1",
	)
	cmd.Stdin = nil

	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("ffmpeg decode %s: %w", path, err)
	}

	samples := make([]float32, len(out)/4)
	for i := range samples {
		samples[i] = math.Float32frombits(binary.LittleEndian.Uint32(out[i*4:]))
	}

	return &Buffer{
		SampleRate: probe.sampleRate,
		Channels:   deinterleave(samples, probe.channels),
	}, nil
}
