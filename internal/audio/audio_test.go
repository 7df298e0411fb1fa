package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/mewkiz/flac"
	"github.com/mewkiz/flac/frame"
	"github.com/mewkiz/flac/meta"
)

// writeWAV encodes interleaved 16-bit samples to a temporary WAV file and
// returns its bytes.
func writeWAV(t *testing.T, sampleRate, channels int, samples []int) []byte {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fixture.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	enc := wav.NewEncoder(f, sampleRate, 16, channels, 1)
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: channels, SampleRate: sampleRate},
		Data:           samples,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatalf("encoding wav: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("closing encoder: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return data
}

func TestDecodeWAVStereo(t *testing.T) {
	// left = +0.5, right = -0.25
	samples := make([]int, 0, 200)
	for i := 0; i < 100; i++ {
		samples = append(samples, 16384, -8192)
	}
	data := writeWAV(t, 8000, 2, samples)

	buf, err := Decode(data, "fixture.wav")
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if buf.SampleRate != 8000 {
		t.Fatalf("expected sample rate 8000, got %d", buf.SampleRate)
	}
	if buf.NumberOfChannels() != 2 {
		t.Fatalf("expected 2 channels, got %d", buf.NumberOfChannels())
	}
	if buf.Length() != 100 {
		t.Fatalf("expected 100 samples per channel, got %d", buf.Length())
	}
	if got := buf.ChannelData(0)[10]; got != 0.5 {
		t.Fatalf("expected left sample 0.5, got %f", got)
	}
	if got := buf.ChannelData(1)[10]; got != -0.25 {
		t.Fatalf("expected right sample -0.25, got %f", got)
	}
	if d := buf.Duration(); math.Abs(d-0.0125) > 1e-12 {
		t.Fatalf("expected duration 0.0125s, got %f", d)
	}

	mono := buf.Mono()
	if len(mono) != 100 || mono[0] != 0.125 {
		t.Fatalf("expected equal-weight downmix 0.125, got %v", mono[0])
	}
}

func TestDecodeUnknownContainer(t *testing.T) {
	_, err := Decode([]byte("definitely not audio"), "notes.txt")
	if !errors.Is(err, ErrDecode) {
		t.Fatalf("expected ErrDecode, got %v", err)
	}
}

func TestDecodeCorruptWAV(t *testing.T) {
	data := []byte("RIFF\x04\x00\x00\x00WAVE")
	_, err := Decode(data, "broken.wav")
	if !errors.Is(err, ErrDecode) {
		t.Fatalf("expected ErrDecode, got %v", err)
	}
}

func TestMonoEmptyBuffer(t *testing.T) {
	buf := &Buffer{SampleRate: 44100}
	if buf.Length() != 0 || len(buf.Mono()) != 0 || buf.Duration() != 0 {
		t.Fatal("expected empty buffer to report zero length")
	}
}

func TestDeinterleaveDropsPartialFrame(t *testing.T) {
	out := deinterleave([]float32{1, 2, 3, 4, 5}, 2)
	if len(out) != 2 || len(out[0]) != 2 {
		t.Fatalf("expected 2x2, got %v", out)
	}
	if out[0][1] != 3 || out[1][1] != 4 {
		t.Fatalf("unexpected layout %v", out)
	}
}

func TestReadMetadataWithoutTag(t *testing.T) {
	if m := ReadMetadata([]byte("RIFF....WAVE")); m != (Metadata{}) {
		t.Fatalf("expected empty metadata, got %+v", m)
	}
}

func TestDecodeFileMissing(t *testing.T) {
	_, _, err := DecodeFile(t.Context(), filepath.Join(t.TempDir(), "missing.wav"), FFmpeg{})
	if !os.IsNotExist(err) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}

func TestDecodeFileUnsupportedExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	if err := os.WriteFile(path, []byte("not audio at all"), 0644); err != nil {
		t.Fatal(err)
	}
	_, _, err := DecodeFile(t.Context(), path, FFmpeg{})
	if !errors.Is(err, ErrDecode) {
		t.Fatalf("expected ErrDecode, got %v", err)
	}
}

// encodeFLAC writes one verbatim stereo frame holding left and right.
func encodeFLAC(t *testing.T, sampleRate uint32, left, right []int32) []byte {
	t.Helper()
	var out bytes.Buffer
	info := &meta.StreamInfo{
		BlockSizeMin:  uint16(len(left)),
		BlockSizeMax:  uint16(len(left)),
		SampleRate:    sampleRate,
		NChannels:     2,
		BitsPerSample: 16,
		NSamples:      uint64(len(left)),
	}
	enc, err := flac.NewEncoder(&out, info)
	if err != nil {
		t.Fatalf("flac encoder: %v", err)
	}
	f := &frame.Frame{
		Header: frame.Header{
			HasFixedBlockSize: true,
			BlockSize:         uint16(len(left)),
			SampleRate:        sampleRate,
			Channels:          frame.ChannelsLR,
			BitsPerSample:     16,
		},
		Subframes: []*frame.Subframe{
			{SubHeader: frame.SubHeader{Pred: frame.PredVerbatim}, Samples: left, NSamples: len(left)},
			{SubHeader: frame.SubHeader{Pred: frame.PredVerbatim}, Samples: right, NSamples: len(right)},
		},
	}
	if err := enc.WriteFrame(f); err != nil {
		t.Fatalf("writing flac frame: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("closing flac encoder: %v", err)
	}
	return out.Bytes()
}

func TestDecodeFLACStereo(t *testing.T) {
	left := make([]int32, 100)
	right := make([]int32, 100)
	for i := range left {
		left[i], right[i] = 16384, -8192
	}
	data := encodeFLAC(t, 8000, left, right)

	buf, err := Decode(data, "fixture.flac")
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if buf.SampleRate != 8000 || buf.NumberOfChannels() != 2 {
		t.Fatalf("expected 8000 Hz stereo, got %d Hz %d channels", buf.SampleRate, buf.NumberOfChannels())
	}
	if buf.Length() != 100 {
		t.Fatalf("expected 100 samples per channel, got %d", buf.Length())
	}
	if got := buf.ChannelData(0)[42]; got != 0.5 {
		t.Fatalf("expected left sample 0.5, got %f", got)
	}
	if got := buf.ChannelData(1)[42]; got != -0.25 {
		t.Fatalf("expected right sample -0.25, got %f", got)
	}
}

func TestDecodeFLACHeaderOnlyFails(t *testing.T) {
	// A header claiming 2^36-1 samples with no audio frames behind it.
	var out bytes.Buffer
	info := &meta.StreamInfo{
		BlockSizeMin:  4096,
		BlockSizeMax:  4096,
		SampleRate:    44100,
		NChannels:     2,
		BitsPerSample: 16,
		NSamples:      1<<36 - 1,
	}
	if _, err := flac.NewEncoder(&out, info); err != nil {
		t.Fatalf("flac encoder: %v", err)
	}

	_, err := Decode(out.Bytes(), "huge.flac")
	if !errors.Is(err, ErrDecode) {
		t.Fatalf("expected ErrDecode, got %v", err)
	}
}

func TestDecodeFloatWAVOversizedChunk(t *testing.T) {
	var b bytes.Buffer
	le := func(v any) {
		if err := binary.Write(&b, binary.LittleEndian, v); err != nil {
			t.Fatal(err)
		}
	}
	b.WriteString("RIFF")
	le(uint32(0xFFFFFFF0))
	b.WriteString("WAVEfmt ")
	le(uint32(16))
	le(uint16(wavFormatFloat))
	le(uint16(1))     // channels
	le(uint32(8000))  // sample rate
	le(uint32(32000)) // byte rate
	le(uint16(4))     // block align
	le(uint16(32))    // bits per sample
	b.WriteString("data")
	le(uint32(0xFFFFFFF0))
	le(float32(0.5))
	le(float32(-0.5))

	buf, err := Decode(b.Bytes(), "float.wav")
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if buf.Length() != 2 || buf.ChannelData(0)[0] != 0.5 || buf.ChannelData(0)[1] != -0.5 {
		t.Fatalf("unexpected samples %v", buf.Channels)
	}
}

func skipIfNoFFmpeg(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		t.Skip("ffmpeg not available")
	}
}

// sineWAV is half a second of 44.1 kHz stereo: a 440 Hz sine at half scale
// on the left and silence on the right.
func sineWAV(t *testing.T) []byte {
	t.Helper()
	const rate = 44100
	samples := make([]int, 0, rate)
	for i := 0; i < rate/2; i++ {
		v := 0.5 * math.Sin(2*math.Pi*440*float64(i)/rate)
		samples = append(samples, int(v*32767), 0)
	}
	return writeWAV(t, rate, 2, samples)
}

// transcode converts wavData with the first encoder ffmpeg accepts and
// returns the encoded bytes.
func transcode(t *testing.T, wavData []byte, ext string, encoders ...[]string) []byte {
	t.Helper()
	dir := t.TempDir()
	in := filepath.Join(dir, "in.wav")
	out := filepath.Join(dir, "out"+ext)
	if err := os.WriteFile(in, wavData, 0644); err != nil {
		t.Fatal(err)
	}
	for _, codec := range encoders {
		args := append([]string{"-v", "error", "-y", "-i", in}, codec...)
		cmd := exec.CommandContext(t.Context(), "ffmpeg", append(args, out)...)
		if err := cmd.Run(); err != nil {
			continue
		}
		data, err := os.ReadFile(out)
		if err != nil {
			t.Fatal(err)
		}
		return data
	}
	t.Skipf("ffmpeg has no usable %s encoder", ext)
	return nil
}

// checkLossySine asserts the decoded shape of sineWAV after a lossy codec.
func checkLossySine(t *testing.T, buf *Buffer) {
	t.Helper()
	if buf.SampleRate != 44100 || buf.NumberOfChannels() != 2 {
		t.Fatalf("expected 44100 Hz stereo, got %d Hz %d channels", buf.SampleRate, buf.NumberOfChannels())
	}
	if d := buf.Duration(); d < 0.45 || d > 0.7 {
		t.Fatalf("expected about 0.5s, got %f", d)
	}
	peak := func(ch []float32) float64 {
		p := 0.0
		for _, v := range ch {
			p = math.Max(p, math.Abs(float64(v)))
		}
		return p
	}
	if p := peak(buf.ChannelData(0)); p < 0.4 || p > 0.6 {
		t.Fatalf("expected left peak near 0.5, got %f", p)
	}
	if p := peak(buf.ChannelData(1)); p > 0.05 {
		t.Fatalf("expected right channel near silence, got peak %f", p)
	}
}

func TestDecodeOggVorbis(t *testing.T) {
	skipIfNoFFmpeg(t)
	data := transcode(t, sineWAV(t), ".ogg",
		[]string{"-c:a", "libvorbis", "-q:a", "6"},
		[]string{"-c:a", "vorbis", "-strict", "-2"},
	)

	buf, err := Decode(data, "fixture.ogg")
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	checkLossySine(t, buf)
}

func TestDecodeMP3(t *testing.T) {
	skipIfNoFFmpeg(t)
	data := transcode(t, sineWAV(t), ".mp3",
		[]string{"-c:a", "libmp3lame", "-b:a", "192k"},
	)

	buf, err := Decode(data, "fixture.mp3")
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	checkLossySine(t, buf)
}
