package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"path/filepath"

	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"
	"github.com/jfreymuth/oggvorbis"
	"github.com/mewkiz/flac"
	"github.com/olivier-w/spectracast/internal/media"
)

// ErrDecode reports that the container or codec could not be decoded.
var ErrDecode = errors.New("decode error")

const wavFormatFloat = 3

// Decode detects the container from the leading bytes of data, falling back
// to the extension of name, and decodes it in full.
func Decode(data []byte, name string) (*Buffer, error) {
	format := media.Sniff(data)
	if format == media.FormatUnknown {
		format = media.SniffExt(filepath.Ext(name))
	}

	var (
		buf *Buffer
		err error
	)
	switch format {
	case media.FormatWAV:
		buf, err = decodeWAV(data)
	case media.FormatFLAC:
		buf, err = decodeFLAC(data)
	case media.FormatOGG:
		buf, err = decodeOGG(data)
	case media.FormatMP3:
		buf, err = decodeMP3(data)
	default:
		return nil, fmt.Errorf("%w: unrecognised audio container", ErrDecode)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDecode, format, err)
	}
	if buf.SampleRate <= 0 || buf.NumberOfChannels() == 0 {
		return nil, fmt.Errorf("%w: %s: missing sample rate or channels", ErrDecode, format)
	}
	if buf.Length() == 0 {
		return nil, fmt.Errorf("%w: %s: no audio samples", ErrDecode, format)
	}
	return buf, nil
}

// --- WAV ---

func decodeWAV(data []byte) (*Buffer, error) {
	dec := wav.NewDecoder(bytes.NewReader(data))
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("invalid WAV file")
	}
	if dec.WavAudioFormat == wavFormatFloat {
		return decodeFloatWAV(dec, int64(len(data)))
	}

	pcm, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("reading WAV PCM data: %w", err)
	}
	if pcm.Format == nil || pcm.Format.NumChannels <= 0 {
		return nil, fmt.Errorf("WAV has no channels")
	}

	bitDepth := pcm.SourceBitDepth
	if bitDepth <= 0 {
		bitDepth = int(dec.BitDepth)
	}
	if bitDepth <= 0 || bitDepth > 32 {
		return nil, fmt.Errorf("unsupported WAV bit depth %d", bitDepth)
	}
	scale := float32(int64(1) << (bitDepth - 1))
	samples := make([]float32, len(pcm.Data))
	for i, v := range pcm.Data {
		if bitDepth == 8 {
			// 8-bit WAV is unsigned
			v -= 128
		}
		samples[i] = float32(v) / scale
	}

	return &Buffer{
		SampleRate: pcm.Format.SampleRate,
		Channels:   deinterleave(samples, pcm.Format.NumChannels),
	}, nil
}

func decodeFloatWAV(dec *wav.Decoder, size int64) (*Buffer, error) {
	if dec.BitDepth != 32 {
		return nil, fmt.Errorf("unsupported float WAV bit depth %d", dec.BitDepth)
	}
	if err := dec.FwdToPCM(); err != nil {
		return nil, fmt.Errorf("reading WAV PCM data: %w", err)
	}
	// The chunk header is untrusted; a chunk cannot be longer than the file.
	raw := make([]byte, min(dec.PCMLen(), size))
	n, err := io.ReadFull(dec.PCMChunk, raw)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, fmt.Errorf("reading WAV PCM data: %w", err)
	}
	raw = raw[:n-n%4]

	samples := make([]float32, len(raw)/4)
	for i := range samples {
		samples[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[i*4:]))
	}
	return &Buffer{
		SampleRate: int(dec.SampleRate),
		Channels:   deinterleave(samples, int(dec.NumChans)),
	}, nil
}

// --- FLAC ---

func decodeFLAC(data []byte) (*Buffer, error) {
	stream, err := flac.New(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer stream.Close()

	info := stream.Info
	if info.BitsPerSample == 0 || info.BitsPerSample > 32 {
		return nil, fmt.Errorf("unsupported FLAC bit depth %d", info.BitsPerSample)
	}
	channels := int(info.NChannels)
	scale := float32(int64(1) << (info.BitsPerSample - 1))

	// NSamples comes from the header and is only a capacity hint.
	hint := min(info.NSamples, uint64(len(data)))
	out := make([][]float32, channels)
	for ch := range out {
		out[ch] = make([]float32, 0, hint)
	}

	for {
		frame, err := stream.ParseNext()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		for ch := 0; ch < channels && ch < len(frame.Subframes); ch++ {
			for _, s := range frame.Subframes[ch].Samples {
				out[ch] = append(out[ch], float32(s)/scale)
			}
		}
	}

	return &Buffer{SampleRate: int(info.SampleRate), Channels: out}, nil
}

// --- OGG Vorbis ---

func decodeOGG(data []byte) (*Buffer, error) {
	samples, format, err := oggvorbis.ReadAll(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return &Buffer{
		SampleRate: format.SampleRate,
		Channels:   deinterleave(samples, format.Channels),
	}, nil
}

// --- MP3 ---

// go-mp3 always produces 16-bit little-endian stereo.
const mp3Channels = 2

func decodeMP3(data []byte) (*Buffer, error) {
	dec, err := mp3.NewDecoder(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	raw, err := io.ReadAll(dec)
	if err != nil {
		return nil, err
	}

	samples := make([]float32, len(raw)/2)
	for i := range samples {
		samples[i] = float32(int16(binary.LittleEndian.Uint16(raw[i*2:]))) / 32768
	}
	return &Buffer{
		SampleRate: dec.SampleRate(),
		Channels:   deinterleave(samples, mp3Channels),
	}, nil
}
