package media

import (
	"bytes"
	"strings"
)

// Format identifies an audio container recognised from its leading bytes.
type Format string

const (
	FormatUnknown Format = ""
	FormatWAV     Format = "wav"
	FormatFLAC    Format = "flac"
	FormatOGG     Format = "ogg"
	FormatMP3     Format = "mp3"
)

var audioExts = map[string]bool{
	".mp3":  true,
	".wav":  true,
	".flac": true,
	".ogg":  true,
	".aac":  true,
	".m4a":  true,
	".m4b":  true,
	".mp4":  true,
	".opus": true,
}

// nativeExts are decoded in-process; the rest need ffmpeg.
var nativeExts = map[string]bool{
	".mp3":  true,
	".wav":  true,
	".flac": true,
	".ogg":  true,
}

// IsSupportedExt returns true if the extension is a supported audio input.
func IsSupportedExt(ext string) bool {
	return audioExts[strings.ToLower(ext)]
}

// IsNativeExt returns true if the extension has a native Go decoder.
func IsNativeExt(ext string) bool {
	return nativeExts[strings.ToLower(ext)]
}

// SupportedExtsList returns a human-readable list of supported inputs.
func SupportedExtsList() string {
	return ".mp3, .wav, .flac, .ogg (native); .aac, .m4a, .m4b, .mp4, .opus (via ffmpeg)"
}

// Sniff inspects the first bytes of data and reports the container.
func Sniff(data []byte) Format {
	switch {
	case len(data) >= 12 && bytes.Equal(data[0:4], []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WAVE")):
		return FormatWAV
	case bytes.HasPrefix(data, []byte("fLaC")):
		return FormatFLAC
	case bytes.HasPrefix(data, []byte("OggS")):
		return FormatOGG
	case bytes.HasPrefix(data, []byte("ID3")):
		return FormatMP3
	case len(data) >= 2 && data[0] == 0xFF && data[1]&0xE0 == 0xE0 && data[1]&0x06 != 0:
		// MPEG audio frame sync with a non-reserved layer. ADTS AAC shares
		// the sync word but uses layer bits 00.
		return FormatMP3
	}
	return FormatUnknown
}

// SniffExt maps a file extension to the container it normally holds.
func SniffExt(ext string) Format {
	switch strings.ToLower(ext) {
	case ".wav":
		return FormatWAV
	case ".flac":
		return FormatFLAC
	case ".ogg":
		return FormatOGG
	case ".mp3":
		return FormatMP3
	}
	return FormatUnknown
}
