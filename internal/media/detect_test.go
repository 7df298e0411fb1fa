package media

import (
	"strings"
	"testing"
)

func TestIsSupportedExtIncludesAACFamily(t *testing.T) {
	for _, ext := range []string{".aac", ".m4a", ".m4b", ".MP3", ".Wav"} {
		if !IsSupportedExt(ext) {
			t.Fatalf("expected %s to be supported", ext)
		}
	}
	if IsSupportedExt(".txt") {
		t.Fatal("expected .txt to be unsupported")
	}
}

func TestIsNativeExtExcludesFFmpegOnlyFormats(t *testing.T) {
	if IsNativeExt(".m4a") {
		t.Fatal("expected .m4a to need ffmpeg")
	}
	if !IsNativeExt(".FLAC") {
		t.Fatal("expected .flac to decode natively")
	}
}

func TestSupportedExtsListIncludesAACFamily(t *testing.T) {
	list := SupportedExtsList()
	for _, ext := range []string{".aac", ".m4a", ".m4b"} {
		if !strings.Contains(list, ext) {
			t.Fatalf("expected supported ext list to include %s, got %q", ext, list)
		}
	}
}

func TestSniff(t *testing.T) {
	cases := map[string]struct {
		data []byte
		want Format
	}{
		"wav":     {[]byte("RIFF\x24\x00\x00\x00WAVEfmt "), FormatWAV},
		"flac":    {[]byte("fLaC\x00\x00\x00\x22"), FormatFLAC},
		"ogg":     {[]byte("OggS\x00\x02"), FormatOGG},
		"id3":     {[]byte("ID3\x04\x00"), FormatMP3},
		"mpeg":    {[]byte{0xFF, 0xFB, 0x90, 0x64}, FormatMP3},
		"adts":    {[]byte{0xFF, 0xF1, 0x50, 0x80}, FormatUnknown},
		"riffavi": {[]byte("RIFF\x24\x00\x00\x00AVI LIST"), FormatUnknown},
		"short":   {[]byte("R"), FormatUnknown},
		"garbage": {[]byte("hello world"), FormatUnknown},
	}
	for name, tc := range cases {
		if got := Sniff(tc.data); got != tc.want {
			t.Errorf("%s: expected %q, got %q", name, tc.want, got)
		}
	}
}
