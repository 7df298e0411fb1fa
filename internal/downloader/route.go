package downloader

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

var (
	// ErrUnsupportedScheme rejects anything but http and https.
	ErrUnsupportedScheme = errors.New("unsupported URL scheme")
	// ErrLiveStream rejects unbounded streams, which cannot be analyzed.
	ErrLiveStream = errors.New("live streams cannot be analyzed")
	// ErrPlaylist rejects playlist wrappers; pass the media URL instead.
	ErrPlaylist = errors.New("URL is a playlist, not an audio file")
)

var liveSuffixes = []string{".m3u8", ".m3u", ".pls", ".aac"}

// normalizeAndValidateURL trims whitespace and surrounding quotes and
// checks the scheme.
func normalizeAndValidateURL(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	s = strings.Trim(s, `"'`)
	u, err := url.Parse(s)
	if err != nil {
		return "", fmt.Errorf("parsing URL: %w", err)
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedScheme, u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("URL %q has no host", s)
	}
	return u.String(), nil
}

// IsLiveBySuffix reports whether the URL path ends in an extension used by
// radio streams and live playlists.
func IsLiveBySuffix(rawURL string) bool {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return false
	}
	path := strings.ToLower(u.Path)
	for _, suffix := range liveSuffixes {
		if strings.HasSuffix(path, suffix) {
			return true
		}
	}
	return false
}

// classify inspects a response before its body is read.
func classify(resp *http.Response, rawURL string) error {
	contentType := resp.Header.Get("Content-Type")
	if i := strings.Index(contentType, ";"); i >= 0 {
		contentType = contentType[:i]
	}

	switch {
	case isHLSContentType(contentType):
		return ErrLiveStream
	case isPlaylistContentType(contentType) || hasPlaylistExt(rawURL):
		return ErrPlaylist
	case hasICYHeaders(resp.Header):
		return ErrLiveStream
	case resp.ContentLength <= 0 && (isAudioLikeContentType(contentType) || IsLiveBySuffix(rawURL)):
		return ErrLiveStream
	}
	return nil
}

func hasPlaylistExt(rawURL string) bool {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return false
	}
	path := strings.ToLower(parsed.Path)
	return strings.HasSuffix(path, ".pls") ||
		strings.HasSuffix(path, ".m3u") ||
		strings.HasSuffix(path, ".m3u8")
}

func isPlaylistContentType(contentType string) bool {
	switch strings.ToLower(strings.TrimSpace(contentType)) {
	case "audio/x-mpegurl",
		"audio/mpegurl",
		"audio/x-scpls",
		"application/pls+xml":
		return true
	default:
		return false
	}
}

func isHLSContentType(contentType string) bool {
	switch strings.ToLower(strings.TrimSpace(contentType)) {
	case "application/vnd.apple.mpegurl",
		"application/x-mpegurl":
		return true
	default:
		return false
	}
}

func isAudioLikeContentType(contentType string) bool {
	contentType = strings.ToLower(strings.TrimSpace(contentType))
	return strings.HasPrefix(contentType, "audio/") ||
		contentType == "application/ogg" ||
		contentType == "application/aacp"
}

func hasICYHeaders(headers http.Header) bool {
	for key := range headers {
		if strings.HasPrefix(strings.ToLower(strings.TrimSpace(key)), "icy-") {
			return true
		}
	}
	return false
}
