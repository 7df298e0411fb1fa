// Package downloader fetches remote audio files for analysis.
package downloader

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"strings"
	"time"
)

const (
	// MaxBytes caps a download; longer inputs are almost certainly streams.
	MaxBytes = 1 << 30

	headerTimeout = 10 * time.Second
)

var httpClient = &http.Client{
	Transport: &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		ResponseHeaderTimeout: headerTimeout,
		TLSHandshakeTimeout:   headerTimeout,
	},
}

// IsURL returns true if the argument looks like a URL.
func IsURL(arg string) bool {
	return strings.HasPrefix(arg, "http://") || strings.HasPrefix(arg, "https://")
}

// Download fetches a finite audio file into a temp file that keeps the
// URL's extension, so container detection still works. onStatus is called
// once per phase. Returns the temp path, the remote file name and a
// cleanup function.
func Download(ctx context.Context, rawURL string, onStatus func(string)) (string, string, func(), error) {
	status := func(s string) {
		if onStatus != nil {
			onStatus(s)
		}
	}

	normalized, err := normalizeAndValidateURL(rawURL)
	if err != nil {
		return "", "", nil, err
	}

	status("Fetching info...")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, normalized, nil)
	if err != nil {
		return "", "", nil, err
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return "", "", nil, fmt.Errorf("fetching %s: %w", normalized, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", "", nil, fmt.Errorf("fetching %s: %s", normalized, resp.Status)
	}
	finalURL := resp.Request.URL.String()
	if err := classify(resp, finalURL); err != nil {
		return "", "", nil, fmt.Errorf("%w: %s", err, finalURL)
	}
	if resp.ContentLength > MaxBytes {
		return "", "", nil, fmt.Errorf("%s is larger than %d bytes", finalURL, MaxBytes)
	}

	name := remoteName(resp.Request.URL)
	tmpFile, err := os.CreateTemp("", "spectracast-*"+path.Ext(name))
	if err != nil {
		return "", "", nil, fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	cleanup := func() {
		os.Remove(tmpPath)
	}

	status("Downloading...")
	n, err := io.Copy(tmpFile, io.LimitReader(resp.Body, MaxBytes+1))
	closeErr := tmpFile.Close()
	switch {
	case err != nil:
		cleanup()
		return "", "", nil, fmt.Errorf("downloading %s: %w", finalURL, err)
	case closeErr != nil:
		cleanup()
		return "", "", nil, fmt.Errorf("writing temp file: %w", closeErr)
	case n > MaxBytes:
		cleanup()
		return "", "", nil, fmt.Errorf("%s is larger than %d bytes", finalURL, MaxBytes)
	}

	return tmpPath, name, cleanup, nil
}

func remoteName(u *url.URL) string {
	name := path.Base(u.Path)
	if name == "/" || name == "." || name == "" {
		return u.Host
	}
	if unescaped, err := url.PathUnescape(name); err == nil {
		return unescaped
	}
	return name
}
