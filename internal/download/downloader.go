// Package download acquires evidence from remote URLs. Platform-specific
// scraping lives behind the Downloader interface; the built-in
// implementation is a plain bounded HTTP fetch.
package download

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path"
	"time"

	"go.uber.org/zap"
)

type Downloader interface {
	// Fetch downloads the content behind rawURL into spoolDir and
	// returns the local path plus the best-known original filename.
	Fetch(ctx context.Context, rawURL string) (localPath string, filename string, err error)
}

type httpDownloader struct {
	client   *http.Client
	spoolDir string
	maxBytes int64
	timeout  time.Duration
}

func NewHTTPDownloader(spoolDir string, maxBytes int64, timeout time.Duration) (Downloader, error) {
	if err := os.MkdirAll(spoolDir, 0o750); err != nil {
		return nil, fmt.Errorf("creating spool directory: %w", err)
	}
	return &httpDownloader{
		client:   &http.Client{},
		spoolDir: spoolDir,
		maxBytes: maxBytes,
		timeout:  timeout,
	}, nil
}

func (d *httpDownloader) Fetch(ctx context.Context, rawURL string) (string, string, error) {
	// a stalled remote must fail this stage, not starve the worker
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", "", fmt.Errorf("building download request: %w", err)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("fetching %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", "", fmt.Errorf("fetching %s: unexpected status %d", rawURL, resp.StatusCode)
	}

	tmp, err := os.CreateTemp(d.spoolDir, "download-*")
	if err != nil {
		return "", "", fmt.Errorf("creating spool file: %w", err)
	}

	written, err := io.Copy(tmp, io.LimitReader(resp.Body, d.maxBytes+1))
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(tmp.Name())
		return "", "", fmt.Errorf("spooling download: %w", err)
	}
	if written > d.maxBytes {
		_ = os.Remove(tmp.Name())
		return "", "", fmt.Errorf("download exceeds configured maximum of %d bytes", d.maxBytes)
	}

	filename := remoteFilename(resp, rawURL)
	zap.S().Named("downloader").Infow("content downloaded", "url", rawURL, "bytes", written, "filename", filename)

	return tmp.Name(), filename, nil
}

func remoteFilename(resp *http.Response, rawURL string) string {
	if cd := resp.Header.Get("Content-Disposition"); cd != "" {
		if _, params, err := mime.ParseMediaType(cd); err == nil {
			if name := params["filename"]; name != "" {
				return name
			}
		}
	}
	if u, err := url.Parse(rawURL); err == nil {
		if name := path.Base(u.Path); name != "" && name != "/" && name != "." {
			return name
		}
	}
	return "download.bin"
}
