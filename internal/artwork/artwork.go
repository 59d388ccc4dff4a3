// Package artwork retrieves cover images over HTTP and classifies their
// format. Failures are warnings, never errors: artwork is always optional.
package artwork

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"trackid/internal/logger"
)

const browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) " +
	"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.6312.86 Safari/537.36"

// Fetcher downloads artwork with a bounded timeout.
type Fetcher struct {
	httpClient *http.Client
	logger     *logger.Logger
}

// New creates a Fetcher. A timeout of 0 defaults to 10 seconds.
func New(log *logger.Logger, timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Fetcher{
		httpClient: &http.Client{Timeout: timeout},
		logger:     log,
	}
}

// Fetch retrieves image data from url. Any failure (network, timeout,
// non-2xx status) is logged as a warning and reported as (nil, false).
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, bool) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		f.warn(url, err.Error())
		return nil, false
	}
	req.Header.Set("User-Agent", browserUserAgent)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		f.warn(url, err.Error())
		return nil, false
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		f.warn(url, resp.Status)
		return nil, false
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		f.warn(url, err.Error())
		return nil, false
	}
	return data, true
}

func (f *Fetcher) warn(url, cause string) {
	if f.logger != nil {
		f.logger.Warn("Could not download artwork from %s: %s", url, cause)
	}
}

// MIMEType classifies image data. A recognized URL extension wins; otherwise
// magic bytes are inspected; unrecognized input defaults to JPEG.
func (f *Fetcher) MIMEType(url string, data []byte) string {
	return MIMEType(url, data)
}

// MIMEType is the pure classification function behind Fetcher.MIMEType.
func MIMEType(url string, data []byte) string {
	lower := strings.ToLower(url)
	switch {
	case strings.HasSuffix(lower, ".png"):
		return "image/png"
	case strings.HasSuffix(lower, ".jpg"), strings.HasSuffix(lower, ".jpeg"):
		return "image/jpeg"
	case strings.HasSuffix(lower, ".gif"):
		return "image/gif"
	case strings.HasSuffix(lower, ".webp"):
		return "image/webp"
	}

	switch {
	case bytes.HasPrefix(data, []byte{0xFF, 0xD8, 0xFF}):
		return "image/jpeg"
	case bytes.HasPrefix(data, []byte("\x89PNG\r\n\x1a\n")):
		return "image/png"
	case bytes.HasPrefix(data, []byte("GIF87a")), bytes.HasPrefix(data, []byte("GIF89a")):
		return "image/gif"
	case bytes.HasPrefix(data, []byte("RIFF")) && len(data) >= 12 && bytes.Equal(data[8:12], []byte("WEBP")):
		return "image/webp"
	}

	return "image/jpeg"
}
