package binary

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

const (
	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 5 * time.Minute
	// DefaultRetries is the default number of download retries.
	DefaultRetries = 3
	// DefaultUserAgent is the User-Agent header sent with requests.
	DefaultUserAgent = "bin-wrapper/1.0"
)

// ProgressFunc is called during a transfer with the bytes received so far
// and the expected total. Total is -1 when the server sends no
// content-length; progress is then indeterminate but the transfer still
// completes normally.
type ProgressFunc func(transferred, total int64)

// FetchOptions controls a single acquisition.
type FetchOptions struct {
	// Mode is the permission set on the downloaded file. Zero means the
	// file keeps default permissions. Ignored when Extract is set, where
	// archive entry modes win.
	Mode fs.FileMode
	// Extract treats the artifact as an archive and unpacks it into the
	// destination directory instead of writing the raw file.
	Extract bool
	// Strip removes this many leading path components from every archive
	// entry on extraction.
	Strip int
	// Progress receives transfer notifications. May be nil.
	Progress ProgressFunc
}

// Downloader performs HTTP downloads with retry logic. When extraction is
// requested, the archive is unpacked into the destination after transfer.
type Downloader struct {
	client    *http.Client
	userAgent string
	retries   int
	log       zerolog.Logger
}

// DownloaderOption configures a Downloader.
type DownloaderOption func(*Downloader)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(client *http.Client) DownloaderOption {
	return func(d *Downloader) {
		if client != nil {
			d.client = client
		}
	}
}

// WithRetries sets the number of retry attempts after a failed transfer.
func WithRetries(n int) DownloaderOption {
	return func(d *Downloader) {
		if n >= 0 {
			d.retries = n
		}
	}
}

// WithDownloadLogger sets the logger used for transfer diagnostics.
func WithDownloadLogger(log zerolog.Logger) DownloaderOption {
	return func(d *Downloader) {
		d.log = log
	}
}

// NewDownloader creates a downloader.
func NewDownloader(opts ...DownloaderOption) *Downloader {
	d := &Downloader{
		client: &http.Client{
			Timeout: DefaultTimeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return fmt.Errorf("too many redirects")
				}
				return nil
			},
		},
		userAgent: DefaultUserAgent,
		retries:   DefaultRetries,
		log:       zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Fetch acquires url into dest. Without extraction, dest is the file path
// the artifact is written to. With extraction, dest is the directory the
// archive is unpacked into. Failures are reported as a *TransferError.
func (d *Downloader) Fetch(ctx context.Context, url, dest string, opts FetchOptions) error {
	if !opts.Extract {
		if err := d.downloadWithRetry(ctx, url, dest, opts.Progress); err != nil {
			return &TransferError{URL: url, Err: err}
		}
		if opts.Mode != 0 {
			if err := os.Chmod(dest, opts.Mode); err != nil {
				return &TransferError{URL: url, Err: fmt.Errorf("set mode: %w", err)}
			}
		}
		return nil
	}

	// Download the archive to a scratch file, then unpack it.
	tmp, err := os.CreateTemp("", "binwrap-fetch-*"+archiveSuffix(url))
	if err != nil {
		return &TransferError{URL: url, Err: fmt.Errorf("create temp file: %w", err)}
	}
	tmpPath := tmp.Name()
	tmp.Close()
	defer os.Remove(tmpPath)

	if err := d.downloadWithRetry(ctx, url, tmpPath, opts.Progress); err != nil {
		return &TransferError{URL: url, Err: err}
	}

	if err := ExtractArchive(tmpPath, dest, opts.Strip); err != nil {
		return &TransferError{URL: url, Err: err}
	}
	return nil
}

// downloadWithRetry downloads url to destPath, retrying with exponential
// backoff: 1s, 2s, 4s.
func (d *Downloader) downloadWithRetry(ctx context.Context, url, destPath string, progress ProgressFunc) error {
	var lastErr error

	for attempt := 0; attempt <= d.retries; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if attempt > 0 {
			backoff := time.Duration(1<<uint(attempt-1)) * time.Second
			d.log.Debug().Str("url", url).Int("attempt", attempt).Dur("backoff", backoff).Msg("retrying download")
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		err := d.downloadOnce(ctx, url, destPath, progress)
		if err == nil {
			return nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return ctx.Err()
		}
	}

	return fmt.Errorf("download failed after %d retries: %w", d.retries, lastErr)
}

// downloadOnce performs a single download attempt with an atomic
// temp-file write and rename.
func (d *Downloader) downloadOnce(ctx context.Context, url, destPath string, progress ProgressFunc) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", d.userAgent)

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
		return fmt.Errorf("create dest dir: %w", err)
	}

	tmpPath := destPath + ".tmp"
	tmpFile, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}

	cleanupNeeded := true
	defer func() {
		tmpFile.Close()
		if cleanupNeeded {
			os.Remove(tmpPath)
		}
	}()

	var body io.Reader = resp.Body
	if progress != nil {
		body = &progressReader{r: resp.Body, total: resp.ContentLength, report: progress}
	}

	if _, err := io.Copy(tmpFile, body); err != nil {
		return fmt.Errorf("copy response body: %w", err)
	}

	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}

	cleanupNeeded = false
	return nil
}

// progressReader reports per-chunk increments to a ProgressFunc as the
// response body is consumed.
type progressReader struct {
	r      io.Reader
	total  int64
	read   int64
	report ProgressFunc
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.read += int64(n)
		p.report(p.read, p.total)
	}
	return n, err
}

// archiveSuffix preserves the recognizable archive extension of url so
// extraction can pick the right format from the scratch file name.
func archiveSuffix(url string) string {
	base := filepath.Base(url)
	for _, ext := range []string{".tar.gz", ".tgz", ".zip"} {
		if len(base) > len(ext) && base[len(base)-len(ext):] == ext {
			return ext
		}
	}
	return ""
}
