package flash

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"mpboard/internal/retry"
	"mpboard/util"
)

// Downloader fetches firmware images into temporary files.
type Downloader struct {
	client  *http.Client
	backoff *retry.Backoff
	log     *util.Logger
}

// NewDownloader returns a downloader with the standard retry policy.
// The client timeout is generous: firmware images run to a few
// megabytes and some mirrors are slow.
func NewDownloader(log *util.Logger) *Downloader {
	return &Downloader{
		client:  &http.Client{Timeout: 5 * time.Minute},
		backoff: retry.DownloadBackoff(),
		log:     log,
	}
}

// Download fetches url into a temporary file and returns its path.
// The caller owns the file and removes it when done.  progress, if
// non-nil, receives running byte counts while the body is copied
// (total is 0 when the server sends no Content-Length).  Transient
// failures are retried from the start of the body; a 4xx status is
// not, since asking again will not change the answer.
func (d *Downloader) Download(ctx context.Context, url string, progress func(bytes, total int64)) (string, error) {
	tmp, err := os.CreateTemp("", "mpboard-firmware-*.bin")
	if err != nil {
		return "", err
	}
	path := tmp.Name()
	tmp.Close()

	err = d.backoff.Do(ctx, func(attempt int) error {
		if attempt > 1 {
			d.log.Verbose("download retry %d: %s", attempt, url)
		}
		return d.fetch(ctx, url, path, progress)
	})
	if err != nil {
		os.Remove(path)
		return "", err
	}
	return path, nil
}

func (d *Downloader) fetch(ctx context.Context, url, path string, progress func(bytes, total int64)) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return retry.Permanent(err)
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("GET %s: %s", url, resp.Status)
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			return retry.Permanent(err)
		}
		return err
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return retry.Permanent(err)
	}
	defer f.Close()

	var w io.Writer = f
	if progress != nil {
		total := resp.ContentLength
		if total < 0 {
			total = 0
		}
		w = &countingWriter{dst: f, total: total, report: progress}
	}
	buf := util.GetBuf()
	defer util.PutBuf(buf)
	if _, err := io.CopyBuffer(w, resp.Body, *buf); err != nil {
		return err
	}
	// The external tool reads this file next; make sure it is on disk.
	return f.Sync()
}

// countingWriter forwards to dst and reports the running byte total
// after every chunk.
type countingWriter struct {
	dst    io.Writer
	n      int64
	total  int64
	report func(bytes, total int64)
}

func (w *countingWriter) Write(p []byte) (int, error) {
	n, err := w.dst.Write(p)
	w.n += int64(n)
	w.report(w.n, w.total)
	return n, err
}
