// Package pdftext downloads publication PDFs and extracts their plain text
// for affiliation mining.
package pdftext

import (
	"context"
	"fmt"
	"hash/fnv"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

const (
	maxConcurrentDownloads = 5
	maxPDFBytes            = 50 << 20 // 50 MB
)

// Downloader fetches PDFs into a local directory, skipping files that are
// already present.
type Downloader struct {
	Dir        string
	HTTPClient *http.Client
}

func NewDownloader(dir string) *Downloader {
	return &Downloader{
		Dir:        dir,
		HTTPClient: &http.Client{Timeout: 2 * time.Minute},
	}
}

// DownloadResult records the outcome for one URL.
type DownloadResult struct {
	URL     string
	Path    string
	Skipped bool // already on disk
	Err     error
}

// DownloadAll fetches the given URLs concurrently, at most five at a time.
// Individual failures are recorded per URL, not returned as the overall
// error; only a cancelled context aborts the batch.
func (d *Downloader) DownloadAll(ctx context.Context, urls []string) ([]DownloadResult, error) {
	if err := os.MkdirAll(d.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create download dir: %w", err)
	}

	results := make([]DownloadResult, 0, len(urls))
	var mu sync.Mutex

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentDownloads)

	for _, u := range urls {
		u := u
		g.Go(func() error {
			res := d.downloadOne(gCtx, u)
			mu.Lock()
			results = append(results, res)
			mu.Unlock()
			if res.Err != nil {
				log.Printf("Download %s: %v", u, res.Err)
			}
			return gCtx.Err()
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

func (d *Downloader) downloadOne(ctx context.Context, rawURL string) DownloadResult {
	res := DownloadResult{URL: rawURL}

	path := filepath.Join(d.Dir, fileNameForURL(rawURL))
	res.Path = path
	if _, err := os.Stat(path); err == nil {
		res.Skipped = true
		return res
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		res.Err = err
		return res
	}

	resp, err := d.HTTPClient.Do(req)
	if err != nil {
		res.Err = err
		return res
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		res.Err = fmt.Errorf("HTTP %d", resp.StatusCode)
		return res
	}
	if resp.ContentLength > maxPDFBytes {
		res.Err = fmt.Errorf("PDF too large: %d bytes", resp.ContentLength)
		return res
	}

	tmp, err := os.CreateTemp(d.Dir, ".download-*")
	if err != nil {
		res.Err = err
		return res
	}
	defer os.Remove(tmp.Name())

	n, err := io.Copy(tmp, io.LimitReader(resp.Body, maxPDFBytes+1))
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		res.Err = err
		return res
	}
	if n > maxPDFBytes {
		res.Err = fmt.Errorf("PDF exceeds %d byte limit", maxPDFBytes)
		return res
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		res.Err = err
		return res
	}
	return res
}

// fileNameForURL derives a stable on-disk name from a URL, sanitized so
// path separators and query strings cannot escape the download directory.
func fileNameForURL(rawURL string) string {
	name := rawURL
	if i := strings.IndexByte(name, '?'); i >= 0 {
		name = name[:i]
	}
	if i := strings.LastIndexByte(name, '/'); i >= 0 && i < len(name)-1 {
		name = name[i+1:]
	}

	safe := make([]byte, 0, len(name))
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9',
			c == '.', c == '-', c == '_':
			safe = append(safe, c)
		default:
			safe = append(safe, '_')
		}
	}
	name = string(safe)

	if name == "" {
		name = fmt.Sprintf("doc_%x", hashString(rawURL))
	}
	if filepath.Ext(name) != ".pdf" {
		name += ".pdf"
	}
	return name
}

func hashString(s string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(s))
	return h.Sum32()
}
