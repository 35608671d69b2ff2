package pdftext

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/ledongthuc/pdf"
	"golang.org/x/sync/errgroup"
)

// ExtractText pulls the plain text out of one PDF file.
func ExtractText(path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	reader, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extract text from %s: %w", filepath.Base(path), err)
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(reader); err != nil {
		return "", fmt.Errorf("read text from %s: %w", filepath.Base(path), err)
	}
	return buf.String(), nil
}

// ExtractDir extracts text from every .pdf file in dir, keyed by file name.
// Corrupt files are logged and skipped.
func ExtractDir(ctx context.Context, dir string) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dir %s: %w", dir, err)
	}

	texts := make(map[string]string)
	var mu sync.Mutex

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentDownloads)

	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".pdf") {
			continue
		}
		name := entry.Name()
		g.Go(func() error {
			if gCtx.Err() != nil {
				return gCtx.Err()
			}
			text, err := ExtractText(filepath.Join(dir, name))
			if err != nil {
				log.Printf("Extract %s: %v", name, err)
				return nil
			}
			mu.Lock()
			texts[name] = text
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return texts, err
	}
	log.Printf("Extracted text from %d of %d entries in %s", len(texts), len(entries), dir)
	return texts, nil
}
