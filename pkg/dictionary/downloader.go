package dictionary

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// DefaultCEDICTURL is the MDBG export of CC-CEDICT.
const DefaultCEDICTURL = "https://www.mdbg.net/chinese/export/cedict/cedict_1_0_ts_utf-8_mdbg.txt.gz"

// Downloader fetches the CEDICT file when it is not already on disk.
type Downloader struct {
	URL    string
	Client *http.Client
	Logger *slog.Logger
}

// EnsureDictionary makes sure a CEDICT file exists at path, downloading it
// from url (DefaultCEDICTURL when empty) if needed.
func EnsureDictionary(ctx context.Context, path, url string, logger *slog.Logger) error {
	return (&Downloader{URL: url, Logger: logger}).Ensure(ctx, path)
}

// Ensure checks if the dictionary exists at path. If not, it downloads it,
// decompressing gzip payloads, and moves it into place atomically.
func (d *Downloader) Ensure(ctx context.Context, path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return err
	}

	url := d.URL
	if url == "" {
		url = DefaultCEDICTURL
	}
	logger := d.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	logger.Info("dictionary not found, downloading", slog.String("path", path), slog.String("url", url))

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".cedict-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := d.download(ctx, url, tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to move dictionary into place: %w", err)
	}
	logger.Info("dictionary downloaded", slog.String("path", path))
	return nil
}

func (d *Downloader) download(ctx context.Context, url string, dst io.Writer) error {
	client := d.Client
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Minute}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", "zhreader-cli")

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download failed: %s", resp.Status)
	}

	body := bufio.NewReader(resp.Body)
	var src io.Reader = body
	if magic, err := body.Peek(2); err == nil && bytes.Equal(magic, []byte{0x1f, 0x8b}) {
		gz, err := gzip.NewReader(body)
		if err != nil {
			return fmt.Errorf("failed to create gzip reader: %w", err)
		}
		defer gz.Close()
		src = gz
	}
	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("failed to write dictionary: %w", err)
	}
	return nil
}
