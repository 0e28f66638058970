// Package textsource fetches readable article text from web pages.
package textsource

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/go-shiori/go-readability"
)

// MaxBodySize caps how much HTML is read from an untrusted page.
const MaxBodySize = 10 * 1024 * 1024

var ErrBodyTooLarge = errors.New("response body exceeds size limit")

// StatusError is returned for non-200 responses.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fetch %s: status %d", e.URL, e.Code)
}

// Fetcher downloads a page and extracts its main text.
type Fetcher struct {
	Client  *http.Client
	MaxBody int64
	Logger  *slog.Logger
}

// NewFetcher returns a fetcher with the given request timeout.
func NewFetcher(timeout time.Duration, logger *slog.Logger) *Fetcher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Fetcher{Client: &http.Client{Timeout: timeout}, Logger: logger}
}

// FetchFromURL returns the article title and text of rawURL. Pages without
// a title are named after their host.
func (f *Fetcher) FetchFromURL(ctx context.Context, rawURL string) (title, body string, err error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", "", fmt.Errorf("parse url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", "", fmt.Errorf("unsupported url scheme %q", u.Scheme)
	}

	content, err := f.get(ctx, rawURL)
	if err != nil {
		return "", "", err
	}
	// readability keeps ruby annotations as text, doubling every annotated character
	content = SanitizeRuby(content)

	article, err := readability.FromReader(bytes.NewReader(content), u)
	if err != nil {
		return "", "", fmt.Errorf("extract article: %w", err)
	}

	title = strings.TrimSpace(article.Title)
	if title == "" {
		title = u.Hostname()
	}
	body = strings.TrimSpace(article.TextContent)
	f.logger().Info("article fetched",
		slog.String("url", rawURL),
		slog.String("title", title),
		slog.Int("length", len(body)))
	return title, body, nil
}

func (f *Fetcher) get(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	setBrowserHeaders(req)

	client := f.Client
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{URL: rawURL, Code: resp.StatusCode}
	}

	limit := f.MaxBody
	if limit <= 0 {
		limit = MaxBodySize
	}
	if resp.ContentLength > limit {
		return nil, fmt.Errorf("%w: content-length %d, limit %d", ErrBodyTooLarge, resp.ContentLength, limit)
	}
	// one extra byte tells a body of exactly limit bytes from a truncated one
	content, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if int64(len(content)) > limit {
		return nil, fmt.Errorf("%w: limit %d", ErrBodyTooLarge, limit)
	}
	return content, nil
}

func setBrowserHeaders(req *http.Request) {
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8")
	req.Header.Set("Accept-Language", "zh-CN,zh;q=0.9,zh-TW;q=0.8,en;q=0.7")
	req.Header.Set("Referer", "https://www.google.com/")
	req.Header.Set("Sec-Fetch-Dest", "document")
	req.Header.Set("Sec-Fetch-Mode", "navigate")
	req.Header.Set("Sec-Fetch-Site", "cross-site")
	req.Header.Set("Upgrade-Insecure-Requests", "1")
}

func (f *Fetcher) logger() *slog.Logger {
	if f.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return f.Logger
}

var (
	reRT = regexp.MustCompile(`(?si)<rt\b[^>]*>.*?</rt>`)
	reRP = regexp.MustCompile(`(?si)<rp\b[^>]*>.*?</rp>`)
)

// SanitizeRuby removes ruby text (<rt>) and ruby parentheses (<rp>) so pages
// annotated with pinyin or zhuyin yield only the base characters.
func SanitizeRuby(content []byte) []byte {
	cleaned := reRT.ReplaceAll(content, nil)
	return reRP.ReplaceAll(cleaned, nil)
}
