package textsource

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"
)

func serve(t *testing.T, h http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchFromURL(t *testing.T) {
	page, err := os.ReadFile("testdata/article.html")
	if err != nil {
		t.Fatalf("Failed to read test data: %v", err)
	}
	var gotUA, gotLang string
	srv := serve(t, func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotLang = r.Header.Get("Accept-Language")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write(page)
	})

	title, body, err := NewFetcher(5*time.Second, nil).FetchFromURL(context.Background(), srv.URL+"/lesson")
	if err != nil {
		t.Fatalf("FetchFromURL failed: %v", err)
	}
	if !strings.Contains(title, "学中文的第一天") {
		t.Errorf("unexpected title %q", title)
	}
	if !strings.Contains(body, "老师好") {
		t.Errorf("body missing article text: %q", body)
	}
	if strings.Contains(body, "cháng") {
		t.Errorf("ruby annotation leaked into body: %q", body)
	}
	if !strings.Contains(gotUA, "Mozilla/5.0") || !strings.HasPrefix(gotLang, "zh") {
		t.Errorf("browser headers not sent: ua=%q lang=%q", gotUA, gotLang)
	}
}

func TestFetchTitleFallsBackToHost(t *testing.T) {
	srv := serve(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte("<html><body><p>" + strings.Repeat("我们一起读书。", 120) + "</p></body></html>"))
	})

	title, body, err := NewFetcher(5*time.Second, nil).FetchFromURL(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("FetchFromURL failed: %v", err)
	}
	if title != "127.0.0.1" {
		t.Errorf("title = %q, want host", title)
	}
	if !strings.Contains(body, "我们一起读书") {
		t.Errorf("unexpected body %q", body)
	}
}

func TestFetchErrors(t *testing.T) {
	notFound := serve(t, func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	huge := serve(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(strings.Repeat("字", 100)))
	})

	f := NewFetcher(5*time.Second, nil)
	_, _, err := f.FetchFromURL(context.Background(), notFound.URL)
	var se *StatusError
	if !errors.As(err, &se) || se.Code != http.StatusNotFound {
		t.Errorf("expected 404 StatusError, got %v", err)
	}

	f.MaxBody = 64
	_, _, err = f.FetchFromURL(context.Background(), huge.URL)
	if !errors.Is(err, ErrBodyTooLarge) {
		t.Errorf("expected ErrBodyTooLarge, got %v", err)
	}

	_, _, err = f.FetchFromURL(context.Background(), "ftp://example.com/file")
	if err == nil {
		t.Error("expected error for unsupported scheme")
	}
}

func TestSanitizeRuby(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "Simple Ruby",
			input:    "<ruby>汉字<rt>hànzì</rt></ruby>",
			expected: "<ruby>汉字</ruby>",
		},
		{
			name:     "Ruby with RP",
			input:    "<ruby>漢<rp>(</rp><rt>ㄏㄢˋ</rt><rp>)</rp></ruby>",
			expected: "<ruby>漢</ruby>",
		},
		{
			name:     "Multiple Ruby",
			input:    "<ruby>我<rt>wǒ</rt></ruby>是<ruby>猫<rt>māo</rt></ruby>",
			expected: "<ruby>我</ruby>是<ruby>猫</ruby>",
		},
		{
			name:     "Attributes in tags",
			input:    "<ruby class='test'>长<RT class='reading'>cháng</RT></ruby>",
			expected: "<ruby class='test'>长</ruby>",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := SanitizeRuby([]byte(tt.input))
			if string(result) != tt.expected {
				t.Errorf("got %q, want %q", string(result), tt.expected)
			}
		})
	}
}
