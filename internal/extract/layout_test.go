package extract

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dgallion1/docindex/internal/document"
	"github.com/dgallion1/docindex/internal/remote"
)

func newTestLayout(url string) *LayoutClient {
	return NewLayoutClient(LayoutConfig{
		Endpoint:          url + "/",
		APIKey:            "secret",
		RequestsPerMinute: 6000,
		PollInterval:      time.Millisecond,
	})
}

func TestLayoutClient_AnalyzeSucceeds(t *testing.T) {
	var polls atomic.Int32
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Ocp-Apim-Subscription-Key") != "secret" {
			t.Errorf("missing api key header")
		}
		switch {
		case r.Method == http.MethodPost:
			if r.URL.Path != "/documentintelligence/documentModels/prebuilt-layout:analyze" {
				t.Errorf("unexpected path %q", r.URL.Path)
			}
			if r.URL.Query().Get("outputContentFormat") != "markdown" || r.URL.Query().Get("api-version") != "2024-11-30" {
				t.Errorf("unexpected query %q", r.URL.RawQuery)
			}
			var req analyzeRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				t.Errorf("decode: %v", err)
			}
			if raw, _ := base64.StdEncoding.DecodeString(req.Base64Source); string(raw) != "%PDF" {
				t.Errorf("unexpected source %q", raw)
			}
			w.Header().Set("Operation-Location", srv.URL+"/ops/1")
			w.WriteHeader(http.StatusAccepted)
		case r.URL.Path == "/ops/1":
			if polls.Add(1) < 2 {
				w.Write([]byte(`{"status":"running"}`))
				return
			}
			w.Write([]byte(`{"status":"succeeded","analyzeResult":{"content":"# Title\n\nBody","pages":[{},{},{}]}}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := newTestLayout(srv.URL)
	defer c.Close()

	doc, err := c.Analyze(context.Background(), "report.pdf", []byte("%PDF"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Content != "# Title\n\nBody" {
		t.Errorf("unexpected content %q", doc.Content)
	}
	m := doc.Metadata
	if m.Source != "report.pdf" || m.Pages != 3 || m.ExtractionMethod != document.MethodLayout || m.ContentFormat != document.ContentFormatMarkdown {
		t.Errorf("unexpected metadata %+v", m)
	}
	if polls.Load() != 2 {
		t.Errorf("expected 2 polls, got %d", polls.Load())
	}
	if snap := c.stats.Snapshot(); snap.Calls != 1 || snap.Errors != 0 {
		t.Errorf("expected one successful call recorded, got %+v", snap)
	}
}

func TestLayoutClient_PagesDefaultToOne(t *testing.T) {
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			w.Header().Set("Operation-Location", srv.URL+"/ops/1")
			w.WriteHeader(http.StatusAccepted)
			return
		}
		w.Write([]byte(`{"status":"succeeded","analyzeResult":{"content":"x"}}`))
	}))
	defer srv.Close()

	doc, err := newTestLayout(srv.URL).Analyze(context.Background(), "a.pdf", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Metadata.Pages != 1 {
		t.Errorf("expected pages=1, got %d", doc.Metadata.Pages)
	}
}

func TestLayoutClient_ThrottledIsRetryable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte("slow down"))
	}))
	defer srv.Close()

	_, err := newTestLayout(srv.URL).Analyze(context.Background(), "a.pdf", nil)
	var re *remote.RetryableError
	if !errors.As(err, &re) || re.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("expected retryable 429, got %v", err)
	}
}

func TestLayoutClient_FailedOperation(t *testing.T) {
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			w.Header().Set("Operation-Location", srv.URL+"/ops/1")
			w.WriteHeader(http.StatusAccepted)
			return
		}
		w.Write([]byte(`{"status":"failed","error":{"code":"InvalidContent","message":"corrupt"}}`))
	}))
	defer srv.Close()

	_, err := newTestLayout(srv.URL).Analyze(context.Background(), "a.pdf", nil)
	if err == nil || !strings.Contains(err.Error(), "InvalidContent") {
		t.Fatalf("expected failure with error code, got %v", err)
	}
	var re *remote.RetryableError
	if errors.As(err, &re) {
		t.Error("failed analysis should not be retryable")
	}
}

func TestLayoutClient_MissingOperationLocation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	if _, err := newTestLayout(srv.URL).Analyze(context.Background(), "a.pdf", nil); err == nil {
		t.Fatal("expected error for missing Operation-Location")
	}
}

func TestLayoutClient_PollHonorsContext(t *testing.T) {
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			w.Header().Set("Operation-Location", srv.URL+"/ops/1")
			w.WriteHeader(http.StatusAccepted)
			return
		}
		w.Write([]byte(`{"status":"running"}`))
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := newTestLayout(srv.URL).Analyze(ctx, "a.pdf", nil)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestRetryAfter(t *testing.T) {
	fallback := 500 * time.Millisecond
	tests := map[string]time.Duration{
		"":    fallback,
		"2":   2 * time.Second,
		"0":   fallback,
		"abc": fallback,
	}
	for in, want := range tests {
		if got := retryAfter(in, fallback); got != want {
			t.Errorf("retryAfter(%q) = %v, want %v", in, got, want)
		}
	}
}
