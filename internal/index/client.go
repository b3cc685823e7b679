package index

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dgallion1/docindex/internal/remote"
)

// ErrIndexNotFound is returned when the named index does not exist.
var ErrIndexNotFound = errors.New("index not found")

// Config configures Client.
type Config struct {
	Endpoint   string
	APIKey     string
	IndexName  string
	APIVersion string // defaults to 2024-07-01
	// Pauses after delete and create while the service settles; zero means
	// 5s and 10s, negative disables the pause.
	DeleteSettle time.Duration
	CreateSettle time.Duration
	Logger       *slog.Logger
	Stats        *remote.LatencyStats
}

// Client talks to the search service REST API.
type Client struct {
	endpoint     string
	apiKey       string
	indexName    string
	apiVersion   string
	deleteSettle time.Duration
	createSettle time.Duration
	httpClient   *http.Client
	log          *slog.Logger
	stats        *remote.LatencyStats
}

func NewClient(cfg Config) *Client {
	if cfg.APIVersion == "" {
		cfg.APIVersion = "2024-07-01"
	}
	if cfg.DeleteSettle == 0 {
		cfg.DeleteSettle = 5 * time.Second
	}
	if cfg.CreateSettle == 0 {
		cfg.CreateSettle = 10 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	if cfg.Stats == nil {
		cfg.Stats = remote.NewLatencyStats(time.Hour)
	}
	return &Client{
		endpoint:     strings.TrimRight(cfg.Endpoint, "/"),
		apiKey:       cfg.APIKey,
		indexName:    cfg.IndexName,
		apiVersion:   cfg.APIVersion,
		deleteSettle: cfg.DeleteSettle,
		createSettle: cfg.CreateSettle,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		log:   cfg.Logger,
		stats: cfg.Stats,
	}
}

// IndexName is the index documents are written to.
func (c *Client) IndexName() string {
	return c.indexName
}

// Result is the per-document outcome of an indexing request.
type Result struct {
	Key          string `json:"key"`
	Succeeded    bool   `json:"status"`
	ErrorMessage string `json:"errorMessage"`
	StatusCode   int    `json:"statusCode"`
}

type indexAction struct {
	Action string `json:"@search.action"`
	SearchDocument
}

// MergeOrUpload writes docs to the index, merging into existing documents
// with the same key. Per-document failures are reported in the results, not
// as an error.
func (c *Client) MergeOrUpload(ctx context.Context, docs []SearchDocument) ([]Result, error) {
	if len(docs) == 0 {
		return nil, nil
	}
	actions := make([]indexAction, len(docs))
	for i, d := range docs {
		actions[i] = indexAction{Action: "mergeOrUpload", SearchDocument: d}
	}
	body, err := json.Marshal(map[string]any{"value": actions})
	if err != nil {
		return nil, fmt.Errorf("marshal documents: %w", err)
	}

	var results []Result
	err = c.stats.Time(func() error {
		resp, err := c.do(ctx, http.MethodPost, "/indexes/"+url.PathEscape(c.indexName)+"/docs/index", body)
		if err != nil {
			return fmt.Errorf("index documents: %w", err)
		}
		defer resp.Body.Close()
		// 207 means some documents failed; the body lists which.
		if err := remote.CheckResponse("index documents", resp, http.StatusOK, http.StatusMultiStatus); err != nil {
			return err
		}
		var out struct {
			Value []Result `json:"value"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			return fmt.Errorf("decode index results: %w", err)
		}
		results = out.Value
		return nil
	})
	return results, err
}

// GetIndex returns the raw index definition, or ErrIndexNotFound.
func (c *Client) GetIndex(ctx context.Context, name string) (json.RawMessage, error) {
	resp, err := c.do(ctx, http.MethodGet, "/indexes/"+url.PathEscape(name), nil)
	if err != nil {
		return nil, fmt.Errorf("get index: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("get index %s: %w", name, ErrIndexNotFound)
	}
	if err := remote.CheckResponse("get index "+name, resp, http.StatusOK); err != nil {
		return nil, err
	}
	schema, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, fmt.Errorf("read index: %w", err)
	}
	return schema, nil
}

// DeleteIndex removes the named index. A missing index is not an error.
func (c *Client) DeleteIndex(ctx context.Context, name string) error {
	resp, err := c.do(ctx, http.MethodDelete, "/indexes/"+url.PathEscape(name), nil)
	if err != nil {
		return fmt.Errorf("delete index: %w", err)
	}
	defer resp.Body.Close()
	return remote.CheckResponse("delete index "+name, resp, http.StatusNoContent, http.StatusOK, http.StatusNotFound)
}

// CreateIndex creates an index from a definition previously returned by
// GetIndex. Read-only OData annotations are dropped first.
func (c *Client) CreateIndex(ctx context.Context, schema json.RawMessage) error {
	var def map[string]json.RawMessage
	if err := json.Unmarshal(schema, &def); err != nil {
		return fmt.Errorf("decode index definition: %w", err)
	}
	for k := range def {
		if strings.HasPrefix(k, "@odata.") {
			delete(def, k)
		}
	}
	body, err := json.Marshal(def)
	if err != nil {
		return fmt.Errorf("marshal index definition: %w", err)
	}

	resp, err := c.do(ctx, http.MethodPost, "/indexes", body)
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	defer resp.Body.Close()
	return remote.CheckResponse("create index", resp, http.StatusCreated)
}

// Recreate drops the configured index and creates it again with the same
// definition, leaving it empty.
func (c *Client) Recreate(ctx context.Context) error {
	log := c.log.With("index", c.indexName)

	schema, err := c.GetIndex(ctx, c.indexName)
	if err != nil {
		return fmt.Errorf("read current definition: %w", err)
	}
	log.Info("index definition fetched")

	if err := c.DeleteIndex(ctx, c.indexName); err != nil {
		return err
	}
	log.Info("index deleted, waiting for service", "wait", c.deleteSettle)
	if err := sleep(ctx, c.deleteSettle); err != nil {
		return err
	}

	if err := c.CreateIndex(ctx, schema); err != nil {
		return err
	}
	log.Info("index created, waiting for service", "wait", c.createSettle)
	if err := sleep(ctx, c.createSettle); err != nil {
		return err
	}

	if _, err := c.GetIndex(ctx, c.indexName); err != nil {
		return fmt.Errorf("verify recreated index: %w", err)
	}
	log.Info("index recreated")
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body []byte) (*http.Response, error) {
	var r io.Reader
	if body != nil {
		r = bytes.NewReader(body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, c.endpoint+path+"?api-version="+url.QueryEscape(c.apiVersion), r)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	httpReq.Header.Set("api-key", c.apiKey)
	return c.httpClient.Do(httpReq)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Close releases resources.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}
