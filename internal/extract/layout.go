package extract

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dgallion1/docindex/internal/document"
	"github.com/dgallion1/docindex/internal/remote"
	"golang.org/x/time/rate"
)

// LayoutConfig configures the Document Intelligence layout client.
type LayoutConfig struct {
	Endpoint          string
	APIKey            string
	Model             string // defaults to prebuilt-layout
	APIVersion        string // defaults to 2024-11-30
	RequestsPerMinute int    // analyze submissions per minute; defaults to 15
	PollInterval      time.Duration
	Logger            *slog.Logger
	Stats             *remote.LatencyStats
}

// LayoutClient submits documents to the layout analyzer and returns the
// markdown rendering of the result.
type LayoutClient struct {
	endpoint     string
	apiKey       string
	model        string
	apiVersion   string
	pollInterval time.Duration
	limiter      *rate.Limiter
	httpClient   *http.Client
	log          *slog.Logger
	stats        *remote.LatencyStats
}

func NewLayoutClient(cfg LayoutConfig) *LayoutClient {
	if cfg.Model == "" {
		cfg.Model = "prebuilt-layout"
	}
	if cfg.APIVersion == "" {
		cfg.APIVersion = "2024-11-30"
	}
	if cfg.RequestsPerMinute <= 0 {
		cfg.RequestsPerMinute = 15
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	if cfg.Stats == nil {
		cfg.Stats = remote.NewLatencyStats(time.Hour)
	}
	return &LayoutClient{
		endpoint:     strings.TrimRight(cfg.Endpoint, "/"),
		apiKey:       cfg.APIKey,
		model:        cfg.Model,
		apiVersion:   cfg.APIVersion,
		pollInterval: cfg.PollInterval,
		limiter:      rate.NewLimiter(rate.Limit(cfg.RequestsPerMinute)/60, 1), // per-minute to per-second
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		log:   cfg.Logger,
		stats: cfg.Stats,
	}
}

type analyzeRequest struct {
	Base64Source string `json:"base64Source"`
}

type analyzeOperation struct {
	Status        string `json:"status"`
	AnalyzeResult *struct {
		Content string            `json:"content"`
		Pages   []json.RawMessage `json:"pages"`
	} `json:"analyzeResult"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Analyze runs layout analysis over data and returns the markdown document.
// 429 and 5xx responses surface as *remote.RetryableError.
func (c *LayoutClient) Analyze(ctx context.Context, name string, data []byte) (*document.SourceDocument, error) {
	var doc *document.SourceDocument
	err := c.stats.Time(func() error {
		var err error
		doc, err = c.analyze(ctx, name, data)
		return err
	})
	return doc, err
}

func (c *LayoutClient) analyze(ctx context.Context, name string, data []byte) (*document.SourceDocument, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("layout rate limit: %w", err)
	}

	opURL, err := c.submit(ctx, data)
	if err != nil {
		return nil, err
	}
	c.log.Debug("layout analysis submitted", "source", name, "operation", opURL)

	op, err := c.poll(ctx, opURL)
	if err != nil {
		return nil, err
	}

	pages := len(op.AnalyzeResult.Pages)
	if pages == 0 {
		pages = 1
	}
	return &document.SourceDocument{
		Content: op.AnalyzeResult.Content,
		Metadata: document.Metadata{
			Source:           name,
			ExtractionMethod: document.MethodLayout,
			Pages:            pages,
			ContentFormat:    document.ContentFormatMarkdown,
		},
	}, nil
}

func (c *LayoutClient) submit(ctx context.Context, data []byte) (string, error) {
	body, err := json.Marshal(analyzeRequest{Base64Source: base64.StdEncoding.EncodeToString(data)})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	q := url.Values{}
	q.Set("api-version", c.apiVersion)
	q.Set("outputContentFormat", "markdown")
	u := fmt.Sprintf("%s/documentintelligence/documentModels/%s:analyze?%s", c.endpoint, url.PathEscape(c.model), q.Encode())

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Ocp-Apim-Subscription-Key", c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("layout analyze: %w", err)
	}
	defer resp.Body.Close()

	if err := remote.CheckResponse("layout analyze", resp, http.StatusAccepted); err != nil {
		return "", err
	}
	opURL := resp.Header.Get("Operation-Location")
	if opURL == "" {
		return "", fmt.Errorf("layout analyze: missing Operation-Location header")
	}
	return opURL, nil
}

func (c *LayoutClient) poll(ctx context.Context, opURL string) (*analyzeOperation, error) {
	for {
		op, wait, err := c.fetchOperation(ctx, opURL)
		if err != nil {
			return nil, err
		}
		switch strings.ToLower(op.Status) {
		case "succeeded":
			if op.AnalyzeResult == nil {
				return nil, fmt.Errorf("layout analyze: succeeded without result")
			}
			return op, nil
		case "failed", "canceled":
			msg := op.Status
			if op.Error != nil {
				msg = op.Error.Code + ": " + op.Error.Message
			}
			return nil, fmt.Errorf("layout analyze failed: %s", msg)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}
}

func (c *LayoutClient) fetchOperation(ctx context.Context, opURL string) (*analyzeOperation, time.Duration, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, opURL, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Ocp-Apim-Subscription-Key", c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, 0, fmt.Errorf("layout poll: %w", err)
	}
	defer resp.Body.Close()

	if err := remote.CheckResponse("layout poll", resp, http.StatusOK); err != nil {
		return nil, 0, err
	}

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 64<<20))
	if err != nil {
		return nil, 0, fmt.Errorf("read response: %w", err)
	}
	var op analyzeOperation
	if err := json.Unmarshal(respBody, &op); err != nil {
		return nil, 0, fmt.Errorf("decode operation: %w", err)
	}
	return &op, retryAfter(resp.Header.Get("Retry-After"), c.pollInterval), nil
}

// retryAfter parses a Retry-After header given in seconds.
func retryAfter(v string, fallback time.Duration) time.Duration {
	secs, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || secs <= 0 {
		return fallback
	}
	return time.Duration(secs) * time.Second
}

// Close releases resources.
func (c *LayoutClient) Close() {
	c.httpClient.CloseIdleConnections()
}
