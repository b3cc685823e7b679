package blobstore

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/dgallion1/docindex/internal/remote"
)

// Blob state flags kept in the "state" metadata key.
const (
	StatePending   = "pending"
	StateProcessed = "processed"

	stateKey = "state"
)

// Config configures Store.
type Config struct {
	AccountName string
	AccountKey  string
	Container   string
	Endpoint    string // defaults to https://{account}.blob.core.windows.net/
	Logger      *slog.Logger
	Stats       *remote.LatencyStats
}

// Store reads source PDFs from one blob container and tracks their
// processing state in blob metadata.
type Store struct {
	client    *azblob.Client
	container string
	log       *slog.Logger
	stats     *remote.LatencyStats
}

func New(cfg Config) (*Store, error) {
	cred, err := azblob.NewSharedKeyCredential(cfg.AccountName, cfg.AccountKey)
	if err != nil {
		return nil, fmt.Errorf("blob credential: %w", err)
	}
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = fmt.Sprintf("https://%s.blob.core.windows.net/", cfg.AccountName)
	}
	client, err := azblob.NewClientWithSharedKeyCredential(endpoint, cred, nil)
	if err != nil {
		return nil, fmt.Errorf("blob client: %w", err)
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	if cfg.Stats == nil {
		cfg.Stats = remote.NewLatencyStats(time.Hour)
	}
	return &Store{client: client, container: cfg.Container, log: cfg.Logger, stats: cfg.Stats}, nil
}

// ListPending returns the names of PDF blobs whose state is absent or
// pending, in listing order.
func (s *Store) ListPending(ctx context.Context) ([]string, error) {
	var names []string
	pager := s.client.NewListBlobsFlatPager(s.container, &azblob.ListBlobsFlatOptions{
		Include: azblob.ListBlobsInclude{Metadata: true},
	})
	for pager.More() {
		var page azblob.ListBlobsFlatResponse
		err := s.stats.Time(func() error {
			var err error
			page, err = pager.NextPage(ctx)
			return err
		})
		if err != nil {
			return nil, fmt.Errorf("list blobs in %s: %w", s.container, err)
		}
		for _, item := range page.Segment.BlobItems {
			if item == nil || item.Name == nil {
				continue
			}
			if IsPendingPDF(*item.Name, item.Metadata) {
				names = append(names, *item.Name)
			}
		}
	}
	s.log.Info("pending blobs listed", "container", s.container, "count", len(names))
	return names, nil
}

// Download returns the full contents of the named blob.
func (s *Store) Download(ctx context.Context, name string) ([]byte, error) {
	var data []byte
	err := s.stats.Time(func() error {
		resp, err := s.client.DownloadStream(ctx, s.container, name, nil)
		if err != nil {
			return fmt.Errorf("download %s: %w", name, err)
		}
		defer resp.Body.Close()
		data, err = io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("read %s: %w", name, err)
		}
		return nil
	})
	return data, err
}

// MarkProcessed sets state=processed on the blob, keeping its other
// metadata.
func (s *Store) MarkProcessed(ctx context.Context, name string) error {
	return s.stats.Time(func() error {
		blobClient := s.client.ServiceClient().NewContainerClient(s.container).NewBlobClient(name)
		props, err := blobClient.GetProperties(ctx, nil)
		if err != nil {
			return fmt.Errorf("get properties %s: %w", name, err)
		}
		if _, err := blobClient.SetMetadata(ctx, WithState(props.Metadata, StateProcessed), nil); err != nil {
			return fmt.Errorf("set metadata %s: %w", name, err)
		}
		s.log.Info("blob marked processed", "blob", name)
		return nil
	})
}

// IsPendingPDF reports whether a blob should be picked up: a .pdf name
// (any case) whose state metadata is absent or pending.
func IsPendingPDF(name string, metadata map[string]*string) bool {
	if !strings.EqualFold(path.Ext(name), ".pdf") {
		return false
	}
	state, ok := lookup(metadata, stateKey)
	return !ok || strings.EqualFold(state, StatePending)
}

// WithState copies metadata and sets the state key, replacing any
// differently-cased existing state key.
func WithState(metadata map[string]*string, state string) map[string]*string {
	out := make(map[string]*string, len(metadata)+1)
	for k, v := range metadata {
		if strings.EqualFold(k, stateKey) {
			continue
		}
		out[k] = v
	}
	out[stateKey] = &state
	return out
}

// lookup finds key case-insensitively; the service may return metadata
// keys in a different case than they were written.
func lookup(metadata map[string]*string, key string) (string, bool) {
	for k, v := range metadata {
		if strings.EqualFold(k, key) && v != nil {
			return *v, true
		}
	}
	return "", false
}
