package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgallion1/docindex/internal/chunker"
	"github.com/dgallion1/docindex/internal/document"
	"github.com/dgallion1/docindex/internal/embed"
	"github.com/dgallion1/docindex/internal/extract"
	"github.com/dgallion1/docindex/internal/index"
)

// BlobSource lists, fetches and flags documents in the source container.
type BlobSource interface {
	ListPending(ctx context.Context) ([]string, error)
	Download(ctx context.Context, name string) ([]byte, error)
	MarkProcessed(ctx context.Context, name string) error
}

// Indexer writes search documents.
type Indexer interface {
	MergeOrUpload(ctx context.Context, docs []index.SearchDocument) ([]index.Result, error)
}

// Deps are the collaborators a Worker drives. Blobs may be nil when only
// uploads are processed.
type Deps struct {
	Extractor extract.Extractor
	Blobs     BlobSource
	Chunker   *chunker.Chunker
	Embedder  embed.Embedder
	Indexer   Indexer

	EmbedBatchSize      int
	EmbedMaxBatchTokens int
	IndexBatchSize      int
}

// Worker processes a single document job. It keeps no per-job state and may
// be shared by several goroutines.
type Worker struct {
	deps    Deps
	log     *slog.Logger
	backoff func(int) time.Duration
}

func NewWorker(deps Deps, log *slog.Logger) *Worker {
	if deps.Chunker == nil {
		deps.Chunker = chunker.New(chunker.Config{Logger: log})
	}
	if deps.EmbedBatchSize <= 0 {
		deps.EmbedBatchSize = 100
	}
	if deps.IndexBatchSize <= 0 {
		deps.IndexBatchSize = 100
	}
	return &Worker{deps: deps, log: log, backoff: Backoff}
}

// Process runs extract, chunk, embed and index for a job. The outcome is
// recorded on the job; Process never panics on bad input.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "source", job.Source)

	// Phase 1: Extract
	job.SetStatus(StatusExtracting, "extracting")
	doc, err := w.extract(ctx, job, log)
	if err != nil {
		log.Error("extraction failed", "error", err)
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, "extracting")
		return
	}
	job.SetFileData(nil)
	job.SetContentHash(ContentHashHex([]byte(doc.Content)))

	// Phase 2: Chunk
	job.SetStatus(StatusChunking, "chunking")
	chunks, err := w.chunk(*doc)
	if err != nil {
		log.Error("chunking failed", "error", err)
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, "chunking")
		return
	}
	job.SetTotalChunks(len(chunks))
	if len(chunks) == 0 {
		log.Warn("no chunks produced")
		job.SetStatus(StatusCompleted, "empty")
		return
	}

	// Phase 3: Embed
	job.SetStatus(StatusEmbedding, "embedding")
	embedded := w.embed(ctx, job, chunks, log)
	if len(embedded) == 0 {
		job.SetStatus(StatusFailed, "embedding")
		return
	}

	// Phase 4: Index
	job.SetStatus(StatusIndexing, "indexing")
	indexed := w.index(ctx, job, embedded, log)
	log.Info("indexing complete", "chunks", len(chunks), "embedded", len(embedded), "indexed", indexed)

	switch {
	case indexed == len(chunks):
		job.SetStatus(StatusCompleted, "done")
	case indexed > 0:
		job.SetStatus(StatusPartial, "done")
	default:
		job.SetStatus(StatusFailed, "indexing")
	}
}

func (w *Worker) extract(ctx context.Context, job *Job, log *slog.Logger) (*document.SourceDocument, error) {
	data := job.FileData()
	if job.BlobName != "" {
		if w.deps.Blobs == nil {
			return nil, fmt.Errorf("blob job %s but no blob source configured", job.BlobName)
		}
		err := retry(ctx, log, w.backoff, "download", func() error {
			var err error
			data, err = w.deps.Blobs.Download(ctx, job.BlobName)
			return err
		})
		if err != nil {
			return nil, err
		}
	}

	var doc *document.SourceDocument
	err := retry(ctx, log, w.backoff, "extract", func() error {
		var err error
		doc, err = w.deps.Extractor.Extract(ctx, job.Source, data)
		return err
	})
	if err != nil {
		return nil, err
	}
	if job.Title != "" {
		doc.Metadata = doc.Metadata.Clone()
		if doc.Metadata.Extra == nil {
			doc.Metadata.Extra = map[string]any{}
		}
		doc.Metadata.Extra["title"] = job.Title
	}
	log.Info("extracted document", "method", doc.Metadata.ExtractionMethod, "pages", doc.Metadata.Pages)

	// The blob leaves the pending set once its content is in hand, so a later
	// failure is not retried on the next run.
	if job.BlobName != "" {
		if err := w.deps.Blobs.MarkProcessed(ctx, job.BlobName); err != nil {
			log.Warn("mark processed failed", "error", err)
			job.AddError(fmt.Sprintf("mark processed: %s", err))
		}
	}
	return doc, nil
}

// chunk runs the chunker, converting a panic into a StageError.
func (w *Worker) chunk(doc document.SourceDocument) (chunks []document.ChunkRecord, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &StageError{Stage: "chunking", Err: fmt.Errorf("panic: %v", r)}
		}
	}()
	return w.deps.Chunker.ChunkDocument(doc), nil
}

func (w *Worker) embed(ctx context.Context, job *Job, chunks []document.ChunkRecord, log *slog.Logger) []embed.Embedded {
	batches := embed.SplitBatches(chunks, w.deps.EmbedBatchSize, w.deps.EmbedMaxBatchTokens)
	var out []embed.Embedded
	for i, batch := range batches {
		var vectors [][]float64
		err := retry(ctx, log, w.backoff, "embed", func() error {
			var err error
			vectors, err = w.deps.Embedder.Embed(ctx, embed.Texts(batch))
			return err
		})
		if err == nil && len(vectors) != len(batch) {
			err = fmt.Errorf("got %d vectors for %d chunks", len(vectors), len(batch))
		}
		if err != nil {
			log.Error("embedding batch failed", "batch", i+1, "of", len(batches), "chunks", len(batch), "error", err)
			job.AddError(fmt.Sprintf("embed batch %d: %s", i+1, err))
			if errors.Is(err, context.Canceled) {
				break
			}
			continue
		}
		for j, ch := range batch {
			out = append(out, embed.Embedded{Chunk: ch, Vector: vectors[j]})
		}
		job.AddEmbedded(len(batch))
		log.Debug("embedding batch done", "batch", i+1, "of", len(batches), "chunks", len(batch))
	}
	return out
}

func (w *Worker) index(ctx context.Context, job *Job, embedded []embed.Embedded, log *slog.Logger) int {
	docs, err := index.BuildDocuments(embedded)
	if err != nil {
		log.Error("building search documents failed", "error", err)
		job.AddError(err.Error())
		return 0
	}

	indexed := 0
	size := w.deps.IndexBatchSize
	for start := 0; start < len(docs); start += size {
		batch := docs[start:min(start+size, len(docs))]
		batchNum := start/size + 1

		var results []index.Result
		err := retry(ctx, log, w.backoff, "index", func() error {
			var err error
			results, err = w.deps.Indexer.MergeOrUpload(ctx, batch)
			return err
		})
		if err != nil {
			log.Error("index batch failed", "batch", batchNum, "documents", len(batch), "error", err)
			job.AddError(fmt.Sprintf("index batch %d: %s", batchNum, err))
			if errors.Is(err, context.Canceled) {
				break
			}
			continue
		}

		ok := 0
		for _, r := range results {
			if r.Succeeded {
				ok++
				continue
			}
			log.Error("document rejected by index", "key", r.Key, "status", r.StatusCode, "message", r.ErrorMessage)
			job.AddError(fmt.Sprintf("index %s: %d %s", r.Key, r.StatusCode, r.ErrorMessage))
		}
		indexed += ok
		job.AddIndexed(ok)
		log.Info("index batch done", "batch", batchNum, "succeeded", ok, "documents", len(batch))
	}
	return indexed
}

// RunSummary tallies one pass over the pending blobs.
type RunSummary struct {
	Pending       int      `json:"pending"`
	Completed     int      `json:"completed"`
	Partial       int      `json:"partial"`
	Failed        int      `json:"failed"`
	Empty         int      `json:"empty"`
	ChunksIndexed int      `json:"chunks_indexed"`
	Failures      []string `json:"failures,omitempty"`
}

// RunPending processes every pending blob in order. A failed document is
// logged and counted; the run continues with the next one.
func (w *Worker) RunPending(ctx context.Context) (RunSummary, error) {
	var sum RunSummary
	if w.deps.Blobs == nil {
		return sum, fmt.Errorf("no blob source configured")
	}
	names, err := w.deps.Blobs.ListPending(ctx)
	if err != nil {
		return sum, fmt.Errorf("list pending: %w", err)
	}
	sum.Pending = len(names)
	w.log.Info("run started", "pending", len(names))

	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		job := NewBlobJob(name)
		w.Process(ctx, job)

		snap := job.Snapshot()
		sum.ChunksIndexed += snap.Progress.ChunksIndexed
		switch {
		case snap.Status == StatusCompleted && snap.Phase == "empty":
			sum.Empty++
		case snap.Status == StatusCompleted:
			sum.Completed++
		case snap.Status == StatusPartial:
			sum.Partial++
		default:
			sum.Failed++
			sum.Failures = append(sum.Failures, name)
		}
	}

	w.log.Info("run finished",
		"pending", sum.Pending, "completed", sum.Completed, "partial", sum.Partial,
		"failed", sum.Failed, "empty", sum.Empty, "chunks_indexed", sum.ChunksIndexed)
	return sum, nil
}
