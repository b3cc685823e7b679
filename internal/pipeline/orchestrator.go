package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Options sizes the orchestrator's queue and worker pool.
type Options struct {
	WorkerCount  int
	MaxQueueSize int
	JobTTL       time.Duration
}

// Orchestrator feeds queued jobs to a pool of goroutines sharing one Worker.
type Orchestrator struct {
	jobs   *JobStore
	queue  chan *Job
	worker *Worker
	blobs  BlobSource
	log    *slog.Logger
	opts   Options

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewOrchestrator creates the pipeline. blobs may be nil, in which case
// SubmitPending reports an error.
func NewOrchestrator(opts Options, worker *Worker, blobs BlobSource, log *slog.Logger) *Orchestrator {
	if opts.WorkerCount <= 0 {
		opts.WorkerCount = 1
	}
	if opts.MaxQueueSize <= 0 {
		opts.MaxQueueSize = 100
	}
	if opts.JobTTL <= 0 {
		opts.JobTTL = time.Hour
	}
	return &Orchestrator{
		jobs:   NewJobStore(opts.JobTTL),
		queue:  make(chan *Job, opts.MaxQueueSize),
		worker: worker,
		blobs:  blobs,
		log:    log,
		opts:   opts,
	}
}

// Start launches worker goroutines.
func (o *Orchestrator) Start(ctx context.Context) {
	workerCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel

	for range o.opts.WorkerCount {
		o.wg.Add(1)
		go func() {
			defer o.wg.Done()
			for {
				select {
				case <-workerCtx.Done():
					return
				case job, ok := <-o.queue:
					if !ok {
						return
					}
					o.worker.Process(workerCtx, job)
				}
			}
		}()
	}

	// Start job store cleanup.
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-workerCtx.Done():
				return
			case <-ticker.C:
				o.jobs.Cleanup()
			}
		}
	}()
}

// Stop gracefully shuts down the pipeline.
func (o *Orchestrator) Stop() {
	if o.cancel != nil {
		o.cancel()
	}
	close(o.queue)
	o.wg.Wait()
}

// Submit queues a new job for processing.
func (o *Orchestrator) Submit(job *Job) error {
	o.jobs.Put(job)
	select {
	case o.queue <- job:
		return nil
	default:
		job.SetStatus(StatusFailed, "queue_full")
		return fmt.Errorf("job queue is full (%d)", o.opts.MaxQueueSize)
	}
}

// SubmitPending lists pending blobs and queues a job for each. Jobs that
// were queued before the queue filled are returned alongside the error.
func (o *Orchestrator) SubmitPending(ctx context.Context) ([]*Job, error) {
	if o.blobs == nil {
		return nil, fmt.Errorf("no blob source configured")
	}
	names, err := o.blobs.ListPending(ctx)
	if err != nil {
		return nil, fmt.Errorf("list pending: %w", err)
	}
	jobs := make([]*Job, 0, len(names))
	for _, name := range names {
		job := NewBlobJob(name)
		if err := o.Submit(job); err != nil {
			return jobs, err
		}
		jobs = append(jobs, job)
	}
	o.log.Info("queued pending blobs", "count", len(jobs))
	return jobs, nil
}

// GetJob returns a job by ID.
func (o *Orchestrator) GetJob(id string) *Job {
	return o.jobs.Get(id)
}

// QueueDepth returns current queue depth.
func (o *Orchestrator) QueueDepth() int {
	return len(o.queue)
}

// JobCounts returns the number of tracked jobs per status.
func (o *Orchestrator) JobCounts() map[JobStatus]int {
	return o.jobs.Counts()
}
