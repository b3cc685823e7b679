package pipeline

import (
	"context"
	"log/slog"
	"testing"
	"time"
)

func waitTerminal(t *testing.T, job *Job) JobSnapshot {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if snap := job.Snapshot(); snap.Status.Terminal() {
			return snap
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("job %s did not finish", job.ID)
	return JobSnapshot{}
}

func TestOrchestrator_ProcessesSubmittedJobs(t *testing.T) {
	h := newHarness()
	o := NewOrchestrator(Options{WorkerCount: 2, MaxQueueSize: 10}, h.worker, h.blobs, slog.New(slog.DiscardHandler))
	o.Start(context.Background())
	defer o.Stop()

	jobs := []*Job{
		NewUploadJob("a.md", "", []byte(threeSections)),
		NewUploadJob("b.md", "", []byte(threeSections)),
	}
	for _, j := range jobs {
		if err := o.Submit(j); err != nil {
			t.Fatalf("Submit: %v", err)
		}
	}
	for _, j := range jobs {
		if snap := waitTerminal(t, j); snap.Status != StatusCompleted {
			t.Errorf("expected %s completed, got %s", j.Source, snap.Status)
		}
		if o.GetJob(j.ID) != j {
			t.Errorf("expected job %s to be tracked", j.ID)
		}
	}
	if got := o.JobCounts()[StatusCompleted]; got != 2 {
		t.Errorf("expected 2 completed jobs, got %d", got)
	}
}

func TestOrchestrator_QueueFull(t *testing.T) {
	h := newHarness()
	o := NewOrchestrator(Options{WorkerCount: 1, MaxQueueSize: 1}, h.worker, nil, slog.New(slog.DiscardHandler))
	// Not started: nothing drains the queue.

	if err := o.Submit(NewUploadJob("a.md", "", nil)); err != nil {
		t.Fatalf("first submit: %v", err)
	}
	second := NewUploadJob("b.md", "", nil)
	if err := o.Submit(second); err == nil {
		t.Fatal("expected queue full error")
	}
	if snap := second.Snapshot(); snap.Status != StatusFailed || snap.Phase != "queue_full" {
		t.Errorf("expected failed/queue_full, got %s/%s", snap.Status, snap.Phase)
	}
	if o.QueueDepth() != 1 {
		t.Errorf("expected queue depth 1, got %d", o.QueueDepth())
	}
	o.Stop()
}

func TestOrchestrator_SubmitPending(t *testing.T) {
	h := newHarness()
	h.blobs.data["a.md"] = []byte(threeSections)
	h.blobs.data["b.md"] = []byte(threeSections)
	h.blobs.pending = []string{"a.md", "b.md"}
	o := NewOrchestrator(Options{WorkerCount: 1, MaxQueueSize: 10}, h.worker, h.blobs, slog.New(slog.DiscardHandler))
	o.Start(context.Background())
	defer o.Stop()

	jobs, err := o.SubmitPending(context.Background())
	if err != nil {
		t.Fatalf("SubmitPending: %v", err)
	}
	if len(jobs) != 2 {
		t.Fatalf("expected 2 jobs, got %d", len(jobs))
	}
	for _, j := range jobs {
		if snap := waitTerminal(t, j); snap.Status != StatusCompleted {
			t.Errorf("expected %s completed, got %s", j.BlobName, snap.Status)
		}
	}
}

func TestOrchestrator_SubmitPendingWithoutBlobs(t *testing.T) {
	o := NewOrchestrator(Options{}, NewWorker(Deps{}, slog.New(slog.DiscardHandler)), nil, slog.New(slog.DiscardHandler))
	if _, err := o.SubmitPending(context.Background()); err == nil {
		t.Error("expected error without blob source")
	}
}
