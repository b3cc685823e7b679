package remote

import (
	"errors"
	"testing"
	"time"
)

// fakeClock returns stats whose clock the test advances by hand.
func fakeClock(window time.Duration) (*LatencyStats, *time.Time) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s := NewLatencyStats(window)
	s.now = func() time.Time { return now }
	return s, &now
}

func TestLatencyStatsSnapshotPercentiles(t *testing.T) {
	stats := NewLatencyStats(time.Hour)
	for _, ms := range []int64{300, 100, 500, 200, 400} {
		stats.Observe(time.Duration(ms)*time.Millisecond, nil)
	}

	snap := stats.Snapshot()
	if snap.Calls != 5 {
		t.Fatalf("expected calls=5, got %d", snap.Calls)
	}
	if snap.MinMs != 100 || snap.MaxMs != 500 {
		t.Fatalf("expected min=100 max=500, got min=%d max=%d", snap.MinMs, snap.MaxMs)
	}
	if snap.AvgMs != 300 {
		t.Fatalf("expected avg=300, got %f", snap.AvgMs)
	}
	if snap.P50Ms != 300 {
		t.Fatalf("expected p50=300, got %f", snap.P50Ms)
	}
	if snap.P95Ms != 480 {
		t.Fatalf("expected p95=480, got %f", snap.P95Ms)
	}
	if snap.P99Ms != 496 {
		t.Fatalf("expected p99=496, got %f", snap.P99Ms)
	}
}

func TestLatencyStatsCountsErrors(t *testing.T) {
	stats := NewLatencyStats(time.Hour)
	stats.Observe(time.Millisecond, nil)
	stats.Observe(time.Millisecond, errors.New("boom"))

	if snap := stats.Snapshot(); snap.Errors != 1 || snap.Calls != 2 {
		t.Fatalf("expected 2 calls and 1 error, got %+v", snap)
	}
}

func TestLatencyStatsPrunesExpiredSamples(t *testing.T) {
	stats, now := fakeClock(10 * time.Second)
	stats.Observe(100*time.Millisecond, nil)
	*now = now.Add(25 * time.Second)

	if snap := stats.Snapshot(); snap.Calls != 0 {
		t.Fatalf("expected calls=0 after prune, got %d", snap.Calls)
	}

	stats.Observe(200*time.Millisecond, nil)
	snap := stats.Snapshot()
	if snap.Calls != 1 || snap.MinMs != 200 || snap.MaxMs != 200 {
		t.Fatalf("expected one fresh sample of 200ms, got %+v", snap)
	}
}

func TestLatencyStatsClampsNegativeDuration(t *testing.T) {
	stats := NewLatencyStats(time.Hour)
	stats.Observe(-10*time.Millisecond, nil)
	snap := stats.Snapshot()
	if snap.Calls != 1 || snap.MinMs != 0 || snap.MaxMs != 0 {
		t.Fatalf("expected one clamped zero sample, got %+v", snap)
	}
}

func TestLatencyStatsTime(t *testing.T) {
	stats, now := fakeClock(time.Hour)
	want := errors.New("fail")
	err := stats.Time(func() error {
		*now = now.Add(42 * time.Millisecond)
		return want
	})
	if !errors.Is(err, want) {
		t.Fatalf("expected wrapped fn error, got %v", err)
	}
	snap := stats.Snapshot()
	if snap.MinMs != 42 || snap.Errors != 1 {
		t.Fatalf("expected 42ms failed sample, got %+v", snap)
	}
}

func TestRegistryReusesStats(t *testing.T) {
	r := NewRegistry(time.Hour)
	r.For("layout").Observe(time.Millisecond, nil)
	r.For("layout").Observe(time.Millisecond, nil)
	r.For("index").Observe(time.Millisecond, nil)

	snap := r.Snapshot()
	if len(snap) != 2 {
		t.Fatalf("expected 2 collaborators, got %d", len(snap))
	}
	if snap["layout"].Calls != 2 || snap["index"].Calls != 1 {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
}
