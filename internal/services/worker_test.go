package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alfredoptarigan/essay-marker/internal/models"
)

type fakePending struct {
	mu      sync.Mutex
	batches [][]models.Essay
}

func (f *fakePending) FindPendingJobs(limit int) ([]models.Essay, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.batches) == 0 {
		return nil, nil
	}
	next := f.batches[0]
	f.batches = f.batches[1:]
	return next, nil
}

func collectJobs(n int) (JobFunc, <-chan uuid.UUID) {
	done := make(chan uuid.UUID, n)
	return func(_ context.Context, id uuid.UUID) error {
		done <- id
		return nil
	}, done
}

func waitFor(t *testing.T, ch <-chan uuid.UUID, n int) []uuid.UUID {
	t.Helper()
	var got []uuid.UUID
	for len(got) < n {
		select {
		case id := <-ch:
			got = append(got, id)
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out after %d of %d jobs", len(got), n)
		}
	}
	return got
}

func TestWorker_ProcessesEnqueuedJobs(t *testing.T) {
	process, done := collectJobs(3)
	w := NewWorker(&fakePending{}, process, 2, time.Hour)
	w.Start(context.Background())
	defer w.Stop()

	ids := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
	for _, id := range ids {
		w.EnqueueJob(id)
	}

	assert.ElementsMatch(t, ids, waitFor(t, done, 3))
}

func TestWorker_PollerPicksUpQueuedEssays(t *testing.T) {
	id := uuid.New()
	pending := &fakePending{batches: [][]models.Essay{{{ID: id}}}}
	process, done := collectJobs(1)

	w := NewWorker(pending, process, 1, 10*time.Millisecond)
	w.Start(context.Background())
	defer w.Stop()

	assert.Equal(t, []uuid.UUID{id}, waitFor(t, done, 1))
}

func TestWorker_FailedJobDoesNotStopWorker(t *testing.T) {
	var mu sync.Mutex
	calls := 0
	done := make(chan uuid.UUID, 2)
	process := func(_ context.Context, id uuid.UUID) error {
		mu.Lock()
		calls++
		first := calls == 1
		mu.Unlock()
		done <- id
		if first {
			return errors.New("boom")
		}
		return nil
	}

	w := NewWorker(&fakePending{}, process, 1, time.Hour)
	w.Start(context.Background())
	defer w.Stop()

	w.EnqueueJob(uuid.New())
	w.EnqueueJob(uuid.New())
	waitFor(t, done, 2)
}

func TestWorker_StopCancelsInFlightJob(t *testing.T) {
	started := make(chan struct{})
	result := make(chan error, 1)
	process := func(ctx context.Context, _ uuid.UUID) error {
		close(started)
		<-ctx.Done()
		result <- ctx.Err()
		return ctx.Err()
	}

	w := NewWorker(&fakePending{}, process, 1, time.Hour)
	w.Start(context.Background())
	w.EnqueueJob(uuid.New())

	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatal("job never started")
	}

	w.Stop()
	require.ErrorIs(t, <-result, context.Canceled)

	// later calls are harmless
	w.Stop()
	w.EnqueueJob(uuid.New())
}
