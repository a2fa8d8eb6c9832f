package inmemory

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/apetrov/finsight/internal/jobs"
)

func waitForStatus(t *testing.T, store *Store, jobID string, want jobs.JobStatus) *jobs.RetrainJob {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		job, err := store.GetJob(context.Background(), jobID)
		if err == nil && job.Status == want {
			return job
		}
		time.Sleep(10 * time.Millisecond)
	}
	job, _ := store.GetJob(context.Background(), jobID)
	t.Fatalf("job %s never reached %s, last state: %+v", jobID, want, job)
	return nil
}

func TestQueueProcessesJob(t *testing.T) {
	store := NewStore()
	queue := NewQueue(10, store)
	defer queue.Close()

	var mu sync.Mutex
	var handled []jobs.JobKind
	err := queue.Start(context.Background(), func(_ context.Context, job *jobs.RetrainJob) error {
		mu.Lock()
		handled = append(handled, job.Kind)
		mu.Unlock()
		return nil
	})
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	job := &jobs.RetrainJob{Kind: jobs.KindPredictor, Samples: 42}
	if err := queue.PublishRetrain(context.Background(), job); err != nil {
		t.Fatalf("PublishRetrain failed: %v", err)
	}
	if job.JobID == "" {
		t.Fatal("publish must assign a job ID")
	}

	done := waitForStatus(t, store, job.JobID, jobs.JobStatusCompleted)
	if done.StartedAt == nil || done.CompletedAt == nil {
		t.Errorf("timestamps not set: %+v", done)
	}
	if done.Samples != 42 {
		t.Errorf("samples = %d, want 42", done.Samples)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(handled) != 1 || handled[0] != jobs.KindPredictor {
		t.Errorf("handled = %v", handled)
	}
}

func TestQueueRetriesThenFails(t *testing.T) {
	store := NewStore()
	queue := NewQueue(10, store)
	defer queue.Close()

	var mu sync.Mutex
	attempts := 0
	err := queue.Start(context.Background(), func(context.Context, *jobs.RetrainJob) error {
		mu.Lock()
		attempts++
		mu.Unlock()
		return fmt.Errorf("training blew up")
	})
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	job := &jobs.RetrainJob{Kind: jobs.KindCategorizer, MaxRetries: 1}
	if err := queue.PublishRetrain(context.Background(), job); err != nil {
		t.Fatalf("PublishRetrain failed: %v", err)
	}

	failed := waitForStatus(t, store, job.JobID, jobs.JobStatusFailed)
	if failed.Error == "" {
		t.Error("failed job must carry the error message")
	}
	if failed.RetryCount != 1 {
		t.Errorf("retry count = %d, want 1", failed.RetryCount)
	}

	mu.Lock()
	defer mu.Unlock()
	if attempts != 2 {
		t.Errorf("handler ran %d times, want 2 (original + 1 retry)", attempts)
	}
}

func TestPublishAfterCloseFails(t *testing.T) {
	queue := NewQueue(1, NewStore())
	if err := queue.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := queue.PublishRetrain(context.Background(), &jobs.RetrainJob{Kind: jobs.KindPredictor}); err == nil {
		t.Error("expected error publishing to closed queue")
	}
}

func TestStoreListFilterAndOrder(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	base := time.Now()
	seed := []*jobs.RetrainJob{
		{JobID: "a", Kind: jobs.KindPredictor, Status: jobs.JobStatusCompleted, CreatedAt: base.Add(-2 * time.Hour)},
		{JobID: "b", Kind: jobs.KindCategorizer, Status: jobs.JobStatusPending, CreatedAt: base.Add(-1 * time.Hour)},
		{JobID: "c", Kind: jobs.KindPredictor, Status: jobs.JobStatusPending, CreatedAt: base},
	}
	for _, job := range seed {
		if err := store.SaveJob(ctx, job); err != nil {
			t.Fatalf("SaveJob(%s) failed: %v", job.JobID, err)
		}
	}

	all, err := store.ListJobs(ctx, jobs.JobFilter{})
	if err != nil {
		t.Fatalf("ListJobs failed: %v", err)
	}
	if len(all) != 3 || all[0].JobID != "c" || all[2].JobID != "a" {
		t.Errorf("expected newest-first order, got %v", jobIDs(all))
	}

	predictors, err := store.ListJobs(ctx, jobs.JobFilter{Kind: jobs.KindPredictor})
	if err != nil {
		t.Fatalf("ListJobs failed: %v", err)
	}
	if len(predictors) != 2 {
		t.Errorf("kind filter returned %v", jobIDs(predictors))
	}

	pending, err := store.ListJobs(ctx, jobs.JobFilter{Status: jobs.JobStatusPending, Limit: 1})
	if err != nil {
		t.Fatalf("ListJobs failed: %v", err)
	}
	if len(pending) != 1 || pending[0].JobID != "c" {
		t.Errorf("status+limit filter returned %v", jobIDs(pending))
	}
}

func TestStoreCopiesJobs(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	job := &jobs.RetrainJob{JobID: "x", Kind: jobs.KindPredictor, Status: jobs.JobStatusPending}
	if err := store.SaveJob(ctx, job); err != nil {
		t.Fatalf("SaveJob failed: %v", err)
	}
	job.Status = jobs.JobStatusFailed

	got, err := store.GetJob(ctx, "x")
	if err != nil {
		t.Fatalf("GetJob failed: %v", err)
	}
	if got.Status != jobs.JobStatusPending {
		t.Errorf("stored job mutated through caller reference: %s", got.Status)
	}
}

func jobIDs(list []*jobs.RetrainJob) []string {
	ids := make([]string, len(list))
	for i, job := range list {
		ids[i] = job.JobID
	}
	return ids
}
