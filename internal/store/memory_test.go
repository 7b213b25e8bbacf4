package store_test

import (
	"context"
	"sync"
	"testing"

	"github.com/interactomics/clusterquery/internal/store"
	"github.com/interactomics/clusterquery/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_CreateJobIfAbsent(t *testing.T) {
	s := store.NewMemoryStore()
	ctx := context.Background()

	job := models.NewJob("proteinA AND proteinB", []string{"intact"})

	inserted, err := s.CreateJobIfAbsent(ctx, job)
	require.NoError(t, err)
	assert.True(t, inserted)

	// Same id again: no insert, no error.
	inserted, err = s.CreateJobIfAbsent(ctx, models.NewJob("proteinA AND proteinB", []string{"intact"}))
	require.NoError(t, err)
	assert.False(t, inserted)

	got, err := s.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusPending, got.Status)
}

func TestMemory_CreateJobIfAbsent_Concurrent(t *testing.T) {
	s := store.NewMemoryStore()
	ctx := context.Background()

	const submitters = 32
	var wg sync.WaitGroup
	insertedCount := make(chan bool, submitters)

	for i := 0; i < submitters; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			inserted, err := s.CreateJobIfAbsent(ctx, models.NewJob("proteinA", []string{"intact"}))
			assert.NoError(t, err)
			insertedCount <- inserted
		}()
	}
	wg.Wait()
	close(insertedCount)

	inserts := 0
	for ok := range insertedCount {
		if ok {
			inserts++
		}
	}
	assert.Equal(t, 1, inserts, "exactly one concurrent submission should insert")
}

func TestMemory_GetJob_NotFound(t *testing.T) {
	s := store.NewMemoryStore()
	_, err := s.GetJob(context.Background(), "deadbeefdeadbeefdeadbeefdeadbeef")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestMemory_UpdateJobStatus_Lifecycle(t *testing.T) {
	s := store.NewMemoryStore()
	ctx := context.Background()

	job := models.NewJob("proteinA", []string{"intact"})
	_, err := s.CreateJobIfAbsent(ctx, job)
	require.NoError(t, err)

	require.NoError(t, s.UpdateJobStatus(ctx, job.ID, models.JobStatusRunning))
	got, err := s.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.NotNil(t, got.StartedAt)

	require.NoError(t, s.UpdateJobStatus(ctx, job.ID, models.JobStatusCompleted,
		store.WithIndexLocation("/data/indexes/"+job.ID)))
	got, err = s.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusCompleted, got.Status)
	require.NotNil(t, got.IndexLocation)
	assert.Equal(t, "/data/indexes/"+job.ID, *got.IndexLocation)
	assert.NotNil(t, got.CompletedAt)
}

func TestMemory_UpdateJobStatus_FailedWithReason(t *testing.T) {
	s := store.NewMemoryStore()
	ctx := context.Background()

	job := models.NewJob("proteinA", []string{"intact"})
	_, err := s.CreateJobIfAbsent(ctx, job)
	require.NoError(t, err)

	require.NoError(t, s.UpdateJobStatus(ctx, job.ID, models.JobStatusRunning))
	require.NoError(t, s.UpdateJobStatus(ctx, job.ID, models.JobStatusFailed,
		store.WithErrorMessage("upstream service unreachable")))

	got, err := s.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusFailed, got.Status)
	require.NotNil(t, got.ErrorMessage)
	assert.Equal(t, "upstream service unreachable", *got.ErrorMessage)
}

func TestMemory_UpdateJobStatus_InvalidTransition(t *testing.T) {
	s := store.NewMemoryStore()
	ctx := context.Background()

	job := models.NewJob("proteinA", []string{"intact"})
	_, err := s.CreateJobIfAbsent(ctx, job)
	require.NoError(t, err)

	// pending -> completed skips running.
	err = s.UpdateJobStatus(ctx, job.ID, models.JobStatusCompleted)
	assert.Error(t, err)

	// Terminal states are immutable.
	require.NoError(t, s.UpdateJobStatus(ctx, job.ID, models.JobStatusRunning))
	require.NoError(t, s.UpdateJobStatus(ctx, job.ID, models.JobStatusCompleted))
	err = s.UpdateJobStatus(ctx, job.ID, models.JobStatusFailed)
	assert.Error(t, err)
}

func TestMemory_UpdateJobStatus_NotFound(t *testing.T) {
	s := store.NewMemoryStore()
	err := s.UpdateJobStatus(context.Background(), "deadbeefdeadbeefdeadbeefdeadbeef", models.JobStatusRunning)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestMemory_GetJob_ReturnsCopy(t *testing.T) {
	s := store.NewMemoryStore()
	ctx := context.Background()

	job := models.NewJob("proteinA", []string{"intact", "mint"})
	_, err := s.CreateJobIfAbsent(ctx, job)
	require.NoError(t, err)

	got, err := s.GetJob(ctx, job.ID)
	require.NoError(t, err)
	got.Status = "mangled"
	got.Services[0] = "mangled"

	again, err := s.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusPending, again.Status)
	assert.Equal(t, "intact", again.Services[0])
}
