package cluster

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/hibiken/asynq"
	"github.com/interactomics/clusterquery/internal/analysis"
	"github.com/interactomics/clusterquery/internal/index"
	"github.com/interactomics/clusterquery/internal/mitab"
	"github.com/interactomics/clusterquery/internal/store"
	"github.com/interactomics/clusterquery/internal/upstream"
	"github.com/interactomics/clusterquery/pkg/models"
)

// Worker executes clustering builds. It owns all job status transitions:
// pending to running when a build starts, then running to completed or
// failed depending on the outcome.
type Worker struct {
	store     store.Store
	fetcher   upstream.Fetcher
	indexRoot string
	logger    *slog.Logger
}

func NewWorker(st store.Store, fetcher upstream.Fetcher, indexRoot string, logger *slog.Logger) *Worker {
	return &Worker{
		store:     st,
		fetcher:   fetcher,
		indexRoot: indexRoot,
		logger:    logger,
	}
}

// ProcessTask is the asynq handler for TaskTypeBuild.
func (w *Worker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var p buildPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("unmarshal build payload: %w", err)
	}
	return w.Build(ctx, p.JobID)
}

// Build runs one clustering build to a terminal state. Build problems are
// recorded on the job and do not bubble up as task errors, so the queue
// never retries them; only infrastructure failures around the store return
// an error.
func (w *Worker) Build(ctx context.Context, jobID string) error {
	job, err := w.store.GetJob(ctx, jobID)
	if err != nil {
		return fmt.Errorf("load job %s: %w", jobID, err)
	}

	if err := w.store.UpdateJobStatus(ctx, jobID, models.JobStatusRunning); err != nil {
		return fmt.Errorf("mark job %s running: %w", jobID, err)
	}
	w.logger.Info("build started", "job_id", jobID, "services", job.Services)

	records, err := w.collect(ctx, job)
	if err != nil {
		return w.fail(ctx, jobID, err)
	}

	merged := analysis.Merge(records)

	location := filepath.Join(w.indexRoot, jobID)
	if err := index.Build(location, merged); err != nil {
		return w.fail(ctx, jobID, err)
	}

	if err := w.store.UpdateJobStatus(ctx, jobID, models.JobStatusCompleted,
		store.WithIndexLocation(location)); err != nil {
		return fmt.Errorf("mark job %s completed: %w", jobID, err)
	}

	w.logger.Info("build completed", "job_id", jobID,
		"fetched", len(records), "clustered", len(merged), "index", location)
	return nil
}

// collect fetches the job's query from every service in order and
// concatenates the pages. The first service failure aborts the build.
func (w *Worker) collect(ctx context.Context, job *models.Job) ([]mitab.Record, error) {
	var records []mitab.Record
	for _, service := range job.Services {
		page, err := w.fetcher.FetchAll(ctx, service, job.Query)
		if err != nil {
			return nil, err
		}
		records = append(records, page...)
	}
	return records, nil
}

func (w *Worker) fail(ctx context.Context, jobID string, cause error) error {
	w.logger.Error("build failed", "job_id", jobID, "error", cause)
	if err := w.store.UpdateJobStatus(ctx, jobID, models.JobStatusFailed,
		store.WithErrorMessage(cause.Error())); err != nil {
		return fmt.Errorf("mark job %s failed: %w", jobID, err)
	}
	return nil
}
