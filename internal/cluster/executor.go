package cluster

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/interactomics/clusterquery/pkg/models"
)

// TaskTypeBuild is the asynq task type for clustering builds.
const TaskTypeBuild = "cluster:build"

type buildPayload struct {
	JobID string `json:"job_id"`
}

// Executor hands a freshly inserted job to whatever runs builds. Dispatch is
// fire-and-forget: a successful dispatch says nothing about the build's
// outcome, which lands in job state.
type Executor interface {
	Dispatch(ctx context.Context, job *models.Job) error
}

// AsynqExecutor enqueues builds onto the redis-backed task queue. Retries
// are disabled: a failed build marks the job failed instead of running
// again.
type AsynqExecutor struct {
	client *asynq.Client
}

func NewAsynqExecutor(client *asynq.Client) *AsynqExecutor {
	return &AsynqExecutor{client: client}
}

func (e *AsynqExecutor) Dispatch(ctx context.Context, job *models.Job) error {
	payload, err := json.Marshal(buildPayload{JobID: job.ID})
	if err != nil {
		return fmt.Errorf("marshal build payload: %w", err)
	}
	task := asynq.NewTask(TaskTypeBuild, payload, asynq.MaxRetry(0))
	if _, err := e.client.EnqueueContext(ctx, task); err != nil {
		return fmt.Errorf("enqueue build task: %w", err)
	}
	return nil
}

// InlineExecutor runs the build synchronously in the submitting goroutine.
// For tests and single-process setups.
type InlineExecutor struct {
	Worker *Worker
}

func (e *InlineExecutor) Dispatch(ctx context.Context, job *models.Job) error {
	return e.Worker.Build(ctx, job.ID)
}

var (
	_ Executor = (*AsynqExecutor)(nil)
	_ Executor = (*InlineExecutor)(nil)
)
