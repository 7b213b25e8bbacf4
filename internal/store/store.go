package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/interactomics/clusterquery/pkg/models"
)

var ErrNotFound = errors.New("resource not found")

// Store is the data access interface. All database operations go through here.
// Implementations must be safe for concurrent use: CreateJobIfAbsent is the
// atomic insert-if-absent primitive the submission dedup relies on.
type Store interface {
	Ping(ctx context.Context) error

	CreateJobIfAbsent(ctx context.Context, job *models.Job) (bool, error)
	GetJob(ctx context.Context, id string) (*models.Job, error)
	UpdateJobStatus(ctx context.Context, id string, status string, opts ...JobUpdateOption) error

	GetAPIKeyByPrefix(ctx context.Context, prefix string) ([]*models.APIKey, error)
	UpdateAPIKeyLastUsed(ctx context.Context, id uuid.UUID) error
	CreateAPIKey(ctx context.Context, key *models.APIKey) error
	ListAPIKeys(ctx context.Context) ([]*models.APIKey, error)
	RevokeAPIKey(ctx context.Context, id uuid.UUID) error
}

type jobUpdateParams struct {
	ErrorMessage  *string
	IndexLocation *string
}

type JobUpdateOption func(*jobUpdateParams)

// WithErrorMessage records the failure reason alongside a failed transition.
func WithErrorMessage(msg string) JobUpdateOption {
	return func(p *jobUpdateParams) {
		p.ErrorMessage = &msg
	}
}

// WithIndexLocation records where the job's search index was built.
func WithIndexLocation(location string) JobUpdateOption {
	return func(p *jobUpdateParams) {
		p.IndexLocation = &location
	}
}

// validTransitions is the job lifecycle: only the clustering worker moves a
// job forward, and completed/failed are terminal.
var validTransitions = map[string][]string{
	models.JobStatusPending: {models.JobStatusRunning},
	models.JobStatusRunning: {models.JobStatusCompleted, models.JobStatusFailed},
}

func transitionAllowed(from, to string) bool {
	for _, a := range validTransitions[from] {
		if a == to {
			return true
		}
	}
	return false
}
