// Package cluster implements the asynchronous clustering job layer: content
// addressed submission with deduplication, status polling, and the paginated
// query pipeline over a completed job's search index.
package cluster

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/interactomics/clusterquery/internal/cache"
	"github.com/interactomics/clusterquery/internal/index"
	"github.com/interactomics/clusterquery/internal/mitab"
	"github.com/interactomics/clusterquery/internal/store"
	"github.com/interactomics/clusterquery/pkg/models"
)

// statusCacheTTL bounds how stale a cached poll answer may be.
const statusCacheTTL = 10 * time.Second

// Searcher is the slice of a job index the query pipeline needs.
type Searcher interface {
	Search(query string, from, blockSize int) ([]mitab.Record, int, error)
}

// Service coordinates job submission, polling and result retrieval. The
// heavy lifting of a build happens in the Worker behind the Executor
// boundary; Service never transitions job state itself.
type Service struct {
	store        store.Store
	cache        cache.Cache
	executor     Executor
	maxBlockSize int
	logger       *slog.Logger

	openIndex func(location string) (Searcher, error)
}

// NewService creates a Service. cache may be nil, in which case polling
// always hits the store. maxBlockSize is the service-wide hard cap on a
// single result page, fixed for the lifetime of the Service.
func NewService(st store.Store, c cache.Cache, exec Executor, maxBlockSize int, logger *slog.Logger) *Service {
	return &Service{
		store:        st,
		cache:        c,
		executor:     exec,
		maxBlockSize: maxBlockSize,
		logger:       logger,
		openIndex: func(location string) (Searcher, error) {
			return index.Open(location)
		},
	}
}

// Submit registers a clustering job for the given query and ordered service
// list and returns its id. Submitting the same (query, services) pair again
// returns the existing id without touching the job or dispatching a second
// build. A dispatch failure leaves the job pending and is returned to the
// caller.
func (s *Service) Submit(ctx context.Context, query string, services []string) (string, error) {
	if strings.TrimSpace(query) == "" {
		return "", fmt.Errorf("%w: query is required", ErrInvalidRequest)
	}
	if len(services) == 0 {
		return "", fmt.Errorf("%w: at least one service is required", ErrInvalidRequest)
	}

	job := models.NewJob(query, services)

	inserted, err := s.store.CreateJobIfAbsent(ctx, job)
	if err != nil {
		return "", fmt.Errorf("store job: %w", err)
	}
	if !inserted {
		s.logger.Info("job already submitted", "job_id", job.ID)
		return job.ID, nil
	}

	if err := s.executor.Dispatch(ctx, job); err != nil {
		return "", fmt.Errorf("dispatch build for job %s: %w", job.ID, err)
	}

	s.logger.Info("job submitted", "job_id", job.ID, "services", services)
	return job.ID, nil
}

// Poll reports a job's current status. For failed jobs the result message
// carries the failure reason. Unknown ids yield ErrUnknownJob.
// Non-failed statuses may be served from cache and lag the store by up to
// statusCacheTTL, so a just-completed job can still report running.
func (s *Service) Poll(ctx context.Context, jobID string) (models.PollResult, error) {
	if s.cache != nil {
		status, found, err := s.cache.GetJobStatus(ctx, jobID)
		if err != nil {
			s.logger.Warn("job status cache read failed", "job_id", jobID, "error", err)
		}
		// Failed jobs carry a reason only the store knows.
		if found && status != models.JobStatusFailed {
			return models.PollResult{Status: status}, nil
		}
	}

	job, err := s.store.GetJob(ctx, jobID)
	if errors.Is(err, store.ErrNotFound) {
		return models.PollResult{}, fmt.Errorf("%w: %s", ErrUnknownJob, jobID)
	}
	if err != nil {
		return models.PollResult{}, fmt.Errorf("get job: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.SetJobStatus(ctx, jobID, job.Status, statusCacheTTL); err != nil {
			s.logger.Warn("job status cache write failed", "job_id", jobID, "error", err)
		}
	}

	result := models.PollResult{Status: job.Status}
	if job.Status == models.JobStatusFailed && job.ErrorMessage != nil {
		result.Message = *job.ErrorMessage
	}
	return result, nil
}

// QueryParams are the inputs to Query. Query is a free-text search over the
// job's index, distinct from the clustering query that built it. MaxResult
// is the requested page size before capping.
type QueryParams struct {
	JobID      string
	Query      string
	From       int
	MaxResult  int
	ResultType string
}

// Query runs a paginated search against a completed job's index and renders
// the page in the requested return type.
func (s *Service) Query(ctx context.Context, params QueryParams) (*QueryResponse, error) {
	if params.From < 0 {
		return nil, fmt.Errorf("%w: from must be >= 0, got %d", ErrInvalidRequest, params.From)
	}
	if params.MaxResult < 0 {
		return nil, fmt.Errorf("%w: maxResult must be >= 0, got %d", ErrInvalidRequest, params.MaxResult)
	}

	job, err := s.store.GetJob(ctx, params.JobID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownJob, params.JobID)
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}

	switch job.Status {
	case models.JobStatusCompleted:
	case models.JobStatusFailed:
		reason := ""
		if job.ErrorMessage != nil {
			reason = ": " + *job.ErrorMessage
		}
		return nil, fmt.Errorf("%w%s", ErrJobFailed, reason)
	default:
		return nil, fmt.Errorf("%w: job %s is %s", ErrJobNotReady, job.ID, job.Status)
	}

	formatter, err := formatterFor(params.ResultType)
	if err != nil {
		return nil, err
	}

	blockSize := params.MaxResult
	if blockSize > s.maxBlockSize {
		blockSize = s.maxBlockSize
	}

	if job.IndexLocation == nil {
		return nil, &IndexUnavailableError{Location: "<none>", Err: errors.New("completed job has no index location")}
	}
	ix, err := s.openIndex(*job.IndexLocation)
	if err != nil {
		return nil, &IndexUnavailableError{Location: *job.IndexLocation, Err: err}
	}

	records, totalCount, err := ix.Search(params.Query, params.From, blockSize)
	if err != nil {
		return nil, fmt.Errorf("search index: %w", err)
	}

	body, err := formatter(formatInput{
		records:    records,
		totalCount: totalCount,
		query:      params.Query,
		maxResult:  params.MaxResult,
		hardCap:    s.maxBlockSize,
	})
	if err != nil {
		return nil, err
	}

	return &QueryResponse{
		ResultInfo: ResultInfo{
			FirstResult:  params.From,
			BlockSize:    blockSize,
			TotalResults: totalCount,
			ResultType:   params.ResultType,
		},
		ResultSet: body,
	}, nil
}
