package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/interactomics/clusterquery/internal/api/response"
	"github.com/interactomics/clusterquery/internal/cluster"
	"github.com/interactomics/clusterquery/pkg/models"
)

// ClusterService defines the interface the job handlers depend on.
type ClusterService interface {
	Submit(ctx context.Context, query string, services []string) (string, error)
	Poll(ctx context.Context, jobID string) (models.PollResult, error)
	Query(ctx context.Context, params cluster.QueryParams) (*cluster.QueryResponse, error)
}

// NewSubmitHandler returns an http.HandlerFunc for POST /api/v1/jobs.
func NewSubmitHandler(svc ClusterService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Query    string   `json:"query"`
			Services []string `json:"services"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}

		if req.Query == "" {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "query is required", nil)
			return
		}
		if len(req.Services) == 0 {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "services is required", nil)
			return
		}

		jobID, err := svc.Submit(r.Context(), req.Query, req.Services)
		if err != nil {
			if errors.Is(err, cluster.ErrInvalidRequest) {
				response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
				return
			}
			response.Error(w, http.StatusInternalServerError,
				"INTERNAL_ERROR", "Failed to submit job", nil)
			return
		}

		response.Accepted(w, map[string]string{"job_id": jobID})
	}
}

// NewPollHandler returns an http.HandlerFunc for GET /api/v1/jobs/{jobID}.
func NewPollHandler(svc ClusterService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jobID := chi.URLParam(r, "jobID")

		result, err := svc.Poll(r.Context(), jobID)
		if err != nil {
			if errors.Is(err, cluster.ErrUnknownJob) {
				response.Error(w, http.StatusNotFound, "UNKNOWN_JOB",
					"No job with the given id", nil)
				return
			}
			response.Error(w, http.StatusInternalServerError,
				"INTERNAL_ERROR", "Failed to poll job", nil)
			return
		}

		response.JSON(w, pollResponse{
			JobID:   jobID,
			Status:  result.Status,
			Message: result.Message,
		})
	}
}

type pollResponse struct {
	JobID   string `json:"job_id"`
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}
