package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/interactomics/clusterquery/internal/api/response"
	"github.com/interactomics/clusterquery/internal/cluster"
)

const defaultMaxResult = 100

// NewQueryHandler returns an http.HandlerFunc for
// GET /api/v1/jobs/{jobID}/query.
func NewQueryHandler(svc ClusterService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jobID := chi.URLParam(r, "jobID")
		q := r.URL.Query()

		query := q.Get("query")
		if query == "" {
			query = "*"
		}

		from, ok := intParam(w, q.Get("from"), "from", 0)
		if !ok {
			return
		}
		maxResult, ok := intParam(w, q.Get("maxResult"), "maxResult", defaultMaxResult)
		if !ok {
			return
		}

		resultType := q.Get("resultType")
		if resultType == "" {
			resultType = cluster.ResultTypeMITAB
		}

		resp, err := svc.Query(r.Context(), cluster.QueryParams{
			JobID:      jobID,
			Query:      query,
			From:       from,
			MaxResult:  maxResult,
			ResultType: resultType,
		})
		if err != nil {
			writeQueryError(w, err)
			return
		}

		response.JSON(w, resp)
	}
}

func writeQueryError(w http.ResponseWriter, err error) {
	var unsupported *cluster.UnsupportedResultTypeError
	var unavailable *cluster.IndexUnavailableError
	var conversion *cluster.ConversionError

	switch {
	case errors.Is(err, cluster.ErrInvalidRequest):
		response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
	case errors.As(err, &unsupported):
		response.Error(w, http.StatusBadRequest, "UNSUPPORTED_RESULT_TYPE",
			err.Error(), map[string]any{"supported": unsupported.Supported})
	case errors.Is(err, cluster.ErrUnknownJob):
		response.Error(w, http.StatusNotFound, "UNKNOWN_JOB",
			"No job with the given id", nil)
	case errors.Is(err, cluster.ErrJobNotReady):
		response.Error(w, http.StatusConflict, "JOB_NOT_READY",
			"The job has not completed yet", nil)
	case errors.Is(err, cluster.ErrJobFailed):
		response.Error(w, http.StatusConflict, "JOB_FAILED", err.Error(), nil)
	case errors.As(err, &unavailable):
		response.Error(w, http.StatusBadGateway, "INDEX_UNAVAILABLE",
			"The job's result index could not be opened", nil)
	case errors.As(err, &conversion):
		response.Error(w, http.StatusInternalServerError, "CONVERSION_ERROR",
			err.Error(), nil)
	default:
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
			"An unexpected error occurred", nil)
	}
}

// intParam parses a non-negative integer query parameter, writing a 400 and
// returning ok=false on bad input.
func intParam(w http.ResponseWriter, raw, name string, defaultVal int) (int, bool) {
	if raw == "" {
		return defaultVal, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		response.Error(w, http.StatusBadRequest, "INVALID_REQUEST",
			name+" must be a non-negative integer", nil)
		return 0, false
	}
	return v, true
}

// NewReturnTypesHandler returns an http.HandlerFunc for
// GET /api/v1/return-types. The list is static.
func NewReturnTypesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		response.JSON(w, map[string][]string{"return_types": cluster.SupportedReturnTypes()})
	}
}
