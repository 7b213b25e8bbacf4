package models

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

const (
	JobStatusPending   = "pending"
	JobStatusRunning   = "running"
	JobStatusCompleted = "completed"
	JobStatusFailed    = "failed"
)

// Job tracks an asynchronous clustering request. The API returns a job_id on
// POST /api/v1/jobs; the client polls GET /api/v1/jobs/{job_id} until status
// is completed or failed, then pages results out of the job's search index.
//
// A job is content-addressed: its ID is derived from the query and the
// ordered service list, so resubmitting the same request maps onto the
// existing job. Once completed or failed a job is never mutated again.
type Job struct {
	ID            string     `db:"id"             json:"id"`
	Query         string     `db:"query"          json:"query"`
	Services      []string   `db:"services"       json:"services"`
	Status        string     `db:"status"         json:"status"`
	IndexLocation *string    `db:"index_location" json:"index_location,omitempty"`
	ErrorMessage  *string    `db:"error_message"  json:"error_message,omitempty"`
	StartedAt     *time.Time `db:"started_at"     json:"started_at,omitempty"`
	CompletedAt   *time.Time `db:"completed_at"   json:"completed_at,omitempty"`
	CreatedAt     time.Time  `db:"created_at"     json:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at"     json:"updated_at"`
}

// PollResult is the snapshot returned when polling a job. Message is
// advisory only: it carries the failure reason for failed jobs and may later
// carry an ETA for running ones.
type PollResult struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// NewJob constructs a pending job for the given query and service list.
func NewJob(query string, services []string) *Job {
	now := time.Now().UTC()
	return &Job{
		ID:        ComputeJobID(query, services),
		Query:     query,
		Services:  services,
		Status:    JobStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// ComputeJobID derives a deterministic identifier from a query and the
// ordered list of target services. Equal inputs always yield equal IDs, so
// the ID doubles as the deduplication key and as the job's index directory
// name. The service list is hashed as given: the same set of services in a
// different order is a different job.
func ComputeJobID(query string, services []string) string {
	h := sha256.New()
	h.Write([]byte(query))
	for _, s := range services {
		h.Write([]byte{0x1f})
		h.Write([]byte(s))
	}
	return hex.EncodeToString(h.Sum(nil))[:32]
}
