package model

import "time"

// RunStatus is the lifecycle state of a recorded batch run.
type RunStatus string

const (
	// RunStatusRunning means the batch is still being processed.
	RunStatusRunning RunStatus = "running"
	// RunStatusCompleted means every company reached a terminal state.
	RunStatusCompleted RunStatus = "completed"
)

// Run is the bookkeeping record for one batch.
type Run struct {
	ID             string     `json:"id"`
	TotalCompanies int        `json:"total_companies"`
	SuccessCount   int        `json:"success_count"`
	ErrorCount     int        `json:"error_count"`
	Status         RunStatus  `json:"status"`
	StartedAt      time.Time  `json:"started_at"`
	FinishedAt     *time.Time `json:"finished_at,omitempty"`
}
