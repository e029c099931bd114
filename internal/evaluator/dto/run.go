package dto

import "time"

// EvaluationRunResponse is one entry of GET /api/v1/evaluations/runs.
type EvaluationRunResponse struct {
	ID                uint       `json:"id"`
	Trigger           string     `json:"trigger"`
	Status            string     `json:"status"`
	CheckedPosts      int        `json:"checkedPosts"`
	UpdatedPosts      int        `json:"updatedPosts"`
	ClosedPosts       int        `json:"closedPosts"`
	UpdateSuccess     bool       `json:"updateSuccess"`
	FailedPositionIDs []string   `json:"failedPositionIds,omitempty"`
	ErrorMessage      string     `json:"errorMessage,omitempty"`
	StartedAt         time.Time  `json:"startedAt"`
	CompletedAt       *time.Time `json:"completedAt,omitempty"`
	DurationMs        int64      `json:"durationMs"`
}

// StreamDataPositionEvaluation is the payload published on the evaluation stream.
type StreamDataPositionEvaluation struct {
	UserID      string `json:"user_id"`
	Trigger     string `json:"trigger"`
	RequestDate string `json:"request_date,omitempty"`
}
