package entity

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/datatypes"
)

type RunStatus string

const (
	RunStatusRunning   RunStatus = "RUNNING"
	RunStatusCompleted RunStatus = "COMPLETED"
	RunStatusFailed    RunStatus = "FAILED"
)

type RunTrigger string

const (
	RunTriggerAPI      RunTrigger = "api"
	RunTriggerSchedule RunTrigger = "schedule"
)

// EvaluationRun records one execution of the evaluation pipeline for a user.
type EvaluationRun struct {
	ID                uint           `gorm:"primaryKey" json:"id"`
	UserID            uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	Trigger           RunTrigger     `gorm:"type:varchar(20);not null" json:"trigger"`
	Status            RunStatus      `gorm:"type:varchar(20);not null" json:"status"`
	CheckedPosts      int            `gorm:"not null" json:"checked_posts"`
	UpdatedPosts      int            `gorm:"not null" json:"updated_posts"`
	ClosedPosts       int            `gorm:"not null" json:"closed_posts"`
	UpdateSuccess     bool           `gorm:"not null" json:"update_success"`
	FailedPositionIDs pq.StringArray `gorm:"type:text[]" json:"failed_position_ids"`
	Output            datatypes.JSON `gorm:"type:jsonb" json:"output"`
	ErrorMessage      sql.NullString `json:"error_message"`
	StartedAt         time.Time      `gorm:"not null" json:"started_at"`
	CompletedAt       sql.NullTime   `json:"completed_at"`
}

func (EvaluationRun) TableName() string {
	return "evaluation_runs"
}
