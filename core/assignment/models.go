package assignment

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/upskillhq/upskill/core"
)

// Assignment statuses
const (
	StatusNotStarted = "not_started"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
)

// Assignment tracks one user's completion of one course. Unique per
// (user, course); creation is an upsert, never a duplicate.
type Assignment struct {
	ID             string     `json:"id"`
	UserID         string     `json:"user"`
	CourseID       string     `json:"course"`
	AssignedBy     *string    `json:"assigned_by"`
	Status         string     `json:"status"`
	ProgressPct    int        `json:"progress_pct"`
	LastActivityAt *time.Time `json:"last_activity_at"` // UTC
	AssignedAt     time.Time  `json:"assigned_at"`      // UTC
	CompletedAt    *time.Time `json:"completed_at"`     // UTC, set once, never cleared
}

// ProgressEvent is an append-only snapshot of an assignment's percentage at
// one point in time. Never mutated or deleted.
type ProgressEvent struct {
	ID           string    `json:"id"`
	AssignmentID string    `json:"assignment"`
	ProgressPct  int       `json:"progress_pct"`
	CreatedAt    time.Time `json:"created_at"` // UTC
}

// NewAssignment contains information needed to assign a course.
// UserID defaults to the actor (self-assign).
type NewAssignment struct {
	CourseID string `json:"course_id" validate:"required"`
	UserID   string `json:"user_id"`
}

func (na *NewAssignment) Validate(validate *validator.Validate) error {
	na.CourseID = core.CleanString(na.CourseID)
	na.UserID = core.CleanString(na.UserID)
	return validate.Struct(na)
}

// UpdateProgress defines exactly what a progress update may carry: a
// percentage and/or an explicit status. Nothing else on the assignment can
// be touched through this path.
type UpdateProgress struct {
	ProgressPct *int   `json:"progress_pct" validate:"omitempty,progress"`
	Status      string `json:"status" validate:"omitempty,oneof=not_started in_progress completed"`
}

func (up *UpdateProgress) Validate(validate *validator.Validate) error {
	if up.ProgressPct == nil && up.Status == "" {
		return core.NewValidationError(nil,
			core.FieldError{Field: "progress_pct", Error: "progress_pct or status is required"})
	}
	return validate.Struct(up)
}
