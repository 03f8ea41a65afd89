package course

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/upskillhq/upskill/core"
)

// Course statuses
const (
	StatusDraft            = "draft"
	StatusAwaitingApproval = "awaiting_approval"
	StatusPublished        = "published"
	StatusNeedsRevision    = "needs_revision"
)

// Approval statuses
const (
	ApprovalPending  = "pending"
	ApprovalApproved = "approved"
	ApprovalRejected = "rejected"
)

// Levels
const (
	LevelBeginner     = "beginner"
	LevelIntermediate = "intermediate"
	LevelAdvanced     = "advanced"
)

type Course struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	VideoURL     string    `json:"video_url"`
	ThumbnailURL string    `json:"thumbnail_url"`
	Status       string    `json:"status"`
	Level        string    `json:"level"`
	Duration     string    `json:"duration"`
	CreatedBy    string    `json:"created_by"`
	CreatedAt    time.Time `json:"created_at"` // UTC
	UpdatedAt    time.Time `json:"updated_at"` // UTC
}

// Approval records one review cycle for a submitted course. It is terminal
// once approved or rejected and survives later course status changes.
type Approval struct {
	ID            string     `json:"id"`
	CourseID      string     `json:"course"`
	RequestedBy   string     `json:"requested_by"`
	ReviewedBy    *string    `json:"approved_by"`
	Status        string     `json:"status"`
	RejectionNote string     `json:"rejection_note"`
	RequestedAt   time.Time  `json:"requested_at"` // UTC
	ReviewedAt    *time.Time `json:"reviewed_at"`  // UTC
}

// NewCourse contains information needed to create a new Course.
// Status is only honored for admins; everyone else goes through review.
type NewCourse struct {
	Title        string `json:"title" validate:"required"`
	Description  string `json:"description" validate:"required"`
	VideoURL     string `json:"video_url" validate:"omitempty,url"`
	ThumbnailURL string `json:"thumbnail_url" validate:"omitempty,url"`
	Level        string `json:"level" validate:"omitempty,oneof=beginner intermediate advanced"`
	Duration     string `json:"duration"`
	Status       string `json:"status" validate:"omitempty,oneof=draft awaiting_approval published needs_revision"`
}

func (nc *NewCourse) Validate(validate *validator.Validate) error {
	nc.Title = core.CleanString(nc.Title)
	nc.Description = core.CleanString(nc.Description)
	if nc.Level == "" {
		nc.Level = LevelBeginner
	}
	return validate.Struct(nc)
}

// UpdateCourse defines what information may be provided to modify an
// existing Course. Status transitions happen through Publish/Reject/
// Unpublish, never through this struct.
type UpdateCourse struct {
	Title        string `json:"title"`
	Description  string `json:"description"`
	VideoURL     string `json:"video_url" validate:"omitempty,url"`
	ThumbnailURL string `json:"thumbnail_url" validate:"omitempty,url"`
	Level        string `json:"level" validate:"omitempty,oneof=beginner intermediate advanced"`
	Duration     string `json:"duration"`
}

func (uc *UpdateCourse) Validate(orig Course, validate *validator.Validate) error {
	if title := core.CleanString(uc.Title); title != "" {
		uc.Title = title
	} else {
		uc.Title = orig.Title
	}
	if desc := core.CleanString(uc.Description); desc != "" {
		uc.Description = desc
	} else {
		uc.Description = orig.Description
	}
	if uc.VideoURL == "" {
		uc.VideoURL = orig.VideoURL
	}
	if uc.ThumbnailURL == "" {
		uc.ThumbnailURL = orig.ThumbnailURL
	}
	if uc.Level == "" {
		uc.Level = orig.Level
	}
	if uc.Duration == "" {
		uc.Duration = orig.Duration
	}
	return validate.Struct(uc)
}

type RejectCourse struct {
	Note string `json:"note" validate:"required"`
}

func (rc *RejectCourse) Validate(validate *validator.Validate) error {
	rc.Note = core.CleanString(rc.Note)
	return validate.Struct(rc)
}

type QueryFilter struct {
	Search string `query:"search"`
	Status string `query:"status"`
	Level  string `query:"level"`

	// visibility rule fields, set by the service, not bindable
	VisibleStatus string `query:"-"`
	OwnerID       string `query:"-"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Status = core.CleanString(qf.Status, true /* lower */)
	qf.Level = core.CleanString(qf.Level, true /* lower */)
}
