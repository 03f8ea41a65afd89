package sqlxrepos

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/upskillhq/upskill/core"
	"github.com/upskillhq/upskill/core/course"
)

const (
	courseColumns   = `id, title, description, video_url, thumbnail_url, status, level, duration, created_by, created_at, updated_at`
	approvalColumns = `id, course_id, requested_by, reviewed_by, status, rejection_note, requested_at, reviewed_at`
)

type courseRow struct {
	ID           string    `db:"id"`
	Title        string    `db:"title"`
	Description  string    `db:"description"`
	VideoURL     string    `db:"video_url"`
	ThumbnailURL string    `db:"thumbnail_url"`
	Status       string    `db:"status"`
	Level        string    `db:"level"`
	Duration     string    `db:"duration"`
	CreatedBy    string    `db:"created_by"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

func (r courseRow) unload() course.Course {
	return course.Course{
		ID:           r.ID,
		Title:        r.Title,
		Description:  r.Description,
		VideoURL:     r.VideoURL,
		ThumbnailURL: r.ThumbnailURL,
		Status:       r.Status,
		Level:        r.Level,
		Duration:     r.Duration,
		CreatedBy:    r.CreatedBy,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

type approvalRow struct {
	ID            string     `db:"id"`
	CourseID      string     `db:"course_id"`
	RequestedBy   string     `db:"requested_by"`
	ReviewedBy    *string    `db:"reviewed_by"`
	Status        string     `db:"status"`
	RejectionNote string     `db:"rejection_note"`
	RequestedAt   time.Time  `db:"requested_at"`
	ReviewedAt    *time.Time `db:"reviewed_at"`
}

func (r approvalRow) unload() course.Approval {
	return course.Approval{
		ID:            r.ID,
		CourseID:      r.CourseID,
		RequestedBy:   r.RequestedBy,
		ReviewedBy:    r.ReviewedBy,
		Status:        r.Status,
		RejectionNote: r.RejectionNote,
		RequestedAt:   r.RequestedAt,
		ReviewedAt:    r.ReviewedAt,
	}
}

type courseRepository struct {
	db *sqlx.DB
}

var _ course.Repository = (*courseRepository)(nil)

func NewCourseRepository(db *sqlx.DB) *courseRepository {
	return &courseRepository{db: db}
}

func (repo *courseRepository) CreateCourse(ctx context.Context, crs course.Course, exec ...core.DBExecutor) (course.Course, error) {
	if crs.ID == "" {
		crs.ID = uuid.New().String()
	}
	query := `
INSERT INTO courses (id, title, description, video_url, thumbnail_url, status, level, duration, created_by, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
RETURNING ` + courseColumns
	var row courseRow
	err := getExec(repo.db, exec).QueryRowxContext(ctx, query,
		crs.ID, crs.Title, crs.Description, crs.VideoURL, crs.ThumbnailURL,
		crs.Status, crs.Level, crs.Duration, crs.CreatedBy, crs.CreatedAt, crs.UpdatedAt,
	).StructScan(&row)
	if err != nil {
		return course.Course{}, errors.Wrap(err, "inserting course")
	}
	return row.unload(), nil
}

func (repo *courseRepository) GetCourseByID(ctx context.Context, id string, exec ...core.DBExecutor) (course.Course, error) {
	var row courseRow
	query := `SELECT ` + courseColumns + ` FROM courses WHERE id = $1`
	if err := sqlx.GetContext(ctx, getExec(repo.db, exec), &row, query, id); err != nil {
		return course.Course{}, trapNoRowsErr(err, course.ErrNotFound, "fetching course")
	}
	return row.unload(), nil
}

func (repo *courseRepository) FilterCourses(ctx context.Context, filter course.QueryFilter, exec ...core.DBExecutor) ([]course.Course, error) {
	var (
		conds []string
		args  []interface{}
	)
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.Search != "" {
		p := arg("%" + filter.Search + "%")
		conds = append(conds, fmt.Sprintf("(title ILIKE %[1]s OR description ILIKE %[1]s)", p))
	}
	if filter.Status != "" {
		conds = append(conds, "status = "+arg(filter.Status))
	}
	if filter.Level != "" {
		conds = append(conds, "level = "+arg(filter.Level))
	}
	if filter.VisibleStatus != "" {
		visible := "status = " + arg(filter.VisibleStatus)
		if filter.OwnerID != "" {
			visible += " OR created_by = " + arg(filter.OwnerID)
		}
		conds = append(conds, "("+visible+")")
	}

	query := `SELECT ` + courseColumns + ` FROM courses`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at DESC"

	var rows []courseRow
	if err := sqlx.SelectContext(ctx, getExec(repo.db, exec), &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "filtering courses")
	}
	courses := make([]course.Course, 0, len(rows))
	for _, row := range rows {
		courses = append(courses, row.unload())
	}
	return courses, nil
}

func (repo *courseRepository) UpdateCourse(ctx context.Context, crs course.Course, exec ...core.DBExecutor) (course.Course, error) {
	query := `
UPDATE courses
SET title = $2, description = $3, video_url = $4, thumbnail_url = $5, level = $6, duration = $7, updated_at = $8
WHERE id = $1
RETURNING ` + courseColumns
	var row courseRow
	err := getExec(repo.db, exec).QueryRowxContext(ctx, query,
		crs.ID, crs.Title, crs.Description, crs.VideoURL, crs.ThumbnailURL,
		crs.Level, crs.Duration, crs.UpdatedAt,
	).StructScan(&row)
	if err != nil {
		return course.Course{}, trapNoRowsErr(err, course.ErrNotFound, "updating course")
	}
	return row.unload(), nil
}

func (repo *courseRepository) SetCourseStatus(ctx context.Context, id, status string, exec ...core.DBExecutor) (course.Course, error) {
	query := `UPDATE courses SET status = $2, updated_at = $3 WHERE id = $1 RETURNING ` + courseColumns
	var row courseRow
	err := getExec(repo.db, exec).QueryRowxContext(ctx, query, id, status, time.Now().UTC()).StructScan(&row)
	if err != nil {
		return course.Course{}, trapNoRowsErr(err, course.ErrNotFound, "updating course status")
	}
	return row.unload(), nil
}

func (repo *courseRepository) DeleteCoursesByID(ctx context.Context, ids []string, exec ...core.DBExecutor) error {
	query := `DELETE FROM courses WHERE id::text = ANY($1)`
	if _, err := getExec(repo.db, exec).ExecContext(ctx, query, stringArray(ids)); err != nil {
		return errors.Wrap(err, "deleting courses")
	}
	return nil
}

func (repo *courseRepository) CreateApproval(ctx context.Context, apr course.Approval, exec ...core.DBExecutor) (course.Approval, error) {
	if apr.ID == "" {
		apr.ID = uuid.New().String()
	}
	query := `
INSERT INTO approvals (id, course_id, requested_by, status, rejection_note, requested_at)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING ` + approvalColumns
	var row approvalRow
	err := getExec(repo.db, exec).QueryRowxContext(ctx, query,
		apr.ID, apr.CourseID, apr.RequestedBy, apr.Status, apr.RejectionNote, apr.RequestedAt,
	).StructScan(&row)
	if err != nil {
		return course.Approval{}, errors.Wrap(err, "inserting approval")
	}
	return row.unload(), nil
}

func (repo *courseRepository) GetPendingApproval(ctx context.Context, courseID string, exec ...core.DBExecutor) (course.Approval, error) {
	var row approvalRow
	query := `SELECT ` + approvalColumns + ` FROM approvals WHERE course_id = $1 AND status = $2 ORDER BY requested_at DESC LIMIT 1`
	if err := sqlx.GetContext(ctx, getExec(repo.db, exec), &row, query, courseID, course.ApprovalPending); err != nil {
		return course.Approval{}, trapNoRowsErr(err, course.ErrApprovalNotFound, "fetching pending approval")
	}
	return row.unload(), nil
}

func (repo *courseRepository) ResolveApproval(ctx context.Context, apr course.Approval, exec ...core.DBExecutor) (course.Approval, error) {
	query := `
UPDATE approvals
SET status = $2, reviewed_by = $3, rejection_note = $4, reviewed_at = $5
WHERE id = $1
RETURNING ` + approvalColumns
	var row approvalRow
	err := getExec(repo.db, exec).QueryRowxContext(ctx, query,
		apr.ID, apr.Status, apr.ReviewedBy, apr.RejectionNote, apr.ReviewedAt,
	).StructScan(&row)
	if err != nil {
		return course.Approval{}, trapNoRowsErr(err, course.ErrApprovalNotFound, "resolving approval")
	}
	return row.unload(), nil
}

func (repo *courseRepository) FilterApprovals(ctx context.Context, status string, exec ...core.DBExecutor) ([]course.Approval, error) {
	query := `SELECT ` + approvalColumns + ` FROM approvals`
	var args []interface{}
	if status != "" {
		query += ` WHERE status = $1`
		args = append(args, status)
	}
	query += ` ORDER BY requested_at DESC`

	var rows []approvalRow
	if err := sqlx.SelectContext(ctx, getExec(repo.db, exec), &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "filtering approvals")
	}
	approvals := make([]course.Approval, 0, len(rows))
	for _, row := range rows {
		approvals = append(approvals, row.unload())
	}
	return approvals, nil
}
