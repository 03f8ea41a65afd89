package sqlxrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/upskillhq/upskill/core"
	"github.com/upskillhq/upskill/core/assignment"
)

const (
	assignmentColumns    = `id, user_id, course_id, assigned_by, status, progress_pct, last_activity_at, assigned_at, completed_at`
	progressEventColumns = `id, assignment_id, progress_pct, created_at`
)

type assignmentRow struct {
	ID             string     `db:"id"`
	UserID         string     `db:"user_id"`
	CourseID       string     `db:"course_id"`
	AssignedBy     *string    `db:"assigned_by"`
	Status         string     `db:"status"`
	ProgressPct    int        `db:"progress_pct"`
	LastActivityAt *time.Time `db:"last_activity_at"`
	AssignedAt     time.Time  `db:"assigned_at"`
	CompletedAt    *time.Time `db:"completed_at"`
}

func (r assignmentRow) unload() assignment.Assignment {
	return assignment.Assignment{
		ID:             r.ID,
		UserID:         r.UserID,
		CourseID:       r.CourseID,
		AssignedBy:     r.AssignedBy,
		Status:         r.Status,
		ProgressPct:    r.ProgressPct,
		LastActivityAt: r.LastActivityAt,
		AssignedAt:     r.AssignedAt,
		CompletedAt:    r.CompletedAt,
	}
}

type progressEventRow struct {
	ID           string    `db:"id"`
	AssignmentID string    `db:"assignment_id"`
	ProgressPct  int       `db:"progress_pct"`
	CreatedAt    time.Time `db:"created_at"`
}

func (r progressEventRow) unload() assignment.ProgressEvent {
	return assignment.ProgressEvent{
		ID:           r.ID,
		AssignmentID: r.AssignmentID,
		ProgressPct:  r.ProgressPct,
		CreatedAt:    r.CreatedAt,
	}
}

type assignmentRepository struct {
	db *sqlx.DB
}

var _ assignment.Repository = (*assignmentRepository)(nil)

func NewAssignmentRepository(db *sqlx.DB) *assignmentRepository {
	return &assignmentRepository{db: db}
}

func (repo *assignmentRepository) CreateAssignment(ctx context.Context, a assignment.Assignment, exec ...core.DBExecutor) (assignment.Assignment, error) {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	query := `
INSERT INTO assignments (id, user_id, course_id, assigned_by, status, progress_pct, assigned_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING ` + assignmentColumns
	var row assignmentRow
	err := getExec(repo.db, exec).QueryRowxContext(ctx, query,
		a.ID, a.UserID, a.CourseID, a.AssignedBy, a.Status, a.ProgressPct, a.AssignedAt,
	).StructScan(&row)
	if err != nil {
		if isUniqueViolation(err) {
			return assignment.Assignment{}, assignment.ErrAlreadyExists
		}
		return assignment.Assignment{}, errors.Wrap(err, "inserting assignment")
	}
	return row.unload(), nil
}

func (repo *assignmentRepository) GetAssignmentByID(ctx context.Context, id string, exec ...core.DBExecutor) (assignment.Assignment, error) {
	var row assignmentRow
	query := `SELECT ` + assignmentColumns + ` FROM assignments WHERE id = $1`
	if err := sqlx.GetContext(ctx, getExec(repo.db, exec), &row, query, id); err != nil {
		return assignment.Assignment{}, trapNoRowsErr(err, assignment.ErrNotFound, "fetching assignment")
	}
	return row.unload(), nil
}

func (repo *assignmentRepository) GetAssignmentByUserAndCourse(ctx context.Context, userID, courseID string, exec ...core.DBExecutor) (assignment.Assignment, error) {
	var row assignmentRow
	query := `SELECT ` + assignmentColumns + ` FROM assignments WHERE user_id = $1 AND course_id = $2`
	if err := sqlx.GetContext(ctx, getExec(repo.db, exec), &row, query, userID, courseID); err != nil {
		return assignment.Assignment{}, trapNoRowsErr(err, assignment.ErrNotFound, "fetching assignment by user and course")
	}
	return row.unload(), nil
}

func (repo *assignmentRepository) QueryAssignmentsByUser(ctx context.Context, userID string, exec ...core.DBExecutor) ([]assignment.Assignment, error) {
	query := `SELECT ` + assignmentColumns + ` FROM assignments WHERE user_id = $1 ORDER BY assigned_at DESC`
	var rows []assignmentRow
	if err := sqlx.SelectContext(ctx, getExec(repo.db, exec), &rows, query, userID); err != nil {
		return nil, errors.Wrap(err, "querying user assignments")
	}
	return unloadAssignments(rows), nil
}

func (repo *assignmentRepository) QueryAssignmentsByUsers(ctx context.Context, userIDs []string, exec ...core.DBExecutor) ([]assignment.Assignment, error) {
	query := `SELECT ` + assignmentColumns + ` FROM assignments WHERE user_id::text = ANY($1) ORDER BY assigned_at DESC`
	var rows []assignmentRow
	if err := sqlx.SelectContext(ctx, getExec(repo.db, exec), &rows, query, stringArray(userIDs)); err != nil {
		return nil, errors.Wrap(err, "querying assignments by users")
	}
	return unloadAssignments(rows), nil
}

func (repo *assignmentRepository) UpdateAssignment(ctx context.Context, a assignment.Assignment, exec ...core.DBExecutor) (assignment.Assignment, error) {
	query := `
UPDATE assignments
SET assigned_by = $2, status = $3, progress_pct = $4, last_activity_at = $5, completed_at = $6
WHERE id = $1
RETURNING ` + assignmentColumns
	var row assignmentRow
	err := getExec(repo.db, exec).QueryRowxContext(ctx, query,
		a.ID, a.AssignedBy, a.Status, a.ProgressPct, a.LastActivityAt, a.CompletedAt,
	).StructScan(&row)
	if err != nil {
		return assignment.Assignment{}, trapNoRowsErr(err, assignment.ErrNotFound, "updating assignment")
	}
	return row.unload(), nil
}

func (repo *assignmentRepository) CreateProgressEvent(ctx context.Context, evt assignment.ProgressEvent, exec ...core.DBExecutor) (assignment.ProgressEvent, error) {
	if evt.ID == "" {
		evt.ID = uuid.New().String()
	}
	query := `
INSERT INTO progress_events (id, assignment_id, progress_pct, created_at)
VALUES ($1, $2, $3, $4)
RETURNING ` + progressEventColumns
	var row progressEventRow
	err := getExec(repo.db, exec).QueryRowxContext(ctx, query,
		evt.ID, evt.AssignmentID, evt.ProgressPct, evt.CreatedAt,
	).StructScan(&row)
	if err != nil {
		return assignment.ProgressEvent{}, errors.Wrap(err, "inserting progress event")
	}
	return row.unload(), nil
}

func (repo *assignmentRepository) QueryProgressEvents(ctx context.Context, assignmentID string, exec ...core.DBExecutor) ([]assignment.ProgressEvent, error) {
	query := `SELECT ` + progressEventColumns + ` FROM progress_events WHERE assignment_id = $1 ORDER BY created_at ASC`
	var rows []progressEventRow
	if err := sqlx.SelectContext(ctx, getExec(repo.db, exec), &rows, query, assignmentID); err != nil {
		return nil, errors.Wrap(err, "querying progress events")
	}
	events := make([]assignment.ProgressEvent, 0, len(rows))
	for _, row := range rows {
		events = append(events, row.unload())
	}
	return events, nil
}

func unloadAssignments(rows []assignmentRow) []assignment.Assignment {
	assignments := make([]assignment.Assignment, 0, len(rows))
	for _, row := range rows {
		assignments = append(assignments, row.unload())
	}
	return assignments
}
