package assignment

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/upskillhq/upskill/core"
	"github.com/upskillhq/upskill/core/course"
	"github.com/upskillhq/upskill/core/user"
)

var (
	// errors
	ErrNotFound = errors.New("assignment not found")
	// ErrAlreadyExists is returned by repositories on a (user, course)
	// unique violation; the service treats it as "fall through to update".
	ErrAlreadyExists = errors.New("assignment already exists")

	nowFunc = time.Now // mockable
)

type (
	Repository interface {
		CreateAssignment(ctx context.Context, a Assignment, exec ...core.DBExecutor) (Assignment, error)
		GetAssignmentByID(ctx context.Context, id string, exec ...core.DBExecutor) (Assignment, error)
		GetAssignmentByUserAndCourse(ctx context.Context, userID, courseID string, exec ...core.DBExecutor) (Assignment, error)
		QueryAssignmentsByUser(ctx context.Context, userID string, exec ...core.DBExecutor) ([]Assignment, error)
		QueryAssignmentsByUsers(ctx context.Context, userIDs []string, exec ...core.DBExecutor) ([]Assignment, error)
		UpdateAssignment(ctx context.Context, a Assignment, exec ...core.DBExecutor) (Assignment, error)

		CreateProgressEvent(ctx context.Context, e ProgressEvent, exec ...core.DBExecutor) (ProgressEvent, error)
		QueryProgressEvents(ctx context.Context, assignmentID string, exec ...core.DBExecutor) ([]ProgressEvent, error)
	}

	// CourseGetter is the slice of the course repository this service needs.
	CourseGetter interface {
		GetCourseByID(ctx context.Context, id string, exec ...core.DBExecutor) (course.Course, error)
	}

	Service struct {
		db      core.DB
		repo    Repository
		courses CourseGetter
	}
)

func NewService(db core.DB, repo Repository, courses CourseGetter) *Service {
	return &Service{db: db, repo: repo, courses: courses}
}

// Assign creates or re-targets an assignment, keyed by (user, course).
// Re-assignment only updates assigned_by and never resets progress. A
// unique-violation race on insert falls through to the update path instead
// of failing the request.
func (svc *Service) Assign(ctx context.Context, actor user.User, na NewAssignment) (Assignment, error) {
	targetID := na.UserID
	if targetID == "" {
		targetID = actor.ID
	}
	if targetID != actor.ID && !user.Allowed(actor, user.CapManageUsers) {
		return Assignment{}, core.ErrPermissionDenied
	}

	if _, err := svc.courses.GetCourseByID(ctx, na.CourseID); err != nil {
		return Assignment{}, err
	}

	existing, err := svc.repo.GetAssignmentByUserAndCourse(ctx, targetID, na.CourseID)
	if err == nil {
		return svc.reassign(ctx, existing, actor.ID)
	}
	if errors.Cause(err) != ErrNotFound {
		return Assignment{}, errors.Wrap(err, "fetching assignment")
	}

	a := Assignment{
		UserID:     targetID,
		CourseID:   na.CourseID,
		AssignedBy: &actor.ID,
		Status:     StatusNotStarted,
		AssignedAt: nowFunc().UTC(),
	}
	created, err := svc.repo.CreateAssignment(ctx, a)
	if err != nil {
		if errors.Cause(err) == ErrAlreadyExists {
			// concurrent double-submission lost the insert race
			existing, err = svc.repo.GetAssignmentByUserAndCourse(ctx, targetID, na.CourseID)
			if err != nil {
				return Assignment{}, errors.Wrap(err, "fetching assignment after insert race")
			}
			return svc.reassign(ctx, existing, actor.ID)
		}
		return Assignment{}, errors.Wrap(err, "inserting assignment")
	}
	return created, nil
}

func (svc *Service) reassign(ctx context.Context, a Assignment, actorID string) (Assignment, error) {
	a.AssignedBy = &actorID
	updated, err := svc.repo.UpdateAssignment(ctx, a)
	return updated, errors.Wrap(err, "updating assigned_by")
}

// UpdateProgress applies a percentage and/or explicit status to an
// assignment. A percentage update stamps last_activity_at, appends exactly
// one ProgressEvent in the same transaction and derives the status: >=100
// forces completed (stamping completed_at once), >0 moves not_started to
// in_progress. An explicit status wins over the derived one afterward.
// completed_at is never cleared, even when an explicit status steps a
// completed assignment back; status and the completion timestamp may then
// disagree, matching the historical behavior.
func (svc *Service) UpdateProgress(ctx context.Context, actor user.User, id string, up UpdateProgress) (Assignment, error) {
	a, err := svc.repo.GetAssignmentByID(ctx, id)
	if err != nil {
		return Assignment{}, err
	}
	if a.UserID != actor.ID && !user.Allowed(actor, user.CapManageUsers) {
		return Assignment{}, core.ErrPermissionDenied
	}

	now := nowFunc().UTC()

	if up.ProgressPct != nil {
		a.ProgressPct = *up.ProgressPct
		a.LastActivityAt = &now
		if a.ProgressPct >= 100 {
			a.Status = StatusCompleted
		} else if a.ProgressPct > 0 && a.Status == StatusNotStarted {
			a.Status = StatusInProgress
		}
	}
	if up.Status != "" {
		a.Status = up.Status
	}
	if a.Status == StatusCompleted && a.CompletedAt == nil {
		a.CompletedAt = &now
	}

	err = core.Atomic(ctx, svc.db, func(tx core.DBTransactor) error {
		var err error
		if a, err = svc.repo.UpdateAssignment(ctx, a, tx); err != nil {
			return errors.Wrap(err, "updating assignment")
		}
		if up.ProgressPct == nil {
			return nil
		}
		_, err = svc.repo.CreateProgressEvent(ctx, ProgressEvent{
			AssignmentID: a.ID,
			ProgressPct:  a.ProgressPct,
			CreatedAt:    now,
		}, tx)
		return errors.Wrap(err, "inserting progress event")
	})
	if err != nil {
		return Assignment{}, err
	}
	return a, nil
}

// Get returns one assignment; its own user or a manager-level role may see it.
func (svc *Service) Get(ctx context.Context, actor user.User, id string) (Assignment, error) {
	a, err := svc.repo.GetAssignmentByID(ctx, id)
	if err != nil {
		return Assignment{}, err
	}
	if a.UserID != actor.ID && !user.Allowed(actor, user.CapManageUsers) {
		return Assignment{}, ErrNotFound
	}
	return a, nil
}

// QueryMine lists the actor's own assignments.
func (svc *Service) QueryMine(ctx context.Context, actor user.User) ([]Assignment, error) {
	return svc.repo.QueryAssignmentsByUser(ctx, actor.ID)
}

// QueryForUsers lists assignments for a set of users (team view).
// Manager-level roles only.
func (svc *Service) QueryForUsers(ctx context.Context, actor user.User, userIDs []string) ([]Assignment, error) {
	if !user.Allowed(actor, user.CapManageUsers) {
		return nil, core.ErrPermissionDenied
	}
	return svc.repo.QueryAssignmentsByUsers(ctx, userIDs)
}

// ProgressHistory lists the append-only progress events of an assignment.
func (svc *Service) ProgressHistory(ctx context.Context, actor user.User, id string) ([]ProgressEvent, error) {
	if _, err := svc.Get(ctx, actor, id); err != nil {
		return nil, err
	}
	return svc.repo.QueryProgressEvents(ctx, id)
}
