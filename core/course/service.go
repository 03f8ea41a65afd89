package course

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/upskillhq/upskill/core"
	"github.com/upskillhq/upskill/core/user"
)

var (
	// errors
	ErrNotFound         = errors.New("course not found")
	ErrApprovalNotFound = errors.New("approval not found")

	nowFunc = time.Now // mockable
)

type (
	Repository interface {
		CreateCourse(ctx context.Context, c Course, exec ...core.DBExecutor) (Course, error)
		GetCourseByID(ctx context.Context, id string, exec ...core.DBExecutor) (Course, error)
		// FilterCourses applies AND on available QueryFilter fields.
		// VisibleStatus/OwnerID express "status = X OR created_by = Y".
		FilterCourses(ctx context.Context, filter QueryFilter, exec ...core.DBExecutor) ([]Course, error)
		UpdateCourse(ctx context.Context, c Course, exec ...core.DBExecutor) (Course, error)
		SetCourseStatus(ctx context.Context, id, status string, exec ...core.DBExecutor) (Course, error)
		DeleteCoursesByID(ctx context.Context, ids []string, exec ...core.DBExecutor) error

		CreateApproval(ctx context.Context, a Approval, exec ...core.DBExecutor) (Approval, error)
		// GetPendingApproval returns ErrApprovalNotFound when the course has
		// no approval with status=pending.
		GetPendingApproval(ctx context.Context, courseID string, exec ...core.DBExecutor) (Approval, error)
		// ResolveApproval stamps status, reviewer, note and reviewed_at.
		ResolveApproval(ctx context.Context, a Approval, exec ...core.DBExecutor) (Approval, error)
		FilterApprovals(ctx context.Context, status string, exec ...core.DBExecutor) ([]Approval, error)
	}

	Service struct {
		db   core.DB
		repo Repository
	}
)

func NewService(db core.DB, repo Repository) *Service {
	return &Service{db: db, repo: repo}
}

// Create makes a new course. Admins get the status they asked for (default
// draft) with no review cycle; manager-level roles always land in
// awaiting_approval with a pending Approval created in the same transaction.
// Employees cannot create courses.
func (svc *Service) Create(ctx context.Context, actor user.User, nc NewCourse) (Course, error) {
	if !actor.IsManager() {
		return Course{}, core.ErrPermissionDenied
	}

	now := nowFunc().UTC()
	crs := Course{
		Title:        nc.Title,
		Description:  nc.Description,
		VideoURL:     nc.VideoURL,
		ThumbnailURL: nc.ThumbnailURL,
		Level:        nc.Level,
		Duration:     nc.Duration,
		CreatedBy:    actor.ID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if actor.IsAdmin() {
		crs.Status = nc.Status
		if crs.Status == "" {
			crs.Status = StatusDraft
		}
		return svc.repo.CreateCourse(ctx, crs)
	}

	crs.Status = StatusAwaitingApproval
	err := core.Atomic(ctx, svc.db, func(tx core.DBTransactor) error {
		var err error
		if crs, err = svc.repo.CreateCourse(ctx, crs, tx); err != nil {
			return errors.Wrap(err, "inserting course")
		}
		_, err = svc.repo.CreateApproval(ctx, Approval{
			CourseID:    crs.ID,
			RequestedBy: actor.ID,
			Status:      ApprovalPending,
			RequestedAt: now,
		}, tx)
		return errors.Wrap(err, "inserting approval")
	})
	if err != nil {
		return Course{}, err
	}
	return crs, nil
}

// Publish moves a course to published from any state, resolving its pending
// Approval (if one exists) in the same transaction. Admin only.
func (svc *Service) Publish(ctx context.Context, actor user.User, id string) (Course, error) {
	if !user.Allowed(actor, user.CapAdminOnly) {
		return Course{}, core.ErrPermissionDenied
	}
	crs, err := svc.repo.GetCourseByID(ctx, id)
	if err != nil {
		return Course{}, err
	}

	err = core.Atomic(ctx, svc.db, func(tx core.DBTransactor) error {
		var err error
		if crs, err = svc.repo.SetCourseStatus(ctx, crs.ID, StatusPublished, tx); err != nil {
			return errors.Wrap(err, "updating course status")
		}
		return svc.resolvePendingApproval(ctx, tx, crs.ID, actor.ID, ApprovalApproved, "")
	})
	if err != nil {
		return Course{}, err
	}
	return crs, nil
}

// Reject sends a course awaiting approval back to draft, resolving its
// pending Approval as rejected with the reviewer's note. Admin only.
func (svc *Service) Reject(ctx context.Context, actor user.User, id string, rc RejectCourse) (Course, error) {
	if !user.Allowed(actor, user.CapAdminOnly) {
		return Course{}, core.ErrPermissionDenied
	}
	crs, err := svc.repo.GetCourseByID(ctx, id)
	if err != nil {
		return Course{}, err
	}
	if crs.Status != StatusAwaitingApproval {
		return Course{}, core.NewValidationError(nil,
			core.FieldError{Field: "status", Error: "only courses awaiting approval can be rejected"})
	}

	err = core.Atomic(ctx, svc.db, func(tx core.DBTransactor) error {
		var err error
		if crs, err = svc.repo.SetCourseStatus(ctx, crs.ID, StatusDraft, tx); err != nil {
			return errors.Wrap(err, "updating course status")
		}
		return svc.resolvePendingApproval(ctx, tx, crs.ID, actor.ID, ApprovalRejected, rc.Note)
	})
	if err != nil {
		return Course{}, err
	}
	return crs, nil
}

// Unpublish takes a published course back to draft. Admin only; no Approval
// side effect.
func (svc *Service) Unpublish(ctx context.Context, actor user.User, id string) (Course, error) {
	if !user.Allowed(actor, user.CapAdminOnly) {
		return Course{}, core.ErrPermissionDenied
	}
	crs, err := svc.repo.GetCourseByID(ctx, id)
	if err != nil {
		return Course{}, err
	}
	if crs.Status != StatusPublished {
		return Course{}, core.NewValidationError(nil,
			core.FieldError{Field: "status", Error: "only published courses can be unpublished"})
	}
	return svc.repo.SetCourseStatus(ctx, crs.ID, StatusDraft)
}

// resolvePendingApproval stamps the course's pending Approval, if any.
// A missing one is fine: admin-created courses never had a review cycle.
func (svc *Service) resolvePendingApproval(ctx context.Context, tx core.DBTransactor, courseID, reviewerID, status, note string) error {
	apr, err := svc.repo.GetPendingApproval(ctx, courseID, tx)
	if err != nil {
		if errors.Cause(err) == ErrApprovalNotFound {
			return nil
		}
		return errors.Wrap(err, "fetching pending approval")
	}
	now := nowFunc().UTC()
	apr.Status = status
	apr.ReviewedBy = &reviewerID
	apr.RejectionNote = note
	apr.ReviewedAt = &now
	_, err = svc.repo.ResolveApproval(ctx, apr, tx)
	return errors.Wrap(err, "resolving approval")
}

// Query lists courses the actor may see: admins see everything, manager
// roles see published courses plus their own, employees see published only.
func (svc *Service) Query(ctx context.Context, actor user.User, filter QueryFilter) ([]Course, error) {
	filter.Clean()
	if !actor.IsAdmin() {
		filter.VisibleStatus = StatusPublished
		if actor.IsManager() {
			filter.OwnerID = actor.ID
		}
	}
	return svc.repo.FilterCourses(ctx, filter)
}

// Get applies the same visibility rule to a single course.
func (svc *Service) Get(ctx context.Context, actor user.User, id string) (Course, error) {
	crs, err := svc.repo.GetCourseByID(ctx, id)
	if err != nil {
		return Course{}, err
	}
	if actor.IsAdmin() || crs.Status == StatusPublished {
		return crs, nil
	}
	if actor.IsManager() && crs.CreatedBy == actor.ID {
		return crs, nil
	}
	return Course{}, ErrNotFound
}

// Update modifies content fields only; the course creator or an admin may
// call it. Status never changes here, so a pending review cannot be
// bypassed through a content edit.
func (svc *Service) Update(ctx context.Context, actor user.User, id string, uc UpdateCourse) (Course, error) {
	crs, err := svc.repo.GetCourseByID(ctx, id)
	if err != nil {
		return Course{}, err
	}
	if !user.Allowed(actor, user.CapOwnerOrAdmin, crs.CreatedBy) {
		return Course{}, core.ErrPermissionDenied
	}

	crs.Title = uc.Title
	crs.Description = uc.Description
	crs.VideoURL = uc.VideoURL
	crs.ThumbnailURL = uc.ThumbnailURL
	crs.Level = uc.Level
	crs.Duration = uc.Duration
	crs.UpdatedAt = nowFunc().UTC()
	return svc.repo.UpdateCourse(ctx, crs)
}

// Delete removes courses. Admin only.
func (svc *Service) Delete(ctx context.Context, actor user.User, ids ...string) error {
	if !user.Allowed(actor, user.CapAdminOnly) {
		return core.ErrPermissionDenied
	}
	return svc.repo.DeleteCoursesByID(ctx, ids)
}

// QueryApprovals lists approvals, optionally by status. Manager-level roles
// only; this backs the admin review queue.
func (svc *Service) QueryApprovals(ctx context.Context, actor user.User, status string) ([]Approval, error) {
	if !user.Allowed(actor, user.CapManageApprovals) {
		return nil, core.ErrPermissionDenied
	}
	return svc.repo.FilterApprovals(ctx, core.CleanString(status, true /* lower */))
}
