package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/upskillhq/upskill/core"
	"github.com/upskillhq/upskill/core/course"
)

type courseRepository struct {
	db *DB
}

var _ course.Repository = (*courseRepository)(nil)

func NewCourseRepository(db *DB) *courseRepository {
	return &courseRepository{db: db}
}

func (repo *courseRepository) query() []course.Course {
	courses := make([]course.Course, 0, len(repo.db.courses))
	for _, crs := range repo.db.courses {
		courses = append(courses, *crs)
	}
	sort.Slice(courses, func(i, j int) bool { return courses[i].CreatedAt.After(courses[j].CreatedAt) })
	return courses
}

func (repo *courseRepository) CreateCourse(ctx context.Context, crs course.Course, exec ...core.DBExecutor) (course.Course, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if crs.ID == "" {
		crs.ID = uuid.New().String()
	}
	repo.db.courses[crs.ID] = &crs
	return crs, nil
}

func (repo *courseRepository) GetCourseByID(ctx context.Context, id string, exec ...core.DBExecutor) (course.Course, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if crs, ok := repo.db.courses[id]; ok {
		return *crs, nil
	}
	return course.Course{}, course.ErrNotFound
}

func (repo *courseRepository) FilterCourses(ctx context.Context, filter course.QueryFilter, exec ...core.DBExecutor) ([]course.Course, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	search := strings.ToLower(filter.Search)

	var courses []course.Course
	for _, crs := range repo.query() {
		if search != "" &&
			!strings.Contains(strings.ToLower(crs.Title), search) &&
			!strings.Contains(strings.ToLower(crs.Description), search) {
			continue
		}
		if filter.Status != "" && crs.Status != filter.Status {
			continue
		}
		if filter.Level != "" && crs.Level != filter.Level {
			continue
		}
		if filter.VisibleStatus != "" && crs.Status != filter.VisibleStatus &&
			(filter.OwnerID == "" || crs.CreatedBy != filter.OwnerID) {
			continue
		}
		courses = append(courses, crs)
	}
	return courses, nil
}

func (repo *courseRepository) UpdateCourse(ctx context.Context, crs course.Course, exec ...core.DBExecutor) (course.Course, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	origCrs, ok := repo.db.courses[crs.ID]
	if !ok {
		return course.Course{}, course.ErrNotFound
	}
	origCrs.Title = crs.Title
	origCrs.Description = crs.Description
	origCrs.VideoURL = crs.VideoURL
	origCrs.ThumbnailURL = crs.ThumbnailURL
	origCrs.Level = crs.Level
	origCrs.Duration = crs.Duration
	origCrs.UpdatedAt = crs.UpdatedAt
	return *origCrs, nil
}

func (repo *courseRepository) SetCourseStatus(ctx context.Context, id, status string, exec ...core.DBExecutor) (course.Course, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	origCrs, ok := repo.db.courses[id]
	if !ok {
		return course.Course{}, course.ErrNotFound
	}
	origCrs.Status = status
	return *origCrs, nil
}

func (repo *courseRepository) DeleteCoursesByID(ctx context.Context, ids []string, exec ...core.DBExecutor) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, id := range ids {
		delete(repo.db.courses, id)
	}
	return nil
}

func (repo *courseRepository) CreateApproval(ctx context.Context, apr course.Approval, exec ...core.DBExecutor) (course.Approval, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if apr.ID == "" {
		apr.ID = uuid.New().String()
	}
	repo.db.approvals[apr.ID] = &apr
	return apr, nil
}

func (repo *courseRepository) GetPendingApproval(ctx context.Context, courseID string, exec ...core.DBExecutor) (course.Approval, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, apr := range repo.db.approvals {
		if apr.CourseID == courseID && apr.Status == course.ApprovalPending {
			return *apr, nil
		}
	}
	return course.Approval{}, course.ErrApprovalNotFound
}

func (repo *courseRepository) ResolveApproval(ctx context.Context, apr course.Approval, exec ...core.DBExecutor) (course.Approval, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	origApr, ok := repo.db.approvals[apr.ID]
	if !ok {
		return course.Approval{}, course.ErrApprovalNotFound
	}
	origApr.Status = apr.Status
	origApr.ReviewedBy = apr.ReviewedBy
	origApr.RejectionNote = apr.RejectionNote
	origApr.ReviewedAt = apr.ReviewedAt
	return *origApr, nil
}

func (repo *courseRepository) FilterApprovals(ctx context.Context, status string, exec ...core.DBExecutor) ([]course.Approval, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	approvals := make([]course.Approval, 0, len(repo.db.approvals))
	for _, apr := range repo.db.approvals {
		if status != "" && apr.Status != status {
			continue
		}
		approvals = append(approvals, *apr)
	}
	sort.Slice(approvals, func(i, j int) bool { return approvals[i].RequestedAt.After(approvals[j].RequestedAt) })
	return approvals, nil
}
