package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/upskillhq/upskill/core"
	"github.com/upskillhq/upskill/core/assignment"
)

type assignmentRepository struct {
	db *DB
}

var _ assignment.Repository = (*assignmentRepository)(nil)

func NewAssignmentRepository(db *DB) *assignmentRepository {
	return &assignmentRepository{db: db}
}

func (repo *assignmentRepository) CreateAssignment(ctx context.Context, a assignment.Assignment, exec ...core.DBExecutor) (assignment.Assignment, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, existing := range repo.db.assignments {
		if existing.UserID == a.UserID && existing.CourseID == a.CourseID {
			return assignment.Assignment{}, assignment.ErrAlreadyExists
		}
	}
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	repo.db.assignments[a.ID] = &a
	return a, nil
}

func (repo *assignmentRepository) GetAssignmentByID(ctx context.Context, id string, exec ...core.DBExecutor) (assignment.Assignment, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if a, ok := repo.db.assignments[id]; ok {
		return *a, nil
	}
	return assignment.Assignment{}, assignment.ErrNotFound
}

func (repo *assignmentRepository) GetAssignmentByUserAndCourse(ctx context.Context, userID, courseID string, exec ...core.DBExecutor) (assignment.Assignment, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, a := range repo.db.assignments {
		if a.UserID == userID && a.CourseID == courseID {
			return *a, nil
		}
	}
	return assignment.Assignment{}, assignment.ErrNotFound
}

func (repo *assignmentRepository) QueryAssignmentsByUser(ctx context.Context, userID string, exec ...core.DBExecutor) ([]assignment.Assignment, error) {
	return repo.QueryAssignmentsByUsers(ctx, []string{userID}, exec...)
}

func (repo *assignmentRepository) QueryAssignmentsByUsers(ctx context.Context, userIDs []string, exec ...core.DBExecutor) ([]assignment.Assignment, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var assignments []assignment.Assignment
	for _, a := range repo.db.assignments {
		for _, id := range userIDs {
			if a.UserID == id {
				assignments = append(assignments, *a)
				break
			}
		}
	}
	sort.Slice(assignments, func(i, j int) bool {
		return assignments[i].AssignedAt.After(assignments[j].AssignedAt)
	})
	return assignments, nil
}

func (repo *assignmentRepository) UpdateAssignment(ctx context.Context, a assignment.Assignment, exec ...core.DBExecutor) (assignment.Assignment, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	orig, ok := repo.db.assignments[a.ID]
	if !ok {
		return assignment.Assignment{}, assignment.ErrNotFound
	}
	orig.AssignedBy = a.AssignedBy
	orig.Status = a.Status
	orig.ProgressPct = a.ProgressPct
	orig.LastActivityAt = a.LastActivityAt
	orig.CompletedAt = a.CompletedAt
	return *orig, nil
}

func (repo *assignmentRepository) CreateProgressEvent(ctx context.Context, evt assignment.ProgressEvent, exec ...core.DBExecutor) (assignment.ProgressEvent, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if evt.ID == "" {
		evt.ID = uuid.New().String()
	}
	repo.db.progressEvents[evt.AssignmentID] = append(repo.db.progressEvents[evt.AssignmentID], evt)
	return evt, nil
}

func (repo *assignmentRepository) QueryProgressEvents(ctx context.Context, assignmentID string, exec ...core.DBExecutor) ([]assignment.ProgressEvent, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	events := repo.db.progressEvents[assignmentID]
	out := make([]assignment.ProgressEvent, len(events))
	copy(out, events)
	return out, nil
}
