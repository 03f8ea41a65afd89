package course_test

import (
	"context"
	"testing"

	"github.com/upskillhq/upskill/core"
	"github.com/upskillhq/upskill/core/course"
	"github.com/upskillhq/upskill/core/user"
	inmemdb "github.com/upskillhq/upskill/storage/database/inmem"
	testutil "github.com/upskillhq/upskill/tests"
)

func newCourseService() (*course.Service, course.Repository) {
	db := inmemdb.NewDB()
	repo := inmemdb.NewCourseRepository(db)
	return course.NewService(db, repo), repo
}

var (
	courseAdmin    = user.User{ID: "adm", Role: user.RoleAdmin, IsActive: true}
	courseManager  = user.User{ID: "mgr", Role: user.RoleManager, IsActive: true}
	courseEmployee = user.User{ID: "emp", Role: user.RoleEmployee, IsActive: true}
)

func TestCourseService_Create(t *testing.T) {
	ctx := context.Background()
	svc, repo := newCourseService()

	t.Run("employee is denied", func(t *testing.T) {
		_, err := svc.Create(ctx, courseEmployee, course.NewCourse{Title: "Go 101", Description: "intro"})
		if err != core.ErrPermissionDenied {
			t.Errorf("Create() error = %v, want %v", err, core.ErrPermissionDenied)
		}
	})

	t.Run("admin gets requested status without review", func(t *testing.T) {
		crs, err := svc.Create(ctx, courseAdmin, course.NewCourse{
			Title: "Go 101", Description: "intro", Status: course.StatusPublished,
		})
		if err != nil {
			t.Fatalf("Create() failed: %v", err)
		}
		if crs.Status != course.StatusPublished {
			t.Errorf("Status = %s, want %s", crs.Status, course.StatusPublished)
		}
		if _, err := repo.GetPendingApproval(ctx, crs.ID); err != course.ErrApprovalNotFound {
			t.Errorf("GetPendingApproval() error = %v, want %v", err, course.ErrApprovalNotFound)
		}
	})

	t.Run("admin defaults to draft", func(t *testing.T) {
		crs, err := svc.Create(ctx, courseAdmin, course.NewCourse{Title: "Go 102", Description: "more"})
		if err != nil {
			t.Fatalf("Create() failed: %v", err)
		}
		if crs.Status != course.StatusDraft {
			t.Errorf("Status = %s, want %s", crs.Status, course.StatusDraft)
		}
	})

	t.Run("manager lands in review with a pending approval", func(t *testing.T) {
		crs, err := svc.Create(ctx, courseManager, course.NewCourse{
			Title: "Go 103", Description: "deep", Status: course.StatusPublished,
		})
		if err != nil {
			t.Fatalf("Create() failed: %v", err)
		}
		if crs.Status != course.StatusAwaitingApproval {
			t.Errorf("Status = %s, want %s", crs.Status, course.StatusAwaitingApproval)
		}

		apr, err := repo.GetPendingApproval(ctx, crs.ID)
		if err != nil {
			t.Fatalf("GetPendingApproval() failed: %v", err)
		}
		if apr.RequestedBy != courseManager.ID {
			t.Errorf("RequestedBy = %s, want %s", apr.RequestedBy, courseManager.ID)
		}
	})
}

func TestCourseService_Publish(t *testing.T) {
	ctx := context.Background()
	svc, repo := newCourseService()

	crs, err := svc.Create(ctx, courseManager, course.NewCourse{Title: "Go 101", Description: "intro"})
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}

	t.Run("manager is denied", func(t *testing.T) {
		if _, err := svc.Publish(ctx, courseManager, crs.ID); err != core.ErrPermissionDenied {
			t.Errorf("Publish() error = %v, want %v", err, core.ErrPermissionDenied)
		}
	})

	t.Run("unknown course", func(t *testing.T) {
		if _, err := svc.Publish(ctx, courseAdmin, "nope"); err != course.ErrNotFound {
			t.Errorf("Publish() error = %v, want %v", err, course.ErrNotFound)
		}
	})

	t.Run("publish resolves the pending approval", func(t *testing.T) {
		got, err := svc.Publish(ctx, courseAdmin, crs.ID)
		if err != nil {
			t.Fatalf("Publish() failed: %v", err)
		}
		if got.Status != course.StatusPublished {
			t.Errorf("Status = %s, want %s", got.Status, course.StatusPublished)
		}
		if _, err := repo.GetPendingApproval(ctx, crs.ID); err != course.ErrApprovalNotFound {
			t.Errorf("GetPendingApproval() error = %v, want %v", err, course.ErrApprovalNotFound)
		}

		approvals, err := repo.FilterApprovals(ctx, course.ApprovalApproved)
		if err != nil {
			t.Fatalf("FilterApprovals() failed: %v", err)
		}
		if len(approvals) != 1 {
			t.Fatalf("got %d approved approvals, want 1", len(approvals))
		}
		apr := approvals[0]
		if apr.ReviewedBy == nil || *apr.ReviewedBy != courseAdmin.ID {
			t.Errorf("ReviewedBy = %v, want %s", apr.ReviewedBy, courseAdmin.ID)
		}
		if apr.ReviewedAt == nil {
			t.Error("ReviewedAt is nil")
		}
	})

	t.Run("publish without a review cycle", func(t *testing.T) {
		draft := testutil.CreateCourse(t, repo, "Go 104", course.StatusDraft, courseAdmin.ID)
		got, err := svc.Publish(ctx, courseAdmin, draft.ID)
		if err != nil {
			t.Fatalf("Publish() failed: %v", err)
		}
		if got.Status != course.StatusPublished {
			t.Errorf("Status = %s, want %s", got.Status, course.StatusPublished)
		}
	})
}

func TestCourseService_Reject(t *testing.T) {
	ctx := context.Background()
	svc, repo := newCourseService()

	crs, err := svc.Create(ctx, courseManager, course.NewCourse{Title: "Go 101", Description: "intro"})
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}

	t.Run("manager is denied", func(t *testing.T) {
		_, err := svc.Reject(ctx, courseManager, crs.ID, course.RejectCourse{Note: "nope"})
		if err != core.ErrPermissionDenied {
			t.Errorf("Reject() error = %v, want %v", err, core.ErrPermissionDenied)
		}
	})

	t.Run("reject sends the course back to draft", func(t *testing.T) {
		got, err := svc.Reject(ctx, courseAdmin, crs.ID, course.RejectCourse{Note: "needs work"})
		if err != nil {
			t.Fatalf("Reject() failed: %v", err)
		}
		if got.Status != course.StatusDraft {
			t.Errorf("Status = %s, want %s", got.Status, course.StatusDraft)
		}

		approvals, err := repo.FilterApprovals(ctx, course.ApprovalRejected)
		if err != nil {
			t.Fatalf("FilterApprovals() failed: %v", err)
		}
		if len(approvals) != 1 {
			t.Fatalf("got %d rejected approvals, want 1", len(approvals))
		}
		if approvals[0].RejectionNote != "needs work" {
			t.Errorf("RejectionNote = %q, want %q", approvals[0].RejectionNote, "needs work")
		}
	})

	t.Run("only awaiting courses can be rejected", func(t *testing.T) {
		_, err := svc.Reject(ctx, courseAdmin, crs.ID, course.RejectCourse{Note: "again"})
		if _, ok := err.(*core.ValidationError); !ok {
			t.Errorf("Reject() error = %v, want ValidationError", err)
		}
	})
}

func TestCourseService_Unpublish(t *testing.T) {
	ctx := context.Background()
	svc, repo := newCourseService()

	crs := testutil.CreateCourse(t, repo, "Go 101", course.StatusPublished, courseAdmin.ID)

	t.Run("manager is denied", func(t *testing.T) {
		if _, err := svc.Unpublish(ctx, courseManager, crs.ID); err != core.ErrPermissionDenied {
			t.Errorf("Unpublish() error = %v, want %v", err, core.ErrPermissionDenied)
		}
	})

	t.Run("published goes back to draft", func(t *testing.T) {
		got, err := svc.Unpublish(ctx, courseAdmin, crs.ID)
		if err != nil {
			t.Fatalf("Unpublish() failed: %v", err)
		}
		if got.Status != course.StatusDraft {
			t.Errorf("Status = %s, want %s", got.Status, course.StatusDraft)
		}
	})

	t.Run("only published courses can be unpublished", func(t *testing.T) {
		_, err := svc.Unpublish(ctx, courseAdmin, crs.ID)
		if _, ok := err.(*core.ValidationError); !ok {
			t.Errorf("Unpublish() error = %v, want ValidationError", err)
		}
	})
}

func TestCourseService_Visibility(t *testing.T) {
	ctx := context.Background()
	svc, repo := newCourseService()

	published := testutil.CreateCourse(t, repo, "Published", course.StatusPublished, courseAdmin.ID)
	draft := testutil.CreateCourse(t, repo, "Draft", course.StatusDraft, courseAdmin.ID)
	mine := testutil.CreateCourse(t, repo, "Mine", course.StatusAwaitingApproval, courseManager.ID)

	t.Run("admin sees everything", func(t *testing.T) {
		courses, err := svc.Query(ctx, courseAdmin, course.QueryFilter{})
		if err != nil {
			t.Fatalf("Query() failed: %v", err)
		}
		if len(courses) != 3 {
			t.Errorf("got %d courses, want 3", len(courses))
		}
	})

	t.Run("manager sees published plus own", func(t *testing.T) {
		courses, err := svc.Query(ctx, courseManager, course.QueryFilter{})
		if err != nil {
			t.Fatalf("Query() failed: %v", err)
		}
		if len(courses) != 2 {
			t.Fatalf("got %d courses, want 2", len(courses))
		}
		for _, crs := range courses {
			if crs.ID == draft.ID {
				t.Error("manager can see another owner's draft")
			}
		}
	})

	t.Run("employee sees published only", func(t *testing.T) {
		courses, err := svc.Query(ctx, courseEmployee, course.QueryFilter{})
		if err != nil {
			t.Fatalf("Query() failed: %v", err)
		}
		if len(courses) != 1 || courses[0].ID != published.ID {
			t.Errorf("got %v, want only the published course", courses)
		}
	})

	t.Run("get hides invisible courses", func(t *testing.T) {
		if _, err := svc.Get(ctx, courseEmployee, draft.ID); err != course.ErrNotFound {
			t.Errorf("Get() error = %v, want %v", err, course.ErrNotFound)
		}
		if _, err := svc.Get(ctx, courseManager, mine.ID); err != nil {
			t.Errorf("Get() on own course failed: %v", err)
		}
		if _, err := svc.Get(ctx, courseEmployee, published.ID); err != nil {
			t.Errorf("Get() on published course failed: %v", err)
		}
	})
}

func TestCourseService_Update(t *testing.T) {
	ctx := context.Background()
	svc, repo := newCourseService()

	crs := testutil.CreateCourse(t, repo, "Go 101", course.StatusAwaitingApproval, courseManager.ID)

	t.Run("non-owner is denied", func(t *testing.T) {
		other := user.User{ID: "mgr2", Role: user.RoleManager, IsActive: true}
		_, err := svc.Update(ctx, other, crs.ID, course.UpdateCourse{Title: "Stolen"})
		if err != core.ErrPermissionDenied {
			t.Errorf("Update() error = %v, want %v", err, core.ErrPermissionDenied)
		}
	})

	t.Run("owner edits content but not status", func(t *testing.T) {
		got, err := svc.Update(ctx, courseManager, crs.ID, course.UpdateCourse{
			Title: "Go 101 v2", Description: "updated", Level: course.LevelAdvanced,
		})
		if err != nil {
			t.Fatalf("Update() failed: %v", err)
		}
		if got.Title != "Go 101 v2" {
			t.Errorf("Title = %s, want Go 101 v2", got.Title)
		}
		if got.Status != course.StatusAwaitingApproval {
			t.Errorf("Status = %s, want %s", got.Status, course.StatusAwaitingApproval)
		}
	})
}

func TestCourseService_Delete(t *testing.T) {
	ctx := context.Background()
	svc, repo := newCourseService()

	crs := testutil.CreateCourse(t, repo, "Go 101", course.StatusDraft, courseAdmin.ID)

	if err := svc.Delete(ctx, courseManager, crs.ID); err != core.ErrPermissionDenied {
		t.Errorf("Delete() error = %v, want %v", err, core.ErrPermissionDenied)
	}
	if err := svc.Delete(ctx, courseAdmin, crs.ID); err != nil {
		t.Fatalf("Delete() failed: %v", err)
	}
	if _, err := repo.GetCourseByID(ctx, crs.ID); err != course.ErrNotFound {
		t.Errorf("GetCourseByID() error = %v, want %v", err, course.ErrNotFound)
	}
}

func TestCourseService_QueryApprovals(t *testing.T) {
	ctx := context.Background()
	svc, _ := newCourseService()

	if _, err := svc.Create(ctx, courseManager, course.NewCourse{Title: "Go 101", Description: "intro"}); err != nil {
		t.Fatalf("Create() failed: %v", err)
	}

	if _, err := svc.QueryApprovals(ctx, courseEmployee, ""); err != core.ErrPermissionDenied {
		t.Errorf("QueryApprovals() error = %v, want %v", err, core.ErrPermissionDenied)
	}

	approvals, err := svc.QueryApprovals(ctx, courseManager, "")
	if err != nil {
		t.Fatalf("QueryApprovals() failed: %v", err)
	}
	if len(approvals) != 1 {
		t.Errorf("got %d approvals, want 1", len(approvals))
	}

	approvals, err = svc.QueryApprovals(ctx, courseManager, course.ApprovalRejected)
	if err != nil {
		t.Fatalf("QueryApprovals() failed: %v", err)
	}
	if len(approvals) != 0 {
		t.Errorf("got %d rejected approvals, want 0", len(approvals))
	}
}
