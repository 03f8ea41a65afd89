package team_test

import (
	"context"
	"testing"

	"github.com/upskillhq/upskill/core"
	"github.com/upskillhq/upskill/core/team"
	"github.com/upskillhq/upskill/core/user"
	inmemdb "github.com/upskillhq/upskill/storage/database/inmem"
	testutil "github.com/upskillhq/upskill/tests"
)

func TestTeamService(t *testing.T) {
	ctx := context.Background()

	db := inmemdb.NewDB()
	repo := inmemdb.NewTeamRepository(db)
	usrRepo := inmemdb.NewUserRepository(db)
	svc := team.NewService(repo)

	admin := user.User{ID: "adm", Role: user.RoleAdmin, IsActive: true}
	manager := user.User{ID: "mgr", Role: user.RoleManager, IsActive: true}
	employee := user.User{ID: "emp", Role: user.RoleEmployee, IsActive: true}

	t.Run("employee cannot manage teams", func(t *testing.T) {
		if _, err := svc.Create(ctx, employee, team.NewTeam{Name: "Platform"}); err != core.ErrPermissionDenied {
			t.Errorf("Create() error = %v, want %v", err, core.ErrPermissionDenied)
		}
		if _, err := svc.Update(ctx, employee, "x", team.UpdateTeam{Name: "Platform"}); err != core.ErrPermissionDenied {
			t.Errorf("Update() error = %v, want %v", err, core.ErrPermissionDenied)
		}
		if err := svc.Delete(ctx, employee, "x"); err != core.ErrPermissionDenied {
			t.Errorf("Delete() error = %v, want %v", err, core.ErrPermissionDenied)
		}
	})

	tm, err := svc.Create(ctx, manager, team.NewTeam{Name: "Platform", Description: "infra crew", ManagerID: &manager.ID})
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	if tm.ID == "" || tm.Name != "Platform" {
		t.Errorf("Create() = %+v", tm)
	}

	t.Run("member count follows user membership", func(t *testing.T) {
		usr := testutil.CreateUser(t, usrRepo, "Jane", "Doe", "jane@test.cd", "", user.RoleEmployee, true)
		usr.TeamID = &tm.ID
		if _, err := usrRepo.UpdateUser(ctx, usr, nil); err != nil {
			t.Fatalf("UpdateUser() failed: %v", err)
		}

		got, err := svc.GetByID(ctx, tm.ID)
		if err != nil {
			t.Fatalf("GetByID() failed: %v", err)
		}
		if got.MemberCount != 1 {
			t.Errorf("MemberCount = %d, want 1", got.MemberCount)
		}

		ids, err := svc.MemberIDs(ctx, tm.ID)
		if err != nil {
			t.Fatalf("MemberIDs() failed: %v", err)
		}
		if len(ids) != 1 || ids[0] != usr.ID {
			t.Errorf("MemberIDs() = %v, want [%s]", ids, usr.ID)
		}
	})

	t.Run("update", func(t *testing.T) {
		got, err := svc.Update(ctx, admin, tm.ID, team.UpdateTeam{Name: "Platform Eng", Description: "infra crew"})
		if err != nil {
			t.Fatalf("Update() failed: %v", err)
		}
		if got.Name != "Platform Eng" {
			t.Errorf("Name = %s, want Platform Eng", got.Name)
		}
	})

	t.Run("query all", func(t *testing.T) {
		teams, err := svc.QueryAll(ctx)
		if err != nil {
			t.Fatalf("QueryAll() failed: %v", err)
		}
		if len(teams) != 1 {
			t.Errorf("got %d teams, want 1", len(teams))
		}
	})

	t.Run("delete", func(t *testing.T) {
		if err := svc.Delete(ctx, admin, tm.ID); err != nil {
			t.Fatalf("Delete() failed: %v", err)
		}
		if _, err := svc.GetByID(ctx, tm.ID); err != team.ErrNotFound {
			t.Errorf("GetByID() error = %v, want %v", err, team.ErrNotFound)
		}
	})
}
