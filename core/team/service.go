package team

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/upskillhq/upskill/core"
	"github.com/upskillhq/upskill/core/user"
)

// ErrNotFound is returned when no team matches the lookup.
var ErrNotFound = errors.New("team not found")

type (
	Repository interface {
		CreateTeam(ctx context.Context, t Team, exec ...core.DBExecutor) (Team, error)
		GetTeamByID(ctx context.Context, id string, exec ...core.DBExecutor) (Team, error)
		QueryAllTeams(ctx context.Context, exec ...core.DBExecutor) ([]Team, error)
		UpdateTeam(ctx context.Context, t Team, exec ...core.DBExecutor) (Team, error)
		DeleteTeamsByID(ctx context.Context, ids []string, exec ...core.DBExecutor) error
		// QueryTeamMemberIDs lists the IDs of users belonging to the team.
		QueryTeamMemberIDs(ctx context.Context, id string, exec ...core.DBExecutor) ([]string, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Create(ctx context.Context, actor user.User, nt NewTeam) (Team, error) {
	if !user.Allowed(actor, user.CapManageTeams) {
		return Team{}, core.ErrPermissionDenied
	}
	now := time.Now().UTC()
	return svc.repo.CreateTeam(ctx, Team{
		Name:        nt.Name,
		Description: nt.Description,
		ManagerID:   nt.ManagerID,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
}

func (svc *Service) GetByID(ctx context.Context, id string) (Team, error) {
	return svc.repo.GetTeamByID(ctx, id)
}

func (svc *Service) QueryAll(ctx context.Context) ([]Team, error) {
	return svc.repo.QueryAllTeams(ctx)
}

func (svc *Service) Update(ctx context.Context, actor user.User, id string, ut UpdateTeam) (Team, error) {
	if !user.Allowed(actor, user.CapManageTeams) {
		return Team{}, core.ErrPermissionDenied
	}
	return svc.repo.UpdateTeam(ctx, Team{
		ID:          id,
		Name:        ut.Name,
		Description: ut.Description,
		ManagerID:   ut.ManagerID,
		UpdatedAt:   time.Now().UTC(),
	})
}

func (svc *Service) Delete(ctx context.Context, actor user.User, ids ...string) error {
	if !user.Allowed(actor, user.CapManageTeams) {
		return core.ErrPermissionDenied
	}
	return svc.repo.DeleteTeamsByID(ctx, ids)
}

func (svc *Service) MemberIDs(ctx context.Context, id string) ([]string, error) {
	return svc.repo.QueryTeamMemberIDs(ctx, id)
}
