package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/upskillhq/upskill/core"
	"github.com/upskillhq/upskill/core/team"
)

type teamRepository struct {
	db *DB
}

var _ team.Repository = (*teamRepository)(nil)

func NewTeamRepository(db *DB) *teamRepository {
	return &teamRepository{db: db}
}

// memberCount is computed from the users table; callers must hold the lock.
func (repo *teamRepository) memberCount(teamID string) int {
	var n int
	for _, usr := range repo.db.users {
		if usr.TeamID != nil && *usr.TeamID == teamID {
			n++
		}
	}
	return n
}

func (repo *teamRepository) CreateTeam(ctx context.Context, t team.Team, exec ...core.DBExecutor) (team.Team, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	repo.db.teams[t.ID] = &t
	return t, nil
}

func (repo *teamRepository) GetTeamByID(ctx context.Context, id string, exec ...core.DBExecutor) (team.Team, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if t, ok := repo.db.teams[id]; ok {
		out := *t
		out.MemberCount = repo.memberCount(id)
		return out, nil
	}
	return team.Team{}, team.ErrNotFound
}

func (repo *teamRepository) QueryAllTeams(ctx context.Context, exec ...core.DBExecutor) ([]team.Team, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	teams := make([]team.Team, 0, len(repo.db.teams))
	for _, t := range repo.db.teams {
		out := *t
		out.MemberCount = repo.memberCount(t.ID)
		teams = append(teams, out)
	}
	sort.Slice(teams, func(i, j int) bool { return teams[i].Name < teams[j].Name })
	return teams, nil
}

func (repo *teamRepository) UpdateTeam(ctx context.Context, t team.Team, exec ...core.DBExecutor) (team.Team, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	orig, ok := repo.db.teams[t.ID]
	if !ok {
		return team.Team{}, team.ErrNotFound
	}
	orig.Name = t.Name
	orig.Description = t.Description
	orig.ManagerID = t.ManagerID
	orig.UpdatedAt = t.UpdatedAt

	out := *orig
	out.MemberCount = repo.memberCount(t.ID)
	return out, nil
}

func (repo *teamRepository) DeleteTeamsByID(ctx context.Context, ids []string, exec ...core.DBExecutor) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, id := range ids {
		delete(repo.db.teams, id)
	}
	return nil
}

func (repo *teamRepository) QueryTeamMemberIDs(ctx context.Context, id string, exec ...core.DBExecutor) ([]string, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var ids []string
	for _, usr := range repo.db.users {
		if usr.TeamID != nil && *usr.TeamID == id {
			ids = append(ids, usr.ID)
		}
	}
	sort.Strings(ids)
	return ids, nil
}
