package sqlxrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/upskillhq/upskill/core"
	"github.com/upskillhq/upskill/core/team"
)

// teamColumns includes a member_count aggregate, so queries must alias the
// table as t.
const teamColumns = `t.id, t.name, t.description, t.manager_id, t.created_at, t.updated_at,
(SELECT COUNT(*) FROM users u WHERE u.team_id = t.id) AS member_count`

type teamRow struct {
	ID          string    `db:"id"`
	Name        string    `db:"name"`
	Description string    `db:"description"`
	ManagerID   *string   `db:"manager_id"`
	MemberCount int       `db:"member_count"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

func (r teamRow) unload() team.Team {
	return team.Team{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		ManagerID:   r.ManagerID,
		MemberCount: r.MemberCount,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

type teamRepository struct {
	db *sqlx.DB
}

var _ team.Repository = (*teamRepository)(nil)

func NewTeamRepository(db *sqlx.DB) *teamRepository {
	return &teamRepository{db: db}
}

func (repo *teamRepository) CreateTeam(ctx context.Context, t team.Team, exec ...core.DBExecutor) (team.Team, error) {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	query := `
INSERT INTO teams AS t (id, name, description, manager_id, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING ` + teamColumns
	var row teamRow
	err := getExec(repo.db, exec).QueryRowxContext(ctx, query,
		t.ID, t.Name, t.Description, t.ManagerID, t.CreatedAt, t.UpdatedAt,
	).StructScan(&row)
	if err != nil {
		return team.Team{}, errors.Wrap(err, "inserting team")
	}
	return row.unload(), nil
}

func (repo *teamRepository) GetTeamByID(ctx context.Context, id string, exec ...core.DBExecutor) (team.Team, error) {
	var row teamRow
	query := `SELECT ` + teamColumns + ` FROM teams t WHERE t.id = $1`
	if err := sqlx.GetContext(ctx, getExec(repo.db, exec), &row, query, id); err != nil {
		return team.Team{}, trapNoRowsErr(err, team.ErrNotFound, "fetching team")
	}
	return row.unload(), nil
}

func (repo *teamRepository) QueryAllTeams(ctx context.Context, exec ...core.DBExecutor) ([]team.Team, error) {
	query := `SELECT ` + teamColumns + ` FROM teams t ORDER BY t.name ASC`
	var rows []teamRow
	if err := sqlx.SelectContext(ctx, getExec(repo.db, exec), &rows, query); err != nil {
		return nil, errors.Wrap(err, "querying teams")
	}
	teams := make([]team.Team, 0, len(rows))
	for _, row := range rows {
		teams = append(teams, row.unload())
	}
	return teams, nil
}

func (repo *teamRepository) UpdateTeam(ctx context.Context, t team.Team, exec ...core.DBExecutor) (team.Team, error) {
	query := `
UPDATE teams AS t
SET name = $2, description = $3, manager_id = $4, updated_at = $5
WHERE t.id = $1
RETURNING ` + teamColumns
	var row teamRow
	err := getExec(repo.db, exec).QueryRowxContext(ctx, query,
		t.ID, t.Name, t.Description, t.ManagerID, t.UpdatedAt,
	).StructScan(&row)
	if err != nil {
		return team.Team{}, trapNoRowsErr(err, team.ErrNotFound, "updating team")
	}
	return row.unload(), nil
}

func (repo *teamRepository) DeleteTeamsByID(ctx context.Context, ids []string, exec ...core.DBExecutor) error {
	query := `DELETE FROM teams WHERE id::text = ANY($1)`
	if _, err := getExec(repo.db, exec).ExecContext(ctx, query, stringArray(ids)); err != nil {
		return errors.Wrap(err, "deleting teams")
	}
	return nil
}

func (repo *teamRepository) QueryTeamMemberIDs(ctx context.Context, id string, exec ...core.DBExecutor) ([]string, error) {
	var ids []string
	query := `SELECT id FROM users WHERE team_id = $1`
	if err := sqlx.SelectContext(ctx, getExec(repo.db, exec), &ids, query, id); err != nil {
		return nil, errors.Wrap(err, "querying team member ids")
	}
	return ids, nil
}
