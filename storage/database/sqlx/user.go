package sqlxrepos

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/upskillhq/upskill/core"
	"github.com/upskillhq/upskill/core/user"
)

const userColumns = `id, email, first_name, last_name, role, team_id, is_active, password_hash, created_at, updated_at, last_login`

type userRow struct {
	ID           string       `db:"id"`
	Email        string       `db:"email"`
	FirstName    string       `db:"first_name"`
	LastName     string       `db:"last_name"`
	Role         string       `db:"role"`
	TeamID       *string      `db:"team_id"`
	IsActive     bool         `db:"is_active"`
	PasswordHash []byte       `db:"password_hash"`
	CreatedAt    time.Time    `db:"created_at"`
	UpdatedAt    time.Time    `db:"updated_at"`
	LastLogin    sql.NullTime `db:"last_login"`
}

func (r userRow) unload() user.User {
	usr := user.User{
		ID:           r.ID,
		Email:        r.Email,
		FirstName:    r.FirstName,
		LastName:     r.LastName,
		Role:         r.Role,
		TeamID:       r.TeamID,
		IsActive:     r.IsActive,
		PasswordHash: r.PasswordHash,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
	if r.LastLogin.Valid {
		usr.LastLogin = r.LastLogin.Time
	}
	return usr
}

type userRepository struct {
	db *sqlx.DB
}

var _ user.Repository = (*userRepository)(nil)

func NewUserRepository(db *sqlx.DB) *userRepository {
	return &userRepository{db: db}
}

func (repo *userRepository) CheckEmailUniqueness(ctx context.Context, email string, excludedUsers []user.User, exec ...core.DBExecutor) error {
	excludedIDs := make([]string, 0, len(excludedUsers))
	for _, usr := range excludedUsers {
		excludedIDs = append(excludedIDs, usr.ID)
	}

	query := `SELECT EXISTS (SELECT 1 FROM users WHERE email = $1 AND id::text <> ALL($2))`
	var exists bool
	if err := sqlx.GetContext(ctx, getExec(repo.db, exec), &exists, query, email, stringArray(excludedIDs)); err != nil {
		return errors.Wrap(err, "checking email uniqueness")
	}
	if exists {
		return user.ErrEmailExists
	}
	return nil
}

func (repo *userRepository) CreateUser(ctx context.Context, usr user.User, exec ...core.DBExecutor) (user.User, error) {
	if usr.ID == "" {
		usr.ID = uuid.New().String()
	}
	query := `
INSERT INTO users (id, email, first_name, last_name, role, team_id, is_active, password_hash, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
RETURNING ` + userColumns
	var row userRow
	err := getExec(repo.db, exec).QueryRowxContext(ctx, query,
		usr.ID, usr.Email, usr.FirstName, usr.LastName, usr.Role, usr.TeamID,
		usr.IsActive, usr.PasswordHash, usr.CreatedAt, usr.UpdatedAt,
	).StructScan(&row)
	if err != nil {
		if isUniqueViolation(err) {
			return user.User{}, user.ErrEmailExists
		}
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	return row.unload(), nil
}

func (repo *userRepository) GetUserByID(ctx context.Context, id string, exec ...core.DBExecutor) (user.User, error) {
	var row userRow
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	if err := sqlx.GetContext(ctx, getExec(repo.db, exec), &row, query, id); err != nil {
		return user.User{}, trapNoRowsErr(err, user.ErrNotFound, "fetching user by id")
	}
	return row.unload(), nil
}

func (repo *userRepository) GetUserByEmail(ctx context.Context, email string, exec ...core.DBExecutor) (user.User, error) {
	var row userRow
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	if err := sqlx.GetContext(ctx, getExec(repo.db, exec), &row, query, email); err != nil {
		return user.User{}, trapNoRowsErr(err, user.ErrNotFound, "fetching user by email")
	}
	return row.unload(), nil
}

func (repo *userRepository) FilterUsers(ctx context.Context, filter user.QueryFilter, exec ...core.DBExecutor) ([]user.User, error) {
	filter.Clean()

	var (
		conds []string
		args  []interface{}
	)
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.Search != "" {
		p := arg("%" + filter.Search + "%")
		conds = append(conds, fmt.Sprintf("(first_name ILIKE %[1]s OR last_name ILIKE %[1]s OR email ILIKE %[1]s)", p))
	}
	if filter.Role != "" {
		conds = append(conds, "role = "+arg(filter.Role))
	}
	if filter.TeamID != nil {
		conds = append(conds, "team_id = "+arg(*filter.TeamID))
	}
	if filter.IsActive != nil {
		conds = append(conds, "is_active = "+arg(*filter.IsActive))
	}

	query := `SELECT ` + userColumns + ` FROM users`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY " + userOrderBy(filter.Ordering)

	var rows []userRow
	if err := sqlx.SelectContext(ctx, getExec(repo.db, exec), &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "filtering users")
	}
	users := make([]user.User, 0, len(rows))
	for _, row := range rows {
		users = append(users, row.unload())
	}
	return users, nil
}

// userOrderFields whitelists sortable columns; anything else is dropped.
var userOrderFields = map[string]bool{
	"email":      true,
	"first_name": true,
	"last_name":  true,
	"role":       true,
	"created_at": true,
	"last_login": true,
}

func userOrderBy(ordering []core.DBOrdering) string {
	var clauses []string
	for _, ord := range ordering {
		if userOrderFields[ord.Field] {
			clauses = append(clauses, ord.String())
		}
	}
	if len(clauses) == 0 {
		return "created_at DESC"
	}
	return strings.Join(clauses, ", ")
}

func (repo *userRepository) UpdateUser(ctx context.Context, usr user.User, isActive *bool, exec ...core.DBExecutor) (user.User, error) {
	sets := []string{"email = $2", "first_name = $3", "last_name = $4", "role = $5", "team_id = $6", "updated_at = $7"}
	args := []interface{}{usr.ID, usr.Email, usr.FirstName, usr.LastName, usr.Role, usr.TeamID, usr.UpdatedAt}

	if len(usr.PasswordHash) > 0 {
		args = append(args, usr.PasswordHash)
		sets = append(sets, fmt.Sprintf("password_hash = $%d", len(args)))
	}
	if isActive != nil {
		args = append(args, *isActive)
		sets = append(sets, fmt.Sprintf("is_active = $%d", len(args)))
	}

	query := `UPDATE users SET ` + strings.Join(sets, ", ") + ` WHERE id = $1 RETURNING ` + userColumns
	var row userRow
	if err := getExec(repo.db, exec).QueryRowxContext(ctx, query, args...).StructScan(&row); err != nil {
		if isUniqueViolation(err) {
			return user.User{}, user.ErrEmailExists
		}
		return user.User{}, trapNoRowsErr(err, user.ErrNotFound, "updating user")
	}
	return row.unload(), nil
}

func (repo *userRepository) SetLastLogin(ctx context.Context, usr user.User, exec ...core.DBExecutor) (user.User, error) {
	query := `UPDATE users SET last_login = $2 WHERE id = $1 RETURNING ` + userColumns
	var row userRow
	err := getExec(repo.db, exec).QueryRowxContext(ctx, query, usr.ID, time.Now().UTC()).StructScan(&row)
	if err != nil {
		return user.User{}, trapNoRowsErr(err, user.ErrNotFound, "setting last login")
	}
	return row.unload(), nil
}

func (repo *userRepository) DeleteUsersByID(ctx context.Context, ids []string, exec ...core.DBExecutor) error {
	query := `DELETE FROM users WHERE id::text = ANY($1)`
	if _, err := getExec(repo.db, exec).ExecContext(ctx, query, stringArray(ids)); err != nil {
		return errors.Wrap(err, "deleting users")
	}
	return nil
}
