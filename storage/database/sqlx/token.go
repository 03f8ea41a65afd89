package sqlxrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/upskillhq/upskill/core"
	"github.com/upskillhq/upskill/core/auth"
)

const tokenColumns = `id, user_id, value, kind, revoked, created_at, expires_at`

type tokenRow struct {
	ID        string    `db:"id"`
	UserID    string    `db:"user_id"`
	Value     string    `db:"value"`
	Kind      string    `db:"kind"`
	Revoked   bool      `db:"revoked"`
	CreatedAt time.Time `db:"created_at"`
	ExpiresAt time.Time `db:"expires_at"`
}

func (r tokenRow) unload() auth.Token {
	return auth.Token{
		ID:        r.ID,
		UserID:    r.UserID,
		Value:     r.Value,
		Kind:      r.Kind,
		Revoked:   r.Revoked,
		CreatedAt: r.CreatedAt,
		ExpiresAt: r.ExpiresAt,
	}
}

type tokenRepository struct {
	db *sqlx.DB
}

var _ auth.Repository = (*tokenRepository)(nil)

func NewTokenRepository(db *sqlx.DB) *tokenRepository {
	return &tokenRepository{db: db}
}

func (repo *tokenRepository) RecordToken(ctx context.Context, tok auth.Token, exec ...core.DBExecutor) (auth.Token, error) {
	if tok.ID == "" {
		tok.ID = uuid.New().String()
	}
	query := `
INSERT INTO auth_tokens (id, user_id, value, kind, revoked, created_at, expires_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING ` + tokenColumns
	var row tokenRow
	err := getExec(repo.db, exec).QueryRowxContext(ctx, query,
		tok.ID, tok.UserID, tok.Value, tok.Kind, tok.Revoked, tok.CreatedAt, tok.ExpiresAt,
	).StructScan(&row)
	if err != nil {
		return auth.Token{}, errors.Wrap(err, "inserting token")
	}
	return row.unload(), nil
}

func (repo *tokenRepository) GetToken(ctx context.Context, value, kind string, exec ...core.DBExecutor) (auth.Token, error) {
	var row tokenRow
	query := `SELECT ` + tokenColumns + ` FROM auth_tokens WHERE value = $1 AND kind = $2`
	if err := sqlx.GetContext(ctx, getExec(repo.db, exec), &row, query, value, kind); err != nil {
		return auth.Token{}, trapNoRowsErr(err, auth.ErrTokenNotFound, "fetching token")
	}
	return row.unload(), nil
}

// RevokeToken flips the flag and keeps the row; revoking an unknown token is
// a no-op.
func (repo *tokenRepository) RevokeToken(ctx context.Context, value, kind string, exec ...core.DBExecutor) error {
	query := `UPDATE auth_tokens SET revoked = true WHERE value = $1 AND kind = $2`
	if _, err := getExec(repo.db, exec).ExecContext(ctx, query, value, kind); err != nil {
		return errors.Wrap(err, "revoking token")
	}
	return nil
}

func (repo *tokenRepository) RevokeUserTokens(ctx context.Context, userID, kind string, exec ...core.DBExecutor) error {
	query := `UPDATE auth_tokens SET revoked = true WHERE user_id = $1 AND kind = $2 AND NOT revoked`
	if _, err := getExec(repo.db, exec).ExecContext(ctx, query, userID, kind); err != nil {
		return errors.Wrap(err, "revoking user tokens")
	}
	return nil
}
