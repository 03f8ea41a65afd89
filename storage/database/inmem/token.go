package inmemdb

import (
	"context"

	"github.com/google/uuid"

	"github.com/upskillhq/upskill/core"
	"github.com/upskillhq/upskill/core/auth"
)

type tokenRepository struct {
	db *DB
}

var _ auth.Repository = (*tokenRepository)(nil)

func NewTokenRepository(db *DB) *tokenRepository {
	return &tokenRepository{db: db}
}

func tokenKey(kind, value string) string {
	return kind + ":" + value
}

func (repo *tokenRepository) RecordToken(ctx context.Context, tok auth.Token, exec ...core.DBExecutor) (auth.Token, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if tok.ID == "" {
		tok.ID = uuid.New().String()
	}
	repo.db.tokens[tokenKey(tok.Kind, tok.Value)] = &tok
	return tok, nil
}

func (repo *tokenRepository) GetToken(ctx context.Context, value, kind string, exec ...core.DBExecutor) (auth.Token, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if tok, ok := repo.db.tokens[tokenKey(kind, value)]; ok {
		return *tok, nil
	}
	return auth.Token{}, auth.ErrTokenNotFound
}

func (repo *tokenRepository) RevokeToken(ctx context.Context, value, kind string, exec ...core.DBExecutor) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if tok, ok := repo.db.tokens[tokenKey(kind, value)]; ok {
		tok.Revoked = true
	}
	return nil
}

func (repo *tokenRepository) RevokeUserTokens(ctx context.Context, userID, kind string, exec ...core.DBExecutor) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, tok := range repo.db.tokens {
		if tok.UserID == userID && tok.Kind == kind {
			tok.Revoked = true
		}
	}
	return nil
}
