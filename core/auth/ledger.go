package auth

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/upskillhq/upskill/core"
)

// ErrTokenNotFound is returned when no ledger entry exists for a token value.
var ErrTokenNotFound = errors.New("token not found")

type (
	// Token is a persisted ledger entry for an issued refresh or password
	// reset token. Entries are never deleted before their natural expiry;
	// revocation only flips the flag so the row remains for audit.
	Token struct {
		ID        string    `json:"id"`
		UserID    string    `json:"user"`
		Value     string    `json:"-"`
		Kind      string    `json:"kind"`
		Revoked   bool      `json:"revoked"`
		CreatedAt time.Time `json:"created_at"` // UTC
		ExpiresAt time.Time `json:"expires_at"` // UTC
	}

	Repository interface {
		RecordToken(ctx context.Context, tok Token, exec ...core.DBExecutor) (Token, error)
		GetToken(ctx context.Context, value, kind string, exec ...core.DBExecutor) (Token, error)
		// RevokeToken is idempotent: revoking an absent token is a no-op.
		RevokeToken(ctx context.Context, value, kind string, exec ...core.DBExecutor) error
		// RevokeUserTokens revokes all live tokens of one kind for a user.
		RevokeUserTokens(ctx context.Context, userID, kind string, exec ...core.DBExecutor) error
	}
)

// Ledger tracks issued tokens so otherwise stateless bearer tokens can be
// invalidated server-side before their natural expiry.
type Ledger struct {
	repo Repository
}

func NewLedger(repo Repository) *Ledger {
	return &Ledger{repo: repo}
}

func (l *Ledger) Record(ctx context.Context, userID, value, kind string, expiresAt time.Time) (Token, error) {
	tok := Token{
		UserID:    userID,
		Value:     value,
		Kind:      kind,
		CreatedAt: nowFunc().UTC(),
		ExpiresAt: expiresAt.UTC(),
	}
	return l.repo.RecordToken(ctx, tok)
}

// IsValid reports whether a non-revoked, non-expired entry exists for value.
func (l *Ledger) IsValid(ctx context.Context, value, kind string) (bool, error) {
	tok, err := l.repo.GetToken(ctx, value, kind)
	if err != nil {
		if errors.Cause(err) == ErrTokenNotFound {
			return false, nil
		}
		return false, err
	}
	if tok.Revoked {
		return false, nil
	}
	return nowFunc().UTC().Before(tok.ExpiresAt), nil
}

func (l *Ledger) Revoke(ctx context.Context, value, kind string) error {
	return l.repo.RevokeToken(ctx, value, kind)
}

func (l *Ledger) RevokeAllForUser(ctx context.Context, userID, kind string) error {
	return l.repo.RevokeUserTokens(ctx, userID, kind)
}
