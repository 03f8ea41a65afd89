package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"net/mail"

	"github.com/pkg/errors"

	"github.com/upskillhq/upskill/core"
	"github.com/upskillhq/upskill/core/user"
)

var (
	// Login and Refresh deliberately collapse their internal failure causes
	// into one externally visible error each, so callers cannot probe which
	// accounts exist or which token check failed.
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountDisabled    = errors.New("account is disabled")
	ErrMissingToken       = errors.New("refresh token is required")
	ErrInvalidToken       = errors.New("invalid or expired refresh token")
)

type (
	// Session carries the tokens issued on a successful login. There is no
	// persisted session object; state lives in the tokens plus the ledger.
	Session struct {
		Access  string          `json:"access"`
		Refresh string          `json:"refresh"`
		User    user.PublicUser `json:"user"`
	}

	Service struct {
		conf   core.AuthConfig
		codec  *Codec
		ledger *Ledger
		users  user.Repository
		mail   core.EmailService

		frontendBaseURL string
	}
)

func NewService(conf *core.Config, codec *Codec, ledger *Ledger, users user.Repository, mailSvc core.EmailService) *Service {
	return &Service{
		conf:            conf.Auth,
		codec:           codec,
		ledger:          ledger,
		users:           users,
		mail:            mailSvc,
		frontendBaseURL: conf.FrontendBaseURL,
	}
}

// Login authenticates the email/password pair and, on success, issues one
// access token and one ledger-recorded refresh token.
func (svc *Service) Login(ctx context.Context, email, password string) (Session, error) {
	usr, err := svc.users.GetUserByEmail(ctx, core.CleanString(email, true /* lower */))
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return Session{}, ErrInvalidCredentials
		}
		return Session{}, errors.Wrap(err, "finding user by email")
	}
	if err = usr.CheckPassword(password); err != nil {
		return Session{}, ErrInvalidCredentials
	}
	if !usr.IsActive {
		return Session{}, ErrAccountDisabled
	}

	usr, err = svc.users.SetLastLogin(ctx, usr)
	if err != nil {
		return Session{}, errors.Wrap(err, "setting lastLogin")
	}

	access, err := svc.codec.Issue(KindAccess, usr.ID, usr.Role, svc.conf.AccessTokenTTL)
	if err != nil {
		return Session{}, errors.Wrap(err, "issuing access token")
	}
	refresh, err := svc.codec.Issue(KindRefresh, usr.ID, "", svc.conf.RefreshTokenTTL)
	if err != nil {
		return Session{}, errors.Wrap(err, "issuing refresh token")
	}
	if _, err = svc.ledger.Record(ctx, usr.ID, refresh, KindRefresh, nowFunc().Add(svc.conf.RefreshTokenTTL)); err != nil {
		return Session{}, errors.Wrap(err, "recording refresh token")
	}

	return Session{Access: access, Refresh: refresh, User: usr.Public()}, nil
}

// Refresh validates the refresh token against both its signature and the
// ledger, then issues a new access token. The refresh token itself is not
// rotated: it stays valid until its own expiry or an explicit logout.
// Known weaker-than-best-practice behavior, kept on purpose.
func (svc *Service) Refresh(ctx context.Context, refreshToken string) (string, error) {
	if refreshToken == "" {
		return "", ErrMissingToken
	}

	claims, err := svc.codec.Verify(refreshToken, KindRefresh)
	if err != nil {
		return "", ErrInvalidToken
	}
	ok, err := svc.ledger.IsValid(ctx, refreshToken, KindRefresh)
	if err != nil {
		return "", errors.Wrap(err, "checking token ledger")
	}
	if !ok {
		return "", ErrInvalidToken
	}

	usr, err := svc.users.GetUserByID(ctx, claims.Subject)
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return "", ErrInvalidToken
		}
		return "", errors.Wrap(err, "finding user by ID")
	}
	if !usr.IsActive {
		return "", ErrInvalidToken
	}

	access, err := svc.codec.Issue(KindAccess, usr.ID, usr.Role, svc.conf.AccessTokenTTL)
	return access, errors.Wrap(err, "issuing access token")
}

// Logout revokes the refresh token if it is present in the ledger. It always
// succeeds; logging out with an unknown or already-revoked token is a no-op.
func (svc *Service) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	return errors.Wrap(svc.ledger.Revoke(ctx, refreshToken, KindRefresh), "revoking refresh token")
}

// Authenticate resolves a verified access token into its active user.
func (svc *Service) Authenticate(ctx context.Context, accessToken string) (user.User, error) {
	claims, err := svc.codec.Verify(accessToken, KindAccess)
	if err != nil {
		return user.User{}, err
	}
	usr, err := svc.users.GetUserByID(ctx, claims.Subject)
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return user.User{}, ErrInvalidToken
		}
		return user.User{}, errors.Wrap(err, "finding user by ID")
	}
	if !usr.IsActive {
		return user.User{}, ErrInvalidToken
	}
	return usr, nil
}

// RequestPasswordReset invalidates any pending reset tokens for the account
// and emails a fresh single-use one. Mirrors the refresh-token ledger.
func (svc *Service) RequestPasswordReset(ctx context.Context, email string) error {
	usr, err := svc.users.GetUserByEmail(ctx, core.CleanString(email, true /* lower */))
	if err != nil {
		return errors.Wrap(err, "finding user by email")
	}
	if !usr.IsActive {
		return user.ErrNotFound
	}

	if err = svc.ledger.RevokeAllForUser(ctx, usr.ID, KindPasswordReset); err != nil {
		return errors.Wrap(err, "revoking pending reset tokens")
	}

	value, err := opaqueToken()
	if err != nil {
		return errors.Wrap(err, "generating reset token")
	}
	if _, err = svc.ledger.Record(ctx, usr.ID, value, KindPasswordReset, nowFunc().Add(svc.conf.PasswordResetTimeout)); err != nil {
		return errors.Wrap(err, "recording reset token")
	}

	svc.mail.SendMessages(&core.EmailMessage{
		To:      []mail.Address{{Name: usr.FullName(), Address: usr.Email}},
		Subject: "Password Reset",
		Body: fmt.Sprintf(
			"Hi %s,\n\nFollow this link to reset your password:\n%s/password-reset/%s\n\n"+
				"If you did not request a reset, you can safely ignore this email.",
			usr.FirstName, svc.frontendBaseURL, value,
		),
	})
	return nil
}

// ConfirmPasswordReset consumes a reset token and sets the new password.
func (svc *Service) ConfirmPasswordReset(ctx context.Context, rp user.ResetUserPassword) error {
	ok, err := svc.ledger.IsValid(ctx, rp.Token, KindPasswordReset)
	if err != nil {
		return errors.Wrap(err, "checking token ledger")
	}
	if !ok {
		return core.NewValidationError(nil, core.FieldError{Field: "token", Error: "invalid or expired token"})
	}
	tok, err := svc.ledger.repo.GetToken(ctx, rp.Token, KindPasswordReset)
	if err != nil {
		return errors.Wrap(err, "fetching reset token")
	}

	usr, err := svc.users.GetUserByID(ctx, tok.UserID)
	if err != nil {
		return errors.Wrap(err, "finding user by ID")
	}
	if err = usr.SetPassword(rp.Password); err != nil {
		return errors.Wrap(err, "hashing password")
	}
	if _, err = svc.users.UpdateUser(ctx, usr, nil); err != nil {
		return errors.Wrap(err, "updating password")
	}

	// single-use
	return errors.Wrap(svc.ledger.Revoke(ctx, rp.Token, KindPasswordReset), "revoking reset token")
}

func opaqueToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
