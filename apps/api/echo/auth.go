package echoapi

import (
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/upskillhq/upskill/core/auth"
	"github.com/upskillhq/upskill/core/user"
)

var contextUserKey = "user"

// authMiddleware resolves the Authorization bearer token into the active user
// and stores it on the request context. Token and account failures all
// surface as 401.
func authMiddleware(svc *auth.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			token := extractBearerToken(ctx)
			if token == "" {
				return errUnauthorized
			}
			usr, err := svc.Authenticate(ctx.Request().Context(), token)
			if err != nil {
				switch errors.Cause(err) {
				case auth.ErrTokenMalformed, auth.ErrTokenExpired, auth.ErrWrongTokenKind,
					auth.ErrBadSignature, auth.ErrInvalidToken:
					return errUnauthorized
				}
				return errors.Wrap(err, "authenticating request")
			}
			ctx.Set(contextUserKey, usr)
			return next(ctx)
		}
	}
}

func extractBearerToken(ctx echo.Context) string {
	header := ctx.Request().Header.Get(echo.HeaderAuthorization)
	const prefix = "Bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return header[len(prefix):]
	}
	return ""
}

func getContextUser(ctx echo.Context) (user.User, error) {
	if usr, ok := ctx.Get(contextUserKey).(user.User); ok {
		return usr, nil
	}
	return user.User{}, errUnauthorized
}
