package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/upskillhq/upskill/core"
	"github.com/upskillhq/upskill/core/assignment"
	"github.com/upskillhq/upskill/core/auth"
	"github.com/upskillhq/upskill/core/course"
	"github.com/upskillhq/upskill/core/team"
	"github.com/upskillhq/upskill/core/user"
)

var (
	errUnauthorized       = echo.NewHTTPError(http.StatusUnauthorized, "user not authenticated")
	errAccountDeactivated = echo.NewHTTPError(http.StatusForbidden, "account deactivated")
	errHttpForbidden      = echo.NewHTTPError(http.StatusForbidden, "permission denied")
	errHttpNotFound       = echo.NewHTTPError(http.StatusNotFound, "not found")
)

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how
// to handle our errors. signalShutdown is called in order to gracefully
// shutdown the Server whenever a core shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, translator ut.Translator, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var code int
		var message interface{}

		switch origErr := errors.Cause(err).(type) {
		case *echo.HTTPError:
			if origErr.Internal != nil {
				if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
					origErr = herr
				}
			}
			code = origErr.Code
			message = origErr.Message
		case validator.ValidationErrors:
			fldErrs := make(map[string]string, len(origErr))
			for _, vErr := range origErr {
				fldErrs[vErr.Field()] = vErr.Translate(translator)
			}
			code = http.StatusBadRequest
			message = fldErrs
		case *core.ValidationError:
			if origErr.Fields != nil {
				fldErrs := make(map[string]string, len(origErr.Fields))
				for _, fErr := range origErr.Fields {
					fldErrs[fErr.Field] = fErr.Error
				}
				message = fldErrs
			} else {
				message = origErr.Error()
			}
			code = http.StatusBadRequest
		default:
			code, message = mapDomainError(origErr)
			if code == http.StatusInternalServerError {
				msg := http.StatusText(http.StatusInternalServerError)
				message = msg

				var usr user.User
				if ctxUsr, ok := ctx.Get(contextUserKey).(user.User); ok {
					usr = ctxUsr
				}
				logger.Error(msg, errors.Wrap(err, msg), usr)

				// shutting down...
				if core.IsShutdown(err) && signalShutdown != nil {
					signalShutdown()
				}
			}
		}

		if ctx.Echo().Debug && code == http.StatusInternalServerError {
			message = err.Error()
		} else if m, ok := message.(string); ok {
			message = echo.Map{"error": m}
		}

		// Send response
		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead { // Issue #608
				err = ctx.NoContent(code)
			} else {
				err = ctx.JSON(code, message)
			}
			if err != nil {
				ctx.Echo().Logger.Error(err)
			}
		}
	}
}

// mapDomainError translates service sentinel errors to HTTP statuses.
func mapDomainError(err error) (int, interface{}) {
	switch err {
	case core.ErrPermissionDenied:
		return http.StatusForbidden, err.Error()
	case user.ErrNotFound, course.ErrNotFound, course.ErrApprovalNotFound,
		assignment.ErrNotFound, team.ErrNotFound, auth.ErrTokenNotFound:
		return http.StatusNotFound, err.Error()
	case auth.ErrInvalidCredentials, auth.ErrMissingToken, auth.ErrInvalidToken:
		return http.StatusUnauthorized, err.Error()
	case auth.ErrAccountDisabled:
		return http.StatusForbidden, err.Error()
	}
	return http.StatusInternalServerError, nil
}
