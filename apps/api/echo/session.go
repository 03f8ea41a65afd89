package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/upskillhq/upskill/core"
	"github.com/upskillhq/upskill/core/auth"
	"github.com/upskillhq/upskill/core/user"
)

type sessionApi struct {
	svc      *auth.Service
	validate *validator.Validate
}

func registerAuthAPI(g *echo.Group, authed echo.MiddlewareFunc, opts *Options) {
	api := sessionApi{
		svc:      opts.AuthSvc,
		validate: opts.Validate,
	}

	ag := g.Group("/auth")

	// un-authed endpoints
	// TODO: rate limit `/password-reset` & `/password-reset-confirm`
	ag.POST("/login", api.login)
	ag.POST("/refresh", api.refresh)
	ag.POST("/logout", api.logout)
	ag.POST("/password-reset", api.resetPassword)
	ag.POST("/password-reset-confirm", api.confirmPasswordReset)

	// authed endpoints
	ag.GET("/me", api.me, authed)
}

func (api *sessionApi) login(ctx echo.Context) error {
	var data LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	sess, err := api.svc.Login(ctx.Request().Context(), data.Email, data.Password)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, sess)
}

func (api *sessionApi) refresh(ctx echo.Context) error {
	var data RefreshRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to RefreshRequest")
	}

	access, err := api.svc.Refresh(ctx.Request().Context(), data.Refresh)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, AccessResponse{Access: access})
}

func (api *sessionApi) logout(ctx echo.Context) error {
	var data RefreshRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to RefreshRequest")
	}

	if err := api.svc.Logout(ctx.Request().Context(), data.Refresh); err != nil {
		return errors.Wrap(err, "logging out")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *sessionApi) resetPassword(ctx echo.Context) error {
	var data PasswordResetRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to PasswordResetRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	if err := api.svc.RequestPasswordReset(ctx.Request().Context(), data.Email); !(err == nil || errors.Cause(err) == user.ErrNotFound) {
		// do not return errors to attackers
		ctx.Logger().Errorf("%+v", errors.Wrap(err, "requesting password reset"))
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{
		Success: "If the email address supplied is associated with an active account on this system, " +
			"an email will arrive in your inbox shortly with instructions to reset your password.",
	})
}

func (api *sessionApi) confirmPasswordReset(ctx echo.Context) error {
	var data user.ResetUserPassword
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ResetUserPassword")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	if err := api.svc.ConfirmPasswordReset(ctx.Request().Context(), data); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: "Password has been reset with the new password."})
}

func (api *sessionApi) me(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, usr)
}

type (
	LoginRequest struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}

	RefreshRequest struct {
		Refresh string `json:"refresh"`
	}

	AccessResponse struct {
		Access string `json:"access"`
	}

	PasswordResetRequest struct {
		Email string `json:"email" validate:"required,email"`
	}

	SuccessResponse struct {
		Success string `json:"success"`
	}
)

func (lr *LoginRequest) Validate(validate *validator.Validate) error {
	lr.Email = core.CleanString(lr.Email, true /* lower */)
	return validate.Struct(lr)
}

func (pr *PasswordResetRequest) Validate(validate *validator.Validate) error {
	pr.Email = core.CleanString(pr.Email, true /* lower */)
	return validate.Struct(pr)
}
