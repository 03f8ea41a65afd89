package echoapi

import (
	"net/http"
	"sort"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/upskillhq/upskill/core/user"
)

var errUsrNotFoundInCtx = errors.New("user object not found in echo.Context")

type userApi struct {
	svc      *user.Service
	validate *validator.Validate
}

func registerUserAPI(g *echo.Group, authed echo.MiddlewareFunc, opts *Options) {
	api := userApi{
		svc:      opts.UserSvc,
		validate: opts.Validate,
	}

	ug := g.Group("/users", authed)

	ug.POST("", api.create, managerMiddleware())
	ug.GET("", api.query, managerMiddleware())
	ug.DELETE("", api.destroyMultiple, adminMiddleware())
	ug.GET("/roles", api.queryRoles, managerMiddleware())

	// detail endpoints
	dg := ug.Group("/:id", ctxUserOrManagerMiddleware(api.svc))
	dg.GET("", api.retrieve)
	dg.PUT("", api.update)
	dg.DELETE("", api.destroy, adminMiddleware())
}

// Handlers

func (api *userApi) create(ctx echo.Context) error {
	var data user.NewUser
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewUser")
	}

	// only admins may mint other admins
	ctxUsr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	if data.Role == user.RoleAdmin && !ctxUsr.IsAdmin() {
		return errHttpForbidden
	}

	if err := data.Validate(api.validate, api.svc); err != nil {
		return err
	}

	usr, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating user")
	}
	return ctx.JSON(http.StatusCreated, usr)
}

func (api *userApi) query(ctx echo.Context) error {
	filter := new(user.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []user.User{})
	}
	filter.Clean()
	ordering := new(Ordering)
	ordering.Bind(ctx)
	filter.Ordering = ordering.Orderings

	users, err := api.svc.Filter(ctx.Request().Context(), *filter)
	if err != nil {
		return errors.Wrap(err, "querying users")
	}
	if users == nil {
		users = []user.User{}
	}
	return ctx.JSON(http.StatusOK, users)
}

func (api *userApi) retrieve(ctx echo.Context) error {
	usr, ok := ctx.Get("object").(user.User)
	if !ok {
		return errors.Wrap(errUsrNotFoundInCtx, "retrieving object from context")
	}
	return ctx.JSON(http.StatusOK, usr)
}

func (api *userApi) update(ctx echo.Context) error {
	usr, ok := ctx.Get("object").(user.User)
	if !ok {
		return errors.Wrap(errUsrNotFoundInCtx, "retrieving object from context")
	}

	var data user.UpdateUser
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateUser")
	}

	ctxUsr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	if !ctxUsr.IsAdmin() {
		// `IsActive`, `Role` and `TeamID` can only be changed by admin
		if data.IsActive != nil || data.Role != "" || data.TeamID != nil {
			return errHttpForbidden
		}
	}

	if err := data.Validate(usr, api.validate, api.svc); err != nil {
		return err
	}
	if data.Role == "" {
		data.Role = usr.Role
	}
	if data.TeamID == nil {
		data.TeamID = usr.TeamID
	}

	usr, err = api.svc.Update(ctx.Request().Context(), usr.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating user")
	}
	return ctx.JSON(http.StatusOK, usr)
}

func (api *userApi) destroy(ctx echo.Context) error {
	usr, ok := ctx.Get("object").(user.User)
	if !ok {
		return errors.Wrap(errUsrNotFoundInCtx, "retrieving object from context")
	}

	// Say No to Suicide! ctxUser cannot delete themselves
	ctxUsr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	if usr.ID == ctxUsr.ID {
		return errHttpForbidden
	}

	if err := api.svc.Delete(ctx.Request().Context(), usr.ID); err != nil {
		return errors.Wrap(err, "deleting user")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *userApi) destroyMultiple(ctx echo.Context) error {
	var query DestroyMultipleRequest
	if err := ctx.Bind(&query); err != nil {
		return errors.Wrap(err, "binding to DestroyMultipleRequest")
	}
	if query.IDs == nil {
		return ctx.NoContent(http.StatusNoContent)
	}

	// Say No to Suicide! ctxUser cannot delete themselves
	ctxUsr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	sort.Strings(query.IDs)
	if i := sort.SearchStrings(query.IDs, ctxUsr.ID); i < len(query.IDs) {
		if match := query.IDs[i]; ctxUsr.ID == match {
			return errHttpForbidden
		}
	}

	if err := api.svc.Delete(ctx.Request().Context(), query.IDs...); err != nil {
		return errors.Wrap(err, "deleting users")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *userApi) queryRoles(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, user.Roles)
}

// Middleware

func adminMiddleware() echo.MiddlewareFunc {
	return capabilityMiddleware(user.CapAdminOnly)
}

func managerMiddleware() echo.MiddlewareFunc {
	return capabilityMiddleware(user.CapManageUsers)
}

func capabilityMiddleware(capability user.Capability) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			ctxUsr, err := getContextUser(ctx)
			if err != nil {
				return err
			}
			if !user.Allowed(ctxUsr, capability) {
				return errHttpForbidden
			}
			return next(ctx)
		}
	}
}

// ctxUserOrManagerMiddleware loads the target user onto the context when the
// caller is the user themselves or holds a manager-level role. Everyone else
// gets a 404, not a 403, to avoid confirming the account exists.
func ctxUserOrManagerMiddleware(svc *user.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			ctxUsr, err := getContextUser(ctx)
			if err != nil {
				return err
			}

			if ctx.Param("id") == ctxUsr.ID || user.Allowed(ctxUsr, user.CapManageUsers) {
				if usr, err := svc.GetByID(ctx.Request().Context(), ctx.Param("id")); err == nil {
					ctx.Set("object", usr)
					return next(ctx)
				} else if errors.Cause(err) != user.ErrNotFound {
					return errors.Wrap(err, "finding user by ID")
				}
			}
			return errHttpNotFound
		}
	}
}

type DestroyMultipleRequest struct {
	IDs []string `query:"id"`
}
