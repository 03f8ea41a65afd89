package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/upskillhq/upskill/core/team"
)

type teamApi struct {
	svc      *team.Service
	validate *validator.Validate
}

func registerTeamAPI(g *echo.Group, authed echo.MiddlewareFunc, opts *Options) {
	api := teamApi{
		svc:      opts.TeamSvc,
		validate: opts.Validate,
	}

	tg := g.Group("/teams", authed)

	tg.POST("", api.create)
	tg.GET("", api.query)
	tg.GET("/:id", api.retrieve)
	tg.PUT("/:id", api.update)
	tg.DELETE("/:id", api.destroy)
	tg.GET("/:id/members", api.members)
}

func (api *teamApi) create(ctx echo.Context) error {
	var data team.NewTeam
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewTeam")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	ctxUsr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	t, err := api.svc.Create(ctx.Request().Context(), ctxUsr, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, t)
}

func (api *teamApi) query(ctx echo.Context) error {
	teams, err := api.svc.QueryAll(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying teams")
	}
	if teams == nil {
		teams = []team.Team{}
	}
	return ctx.JSON(http.StatusOK, teams)
}

func (api *teamApi) retrieve(ctx echo.Context) error {
	t, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, t)
}

func (api *teamApi) update(ctx echo.Context) error {
	t, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}

	var data team.UpdateTeam
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateTeam")
	}
	if err := data.Validate(t, api.validate); err != nil {
		return err
	}

	ctxUsr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	t, err = api.svc.Update(ctx.Request().Context(), ctxUsr, t.ID, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, t)
}

func (api *teamApi) destroy(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	if err := api.svc.Delete(ctx.Request().Context(), ctxUsr, ctx.Param("id")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *teamApi) members(ctx echo.Context) error {
	ids, err := api.svc.MemberIDs(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	if ids == nil {
		ids = []string{}
	}
	return ctx.JSON(http.StatusOK, ids)
}
