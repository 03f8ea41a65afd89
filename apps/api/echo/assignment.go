package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/upskillhq/upskill/core/assignment"
	"github.com/upskillhq/upskill/core/team"
)

type assignmentApi struct {
	svc      *assignment.Service
	teams    *team.Service
	validate *validator.Validate
}

func registerAssignmentAPI(g *echo.Group, authed echo.MiddlewareFunc, opts *Options) {
	api := assignmentApi{
		svc:      opts.AssignmentSvc,
		teams:    opts.TeamSvc,
		validate: opts.Validate,
	}

	ag := g.Group("/assignments", authed)

	ag.POST("", api.assign)
	ag.GET("", api.queryMine)
	ag.GET("/team/:teamID", api.queryTeam)
	ag.GET("/:id", api.retrieve)
	ag.PATCH("/:id/progress", api.updateProgress)
	ag.GET("/:id/history", api.history)
}

func (api *assignmentApi) assign(ctx echo.Context) error {
	var data assignment.NewAssignment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAssignment")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	ctxUsr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	a, err := api.svc.Assign(ctx.Request().Context(), ctxUsr, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, a)
}

func (api *assignmentApi) queryMine(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	assignments, err := api.svc.QueryMine(ctx.Request().Context(), ctxUsr)
	if err != nil {
		return errors.Wrap(err, "querying assignments")
	}
	if assignments == nil {
		assignments = []assignment.Assignment{}
	}
	return ctx.JSON(http.StatusOK, assignments)
}

// queryTeam lists the assignments of every member of a team.
func (api *assignmentApi) queryTeam(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx)
	if err != nil {
		return err
	}

	memberIDs, err := api.teams.MemberIDs(ctx.Request().Context(), ctx.Param("teamID"))
	if err != nil {
		return err
	}
	assignments, err := api.svc.QueryForUsers(ctx.Request().Context(), ctxUsr, memberIDs)
	if err != nil {
		return err
	}
	if assignments == nil {
		assignments = []assignment.Assignment{}
	}
	return ctx.JSON(http.StatusOK, assignments)
}

func (api *assignmentApi) retrieve(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	a, err := api.svc.Get(ctx.Request().Context(), ctxUsr, ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, a)
}

func (api *assignmentApi) updateProgress(ctx echo.Context) error {
	var data assignment.UpdateProgress
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateProgress")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	ctxUsr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	a, err := api.svc.UpdateProgress(ctx.Request().Context(), ctxUsr, ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, a)
}

func (api *assignmentApi) history(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	events, err := api.svc.ProgressHistory(ctx.Request().Context(), ctxUsr, ctx.Param("id"))
	if err != nil {
		return err
	}
	if events == nil {
		events = []assignment.ProgressEvent{}
	}
	return ctx.JSON(http.StatusOK, events)
}
