package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/upskillhq/upskill/core/course"
)

type courseApi struct {
	svc      *course.Service
	validate *validator.Validate
}

func registerCourseAPI(g *echo.Group, authed echo.MiddlewareFunc, opts *Options) {
	api := courseApi{
		svc:      opts.CourseSvc,
		validate: opts.Validate,
	}

	cg := g.Group("/courses", authed)

	cg.POST("", api.create)
	cg.GET("", api.query)
	cg.GET("/:id", api.retrieve)
	cg.PUT("/:id", api.update)
	cg.DELETE("/:id", api.destroy)

	// lifecycle
	cg.POST("/:id/publish", api.publish)
	cg.POST("/:id/reject", api.reject)
	cg.POST("/:id/unpublish", api.unpublish)

	g.GET("/approvals", api.queryApprovals, authed)
}

func (api *courseApi) create(ctx echo.Context) error {
	var data course.NewCourse
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewCourse")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	ctxUsr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	crs, err := api.svc.Create(ctx.Request().Context(), ctxUsr, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, crs)
}

func (api *courseApi) query(ctx echo.Context) error {
	filter := new(course.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []course.Course{})
	}

	ctxUsr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	courses, err := api.svc.Query(ctx.Request().Context(), ctxUsr, *filter)
	if err != nil {
		return errors.Wrap(err, "querying courses")
	}
	if courses == nil {
		courses = []course.Course{}
	}
	return ctx.JSON(http.StatusOK, courses)
}

func (api *courseApi) retrieve(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	crs, err := api.svc.Get(ctx.Request().Context(), ctxUsr, ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, crs)
}

func (api *courseApi) update(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	crs, err := api.svc.Get(ctx.Request().Context(), ctxUsr, ctx.Param("id"))
	if err != nil {
		return err
	}

	var data course.UpdateCourse
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateCourse")
	}
	if err := data.Validate(crs, api.validate); err != nil {
		return err
	}

	crs, err = api.svc.Update(ctx.Request().Context(), ctxUsr, crs.ID, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, crs)
}

func (api *courseApi) destroy(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	if err := api.svc.Delete(ctx.Request().Context(), ctxUsr, ctx.Param("id")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *courseApi) publish(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	crs, err := api.svc.Publish(ctx.Request().Context(), ctxUsr, ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, crs)
}

func (api *courseApi) reject(ctx echo.Context) error {
	var data course.RejectCourse
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to RejectCourse")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	ctxUsr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	crs, err := api.svc.Reject(ctx.Request().Context(), ctxUsr, ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, crs)
}

func (api *courseApi) unpublish(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	crs, err := api.svc.Unpublish(ctx.Request().Context(), ctxUsr, ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, crs)
}

func (api *courseApi) queryApprovals(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	approvals, err := api.svc.QueryApprovals(ctx.Request().Context(), ctxUsr, ctx.QueryParam("status"))
	if err != nil {
		return err
	}
	if approvals == nil {
		approvals = []course.Approval{}
	}
	return ctx.JSON(http.StatusOK, approvals)
}
