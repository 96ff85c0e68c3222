package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/vidyasetu/vidyasetu/core/notice"
	"github.com/vidyasetu/vidyasetu/core/user"
)

type adminApi struct {
	users   *user.Service
	notices *notice.Service
}

func registerAdminAPI(g *echo.Group, deps *Deps) {
	api := adminApi{users: deps.UserSvc, notices: deps.NoticeSvc}

	// teachers
	g.POST("/create-teacher", api.createTeacher)
	g.GET("/teachers", api.queryTeachers)
	g.GET("/teacher/:id", api.retrieveTeacher)
	g.PUT("/teacher/update/:id", api.updateTeacher)
	g.DELETE("/teacher/delete/:id", api.destroyTeacher)
	g.PUT("/profile/update", api.updateProfile)

	// platform broadcasts
	g.POST("/broadcast", api.createBroadcast)
	g.GET("/notices", api.queryBroadcasts)
	g.DELETE("/broadcast/:id", api.destroyBroadcast)
}

// Handlers

func (api *adminApi) createTeacher(ctx echo.Context) error {
	var data user.NewTeacher
	if err := bindBody(ctx, &data, "NewTeacher"); err != nil {
		return err
	}
	t, err := api.users.CreateTeacher(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating teacher")
	}
	return ctx.JSON(http.StatusCreated, t)
}

func (api *adminApi) queryTeachers(ctx echo.Context) error {
	ordering := new(Ordering)
	ordering.Bind(ctx)

	teachers, err := api.users.QueryTeachers(ctx.Request().Context(), ctx.QueryParam("search"), ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying teachers")
	}
	if teachers == nil {
		teachers = []user.User{}
	}
	return ctx.JSON(http.StatusOK, teachers)
}

func (api *adminApi) retrieveTeacher(ctx echo.Context) error {
	t, err := api.users.GetTeacher(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting teacher")
	}
	return ctx.JSON(http.StatusOK, t)
}

func (api *adminApi) updateTeacher(ctx echo.Context) error {
	var data user.UpdateUser
	if err := bindBody(ctx, &data, "UpdateUser"); err != nil {
		return err
	}
	t, err := api.users.UpdateTeacher(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating teacher")
	}
	return ctx.JSON(http.StatusOK, t)
}

func (api *adminApi) destroyTeacher(ctx echo.Context) error {
	if err := api.users.DeleteTeacher(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting teacher")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *adminApi) updateProfile(ctx echo.Context) error {
	id, err := ctxIdentity(ctx)
	if err != nil {
		return err
	}
	var data user.UpdateUser
	if err = bindBody(ctx, &data, "UpdateUser"); err != nil {
		return err
	}
	profile, err := api.users.Update(ctx.Request().Context(), id.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating profile")
	}
	return ctx.JSON(http.StatusOK, profile)
}

func (api *adminApi) createBroadcast(ctx echo.Context) error {
	id, err := ctxIdentity(ctx)
	if err != nil {
		return err
	}
	var data notice.NewBroadcast
	if err = bindBody(ctx, &data, "NewBroadcast"); err != nil {
		return err
	}
	n, err := api.notices.CreateBroadcast(ctx.Request().Context(), id, data)
	if err != nil {
		return errors.Wrap(err, "creating broadcast")
	}
	return ctx.JSON(http.StatusCreated, n)
}

func (api *adminApi) queryBroadcasts(ctx echo.Context) error {
	id, err := ctxIdentity(ctx)
	if err != nil {
		return err
	}
	notices, err := api.notices.AllBroadcasts(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "querying broadcasts")
	}
	return ctx.JSON(http.StatusOK, notices)
}

func (api *adminApi) destroyBroadcast(ctx echo.Context) error {
	id, err := ctxIdentity(ctx)
	if err != nil {
		return err
	}
	if err = api.notices.Delete(ctx.Request().Context(), id, ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting broadcast")
	}
	return ctx.NoContent(http.StatusNoContent)
}
