package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/vidyasetu/vidyasetu/core"
	"github.com/vidyasetu/vidyasetu/core/auth"
	"github.com/vidyasetu/vidyasetu/core/notice"
	"github.com/vidyasetu/vidyasetu/core/student"
	"github.com/vidyasetu/vidyasetu/core/user"
)

type authApi struct {
	authenticator *auth.Authenticator
	users         *user.Service
	students      *student.Service
	notices       *notice.Service
	validate      *validator.Validate
}

func registerAuthAPI(g *echo.Group, authn, authz, limiter echo.MiddlewareFunc, deps *Deps) {
	api := authApi{
		authenticator: deps.Authenticator,
		users:         deps.UserSvc,
		students:      deps.StudentSvc,
		notices:       deps.NoticeSvc,
		validate:      deps.Validate,
	}

	// un-authed endpoints
	g.POST("/login", api.login, limiter)
	g.POST("/send-otp", api.sendOTP, limiter)
	g.POST("/reset-password", api.resetPassword, limiter)

	// authed endpoints
	ag := g.Group("", authn, authz)
	ag.GET("/notices", api.viewerNotices)
	ag.POST("/update-push-token", api.updatePushToken)
	ag.GET("/me", api.me)
}

type (
	LoginRequest struct {
		EmailOrID string `json:"email_or_id" validate:"required"`
		Password  string `json:"password" validate:"required"`
	}

	PushTokenRequest struct {
		PushToken string `json:"push_token" validate:"required"`
	}

	// StudentProfile is the /me payload of a student.
	StudentProfile struct {
		student.Student
		Role core.Role `json:"role"`
	}
)

func (lr *LoginRequest) Validate(validate *validator.Validate) error {
	lr.EmailOrID = core.CleanString(lr.EmailOrID)
	return validate.Struct(lr)
}

func (pr *PushTokenRequest) Validate(validate *validator.Validate) error {
	pr.PushToken = core.CleanString(pr.PushToken)
	return validate.Struct(pr)
}

// Handlers

func (api *authApi) login(ctx echo.Context) error {
	var data LoginRequest
	if err := bindBody(ctx, &data, "LoginRequest"); err != nil {
		return err
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	res, err := api.authenticator.Login(ctx.Request().Context(), data.EmailOrID, data.Password)
	if err != nil {
		return errors.Wrap(err, "authenticating")
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *authApi) sendOTP(ctx echo.Context) error {
	var data user.PasswordResetRequest
	if err := bindBody(ctx, &data, "PasswordResetRequest"); err != nil {
		return err
	}
	data.Email = core.CleanString(data.Email, true /* lower */)
	if err := api.validate.Struct(data); err != nil {
		return err
	}

	if err := api.users.RequestPasswordReset(ctx.Request().Context(), data.Email); !(err == nil || core.IsNotFound(err)) {
		// do not return errors to attackers
		ctx.Logger().Errorf("%+v", errors.Wrap(err, "requesting password reset"))
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{
		Success: "If the email address supplied is associated with an account on this system, " +
			"an email will arrive in your inbox shortly with a code to reset your password.",
	})
}

func (api *authApi) resetPassword(ctx echo.Context) error {
	var data user.ResetUserPassword
	if err := bindBody(ctx, &data, "ResetUserPassword"); err != nil {
		return err
	}
	if err := api.users.ResetPassword(ctx.Request().Context(), data); err != nil {
		return errors.Wrap(err, "resetting password")
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: "Password has been reset with the new password."})
}

func (api *authApi) viewerNotices(ctx echo.Context) error {
	id, err := ctxIdentity(ctx)
	if err != nil {
		return err
	}
	notices, err := api.notices.ForViewer(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "resolving notices")
	}
	return ctx.JSON(http.StatusOK, notices)
}

func (api *authApi) updatePushToken(ctx echo.Context) error {
	id, err := ctxIdentity(ctx)
	if err != nil {
		return err
	}
	var data PushTokenRequest
	if err = bindBody(ctx, &data, "PushTokenRequest"); err != nil {
		return err
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	if id.Role == core.RoleStudent {
		err = api.students.SetPushToken(ctx.Request().Context(), id.ID, data.PushToken)
	} else {
		err = api.users.SetPushToken(ctx.Request().Context(), id.ID, data.PushToken)
	}
	if err != nil {
		return errors.Wrap(err, "setting push token")
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: "Push token updated."})
}

func (api *authApi) me(ctx echo.Context) error {
	id, err := ctxIdentity(ctx)
	if err != nil {
		return err
	}
	if id.Role == core.RoleStudent {
		std, err := api.students.GetByID(ctx.Request().Context(), id.ID)
		if err != nil {
			return errors.Wrap(err, "getting student")
		}
		return ctx.JSON(http.StatusOK, StudentProfile{Student: std, Role: core.RoleStudent})
	}
	profile, err := api.users.GetProfile(ctx.Request().Context(), id.ID)
	if err != nil {
		return errors.Wrap(err, "getting profile")
	}
	return ctx.JSON(http.StatusOK, profile)
}
