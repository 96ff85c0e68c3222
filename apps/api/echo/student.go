package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/vidyasetu/vidyasetu/core"
	"github.com/vidyasetu/vidyasetu/core/attendance"
	"github.com/vidyasetu/vidyasetu/core/fee"
	"github.com/vidyasetu/vidyasetu/core/homework"
	"github.com/vidyasetu/vidyasetu/core/notice"
	"github.com/vidyasetu/vidyasetu/core/student"
	"github.com/vidyasetu/vidyasetu/core/user"
)

const dashboardNotices = 10

type studentApi struct {
	users      *user.Service
	students   *student.Service
	attendance *attendance.Service
	fees       *fee.Service
	notices    *notice.Service
	homeworks  *homework.Service
}

func registerStudentAPI(g *echo.Group, deps *Deps) {
	api := studentApi{
		users:      deps.UserSvc,
		students:   deps.StudentSvc,
		attendance: deps.AttendanceSvc,
		fees:       deps.FeeSvc,
		notices:    deps.NoticeSvc,
		homeworks:  deps.HomeworkSvc,
	}

	g.GET("/dashboard", api.dashboard)
	g.GET("/attendance-history", api.attendanceHistory)
	g.GET("/fee-history", api.feeHistory)
	g.GET("/my-homework", api.homework)
	g.GET("/my-teachers", api.teachers)
	g.GET("/all-notices", api.allNotices)
	g.GET("/developer-contact", api.developerContact)
}

type (
	DashboardStats struct {
		AttendancePercentage string          `json:"attendance_percentage"`
		AmountDue            decimal.Decimal `json:"amount_due"`
		TotalPaid            decimal.Decimal `json:"total_paid"`
	}

	StudentDashboard struct {
		Profile   student.Student `json:"profile"`
		Teacher   *user.Contact   `json:"teacher"`
		Developer *user.Contact   `json:"developer"`
		Stats     DashboardStats  `json:"stats"`
		Notices   []notice.Notice `json:"notices"`
	}
)

// Handlers

func (api *studentApi) dashboard(ctx echo.Context) error {
	c := ctx.Request().Context()
	id, err := ctxIdentity(ctx)
	if err != nil {
		return err
	}
	std, err := api.students.GetByID(c, id.ID)
	if err != nil {
		return errors.Wrap(err, "getting student")
	}
	history, err := api.attendance.History(c, std.ID)
	if err != nil {
		return errors.Wrap(err, "getting attendance")
	}
	fees, err := api.fees.Dashboard(c, std.ID, std.CoachingID)
	if err != nil {
		return errors.Wrap(err, "getting fee details")
	}
	notices, err := api.notices.Latest(c, id, dashboardNotices)
	if err != nil {
		return errors.Wrap(err, "getting notices")
	}

	d := StudentDashboard{
		Profile: std,
		Stats: DashboardStats{
			AttendancePercentage: history.Stats.Percentage,
			AmountDue:            fees.AmountDue,
			TotalPaid:            fees.TotalPaid,
		},
		Notices: notices,
	}
	if d.Teacher, err = api.teacherOf(ctx, std); err != nil {
		return err
	}
	if dev, err := api.users.DeveloperContact(c); err == nil {
		d.Developer = &dev
	} else if !core.IsNotFound(err) {
		return errors.Wrap(err, "getting developer contact")
	}
	return ctx.JSON(http.StatusOK, d)
}

// teacherOf returns the card of the student's teacher, else of the first teacher of their coaching.
func (api *studentApi) teacherOf(ctx echo.Context, std student.Student) (*user.Contact, error) {
	c := ctx.Request().Context()
	if std.TeacherID != "" {
		usr, err := api.users.GetByID(c, std.TeacherID)
		if err == nil {
			contact := usr.Contact()
			return &contact, nil
		} else if !core.IsNotFound(err) {
			return nil, errors.Wrap(err, "getting teacher")
		}
	}
	teachers, err := api.users.TeachersOf(c, std.CoachingID)
	if err != nil {
		return nil, errors.Wrap(err, "getting teachers")
	}
	if len(teachers) == 0 {
		return nil, nil
	}
	return &teachers[0], nil
}

func (api *studentApi) attendanceHistory(ctx echo.Context) error {
	id, err := ctxIdentity(ctx)
	if err != nil {
		return err
	}
	history, err := api.attendance.History(ctx.Request().Context(), id.ID)
	if err != nil {
		return errors.Wrap(err, "getting attendance history")
	}
	return ctx.JSON(http.StatusOK, history)
}

func (api *studentApi) feeHistory(ctx echo.Context) error {
	id, err := ctxIdentity(ctx)
	if err != nil {
		return err
	}
	history, err := api.fees.History(ctx.Request().Context(), id.ID)
	if err != nil {
		return errors.Wrap(err, "getting fee history")
	}
	return ctx.JSON(http.StatusOK, history)
}

func (api *studentApi) homework(ctx echo.Context) error {
	id, err := ctxIdentity(ctx)
	if err != nil {
		return err
	}
	coachingID, err := id.TenantID()
	if err != nil {
		return err
	}
	hws, err := api.homeworks.ForCoaching(ctx.Request().Context(), coachingID)
	if err != nil {
		return errors.Wrap(err, "querying homeworks")
	}
	return ctx.JSON(http.StatusOK, hws)
}

func (api *studentApi) teachers(ctx echo.Context) error {
	id, err := ctxIdentity(ctx)
	if err != nil {
		return err
	}
	coachingID, err := id.TenantID()
	if err != nil {
		return err
	}
	teachers, err := api.users.TeachersOf(ctx.Request().Context(), coachingID)
	if err != nil {
		return errors.Wrap(err, "querying teachers")
	}
	return ctx.JSON(http.StatusOK, teachers)
}

func (api *studentApi) allNotices(ctx echo.Context) error {
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

func (api *studentApi) developerContact(ctx echo.Context) error {
	contact, err := api.users.DeveloperContact(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "getting developer contact")
	}
	return ctx.JSON(http.StatusOK, contact)
}
