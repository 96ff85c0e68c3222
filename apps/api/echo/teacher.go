package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/vidyasetu/vidyasetu/core"
	"github.com/vidyasetu/vidyasetu/core/attendance"
	"github.com/vidyasetu/vidyasetu/core/fee"
	"github.com/vidyasetu/vidyasetu/core/homework"
	"github.com/vidyasetu/vidyasetu/core/notice"
	"github.com/vidyasetu/vidyasetu/core/student"
	"github.com/vidyasetu/vidyasetu/core/user"
)

type teacherApi struct {
	users      *user.Service
	students   *student.Service
	attendance *attendance.Service
	fees       *fee.Service
	notices    *notice.Service
	homeworks  *homework.Service
}

func registerTeacherAPI(g *echo.Group, deps *Deps) {
	api := teacherApi{
		users:      deps.UserSvc,
		students:   deps.StudentSvc,
		attendance: deps.AttendanceSvc,
		fees:       deps.FeeSvc,
		notices:    deps.NoticeSvc,
		homeworks:  deps.HomeworkSvc,
	}

	// students
	g.POST("/create-student", api.createStudent)
	g.GET("/my-students", api.queryStudents)
	g.GET("/student/:id", api.retrieveStudent)
	g.PUT("/update-student/:id", api.updateStudent)
	g.DELETE("/delete-student/:id", api.destroyStudent)

	// attendance
	g.POST("/mark-attendance", api.markAttendance)
	g.GET("/today-attendance", api.todayAttendance)
	g.GET("/attendance-history", api.attendanceByDate)
	g.DELETE("/delete-attendance", api.destroyAttendance)
	g.GET("/student-attendance-stats/:studentId", api.studentAttendanceStats)

	// fees
	g.POST("/collect-fee", api.collectFee)
	g.GET("/fee-stats", api.feeStats)
	g.GET("/fee-history/:studentId", api.feeHistory)

	// notices
	g.POST("/create-notice", api.createNotice)
	g.GET("/my-notices", api.queryNotices)
	g.DELETE("/notice/:id", api.destroyNotice)
	g.GET("/broadcasts", api.queryBroadcasts)

	// homework
	g.POST("/create-homework", api.createHomework)
	g.GET("/my-homeworks", api.queryHomeworks)
	g.DELETE("/delete-homework/:id", api.destroyHomework)

	// profile
	g.GET("/profile", api.profile)
	g.PUT("/update-profile", api.updateProfile)
	g.PUT("/update-profile/:id", api.updateProfile)
	g.GET("/developer-contact", api.developerContact)
}

type (
	// StudentDetails is a student with their attendance and fee positions.
	StudentDetails struct {
		Student    student.Student  `json:"student"`
		Attendance attendance.Stats `json:"attendance_stats"`
		Fees       fee.Dashboard    `json:"fee_details"`
	}

	MarkedResponse struct {
		Marked int `json:"marked"`
	}
)

func recordsOrEmpty(records []attendance.Record) []attendance.Record {
	if records == nil {
		return []attendance.Record{}
	}
	return records
}

// Handlers

func (api *teacherApi) createStudent(ctx echo.Context) error {
	id, err := ctxIdentity(ctx)
	if err != nil {
		return err
	}
	var data student.NewStudent
	if err = bindBody(ctx, &data, "NewStudent"); err != nil {
		return err
	}
	std, err := api.students.Create(ctx.Request().Context(), id, data)
	if err != nil {
		return errors.Wrap(err, "creating student")
	}
	return ctx.JSON(http.StatusCreated, std)
}

func (api *teacherApi) queryStudents(ctx echo.Context) error {
	id, err := ctxIdentity(ctx)
	if err != nil {
		return err
	}
	filter := student.QueryFilter{Search: ctx.QueryParam("search"), BatchTime: ctx.QueryParam("batch_time")}
	ordering := new(Ordering)
	ordering.Bind(ctx)

	students, err := api.students.List(ctx.Request().Context(), id, filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying students")
	}
	if students == nil {
		students = []student.Student{}
	}
	return ctx.JSON(http.StatusOK, students)
}

func (api *teacherApi) retrieveStudent(ctx echo.Context) error {
	id, err := ctxIdentity(ctx)
	if err != nil {
		return err
	}
	std, err := api.students.Get(ctx.Request().Context(), id, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting student")
	}
	stats, err := api.attendance.StudentStats(ctx.Request().Context(), id, std.ID)
	if err != nil {
		return errors.Wrap(err, "getting attendance stats")
	}
	dashboard, err := api.fees.Dashboard(ctx.Request().Context(), std.ID, std.CoachingID)
	if err != nil {
		return errors.Wrap(err, "getting fee details")
	}
	return ctx.JSON(http.StatusOK, StudentDetails{Student: std, Attendance: stats, Fees: dashboard})
}

func (api *teacherApi) updateStudent(ctx echo.Context) error {
	id, err := ctxIdentity(ctx)
	if err != nil {
		return err
	}
	var data student.UpdateStudent
	if err = bindBody(ctx, &data, "UpdateStudent"); err != nil {
		return err
	}
	std, err := api.students.Update(ctx.Request().Context(), id, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating student")
	}
	return ctx.JSON(http.StatusOK, std)
}

func (api *teacherApi) destroyStudent(ctx echo.Context) error {
	id, err := ctxIdentity(ctx)
	if err != nil {
		return err
	}
	if err = api.students.Delete(ctx.Request().Context(), id, ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting student")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *teacherApi) markAttendance(ctx echo.Context) error {
	id, err := ctxIdentity(ctx)
	if err != nil {
		return err
	}
	var data attendance.MarkRequest
	if err = bindBody(ctx, &data, "MarkRequest"); err != nil {
		return err
	}
	n, err := api.attendance.Mark(ctx.Request().Context(), id, data)
	if err != nil {
		return errors.Wrap(err, "marking attendance")
	}
	return ctx.JSON(http.StatusOK, MarkedResponse{Marked: n})
}

func (api *teacherApi) todayAttendance(ctx echo.Context) error {
	id, err := ctxIdentity(ctx)
	if err != nil {
		return err
	}
	records, err := api.attendance.Today(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "getting today's attendance")
	}
	return ctx.JSON(http.StatusOK, recordsOrEmpty(records))
}

func (api *teacherApi) attendanceByDate(ctx echo.Context) error {
	id, err := ctxIdentity(ctx)
	if err != nil {
		return err
	}
	records, err := api.attendance.ByDate(ctx.Request().Context(), id, ctx.QueryParam("date"))
	if err != nil {
		return errors.Wrap(err, "getting attendance")
	}
	return ctx.JSON(http.StatusOK, recordsOrEmpty(records))
}

func (api *teacherApi) destroyAttendance(ctx echo.Context) error {
	id, err := ctxIdentity(ctx)
	if err != nil {
		return err
	}
	n, err := api.attendance.DeleteByDate(ctx.Request().Context(), id, ctx.QueryParam("date"))
	if err != nil {
		return errors.Wrap(err, "deleting attendance")
	}
	return ctx.JSON(http.StatusOK, DeletedResponse{Deleted: n})
}

func (api *teacherApi) studentAttendanceStats(ctx echo.Context) error {
	id, err := ctxIdentity(ctx)
	if err != nil {
		return err
	}
	stats, err := api.attendance.StudentStats(ctx.Request().Context(), id, ctx.Param("studentId"))
	if err != nil {
		return errors.Wrap(err, "getting attendance stats")
	}
	return ctx.JSON(http.StatusOK, stats)
}

func (api *teacherApi) collectFee(ctx echo.Context) error {
	id, err := ctxIdentity(ctx)
	if err != nil {
		return err
	}
	var data fee.CollectRequest
	if err = bindBody(ctx, &data, "CollectRequest"); err != nil {
		return err
	}
	rcpt, err := api.fees.Collect(ctx.Request().Context(), id, data)
	if err != nil {
		return errors.Wrap(err, "collecting fee")
	}
	return ctx.JSON(http.StatusCreated, rcpt)
}

func (api *teacherApi) feeStats(ctx echo.Context) error {
	id, err := ctxIdentity(ctx)
	if err != nil {
		return err
	}
	stats, err := api.fees.Stats(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "getting fee stats")
	}
	return ctx.JSON(http.StatusOK, stats)
}

func (api *teacherApi) feeHistory(ctx echo.Context) error {
	id, err := ctxIdentity(ctx)
	if err != nil {
		return err
	}
	history, err := api.fees.TenantHistory(ctx.Request().Context(), id, ctx.Param("studentId"))
	if err != nil {
		return errors.Wrap(err, "getting fee history")
	}
	return ctx.JSON(http.StatusOK, history)
}

func (api *teacherApi) createNotice(ctx echo.Context) error {
	id, err := ctxIdentity(ctx)
	if err != nil {
		return err
	}
	var data notice.NewNotice
	if err = bindBody(ctx, &data, "NewNotice"); err != nil {
		return err
	}
	n, err := api.notices.CreateTenantNotice(ctx.Request().Context(), id, data)
	if err != nil {
		return errors.Wrap(err, "creating notice")
	}
	return ctx.JSON(http.StatusCreated, n)
}

func (api *teacherApi) queryNotices(ctx echo.Context) error {
	id, err := ctxIdentity(ctx)
	if err != nil {
		return err
	}
	notices, err := api.notices.TenantNotices(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "querying notices")
	}
	return ctx.JSON(http.StatusOK, notices)
}

func (api *teacherApi) destroyNotice(ctx echo.Context) error {
	id, err := ctxIdentity(ctx)
	if err != nil {
		return err
	}
	if err = api.notices.Delete(ctx.Request().Context(), id, ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting notice")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *teacherApi) queryBroadcasts(ctx echo.Context) error {
	notices, err := api.notices.TeacherBroadcasts(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying broadcasts")
	}
	return ctx.JSON(http.StatusOK, notices)
}

func (api *teacherApi) createHomework(ctx echo.Context) error {
	id, err := ctxIdentity(ctx)
	if err != nil {
		return err
	}
	var data homework.NewHomework
	if err = bindBody(ctx, &data, "NewHomework"); err != nil {
		return err
	}
	hw, err := api.homeworks.Create(ctx.Request().Context(), id, data)
	if err != nil {
		return errors.Wrap(err, "creating homework")
	}
	return ctx.JSON(http.StatusCreated, hw)
}

func (api *teacherApi) queryHomeworks(ctx echo.Context) error {
	id, err := ctxIdentity(ctx)
	if err != nil {
		return err
	}
	hws, err := api.homeworks.ByTeacher(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "querying homeworks")
	}
	return ctx.JSON(http.StatusOK, hws)
}

func (api *teacherApi) destroyHomework(ctx echo.Context) error {
	id, err := ctxIdentity(ctx)
	if err != nil {
		return err
	}
	if err = api.homeworks.Delete(ctx.Request().Context(), id, ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting homework")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *teacherApi) profile(ctx echo.Context) error {
	id, err := ctxIdentity(ctx)
	if err != nil {
		return err
	}
	profile, err := api.users.GetProfile(ctx.Request().Context(), id.ID)
	if err != nil {
		return errors.Wrap(err, "getting profile")
	}
	return ctx.JSON(http.StatusOK, profile)
}

// updateProfile updates the identity's own profile; a SUPER_ADMIN may update any teacher by id.
func (api *teacherApi) updateProfile(ctx echo.Context) error {
	id, err := ctxIdentity(ctx)
	if err != nil {
		return err
	}
	var data user.UpdateUser
	if err = bindBody(ctx, &data, "UpdateUser"); err != nil {
		return err
	}

	var profile user.Teacher
	if targetID := ctx.Param("id"); targetID != "" && targetID != id.ID {
		if !id.IsSuperAdmin() {
			return core.ErrPermissionDenied
		}
		profile, err = api.users.UpdateTeacher(ctx.Request().Context(), targetID, data)
	} else {
		profile, err = api.users.Update(ctx.Request().Context(), id.ID, data)
	}
	if err != nil {
		return errors.Wrap(err, "updating profile")
	}
	return ctx.JSON(http.StatusOK, profile)
}

func (api *teacherApi) developerContact(ctx echo.Context) error {
	contact, err := api.users.DeveloperContact(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "getting developer contact")
	}
	return ctx.JSON(http.StatusOK, contact)
}
