package tests

import (
	"context"
	"net/http"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	echoapi "github.com/vidyasetu/vidyasetu/apps/api/echo"
	"github.com/vidyasetu/vidyasetu/core/attendance"
	"github.com/vidyasetu/vidyasetu/core/fee"
	"github.com/vidyasetu/vidyasetu/core/notice"
	"github.com/vidyasetu/vidyasetu/core/user"
)

func Test_studentApi_dashboard(t *testing.T) {
	setup(t)
	ctx := context.Background()
	admin := createSuperAdmin(t)
	teacher := createTeacher(t, "Asha Verma", "asha@coaching.test")
	std := createStudent(t, teacher, "Ravi Kumar", "ravi01", "3000", "Morning")
	token := getToken(t, std.Identity())

	_, err := container.AttendanceSvc.Mark(ctx, teacher.Identity(), attendance.MarkRequest{Date: "2026-03-02", Records: []attendance.MarkEntry{
		{StudentID: std.ID, Status: attendance.StatusPresent},
	}})
	require.NoError(t, err)
	_, err = container.AttendanceSvc.Mark(ctx, teacher.Identity(), attendance.MarkRequest{Date: "2026-03-03", Records: []attendance.MarkEntry{
		{StudentID: std.ID, Status: attendance.StatusAbsent},
	}})
	require.NoError(t, err)

	paid := decimal.NewFromInt(40)
	_, err = container.FeeSvc.Collect(ctx, teacher.Identity(), fee.CollectRequest{StudentID: std.ID, AmountPaid: &paid})
	require.NoError(t, err)

	_, err = container.NoticeSvc.CreateTenantNotice(ctx, teacher.Identity(), notice.NewNotice{Title: "Test on Monday", Description: "Chapters 1-3"})
	require.NoError(t, err)
	_, err = container.NoticeSvc.CreateBroadcast(ctx, admin.Identity(), notice.NewBroadcast{Target: notice.TargetTeacher, Title: "Staff only", Description: "Not for students"})
	require.NoError(t, err)

	req, rec := newAuthRequest(http.MethodGet, "/api/student/dashboard", token)
	app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var got echoapi.StudentDashboard
	unmarshalBody(t, rec, &got)
	assert.Equal(t, std.ID, got.Profile.ID)
	assert.Equal(t, "50.00", got.Stats.AttendancePercentage)
	assertDecimal(t, "60", got.Stats.AmountDue)
	assertDecimal(t, "40", got.Stats.TotalPaid)
	require.NotNil(t, got.Teacher)
	assert.Equal(t, teacher.ID, got.Teacher.ID)
	require.NotNil(t, got.Developer)
	assert.Equal(t, admin.Email, got.Developer.Email)
	require.Len(t, got.Notices, 1)
	assert.Equal(t, "Test on Monday", got.Notices[0].Title)
}

func Test_studentApi_history(t *testing.T) {
	setup(t)
	ctx := context.Background()
	teacher := createTeacher(t, "Asha Verma", "asha@coaching.test")
	std := createStudent(t, teacher, "Ravi Kumar", "ravi01", "3000", "Morning")
	token := getToken(t, std.Identity())

	_, err := container.AttendanceSvc.Mark(ctx, teacher.Identity(), attendance.MarkRequest{Date: "2026-03-02", Records: []attendance.MarkEntry{
		{StudentID: std.ID, Status: attendance.StatusLate},
	}})
	require.NoError(t, err)
	paid := decimal.NewFromInt(100)
	_, err = container.FeeSvc.Collect(ctx, teacher.Identity(), fee.CollectRequest{StudentID: std.ID, AmountPaid: &paid, Remarks: "March"})
	require.NoError(t, err)

	t.Run("attendance", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/api/student/attendance-history", token)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var got attendance.History
		unmarshalBody(t, rec, &got)
		require.Len(t, got.Records, 1)
		assert.Equal(t, attendance.StatusLate, got.Records[0].Status)
		assert.Equal(t, "100.00", got.Stats.Percentage)
	})

	t.Run("fees", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/api/student/fee-history", token)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var got fee.History
		unmarshalBody(t, rec, &got)
		require.Len(t, got.Payments, 1)
		assert.Equal(t, "March", got.Payments[0].Remarks)
		assertDecimal(t, "100", got.TotalPaid)
	})

	t.Run("teachers", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/api/student/my-teachers", token)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var got []user.Contact
		unmarshalBody(t, rec, &got)
		require.Len(t, got, 1)
		assert.Equal(t, teacher.Name, got[0].Name)
		assert.Empty(t, got[0].Email)
	})
}

func Test_studentApi_access(t *testing.T) {
	setup(t)
	teacher := createTeacher(t, "Asha Verma", "asha@coaching.test")
	std := createStudent(t, teacher, "Ravi Kumar", "ravi01", "3000", "Morning")
	studentToken := getToken(t, std.Identity())
	teacherToken := getToken(t, teacher.Identity())

	runHTTPTests(t, app, []httpTest{
		{
			name:     "teachers cannot use student routes",
			method:   http.MethodGet,
			path:     "/api/student/dashboard",
			token:    teacherToken,
			wantCode: http.StatusForbidden,
			wantData: marshalObj(t, errForbidden),
		},
		{
			name:     "students cannot use teacher routes",
			method:   http.MethodGet,
			path:     "/api/teacher/my-students",
			token:    studentToken,
			wantCode: http.StatusForbidden,
			wantData: marshalObj(t, errForbidden),
		},
		{
			name:     "students cannot use admin routes",
			method:   http.MethodGet,
			path:     "/api/admin/teachers",
			token:    studentToken,
			wantCode: http.StatusForbidden,
			wantData: marshalObj(t, errForbidden),
		},
		{
			name:     "no developer yet",
			method:   http.MethodGet,
			path:     "/api/student/developer-contact",
			token:    studentToken,
			wantCode: http.StatusNotFound,
		},
		{
			name:     "missing token",
			method:   http.MethodGet,
			path:     "/api/student/dashboard",
			wantCode: http.StatusUnauthorized,
			wantData: marshalObj(t, errMissingToken),
		},
	})
}
