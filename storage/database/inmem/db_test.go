package inmemdb

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vidyasetu/vidyasetu/core"
	"github.com/vidyasetu/vidyasetu/core/attendance"
	"github.com/vidyasetu/vidyasetu/core/coaching"
	"github.com/vidyasetu/vidyasetu/core/fee"
	"github.com/vidyasetu/vidyasetu/core/notice"
	"github.com/vidyasetu/vidyasetu/core/student"
	"github.com/vidyasetu/vidyasetu/core/user"
)

func TestDeleteStudent_cascades(t *testing.T) {
	ctx := context.Background()
	db := Open()
	students := NewStudentRepository(db)
	records := NewAttendanceRepository(db)
	fees := NewFeeRepository(db)

	now := time.Now()
	std, err := students.CreateStudent(ctx, student.Student{CoachingID: "c1", Name: "Raveena", LoginID: "rav", CreatedAt: now})
	require.NoError(t, err)
	other, err := students.CreateStudent(ctx, student.Student{CoachingID: "c1", Name: "Karan", LoginID: "kar", CreatedAt: now})
	require.NoError(t, err)

	_, err = students.CreateStudent(ctx, student.Student{CoachingID: "c2", LoginID: "rav"})
	assert.Equal(t, student.ErrLoginIDExists, err)

	day := core.TruncateDay(now, time.UTC)
	_, err = records.UpsertRecords(ctx, []attendance.Record{
		{StudentID: std.ID, CoachingID: "c1", Date: day, Status: attendance.StatusPresent},
		{StudentID: other.ID, CoachingID: "c1", Date: day, Status: attendance.StatusAbsent},
	})
	require.NoError(t, err)
	_, err = fees.CreatePayment(ctx, fee.Payment{StudentID: std.ID, CoachingID: "c1", AmountPaid: decimal.NewFromInt(10), ReceiptNo: "REC-1"})
	require.NoError(t, err)

	require.NoError(t, students.DeleteStudent(ctx, std.ID))
	assert.Equal(t, student.ErrNotFound, students.DeleteStudent(ctx, std.ID))

	left, err := records.QueryRecords(ctx, attendance.QueryFilter{CoachingID: "c1"})
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.Equal(t, other.ID, left[0].StudentID)

	payments, err := fees.QueryPayments(ctx, fee.PaymentFilter{CoachingID: "c1"})
	require.NoError(t, err)
	assert.Empty(t, payments)
}

func TestUpsertRecords_lastWriteWins(t *testing.T) {
	ctx := context.Background()
	repo := NewAttendanceRepository(Open())
	day := core.TruncateDay(time.Now(), time.UTC)

	for _, status := range []attendance.Status{attendance.StatusAbsent, attendance.StatusLate} {
		_, err := repo.UpsertRecords(ctx, []attendance.Record{{StudentID: "s1", CoachingID: "c1", Date: day, Status: status}})
		require.NoError(t, err)
	}
	got, err := repo.QueryRecords(ctx, attendance.QueryFilter{StudentID: "s1", Date: day})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, attendance.StatusLate, got[0].Status)
}

func TestDeleteCoaching_cascades(t *testing.T) {
	ctx := context.Background()
	db := Open()
	coachings := NewCoachingRepository(db)
	users := NewUserRepository(db)
	students := NewStudentRepository(db)

	c, err := coachings.CreateCoaching(ctx, coaching.Coaching{Name: "Bright Future"})
	require.NoError(t, err)
	teacher, err := users.CreateUser(ctx, user.User{Email: "t@example.com", Role: core.RoleTeacher, CoachingID: c.ID})
	require.NoError(t, err)
	_, err = students.CreateStudent(ctx, student.Student{CoachingID: c.ID, LoginID: "s1"})
	require.NoError(t, err)

	require.NoError(t, coachings.DeleteCoaching(ctx, c.ID))

	n, err := students.CountStudents(ctx, c.ID)
	require.NoError(t, err)
	assert.Zero(t, n)
	got, err := users.GetUser(ctx, user.GetFilter{ID: teacher.ID})
	require.NoError(t, err)
	assert.Empty(t, got.CoachingID)
}

func TestQueryNotices(t *testing.T) {
	ctx := context.Background()
	repo := NewNoticeRepository(Open())
	base := time.Now()

	create := func(coachingID string, target notice.Target, active bool, minutes int) string {
		n, err := repo.CreateNotice(ctx, notice.Notice{
			CoachingID: coachingID, Target: target, IsActive: active, CreatedAt: base.Add(time.Duration(minutes) * time.Minute),
		})
		require.NoError(t, err)
		return n.ID
	}
	tenantStudent := create("c1", notice.TargetStudent, true, 1)
	tenantTeacher := create("c1", notice.TargetTeacher, true, 2)
	platformAll := create("", notice.TargetAll, true, 3)
	platformInactive := create("", notice.TargetStudent, false, 4)
	otherTenant := create("c2", notice.TargetAll, true, 5)

	ids := func(filter notice.QueryFilter) []string {
		notices, err := repo.QueryNotices(ctx, filter)
		require.NoError(t, err)
		res := make([]string, 0, len(notices))
		for _, n := range notices {
			res = append(res, n.ID)
		}
		return res
	}

	assert.Equal(t, []string{otherTenant, platformInactive, platformAll, tenantTeacher, tenantStudent}, ids(notice.QueryFilter{}))
	assert.Equal(t, []string{tenantTeacher, tenantStudent}, ids(notice.QueryFilter{CoachingID: "c1"}))
	assert.Equal(t, []string{platformInactive, platformAll}, ids(notice.QueryFilter{Broadcasts: true}))
	assert.Equal(t, []string{platformAll, tenantStudent}, ids(notice.QueryFilter{
		CoachingID: "c1",
		Broadcasts: true,
		Targets:    []notice.Target{notice.TargetStudent, notice.TargetAll},
		ActiveOnly: true,
	}))
}
