package attendance_test

import (
	"context"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vidyasetu/vidyasetu/core"
	"github.com/vidyasetu/vidyasetu/core/attendance"
	"github.com/vidyasetu/vidyasetu/core/student"
	inmemdb "github.com/vidyasetu/vidyasetu/storage/database/inmem"
)

func newService(t *testing.T) (*attendance.Service, student.Repository) {
	t.Helper()
	db := inmemdb.Open()
	students := inmemdb.NewStudentRepository(db)
	validate, _ := core.NewValidator()
	svc := attendance.NewService(db, inmemdb.NewAttendanceRepository(db), students, validate, core.NewTestConfig())
	return svc, students
}

func enroll(t *testing.T, repo student.Repository, coachingID, name, loginID string) student.Student {
	t.Helper()
	std, err := repo.CreateStudent(context.Background(), student.Student{
		CoachingID:  coachingID,
		Name:        name,
		LoginID:     loginID,
		MonthlyFees: decimal.NewFromInt(1000),
		CreatedAt:   time.Now().UTC(),
	})
	require.NoError(t, err)
	return std
}

func TestService_Mark(t *testing.T) {
	ctx := context.Background()
	svc, students := newService(t)
	teacher := core.Identity{ID: "t1", Role: core.RoleTeacher, CoachingID: "c1"}

	asha := enroll(t, students, "c1", "Asha", "asha")
	bilal := enroll(t, students, "c1", "Bilal", "bilal")
	outsider := enroll(t, students, "c2", "Chitra", "chitra")

	t.Run("no tenant", func(t *testing.T) {
		_, err := svc.Mark(ctx, core.Identity{ID: "sa", Role: core.RoleSuperAdmin}, attendance.MarkRequest{IsHoliday: true})
		assert.Equal(t, core.ErrNoTenant, err)
	})

	t.Run("no records", func(t *testing.T) {
		_, err := svc.Mark(ctx, teacher, attendance.MarkRequest{Date: "2026-03-02"})
		var verr *core.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, []core.FieldError{{Field: "records", Error: "this field is required"}}, verr.Fields)
	})

	t.Run("invalid status", func(t *testing.T) {
		_, err := svc.Mark(ctx, teacher, attendance.MarkRequest{
			Date:    "2026-03-02",
			Records: []attendance.MarkEntry{{StudentID: asha.ID, Status: "Sleeping"}},
		})
		var verrs validator.ValidationErrors
		assert.ErrorAs(t, err, &verrs)
	})

	t.Run("student of another coaching", func(t *testing.T) {
		_, err := svc.Mark(ctx, teacher, attendance.MarkRequest{
			Date:    "2026-03-02",
			Records: []attendance.MarkEntry{{StudentID: outsider.ID, Status: attendance.StatusPresent}},
		})
		assert.Equal(t, student.ErrNotFound, err)
	})

	t.Run("last entry wins", func(t *testing.T) {
		cnt, err := svc.Mark(ctx, teacher, attendance.MarkRequest{
			Date: "2026-03-02",
			Records: []attendance.MarkEntry{
				{StudentID: asha.ID, Status: attendance.StatusAbsent},
				{StudentID: bilal.ID, Status: attendance.StatusLate, Remark: " bus "},
				{StudentID: asha.ID, Status: attendance.StatusPresent},
			},
		})
		require.NoError(t, err)
		assert.Equal(t, 2, cnt)

		records, err := svc.ByDate(ctx, teacher, "2026-03-02")
		require.NoError(t, err)
		require.Len(t, records, 2)
		byName := map[string]attendance.Record{}
		for _, r := range records {
			byName[r.StudentName] = r
		}
		assert.Equal(t, attendance.StatusPresent, byName["Asha"].Status)
		assert.Equal(t, attendance.StatusLate, byName["Bilal"].Status)
		assert.Equal(t, "bus", byName["Bilal"].Remark)
		assert.Equal(t, "t1", byName["Bilal"].TeacherID)
	})

	t.Run("remarking overwrites", func(t *testing.T) {
		_, err := svc.Mark(ctx, teacher, attendance.MarkRequest{
			Date:    "2026-03-02",
			Records: []attendance.MarkEntry{{StudentID: asha.ID, Status: attendance.StatusLeave}},
		})
		require.NoError(t, err)

		stats, err := svc.StudentStats(ctx, teacher, asha.ID)
		require.NoError(t, err)
		assert.Equal(t, attendance.Stats{TotalDays: 1, LeaveDays: 1, Percentage: "0.00"}, stats)
	})

	t.Run("holiday marks every student of the coaching", func(t *testing.T) {
		cnt, err := svc.Mark(ctx, teacher, attendance.MarkRequest{Date: "2026-03-03", IsHoliday: true})
		require.NoError(t, err)
		assert.Equal(t, 2, cnt)

		history, err := svc.History(ctx, outsider.ID)
		require.NoError(t, err)
		assert.Empty(t, history.Records)
		assert.Equal(t, "0.00", history.Stats.Percentage)
	})

	t.Run("stats of another coaching's student", func(t *testing.T) {
		_, err := svc.StudentStats(ctx, teacher, outsider.ID)
		assert.Equal(t, student.ErrNotFound, err)
	})

	t.Run("delete by date", func(t *testing.T) {
		_, err := svc.DeleteByDate(ctx, teacher, " ")
		var verr *core.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "date", verr.Fields[0].Field)

		_, err = svc.DeleteByDate(ctx, teacher, "03/03/2026")
		require.ErrorAs(t, err, &verr)

		cnt, err := svc.DeleteByDate(ctx, teacher, "2026-03-03")
		require.NoError(t, err)
		assert.Equal(t, 2, cnt)

		records, err := svc.ByDate(ctx, teacher, "2026-03-03")
		require.NoError(t, err)
		assert.Empty(t, records)
	})
}

func TestComputeStats(t *testing.T) {
	rec := func(statuses ...attendance.Status) []attendance.Record {
		records := make([]attendance.Record, 0, len(statuses))
		for _, s := range statuses {
			records = append(records, attendance.Record{Status: s})
		}
		return records
	}
	P, A, L, V, H := attendance.StatusPresent, attendance.StatusAbsent, attendance.StatusLate, attendance.StatusLeave, attendance.StatusHoliday

	tests := []struct {
		name    string
		records []attendance.Record
		want    attendance.Stats
	}{
		{name: "nothing", want: attendance.Stats{Percentage: "0.00"}},
		{name: "only holidays", records: rec(H, H), want: attendance.Stats{TotalDays: 2, Holidays: 2, Percentage: "0.00"}},
		{name: "late counts as present", records: rec(P, L), want: attendance.Stats{TotalDays: 2, PresentDays: 2, LateDays: 1, Percentage: "100.00"}},
		{
			name:    "holidays leave the denominator",
			records: rec(P, A, H, V),
			want:    attendance.Stats{TotalDays: 4, PresentDays: 1, AbsentDays: 1, Holidays: 1, LeaveDays: 1, Percentage: "33.33"},
		},
		{name: "two thirds", records: rec(P, P, A), want: attendance.Stats{TotalDays: 3, PresentDays: 2, AbsentDays: 1, Percentage: "66.67"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, attendance.ComputeStats(tt.records))
		})
	}
}
