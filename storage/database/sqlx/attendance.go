package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/vidyasetu/vidyasetu/core"
	"github.com/vidyasetu/vidyasetu/core/attendance"
)

type attendanceRow struct {
	ID         string      `db:"id"`
	StudentID  string      `db:"student_id"`
	CoachingID string      `db:"coaching_id"`
	TeacherID  null.String `db:"teacher_id"`
	Date       time.Time   `db:"date"`
	Status     string      `db:"status"`
	Remark     string      `db:"remark"`
	CreatedAt  time.Time   `db:"created_at"`
	UpdatedAt  time.Time   `db:"updated_at"`
}

type attendanceRepository struct {
	base
	loc *time.Location
}

var _ attendance.Repository = (*attendanceRepository)(nil) // interface compliance check

// NewAttendanceRepository stores record dates as calendar days of loc.
func NewAttendanceRepository(db *sqlx.DB, loc *time.Location) *attendanceRepository {
	if loc == nil {
		loc = time.UTC
	}
	return &attendanceRepository{base: base{db: db}, loc: loc}
}

func (repo attendanceRepository) fromRow(r attendanceRow) attendance.Record {
	return attendance.Record{
		ID:         r.ID,
		StudentID:  r.StudentID,
		CoachingID: r.CoachingID,
		TeacherID:  r.TeacherID.String,
		Date:       localDay(r.Date, repo.loc),
		Status:     attendance.Status(r.Status),
		Remark:     r.Remark,
		CreatedAt:  r.CreatedAt.UTC(),
		UpdatedAt:  r.UpdatedAt.UTC(),
	}
}

const upsertAttendance = `INSERT INTO attendance (id, student_id, coaching_id, teacher_id, date, status, remark, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (student_id, date) DO UPDATE SET
	status = EXCLUDED.status,
	remark = EXCLUDED.remark,
	teacher_id = EXCLUDED.teacher_id,
	updated_at = EXCLUDED.updated_at`

// UpsertRecords writes records, replacing the status of an existing (student, date) pair.
func (repo attendanceRepository) UpsertRecords(ctx context.Context, records []attendance.Record, exec ...core.DBExecutor) (int, error) {
	exe := repo.getExec(exec)
	for _, rec := range records {
		_, err := exe.ExecContext(ctx, upsertAttendance,
			newID(),
			rec.StudentID,
			rec.CoachingID,
			null.NewString(rec.TeacherID, rec.TeacherID != ""),
			dayString(rec.Date, repo.loc),
			string(rec.Status),
			rec.Remark,
			rec.CreatedAt.UTC(),
			rec.UpdatedAt.UTC(),
		)
		if err != nil {
			return 0, errors.Wrap(err, "upserting attendance")
		}
	}
	return len(records), nil
}

func (repo attendanceRepository) QueryRecords(ctx context.Context, filter attendance.QueryFilter, exec ...core.DBExecutor) ([]attendance.Record, error) {
	var w whereClause
	if filter.CoachingID != "" {
		if !isUUID(filter.CoachingID) {
			return []attendance.Record{}, nil
		}
		w.add("coaching_id = ?", filter.CoachingID)
	}
	if filter.StudentID != "" {
		if !isUUID(filter.StudentID) {
			return []attendance.Record{}, nil
		}
		w.add("student_id = ?", filter.StudentID)
	}
	if !filter.Date.IsZero() {
		w.add("date = ?", dayString(filter.Date, repo.loc))
	}
	q, args, err := rebind("SELECT * FROM attendance"+w.String()+" ORDER BY date DESC, created_at DESC", w.args)
	if err != nil {
		return nil, err
	}

	var rows []attendanceRow
	if err = sqlx.SelectContext(ctx, repo.getExec(exec), &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying attendance")
	}
	records := make([]attendance.Record, 0, len(rows))
	for _, r := range rows {
		records = append(records, repo.fromRow(r))
	}
	return records, nil
}

func (repo attendanceRepository) DeleteRecords(ctx context.Context, coachingID string, date time.Time, exec ...core.DBExecutor) (int, error) {
	if !isUUID(coachingID) {
		return 0, nil
	}
	res, err := repo.getExec(exec).ExecContext(ctx,
		`DELETE FROM attendance WHERE coaching_id = $1 AND date = $2`, coachingID, dayString(date, repo.loc))
	if err != nil {
		return 0, errors.Wrap(err, "deleting attendance")
	}
	n, err := res.RowsAffected()
	return int(n), errors.Wrap(err, "counting deleted attendance")
}
