package inmemdb

import (
	"context"
	"sort"
	"time"

	"github.com/vidyasetu/vidyasetu/core"
	"github.com/vidyasetu/vidyasetu/core/attendance"
)

type attendanceRepository struct {
	db *DB
}

var _ attendance.Repository = (*attendanceRepository)(nil) // interface compliance check

func NewAttendanceRepository(db *DB) *attendanceRepository {
	return &attendanceRepository{db: db}
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func (repo *attendanceRepository) UpsertRecords(_ context.Context, records []attendance.Record, _ ...core.DBExecutor) (int, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	for _, rec := range records {
		rec.CreatedAt = rec.CreatedAt.UTC()
		rec.UpdatedAt = rec.UpdatedAt.UTC()
		rec.StudentName = ""

		var replaced bool
		for id, existing := range repo.db.attendance {
			if existing.StudentID == rec.StudentID && sameDay(existing.Date, rec.Date) {
				existing.Status = rec.Status
				existing.Remark = rec.Remark
				existing.TeacherID = rec.TeacherID
				existing.UpdatedAt = rec.UpdatedAt
				repo.db.attendance[id] = existing
				replaced = true
				break
			}
		}
		if !replaced {
			rec.ID = newID()
			repo.db.attendance[rec.ID] = rec
		}
	}
	return len(records), nil
}

func (repo *attendanceRepository) QueryRecords(_ context.Context, filter attendance.QueryFilter, _ ...core.DBExecutor) ([]attendance.Record, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	records := make([]attendance.Record, 0)
	for _, rec := range repo.db.attendance {
		if filter.CoachingID != "" && rec.CoachingID != filter.CoachingID {
			continue
		}
		if filter.StudentID != "" && rec.StudentID != filter.StudentID {
			continue
		}
		if !filter.Date.IsZero() && !sameDay(rec.Date, filter.Date) {
			continue
		}
		records = append(records, rec)
	}
	sort.Slice(records, func(i, j int) bool {
		if !records[i].Date.Equal(records[j].Date) {
			return records[i].Date.After(records[j].Date)
		}
		if !records[i].CreatedAt.Equal(records[j].CreatedAt) {
			return records[i].CreatedAt.After(records[j].CreatedAt)
		}
		return records[i].ID < records[j].ID
	})
	return records, nil
}

func (repo *attendanceRepository) DeleteRecords(_ context.Context, coachingID string, date time.Time, _ ...core.DBExecutor) (int, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	var n int
	for id, rec := range repo.db.attendance {
		if rec.CoachingID == coachingID && sameDay(rec.Date, date) {
			delete(repo.db.attendance, id)
			n++
		}
	}
	return n, nil
}
