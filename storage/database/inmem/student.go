package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/vidyasetu/vidyasetu/core"
	"github.com/vidyasetu/vidyasetu/core/student"
)

type studentRepository struct {
	db *DB
}

var _ student.Repository = (*studentRepository)(nil) // interface compliance check

func NewStudentRepository(db *DB) *studentRepository {
	return &studentRepository{db: db}
}

func (repo *studentRepository) loginIDTaken(loginID string, excludedIDs []string) bool {
	for _, s := range repo.db.students {
		if s.LoginID == loginID && !isExcluded(s.ID, excludedIDs) {
			return true
		}
	}
	return false
}

func (repo *studentRepository) CheckLoginIDUniqueness(_ context.Context, loginID string, excludedIDs []string, _ ...core.DBExecutor) error {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if repo.loginIDTaken(loginID, excludedIDs) {
		return student.ErrLoginIDExists
	}
	return nil
}

func (repo *studentRepository) CreateStudent(_ context.Context, std student.Student, _ ...core.DBExecutor) (student.Student, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if repo.loginIDTaken(std.LoginID, nil) {
		return student.Student{}, student.ErrLoginIDExists
	}
	std.ID = newID()
	std.CreatedAt = std.CreatedAt.UTC()
	std.UpdatedAt = std.UpdatedAt.UTC()
	repo.db.students[std.ID] = std
	return std, nil
}

func (repo *studentRepository) GetStudent(_ context.Context, filter student.GetFilter, _ ...core.DBExecutor) (student.Student, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	var (
		found student.Student
		ok    bool
	)
	if filter.ID != "" {
		found, ok = repo.db.students[filter.ID]
	} else {
		for _, s := range repo.db.students {
			match := (filter.LoginID != "" && s.LoginID == filter.LoginID) ||
				(filter.LoginID == "" && filter.Email != "" && s.Email == filter.Email)
			if match && filter.CoachingID != "" && s.CoachingID != filter.CoachingID {
				continue
			}
			if match && (!ok || s.CreatedAt.Before(found.CreatedAt)) {
				found, ok = s, true
			}
		}
	}
	if !ok || (filter.CoachingID != "" && found.CoachingID != filter.CoachingID) {
		return student.Student{}, student.ErrNotFound
	}
	return found, nil
}

func (repo *studentRepository) QueryStudents(_ context.Context, filter *student.QueryFilter, ordering []core.DBOrdering, _ ...core.DBExecutor) ([]student.Student, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	students := make([]student.Student, 0)
	for _, s := range repo.db.students {
		if filter != nil && !matchStudent(s, filter) {
			continue
		}
		students = append(students, s)
	}

	sort.SliceStable(students, func(i, j int) bool {
		for _, ord := range ordering {
			a, b := students[i], students[j]
			var cmp int
			switch ord.Field {
			case "name":
				cmp = strings.Compare(a.Name, b.Name)
			case "batch_time":
				cmp = strings.Compare(a.BatchTime, b.BatchTime)
			case "created_at":
				cmp = a.CreatedAt.Compare(b.CreatedAt)
			case "joining_date":
				cmp = a.JoiningDate.Compare(b.JoiningDate)
			}
			if cmp != 0 {
				return (cmp < 0) == ord.Ascending
			}
		}
		return students[i].ID < students[j].ID
	})
	return students, nil
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

func matchStudent(s student.Student, filter *student.QueryFilter) bool {
	if filter.CoachingID != "" && s.CoachingID != filter.CoachingID {
		return false
	}
	if filter.Search != "" &&
		!containsFold(s.Name, filter.Search) &&
		!containsFold(s.LoginID, filter.Search) &&
		!containsFold(s.MobileNumber, filter.Search) {
		return false
	}
	if filter.BatchTime != "" && !containsFold(s.BatchTime, filter.BatchTime) {
		return false
	}
	return true
}

func (repo *studentRepository) CountStudents(_ context.Context, coachingID string, _ ...core.DBExecutor) (int, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	var n int
	for _, s := range repo.db.students {
		if s.CoachingID == coachingID {
			n++
		}
	}
	return n, nil
}

func (repo *studentRepository) UpdateStudent(_ context.Context, std student.Student, _ ...core.DBExecutor) (student.Student, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	orig, ok := repo.db.students[std.ID]
	if !ok {
		return student.Student{}, student.ErrNotFound
	}
	if repo.loginIDTaken(std.LoginID, []string{std.ID}) {
		return student.Student{}, student.ErrLoginIDExists
	}
	std.CoachingID = orig.CoachingID
	std.CreatedAt = orig.CreatedAt
	std.UpdatedAt = std.UpdatedAt.UTC()
	repo.db.students[std.ID] = std
	return std, nil
}

func (repo *studentRepository) DeleteStudent(_ context.Context, id string, _ ...core.DBExecutor) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.students[id]; !ok {
		return student.ErrNotFound
	}
	repo.db.deleteStudent(id)
	return nil
}

// deleteStudent removes a student with their attendance and payments. The caller holds the write lock.
func (db *DB) deleteStudent(id string) {
	delete(db.students, id)
	for rid, rec := range db.attendance {
		if rec.StudentID == id {
			delete(db.attendance, rid)
		}
	}
	for pid, p := range db.payments {
		if p.StudentID == id {
			delete(db.payments, pid)
		}
	}
}
