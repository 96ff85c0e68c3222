package attendance

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/vidyasetu/vidyasetu/core"
	"github.com/vidyasetu/vidyasetu/core/student"
)

type (
	Repository interface {
		// UpsertRecords writes records keyed on (StudentID, Date), overwriting existing ones.
		UpsertRecords(ctx context.Context, records []Record, exec ...core.DBExecutor) (int, error)
		// QueryRecords returns matching records, newest first.
		QueryRecords(ctx context.Context, filter QueryFilter, exec ...core.DBExecutor) ([]Record, error)
		DeleteRecords(ctx context.Context, coachingID string, date time.Time, exec ...core.DBExecutor) (int, error)
	}

	Service struct {
		db       core.Transactor
		repo     Repository
		students student.Repository
		validate *validator.Validate
		conf     *core.Config
	}
)

func NewService(db core.Transactor, repo Repository, students student.Repository, validate *validator.Validate, conf *core.Config) *Service {
	return &Service{
		db:       db,
		repo:     repo,
		students: students,
		validate: validate,
		conf:     conf,
	}
}

func (svc *Service) tenantStudents(ctx context.Context, coachingID string, exec ...core.DBExecutor) (map[string]student.Student, []student.Student, error) {
	students, err := svc.students.QueryStudents(ctx, &student.QueryFilter{CoachingID: coachingID}, []core.DBOrdering{{Field: "name", Ascending: true}}, exec...)
	if err != nil {
		return nil, nil, errors.Wrap(err, "querying students")
	}
	byID := make(map[string]student.Student, len(students))
	for _, s := range students {
		byID[s.ID] = s
	}
	return byID, students, nil
}

// Mark writes the attendance of a day for the identity's coaching and returns the number of records written.
func (svc *Service) Mark(ctx context.Context, id core.Identity, mr MarkRequest) (int, error) {
	coachingID, err := id.TenantID()
	if err != nil {
		return 0, err
	}
	if err = mr.Validate(svc.validate); err != nil {
		return 0, err
	}
	date, err := core.ParseDay(mr.Date, svc.conf.Location)
	if err != nil {
		return 0, errors.Wrap(err, "parsing date")
	}

	var teacherID string
	if id.Role == core.RoleTeacher {
		teacherID = id.ID
	}
	now := core.NowFunc().UTC()
	newRecord := func(studentID string, status Status, remark string) Record {
		return Record{
			StudentID:  studentID,
			CoachingID: coachingID,
			TeacherID:  teacherID,
			Date:       date,
			Status:     status,
			Remark:     remark,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
	}

	var count int
	err = svc.db.WithinTx(ctx, func(exec core.DBExecutor) error {
		execs := core.ExecArgs(exec)
		byID, students, err := svc.tenantStudents(ctx, coachingID, execs...)
		if err != nil {
			return err
		}

		var records []Record
		if mr.IsHoliday {
			records = make([]Record, 0, len(students))
			for _, s := range students {
				records = append(records, newRecord(s.ID, StatusHoliday, ""))
			}
		} else {
			// the last entry of a student wins
			idx := make(map[string]int, len(mr.Records))
			records = make([]Record, 0, len(mr.Records))
			for _, e := range mr.Records {
				if _, ok := byID[e.StudentID]; !ok {
					return student.ErrNotFound
				}
				if i, ok := idx[e.StudentID]; ok {
					records[i] = newRecord(e.StudentID, e.Status, e.Remark)
					continue
				}
				idx[e.StudentID] = len(records)
				records = append(records, newRecord(e.StudentID, e.Status, e.Remark))
			}
		}
		if len(records) == 0 {
			return nil
		}
		count, err = svc.repo.UpsertRecords(ctx, records, execs...)
		return errors.Wrap(err, "upserting attendance")
	})
	return count, err
}

// StudentStats returns the attendance stats of a student of the identity's coaching.
func (svc *Service) StudentStats(ctx context.Context, id core.Identity, studentID string) (Stats, error) {
	coachingID, err := id.TenantID()
	if err != nil {
		return Stats{}, err
	}
	if _, err = svc.students.GetStudent(ctx, student.GetFilter{ID: studentID, CoachingID: coachingID}); err != nil {
		return Stats{}, err
	}
	records, err := svc.repo.QueryRecords(ctx, QueryFilter{CoachingID: coachingID, StudentID: studentID})
	if err != nil {
		return Stats{}, errors.Wrap(err, "querying attendance")
	}
	return ComputeStats(records), nil
}

func (svc *Service) Today(ctx context.Context, id core.Identity) ([]Record, error) {
	return svc.ByDate(ctx, id, "")
}

// ByDate returns the attendance of the identity's coaching on date (YYYY-MM-DD; empty: today).
func (svc *Service) ByDate(ctx context.Context, id core.Identity, date string) ([]Record, error) {
	coachingID, err := id.TenantID()
	if err != nil {
		return nil, err
	}
	day, err := core.ParseDay(date, svc.conf.Location)
	if err != nil {
		return nil, core.NewValidationError(nil, core.FieldError{Field: "date", Error: "must be a YYYY-MM-DD date"})
	}
	records, err := svc.repo.QueryRecords(ctx, QueryFilter{CoachingID: coachingID, Date: day})
	if err != nil {
		return nil, errors.Wrap(err, "querying attendance")
	}
	byID, _, err := svc.tenantStudents(ctx, coachingID)
	if err != nil {
		return nil, err
	}
	for i := range records {
		records[i].StudentName = byID[records[i].StudentID].Name
	}
	return records, nil
}

// DeleteByDate removes the attendance of the identity's coaching on date and returns the number of records removed.
func (svc *Service) DeleteByDate(ctx context.Context, id core.Identity, date string) (int, error) {
	coachingID, err := id.TenantID()
	if err != nil {
		return 0, err
	}
	if date = core.CleanString(date); date == "" {
		return 0, core.NewValidationError(nil, core.FieldError{Field: "date", Error: "this field is required"})
	}
	day, err := core.ParseDay(date, svc.conf.Location)
	if err != nil {
		return 0, core.NewValidationError(nil, core.FieldError{Field: "date", Error: "must be a YYYY-MM-DD date"})
	}
	cnt, err := svc.repo.DeleteRecords(ctx, coachingID, day)
	return cnt, errors.Wrap(err, "deleting attendance")
}

// History returns a student's own attendance with its stats.
func (svc *Service) History(ctx context.Context, studentID string) (History, error) {
	records, err := svc.repo.QueryRecords(ctx, QueryFilter{StudentID: studentID})
	if err != nil {
		return History{}, errors.Wrap(err, "querying attendance")
	}
	if records == nil {
		records = []Record{}
	}
	return History{Records: records, Stats: ComputeStats(records)}, nil
}
