package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/volatiletech/null/v8"

	"github.com/vidyasetu/vidyasetu/core"
	"github.com/vidyasetu/vidyasetu/core/student"
)

var (
	studentDupErrs   = map[string]error{"students_login_id_key": student.ErrLoginIDExists}
	studentOrderable = map[string]bool{"name": true, "created_at": true, "joining_date": true, "batch_time": true}
)

type studentRow struct {
	ID           string          `db:"id"`
	CoachingID   string          `db:"coaching_id"`
	TeacherID    null.String     `db:"teacher_id"`
	Name         string          `db:"name"`
	FatherName   string          `db:"father_name"`
	CollegeName  string          `db:"college_name"`
	Address      string          `db:"address"`
	MobileNumber string          `db:"mobile_number"`
	Email        string          `db:"email"`
	ParentMobile string          `db:"parent_mobile"`
	LoginID      string          `db:"student_login_id"`
	ProfilePhoto string          `db:"profile_photo"`
	BatchTime    string          `db:"batch_time"`
	Session      string          `db:"session"`
	JoiningDate  time.Time       `db:"joining_date"`
	MonthlyFees  decimal.Decimal `db:"monthly_fees"`
	PushToken    string          `db:"push_token"`
	PasswordHash []byte          `db:"password_hash"`
	CreatedAt    time.Time       `db:"created_at"`
	UpdatedAt    time.Time       `db:"updated_at"`
}

// studentParams is studentRow as written: the joining date goes in as a calendar day.
type studentParams struct {
	studentRow
	JoiningDay string `db:"joining_day"`
}

type studentRepository struct {
	base
	loc *time.Location
}

var _ student.Repository = (*studentRepository)(nil) // interface compliance check

func NewStudentRepository(db *sqlx.DB, loc *time.Location) *studentRepository {
	if loc == nil {
		loc = time.UTC
	}
	return &studentRepository{base: base{db: db}, loc: loc}
}

func (repo studentRepository) toParams(std student.Student) studentParams {
	return studentParams{
		studentRow: studentRow{
			ID:           std.ID,
			CoachingID:   std.CoachingID,
			TeacherID:    null.NewString(std.TeacherID, std.TeacherID != ""),
			Name:         std.Name,
			FatherName:   std.FatherName,
			CollegeName:  std.CollegeName,
			Address:      std.Address,
			MobileNumber: std.MobileNumber,
			Email:        std.Email,
			ParentMobile: std.ParentMobile,
			LoginID:      std.LoginID,
			ProfilePhoto: std.ProfilePhoto,
			BatchTime:    std.BatchTime,
			Session:      std.Session,
			JoiningDate:  std.JoiningDate,
			MonthlyFees:  std.MonthlyFees,
			PushToken:    std.PushToken,
			PasswordHash: std.PasswordHash,
			CreatedAt:    std.CreatedAt.UTC(),
			UpdatedAt:    std.UpdatedAt.UTC(),
		},
		JoiningDay: dayString(std.JoiningDate, repo.loc),
	}
}

func (repo studentRepository) fromRow(r studentRow) student.Student {
	return student.Student{
		ID:           r.ID,
		CoachingID:   r.CoachingID,
		TeacherID:    r.TeacherID.String,
		Name:         r.Name,
		FatherName:   r.FatherName,
		CollegeName:  r.CollegeName,
		Address:      r.Address,
		MobileNumber: r.MobileNumber,
		Email:        r.Email,
		ParentMobile: r.ParentMobile,
		LoginID:      r.LoginID,
		ProfilePhoto: r.ProfilePhoto,
		BatchTime:    r.BatchTime,
		Session:      r.Session,
		JoiningDate:  localDay(r.JoiningDate, repo.loc),
		MonthlyFees:  r.MonthlyFees,
		PushToken:    r.PushToken,
		PasswordHash: r.PasswordHash,
		CreatedAt:    r.CreatedAt.UTC(),
		UpdatedAt:    r.UpdatedAt.UTC(),
	}
}

func (repo studentRepository) CheckLoginIDUniqueness(ctx context.Context, loginID string, excludedIDs []string, exec ...core.DBExecutor) error {
	var w whereClause
	w.add("student_login_id = ?", loginID)
	if len(excludedIDs) > 0 {
		w.add("id NOT IN (?)", excludedIDs)
	}
	q, args, err := rebind("SELECT EXISTS (SELECT 1 FROM students"+w.String()+")", w.args)
	if err != nil {
		return err
	}

	var exists bool
	if err = sqlx.GetContext(ctx, repo.getExec(exec), &exists, q, args...); err != nil {
		return errors.Wrap(err, "checking student uniqueness")
	}
	if exists {
		return student.ErrLoginIDExists
	}
	return nil
}

const insertStudent = `INSERT INTO students (
	id, coaching_id, teacher_id, name, father_name, college_name, address, mobile_number, email, parent_mobile,
	student_login_id, profile_photo, batch_time, session, joining_date, monthly_fees, push_token, password_hash,
	created_at, updated_at
) VALUES (
	:id, :coaching_id, :teacher_id, :name, :father_name, :college_name, :address, :mobile_number, :email, :parent_mobile,
	:student_login_id, :profile_photo, :batch_time, :session, :joining_day, :monthly_fees, :push_token, :password_hash,
	:created_at, :updated_at
)`

func (repo studentRepository) CreateStudent(ctx context.Context, std student.Student, exec ...core.DBExecutor) (student.Student, error) {
	std.ID = newID()
	params := repo.toParams(std)
	if _, err := sqlx.NamedExecContext(ctx, repo.getExec(exec), insertStudent, params); err != nil {
		return student.Student{}, trapUniqueErr(err, "inserting student", studentDupErrs)
	}
	return repo.fromRow(params.studentRow), nil
}

func (repo studentRepository) GetStudent(ctx context.Context, filter student.GetFilter, exec ...core.DBExecutor) (student.Student, error) {
	var w whereClause
	switch {
	case filter.ID != "":
		if !isUUID(filter.ID) {
			return student.Student{}, student.ErrNotFound
		}
		w.add("id = ?", filter.ID)
	case filter.LoginID != "":
		w.add("student_login_id = ?", filter.LoginID)
	case filter.Email != "":
		w.add("email = ?", filter.Email)
	default:
		return student.Student{}, student.ErrNotFound
	}
	if filter.CoachingID != "" {
		if !isUUID(filter.CoachingID) {
			return student.Student{}, student.ErrNotFound
		}
		w.add("coaching_id = ?", filter.CoachingID)
	}

	q, args, err := rebind("SELECT * FROM students"+w.String()+" ORDER BY created_at LIMIT 1", w.args)
	if err != nil {
		return student.Student{}, err
	}
	var row studentRow
	err = sqlx.GetContext(ctx, repo.getExec(exec), &row, q, args...)
	if err == sql.ErrNoRows {
		return student.Student{}, student.ErrNotFound
	} else if err != nil {
		return student.Student{}, errors.Wrap(err, "finding student")
	}
	return repo.fromRow(row), nil
}

func (repo studentRepository) QueryStudents(ctx context.Context, filter *student.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]student.Student, error) {
	var w whereClause
	if filter != nil {
		if filter.CoachingID != "" {
			if !isUUID(filter.CoachingID) {
				return []student.Student{}, nil
			}
			w.add("coaching_id = ?", filter.CoachingID)
		}
		// students with Name, LoginID or MobileNumber matching the search keyword
		if filter.Search != "" {
			val := "%" + filter.Search + "%"
			w.add("(name ILIKE ? OR student_login_id ILIKE ? OR mobile_number ILIKE ?)", val, val, val)
		}
		if filter.BatchTime != "" {
			w.add("batch_time ILIKE ?", "%"+filter.BatchTime+"%")
		}
	}

	q, args, err := rebind("SELECT * FROM students"+w.String()+orderBy(ordering, studentOrderable), w.args)
	if err != nil {
		return nil, err
	}
	var rows []studentRow
	if err = sqlx.SelectContext(ctx, repo.getExec(exec), &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying students")
	}
	students := make([]student.Student, 0, len(rows))
	for _, r := range rows {
		students = append(students, repo.fromRow(r))
	}
	return students, nil
}

func (repo studentRepository) CountStudents(ctx context.Context, coachingID string, exec ...core.DBExecutor) (int, error) {
	if !isUUID(coachingID) {
		return 0, nil
	}
	var n int
	err := sqlx.GetContext(ctx, repo.getExec(exec), &n, `SELECT COUNT(*) FROM students WHERE coaching_id = $1`, coachingID)
	return n, errors.Wrap(err, "counting students")
}

const updateStudent = `UPDATE students SET
	teacher_id = :teacher_id, name = :name, father_name = :father_name, college_name = :college_name,
	address = :address, mobile_number = :mobile_number, email = :email, parent_mobile = :parent_mobile,
	student_login_id = :student_login_id, profile_photo = :profile_photo, batch_time = :batch_time,
	session = :session, joining_date = :joining_day, monthly_fees = :monthly_fees, push_token = :push_token,
	password_hash = :password_hash, updated_at = :updated_at
WHERE id = :id`

func (repo studentRepository) UpdateStudent(ctx context.Context, std student.Student, exec ...core.DBExecutor) (student.Student, error) {
	if !isUUID(std.ID) {
		return student.Student{}, student.ErrNotFound
	}
	params := repo.toParams(std)
	res, err := sqlx.NamedExecContext(ctx, repo.getExec(exec), updateStudent, params)
	if err != nil {
		return student.Student{}, trapUniqueErr(err, "updating student", studentDupErrs)
	}
	if err = checkAffected(res, student.ErrNotFound); err != nil {
		return student.Student{}, err
	}
	return repo.fromRow(params.studentRow), nil
}

// DeleteStudent relies on ON DELETE CASCADE for attendance and fee_payments.
func (repo studentRepository) DeleteStudent(ctx context.Context, id string, exec ...core.DBExecutor) error {
	if !isUUID(id) {
		return student.ErrNotFound
	}
	res, err := repo.getExec(exec).ExecContext(ctx, `DELETE FROM students WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting student")
	}
	return checkAffected(res, student.ErrNotFound)
}
