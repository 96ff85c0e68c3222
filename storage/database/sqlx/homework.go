package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/goccy/go-json"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/vidyasetu/vidyasetu/core"
	"github.com/vidyasetu/vidyasetu/core/homework"
)

type homeworkRow struct {
	ID          string         `db:"id"`
	TeacherID   string         `db:"teacher_id"`
	CoachingID  string         `db:"coaching_id"`
	Title       string         `db:"title"`
	Description string         `db:"description"`
	BatchTime   string         `db:"batch_time"`
	DueDate     null.Time      `db:"due_date"`
	Attachments types.JSONText `db:"attachments"`
	CreatedAt   time.Time      `db:"created_at"`
}

type homeworkRepository struct {
	base
	loc *time.Location
}

var _ homework.Repository = (*homeworkRepository)(nil) // interface compliance check

func NewHomeworkRepository(db *sqlx.DB, loc *time.Location) *homeworkRepository {
	if loc == nil {
		loc = time.UTC
	}
	return &homeworkRepository{base: base{db: db}, loc: loc}
}

func (repo homeworkRepository) fromRow(r homeworkRow) (homework.Homework, error) {
	hw := homework.Homework{
		ID:          r.ID,
		TeacherID:   r.TeacherID,
		CoachingID:  r.CoachingID,
		Title:       r.Title,
		Description: r.Description,
		BatchTime:   r.BatchTime,
		Attachments: []homework.Attachment{},
		CreatedAt:   r.CreatedAt.UTC(),
	}
	if r.DueDate.Valid {
		due := localDay(r.DueDate.Time, repo.loc)
		hw.DueDate = &due
	}
	if len(r.Attachments) > 0 {
		if err := json.Unmarshal(r.Attachments, &hw.Attachments); err != nil {
			return homework.Homework{}, errors.Wrap(err, "decoding attachments")
		}
	}
	return hw, nil
}

func (repo homeworkRepository) CreateHomework(ctx context.Context, hw homework.Homework, exec ...core.DBExecutor) (homework.Homework, error) {
	hw.ID = newID()
	if hw.Attachments == nil {
		hw.Attachments = []homework.Attachment{}
	}
	attachments, err := json.Marshal(hw.Attachments)
	if err != nil {
		return homework.Homework{}, errors.Wrap(err, "encoding attachments")
	}
	var due null.String
	if hw.DueDate != nil {
		due = null.StringFrom(dayString(*hw.DueDate, repo.loc))
	}

	_, err = repo.getExec(exec).ExecContext(ctx,
		`INSERT INTO homeworks (id, teacher_id, coaching_id, title, description, batch_time, due_date, attachments, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		hw.ID, hw.TeacherID, hw.CoachingID, hw.Title, hw.Description, hw.BatchTime, due, types.JSONText(attachments), hw.CreatedAt.UTC(),
	)
	if err != nil {
		return homework.Homework{}, errors.Wrap(err, "inserting homework")
	}
	hw.CreatedAt = hw.CreatedAt.UTC()
	return hw, nil
}

func (repo homeworkRepository) GetHomework(ctx context.Context, id string, exec ...core.DBExecutor) (homework.Homework, error) {
	if !isUUID(id) {
		return homework.Homework{}, homework.ErrNotFound
	}
	var row homeworkRow
	err := sqlx.GetContext(ctx, repo.getExec(exec), &row, `SELECT * FROM homeworks WHERE id = $1`, id)
	if err == sql.ErrNoRows {
		return homework.Homework{}, homework.ErrNotFound
	} else if err != nil {
		return homework.Homework{}, errors.Wrap(err, "finding homework")
	}
	return repo.fromRow(row)
}

func (repo homeworkRepository) QueryHomeworks(ctx context.Context, filter homework.QueryFilter, exec ...core.DBExecutor) ([]homework.Homework, error) {
	var w whereClause
	if filter.CoachingID != "" {
		if !isUUID(filter.CoachingID) {
			return []homework.Homework{}, nil
		}
		w.add("coaching_id = ?", filter.CoachingID)
	}
	if filter.TeacherID != "" {
		if !isUUID(filter.TeacherID) {
			return []homework.Homework{}, nil
		}
		w.add("teacher_id = ?", filter.TeacherID)
	}
	q, args, err := rebind("SELECT * FROM homeworks"+w.String()+" ORDER BY created_at DESC", w.args)
	if err != nil {
		return nil, err
	}

	var rows []homeworkRow
	if err = sqlx.SelectContext(ctx, repo.getExec(exec), &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying homeworks")
	}
	homeworks := make([]homework.Homework, 0, len(rows))
	for _, r := range rows {
		hw, err := repo.fromRow(r)
		if err != nil {
			return nil, err
		}
		homeworks = append(homeworks, hw)
	}
	return homeworks, nil
}

func (repo homeworkRepository) DeleteHomework(ctx context.Context, id string, exec ...core.DBExecutor) error {
	if !isUUID(id) {
		return homework.ErrNotFound
	}
	res, err := repo.getExec(exec).ExecContext(ctx, `DELETE FROM homeworks WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting homework")
	}
	return checkAffected(res, homework.ErrNotFound)
}
