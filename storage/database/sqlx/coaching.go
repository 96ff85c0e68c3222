package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/vidyasetu/vidyasetu/core"
	"github.com/vidyasetu/vidyasetu/core/coaching"
)

type coachingRow struct {
	ID        string    `db:"id"`
	Name      string    `db:"name"`
	Address   string    `db:"address"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (r coachingRow) coaching() coaching.Coaching {
	return coaching.Coaching{
		ID:        r.ID,
		Name:      r.Name,
		Address:   r.Address,
		CreatedAt: r.CreatedAt.UTC(),
		UpdatedAt: r.UpdatedAt.UTC(),
	}
}

type coachingRepository struct {
	base
}

var _ coaching.Repository = (*coachingRepository)(nil) // interface compliance check

func NewCoachingRepository(db *sqlx.DB) *coachingRepository {
	return &coachingRepository{base{db: db}}
}

func (repo coachingRepository) CreateCoaching(ctx context.Context, c coaching.Coaching, exec ...core.DBExecutor) (coaching.Coaching, error) {
	c.ID = newID()
	row := coachingRow{ID: c.ID, Name: c.Name, Address: c.Address, CreatedAt: c.CreatedAt.UTC(), UpdatedAt: c.UpdatedAt.UTC()}
	q := `INSERT INTO coachings (id, name, address, created_at, updated_at)
		VALUES (:id, :name, :address, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, repo.getExec(exec), q, row); err != nil {
		return coaching.Coaching{}, errors.Wrap(err, "inserting coaching")
	}
	return row.coaching(), nil
}

func (repo coachingRepository) GetCoaching(ctx context.Context, id string, exec ...core.DBExecutor) (coaching.Coaching, error) {
	if !isUUID(id) {
		return coaching.Coaching{}, coaching.ErrNotFound
	}
	var row coachingRow
	err := sqlx.GetContext(ctx, repo.getExec(exec), &row, `SELECT * FROM coachings WHERE id = $1`, id)
	if err == sql.ErrNoRows {
		return coaching.Coaching{}, coaching.ErrNotFound
	} else if err != nil {
		return coaching.Coaching{}, errors.Wrap(err, "finding coaching")
	}
	return row.coaching(), nil
}

func (repo coachingRepository) UpdateCoaching(ctx context.Context, c coaching.Coaching, exec ...core.DBExecutor) (coaching.Coaching, error) {
	row := coachingRow{ID: c.ID, Name: c.Name, Address: c.Address, CreatedAt: c.CreatedAt.UTC(), UpdatedAt: c.UpdatedAt.UTC()}
	q := `UPDATE coachings SET name = :name, address = :address, updated_at = :updated_at WHERE id = :id`
	res, err := sqlx.NamedExecContext(ctx, repo.getExec(exec), q, row)
	if err != nil {
		return coaching.Coaching{}, errors.Wrap(err, "updating coaching")
	}
	if err = checkAffected(res, coaching.ErrNotFound); err != nil {
		return coaching.Coaching{}, err
	}
	return row.coaching(), nil
}

func (repo coachingRepository) DeleteCoaching(ctx context.Context, id string, exec ...core.DBExecutor) error {
	if !isUUID(id) {
		return coaching.ErrNotFound
	}
	res, err := repo.getExec(exec).ExecContext(ctx, `DELETE FROM coachings WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting coaching")
	}
	return checkAffected(res, coaching.ErrNotFound)
}
