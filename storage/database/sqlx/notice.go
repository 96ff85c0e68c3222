package sqlxrepos

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/vidyasetu/vidyasetu/core"
	"github.com/vidyasetu/vidyasetu/core/notice"
)

type noticeRow struct {
	ID           string      `db:"id"`
	Type         string      `db:"type"`
	Target       string      `db:"target"`
	Title        string      `db:"title"`
	Description  string      `db:"description"`
	CoachingID   null.String `db:"coaching_id"`
	CreatedBy    string      `db:"created_by"`
	Version      string      `db:"version"`
	DownloadLink string      `db:"download_link"`
	IsActive     bool        `db:"is_active"`
	CreatedAt    time.Time   `db:"created_at"`
	UpdatedAt    time.Time   `db:"updated_at"`
}

func (r noticeRow) notice() notice.Notice {
	return notice.Notice{
		ID:           r.ID,
		Type:         notice.Type(r.Type),
		Target:       notice.Target(r.Target),
		Title:        r.Title,
		Description:  r.Description,
		CoachingID:   r.CoachingID.String,
		CreatedBy:    r.CreatedBy,
		Version:      r.Version,
		DownloadLink: r.DownloadLink,
		IsActive:     r.IsActive,
		CreatedAt:    r.CreatedAt.UTC(),
		UpdatedAt:    r.UpdatedAt.UTC(),
	}
}

type noticeRepository struct {
	base
}

var _ notice.Repository = (*noticeRepository)(nil) // interface compliance check

func NewNoticeRepository(db *sqlx.DB) *noticeRepository {
	return &noticeRepository{base{db: db}}
}

func (repo noticeRepository) CreateNotice(ctx context.Context, n notice.Notice, exec ...core.DBExecutor) (notice.Notice, error) {
	n.ID = newID()
	row := noticeRow{
		ID:           n.ID,
		Type:         string(n.Type),
		Target:       string(n.Target),
		Title:        n.Title,
		Description:  n.Description,
		CoachingID:   null.NewString(n.CoachingID, n.CoachingID != ""),
		CreatedBy:    n.CreatedBy,
		Version:      n.Version,
		DownloadLink: n.DownloadLink,
		IsActive:     n.IsActive,
		CreatedAt:    n.CreatedAt.UTC(),
		UpdatedAt:    n.UpdatedAt.UTC(),
	}
	q := `INSERT INTO notices (
		id, type, target, title, description, coaching_id, created_by, version, download_link, is_active, created_at, updated_at
	) VALUES (
		:id, :type, :target, :title, :description, :coaching_id, :created_by, :version, :download_link, :is_active, :created_at, :updated_at
	)`
	if _, err := sqlx.NamedExecContext(ctx, repo.getExec(exec), q, row); err != nil {
		return notice.Notice{}, errors.Wrap(err, "inserting notice")
	}
	return row.notice(), nil
}

func (repo noticeRepository) GetNotice(ctx context.Context, id string, exec ...core.DBExecutor) (notice.Notice, error) {
	if !isUUID(id) {
		return notice.Notice{}, notice.ErrNotFound
	}
	var row noticeRow
	err := sqlx.GetContext(ctx, repo.getExec(exec), &row, `SELECT * FROM notices WHERE id = $1`, id)
	if err == sql.ErrNoRows {
		return notice.Notice{}, notice.ErrNotFound
	} else if err != nil {
		return notice.Notice{}, errors.Wrap(err, "finding notice")
	}
	return row.notice(), nil
}

// QueryNotices matches (the coaching's notices OR platform broadcasts) AND the targets AND activity.
func (repo noticeRepository) QueryNotices(ctx context.Context, filter notice.QueryFilter, exec ...core.DBExecutor) ([]notice.Notice, error) {
	var w whereClause

	var scope []string
	var scopeArgs []interface{}
	if filter.CoachingID != "" && isUUID(filter.CoachingID) {
		scope = append(scope, "coaching_id = ?")
		scopeArgs = append(scopeArgs, filter.CoachingID)
	}
	if filter.Broadcasts {
		scope = append(scope, "coaching_id IS NULL")
	}
	switch {
	case len(scope) > 0:
		w.add("("+strings.Join(scope, " OR ")+")", scopeArgs...)
	case filter.CoachingID != "":
		return []notice.Notice{}, nil // malformed coaching id
	}

	if len(filter.Targets) > 0 {
		targets := make([]string, 0, len(filter.Targets))
		for _, t := range filter.Targets {
			targets = append(targets, string(t))
		}
		w.add("target IN (?)", targets)
	}
	if filter.ActiveOnly {
		w.add("is_active")
	}

	q, args, err := rebind("SELECT * FROM notices"+w.String()+" ORDER BY created_at DESC", w.args)
	if err != nil {
		return nil, err
	}
	var rows []noticeRow
	if err = sqlx.SelectContext(ctx, repo.getExec(exec), &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying notices")
	}
	notices := make([]notice.Notice, 0, len(rows))
	for _, r := range rows {
		notices = append(notices, r.notice())
	}
	return notices, nil
}

func (repo noticeRepository) DeleteNotice(ctx context.Context, id string, exec ...core.DBExecutor) error {
	if !isUUID(id) {
		return notice.ErrNotFound
	}
	res, err := repo.getExec(exec).ExecContext(ctx, `DELETE FROM notices WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting notice")
	}
	return checkAffected(res, notice.ErrNotFound)
}
