package inmemdb

import (
	"context"
	"sort"

	"github.com/vidyasetu/vidyasetu/core"
	"github.com/vidyasetu/vidyasetu/core/notice"
)

type noticeRepository struct {
	db *DB
}

var _ notice.Repository = (*noticeRepository)(nil) // interface compliance check

func NewNoticeRepository(db *DB) *noticeRepository {
	return &noticeRepository{db: db}
}

func (repo *noticeRepository) CreateNotice(_ context.Context, n notice.Notice, _ ...core.DBExecutor) (notice.Notice, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	n.ID = newID()
	n.CreatedAt = n.CreatedAt.UTC()
	n.UpdatedAt = n.UpdatedAt.UTC()
	repo.db.notices[n.ID] = n
	return n, nil
}

func (repo *noticeRepository) GetNotice(_ context.Context, id string, _ ...core.DBExecutor) (notice.Notice, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if n, ok := repo.db.notices[id]; ok {
		return n, nil
	}
	return notice.Notice{}, notice.ErrNotFound
}

func matchNotice(n notice.Notice, filter notice.QueryFilter) bool {
	if filter.CoachingID != "" || filter.Broadcasts {
		inScope := (filter.CoachingID != "" && n.CoachingID == filter.CoachingID) ||
			(filter.Broadcasts && n.IsBroadcast())
		if !inScope {
			return false
		}
	}
	if len(filter.Targets) > 0 {
		var targeted bool
		for _, t := range filter.Targets {
			if n.Target == t {
				targeted = true
				break
			}
		}
		if !targeted {
			return false
		}
	}
	return !filter.ActiveOnly || n.IsActive
}

func (repo *noticeRepository) QueryNotices(_ context.Context, filter notice.QueryFilter, _ ...core.DBExecutor) ([]notice.Notice, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	notices := make([]notice.Notice, 0)
	for _, n := range repo.db.notices {
		if matchNotice(n, filter) {
			notices = append(notices, n)
		}
	}
	sort.Slice(notices, func(i, j int) bool {
		if !notices[i].CreatedAt.Equal(notices[j].CreatedAt) {
			return notices[i].CreatedAt.After(notices[j].CreatedAt)
		}
		return notices[i].ID < notices[j].ID
	})
	return notices, nil
}

func (repo *noticeRepository) DeleteNotice(_ context.Context, id string, _ ...core.DBExecutor) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.notices[id]; !ok {
		return notice.ErrNotFound
	}
	delete(repo.db.notices, id)
	return nil
}
