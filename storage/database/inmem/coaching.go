package inmemdb

import (
	"context"

	"github.com/vidyasetu/vidyasetu/core"
	"github.com/vidyasetu/vidyasetu/core/coaching"
)

type coachingRepository struct {
	db *DB
}

var _ coaching.Repository = (*coachingRepository)(nil) // interface compliance check

func NewCoachingRepository(db *DB) *coachingRepository {
	return &coachingRepository{db: db}
}

func (repo *coachingRepository) CreateCoaching(_ context.Context, c coaching.Coaching, _ ...core.DBExecutor) (coaching.Coaching, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	c.ID = newID()
	c.CreatedAt = c.CreatedAt.UTC()
	c.UpdatedAt = c.UpdatedAt.UTC()
	repo.db.coachings[c.ID] = c
	return c, nil
}

func (repo *coachingRepository) GetCoaching(_ context.Context, id string, _ ...core.DBExecutor) (coaching.Coaching, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if c, ok := repo.db.coachings[id]; ok {
		return c, nil
	}
	return coaching.Coaching{}, coaching.ErrNotFound
}

func (repo *coachingRepository) UpdateCoaching(_ context.Context, c coaching.Coaching, _ ...core.DBExecutor) (coaching.Coaching, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	orig, ok := repo.db.coachings[c.ID]
	if !ok {
		return coaching.Coaching{}, coaching.ErrNotFound
	}
	orig.Name = c.Name
	orig.Address = c.Address
	orig.UpdatedAt = c.UpdatedAt.UTC()
	repo.db.coachings[c.ID] = orig
	return orig, nil
}

// DeleteCoaching cascades like the postgres schema does.
func (repo *coachingRepository) DeleteCoaching(_ context.Context, id string, _ ...core.DBExecutor) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.coachings[id]; !ok {
		return coaching.ErrNotFound
	}
	delete(repo.db.coachings, id)

	for sid, s := range repo.db.students {
		if s.CoachingID == id {
			repo.db.deleteStudent(sid)
		}
	}
	for uid, u := range repo.db.users {
		if u.CoachingID == id {
			u.CoachingID = ""
			repo.db.users[uid] = u
		}
	}
	for nid, n := range repo.db.notices {
		if n.CoachingID == id {
			delete(repo.db.notices, nid)
		}
	}
	for hid, hw := range repo.db.homeworks {
		if hw.CoachingID == id {
			delete(repo.db.homeworks, hid)
		}
	}
	return nil
}
