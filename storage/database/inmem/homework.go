package inmemdb

import (
	"context"
	"sort"

	"github.com/vidyasetu/vidyasetu/core"
	"github.com/vidyasetu/vidyasetu/core/homework"
)

type homeworkRepository struct {
	db *DB
}

var _ homework.Repository = (*homeworkRepository)(nil) // interface compliance check

func NewHomeworkRepository(db *DB) *homeworkRepository {
	return &homeworkRepository{db: db}
}

func (repo *homeworkRepository) CreateHomework(_ context.Context, hw homework.Homework, _ ...core.DBExecutor) (homework.Homework, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	hw.ID = newID()
	hw.CreatedAt = hw.CreatedAt.UTC()
	if hw.Attachments == nil {
		hw.Attachments = []homework.Attachment{}
	} else {
		hw.Attachments = append([]homework.Attachment(nil), hw.Attachments...)
	}
	repo.db.homeworks[hw.ID] = hw
	return hw, nil
}

func (repo *homeworkRepository) GetHomework(_ context.Context, id string, _ ...core.DBExecutor) (homework.Homework, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if hw, ok := repo.db.homeworks[id]; ok {
		return hw, nil
	}
	return homework.Homework{}, homework.ErrNotFound
}

func (repo *homeworkRepository) QueryHomeworks(_ context.Context, filter homework.QueryFilter, _ ...core.DBExecutor) ([]homework.Homework, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	homeworks := make([]homework.Homework, 0)
	for _, hw := range repo.db.homeworks {
		if filter.CoachingID != "" && hw.CoachingID != filter.CoachingID {
			continue
		}
		if filter.TeacherID != "" && hw.TeacherID != filter.TeacherID {
			continue
		}
		homeworks = append(homeworks, hw)
	}
	sort.Slice(homeworks, func(i, j int) bool {
		if !homeworks[i].CreatedAt.Equal(homeworks[j].CreatedAt) {
			return homeworks[i].CreatedAt.After(homeworks[j].CreatedAt)
		}
		return homeworks[i].ID < homeworks[j].ID
	})
	return homeworks, nil
}

func (repo *homeworkRepository) DeleteHomework(_ context.Context, id string, _ ...core.DBExecutor) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.homeworks[id]; !ok {
		return homework.ErrNotFound
	}
	delete(repo.db.homeworks, id)
	return nil
}
