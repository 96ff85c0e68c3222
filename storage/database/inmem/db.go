package inmemdb

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/vidyasetu/vidyasetu/core"
	"github.com/vidyasetu/vidyasetu/core/attendance"
	"github.com/vidyasetu/vidyasetu/core/coaching"
	"github.com/vidyasetu/vidyasetu/core/fee"
	"github.com/vidyasetu/vidyasetu/core/homework"
	"github.com/vidyasetu/vidyasetu/core/notice"
	"github.com/vidyasetu/vidyasetu/core/student"
	"github.com/vidyasetu/vidyasetu/core/user"
)

// DB is a process local store. Every table shares one lock so that cascades stay atomic.
type DB struct {
	mu sync.RWMutex

	coachings  map[string]coaching.Coaching
	users      map[string]user.User
	students   map[string]student.Student
	attendance map[string]attendance.Record // {id: record}
	payments   map[string]fee.Payment
	notices    map[string]notice.Notice
	homeworks  map[string]homework.Homework

	txMu sync.Mutex
}

func Open() *DB {
	return &DB{
		coachings:  make(map[string]coaching.Coaching),
		users:      make(map[string]user.User),
		students:   make(map[string]student.Student),
		attendance: make(map[string]attendance.Record),
		payments:   make(map[string]fee.Payment),
		notices:    make(map[string]notice.Notice),
		homeworks:  make(map[string]homework.Homework),
	}
}

var _ core.Transactor = (*DB)(nil)

// WithinTx serializes fn against other transactions. There is no rollback:
// writes made by fn before it fails are kept.
func (db *DB) WithinTx(_ context.Context, fn func(exec core.DBExecutor) error) error {
	db.txMu.Lock()
	defer db.txMu.Unlock()
	return fn(nil)
}

// Reset empties every table.
func (db *DB) Reset() {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.coachings = make(map[string]coaching.Coaching)
	db.users = make(map[string]user.User)
	db.students = make(map[string]student.Student)
	db.attendance = make(map[string]attendance.Record)
	db.payments = make(map[string]fee.Payment)
	db.notices = make(map[string]notice.Notice)
	db.homeworks = make(map[string]homework.Homework)
}

func newID() string {
	return uuid.New().String()
}

func isExcluded(id string, excludedIDs []string) bool {
	for _, excl := range excludedIDs {
		if id == excl {
			return true
		}
	}
	return false
}
