package coaching

import (
	"context"
	"time"

	"github.com/vidyasetu/vidyasetu/core"
)

var ErrNotFound = core.NewNotFoundError("coaching")

// Coaching is a tenant: the institute owning students, staff, attendance and fees.
type Coaching struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Address   string    `json:"address"`
	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

// DefaultName is the name given to a teacher's institute when none is provided.
func DefaultName(teacherName string) string {
	return teacherName + "'s Institution"
}

type Repository interface {
	CreateCoaching(ctx context.Context, c Coaching, exec ...core.DBExecutor) (Coaching, error)
	GetCoaching(ctx context.Context, id string, exec ...core.DBExecutor) (Coaching, error)
	UpdateCoaching(ctx context.Context, c Coaching, exec ...core.DBExecutor) (Coaching, error)
	DeleteCoaching(ctx context.Context, id string, exec ...core.DBExecutor) error
}
