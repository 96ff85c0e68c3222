package notice

import (
	"sort"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/vidyasetu/vidyasetu/core"
)

type (
	Type   string
	Target string
)

const (
	TypeNotice Type = "NOTICE"
	TypeUpdate Type = "UPDATE"

	TargetTeacher Target = "TEACHER"
	TargetStudent Target = "STUDENT"
	TargetAll     Target = "ALL"
)

// Notice is a tenant notice, or a platform broadcast when CoachingID is empty.
type Notice struct {
	ID           string    `json:"id"`
	Type         Type      `json:"type"`
	Target       Target    `json:"target"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	CoachingID   string    `json:"coaching_id,omitempty"`
	CreatedBy    string    `json:"created_by"`
	Version      string    `json:"version,omitempty"`
	DownloadLink string    `json:"download_link,omitempty"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"` // UTC
	UpdatedAt    time.Time `json:"updated_at"` // UTC
}

func (n Notice) IsBroadcast() bool { return n.CoachingID == "" }

func (n Notice) targets(role core.Role) bool {
	return n.Target == TargetAll || string(n.Target) == string(role)
}

// Resolve returns the notices viewer may see, newest first: the active notices of their coaching
// and the active platform broadcasts, all targeted at their role or at everyone.
// A viewer without a coaching sees nothing.
func Resolve(viewer core.Identity, notices []Notice) []Notice {
	visible := make([]Notice, 0, len(notices))
	if !viewer.HasTenant() {
		return visible
	}
	for _, n := range notices {
		if !n.IsActive || !n.targets(viewer.Role) {
			continue
		}
		if n.IsBroadcast() || n.CoachingID == viewer.CoachingID {
			visible = append(visible, n)
		}
	}
	sortNewestFirst(visible)
	return visible
}

func sortNewestFirst(notices []Notice) {
	sort.SliceStable(notices, func(i, j int) bool { return notices[i].CreatedAt.After(notices[j].CreatedAt) })
}

// NewNotice is a teacher notice to their coaching.
type NewNotice struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description" validate:"required"`
	Target      Target `json:"target" validate:"omitempty,oneof=STUDENT ALL"` // defaults to STUDENT
}

func (nn *NewNotice) Validate(validate *validator.Validate) error {
	nn.Title = core.CleanString(nn.Title)
	nn.Description = core.CleanString(nn.Description)
	if nn.Target == "" {
		nn.Target = TargetStudent
	}
	return validate.Struct(nn)
}

// NewBroadcast is a platform wide notice or app update announcement.
type NewBroadcast struct {
	Type         Type   `json:"type" validate:"omitempty,oneof=NOTICE UPDATE"`         // defaults to NOTICE
	Target       Target `json:"target" validate:"omitempty,oneof=TEACHER STUDENT ALL"` // defaults to ALL
	Title        string `json:"title" validate:"required"`
	Description  string `json:"description" validate:"required"`
	Version      string `json:"version"`
	DownloadLink string `json:"download_link" validate:"omitempty,url"`
}

func (nb *NewBroadcast) Validate(validate *validator.Validate) error {
	nb.Title = core.CleanString(nb.Title)
	nb.Description = core.CleanString(nb.Description)
	nb.Version = core.CleanString(nb.Version)
	nb.DownloadLink = core.CleanString(nb.DownloadLink)
	if nb.Type == "" {
		nb.Type = TypeNotice
	}
	if nb.Target == "" {
		nb.Target = TargetAll
	}
	return validate.Struct(nb)
}

type QueryFilter struct {
	CoachingID string   // "": any
	Broadcasts bool     // platform broadcasts, OR-ed with CoachingID
	Targets    []Target // empty: any
	ActiveOnly bool
}
