package notice

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/vidyasetu/vidyasetu/core"
)

var ErrNotFound = core.NewNotFoundError("notice")

type (
	Repository interface {
		CreateNotice(ctx context.Context, n Notice, exec ...core.DBExecutor) (Notice, error)
		GetNotice(ctx context.Context, id string, exec ...core.DBExecutor) (Notice, error)
		// QueryNotices returns matching notices, newest first.
		QueryNotices(ctx context.Context, filter QueryFilter, exec ...core.DBExecutor) ([]Notice, error)
		DeleteNotice(ctx context.Context, id string, exec ...core.DBExecutor) error
	}

	// StudentTokens lists the push tokens of students; an empty coachingID means every coaching.
	StudentTokens interface {
		PushTokens(ctx context.Context, coachingID, batchTime string) ([]string, error)
	}

	// StaffTokens lists the push tokens of staff users having one of roles.
	StaffTokens interface {
		PushTokens(ctx context.Context, roles ...core.Role) ([]string, error)
	}

	Service struct {
		repo     Repository
		students StudentTokens
		staff    StaffTokens
		notifier core.Notifier
		logger   core.Logger
		validate *validator.Validate
	}
)

func NewService(
	repo Repository,
	students StudentTokens,
	staff StaffTokens,
	notifier core.Notifier,
	logger core.Logger,
	validate *validator.Validate,
) *Service {
	return &Service{
		repo:     repo,
		students: students,
		staff:    staff,
		notifier: notifier,
		logger:   logger,
		validate: validate,
	}
}

// ForViewer returns the notices visible to the identity.
func (svc *Service) ForViewer(ctx context.Context, id core.Identity) ([]Notice, error) {
	if !id.HasTenant() {
		return []Notice{}, nil
	}
	candidates, err := svc.repo.QueryNotices(ctx, QueryFilter{CoachingID: id.CoachingID, Broadcasts: true, ActiveOnly: true})
	if err != nil {
		return nil, errors.Wrap(err, "querying notices")
	}
	return Resolve(id, candidates), nil
}

// Latest is ForViewer limited to the n newest notices.
func (svc *Service) Latest(ctx context.Context, id core.Identity, n int) ([]Notice, error) {
	notices, err := svc.ForViewer(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(notices) > n {
		notices = notices[:n]
	}
	return notices, nil
}

// CreateTenantNotice posts a notice to the identity's coaching and pushes it to its students.
func (svc *Service) CreateTenantNotice(ctx context.Context, id core.Identity, nn NewNotice) (Notice, error) {
	coachingID, err := id.TenantID()
	if err != nil {
		return Notice{}, err
	}
	if err = nn.Validate(svc.validate); err != nil {
		return Notice{}, err
	}

	now := core.NowFunc().UTC()
	n, err := svc.repo.CreateNotice(ctx, Notice{
		Type:        TypeNotice,
		Target:      nn.Target,
		Title:       nn.Title,
		Description: nn.Description,
		CoachingID:  coachingID,
		CreatedBy:   id.ID,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		return Notice{}, errors.Wrap(err, "creating notice")
	}

	tokens, err := svc.students.PushTokens(ctx, coachingID, "")
	if err != nil {
		svc.logger.Error("listing push tokens", err, id)
	}
	svc.notifier.Push(core.NewPushMessage("Notice: "+n.Title, n.Description, map[string]interface{}{"screen": "NoticeBoard"}, tokens...))
	return n, nil
}

// CreateBroadcast posts a platform wide notice and pushes it to its target audience.
func (svc *Service) CreateBroadcast(ctx context.Context, id core.Identity, nb NewBroadcast) (Notice, error) {
	if !id.IsSuperAdmin() {
		return Notice{}, core.ErrPermissionDenied
	}
	if err := nb.Validate(svc.validate); err != nil {
		return Notice{}, err
	}

	now := core.NowFunc().UTC()
	n, err := svc.repo.CreateNotice(ctx, Notice{
		Type:         nb.Type,
		Target:       nb.Target,
		Title:        nb.Title,
		Description:  nb.Description,
		CreatedBy:    id.ID,
		Version:      nb.Version,
		DownloadLink: nb.DownloadLink,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return Notice{}, errors.Wrap(err, "creating broadcast")
	}

	tokens := svc.broadcastTokens(ctx, id, n.Target)
	title := "Notice: " + n.Title
	if n.Type == TypeUpdate {
		title = "App Update: " + n.Title
	}
	svc.notifier.Push(core.NewPushMessage(title, n.Description, map[string]interface{}{
		"type":          n.Type,
		"version":       n.Version,
		"download_link": n.DownloadLink,
	}, tokens...))
	return n, nil
}

func (svc *Service) broadcastTokens(ctx context.Context, id core.Identity, target Target) []string {
	var tokens []string
	if target == TargetTeacher || target == TargetAll {
		roles := []core.Role{core.RoleTeacher}
		if target == TargetAll {
			roles = []core.Role{core.RoleSuperAdmin, core.RoleAdmin, core.RoleTeacher}
		}
		staff, err := svc.staff.PushTokens(ctx, roles...)
		if err != nil {
			svc.logger.Error("listing staff push tokens", err, id)
		}
		tokens = append(tokens, staff...)
	}
	if target == TargetStudent || target == TargetAll {
		students, err := svc.students.PushTokens(ctx, "", "")
		if err != nil {
			svc.logger.Error("listing student push tokens", err, id)
		}
		tokens = append(tokens, students...)
	}
	return tokens
}

// TenantNotices returns every notice of the identity's coaching.
func (svc *Service) TenantNotices(ctx context.Context, id core.Identity) ([]Notice, error) {
	coachingID, err := id.TenantID()
	if err != nil {
		return nil, err
	}
	notices, err := svc.repo.QueryNotices(ctx, QueryFilter{CoachingID: coachingID})
	return orEmpty(notices), errors.Wrap(err, "querying notices")
}

// TeacherBroadcasts returns the active platform broadcasts meant for teachers.
func (svc *Service) TeacherBroadcasts(ctx context.Context) ([]Notice, error) {
	notices, err := svc.repo.QueryNotices(ctx, QueryFilter{
		Broadcasts: true,
		Targets:    []Target{TargetTeacher, TargetAll},
		ActiveOnly: true,
	})
	return orEmpty(notices), errors.Wrap(err, "querying broadcasts")
}

// AllBroadcasts returns every platform broadcast.
func (svc *Service) AllBroadcasts(ctx context.Context, id core.Identity) ([]Notice, error) {
	if !id.IsSuperAdmin() {
		return nil, core.ErrPermissionDenied
	}
	notices, err := svc.repo.QueryNotices(ctx, QueryFilter{Broadcasts: true})
	return orEmpty(notices), errors.Wrap(err, "querying broadcasts")
}

// Delete removes a notice. Tenant notices may only be deleted by staff of their coaching,
// broadcasts only by the SUPER_ADMIN. Notices out of reach are reported as not found.
func (svc *Service) Delete(ctx context.Context, id core.Identity, noticeID string) error {
	n, err := svc.repo.GetNotice(ctx, noticeID)
	if err != nil {
		return err
	}
	if n.IsBroadcast() {
		if !id.IsSuperAdmin() {
			return ErrNotFound
		}
	} else if !id.Role.IsStaff() || id.CoachingID != n.CoachingID {
		return ErrNotFound
	}
	return errors.Wrap(svc.repo.DeleteNotice(ctx, n.ID), "deleting notice")
}

func orEmpty(notices []Notice) []Notice {
	if notices == nil {
		return []Notice{}
	}
	return notices
}
