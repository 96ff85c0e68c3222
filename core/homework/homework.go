package homework

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/vidyasetu/vidyasetu/core"
)

var ErrNotFound = core.NewNotFoundError("homework")

type FileType string

const (
	FileImage FileType = "image"
	FilePDF   FileType = "pdf"
)

type Attachment struct {
	FileURL  string   `json:"file_url" validate:"required,url"`
	FileType FileType `json:"file_type" validate:"required,oneof=image pdf"`
}

type Homework struct {
	ID          string       `json:"id"`
	TeacherID   string       `json:"teacher_id"`
	CoachingID  string       `json:"coaching_id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	BatchTime   string       `json:"batch_time"`
	DueDate     *time.Time   `json:"due_date"`
	Attachments []Attachment `json:"attachments"`
	CreatedAt   time.Time    `json:"created_at"` // UTC
}

type NewHomework struct {
	Title       string       `json:"title" validate:"required"`
	Description string       `json:"description"`
	BatchTime   string       `json:"batch_time" validate:"required"`
	DueDate     string       `json:"due_date" validate:"omitempty,datetime=2006-01-02"`
	Attachments []Attachment `json:"attachments" validate:"dive"`
}

func (nh *NewHomework) Validate(validate *validator.Validate) error {
	nh.Title = core.CleanString(nh.Title)
	nh.Description = core.CleanString(nh.Description)
	nh.BatchTime = core.CleanString(nh.BatchTime)
	nh.DueDate = core.CleanString(nh.DueDate)
	return validate.Struct(nh)
}

type QueryFilter struct {
	CoachingID string
	TeacherID  string
}

type (
	Repository interface {
		CreateHomework(ctx context.Context, hw Homework, exec ...core.DBExecutor) (Homework, error)
		GetHomework(ctx context.Context, id string, exec ...core.DBExecutor) (Homework, error)
		// QueryHomeworks returns matching homeworks, newest first.
		QueryHomeworks(ctx context.Context, filter QueryFilter, exec ...core.DBExecutor) ([]Homework, error)
		DeleteHomework(ctx context.Context, id string, exec ...core.DBExecutor) error
	}

	// StudentTokens lists the push tokens of a coaching's students attending batchTime.
	StudentTokens interface {
		PushTokens(ctx context.Context, coachingID, batchTime string) ([]string, error)
	}

	Service struct {
		repo     Repository
		students StudentTokens
		notifier core.Notifier
		logger   core.Logger
		validate *validator.Validate
		conf     *core.Config
	}
)

func NewService(repo Repository, students StudentTokens, notifier core.Notifier, logger core.Logger, validate *validator.Validate, conf *core.Config) *Service {
	return &Service{
		repo:     repo,
		students: students,
		notifier: notifier,
		logger:   logger,
		validate: validate,
		conf:     conf,
	}
}

// Create assigns homework to a batch of the identity's coaching and pushes it to the batch's students.
func (svc *Service) Create(ctx context.Context, id core.Identity, nh NewHomework) (Homework, error) {
	coachingID, err := id.TenantID()
	if err != nil {
		return Homework{}, err
	}
	if err = nh.Validate(svc.validate); err != nil {
		return Homework{}, err
	}

	hw := Homework{
		TeacherID:   id.ID,
		CoachingID:  coachingID,
		Title:       nh.Title,
		Description: nh.Description,
		BatchTime:   nh.BatchTime,
		Attachments: nh.Attachments,
		CreatedAt:   core.NowFunc().UTC(),
	}
	if hw.Attachments == nil {
		hw.Attachments = []Attachment{}
	}
	if nh.DueDate != "" {
		due, err := core.ParseDay(nh.DueDate, svc.conf.Location)
		if err != nil {
			return Homework{}, errors.Wrap(err, "parsing due_date")
		}
		hw.DueDate = &due
	}
	if hw, err = svc.repo.CreateHomework(ctx, hw); err != nil {
		return Homework{}, errors.Wrap(err, "creating homework")
	}

	tokens, err := svc.students.PushTokens(ctx, coachingID, hw.BatchTime)
	if err != nil {
		svc.logger.Error("listing push tokens", err, id)
	}
	svc.notifier.Push(core.NewPushMessage(
		"New Homework Assigned",
		hw.Title+" (Batch: "+hw.BatchTime+")",
		map[string]interface{}{"homework_id": hw.ID},
		tokens...,
	))
	return hw, nil
}

// ByTeacher returns the homeworks the identity assigned.
func (svc *Service) ByTeacher(ctx context.Context, id core.Identity) ([]Homework, error) {
	coachingID, err := id.TenantID()
	if err != nil {
		return nil, err
	}
	hws, err := svc.repo.QueryHomeworks(ctx, QueryFilter{CoachingID: coachingID, TeacherID: id.ID})
	return orEmpty(hws), errors.Wrap(err, "querying homeworks")
}

// ForCoaching returns every homework of a coaching.
func (svc *Service) ForCoaching(ctx context.Context, coachingID string) ([]Homework, error) {
	hws, err := svc.repo.QueryHomeworks(ctx, QueryFilter{CoachingID: coachingID})
	return orEmpty(hws), errors.Wrap(err, "querying homeworks")
}

// Delete removes a homework of the identity's coaching.
func (svc *Service) Delete(ctx context.Context, id core.Identity, homeworkID string) error {
	coachingID, err := id.TenantID()
	if err != nil {
		return err
	}
	hw, err := svc.repo.GetHomework(ctx, homeworkID)
	if err != nil {
		return err
	}
	if hw.CoachingID != coachingID {
		return ErrNotFound
	}
	return errors.Wrap(svc.repo.DeleteHomework(ctx, hw.ID), "deleting homework")
}

func orEmpty(hws []Homework) []Homework {
	if hws == nil {
		return []Homework{}
	}
	return hws
}
