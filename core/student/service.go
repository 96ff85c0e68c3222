package student

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	pkgerrors "github.com/pkg/errors"

	"github.com/vidyasetu/vidyasetu/core"
	"github.com/vidyasetu/vidyasetu/core/coaching"
)

var (
	// errors
	ErrNotFound      = core.NewNotFoundError("student")
	ErrLoginIDExists = core.NewDuplicateError("student_login_id", errors.New("this student login ID is already taken"))
)

type (
	Repository interface {
		CheckLoginIDUniqueness(ctx context.Context, loginID string, excludedIDs []string, exec ...core.DBExecutor) error
		CreateStudent(ctx context.Context, std Student, exec ...core.DBExecutor) (Student, error)
		GetStudent(ctx context.Context, filter GetFilter, exec ...core.DBExecutor) (Student, error)
		// QueryStudents applies AND operation on available QueryFilter fields.
		// QueryFilter.Search does a case-insensitive match on one of Student.Name, Student.LoginID or Student.MobileNumber.
		// QueryFilter.BatchTime does a case-insensitive match on Student.BatchTime.
		QueryStudents(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]Student, error)
		CountStudents(ctx context.Context, coachingID string, exec ...core.DBExecutor) (int, error)
		UpdateStudent(ctx context.Context, std Student, exec ...core.DBExecutor) (Student, error)
		// DeleteStudent also deletes the student's attendance and fee records.
		DeleteStudent(ctx context.Context, id string, exec ...core.DBExecutor) error
	}

	// Enrolled is a freshly created Student with the WhatsApp link carrying their credentials.
	Enrolled struct {
		Student
		WhatsappLink string `json:"whatsapp_link,omitempty"`
	}

	welcomeStudentData struct {
		Name         string
		CoachingName string
		LoginID      string
		Password     string
		BatchTime    string
	}

	Service struct {
		repo      Repository
		coachings coaching.Repository
		notifier  core.Notifier
		validate  *validator.Validate
		conf      *core.Config
	}
)

func NewService(repo Repository, coachings coaching.Repository, notifier core.Notifier, validate *validator.Validate, conf *core.Config) *Service {
	return &Service{
		repo:      repo,
		coachings: coachings,
		notifier:  notifier,
		validate:  validate,
		conf:      conf,
	}
}

// Create enrolls a student in the identity's coaching.
func (svc *Service) Create(ctx context.Context, id core.Identity, ns NewStudent) (Enrolled, error) {
	coachingID, err := id.TenantID()
	if err != nil {
		return Enrolled{}, err
	}
	if err = ns.Validate(svc.validate); err != nil {
		return Enrolled{}, err
	}
	c, err := svc.coachings.GetCoaching(ctx, coachingID)
	if err != nil {
		return Enrolled{}, pkgerrors.Wrap(err, "getting coaching")
	}
	if err = svc.repo.CheckLoginIDUniqueness(ctx, ns.LoginID, nil); err != nil {
		return Enrolled{}, err
	}

	joined, err := core.ParseDay(ns.JoiningDate, svc.conf.Location)
	if err != nil {
		return Enrolled{}, pkgerrors.Wrap(err, "parsing joining_date")
	}
	now := core.NowFunc().UTC()
	std := Student{
		CoachingID:   coachingID,
		Name:         ns.Name,
		FatherName:   ns.FatherName,
		CollegeName:  ns.CollegeName,
		Address:      ns.Address,
		MobileNumber: ns.MobileNumber,
		Email:        ns.Email,
		ParentMobile: ns.ParentMobile,
		LoginID:      ns.LoginID,
		ProfilePhoto: ns.ProfilePhoto,
		BatchTime:    ns.BatchTime,
		Session:      ns.Session,
		JoiningDate:  joined,
		MonthlyFees:  *ns.MonthlyFees,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if id.Role == core.RoleTeacher {
		std.TeacherID = id.ID
	}
	if err = std.SetPassword(ns.Password); err != nil {
		return Enrolled{}, err
	}
	if std, err = svc.repo.CreateStudent(ctx, std); err != nil {
		return Enrolled{}, pkgerrors.Wrap(err, "creating student")
	}

	e := Enrolled{Student: std}
	number := std.MobileNumber
	if number == "" {
		number = std.ParentMobile
	}
	e.WhatsappLink = core.WhatsAppLink(svc.conf.WhatsappCountryCode, number, fmt.Sprintf(
		"Hello %s, welcome to %s!\nLogin ID: %s\nPassword: %s\nBatch: %s",
		std.Name, c.Name, std.LoginID, ns.Password, std.BatchTime))

	if std.Email != "" {
		svc.notifier.Email(core.NewEmailMessage(std.Name, std.Email, "Welcome to "+c.Name, "welcome_student", welcomeStudentData{
			Name:         std.Name,
			CoachingName: c.Name,
			LoginID:      std.LoginID,
			Password:     ns.Password,
			BatchTime:    std.BatchTime,
		}))
	}
	return e, nil
}

// List returns the students of the identity's coaching, newest first unless ordering says otherwise.
func (svc *Service) List(ctx context.Context, id core.Identity, filter QueryFilter, ordering []core.DBOrdering) ([]Student, error) {
	coachingID, err := id.TenantID()
	if err != nil {
		return nil, err
	}
	filter.Clean()
	filter.CoachingID = coachingID
	if len(ordering) == 0 {
		ordering = []core.DBOrdering{{Field: "created_at", Ascending: false}}
	}
	return svc.repo.QueryStudents(ctx, &filter, ordering)
}

// Get returns a student of the identity's coaching.
func (svc *Service) Get(ctx context.Context, id core.Identity, studentID string) (Student, error) {
	coachingID, err := id.TenantID()
	if err != nil {
		return Student{}, err
	}
	return svc.repo.GetStudent(ctx, GetFilter{ID: studentID, CoachingID: coachingID})
}

func (svc *Service) Update(ctx context.Context, id core.Identity, studentID string, us UpdateStudent) (Student, error) {
	if err := us.Validate(svc.validate); err != nil {
		return Student{}, err
	}
	std, err := svc.Get(ctx, id, studentID)
	if err != nil {
		return Student{}, err
	}
	if us.LoginID != nil && *us.LoginID != std.LoginID {
		if err = svc.repo.CheckLoginIDUniqueness(ctx, *us.LoginID, []string{std.ID}); err != nil {
			return Student{}, err
		}
	}
	if err = us.apply(&std, svc.conf.Location); err != nil {
		return Student{}, err
	}
	std.UpdatedAt = core.NowFunc().UTC()
	std, err = svc.repo.UpdateStudent(ctx, std)
	return std, pkgerrors.Wrap(err, "updating student")
}

// Delete removes a student of the identity's coaching with their attendance and fee records.
func (svc *Service) Delete(ctx context.Context, id core.Identity, studentID string) error {
	std, err := svc.Get(ctx, id, studentID)
	if err != nil {
		return err
	}
	return svc.repo.DeleteStudent(ctx, std.ID)
}

func (svc *Service) GetByID(ctx context.Context, studentID string) (Student, error) {
	return svc.repo.GetStudent(ctx, GetFilter{ID: studentID})
}

// GetByLoginIDOrEmail looks a student up by login ID first, then by email.
func (svc *Service) GetByLoginIDOrEmail(ctx context.Context, username string) (Student, error) {
	username = core.CleanString(username)
	std, err := svc.repo.GetStudent(ctx, GetFilter{LoginID: username})
	if core.IsNotFound(err) {
		return svc.repo.GetStudent(ctx, GetFilter{Email: core.CleanString(username, true /* lower */)})
	}
	return std, err
}

func (svc *Service) SetPushToken(ctx context.Context, studentID, token string) error {
	std, err := svc.GetByID(ctx, studentID)
	if err != nil {
		return err
	}
	std.PushToken = core.CleanString(token)
	std.UpdatedAt = core.NowFunc().UTC()
	_, err = svc.repo.UpdateStudent(ctx, std)
	return err
}

// SetPassword sets a Student's password without applying the policy (admin CLI).
func (svc *Service) SetPassword(ctx context.Context, username, pwd string) error {
	std, err := svc.GetByLoginIDOrEmail(ctx, username)
	if err != nil {
		return err
	}
	if err = std.SetPassword(pwd); err != nil {
		return err
	}
	std.UpdatedAt = core.NowFunc().UTC()
	_, err = svc.repo.UpdateStudent(ctx, std)
	return err
}

// PushTokens returns the push tokens of a coaching's students; all coachings when coachingID is empty.
// A non-empty batchTime only keeps the students of that batch.
func (svc *Service) PushTokens(ctx context.Context, coachingID, batchTime string) ([]string, error) {
	students, err := svc.repo.QueryStudents(ctx, &QueryFilter{CoachingID: coachingID, BatchTime: batchTime}, nil)
	if err != nil {
		return nil, err
	}
	tokens := make([]string, 0, len(students))
	for _, s := range students {
		if s.PushToken != "" {
			tokens = append(tokens, s.PushToken)
		}
	}
	return tokens, nil
}
