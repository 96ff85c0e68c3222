package user

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"time"

	"github.com/go-playground/validator/v10"
	pkgerrors "github.com/pkg/errors"

	"github.com/vidyasetu/vidyasetu/core"
	"github.com/vidyasetu/vidyasetu/core/coaching"
)

var (
	// errors
	ErrNotFound       = core.NewNotFoundError("user")
	ErrEmailExists    = core.NewDuplicateError("email", errors.New("a user with this email already exists"))
	ErrInvalidOTP     = core.NewValidationError(errInvalidOTP, core.FieldError{Field: "otp", Error: errInvalidOTP.Error()})
	errHasStudents    = errors.New("the teacher's coaching still has students; delete or move them first")
	errNotATeacher    = errors.New("user is not a teacher")
	errCoachingNeeded = errors.New("user is not attached to a coaching")
)

type (
	Repository interface {
		CheckEmailUniqueness(ctx context.Context, email string, excludedIDs []string, exec ...core.DBExecutor) error
		CreateUser(ctx context.Context, usr User, exec ...core.DBExecutor) (User, error)
		GetUser(ctx context.Context, filter GetFilter, exec ...core.DBExecutor) (User, error)
		// QueryUsers applies AND operation on available QueryFilter fields.
		// QueryFilter.Search does a case-insensitive match on one of User.Name, User.Email or User.Subject.
		QueryUsers(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]User, error)
		UpdateUser(ctx context.Context, usr User, exec ...core.DBExecutor) (User, error)
		DeleteUser(ctx context.Context, id string, exec ...core.DBExecutor) error
	}

	// StudentCounter counts the students of a coaching.
	StudentCounter interface {
		CountStudents(ctx context.Context, coachingID string, exec ...core.DBExecutor) (int, error)
	}

	// Teacher is a teacher account with its coaching.
	Teacher struct {
		User
		Coaching     coaching.Coaching `json:"coaching"`
		WhatsappLink string            `json:"whatsapp_link,omitempty"`
	}

	welcomeTeacherData struct {
		Name         string
		Email        string
		Password     string
		CoachingName string
	}

	passwordOTPData struct {
		Name     string
		OTP      string
		ValidFor string
	}

	Service struct {
		db        core.Transactor
		repo      Repository
		coachings coaching.Repository
		students  StudentCounter
		notifier  core.Notifier
		validate  *validator.Validate
		conf      *core.Config
		otp       otpGenerator
	}
)

func NewService(
	db core.Transactor,
	repo Repository,
	coachings coaching.Repository,
	students StudentCounter,
	notifier core.Notifier,
	validate *validator.Validate,
	conf *core.Config,
) *Service {
	return &Service{
		db:        db,
		repo:      repo,
		coachings: coachings,
		students:  students,
		notifier:  notifier,
		validate:  validate,
		conf:      conf,
		otp:       newOTPGenerator(conf.SecretKey, conf.PasswordResetTimeoutDelta),
	}
}

// CreateTeacher onboards a teacher together with their coaching and emails them their credentials.
func (svc *Service) CreateTeacher(ctx context.Context, nt NewTeacher) (Teacher, error) {
	if err := nt.Validate(svc.validate); err != nil {
		return Teacher{}, err
	}
	if err := svc.repo.CheckEmailUniqueness(ctx, nt.Email, nil); err != nil {
		return Teacher{}, err
	}
	if nt.CoachingName == "" {
		nt.CoachingName = coaching.DefaultName(nt.Name)
	}

	now := core.NowFunc().UTC()
	var t Teacher
	err := svc.db.WithinTx(ctx, func(exec core.DBExecutor) error {
		c, err := svc.coachings.CreateCoaching(ctx, coaching.Coaching{
			Name:      nt.CoachingName,
			Address:   nt.CoachingAddress,
			CreatedAt: now,
			UpdatedAt: now,
		}, core.ExecArgs(exec)...)
		if err != nil {
			return pkgerrors.Wrap(err, "creating coaching")
		}

		usr := User{
			Name:           nt.Name,
			Email:          nt.Email,
			Role:           core.RoleTeacher,
			CoachingID:     c.ID,
			Address:        nt.Address,
			Qualifications: nt.Qualifications,
			Subject:        nt.Subject,
			ContactNumber:  nt.ContactNumber,
			WhatsappNumber: nt.WhatsappNumber,
			ProfilePhoto:   nt.ProfilePhoto,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if err = usr.SetPassword(nt.Password); err != nil {
			return err
		}
		if usr, err = svc.repo.CreateUser(ctx, usr, core.ExecArgs(exec)...); err != nil {
			return pkgerrors.Wrap(err, "creating teacher")
		}
		t = Teacher{User: usr, Coaching: c}
		return nil
	})
	if err != nil {
		return Teacher{}, err
	}

	number := t.WhatsappNumber
	if number == "" {
		number = t.ContactNumber
	}
	t.WhatsappLink = core.WhatsAppLink(svc.conf.WhatsappCountryCode, number, fmt.Sprintf(
		"Hello %s, welcome to %s! Your institute %q is ready.\nLogin email: %s\nPassword: %s",
		t.Name, svc.conf.AppName, t.Coaching.Name, t.Email, nt.Password))

	svc.notifier.Email(core.NewEmailMessage(t.Name, t.Email, "Welcome to "+svc.conf.AppName, "welcome_teacher", welcomeTeacherData{
		Name:         t.Name,
		Email:        t.Email,
		Password:     nt.Password,
		CoachingName: t.Coaching.Name,
	}))
	return t, nil
}

// QueryTeachers searches the teachers, newest first unless ordering says otherwise.
func (svc *Service) QueryTeachers(ctx context.Context, search string, ordering []core.DBOrdering) ([]User, error) {
	filter := QueryFilter{Search: search, Roles: []core.Role{core.RoleTeacher}}
	filter.Clean()
	if len(ordering) == 0 {
		ordering = []core.DBOrdering{{Field: "created_at", Ascending: false}}
	}
	return svc.repo.QueryUsers(ctx, &filter, ordering)
}

// TeachersOf returns the public cards of the teachers of a coaching.
func (svc *Service) TeachersOf(ctx context.Context, coachingID string) ([]Contact, error) {
	users, err := svc.repo.QueryUsers(ctx, &QueryFilter{Roles: []core.Role{core.RoleTeacher}, CoachingID: coachingID}, []core.DBOrdering{{Field: "name", Ascending: true}})
	if err != nil {
		return nil, err
	}
	contacts := make([]Contact, 0, len(users))
	for _, u := range users {
		c := u.Contact()
		c.Email = ""
		contacts = append(contacts, c)
	}
	return contacts, nil
}

func (svc *Service) getTeacher(ctx context.Context, id string, exec ...core.DBExecutor) (Teacher, error) {
	usr, err := svc.repo.GetUser(ctx, GetFilter{ID: id}, exec...)
	if err != nil {
		return Teacher{}, err
	}
	if usr.Role != core.RoleTeacher {
		return Teacher{}, ErrNotFound
	}
	c, err := svc.coachings.GetCoaching(ctx, usr.CoachingID, exec...)
	if err != nil && !core.IsNotFound(err) {
		return Teacher{}, pkgerrors.Wrap(err, "getting coaching")
	}
	return Teacher{User: usr, Coaching: c}, nil
}

func (svc *Service) GetTeacher(ctx context.Context, id string) (Teacher, error) {
	return svc.getTeacher(ctx, id)
}

// GetProfile returns a staff User with its coaching, when it has one.
func (svc *Service) GetProfile(ctx context.Context, id string) (Teacher, error) {
	usr, err := svc.repo.GetUser(ctx, GetFilter{ID: id})
	if err != nil {
		return Teacher{}, err
	}
	t := Teacher{User: usr}
	if usr.CoachingID != "" {
		if t.Coaching, err = svc.coachings.GetCoaching(ctx, usr.CoachingID); err != nil && !core.IsNotFound(err) {
			return Teacher{}, pkgerrors.Wrap(err, "getting coaching")
		}
	}
	return t, nil
}

// Update modifies a staff User and, when provided, the name/address of their coaching.
func (svc *Service) Update(ctx context.Context, id string, uu UpdateUser) (Teacher, error) {
	if err := uu.Validate(svc.validate); err != nil {
		return Teacher{}, err
	}

	var t Teacher
	err := svc.db.WithinTx(ctx, func(exec core.DBExecutor) error {
		execs := core.ExecArgs(exec)
		usr, err := svc.repo.GetUser(ctx, GetFilter{ID: id}, execs...)
		if err != nil {
			return err
		}
		if uu.Email != nil && *uu.Email != usr.Email {
			if err = svc.repo.CheckEmailUniqueness(ctx, *uu.Email, []string{usr.ID}, execs...); err != nil {
				return err
			}
		}
		if err = uu.apply(&usr); err != nil {
			return err
		}
		usr.UpdatedAt = core.NowFunc().UTC()
		if usr, err = svc.repo.UpdateUser(ctx, usr, execs...); err != nil {
			return pkgerrors.Wrap(err, "updating user")
		}
		t.User = usr

		if usr.CoachingID == "" {
			if uu.CoachingName != nil || uu.CoachingAddress != nil {
				return core.NewValidationError(errCoachingNeeded, core.FieldError{Field: "coaching_name", Error: errCoachingNeeded.Error()})
			}
			return nil
		}
		c, err := svc.coachings.GetCoaching(ctx, usr.CoachingID, execs...)
		if err != nil {
			return pkgerrors.Wrap(err, "getting coaching")
		}
		if uu.CoachingName != nil || uu.CoachingAddress != nil {
			if uu.CoachingName != nil {
				c.Name = *uu.CoachingName
			}
			if uu.CoachingAddress != nil {
				c.Address = *uu.CoachingAddress
			}
			c.UpdatedAt = usr.UpdatedAt
			if c, err = svc.coachings.UpdateCoaching(ctx, c, execs...); err != nil {
				return pkgerrors.Wrap(err, "updating coaching")
			}
		}
		t.Coaching = c
		return nil
	})
	if err != nil {
		return Teacher{}, err
	}
	return t, nil
}

// UpdateTeacher is Update restricted to teacher accounts.
func (svc *Service) UpdateTeacher(ctx context.Context, id string, uu UpdateUser) (Teacher, error) {
	if _, err := svc.getTeacher(ctx, id); err != nil {
		return Teacher{}, err
	}
	return svc.Update(ctx, id, uu)
}

// DeleteTeacher deletes a teacher and their coaching.
// It refuses while the coaching still has students; the coaching is kept while other staff use it.
func (svc *Service) DeleteTeacher(ctx context.Context, id string) error {
	return svc.db.WithinTx(ctx, func(exec core.DBExecutor) error {
		execs := core.ExecArgs(exec)
		t, err := svc.getTeacher(ctx, id, execs...)
		if err != nil {
			return err
		}
		if t.CoachingID != "" {
			cnt, err := svc.students.CountStudents(ctx, t.CoachingID, execs...)
			if err != nil {
				return pkgerrors.Wrap(err, "counting students")
			}
			if cnt > 0 {
				return core.NewValidationError(errHasStudents)
			}
		}
		if err = svc.repo.DeleteUser(ctx, t.ID, execs...); err != nil {
			return pkgerrors.Wrap(err, "deleting teacher")
		}
		if t.CoachingID == "" {
			return nil
		}
		staff, err := svc.repo.QueryUsers(ctx, &QueryFilter{CoachingID: t.CoachingID}, nil, execs...)
		if err != nil {
			return pkgerrors.Wrap(err, "querying coaching staff")
		}
		if len(staff) == 0 {
			if err = svc.coachings.DeleteCoaching(ctx, t.CoachingID, execs...); err != nil && !core.IsNotFound(err) {
				return pkgerrors.Wrap(err, "deleting coaching")
			}
		}
		return nil
	})
}

func (svc *Service) GetByID(ctx context.Context, id string) (User, error) {
	return svc.repo.GetUser(ctx, GetFilter{ID: id})
}

func (svc *Service) GetByEmail(ctx context.Context, email string) (User, error) {
	return svc.repo.GetUser(ctx, GetFilter{Email: core.CleanString(email, true /* lower */)})
}

func (svc *Service) SetLastLogin(ctx context.Context, usr User) (User, error) {
	usr.LastLogin = core.NowFunc().UTC()
	return svc.repo.UpdateUser(ctx, usr)
}

func (svc *Service) SetPushToken(ctx context.Context, id, token string) error {
	usr, err := svc.repo.GetUser(ctx, GetFilter{ID: id})
	if err != nil {
		return err
	}
	usr.PushToken = core.CleanString(token)
	usr.UpdatedAt = core.NowFunc().UTC()
	_, err = svc.repo.UpdateUser(ctx, usr)
	return err
}

// SetPassword sets a User's password without applying the policy (admin CLI).
func (svc *Service) SetPassword(ctx context.Context, email, pwd string) error {
	usr, err := svc.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if err = usr.SetPassword(pwd); err != nil {
		return err
	}
	usr.UpdatedAt = core.NowFunc().UTC()
	_, err = svc.repo.UpdateUser(ctx, usr)
	return err
}

// PushTokens returns the push tokens of the Users having one of roles.
func (svc *Service) PushTokens(ctx context.Context, roles ...core.Role) ([]string, error) {
	users, err := svc.repo.QueryUsers(ctx, &QueryFilter{Roles: roles}, nil)
	if err != nil {
		return nil, err
	}
	tokens := make([]string, 0, len(users))
	for _, u := range users {
		if u.PushToken != "" {
			tokens = append(tokens, u.PushToken)
		}
	}
	return tokens, nil
}

// DeveloperContact returns the public card of the platform's SUPER_ADMIN.
func (svc *Service) DeveloperContact(ctx context.Context) (Contact, error) {
	usr, err := svc.repo.GetUser(ctx, GetFilter{Role: core.RoleSuperAdmin})
	if err != nil {
		return Contact{}, err
	}
	return usr.Contact(), nil
}

// EnsureSuperAdmin creates the SUPER_ADMIN unless one already exists. It is safe to run on every boot.
func (svc *Service) EnsureSuperAdmin(ctx context.Context, na NewSuperAdmin) (usr User, created bool, err error) {
	if na.Name == "" {
		na.Name = "Super Admin"
	}
	if err = na.Validate(svc.validate); err != nil {
		return User{}, false, err
	}

	err = svc.db.WithinTx(ctx, func(exec core.DBExecutor) error {
		execs := core.ExecArgs(exec)
		usr, err = svc.repo.GetUser(ctx, GetFilter{Role: core.RoleSuperAdmin}, execs...)
		if err == nil {
			return nil
		} else if !core.IsNotFound(err) {
			return pkgerrors.Wrap(err, "finding super admin")
		}

		if err = svc.repo.CheckEmailUniqueness(ctx, na.Email, nil, execs...); err != nil {
			return err
		}
		now := core.NowFunc().UTC()
		usr = User{Name: na.Name, Email: na.Email, Role: core.RoleSuperAdmin, CreatedAt: now, UpdatedAt: now}
		if err = usr.SetPassword(na.Password); err != nil {
			return err
		}
		if usr, err = svc.repo.CreateUser(ctx, usr, execs...); err != nil {
			return pkgerrors.Wrap(err, "creating super admin")
		}
		created = true
		return nil
	})
	return usr, created, err
}

// RequestPasswordReset emails a one time code to the User with this email.
func (svc *Service) RequestPasswordReset(ctx context.Context, email string) error {
	usr, err := svc.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	svc.notifier.Email(&core.EmailMessage{
		To:           []mail.Address{{Name: usr.Name, Address: usr.Email}},
		Subject:      "Password reset code",
		TemplateName: "password_otp",
		TemplateData: passwordOTPData{
			Name:     usr.Name,
			OTP:      svc.otp.makeOTP(usr),
			ValidFor: svc.otp.step.Round(time.Minute).String(),
		},
	})
	return nil
}

func (svc *Service) ResetPassword(ctx context.Context, rp ResetUserPassword) error {
	if err := rp.Validate(svc.validate); err != nil {
		return err
	}
	usr, err := svc.GetByEmail(ctx, rp.Email)
	if err != nil {
		if core.IsNotFound(err) {
			return ErrInvalidOTP
		}
		return err
	}
	if err = svc.otp.verifyOTP(usr, rp.OTP); err != nil {
		return ErrInvalidOTP
	}
	if err = usr.SetPassword(rp.NewPassword); err != nil {
		return err
	}
	usr.UpdatedAt = core.NowFunc().UTC()
	_, err = svc.repo.UpdateUser(ctx, usr)
	return err
}
