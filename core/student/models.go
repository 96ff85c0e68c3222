package student

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/vidyasetu/vidyasetu/core"
)

var errMonthlyFeesRequired = errors.New("this field is required")

type Student struct {
	ID           string          `json:"id"`
	CoachingID   string          `json:"coaching_id"`
	TeacherID    string          `json:"teacher_id,omitempty"`
	Name         string          `json:"name"`
	FatherName   string          `json:"father_name"`
	CollegeName  string          `json:"college_name"`
	Address      string          `json:"address"`
	MobileNumber string          `json:"mobile_number"`
	Email        string          `json:"email"`
	ParentMobile string          `json:"parent_mobile"`
	LoginID      string          `json:"student_login_id"`
	ProfilePhoto string          `json:"profile_photo"`
	BatchTime    string          `json:"batch_time"`
	Session      string          `json:"session"`
	JoiningDate  time.Time       `json:"joining_date"`
	MonthlyFees  decimal.Decimal `json:"monthly_fees"`
	PushToken    string          `json:"-"`
	PasswordHash []byte          `json:"-"`
	CreatedAt    time.Time       `json:"created_at"` // UTC
	UpdatedAt    time.Time       `json:"updated_at"` // UTC
}

func (s *Student) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	s.PasswordHash = hash
	return nil
}

func (s *Student) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(s.PasswordHash, []byte(pwd))
}

func (s Student) Identity() core.Identity {
	return core.Identity{ID: s.ID, Role: core.RoleStudent, CoachingID: s.CoachingID}
}

// NewStudent contains information needed to enroll a student.
type NewStudent struct {
	Name         string           `json:"name" validate:"required"`
	FatherName   string           `json:"father_name"`
	CollegeName  string           `json:"college_name"`
	Address      string           `json:"address"`
	MobileNumber string           `json:"mobile_number" validate:"omitempty,mobile"`
	Email        string           `json:"email" validate:"omitempty,email"`
	ParentMobile string           `json:"parent_mobile" validate:"omitempty,mobile"`
	LoginID      string           `json:"student_login_id" validate:"required,min=3,max=64,alphanum_"`
	Password     string           `json:"password" validate:"required"`
	ProfilePhoto string           `json:"profile_photo" validate:"omitempty,url"`
	BatchTime    string           `json:"batch_time"`
	Session      string           `json:"session"`
	JoiningDate  string           `json:"joining_date" validate:"omitempty,datetime=2006-01-02"` // defaults to today
	MonthlyFees  *decimal.Decimal `json:"monthly_fees" validate:"omitnil,gte=0,money"`
}

func (ns *NewStudent) Validate(validate *validator.Validate) error {
	ns.Name = core.CleanString(ns.Name)
	ns.Email = core.CleanString(ns.Email, true /* lower */)
	ns.LoginID = core.CleanString(ns.LoginID)
	ns.MobileNumber = core.CleanString(ns.MobileNumber)
	ns.ParentMobile = core.CleanString(ns.ParentMobile)
	ns.BatchTime = core.CleanString(ns.BatchTime)
	ns.Session = core.CleanString(ns.Session)
	ns.JoiningDate = core.CleanString(ns.JoiningDate)
	if err := validate.Struct(ns); err != nil {
		return err
	}
	if ns.MonthlyFees == nil {
		return core.NewValidationError(nil, core.FieldError{Field: "monthly_fees", Error: errMonthlyFeesRequired.Error()})
	}
	return nil
}

// UpdateStudent defines what information may be provided to modify an existing Student.
type UpdateStudent struct {
	Name         *string          `json:"name" validate:"omitnil,min=1"`
	FatherName   *string          `json:"father_name"`
	CollegeName  *string          `json:"college_name"`
	Address      *string          `json:"address"`
	MobileNumber *string          `json:"mobile_number" validate:"omitempty,mobile"`
	Email        *string          `json:"email" validate:"omitempty,email"`
	ParentMobile *string          `json:"parent_mobile" validate:"omitempty,mobile"`
	LoginID      *string          `json:"student_login_id" validate:"omitnil,min=3,max=64,alphanum_"`
	Password     *string          `json:"password"`
	ProfilePhoto *string          `json:"profile_photo" validate:"omitempty,url"`
	BatchTime    *string          `json:"batch_time"`
	Session      *string          `json:"session"`
	JoiningDate  *string          `json:"joining_date" validate:"omitnil,datetime=2006-01-02"`
	MonthlyFees  *decimal.Decimal `json:"monthly_fees" validate:"omitnil,gte=0,money"`
}

func (us *UpdateStudent) Validate(validate *validator.Validate) error {
	clean := func(s *string, lower ...bool) {
		if s != nil {
			*s = core.CleanString(*s, lower...)
		}
	}
	clean(us.Name)
	clean(us.Email, true /* lower */)
	clean(us.LoginID)
	clean(us.MobileNumber)
	clean(us.ParentMobile)
	clean(us.BatchTime)
	clean(us.Session)
	clean(us.JoiningDate)
	return validate.Struct(us)
}

func (us UpdateStudent) apply(s *Student, loc *time.Location) error {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&s.Name, us.Name)
	set(&s.FatherName, us.FatherName)
	set(&s.CollegeName, us.CollegeName)
	set(&s.Address, us.Address)
	set(&s.MobileNumber, us.MobileNumber)
	set(&s.Email, us.Email)
	set(&s.ParentMobile, us.ParentMobile)
	set(&s.LoginID, us.LoginID)
	set(&s.ProfilePhoto, us.ProfilePhoto)
	set(&s.BatchTime, us.BatchTime)
	set(&s.Session, us.Session)
	if us.MonthlyFees != nil {
		s.MonthlyFees = *us.MonthlyFees
	}
	if us.JoiningDate != nil {
		joined, err := core.ParseDay(*us.JoiningDate, loc)
		if err != nil {
			return errors.Wrap(err, "parsing joining_date")
		}
		s.JoiningDate = joined
	}
	if us.Password != nil {
		return s.SetPassword(*us.Password)
	}
	return nil
}

// GetFilter selects a single Student: by ID, else by LoginID, else by Email.
// A non-empty CoachingID restricts the lookup to that tenant.
type GetFilter struct {
	ID         string
	LoginID    string
	Email      string
	CoachingID string
}

type QueryFilter struct {
	CoachingID string `query:"-"`
	Search     string `query:"search"`
	BatchTime  string `query:"batch_time"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.BatchTime = core.CleanString(qf.BatchTime)
}
