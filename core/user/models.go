package user

import (
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/vidyasetu/vidyasetu/core"
)

// User is a staff account. Students are core/student.Student.
type User struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	Role           core.Role `json:"role"`
	CoachingID     string    `json:"coaching_id,omitempty"` // empty for SUPER_ADMIN
	Address        string    `json:"address"`
	Qualifications string    `json:"qualifications"`
	Subject        string    `json:"subject"`
	ContactNumber  string    `json:"contact_number"`
	WhatsappNumber string    `json:"whatsapp_number"`
	ProfilePhoto   string    `json:"profile_photo"`
	PushToken      string    `json:"-"`
	PasswordHash   []byte    `json:"-"`
	CreatedAt      time.Time `json:"created_at"` // UTC
	UpdatedAt      time.Time `json:"updated_at"` // UTC
	LastLogin      time.Time `json:"last_login"` // UTC
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

func (u User) Identity() core.Identity {
	return core.Identity{ID: u.ID, Role: u.Role, CoachingID: u.CoachingID}
}

func (u User) Contact() Contact {
	return Contact{
		ID:             u.ID,
		Name:           u.Name,
		Email:          u.Email,
		Subject:        u.Subject,
		Qualifications: u.Qualifications,
		ContactNumber:  u.ContactNumber,
		WhatsappNumber: u.WhatsappNumber,
		ProfilePhoto:   u.ProfilePhoto,
	}
}

// Contact is the public card of a staff member.
type Contact struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Email          string `json:"email,omitempty"`
	Subject        string `json:"subject,omitempty"`
	Qualifications string `json:"qualifications,omitempty"`
	ContactNumber  string `json:"contact_number,omitempty"`
	WhatsappNumber string `json:"whatsapp_number,omitempty"`
	ProfilePhoto   string `json:"profile_photo,omitempty"`
}

// NewTeacher contains information needed to onboard a teacher and their coaching.
type NewTeacher struct {
	Name            string `json:"name" validate:"required"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required"`
	CoachingName    string `json:"coaching_name"`
	CoachingAddress string `json:"coaching_address"`
	Address         string `json:"address"`
	Qualifications  string `json:"qualifications"`
	Subject         string `json:"subject"`
	ContactNumber   string `json:"contact_number" validate:"omitempty,mobile"`
	WhatsappNumber  string `json:"whatsapp_number" validate:"omitempty,mobile"`
	ProfilePhoto    string `json:"profile_photo" validate:"omitempty,url"`
}

func (nt *NewTeacher) Validate(validate *validator.Validate) error {
	nt.Name = core.CleanString(nt.Name)
	nt.Email = core.CleanString(nt.Email, true /* lower */)
	nt.CoachingName = core.CleanString(nt.CoachingName)
	nt.CoachingAddress = core.CleanString(nt.CoachingAddress)
	nt.ContactNumber = core.CleanString(nt.ContactNumber)
	nt.WhatsappNumber = core.CleanString(nt.WhatsappNumber)
	return validate.Struct(nt)
}

// UpdateUser defines what information may be provided to modify an existing staff User.
// The coaching fields only apply to users attached to a coaching.
type UpdateUser struct {
	Name            *string `json:"name" validate:"omitnil,min=1"`
	Email           *string `json:"email" validate:"omitnil,email"`
	Password        *string `json:"password"`
	Address         *string `json:"address"`
	Qualifications  *string `json:"qualifications"`
	Subject         *string `json:"subject"`
	ContactNumber   *string `json:"contact_number" validate:"omitempty,mobile"`
	WhatsappNumber  *string `json:"whatsapp_number" validate:"omitempty,mobile"`
	ProfilePhoto    *string `json:"profile_photo" validate:"omitempty,url"`
	CoachingName    *string `json:"coaching_name" validate:"omitnil,min=1"`
	CoachingAddress *string `json:"coaching_address"`
}

func (uu *UpdateUser) Validate(validate *validator.Validate) error {
	clean := func(s *string, lower ...bool) {
		if s != nil {
			*s = core.CleanString(*s, lower...)
		}
	}
	clean(uu.Name)
	clean(uu.Email, true /* lower */)
	clean(uu.ContactNumber)
	clean(uu.WhatsappNumber)
	clean(uu.CoachingName)
	clean(uu.CoachingAddress)
	return validate.Struct(uu)
}

// apply copies the provided fields onto usr.
func (uu UpdateUser) apply(usr *User) error {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&usr.Name, uu.Name)
	set(&usr.Email, uu.Email)
	set(&usr.Address, uu.Address)
	set(&usr.Qualifications, uu.Qualifications)
	set(&usr.Subject, uu.Subject)
	set(&usr.ContactNumber, uu.ContactNumber)
	set(&usr.WhatsappNumber, uu.WhatsappNumber)
	set(&usr.ProfilePhoto, uu.ProfilePhoto)
	if uu.Password != nil {
		return usr.SetPassword(*uu.Password)
	}
	return nil
}

type NewSuperAdmin struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (na *NewSuperAdmin) Validate(validate *validator.Validate) error {
	na.Name = core.CleanString(na.Name)
	na.Email = core.CleanString(na.Email, true /* lower */)
	return validate.Struct(na)
}

type PasswordResetRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type ResetUserPassword struct {
	Email       string `json:"email" validate:"required,email"`
	OTP         string `json:"otp" validate:"required,len=6,numeric"`
	NewPassword string `json:"new_password" validate:"required"`
}

func (rp *ResetUserPassword) Validate(validate *validator.Validate) error {
	rp.Email = core.CleanString(rp.Email, true /* lower */)
	rp.OTP = core.CleanString(rp.OTP)
	return validate.Struct(rp)
}

// GetFilter selects a single User: by ID, else by Email, else the first User with Role.
type GetFilter struct {
	ID    string
	Email string
	Role  core.Role
}

type QueryFilter struct {
	Search     string      `query:"search"`
	Roles      []core.Role `query:"role"`
	CoachingID string      `query:"-"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
}
