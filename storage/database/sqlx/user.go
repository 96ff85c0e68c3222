package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/vidyasetu/vidyasetu/core"
	"github.com/vidyasetu/vidyasetu/core/user"
)

var (
	userDupErrs   = map[string]error{"users_email_key": user.ErrEmailExists}
	userOrderable = map[string]bool{"name": true, "email": true, "created_at": true, "last_login": true}
)

type userRow struct {
	ID             string      `db:"id"`
	Name           string      `db:"name"`
	Email          string      `db:"email"`
	Role           string      `db:"role"`
	CoachingID     null.String `db:"coaching_id"`
	Address        string      `db:"address"`
	Qualifications string      `db:"qualifications"`
	Subject        string      `db:"subject"`
	ContactNumber  string      `db:"contact_number"`
	WhatsappNumber string      `db:"whatsapp_number"`
	ProfilePhoto   string      `db:"profile_photo"`
	PushToken      string      `db:"push_token"`
	PasswordHash   []byte      `db:"password_hash"`
	CreatedAt      time.Time   `db:"created_at"`
	UpdatedAt      time.Time   `db:"updated_at"`
	LastLogin      null.Time   `db:"last_login"`
}

type userRepository struct {
	base
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *sqlx.DB) *userRepository {
	return &userRepository{base{db: db}}
}

func (repo userRepository) toRow(usr user.User) userRow {
	return userRow{
		ID:             usr.ID,
		Name:           usr.Name,
		Email:          usr.Email,
		Role:           string(usr.Role),
		CoachingID:     null.NewString(usr.CoachingID, usr.CoachingID != ""),
		Address:        usr.Address,
		Qualifications: usr.Qualifications,
		Subject:        usr.Subject,
		ContactNumber:  usr.ContactNumber,
		WhatsappNumber: usr.WhatsappNumber,
		ProfilePhoto:   usr.ProfilePhoto,
		PushToken:      usr.PushToken,
		PasswordHash:   usr.PasswordHash,
		CreatedAt:      usr.CreatedAt.UTC(),
		UpdatedAt:      usr.UpdatedAt.UTC(),
		LastLogin:      null.NewTime(usr.LastLogin.UTC(), !usr.LastLogin.IsZero()),
	}
}

func (repo userRepository) fromRow(r userRow) user.User {
	usr := user.User{
		ID:             r.ID,
		Name:           r.Name,
		Email:          r.Email,
		Role:           core.Role(r.Role),
		CoachingID:     r.CoachingID.String,
		Address:        r.Address,
		Qualifications: r.Qualifications,
		Subject:        r.Subject,
		ContactNumber:  r.ContactNumber,
		WhatsappNumber: r.WhatsappNumber,
		ProfilePhoto:   r.ProfilePhoto,
		PushToken:      r.PushToken,
		PasswordHash:   r.PasswordHash,
		CreatedAt:      r.CreatedAt.UTC(),
		UpdatedAt:      r.UpdatedAt.UTC(),
	}
	if r.LastLogin.Valid {
		usr.LastLogin = r.LastLogin.Time.UTC()
	}
	return usr
}

func (repo userRepository) fromRows(rows []userRow) []user.User {
	users := make([]user.User, 0, len(rows))
	for _, r := range rows {
		users = append(users, repo.fromRow(r))
	}
	return users
}

func (repo userRepository) CheckEmailUniqueness(ctx context.Context, email string, excludedIDs []string, exec ...core.DBExecutor) error {
	var w whereClause
	w.add("email = ?", email)
	if len(excludedIDs) > 0 {
		w.add("id NOT IN (?)", excludedIDs)
	}
	q, args, err := rebind("SELECT EXISTS (SELECT 1 FROM users"+w.String()+")", w.args)
	if err != nil {
		return err
	}

	var exists bool
	if err = sqlx.GetContext(ctx, repo.getExec(exec), &exists, q, args...); err != nil {
		return errors.Wrap(err, "checking user uniqueness")
	}
	if exists {
		return user.ErrEmailExists
	}
	return nil
}

const insertUser = `INSERT INTO users (
	id, name, email, role, coaching_id, address, qualifications, subject, contact_number, whatsapp_number,
	profile_photo, push_token, password_hash, created_at, updated_at, last_login
) VALUES (
	:id, :name, :email, :role, :coaching_id, :address, :qualifications, :subject, :contact_number, :whatsapp_number,
	:profile_photo, :push_token, :password_hash, :created_at, :updated_at, :last_login
)`

func (repo userRepository) CreateUser(ctx context.Context, usr user.User, exec ...core.DBExecutor) (user.User, error) {
	usr.ID = newID()
	row := repo.toRow(usr)
	if _, err := sqlx.NamedExecContext(ctx, repo.getExec(exec), insertUser, row); err != nil {
		return user.User{}, trapUniqueErr(err, "inserting user", userDupErrs)
	}
	return repo.fromRow(row), nil
}

func (repo userRepository) GetUser(ctx context.Context, filter user.GetFilter, exec ...core.DBExecutor) (user.User, error) {
	var w whereClause
	switch {
	case filter.ID != "":
		if !isUUID(filter.ID) {
			return user.User{}, user.ErrNotFound
		}
		w.add("id = ?", filter.ID)
	case filter.Email != "":
		w.add("email = ?", filter.Email)
	case filter.Role != "":
		w.add("role = ?", string(filter.Role))
	default:
		return user.User{}, user.ErrNotFound
	}

	q, args, err := rebind("SELECT * FROM users"+w.String()+" ORDER BY created_at LIMIT 1", w.args)
	if err != nil {
		return user.User{}, err
	}
	var row userRow
	err = sqlx.GetContext(ctx, repo.getExec(exec), &row, q, args...)
	if err == sql.ErrNoRows {
		return user.User{}, user.ErrNotFound
	} else if err != nil {
		return user.User{}, errors.Wrap(err, "finding user")
	}
	return repo.fromRow(row), nil
}

func (repo userRepository) QueryUsers(ctx context.Context, filter *user.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]user.User, error) {
	var w whereClause
	if filter != nil {
		// users with Name, Email or Subject matching the search keyword
		if filter.Search != "" {
			val := "%" + filter.Search + "%"
			w.add("(name ILIKE ? OR email ILIKE ? OR subject ILIKE ?)", val, val, val)
		}
		if len(filter.Roles) > 0 {
			roles := make([]string, 0, len(filter.Roles))
			for _, r := range filter.Roles {
				roles = append(roles, string(r))
			}
			w.add("role IN (?)", roles)
		}
		if filter.CoachingID != "" {
			if !isUUID(filter.CoachingID) {
				return []user.User{}, nil
			}
			w.add("coaching_id = ?", filter.CoachingID)
		}
	}

	q, args, err := rebind("SELECT * FROM users"+w.String()+orderBy(ordering, userOrderable), w.args)
	if err != nil {
		return nil, err
	}
	var rows []userRow
	if err = sqlx.SelectContext(ctx, repo.getExec(exec), &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying users")
	}
	return repo.fromRows(rows), nil
}

const updateUser = `UPDATE users SET
	name = :name, email = :email, role = :role, coaching_id = :coaching_id, address = :address,
	qualifications = :qualifications, subject = :subject, contact_number = :contact_number,
	whatsapp_number = :whatsapp_number, profile_photo = :profile_photo, push_token = :push_token,
	password_hash = :password_hash, updated_at = :updated_at, last_login = :last_login
WHERE id = :id`

func (repo userRepository) UpdateUser(ctx context.Context, usr user.User, exec ...core.DBExecutor) (user.User, error) {
	if !isUUID(usr.ID) {
		return user.User{}, user.ErrNotFound
	}
	row := repo.toRow(usr)
	res, err := sqlx.NamedExecContext(ctx, repo.getExec(exec), updateUser, row)
	if err != nil {
		return user.User{}, trapUniqueErr(err, "updating user", userDupErrs)
	}
	if err = checkAffected(res, user.ErrNotFound); err != nil {
		return user.User{}, err
	}
	return repo.fromRow(row), nil
}

func (repo userRepository) DeleteUser(ctx context.Context, id string, exec ...core.DBExecutor) error {
	if !isUUID(id) {
		return user.ErrNotFound
	}
	res, err := repo.getExec(exec).ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting user")
	}
	return checkAffected(res, user.ErrNotFound)
}
