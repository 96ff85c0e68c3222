package auth

import (
	"context"

	"github.com/pkg/errors"

	"github.com/vidyasetu/vidyasetu/core"
	"github.com/vidyasetu/vidyasetu/core/student"
	"github.com/vidyasetu/vidyasetu/core/user"
)

var ErrInvalidCredentials = core.NewValidationError(errors.New("invalid credentials"))

type (
	UserStore interface {
		GetByID(ctx context.Context, id string) (user.User, error)
		GetByEmail(ctx context.Context, email string) (user.User, error)
		SetLastLogin(ctx context.Context, usr user.User) (user.User, error)
	}

	StudentStore interface {
		GetByID(ctx context.Context, id string) (student.Student, error)
		GetByLoginIDOrEmail(ctx context.Context, username string) (student.Student, error)
	}

	// LoginRecorder is told about every login attempt.
	LoginRecorder interface {
		LoginAttempt(role core.Role, success bool)
	}

	LoginResult struct {
		Token      string    `json:"token"`
		Role       core.Role `json:"role"`
		Name       string    `json:"name"`
		CoachingID string    `json:"coaching_id,omitempty"`
	}

	// Resolver turns a bearer token into the identity of a still existing account.
	Resolver struct {
		tokens   *TokenIssuer
		users    UserStore
		students StudentStore
	}

	Authenticator struct {
		tokens   *TokenIssuer
		users    UserStore
		students StudentStore
		recorder LoginRecorder
	}
)

func NewResolver(tokens *TokenIssuer, users UserStore, students StudentStore) *Resolver {
	return &Resolver{tokens: tokens, users: users, students: students}
}

// Resolve parses token and checks that its subject still exists.
// Role and coaching always come from the signed claims.
func (r *Resolver) Resolve(ctx context.Context, token string) (core.Identity, error) {
	id, err := r.tokens.Parse(token)
	if err != nil {
		return core.Identity{}, err
	}
	if id.Role == core.RoleStudent {
		_, err = r.students.GetByID(ctx, id.ID)
	} else {
		_, err = r.users.GetByID(ctx, id.ID)
	}
	if err != nil {
		return core.Identity{}, errors.Wrap(err, "finding token subject")
	}
	return id, nil
}

func NewAuthenticator(tokens *TokenIssuer, users UserStore, students StudentStore, recorder LoginRecorder) *Authenticator {
	return &Authenticator{tokens: tokens, users: users, students: students, recorder: recorder}
}

// Login authenticates staff by email and students by login ID or email.
func (a *Authenticator) Login(ctx context.Context, username, pwd string) (LoginResult, error) {
	res, role, err := a.login(ctx, core.CleanString(username), pwd)
	if a.recorder != nil {
		a.recorder.LoginAttempt(role, err == nil)
	}
	return res, err
}

func (a *Authenticator) login(ctx context.Context, username, pwd string) (LoginResult, core.Role, error) {
	var (
		id   core.Identity
		name string
	)

	usr, err := a.users.GetByEmail(ctx, username)
	switch {
	case err == nil:
		if err = usr.CheckPassword(pwd); err != nil {
			return LoginResult{}, usr.Role, ErrInvalidCredentials
		}
		if usr, err = a.users.SetLastLogin(ctx, usr); err != nil {
			return LoginResult{}, usr.Role, errors.Wrap(err, "setting last login")
		}
		id, name = usr.Identity(), usr.Name
	case core.IsNotFound(err):
		std, err := a.students.GetByLoginIDOrEmail(ctx, username)
		if err != nil {
			if core.IsNotFound(err) {
				return LoginResult{}, "", ErrInvalidCredentials
			}
			return LoginResult{}, "", errors.Wrap(err, "finding student")
		}
		if err = std.CheckPassword(pwd); err != nil {
			return LoginResult{}, core.RoleStudent, ErrInvalidCredentials
		}
		id, name = std.Identity(), std.Name
	default:
		return LoginResult{}, "", errors.Wrap(err, "finding user")
	}

	token, err := a.tokens.Issue(id)
	if err != nil {
		return LoginResult{}, id.Role, errors.Wrap(err, "issuing token")
	}
	return LoginResult{Token: token, Role: id.Role, Name: name, CoachingID: id.CoachingID}, id.Role, nil
}
