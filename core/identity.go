package core

import "context"

type Role string

const (
	RoleSuperAdmin Role = "SUPER_ADMIN"
	RoleAdmin      Role = "ADMIN"
	RoleTeacher    Role = "TEACHER"
	RoleStudent    Role = "STUDENT"
)

var AllRoles = []Role{RoleSuperAdmin, RoleAdmin, RoleTeacher, RoleStudent}

func (r Role) Valid() bool {
	for _, role := range AllRoles {
		if r == role {
			return true
		}
	}
	return false
}

func (r Role) IsStaff() bool { return r == RoleSuperAdmin || r == RoleAdmin || r == RoleTeacher }

// Identity is the authorization-relevant part of a caller, taken from signed token claims.
type Identity struct {
	ID         string `json:"id"`
	Role       Role   `json:"role"`
	CoachingID string `json:"coaching_id,omitempty"`
}

func (id Identity) IsZero() bool { return id.ID == "" }

// HasTenant reports whether the identity is scoped to a coaching.
func (id Identity) HasTenant() bool { return id.CoachingID != "" }

func (id Identity) IsSuperAdmin() bool { return id.Role == RoleSuperAdmin }

// TenantID returns the coaching of the identity or a not found error for orphan accounts.
func (id Identity) TenantID() (string, error) {
	if id.CoachingID == "" {
		return "", ErrNoTenant
	}
	return id.CoachingID, nil
}

var ErrNoTenant = NewNotFoundError("coaching")

type identityCtxKey struct{}

func ContextWithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityCtxKey{}, id)
}

func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityCtxKey{}).(Identity)
	return id, ok && !id.IsZero()
}
