package notice

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/vidyasetu/vidyasetu/core"
)

func TestResolve(t *testing.T) {
	now := time.Now().UTC()
	mk := func(id, coachingID string, target Target, age time.Duration, active bool) Notice {
		return Notice{ID: id, CoachingID: coachingID, Target: target, IsActive: active, CreatedAt: now.Add(-age)}
	}

	tenantStudent := mk("tenant-student", "c1", TargetStudent, 1*time.Hour, true)
	tenantAll := mk("tenant-all", "c1", TargetAll, 2*time.Hour, true)
	tenantTeacher := mk("tenant-teacher", "c1", TargetTeacher, 3*time.Hour, true)
	otherTenant := mk("other-tenant", "c2", TargetAll, 4*time.Hour, true)
	platformStudent := mk("platform-student", "", TargetStudent, 5*time.Hour, true)
	platformAll := mk("platform-all", "", TargetAll, 30*time.Minute, true)
	platformTeacher := mk("platform-teacher", "", TargetTeacher, 6*time.Hour, true)
	inactive := mk("inactive", "c1", TargetAll, 10*time.Minute, false)

	all := []Notice{
		platformTeacher, tenantTeacher, otherTenant, tenantAll,
		inactive, platformStudent, tenantStudent, platformAll,
	}

	ids := func(notices []Notice) []string {
		res := make([]string, 0, len(notices))
		for _, n := range notices {
			res = append(res, n.ID)
		}
		return res
	}

	tests := []struct {
		name   string
		viewer core.Identity
		want   []string
	}{
		{
			name:   "tenant student",
			viewer: core.Identity{ID: "s1", Role: core.RoleStudent, CoachingID: "c1"},
			want:   []string{"platform-all", "tenant-student", "tenant-all", "platform-student"},
		},
		{
			name:   "tenant teacher",
			viewer: core.Identity{ID: "t1", Role: core.RoleTeacher, CoachingID: "c1"},
			want:   []string{"platform-all", "tenant-all", "tenant-teacher", "platform-teacher"},
		},
		{
			name:   "admin of a coaching",
			viewer: core.Identity{ID: "a1", Role: core.RoleAdmin, CoachingID: "c1"},
			want:   []string{"platform-all", "tenant-all"},
		},
		{
			name:   "student of another coaching",
			viewer: core.Identity{ID: "s2", Role: core.RoleStudent, CoachingID: "c2"},
			want:   []string{"platform-all", "other-tenant", "platform-student"},
		},
		{
			name:   "orphan viewer",
			viewer: core.Identity{ID: "sa", Role: core.RoleSuperAdmin},
			want:   []string{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(Resolve(tt.viewer, all)))
		})
	}
}

func TestNewBroadcast_Validate(t *testing.T) {
	validate, _ := core.NewValidator()

	nb := NewBroadcast{Title: " v2 ", Description: "new release"}
	assert.NoError(t, nb.Validate(validate))
	assert.Equal(t, TypeNotice, nb.Type)
	assert.Equal(t, TargetAll, nb.Target)
	assert.Equal(t, "v2", nb.Title)

	nb = NewBroadcast{Title: "x", Description: "y", Target: "PARENTS"}
	assert.Error(t, nb.Validate(validate))

	nn := NewNotice{Title: "Holiday", Description: "closed tomorrow", Target: TargetTeacher}
	assert.Error(t, nn.Validate(validate), "teachers post to students or everyone")
}
