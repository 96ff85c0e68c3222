package user_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vidyasetu/vidyasetu/core"
	"github.com/vidyasetu/vidyasetu/core/coaching"
	"github.com/vidyasetu/vidyasetu/core/student"
	"github.com/vidyasetu/vidyasetu/core/user"
	inmemdb "github.com/vidyasetu/vidyasetu/storage/database/inmem"
)

const staffPwd = "Xk9!mQ2#vLp7"

type recordingNotifier struct {
	mu     sync.Mutex
	emails []*core.EmailMessage
}

func (n *recordingNotifier) Email(messages ...*core.EmailMessage) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.emails = append(n.emails, messages...)
}

func (n *recordingNotifier) Push(...*core.PushMessage) {}

type fixture struct {
	svc       *user.Service
	notifier  *recordingNotifier
	coachings coaching.Repository
	students  student.Repository
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	db := inmemdb.Open()
	validate, translator := core.NewValidator()
	user.InitValidators(validate, translator)
	user.LoadCommonPasswords(core.NopLogger{})

	f := fixture{
		notifier:  new(recordingNotifier),
		coachings: inmemdb.NewCoachingRepository(db),
		students:  inmemdb.NewStudentRepository(db),
	}
	f.svc = user.NewService(db, inmemdb.NewUserRepository(db), f.coachings, f.students, f.notifier, validate, core.NewTestConfig())
	return f
}

func strPtr(s string) *string { return &s }

func TestService_CreateTeacher(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	t.Run("weak password", func(t *testing.T) {
		_, err := f.svc.CreateTeacher(ctx, user.NewTeacher{Name: "Asha", Email: "asha@coaching.test", Password: "password"})
		var verrs validator.ValidationErrors
		assert.ErrorAs(t, err, &verrs)
		assert.Empty(t, f.notifier.emails)
	})

	var teacher user.Teacher
	t.Run("onboards teacher and coaching", func(t *testing.T) {
		var err error
		teacher, err = f.svc.CreateTeacher(ctx, user.NewTeacher{
			Name:           " Asha Verma ",
			Email:          "Asha@Coaching.TEST",
			Password:       staffPwd,
			WhatsappNumber: "9876543210",
		})
		require.NoError(t, err)
		assert.Equal(t, "Asha Verma", teacher.Name)
		assert.Equal(t, "asha@coaching.test", teacher.Email)
		assert.Equal(t, core.RoleTeacher, teacher.Role)
		assert.Equal(t, "Asha Verma's Institution", teacher.Coaching.Name)
		assert.Equal(t, teacher.Coaching.ID, teacher.CoachingID)
		assert.Contains(t, teacher.WhatsappLink, "9876543210")
		assert.NoError(t, teacher.CheckPassword(staffPwd))

		require.Len(t, f.notifier.emails, 1)
		assert.Equal(t, "welcome_teacher", f.notifier.emails[0].TemplateName)
		assert.Equal(t, "asha@coaching.test", f.notifier.emails[0].To[0].Address)
	})

	t.Run("duplicate email", func(t *testing.T) {
		_, err := f.svc.CreateTeacher(ctx, user.NewTeacher{Name: "Other", Email: "ASHA@coaching.test", Password: staffPwd})
		assert.Equal(t, user.ErrEmailExists, err)
	})

	t.Run("update renames the coaching", func(t *testing.T) {
		got, err := f.svc.UpdateTeacher(ctx, teacher.ID, user.UpdateUser{Subject: strPtr("Physics"), CoachingName: strPtr(" Bright Minds ")})
		require.NoError(t, err)
		assert.Equal(t, "Physics", got.Subject)
		assert.Equal(t, "Bright Minds", got.Coaching.Name)

		c, err := f.coachings.GetCoaching(ctx, teacher.CoachingID)
		require.NoError(t, err)
		assert.Equal(t, "Bright Minds", c.Name)
	})

	t.Run("teachers of a coaching hide emails", func(t *testing.T) {
		contacts, err := f.svc.TeachersOf(ctx, teacher.CoachingID)
		require.NoError(t, err)
		require.Len(t, contacts, 1)
		assert.Equal(t, "Asha Verma", contacts[0].Name)
		assert.Empty(t, contacts[0].Email)
	})

	t.Run("delete refuses while students remain", func(t *testing.T) {
		std, err := f.students.CreateStudent(ctx, student.Student{
			CoachingID:  teacher.CoachingID,
			Name:        "Ravi",
			LoginID:     "ravi",
			MonthlyFees: decimal.NewFromInt(1000),
			CreatedAt:   time.Now(),
		})
		require.NoError(t, err)

		err = f.svc.DeleteTeacher(ctx, teacher.ID)
		var verr *core.ValidationError
		assert.ErrorAs(t, err, &verr)

		require.NoError(t, f.students.DeleteStudent(ctx, std.ID))
		require.NoError(t, f.svc.DeleteTeacher(ctx, teacher.ID))

		_, err = f.svc.GetTeacher(ctx, teacher.ID)
		assert.Equal(t, user.ErrNotFound, err)
		_, err = f.coachings.GetCoaching(ctx, teacher.CoachingID)
		assert.True(t, core.IsNotFound(err))
	})
}

func TestService_EnsureSuperAdmin(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.svc.DeveloperContact(ctx)
	assert.Equal(t, user.ErrNotFound, err)

	usr, created, err := f.svc.EnsureSuperAdmin(ctx, user.NewSuperAdmin{Email: "owner@vidyasetu.test", Password: staffPwd})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "Super Admin", usr.Name)
	assert.Equal(t, core.RoleSuperAdmin, usr.Role)
	assert.Empty(t, usr.CoachingID)

	again, created, err := f.svc.EnsureSuperAdmin(ctx, user.NewSuperAdmin{Name: "Someone", Email: "someone@vidyasetu.test", Password: staffPwd})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, usr.ID, again.ID)

	contact, err := f.svc.DeveloperContact(ctx)
	require.NoError(t, err)
	assert.Equal(t, "owner@vidyasetu.test", contact.Email)

	// a super admin is no teacher
	_, err = f.svc.GetTeacher(ctx, usr.ID)
	assert.Equal(t, user.ErrNotFound, err)

	t.Run("set password", func(t *testing.T) {
		require.NoError(t, f.svc.SetPassword(ctx, "owner@vidyasetu.test", "simple"))
		got, err := f.svc.GetByID(ctx, usr.ID)
		require.NoError(t, err)
		assert.NoError(t, got.CheckPassword("simple"))

		assert.Equal(t, user.ErrNotFound, f.svc.SetPassword(ctx, "nobody@vidyasetu.test", "simple"))
	})

	t.Run("push tokens", func(t *testing.T) {
		require.NoError(t, f.svc.SetPushToken(ctx, usr.ID, " ExponentPushToken[owner] "))
		tokens, err := f.svc.PushTokens(ctx, core.RoleSuperAdmin)
		require.NoError(t, err)
		assert.Equal(t, []string{"ExponentPushToken[owner]"}, tokens)

		tokens, err = f.svc.PushTokens(ctx, core.RoleTeacher)
		require.NoError(t, err)
		assert.Empty(t, tokens)
	})
}
