package tests

import (
	"context"
	"fmt"
	"io"
	"os"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/vidyasetu/vidyasetu/apps/api/di"
	echoapi "github.com/vidyasetu/vidyasetu/apps/api/echo"
	"github.com/vidyasetu/vidyasetu/core"
	"github.com/vidyasetu/vidyasetu/core/student"
	"github.com/vidyasetu/vidyasetu/core/user"
	emailsvc "github.com/vidyasetu/vidyasetu/services/email"
	"github.com/vidyasetu/vidyasetu/services/metrics"
	"github.com/vidyasetu/vidyasetu/services/notify"
	pushsvc "github.com/vidyasetu/vidyasetu/services/push"
	inmemdb "github.com/vidyasetu/vidyasetu/storage/database/inmem"
)

const (
	staffPwd   = "Xk9!mQ2#vLp7"
	studentPwd = "s3cret-pass"
)

var (
	conf      *core.Config
	db        *inmemdb.DB
	container *di.Container
	app       *echoapi.Server
	mailSvc   *emailsvc.ConsoleService
	pushSvc   *pushsvc.ConsoleService

	errMissingToken   = httpErr{Error: "missing or malformed jwt"}
	errInvalidToken   = httpErr{Error: "invalid or expired jwt"}
	errUnauthed       = httpErr{Error: "user not authenticated"}
	errForbidden      = httpErr{Error: "permission denied"}
	errStudentMissing = httpErr{Error: "student not found"}
)

func TestMain(m *testing.M) {
	conf = core.NewTestConfig()
	conf.Server.LoginRateLimit = 1000

	db = inmemdb.Open()
	mailSvc = emailsvc.NewConsoleService(io.Discard, conf)
	pushSvc = pushsvc.NewConsoleService(io.Discard)
	registry := metrics.New()
	notifier := notify.NewInline(mailSvc, pushSvc, core.NopLogger{}, registry)

	var err error
	container, err = di.New(conf, core.NopLogger{}, di.InMemRepositories(db), notifier, registry)
	if err != nil {
		fmt.Printf("di.New(): %v", err)
		os.Exit(1)
	}
	app = echoapi.NewServer(conf, core.NopLogger{}, container.Deps, nil)

	os.Exit(m.Run())
}

func setup(t *testing.T) {
	t.Helper()
	db.Reset()
	mailSvc.Reset()
	pushSvc.Reset()
}

func getToken(t *testing.T, id core.Identity) string {
	token, err := container.Tokens.Issue(id)
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func createTeacher(t *testing.T, name, email string) user.Teacher {
	teacher, err := container.UserSvc.CreateTeacher(context.Background(), user.NewTeacher{
		Name:     name,
		Email:    email,
		Password: staffPwd,
	})
	require.NoError(t, err)
	return teacher
}

func createSuperAdmin(t *testing.T) user.User {
	usr, _, err := container.UserSvc.EnsureSuperAdmin(context.Background(), user.NewSuperAdmin{
		Name:     "Platform Owner",
		Email:    "owner@vidyasetu.test",
		Password: staffPwd,
	})
	require.NoError(t, err)
	return usr
}

func createStudent(t *testing.T, teacher user.Teacher, name, loginID, monthly, batch string) student.Student {
	fees := decimal.RequireFromString(monthly)
	e, err := container.StudentSvc.Create(context.Background(), teacher.Identity(), student.NewStudent{
		Name:        name,
		LoginID:     loginID,
		Password:    studentPwd,
		BatchTime:   batch,
		MonthlyFees: &fees,
	})
	require.NoError(t, err)
	return e.Student
}
