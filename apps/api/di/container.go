// Package di assembles the API's repositories, services and handlers dependencies.
package di

import (
	"io"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	echoapi "github.com/vidyasetu/vidyasetu/apps/api/echo"
	"github.com/vidyasetu/vidyasetu/core"
	"github.com/vidyasetu/vidyasetu/core/attendance"
	"github.com/vidyasetu/vidyasetu/core/auth"
	"github.com/vidyasetu/vidyasetu/core/coaching"
	"github.com/vidyasetu/vidyasetu/core/fee"
	"github.com/vidyasetu/vidyasetu/core/homework"
	"github.com/vidyasetu/vidyasetu/core/notice"
	"github.com/vidyasetu/vidyasetu/core/student"
	"github.com/vidyasetu/vidyasetu/core/user"
	emailsvc "github.com/vidyasetu/vidyasetu/services/email"
	"github.com/vidyasetu/vidyasetu/services/metrics"
	pushsvc "github.com/vidyasetu/vidyasetu/services/push"
	"github.com/vidyasetu/vidyasetu/storage/database"
	inmemdb "github.com/vidyasetu/vidyasetu/storage/database/inmem"
	sqlxrepos "github.com/vidyasetu/vidyasetu/storage/database/sqlx"
)

type Repositories struct {
	Tx         core.Transactor
	Coachings  coaching.Repository
	Users      user.Repository
	Students   student.Repository
	Attendance attendance.Repository
	Fees       fee.Repository
	Notices    notice.Repository
	Homeworks  homework.Repository
}

func InMemRepositories(db *inmemdb.DB) Repositories {
	return Repositories{
		Tx:         db,
		Coachings:  inmemdb.NewCoachingRepository(db),
		Users:      inmemdb.NewUserRepository(db),
		Students:   inmemdb.NewStudentRepository(db),
		Attendance: inmemdb.NewAttendanceRepository(db),
		Fees:       inmemdb.NewFeeRepository(db),
		Notices:    inmemdb.NewNoticeRepository(db),
		Homeworks:  inmemdb.NewHomeworkRepository(db),
	}
}

// PostgresRepositories reads and writes DATE columns as calendar days of loc.
func PostgresRepositories(db *sqlx.DB, loc *time.Location) Repositories {
	return Repositories{
		Tx:         database.NewTransactor(db),
		Coachings:  sqlxrepos.NewCoachingRepository(db),
		Users:      sqlxrepos.NewUserRepository(db),
		Students:   sqlxrepos.NewStudentRepository(db, loc),
		Attendance: sqlxrepos.NewAttendanceRepository(db, loc),
		Fees:       sqlxrepos.NewFeeRepository(db, loc),
		Notices:    sqlxrepos.NewNoticeRepository(db),
		Homeworks:  sqlxrepos.NewHomeworkRepository(db, loc),
	}
}

type Container struct {
	Conf       *core.Config
	Logger     core.Logger
	Validate   *validator.Validate
	Translator ut.Translator
	Metrics    *metrics.Registry
	Tokens     *auth.TokenIssuer

	UserSvc       *user.Service
	StudentSvc    *student.Service
	AttendanceSvc *attendance.Service
	FeeSvc        *fee.Service
	NoticeSvc     *notice.Service
	HomeworkSvc   *homework.Service

	Deps *echoapi.Deps
}

// New wires the services on repos. Notifications go through notifier.
func New(conf *core.Config, logger core.Logger, repos Repositories, notifier core.Notifier, registry *metrics.Registry) (*Container, error) {
	validate, translator := core.NewValidator()
	user.InitValidators(validate, translator)
	student.InitValidators(validate, translator)
	user.LoadCommonPasswords(logger)

	authorizer, err := auth.NewAuthorizer()
	if err != nil {
		return nil, errors.Wrap(err, "creating authorizer")
	}

	c := &Container{
		Conf:       conf,
		Logger:     logger,
		Validate:   validate,
		Translator: translator,
		Metrics:    registry,
		Tokens:     auth.NewTokenIssuer(conf),
	}
	c.UserSvc = user.NewService(repos.Tx, repos.Users, repos.Coachings, repos.Students, notifier, validate, conf)
	c.StudentSvc = student.NewService(repos.Students, repos.Coachings, notifier, validate, conf)
	c.AttendanceSvc = attendance.NewService(repos.Tx, repos.Attendance, repos.Students, validate, conf)
	c.FeeSvc = fee.NewService(repos.Tx, repos.Fees, repos.Coachings, notifier, registry, validate, conf)
	c.NoticeSvc = notice.NewService(repos.Notices, c.StudentSvc, c.UserSvc, notifier, logger, validate)
	c.HomeworkSvc = homework.NewService(repos.Homeworks, c.StudentSvc, notifier, logger, validate, conf)

	c.Deps = &echoapi.Deps{
		Authenticator: auth.NewAuthenticator(c.Tokens, c.UserSvc, c.StudentSvc, registry),
		Resolver:      auth.NewResolver(c.Tokens, c.UserSvc, c.StudentSvc),
		Authorizer:    authorizer,
		UserSvc:       c.UserSvc,
		StudentSvc:    c.StudentSvc,
		AttendanceSvc: c.AttendanceSvc,
		FeeSvc:        c.FeeSvc,
		NoticeSvc:     c.NoticeSvc,
		HomeworkSvc:   c.HomeworkSvc,
		Validate:      validate,
		Translator:    translator,
		Metrics:       registry.Handler(),
	}
	return c, nil
}

// Channels picks console transports in debug and the real providers otherwise.
func Channels(conf *core.Config, logger core.Logger, out io.Writer) (core.EmailService, core.PushService) {
	if conf.Debug {
		return emailsvc.NewConsoleService(out, conf), pushsvc.NewConsoleService(out)
	}
	return emailsvc.NewSendgridService(logger, conf), pushsvc.NewExpoService(logger, conf)
}

// OpenStorage connects the configured storage. close releases it.
func OpenStorage(conf *core.Config) (repos Repositories, close func() error, err error) {
	switch conf.Storage {
	case core.StorageInMem:
		return InMemRepositories(inmemdb.Open()), func() error { return nil }, nil
	case core.StoragePostgres:
		if err = database.CreateIfNotExist(conf); err != nil {
			return Repositories{}, nil, err
		}
		db, err := database.Open(conf)
		if err != nil {
			return Repositories{}, nil, err
		}
		if err = database.Migrate(db); err != nil {
			_ = db.Close()
			return Repositories{}, nil, err
		}
		return PostgresRepositories(db, conf.Location), db.Close, nil
	default:
		return Repositories{}, nil, errors.Errorf("unknown storage %q", conf.Storage)
	}
}
