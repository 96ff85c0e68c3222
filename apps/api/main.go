package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	_ "time/tzdata"

	"github.com/thejerf/suture/v4"

	"github.com/vidyasetu/vidyasetu/apps/api/di"
	echoapi "github.com/vidyasetu/vidyasetu/apps/api/echo"
	"github.com/vidyasetu/vidyasetu/core"
	"github.com/vidyasetu/vidyasetu/core/user"
	logsvc "github.com/vidyasetu/vidyasetu/services/logger"
	"github.com/vidyasetu/vidyasetu/services/metrics"
	"github.com/vidyasetu/vidyasetu/services/notify"
)

func main() {
	conf := core.NewConfig()

	logger := logsvc.NewRollbarLogger(os.Stdout, conf)
	logger.Enable(!conf.Debug)

	repos, closeStorage, err := di.OpenStorage(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up %s storage: %v", conf.Storage, err), err)
	}
	defer func() {
		if err := closeStorage(); err != nil {
			logger.Error("closing storage", err)
		}
	}()

	registry := metrics.New()
	emails, pushes := di.Channels(conf, logger, os.Stdout)
	dispatcher := notify.NewDispatcher(emails, pushes, logger, registry, conf)

	c, err := di.New(conf, logger, repos, dispatcher, registry)
	if err != nil {
		logger.Fatal(fmt.Sprintf("wiring app: %v", err), err)
	}

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if conf.Admin.Email != "" {
		bootstrapSuperAdmin(ctx, c.UserSvc, conf, logger)
	}

	shutdown := make(chan error, 1)
	server := echoapi.NewServer(conf, logger, c.Deps, shutdown)

	sup := suture.New("vidyasetu", suture.Spec{
		EventHook: func(ev suture.Event) { logger.Warn(ev.String(), ev.Map()) },
		Timeout:   conf.Server.ShutdownTimeout,
	})
	sup.Add(dispatcher)
	sup.Add(server)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	errc := sup.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logger.Info("Start shutdown...")
	case err = <-shutdown:
		logger.Error(fmt.Sprintf("integrity issue, shutting down: %v", err), err)
	}
	cancel()

	if err = <-errc; err != nil && err != context.Canceled {
		logger.Error(fmt.Sprintf("supervisor stopped: %v", err), err)
	}
}

func bootstrapSuperAdmin(ctx context.Context, svc *user.Service, conf *core.Config, logger core.Logger) {
	usr, created, err := svc.EnsureSuperAdmin(ctx, user.NewSuperAdmin{
		Name:     conf.Admin.Name,
		Email:    conf.Admin.Email,
		Password: conf.Admin.Password,
	})
	switch {
	case err != nil:
		logger.Error(fmt.Sprintf("bootstrapping super admin: %v", err), err)
	case created:
		logger.Info(fmt.Sprintf("super admin %s created", usr.Email))
	}
}
