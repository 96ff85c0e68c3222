package main

import (
	"fmt"
	"os"
	_ "time/tzdata"

	"github.com/vidyasetu/vidyasetu/apps/api/di"
	"github.com/vidyasetu/vidyasetu/core"
	logsvc "github.com/vidyasetu/vidyasetu/services/logger"
	"github.com/vidyasetu/vidyasetu/services/metrics"
	"github.com/vidyasetu/vidyasetu/services/notify"
	"github.com/vidyasetu/vidyasetu/storage/database"
	inmemdb "github.com/vidyasetu/vidyasetu/storage/database/inmem"
)

func main() {
	conf := core.NewConfig()
	logger := logsvc.NewRollbarLogger(os.Stderr, conf)
	logger.Enable(!conf.Debug)

	cli := commandLine{}
	var repos di.Repositories
	if conf.Storage == core.StoragePostgres {
		if err := database.CreateIfNotExist(conf); err != nil {
			logger.Fatal(fmt.Sprintf("creating database: %v", err), err)
		}
		db, err := database.Open(conf)
		if err != nil {
			logger.Fatal(fmt.Sprintf("opening database: %v", err), err)
		}
		//goland:noinspection GoUnhandledErrorResult
		defer db.Close()
		cli.db = db.DB
		repos = di.PostgresRepositories(db, conf.Location)
	} else {
		repos = di.InMemRepositories(inmemdb.Open())
	}

	registry := metrics.New()
	emails, pushes := di.Channels(conf, logger, os.Stdout)
	c, err := di.New(conf, logger, repos, notify.NewInline(emails, pushes, logger, registry), registry)
	if err != nil {
		logger.Fatal(fmt.Sprintf("wiring services: %v", err), err)
	}
	cli.users, cli.students = c.UserSvc, c.StudentSvc

	if err = cli.run(os.Args); err != nil {
		if err != errHelp {
			fmt.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}
