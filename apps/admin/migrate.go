package main

import (
	"context"

	"github.com/pressly/goose/v3"

	"github.com/vidyasetu/vidyasetu/storage/database"
)

var gooseRunFunc = goose.RunContext // mockable

func (cli *commandLine) migrate(ctx context.Context, args []string) error {
	if cli.db == nil {
		return errNoDatabase
	}
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	return gooseRunFunc(ctx, args[0], cli.db, database.MigrationsDir, args[1:]...)
}
