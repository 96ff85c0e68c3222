package main

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/vidyasetu/vidyasetu/core"
	"github.com/vidyasetu/vidyasetu/core/user"
)

var errNoAccount = errors.New("no staff or student account with this username")

// resetPassword tries the staff accounts first, then the students.
func (cli *commandLine) resetPassword(ctx context.Context, uname, pwd string) error {
	err := cli.users.SetPassword(ctx, uname, pwd)
	if !core.IsNotFound(err) {
		return err
	}
	if err = cli.students.SetPassword(ctx, uname, pwd); core.IsNotFound(err) {
		return errNoAccount
	}
	return err
}

func (cli *commandLine) seedAdmin(ctx context.Context, name, email, pwd string) error {
	usr, created, err := cli.users.EnsureSuperAdmin(ctx, user.NewSuperAdmin{Name: name, Email: email, Password: pwd})
	if err != nil {
		return err
	}
	if created {
		fmt.Printf("super admin %s created\n", usr.Email)
	} else {
		fmt.Printf("super admin %s already exists\n", usr.Email)
	}
	return nil
}
