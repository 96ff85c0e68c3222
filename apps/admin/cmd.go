package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"syscall"

	"golang.org/x/term"

	"github.com/vidyasetu/vidyasetu/core/student"
	"github.com/vidyasetu/vidyasetu/core/user"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp       = errors.New("help provided")
	errNoDatabase = errors.New("migrations need the postgres storage")
)

type commandLine struct {
	db       *sql.DB // nil unless the storage is postgres
	users    *user.Service
	students *student.Service
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  migrate COMMAND [ARGS] - run a goose command (up, down, status, ...) on the embedded migrations")
	fmt.Println("  seedadmin -email EMAIL [-name NAME] - create the super admin unless one exists")
	fmt.Println("  resetpassword -username EMAIL|LOGIN_ID - reset a staff or student password")
}

func (cli *commandLine) promptPassword(fs *flag.FlagSet) (string, error) {
	fmt.Print("Enter password:")
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", err
	}
	if len(pwd) == 0 {
		fs.Usage()
		return "", errHelp
	}
	return string(pwd), nil
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}
	ctx := context.Background()

	seedAdminCmd := flag.NewFlagSet("seedadmin", flag.ExitOnError)
	seedAdminEmail := seedAdminCmd.String("email", "", "The super admin's email. The password will be prompted next.")
	seedAdminName := seedAdminCmd.String("name", "", "The super admin's name.")

	resetPasswordCmd := flag.NewFlagSet("resetpassword", flag.ExitOnError)
	resetPasswordUname := resetPasswordCmd.String("username", "", "The staff email, or the student login ID or email. The password will be prompted next.")

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(ctx, args[2:])
	case "seedadmin":
		if err := seedAdminCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *seedAdminEmail == "" {
			seedAdminCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword(seedAdminCmd)
		if err != nil {
			return err
		}
		return cli.seedAdmin(ctx, *seedAdminName, *seedAdminEmail, pwd)
	case "resetpassword":
		if err := resetPasswordCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *resetPasswordUname == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword(resetPasswordCmd)
		if err != nil {
			return err
		}
		return cli.resetPassword(ctx, *resetPasswordUname, pwd)
	default:
		cli.printUsage()
		return errHelp
	}
}
