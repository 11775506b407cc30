package main

import (
	"context"
	"time"

	"github.com/hekima/shindano/core"
	"github.com/hekima/shindano/core/user"
)

// createSuperAdmin promotes an existing account or creates a fresh one.
// The account comes out enabled with its email pre-authenticated.
func (cli *commandLine) createSuperAdmin(uname, email, pwd string) error {
	ctx := context.Background()
	uname = core.CleanString(uname, true /* lower */)
	email = core.CleanString(email, true /* lower */)

	usr, err := cli.usrRepo.GetUserByUsername(ctx, uname)
	if err != nil {
		if !core.IsNotFound(err) {
			return err
		}
		usr = user.User{
			Username:   uname,
			Email:      email,
			CreateTime: time.Now().UTC(),
		}
	}
	usr.AdminType = user.SuperAdmin
	usr.IsDisabled = false
	usr.HasEmailAuth = true
	if err := usr.SetPassword(pwd); err != nil {
		return err
	}

	if usr.ID == 0 {
		_, err = cli.usrRepo.CreateUser(ctx, usr)
	} else {
		_, err = cli.usrRepo.UpdateUser(ctx, usr)
	}
	return err
}
