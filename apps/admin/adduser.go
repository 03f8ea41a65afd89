package main

import (
	"context"
	"time"

	"github.com/upskillhq/upskill/core"
	"github.com/upskillhq/upskill/core/user"
)

// addUser updates or creates a user.User
func (cli *commandLine) addUser(email, first, last, pwd string, isAdmin bool) error {
	ctx := context.Background()
	email = core.CleanString(email, true /* lower */)

	usr, err := cli.usrRepo.GetUserByEmail(ctx, email)
	if err != nil {
		if err != user.ErrNotFound {
			return err
		}
		now := time.Now().UTC()
		usr = user.User{
			Email:     email,
			FirstName: core.CleanString(first),
			LastName:  core.CleanString(last),
			Role:      user.RoleEmployee,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if isAdmin {
			usr.Role = user.RoleAdmin
		}
		if err := usr.SetPassword(pwd); err != nil {
			return err
		}
		usr.IsActive = true
		_, err = cli.usrRepo.CreateUser(ctx, usr)
		return err
	}

	if isAdmin {
		usr.Role = user.RoleAdmin
	}
	if err := usr.SetPassword(pwd); err != nil {
		return err
	}
	usr.UpdatedAt = time.Now().UTC()
	active := true
	_, err = cli.usrRepo.UpdateUser(ctx, usr, &active)
	return err
}
