package main

import (
	"context"
	"fmt"

	"github.com/shuleni/shule/core/user"
)

func (cli *commandLine) addAdmin(name, uname, email, pwd string) error {
	data := user.NewAdmin{
		Name:            name,
		Username:        uname,
		Email:           email,
		Password:        pwd,
		PasswordConfirm: pwd,
	}
	if err := data.Validate(cli.usrSvc); err != nil {
		return err
	}
	acct, err := cli.usrSvc.CreateAdmin(context.Background(), data)
	if err != nil {
		return err
	}
	fmt.Printf("administrator %q created (id=%d)\n", acct.Username, acct.ID)
	return nil
}
