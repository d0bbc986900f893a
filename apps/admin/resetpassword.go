package main

import "context"

func (cli *commandLine) resetPassword(role, uname, pwd string) error {
	return cli.usrSvc.ResetPassword(context.Background(), role, uname, pwd)
}
