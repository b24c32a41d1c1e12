package main

import (
	"os"

	"github.com/martijn/innobackup-s3/internal/cli"
)

func main() {
	os.Exit(cli.Execute(cli.NewBackupCommand(cli.DefaultEnvironment())))
}
