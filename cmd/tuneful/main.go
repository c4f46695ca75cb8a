package main

import (
	"fmt"
	"os"

	"github.com/mwantia/tuneful/cmd/tuneful/cli"
	"github.com/mwantia/tuneful/cmd/tuneful/cli/admin"
	"github.com/mwantia/tuneful/cmd/tuneful/cli/server"
)

var (
	version = "0.0.1-dev"
	commit  = "main"
)

func main() {
	info := cli.VersionInfo{
		Version: version,
		Commit:  commit,
	}
	root := cli.NewRootCommand(info)

	root.AddCommand(cli.NewVersionCommand(info))

	root.AddCommand(server.NewServerCommand())
	root.AddCommand(server.NewConfigCommand())
	root.AddCommand(server.NewMigrateCommand())

	root.AddCommand(admin.NewSongsCommand())
	root.AddCommand(admin.NewFilesCommand())

	if err := root.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
