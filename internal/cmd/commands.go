package cmd

import (
	"github.com/hashicorp/go-hclog"
	"github.com/mitchellh/cli"

	"github.com/go-kivik/cblite/internal/cmd/base"
	"github.com/go-kivik/cblite/internal/cmd/commands/database"
	"github.com/go-kivik/cblite/internal/cmd/commands/server"
	"github.com/go-kivik/cblite/internal/cmd/commands/version"
)

// Commands is the mapping of all available cblite commands.
var Commands map[string]cli.CommandFactory

func initCommands(log hclog.Logger, ui cli.Ui) {
	b := func() *base.Command {
		return base.New(log, ui)
	}

	Commands = map[string]cli.CommandFactory{
		"info": func() (cli.Command, error) {
			return &server.InfoCommand{Command: b()}, nil
		},
		"active-tasks": func() (cli.Command, error) {
			return &server.ActiveTasksCommand{Command: b()}, nil
		},
		"all-dbs": func() (cli.Command, error) {
			return &server.AllDBsCommand{Command: b()}, nil
		},
		"create-db": func() (cli.Command, error) {
			return &database.CreateCommand{Command: b()}, nil
		},
		"replicate": func() (cli.Command, error) {
			return &database.ReplicateCommand{Command: b()}, nil
		},
		"sync": func() (cli.Command, error) {
			return &database.SyncCommand{Command: b()}, nil
		},
		"version": func() (cli.Command, error) {
			return &version.Command{Command: b()}, nil
		},
	}
}
