// Package server holds the commands which query the server as a whole.
package server

import (
	"flag"
	"fmt"

	"github.com/go-kivik/cblite/internal/cmd/base"
)

type InfoCommand struct {
	*base.Command
}

func (c *InfoCommand) Synopsis() string {
	return "Show the server's welcome message"
}

func (c *InfoCommand) Help() string {
	return `Usage: cblite info [options]

  Prints the server's metadata, including its version.` +
		c.Flags().Help()
}

func (c *InfoCommand) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet("info", flag.ContinueOnError))
	c.ServerFlags(f)
	return f
}

func (c *InfoCommand) Run(args []string) int {
	if err := c.Flags().Parse(args); err != nil {
		c.UI.Error(fmt.Sprintf("error parsing flags: %v", err))
		return 1
	}
	client, err := c.Client()
	if err != nil {
		return c.Fail("connecting", err)
	}
	ctx, cancel := c.Context()
	defer cancel()

	info, err := client.Info(ctx)
	if err != nil {
		return c.Fail("fetching server info", err)
	}
	return c.Output(info.RawResponse)
}

type ActiveTasksCommand struct {
	*base.Command
}

func (c *ActiveTasksCommand) Synopsis() string {
	return "List the server's running tasks"
}

func (c *ActiveTasksCommand) Help() string {
	return `Usage: cblite active-tasks [options]

  Prints the server's running tasks, such as replications.` +
		c.Flags().Help()
}

func (c *ActiveTasksCommand) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet("active-tasks", flag.ContinueOnError))
	c.ServerFlags(f)
	return f
}

func (c *ActiveTasksCommand) Run(args []string) int {
	if err := c.Flags().Parse(args); err != nil {
		c.UI.Error(fmt.Sprintf("error parsing flags: %v", err))
		return 1
	}
	client, err := c.Client()
	if err != nil {
		return c.Fail("connecting", err)
	}
	ctx, cancel := c.Context()
	defer cancel()

	tasks, err := client.ActiveTasks(ctx)
	if err != nil {
		return c.Fail("listing active tasks", err)
	}
	return c.Output(tasks)
}

type AllDBsCommand struct {
	*base.Command

	flagUser bool
}

func (c *AllDBsCommand) Synopsis() string {
	return "List databases"
}

func (c *AllDBsCommand) Help() string {
	return `Usage: cblite all-dbs [options]

  Prints the name of every database on the server, one per line.` +
		c.Flags().Help()
}

func (c *AllDBsCommand) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet("all-dbs", flag.ContinueOnError))
	c.ServerFlags(f)
	f.BoolVar(
		&c.flagUser, "user", false,
		"Hide system databases, whose names begin with an underscore.",
	)
	return f
}

func (c *AllDBsCommand) Run(args []string) int {
	if err := c.Flags().Parse(args); err != nil {
		c.UI.Error(fmt.Sprintf("error parsing flags: %v", err))
		return 1
	}
	client, err := c.Client()
	if err != nil {
		return c.Fail("connecting", err)
	}
	ctx, cancel := c.Context()
	defer cancel()

	list := client.AllDatabases
	if c.flagUser {
		list = client.UserDatabases
	}
	dbs, err := list(ctx)
	if err != nil {
		return c.Fail("listing databases", err)
	}
	for _, db := range dbs {
		c.UI.Output(db.Name())
	}
	return 0
}
