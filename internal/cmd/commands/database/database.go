// Package database holds the commands which act on a single database.
package database

import (
	"flag"
	"fmt"

	"github.com/pkg/errors"

	"github.com/go-kivik/cblite"
	"github.com/go-kivik/cblite/internal/cmd/base"
)

type CreateCommand struct {
	*base.Command

	flagIfMissing bool
}

func (c *CreateCommand) Synopsis() string {
	return "Create a database"
}

func (c *CreateCommand) Help() string {
	return `Usage: cblite create-db [options] <name>

  Creates the named database. With -if-missing, an existing database is
  left alone and its info is printed instead.` +
		c.Flags().Help()
}

func (c *CreateCommand) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet("create-db", flag.ContinueOnError))
	c.ServerFlags(f)
	f.BoolVar(
		&c.flagIfMissing, "if-missing", false,
		"Succeed without changes if the database already exists.",
	)
	return f
}

func (c *CreateCommand) Run(args []string) int {
	flags := c.Flags()
	if err := flags.Parse(args); err != nil {
		c.UI.Error(fmt.Sprintf("error parsing flags: %v", err))
		return 1
	}
	if flags.NArg() != 1 {
		c.UI.Error("exactly one database name is required")
		return 1
	}
	client, err := c.Client()
	if err != nil {
		return c.Fail("connecting", err)
	}
	ctx, cancel := c.Context()
	defer cancel()

	db := client.Database(flags.Arg(0))
	if c.flagIfMissing {
		raw, err := db.CreateIfMissing(ctx)
		if err != nil {
			return c.Fail("creating database", err)
		}
		return c.Output(raw)
	}
	result, err := db.Create(ctx)
	if err != nil {
		return c.Fail("creating database", err)
	}
	return c.Output(result)
}

type ReplicateCommand struct {
	*base.Command

	flagTo         bool
	flagFrom       bool
	flagContinuous bool
}

func (c *ReplicateCommand) Synopsis() string {
	return "Replicate a database to or from a remote"
}

func (c *ReplicateCommand) Help() string {
	return `Usage: cblite replicate (-to|-from) [options] <db> <remote>

  Starts a one-way replication between a local database and a remote
  database URL, or another database on the same server.` +
		c.Flags().Help()
}

func (c *ReplicateCommand) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet("replicate", flag.ContinueOnError))
	c.ServerFlags(f)
	f.BoolVar(&c.flagTo, "to", false, "Push the local database to the remote.")
	f.BoolVar(&c.flagFrom, "from", false, "Pull the remote into the local database.")
	f.BoolVar(
		&c.flagContinuous, "continuous", false,
		"Keep replicating until the server is stopped.",
	)
	return f
}

func (c *ReplicateCommand) Run(args []string) int {
	flags := c.Flags()
	if err := flags.Parse(args); err != nil {
		c.UI.Error(fmt.Sprintf("error parsing flags: %v", err))
		return 1
	}
	if c.flagTo == c.flagFrom {
		c.UI.Error("exactly one of -to or -from is required")
		return 1
	}
	if flags.NArg() != 2 {
		c.UI.Error("a database name and a remote are required")
		return 1
	}
	client, err := c.Client()
	if err != nil {
		return c.Fail("connecting", err)
	}
	ctx, cancel := c.Context()
	defer cancel()

	db := client.Database(flags.Arg(0))
	spec := &cblite.ReplicationSpec{URL: flags.Arg(1), Continuous: c.flagContinuous}
	replicate := db.ReplicateTo
	if c.flagFrom {
		replicate = db.ReplicateFrom
	}
	result, err := replicate(ctx, spec)
	if err != nil {
		return c.Fail("replicating", err)
	}
	return c.Output(result)
}

type SyncCommand struct {
	*base.Command
}

func (c *SyncCommand) Synopsis() string {
	return "Replicate a database both ways with a remote"
}

func (c *SyncCommand) Help() string {
	return `Usage: cblite sync [options] <db> <remote-url>

  Replicates the local database to the remote, then the remote to the
  local database. Both directions are attempted even if one fails.` +
		c.Flags().Help()
}

func (c *SyncCommand) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet("sync", flag.ContinueOnError))
	c.ServerFlags(f)
	return f
}

func (c *SyncCommand) Run(args []string) int {
	flags := c.Flags()
	if err := flags.Parse(args); err != nil {
		c.UI.Error(fmt.Sprintf("error parsing flags: %v", err))
		return 1
	}
	if flags.NArg() != 2 {
		c.UI.Error("a database name and a remote URL are required")
		return 1
	}
	client, err := c.Client()
	if err != nil {
		return c.Fail("connecting", err)
	}
	ctx, cancel := c.Context()
	defer cancel()

	result, err := client.Database(flags.Arg(0)).SyncWith(ctx, flags.Arg(1))
	var syncErr *cblite.SyncError
	if errors.As(err, &syncErr) {
		c.Output(syncErr.Result)
	}
	if err != nil {
		return c.Fail("syncing", err)
	}
	return c.Output(result)
}
