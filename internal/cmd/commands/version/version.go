package version

import (
	"github.com/go-kivik/cblite"
	"github.com/go-kivik/cblite/internal/cmd/base"
)

type Command struct {
	*base.Command
}

func (c *Command) Synopsis() string {
	return "Print the version"
}

func (c *Command) Help() string {
	return `Usage: cblite version

  Prints the version of this tool and of the client library.`
}

func (c *Command) Run(args []string) int {
	c.UI.Output("cblite v" + cblite.Version)
	return 0
}
