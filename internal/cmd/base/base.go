// Package base holds what every cblite subcommand shares: the logger, the UI
// and the server connection flags.
package base

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/mitchellh/cli"
	"github.com/pkg/errors"

	"github.com/go-kivik/cblite"
)

// EnvURL names the environment variable holding the default server URL.
const EnvURL = "CBLITE_URL"

// Command is embedded by every subcommand.
type Command struct {
	Log hclog.Logger
	UI  cli.Ui

	flagURL     string
	flagTimeout time.Duration
}

// New returns a Command writing to ui and logging to log.
func New(log hclog.Logger, ui cli.Ui) *Command {
	return &Command{Log: log, UI: ui}
}

// ServerFlags adds the connection flags to f.
func (c *Command) ServerFlags(f *FlagSet) {
	f.StringVar(
		&c.flagURL, "url", "",
		"Server URL, optionally with credentials. Defaults to $"+EnvURL+".",
	)
	f.DurationVar(
		&c.flagTimeout, "timeout", 30*time.Second,
		"Timeout for each request.",
	)
}

// Client returns a ready client for the server named by the -url flag.
func (c *Command) Client() (*cblite.Client, error) {
	url := c.flagURL
	if url == "" {
		url = os.Getenv(EnvURL)
	}
	if url == "" {
		return nil, errors.Errorf("server URL required: set -url or $%s", EnvURL)
	}
	client, err := cblite.New(
		cblite.StaticBridge(url),
		cblite.WithLogger(c.Log.Named("cblite")),
		cblite.WithTimeout(c.flagTimeout),
		cblite.WithUserAgent("cblite-cli"),
	)
	if err != nil {
		return nil, err
	}
	if err := client.DeviceReady(); err != nil {
		return nil, err
	}
	if _, err := client.Connection(context.Background()); err != nil {
		return nil, err
	}
	return client, nil
}

// Context returns a context cancelled on interrupt.
func (c *Command) Context() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// Output writes v to the UI as indented JSON.
func (c *Command) Output(v interface{}) int {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		c.UI.Error(fmt.Sprintf("error encoding output: %v", err))
		return 1
	}
	c.UI.Output(string(out))
	return 0
}

// Fail reports err, prefixed by what was being attempted, and returns the
// exit code for failure.
func (c *Command) Fail(doing string, err error) int {
	c.Log.Debug("command failed", "action", doing, "status", cblite.StatusCode(err), "error", err)
	c.UI.Error(fmt.Sprintf("error %s: %v", doing, err))
	return 1
}
