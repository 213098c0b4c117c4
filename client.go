package cblite

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/go-kivik/cblite/chttp"
)

// Client is a Couchbase Lite REST client. Its server address is supplied
// asynchronously by a Bridge, after DeviceReady is called; until then every
// request waits.
type Client struct {
	log  hclog.Logger
	gate *Gate
	http *chttp.Client
}

// New returns a client whose server URL will be fetched from bridge.
func New(bridge Bridge, opts ...Option) (*Client, error) {
	cfg := &config{}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}
	if cfg.logger == nil {
		cfg.logger = hclog.NewNullLogger()
	}
	hc, err := cfg.newHTTPClient()
	if err != nil {
		return nil, err
	}
	gate := NewGate(bridge, cfg.logger.Named("gate"))
	gate.Listen()
	return &Client{
		log:  cfg.logger,
		gate: gate,
		http: hc,
	}, nil
}

// DeviceReady must be called once, when the host environment reports that
// the native bridge is available.
func (c *Client) DeviceReady() error {
	return c.gate.Notify()
}

// State returns the state of the client's readiness gate.
func (c *Client) State() State {
	return c.gate.State()
}

// Connection waits for, and returns, the resolved server connection.
func (c *Client) Connection(ctx context.Context) (*Connection, error) {
	return c.gate.Await(ctx)
}

// ServerInfo is the server's welcome message.
type ServerInfo struct {
	CouchDB       string `json:"couchdb"`
	CouchbaseLite string `json:"CouchbaseLite,omitempty"`
	Version       string `json:"version"`
	Vendor        struct {
		Name    string `json:"name,omitempty"`
		Version string `json:"version,omitempty"`
	} `json:"vendor"`
	UUID string `json:"uuid,omitempty"`

	// RawResponse is the unparsed response body.
	RawResponse json.RawMessage `json:"-"`
}

// Info returns the server's metadata.
func (c *Client) Info(ctx context.Context) (*ServerInfo, error) {
	r, err := c.resource(ctx, pathRoot)
	if err != nil {
		return nil, err
	}
	var raw json.RawMessage
	if err := r.Get(ctx, nil, &raw); err != nil {
		return nil, err
	}
	info := &ServerInfo{RawResponse: raw}
	if err := decode(raw, info); err != nil {
		return nil, err
	}
	return info, nil
}

// Ping returns true if the server answers a request for its metadata.
func (c *Client) Ping(ctx context.Context) bool {
	_, err := c.Info(ctx)
	return err == nil
}

// Task is a running server task, as reported by _active_tasks. Its fields
// vary by task type.
type Task map[string]interface{}

// ActiveTasks returns the server's running tasks.
func (c *Client) ActiveTasks(ctx context.Context) ([]Task, error) {
	r, err := c.resource(ctx, pathActiveTasks)
	if err != nil {
		return nil, err
	}
	var tasks []Task
	err = r.List(ctx, nil, &tasks)
	return tasks, err
}

// AllDatabases returns a handle for every database on the server.
func (c *Client) AllDatabases(ctx context.Context) ([]*Database, error) {
	r, err := c.resource(ctx, pathAllDBs)
	if err != nil {
		return nil, err
	}
	var names []string
	if err := r.List(ctx, nil, &names); err != nil {
		return nil, err
	}
	dbs := make([]*Database, len(names))
	for i, name := range names {
		dbs[i] = c.Database(name)
	}
	return dbs, nil
}

// UserDatabases returns AllDatabases without the system databases, whose
// names begin with an underscore.
func (c *Client) UserDatabases(ctx context.Context) ([]*Database, error) {
	all, err := c.AllDatabases(ctx)
	if err != nil {
		return nil, err
	}
	dbs := make([]*Database, 0, len(all))
	for _, db := range all {
		if !strings.HasPrefix(db.name, systemDBPrefix) {
			dbs = append(dbs, db)
		}
	}
	return dbs, nil
}

// Database returns a handle for the named database. No request is made.
func (c *Client) Database(name string) *Database {
	return &Database{
		client: c,
		name:   name,
	}
}
