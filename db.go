package cblite

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/pkg/errors"

	"github.com/go-kivik/cblite/chttp"
)

// Database is a handle to a named database. It holds no state beyond the
// name, so handles are cheap and may be shared between goroutines.
type Database struct {
	client *Client
	name   string
}

// Name returns the database name.
func (d *Database) Name() string {
	return d.name
}

// Result is the body returned by the server for write operations.
type Result struct {
	OK  bool   `json:"ok"`
	ID  string `json:"id,omitempty"`
	Rev string `json:"rev,omitempty"`
}

func (d *Database) resource(ctx context.Context, path string) (*chttp.Resource, chttp.Params, error) {
	if d.name == "" {
		return nil, nil, missingArg("dbName")
	}
	r, err := d.client.resource(ctx, path)
	if err != nil {
		return nil, nil, err
	}
	return r, chttp.Params{"db": d.name}, nil
}

func (d *Database) rawInfo(ctx context.Context) (json.RawMessage, error) {
	r, params, err := d.resource(ctx, pathDB)
	if err != nil {
		return nil, err
	}
	var raw json.RawMessage
	if err := r.Get(ctx, params, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// Info returns the database's metadata. A missing database results in a
// 404 error.
func (d *Database) Info(ctx context.Context) (*DBInfo, error) {
	raw, err := d.rawInfo(ctx)
	if err != nil {
		return nil, err
	}
	return parseDBInfo(raw)
}

// Exists reports whether Info succeeds. Any failure is reported as false.
func (d *Database) Exists(ctx context.Context) bool {
	_, err := d.rawInfo(ctx)
	return err == nil
}

// CheckIfExists is an alias for Exists.
func (d *Database) CheckIfExists(ctx context.Context) bool {
	return d.Exists(ctx)
}

func (d *Database) rawCreate(ctx context.Context) (json.RawMessage, error) {
	r, params, err := d.resource(ctx, pathDB)
	if err != nil {
		return nil, err
	}
	var raw json.RawMessage
	if err := r.Put(ctx, params, nil, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// Create creates the database. Creating a database which already exists is
// an error (412 Precondition Failed).
func (d *Database) Create(ctx context.Context) (*Result, error) {
	raw, err := d.rawCreate(ctx)
	if err != nil {
		return nil, err
	}
	result := &Result{}
	if err := decode(raw, result); err != nil {
		return nil, err
	}
	return result, nil
}

// CreateIfMissing creates the database unless it already exists. It returns
// the body of the info request if the database exists, or that of the create
// request if it did not. Any failure other than 404 from the existence check
// is returned without attempting to create the database.
func (d *Database) CreateIfMissing(ctx context.Context) (json.RawMessage, error) {
	raw, err := d.rawInfo(ctx)
	if err == nil {
		return raw, nil
	}
	if StatusCode(err) != http.StatusNotFound {
		return nil, errors.Wrap(err, "cblite: unable to create database")
	}
	d.client.log.Debug("database not found, creating", "db", d.name)
	return d.rawCreate(ctx)
}

// Destroy deletes the database.
func (d *Database) Destroy(ctx context.Context) (*Result, error) {
	r, params, err := d.resource(ctx, pathDB)
	if err != nil {
		return nil, err
	}
	result := &Result{}
	if err := r.Delete(ctx, params, result); err != nil {
		return nil, err
	}
	return result, nil
}

// Compact starts compaction of the database.
func (d *Database) Compact(ctx context.Context) (*Result, error) {
	r, params, err := d.resource(ctx, pathCompact)
	if err != nil {
		return nil, err
	}
	result := &Result{}
	// The server rejects compaction requests without a JSON content type.
	if err := r.Post(ctx, params, struct{}{}, result); err != nil {
		return nil, err
	}
	return result, nil
}

// All queries _all_docs. If ids is non-nil, only those documents are
// returned, and opts still apply as query parameters.
func (d *Database) All(ctx context.Context, opts map[string]interface{}, ids []string) (*Rows, error) {
	r, params, err := d.resource(ctx, pathAllDocs)
	if err != nil {
		return nil, err
	}
	query, err := viewParams(opts)
	if err != nil {
		return nil, err
	}
	var keys []interface{}
	if ids != nil {
		keys = make([]interface{}, len(ids))
		for i, id := range ids {
			keys[i] = id
		}
	}
	return queryRows(ctx, r, withOptions(params, query), keys)
}

// Document returns a handle for the document with the given id. If id is
// empty, the first Save creates the document with a server-generated id, and
// the handle then refers to that document.
func (d *Database) Document(id string) *Document {
	return &Document{
		db: d,
		id: id,
	}
}

// Design returns a handle for the design document _design/id.
func (d *Database) Design(id string) *Design {
	return &Design{
		db: d,
		id: id,
	}
}
