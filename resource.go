package cblite

import (
	"context"

	"github.com/go-kivik/cblite/chttp"
)

// resource waits for the server connection, then returns a request template
// for path, authenticated with the connection's credentials.
func (c *Client) resource(ctx context.Context, path string) (*chttp.Resource, error) {
	conn, err := c.gate.Await(ctx)
	if err != nil {
		return nil, err
	}
	return c.http.Resource(conn.URL, path, nil, conn.Header()), nil
}

// withOptions returns opts overlaid with params, so that path placeholders
// always take their values from params.
func withOptions(params chttp.Params, opts map[string]interface{}) chttp.Params {
	out := make(chttp.Params, len(opts)+len(params))
	for k, v := range opts {
		out[k] = v
	}
	for k, v := range params {
		out[k] = v
	}
	return out
}
