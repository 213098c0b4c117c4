package chttp

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// Resource is a request template: a base URL, a path pattern such as
// "/:db/:doc", default parameters, and a header set shared by all of its
// actions.
//
// Placeholders are filled from the merged parameters. Parameters that do not
// name a placeholder are sent as query parameters. A placeholder without a
// value is dropped from the path, along with its leading slash.
type Resource struct {
	client   *Client
	base     *url.URL
	template string
	defaults Params
	header   http.Header
}

// Resource returns a request template rooted at base.
func (c *Client) Resource(base *url.URL, template string, defaults Params, header http.Header) *Resource {
	return &Resource{
		client:   c,
		base:     base,
		template: template,
		defaults: defaults,
		header:   header,
	}
}

// URL returns the absolute URL the template expands to for params.
func (r *Resource) URL(params Params) (string, error) {
	merged := r.defaults.merge(params)
	segments := strings.Split(strings.Trim(r.template, "/"), "/")
	path := make([]string, 0, len(segments))
	for _, segment := range segments {
		if !strings.HasPrefix(segment, ":") {
			if segment != "" {
				path = append(path, segment)
			}
			continue
		}
		name := segment[1:]
		value, _ := merged[name].(string)
		delete(merged, name)
		if value == "" {
			continue
		}
		path = append(path, encodeSegment(name, value))
	}
	query, err := merged.Query()
	if err != nil {
		return "", err
	}
	u := strings.TrimSuffix(r.base.String(), "/") + "/" + strings.Join(path, "/")
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u, nil
}

// Get issues a GET request, decoding the response into dest.
func (r *Resource) Get(ctx context.Context, params Params, dest interface{}) error {
	return r.do(ctx, http.MethodGet, params, nil, dest)
}

// List issues a GET request whose response must be a JSON array, decoding it
// into dest.
func (r *Resource) List(ctx context.Context, params Params, dest interface{}) error {
	var raw json.RawMessage
	if err := r.do(ctx, http.MethodGet, params, nil, &raw); err != nil {
		return err
	}
	if !bytes.HasPrefix(bytes.TrimSpace(raw), []byte("[")) {
		return &HTTPError{Code: http.StatusBadGateway, Reason: "expected an array response", Data: raw}
	}
	if dest == nil {
		return nil
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return &HTTPError{Code: http.StatusBadGateway, Reason: err.Error(), Data: raw}
	}
	return nil
}

// Stream issues a GET request and returns the response body unread, for
// responses too long to buffer, such as a continuous changes feed. The caller
// must close it.
func (r *Resource) Stream(ctx context.Context, params Params) (io.ReadCloser, error) {
	u, err := r.URL(params)
	if err != nil {
		return nil, err
	}
	res, err := r.client.DoError(ctx, http.MethodGet, u, &Options{Header: r.header.Clone()})
	if err != nil {
		return nil, err
	}
	return res.Body, nil
}

// Put issues a PUT request with body JSON-encoded. A nil body sends no
// request body.
func (r *Resource) Put(ctx context.Context, params Params, body, dest interface{}) error {
	return r.do(ctx, http.MethodPut, params, body, dest)
}

// Post issues a POST request with body JSON-encoded.
func (r *Resource) Post(ctx context.Context, params Params, body, dest interface{}) error {
	return r.do(ctx, http.MethodPost, params, body, dest)
}

// Delete issues a DELETE request.
func (r *Resource) Delete(ctx context.Context, params Params, dest interface{}) error {
	return r.do(ctx, http.MethodDelete, params, nil, dest)
}

func (r *Resource) do(ctx context.Context, method string, params Params, body, dest interface{}) error {
	u, err := r.URL(params)
	if err != nil {
		return err
	}
	opts := &Options{
		JSON:   body,
		Header: r.header.Clone(),
	}
	_, err = r.client.DoJSON(ctx, method, u, opts, dest)
	return err
}
