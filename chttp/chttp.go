// Package chttp provides a minimal HTTP driver backend for communicating with
// CouchDB-compatible servers, along with request templates bound to a base
// URL and a path pattern.
package chttp

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/trace"
)

const typeJSON = "application/json"

// Client represents a client connection. It embeds an *http.Client
type Client struct {
	*http.Client

	// UserAgents is appended to set the User-Agent header. Typically it should
	// contain pairs of product name and version.
	UserAgents []string

	// Tracer, if set, is used to start a span for every request. When nil,
	// the globally registered tracer provider is used.
	Tracer trace.Tracer
}

// New returns a client wrapping a copy of hc. If hc is nil, a zero-value
// *http.Client is used. A cookie jar is installed if hc does not carry one.
func New(hc *http.Client) *Client {
	cp := &http.Client{}
	if hc != nil {
		*cp = *hc
	}
	c := &Client{Client: cp}
	setCookieJar(c)
	return c
}

// NewRequest returns a new *http.Request to the absolute URL u, with the
// headers and body described by opts.
func (c *Client) NewRequest(ctx context.Context, method, u string, opts *Options) (*http.Request, error) {
	if opts == nil {
		opts = &Options{}
	}
	body, err := requestBody(opts)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, errors.Wrap(err, "chttp: invalid request")
	}
	if len(opts.Query) > 0 {
		q := req.URL.Query()
		for k, v := range opts.Query {
			q[k] = append(q[k], v...)
		}
		req.URL.RawQuery = q.Encode()
	}
	c.setHeaders(req, opts)
	return req, nil
}

func requestBody(opts *Options) (io.Reader, error) {
	switch {
	case opts.Body != nil && opts.JSON != nil:
		return nil, errors.New("chttp: Body and JSON are mutually exclusive")
	case opts.JSON != nil:
		buf, err := json.Marshal(opts.JSON)
		if err != nil {
			return nil, errors.Wrap(err, "chttp: encoding request body")
		}
		opts.ContentType = typeJSON
		return bytes.NewReader(buf), nil
	case opts.Body != nil:
		return opts.Body, nil
	}
	return nil, nil
}

func (c *Client) setHeaders(req *http.Request, opts *Options) {
	accept := typeJSON
	if opts.Accept != "" {
		accept = opts.Accept
	}
	req.Header.Set("Accept", accept)
	if req.Body != nil {
		contentType := typeJSON
		if opts.ContentType != "" {
			contentType = opts.ContentType
		}
		req.Header.Set("Content-Type", contentType)
	}
	if len(c.UserAgents) > 0 {
		req.Header.Set("User-Agent", strings.Join(c.UserAgents, " "))
	}
	for k, v := range opts.Header {
		for _, value := range v {
			req.Header.Add(k, value)
		}
	}
}

// DoReq does an HTTP request. An error is returned only if there was an error
// processing the request. In particular, an error status code, such as 400
// or 500, does _not_ cause an error to be returned.
func (c *Client) DoReq(ctx context.Context, method, u string, opts *Options) (*http.Response, error) {
	ctx, span := c.startSpan(ctx, method, u)
	defer span.End()
	req, err := c.NewRequest(ctx, method, u, opts)
	if err != nil {
		endSpan(span, nil, err)
		return nil, err
	}
	injectSpan(ctx, req)
	ct := ContextClientTrace(ctx)
	if ct != nil {
		ct.httpRequest(req)
		ct.httpRequestBody(req)
	}
	res, err := c.Do(req)
	endSpan(span, res, err)
	if err != nil {
		return nil, err
	}
	if ct != nil {
		ct.httpResponse(res)
		ct.httpResponseBody(res)
	}
	return res, nil
}

// DoError is the same as DoReq(), followed by checking the response for error
// status codes.
func (c *Client) DoError(ctx context.Context, method, u string, opts *Options) (*http.Response, error) {
	res, err := c.DoReq(ctx, method, u, opts)
	if err != nil {
		return res, err
	}
	err = ResponseError(res)
	return res, err
}

// DoJSON combines DoError() with decoding the JSON response body into i. If i
// is nil, the response body is discarded.
func (c *Client) DoJSON(ctx context.Context, method, u string, opts *Options, i interface{}) (*http.Response, error) {
	res, err := c.DoError(ctx, method, u, opts)
	if err != nil {
		return res, err
	}
	defer func() { _ = res.Body.Close() }()
	if i == nil {
		_, err = io.Copy(io.Discard, res.Body)
		return res, err
	}
	if err := json.NewDecoder(res.Body).Decode(i); err != nil {
		return res, &HTTPError{Code: http.StatusBadGateway, Reason: err.Error()}
	}
	return res, nil
}
