package chttp

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"gitlab.com/flimzy/testy"
	"go.opentelemetry.io/otel/trace/noop"
)

func TestHTTPResponse(t *testing.T) {
	tests := []struct {
		name      string
		trace     func(t *testing.T) *ClientTrace
		resp      *http.Response
		finalResp *http.Response
	}{
		{
			name:      "no hook defined",
			trace:     func(_ *testing.T) *ClientTrace { return &ClientTrace{} },
			resp:      &http.Response{StatusCode: 200},
			finalResp: &http.Response{StatusCode: 200},
		},
		{
			name: "HTTPResponseBody/cloned response",
			trace: func(t *testing.T) *ClientTrace {
				return &ClientTrace{
					HTTPResponseBody: func(r *http.Response) {
						if r.StatusCode != 200 {
							t.Errorf("Unexpected status code: %d", r.StatusCode)
						}
						r.StatusCode = 0
						defer r.Body.Close() // nolint: errcheck
						if _, err := io.ReadAll(r.Body); err != nil {
							t.Fatal(err)
						}
					},
				}
			},
			resp:      &http.Response{StatusCode: 200, Body: Body("testing")},
			finalResp: &http.Response{StatusCode: 200, Body: Body("testing")},
		},
		{
			name: "HTTPResponse/cloned response",
			trace: func(t *testing.T) *ClientTrace {
				return &ClientTrace{
					HTTPResponse: func(r *http.Response) {
						if r.StatusCode != 200 {
							t.Errorf("Unexpected status code: %d", r.StatusCode)
						}
						r.StatusCode = 0
						if r.Body != nil {
							t.Errorf("non-nil body")
						}
					},
				}
			},
			resp:      &http.Response{StatusCode: 200, Body: Body("testing")},
			finalResp: &http.Response{StatusCode: 200, Body: Body("testing")},
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			trace := test.trace(t)
			trace.httpResponse(test.resp)
			trace.httpResponseBody(test.resp)
			if d := testy.DiffHTTPResponse(test.finalResp, test.resp); d != nil {
				t.Error(d)
			}
		})
	}
}

func TestReplayReadCloser(t *testing.T) {
	readErr := errors.New("read error")
	closeErr := errors.New("close error")
	r := newReplay([]byte("foo"), readErr, closeErr)
	content, err := io.ReadAll(r)
	if string(content) != "foo" {
		t.Errorf("Unexpected content: %s", content)
	}
	testy.Error(t, "read error", err)
}

func TestDoReqTrace(t *testing.T) {
	var reqBody, respBody string
	var reqMethod string
	c := newCustomClient(func(req *http.Request) (*http.Response, error) {
		return &http.Response{StatusCode: 200, Request: req, Body: Body(`{"ok":true}`)}, nil
	})
	c.Tracer = noop.NewTracerProvider().Tracer("test")
	ctx := WithClientTrace(context.Background(), &ClientTrace{
		HTTPRequest: func(r *http.Request) {
			reqMethod = r.Method
			if r.Body != nil {
				t.Errorf("non-nil body")
			}
		},
		HTTPRequestBody: func(r *http.Request) {
			b, _ := io.ReadAll(r.Body)
			reqBody = string(b)
		},
		HTTPResponseBody: func(r *http.Response) {
			b, _ := io.ReadAll(r.Body)
			respBody = string(b)
		},
	})
	res, err := c.DoReq(ctx, http.MethodPost, "http://example.com/_replicate", &Options{Body: strings.NewReader(`{"source":"a"}`)})
	if err != nil {
		t.Fatal(err)
	}
	body, _ := io.ReadAll(res.Body)
	if string(body) != `{"ok":true}` {
		t.Errorf("response body not replayed: %s", body)
	}
	if reqMethod != http.MethodPost {
		t.Errorf("Unexpected method: %s", reqMethod)
	}
	if reqBody != `{"source":"a"}` {
		t.Errorf("Unexpected request body: %s", reqBody)
	}
	if respBody != `{"ok":true}` {
		t.Errorf("Unexpected response body: %s", respBody)
	}
}
