package chttp

import (
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"testing"
)

type customTransport func(*http.Request) (*http.Response, error)

var _ http.RoundTripper = customTransport(nil)

func (c customTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	return c(req)
}

func newCustomClient(fn func(*http.Request) (*http.Response, error)) *Client {
	return New(&http.Client{
		Transport: customTransport(fn),
	})
}

func newTestClient(resp *http.Response, err error) *Client {
	return newCustomClient(func(req *http.Request) (*http.Response, error) {
		if resp != nil {
			resp.Request = req
		}
		return resp, err
	})
}

func mustParse(u string) *url.URL {
	parsed, err := url.Parse(u)
	if err != nil {
		panic(err)
	}
	return parsed
}

func Body(str string) io.ReadCloser {
	return io.NopCloser(strings.NewReader(str))
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": {"application/json"}},
		Body:       Body(body),
	}
}

func dsn(t *testing.T) string {
	dsn := os.Getenv("CBLITE_TEST_DSN")
	if dsn == "" {
		t.Skip("DSN not set")
	}
	return dsn
}
