package cblite

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/go-kivik/cblite/chttp"
)

// Connection describes a resolved server endpoint. It is created once per
// client, by the readiness gate, and never modified afterwards.
type Connection struct {
	// RawURL is the URL exactly as delivered by the native bridge. It may
	// embed credentials.
	RawURL string
	// Credentials is the "user:password" userinfo of RawURL, or empty.
	Credentials string
	// AuthToken is the base64 encoding of Credentials, or empty.
	AuthToken string
	// URL is RawURL with credentials stripped and a trailing slash.
	URL *url.URL
}

// ParseConnection splits a URL of the form scheme://[userinfo@]host[:port]/path
// into a Connection.
func ParseConnection(raw string) (*Connection, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, badRequest("cblite: invalid connection URL: %s", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, badRequest("cblite: invalid connection URL '%s': scheme and host required", redact(raw))
	}
	conn := &Connection{RawURL: raw}
	if u.User != nil {
		conn.Credentials = u.User.Username()
		if password, ok := u.User.Password(); ok {
			conn.Credentials += ":" + password
		}
		conn.AuthToken = chttp.BasicAuthToken(conn.Credentials)
	}
	stripped := *u
	stripped.User = nil
	stripped.RawQuery = ""
	stripped.Fragment = ""
	if !strings.HasSuffix(stripped.Path, "/") {
		stripped.Path += "/"
		if stripped.RawPath != "" {
			stripped.RawPath += "/"
		}
	}
	conn.URL = &stripped
	return conn, nil
}

// Header returns the header set attached to every request made through this
// connection.
func (c *Connection) Header() http.Header {
	return chttp.BasicAuthHeader(c.AuthToken)
}

// String returns the connection URL without credentials.
func (c *Connection) String() string {
	return c.URL.String()
}

// redact hides the password of a URL for logging. Unparsable input is
// returned unchanged.
func redact(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	return u.Redacted()
}
