package chttp

import (
	"encoding/base64"
	"net/http"
)

// HeaderAuthorization is the name of the HTTP Basic Auth header.
const HeaderAuthorization = "Authorization"

// BasicAuthToken returns the base64 encoding of a "user:password" credential
// string, or an empty string when there are no credentials.
func BasicAuthToken(credentials string) string {
	if credentials == "" {
		return ""
	}
	return base64.StdEncoding.EncodeToString([]byte(credentials))
}

// BasicAuthHeader returns the header set shared by every request template.
// It carries "Authorization: Basic <token>" when token is non-empty, and is
// empty otherwise.
func BasicAuthHeader(token string) http.Header {
	h := http.Header{}
	if token != "" {
		h.Set(HeaderAuthorization, "Basic "+token)
	}
	return h
}
