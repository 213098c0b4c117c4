package chttp

import (
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
)

// HTTPError is an error that represents an HTTP transport error. It carries
// the response status and the raw response body.
type HTTPError struct {
	// Code is the HTTP status code of the response.
	Code int `json:"-"`
	// Kind is the server's short error name, e.g. "not_found".
	Kind string `json:"error"`
	// Reason is the server's explanation, if any.
	Reason string `json:"reason"`
	// Data is the raw response body.
	Data json.RawMessage `json:"-"`
}

func (e *HTTPError) Error() string {
	if e.Reason == "" {
		return http.StatusText(e.Code)
	}
	if statusText := http.StatusText(e.Code); statusText != "" {
		return fmt.Sprintf("%s: %s", statusText, e.Reason)
	}
	return e.Reason
}

// StatusCode returns the embedded status code.
func (e *HTTPError) StatusCode() int {
	return e.Code
}

// ResponseError returns an error from an *http.Response if the status code
// indicates failure. The response body is consumed and closed in that case.
func ResponseError(resp *http.Response) error {
	if resp.StatusCode < 400 {
		return nil
	}
	httpErr := &HTTPError{Code: resp.StatusCode}
	if resp.Body == nil {
		return httpErr
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.Request != nil && resp.Request.Method == http.MethodHead {
		return httpErr
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil || len(body) == 0 {
		return httpErr
	}
	httpErr.Data = body
	if ct, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type")); ct == typeJSON {
		_ = json.Unmarshal(body, httpErr)
	}
	return httpErr
}
