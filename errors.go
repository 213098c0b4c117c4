package cblite

import (
	"fmt"
	"net/http"

	kivik "github.com/go-kivik/kivik/v4"
	"github.com/pkg/errors"
)

var (
	// ErrBridgeMissing is returned by DeviceReady when no native bridge is
	// available. It is a configuration error and is never retried.
	ErrBridgeMissing = errors.New("cblite: native bridge not found")

	// ErrAlreadyInitialized is returned by a second call to DeviceReady.
	ErrAlreadyInitialized = errors.New("cblite: already initialized")

	// ErrNotListening is returned by Gate.Notify before Gate.Listen.
	ErrNotListening = errors.New("cblite: gate is not listening")
)

// BridgeError is the permanent failure of a gate whose native bridge
// reported an error, or returned a URL that could not be parsed.
type BridgeError struct {
	Err error
}

func (e *BridgeError) Error() string {
	return "cblite: unable to connect: " + e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *BridgeError) Unwrap() error {
	return e.Err
}

func missingArg(arg string) error {
	return badRequest("cblite: %s required", arg)
}

func badRequest(format string, args ...interface{}) error {
	return &kivik.Error{Status: http.StatusBadRequest, Err: fmt.Errorf(format, args...)}
}

// StatusCode returns the HTTP status carried by err: the server's response
// status for transport errors, or the status assigned to client-side
// validation errors. It returns 0 if err is nil or carries no status.
func StatusCode(err error) int {
	if err == nil {
		return 0
	}
	var coder interface{ StatusCode() int }
	if errors.As(err, &coder) {
		return coder.StatusCode()
	}
	var kerr *kivik.Error
	if errors.As(err, &kerr) {
		return kerr.HTTPStatus()
	}
	return 0
}
