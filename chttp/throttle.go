package chttp

import (
	"net/http"

	"github.com/pkg/errors"
	"golang.org/x/time/rate"
)

// ErrMustNotBeZero is returned by Throttle for non-positive limits.
var ErrMustNotBeZero = errors.New("must be greater than zero")

// throttle is an http.RoundTripper, using the time/rate token
// bucket limiter to restrict outbound calls.
type throttle struct {
	limiter *rate.Limiter
	next    http.RoundTripper
}

var _ http.RoundTripper = &throttle{}

// Throttle wraps next in a token-bucket limiter allowing rps requests per
// second with the given burst. If next is nil, http.DefaultTransport is used.
func Throttle(rps, burst int, next http.RoundTripper) (http.RoundTripper, error) {
	if rps <= 0 || burst <= 0 {
		return nil, errors.Wrapf(ErrMustNotBeZero, "rps[%d] and burst[%d]", rps, burst)
	}
	if next == nil {
		next = http.DefaultTransport
	}
	return &throttle{
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
		next:    next,
	}, nil
}

// RoundTrip blocks until the limiter admits the request, or the request's
// context ends.
func (t *throttle) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := t.limiter.Wait(req.Context()); err != nil {
		return nil, errors.Wrap(err, "chttp: throttle")
	}
	return t.next.RoundTrip(req)
}
