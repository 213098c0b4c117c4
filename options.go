package cblite

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/trace"

	"github.com/go-kivik/cblite/chttp"
)

// Option configures a Client.
type Option func(*config) error

type config struct {
	logger     hclog.Logger
	httpClient *http.Client
	transport  http.RoundTripper
	timeout    time.Duration
	userAgents []string
	rps, burst int
	tracer     trace.Tracer
}

// WithLogger sets the logger used by the client and its readiness gate.
func WithLogger(logger hclog.Logger) Option {
	return func(c *config) error {
		if logger == nil {
			return errors.New("cblite: nil logger")
		}
		c.logger = logger
		return nil
	}
}

// WithHTTPClient sets the HTTP client used for requests. The client is
// copied; later changes to hc are not observed.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *config) error {
		if hc == nil {
			return errors.New("cblite: nil HTTP client")
		}
		c.httpClient = hc
		return nil
	}
}

// WithTransport sets the round tripper used for requests, replacing that of
// any client passed to WithHTTPClient.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *config) error {
		if rt == nil {
			return errors.New("cblite: nil transport")
		}
		c.transport = rt
		return nil
	}
}

// WithTimeout sets a timeout on each HTTP request.
func WithTimeout(d time.Duration) Option {
	return func(c *config) error {
		if d < 0 {
			return errors.Errorf("cblite: negative timeout %s", d)
		}
		c.timeout = d
		return nil
	}
}

// WithUserAgent appends ua to the User-Agent header sent with every request.
func WithUserAgent(ua string) Option {
	return func(c *config) error {
		c.userAgents = append(c.userAgents, ua)
		return nil
	}
}

// WithThrottle limits requests to rps per second, allowing bursts of up to
// burst requests.
func WithThrottle(rps, burst int) Option {
	return func(c *config) error {
		if rps <= 0 || burst <= 0 {
			return errors.Wrapf(chttp.ErrMustNotBeZero, "cblite: throttle rps[%d] and burst[%d]", rps, burst)
		}
		c.rps, c.burst = rps, burst
		return nil
	}
}

// WithTracer sets the OpenTelemetry tracer used to create a span for every
// request.
func WithTracer(tracer trace.Tracer) Option {
	return func(c *config) error {
		c.tracer = tracer
		return nil
	}
}

// newHTTPClient assembles the HTTP client described by c.
func (c *config) newHTTPClient() (*chttp.Client, error) {
	hc := &http.Client{}
	if c.httpClient != nil {
		*hc = *c.httpClient
	}
	if c.transport != nil {
		hc.Transport = c.transport
	}
	if c.timeout > 0 {
		hc.Timeout = c.timeout
	}
	if c.rps > 0 {
		next := hc.Transport
		if next == nil {
			next = http.DefaultTransport
		}
		rt, err := chttp.Throttle(c.rps, c.burst, next)
		if err != nil {
			return nil, err
		}
		hc.Transport = rt
	}
	client := chttp.New(hc)
	client.UserAgents = append([]string{userAgent}, c.userAgents...)
	client.Tracer = c.tracer
	return client, nil
}

// keyOptions are the query options which CouchDB expects as JSON values.
var keyOptions = []string{"key", "startkey", "endkey", "start_key", "end_key"}

// viewParams converts opts to request parameters, JSON-encoding key options.
// Key options already of type json.RawMessage are passed through.
func viewParams(opts map[string]interface{}) (chttp.Params, error) {
	params := make(chttp.Params, len(opts))
	for k, v := range opts {
		params[k] = v
	}
	for _, key := range keyOptions {
		v, ok := params[key]
		if !ok {
			continue
		}
		if _, ok := v.(json.RawMessage); ok {
			continue
		}
		enc, err := json.Marshal(v)
		if err != nil {
			return nil, badRequest("cblite: invalid value for '%s': %s", key, err)
		}
		params[key] = json.RawMessage(enc)
	}
	return params, nil
}
