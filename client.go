package ledgerline

import (
	"net/http"
	"time"

	"github.com/hashicorp/go-hclog"
)

// Client is the Ledgerline API client. It carries the process-wide Config
// and is safe for concurrent use; independent calls share no mutable state.
type Client struct {
	cfg        Config
	http       *http.Client
	log        hclog.Logger
	processors []EventProcessor
}

// Option configures the Client.
type Option func(*Client)

// WithTimeout sets the HTTP request timeout (default 30s).
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// WithHTTPClient provides a custom *http.Client. Its redirect policy is
// replaced: the dispatcher classifies 302 responses itself and must see
// them rather than follow them.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTransport sets the underlying http.RoundTripper, e.g. a
// *RetryTransport.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) { c.http.Transport = rt }
}

// WithLogger sets the logger for request and poll debug logging. The
// default is a no-op logger; the SDK never logs errors on its own, it
// returns them.
func WithLogger(l hclog.Logger) Option {
	return func(c *Client) { c.log = l }
}

// WithProcessors appends event processors applied, in order, to every event
// before it is published.
func WithProcessors(ps ...EventProcessor) Option {
	return func(c *Client) { c.processors = append(c.processors, ps...) }
}

// New creates a Client with the given configuration.
func New(cfg Config, opts ...Option) *Client {
	c := &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: 30 * time.Second},
		log:  hclog.NewNullLogger(),
	}
	for _, o := range opts {
		o(c)
	}
	// 302 is a classified outcome, not a hop to follow.
	c.http.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		return http.ErrUseLastResponse
	}
	return c
}

// FromEnv creates a Client configured from LEDGERLINE_* environment
// variables.
func FromEnv(opts ...Option) *Client {
	return New(ConfigFromEnv(), opts...)
}

// Config returns a copy of the client's process-wide configuration.
func (c *Client) Config() Config {
	return c.cfg
}
