package httpclient

import (
	"net/http"
	"syscall"
	"time"

	"github.com/rs/zerolog"
)

// ClientBuilder builds HTTP clients with a fluent interface.
type ClientBuilder struct {
	config Config
	logger zerolog.Logger
}

// NewClientBuilder creates a new ClientBuilder with default configuration.
func NewClientBuilder(logger zerolog.Logger) *ClientBuilder {
	return &ClientBuilder{
		config: DefaultConfig(),
		logger: logger,
	}
}

// WithTimeout sets the overall request timeout.
func (b *ClientBuilder) WithTimeout(timeout time.Duration) *ClientBuilder {
	b.config.Timeout = timeout
	return b
}

// WithUserAgent sets the User-Agent header.
func (b *ClientBuilder) WithUserAgent(userAgent string) *ClientBuilder {
	b.config.UserAgent = userAgent
	return b
}

// WithMaxBodyBytes caps how much of a response body is read.
func (b *ClientBuilder) WithMaxBodyBytes(limit int64) *ClientBuilder {
	b.config.MaxBodyBytes = limit
	return b
}

// WithMaxRedirects sets the maximum number of redirects to follow.
func (b *ClientBuilder) WithMaxRedirects(max int) *ClientBuilder {
	b.config.MaxRedirects = max
	return b
}

// WithDialControl installs a hook that vets each resolved address before a
// connection is established.
func (b *ClientBuilder) WithDialControl(control func(network, address string, c syscall.RawConn) error) *ClientBuilder {
	b.config.DialControl = control
	return b
}

// WithRedirectCheck installs a hook that vets each redirect hop before it is
// followed.
func (b *ClientBuilder) WithRedirectCheck(check func(req *http.Request) error) *ClientBuilder {
	b.config.RedirectCheck = check
	return b
}

// Build creates and returns a new Client.
func (b *ClientBuilder) Build() *Client {
	return NewClient(b.config, b.logger)
}
