package httpclient

import (
	"context"
	"io"
	"net"
	"net/http"
	"syscall"
	"time"

	"adscout/internal/errorwrapper"

	"github.com/rs/zerolog"
)

// Config holds transport and fetch settings for the outbound HTTP client.
type Config struct {
	Timeout             time.Duration
	DialTimeout         time.Duration
	KeepAlive           time.Duration
	TLSHandshakeTimeout time.Duration
	IdleConnTimeout     time.Duration
	MaxIdleConns        int
	MaxIdleConnsPerHost int
	FollowRedirects     bool
	MaxRedirects        int
	UserAgent           string
	// MaxBodyBytes caps how much of a response body FetchPrefix reads.
	// The read is abandoned at the cap; the rest of the body is discarded.
	MaxBodyBytes int64
	// DialControl, when set, is invoked with the resolved address before
	// each connection is established.
	DialControl func(network, address string, c syscall.RawConn) error
	// RedirectCheck, when set, is invoked for each redirect hop before it
	// is followed.
	RedirectCheck func(req *http.Request) error
}

// DefaultConfig returns client settings suitable for one-shot page fetches.
func DefaultConfig() Config {
	return Config{
		Timeout:             10 * time.Second,
		DialTimeout:         5 * time.Second,
		KeepAlive:           30 * time.Second,
		TLSHandshakeTimeout: 5 * time.Second,
		IdleConnTimeout:     60 * time.Second,
		MaxIdleConns:        20,
		MaxIdleConnsPerHost: 4,
		FollowRedirects:     true,
		MaxRedirects:        5,
		MaxBodyBytes:        1 << 20,
	}
}

// Client wraps net/http.Client for bounded, guarded page fetches.
type Client struct {
	client *http.Client
	config Config
	logger zerolog.Logger
}

// NewClient creates a new HTTP client with the given configuration.
func NewClient(cfg Config, logger zerolog.Logger) *Client {
	transport := &http.Transport{
		MaxIdleConns:        cfg.MaxIdleConns,
		MaxIdleConnsPerHost: cfg.MaxIdleConnsPerHost,
		IdleConnTimeout:     cfg.IdleConnTimeout,
		TLSHandshakeTimeout: cfg.TLSHandshakeTimeout,
		DialContext: (&net.Dialer{
			Timeout:   cfg.DialTimeout,
			KeepAlive: cfg.KeepAlive,
			Control:   cfg.DialControl,
		}).DialContext,
	}

	client := &http.Client{
		Transport: transport,
		Timeout:   cfg.Timeout,
	}

	if !cfg.FollowRedirects {
		client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		}
	} else {
		client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
			if cfg.MaxRedirects > 0 && len(via) >= cfg.MaxRedirects {
				return errorwrapper.NewError("stopped after %d redirects", cfg.MaxRedirects)
			}
			if cfg.RedirectCheck != nil {
				return cfg.RedirectCheck(req)
			}
			return nil
		}
	}

	return &Client{
		client: client,
		config: cfg,
		logger: logger.With().Str("component", "HTTPClient").Logger(),
	}
}

// FetchResult holds the outcome of a bounded page fetch.
type FetchResult struct {
	StatusCode  int
	ContentType string
	Body        []byte
	Truncated   bool
}

// FetchPrefix issues a GET request and reads at most MaxBodyBytes of the
// response body. A body larger than the cap is truncated, never read in
// full.
func (c *Client) FetchPrefix(ctx context.Context, rawURL string, headers map[string]string) (*FetchResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, errorwrapper.WrapError(err, "failed to create HTTP request")
	}

	for key, value := range headers {
		req.Header.Set(key, value)
	}
	if c.config.UserAgent != "" {
		req.Header.Set("User-Agent", c.config.UserAgent)
	}
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "*/*")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, errorwrapper.WrapError(err, "HTTP request failed")
	}
	defer resp.Body.Close()

	// Read one byte past the cap to learn whether the body was truncated.
	limit := c.config.MaxBodyBytes
	if limit <= 0 {
		limit = DefaultConfig().MaxBodyBytes
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, errorwrapper.WrapError(err, "failed to read response body")
	}

	truncated := false
	if int64(len(body)) > limit {
		body = body[:limit]
		truncated = true
	}

	result := &FetchResult{
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
		Truncated:   truncated,
	}

	c.logger.Debug().
		Str("url", rawURL).
		Int("status_code", result.StatusCode).
		Int("body_bytes", len(result.Body)).
		Bool("truncated", result.Truncated).
		Msg("Fetched page prefix")

	if resp.StatusCode >= 400 {
		return result, errorwrapper.NewHTTPErrorWithURL(resp.StatusCode, "non-OK HTTP status", rawURL)
	}

	return result, nil
}
