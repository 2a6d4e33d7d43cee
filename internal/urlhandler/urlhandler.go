package urlhandler

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// NormalizedURL is the canonical form of a user-submitted URL. It always has
// an explicit http(s) scheme and a lowercase hostname with no leading "www.".
// Path and query are preserved as submitted, the fragment is dropped.
// Immutable once produced.
type NormalizedURL struct {
	Scheme   string
	Host     string // host[:port], lowercased, no leading "www."
	Path     string
	RawQuery string
}

// Normalize parses and normalizes a raw URL string. The scheme defaults to
// https when missing. Non-http(s) schemes and URLs without a hostname are
// rejected.
func Normalize(rawURL string) (NormalizedURL, error) {
	trimmed := strings.TrimSpace(rawURL)
	if trimmed == "" {
		return NormalizedURL{}, errors.New("URL is empty or only whitespace")
	}

	// Add scheme if missing
	if !strings.Contains(trimmed, "://") && !strings.HasPrefix(trimmed, "//") {
		trimmed = "https://" + trimmed
	}

	parsed, err := url.Parse(trimmed)
	if err != nil {
		return NormalizedURL{}, fmt.Errorf("could not parse URL '%s': %w", rawURL, err)
	}

	scheme := strings.ToLower(parsed.Scheme)
	if scheme == "" {
		scheme = "https"
	}
	if scheme != "http" && scheme != "https" {
		return NormalizedURL{}, fmt.Errorf("unsupported URL scheme '%s'", parsed.Scheme)
	}

	host := strings.ToLower(parsed.Host)
	if host == "" {
		return NormalizedURL{}, errors.New("URL lacks a valid hostname")
	}
	host = strings.TrimPrefix(host, "www.")

	return NormalizedURL{
		Scheme:   scheme,
		Host:     host,
		Path:     parsed.Path,
		RawQuery: parsed.RawQuery,
	}, nil
}

// Hostname returns the host with any port stripped.
func (n NormalizedURL) Hostname() string {
	if strings.Contains(n.Host, ":") {
		host, _, err := net.SplitHostPort(n.Host)
		if err == nil {
			return host
		}
	}
	return n.Host
}

// Query parses the preserved query string. An unparseable query yields an
// empty set rather than an error.
func (n NormalizedURL) Query() url.Values {
	values, err := url.ParseQuery(n.RawQuery)
	if err != nil {
		return url.Values{}
	}
	return values
}

// String renders the canonical URL form.
func (n NormalizedURL) String() string {
	u := url.URL{
		Scheme:   n.Scheme,
		Host:     n.Host,
		Path:     n.Path,
		RawQuery: n.RawQuery,
	}
	return u.String()
}

// NormalizeDomain reduces a URL or bare domain to a comparable form: scheme
// stripped, path/query stripped, "www." stripped, lowercased, port removed.
// Used for exact-equality comparison against Merchant Center website domains.
func NormalizeDomain(input string) string {
	s := strings.ToLower(strings.TrimSpace(input))
	if s == "" {
		return ""
	}
	if i := strings.Index(s, "://"); i != -1 {
		s = s[i+3:]
	}
	if i := strings.IndexAny(s, "/?#"); i != -1 {
		s = s[:i]
	}
	if strings.Contains(s, ":") {
		if host, _, err := net.SplitHostPort(s); err == nil {
			s = host
		}
	}
	return strings.TrimPrefix(s, "www.")
}

// RegistrableDomain extracts the registrable domain (eTLD+1) of a hostname,
// e.g. "shop.example.co.uk" -> "example.co.uk". Falls back to the input
// hostname when the public suffix list cannot resolve it.
func RegistrableDomain(hostname string) string {
	hostname = strings.ToLower(strings.TrimSpace(hostname))
	if hostname == "" {
		return ""
	}
	domain, err := publicsuffix.EffectiveTLDPlusOne(hostname)
	if err != nil {
		return hostname
	}
	return domain
}
