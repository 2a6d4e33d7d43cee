package safety

import (
	"fmt"
	"net"
	"net/url"
	"strings"
	"syscall"
)

// Verdict is the outcome of a safety check. Reason is for server-side logging
// only and must never be exposed to untrusted callers.
type Verdict struct {
	Safe   bool
	Reason string
}

func unsafe(format string, args ...interface{}) Verdict {
	return Verdict{Safe: false, Reason: fmt.Sprintf(format, args...)}
}

// Hostnames that expose cloud instance metadata. Matched exactly.
var metadataHostnames = map[string]struct{}{
	"169.254.169.254":          {},
	"metadata.google.internal": {},
	"metadata.google":          {},
	"100.100.100.200":          {},
}

// Address ranges that must never be fetched: loopback, RFC1918 private,
// link-local, the unspecified range, carrier-grade NAT, and their IPv6
// counterparts.
var blockedNetworks = mustParseCIDRs(
	"127.0.0.0/8",
	"10.0.0.0/8",
	"172.16.0.0/12",
	"192.168.0.0/16",
	"169.254.0.0/16",
	"0.0.0.0/8",
	"100.64.0.0/10",
	"::1/128",
	"::/128",
	"fc00::/7",
	"fe80::/10",
)

func mustParseCIDRs(cidrs ...string) []*net.IPNet {
	nets := make([]*net.IPNet, 0, len(cidrs))
	for _, cidr := range cidrs {
		_, ipNet, err := net.ParseCIDR(cidr)
		if err != nil {
			panic(fmt.Sprintf("invalid blocked CIDR %q: %v", cidr, err))
		}
		nets = append(nets, ipNet)
	}
	return nets
}

// CheckURL validates that a candidate URL string does not point at loopback,
// private, link-local, or cloud-metadata addresses and uses an http(s)
// scheme. Pure function, no I/O; it must run before any network fetch
// touches the candidate URL.
//
// The check is string-level only. A hostname can still resolve to a private
// address after this check passes (DNS rebinding); DialControl closes that
// gap at dial time.
func CheckURL(rawURL string) Verdict {
	trimmed := strings.TrimSpace(rawURL)
	if trimmed == "" {
		return unsafe("empty URL")
	}
	if !strings.Contains(trimmed, "://") && !strings.HasPrefix(trimmed, "//") {
		trimmed = "https://" + trimmed
	}

	parsed, err := url.Parse(trimmed)
	if err != nil {
		return unsafe("unparseable URL: %v", err)
	}

	scheme := strings.ToLower(parsed.Scheme)
	if scheme != "http" && scheme != "https" {
		return unsafe("blocked scheme %q", parsed.Scheme)
	}

	hostname := strings.ToLower(parsed.Hostname())
	if hostname == "" {
		return unsafe("URL has no hostname")
	}

	return CheckHostname(hostname)
}

// CheckHostname validates a bare hostname or IP literal against the blocked
// hostname and address lists.
func CheckHostname(hostname string) Verdict {
	hostname = strings.ToLower(strings.Trim(hostname, "[]"))

	if hostname == "localhost" || strings.HasSuffix(hostname, ".localhost") {
		return unsafe("loopback hostname %q", hostname)
	}
	if _, blocked := metadataHostnames[hostname]; blocked {
		return unsafe("metadata endpoint %q", hostname)
	}
	if ip := net.ParseIP(hostname); ip != nil {
		return CheckIP(ip)
	}
	return Verdict{Safe: true}
}

// CheckIP validates a resolved IP address against the blocked ranges.
func CheckIP(ip net.IP) Verdict {
	for _, ipNet := range blockedNetworks {
		if ipNet.Contains(ip) {
			return unsafe("address %s in blocked range %s", ip, ipNet)
		}
	}
	return Verdict{Safe: true}
}

// DialControl is a net.Dialer Control hook that rejects connections to
// blocked address ranges using the address the dialer actually resolved.
// Installing it on the outbound transport re-validates after DNS resolution,
// so a hostname that passed CheckURL but rebinds to a private address is
// still refused.
func DialControl(network, address string, _ syscall.RawConn) error {
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		host = address
	}
	ip := net.ParseIP(strings.Trim(host, "[]"))
	if ip == nil {
		return fmt.Errorf("refusing to dial unresolved address %q", address)
	}
	if verdict := CheckIP(ip); !verdict.Safe {
		return fmt.Errorf("refusing to dial %s: %s", address, verdict.Reason)
	}
	return nil
}
