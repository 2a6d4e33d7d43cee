package safety

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckURL_BlockedTargets(t *testing.T) {
	blocked := []string{
		"http://localhost/admin",
		"http://localhost:8080",
		"http://sub.localhost",
		"http://127.0.0.1",
		"http://127.200.3.4/path",
		"http://10.0.0.5",
		"http://172.16.0.1",
		"http://172.31.255.254",
		"http://192.168.1.1/router",
		"http://169.254.1.1",
		"http://169.254.169.254/latest/meta-data/",
		"http://metadata.google.internal/computeMetadata/v1/",
		"http://metadata.google",
		"http://100.100.100.200",
		"http://100.64.0.1",
		"http://0.0.0.0",
		"http://[::1]/",
		"http://[fe80::1]",
		"http://[fd12:3456::1]",
	}

	for _, rawURL := range blocked {
		t.Run(rawURL, func(t *testing.T) {
			verdict := CheckURL(rawURL)
			assert.False(t, verdict.Safe, "expected %s to be blocked", rawURL)
			assert.NotEmpty(t, verdict.Reason)
		})
	}
}

func TestCheckURL_BlockedSchemes(t *testing.T) {
	for _, rawURL := range []string{
		"ftp://example.com/file",
		"file:///etc/passwd",
		"gopher://example.com",
	} {
		t.Run(rawURL, func(t *testing.T) {
			assert.False(t, CheckURL(rawURL).Safe)
		})
	}
}

func TestCheckURL_AllowedTargets(t *testing.T) {
	allowed := []string{
		"https://example.com",
		"http://example.com/shop",
		"example.com", // scheme defaulted
		"https://8.8.8.8",
		"https://www.youtube.com/watch?v=abc123",
		"https://172.15.0.1",  // just below RFC1918 range
		"https://172.32.0.1",  // just above RFC1918 range
		"https://100.63.0.1",  // below CGNAT range
		"https://100.128.0.1", // above CGNAT range
	}

	for _, rawURL := range allowed {
		t.Run(rawURL, func(t *testing.T) {
			verdict := CheckURL(rawURL)
			assert.True(t, verdict.Safe, "expected %s to be allowed, got reason: %s", rawURL, verdict.Reason)
		})
	}
}

func TestCheckURL_Malformed(t *testing.T) {
	for _, rawURL := range []string{"", "   ", "://bad"} {
		t.Run(rawURL, func(t *testing.T) {
			assert.False(t, CheckURL(rawURL).Safe)
		})
	}
}

func TestDialControl(t *testing.T) {
	require.Error(t, DialControl("tcp", "169.254.169.254:80", nil))
	require.Error(t, DialControl("tcp", "10.1.2.3:443", nil))
	require.Error(t, DialControl("tcp", "[::1]:443", nil))
	require.Error(t, DialControl("tcp", "still-a-hostname:443", nil))
	require.NoError(t, DialControl("tcp", "93.184.216.34:443", nil))
}
