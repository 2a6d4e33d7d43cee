package prober

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"adscout/internal/config"
	"adscout/internal/httpclient"
	"adscout/internal/urlhandler"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test clients carry no dial guard: httptest servers bind loopback, which a
// production client refuses by design.
func newTestProber(t *testing.T, cfg config.ProberConfig) *Prober {
	t.Helper()
	client := httpclient.NewClientBuilder(zerolog.Nop()).
		WithMaxBodyBytes(int64(cfg.MaxBodyBytes)).
		Build()
	return NewProber(cfg, client, zerolog.Nop())
}

func normalizedFor(t *testing.T, serverURL string) urlhandler.NormalizedURL {
	t.Helper()
	u, err := urlhandler.Normalize(serverURL)
	require.NoError(t, err)
	return u
}

func TestProbe_PlatformFingerprint(t *testing.T) {
	page := `<html><head>
		<title>Example Store</title>
		<meta property="og:site_name" content="Example Store">
		<meta property="og:image" content="https://cdn.example.com/logo.png">
		<meta name="description" content="Great products">
		<script src="https://cdn.shopify.com/s/files/theme.js"></script>
	</head><body>Welcome</body></html>`

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(page))
	}))
	defer server.Close()

	p := newTestProber(t, config.NewDefaultProberConfig())
	result := p.Probe(context.Background(), normalizedFor(t, server.URL))

	assert.True(t, result.IsStore)
	assert.Equal(t, "Shopify", result.Platform)
	assert.Equal(t, "Example Store", result.Name)
	assert.Equal(t, "https://cdn.example.com/logo.png", result.Icon)
	assert.Equal(t, "Great products", result.Description)
}

func TestProbe_PaymentMarkerConclusive(t *testing.T) {
	// A self-hosted storefront with no platform CDN and no commerce
	// vocabulary in the prefix, just an embedded Stripe checkout.
	page := `<html><head><title>Atelier Nadia</title>
		<script src="https://js.stripe.com/v3/"></script>
	</head><body>Handmade ceramics from our studio.</body></html>`

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(page))
	}))
	defer server.Close()

	p := newTestProber(t, config.NewDefaultProberConfig())
	result := p.Probe(context.Background(), normalizedFor(t, server.URL))

	assert.True(t, result.IsStore)
	assert.Empty(t, result.Platform)
	assert.Equal(t, "Atelier Nadia", result.Name)
}

func TestIsDenylisted(t *testing.T) {
	cfg := config.NewDefaultProberConfig()
	cfg.DenylistHosts = []string{"x.com", "olx.", "haraj.com.sa"}
	p := newTestProber(t, cfg)

	tests := []struct {
		host string
		want bool
	}{
		{"x.com", true},
		{"mobile.x.com", true},
		{"netflix.com", false},
		{"xbox.com", false},
		{"olx.com", true},
		{"olx.eg", true},
		{"shop.olx.eg", true},
		{"haraj.com.sa", true},
		{"notharaj.com.sa", false},
		{"example.com", false},
	}
	for _, tt := range tests {
		t.Run(tt.host, func(t *testing.T) {
			assert.Equal(t, tt.want, p.isDenylisted(tt.host))
		})
	}
}

func TestProbe_LexicalScoreReachesThreshold(t *testing.T) {
	page := `<html><head><title>Gadget Shop</title></head><body>
		<button class="add-to-cart">Add to cart</button>
		<a href="/checkout">Checkout</a>
		<span class="product-price">$19.99</span>
		<p>In stock and ready to ship</p>
	</body></html>`

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(page))
	}))
	defer server.Close()

	p := newTestProber(t, config.NewDefaultProberConfig())
	result := p.Probe(context.Background(), normalizedFor(t, server.URL))

	assert.True(t, result.IsStore)
	assert.Empty(t, result.Platform)
	assert.GreaterOrEqual(t, result.Score, config.DefaultProberScoreThreshold)
}

func TestProbe_PlainPageBelowThreshold(t *testing.T) {
	page := `<html><head><title>My Blog</title></head><body>
		<p>Thoughts about hiking and photography.</p>
	</body></html>`

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(page))
	}))
	defer server.Close()

	p := newTestProber(t, config.NewDefaultProberConfig())
	result := p.Probe(context.Background(), normalizedFor(t, server.URL))

	assert.False(t, result.IsStore)
}

func TestProbe_DenylistedHostSkipsFetch(t *testing.T) {
	fetched := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fetched = true
	}))
	defer server.Close()

	cfg := config.NewDefaultProberConfig()
	cfg.DenylistHosts = append(cfg.DenylistHosts, "127.0.0.1")

	p := newTestProber(t, cfg)
	result := p.Probe(context.Background(), normalizedFor(t, server.URL))

	assert.False(t, result.IsStore)
	assert.False(t, fetched)
}

func TestProbe_TimeoutFailsSafe(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(2 * time.Second)
	}))
	defer server.Close()

	cfg := config.NewDefaultProberConfig()
	cfg.TimeoutSecs = 1

	p := newTestProber(t, cfg)
	result := p.Probe(context.Background(), normalizedFor(t, server.URL))

	assert.False(t, result.IsStore)
}

func TestProbe_NonHTMLContentSkipped(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write([]byte("add-to-cart checkout $9.99 in stock wishlist"))
	}))
	defer server.Close()

	p := newTestProber(t, config.NewDefaultProberConfig())
	result := p.Probe(context.Background(), normalizedFor(t, server.URL))

	assert.False(t, result.IsStore)
}

func TestProbe_ErrorStatusFailsSafe(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	p := newTestProber(t, config.NewDefaultProberConfig())
	result := p.Probe(context.Background(), normalizedFor(t, server.URL))

	assert.False(t, result.IsStore)
}
