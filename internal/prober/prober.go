package prober

import (
	"bytes"
	"context"
	"strings"
	"time"

	"adscout/internal/classifier"
	"adscout/internal/config"
	"adscout/internal/httpclient"
	"adscout/internal/urlhandler"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"
)

// Prober fetches a bounded prefix of a candidate page and scores it for
// commerce signals. It never returns an error: a fetch or parse failure is
// simply a page with no store evidence.
type Prober struct {
	cfg    config.ProberConfig
	client *httpclient.Client
	logger zerolog.Logger
}

// NewProber creates a content prober backed by the given HTTP client. The
// client is expected to carry the dial-time safety hook and redirect checks;
// the prober itself only decides whether to fetch and how to score.
func NewProber(cfg config.ProberConfig, client *httpclient.Client, logger zerolog.Logger) *Prober {
	return &Prober{
		cfg:    cfg,
		client: client,
		logger: logger.With().Str("component", "Prober").Logger(),
	}
}

// Probe inspects the page behind the normalized URL. Denylisted hosts are
// skipped without a fetch.
func (p *Prober) Probe(ctx context.Context, u urlhandler.NormalizedURL) classifier.ProbeResult {
	host := u.Hostname()
	if p.isDenylisted(host) {
		p.logger.Debug().Str("host", host).Msg("Host denylisted, skipping probe")
		return classifier.ProbeResult{}
	}

	timeout := time.Duration(p.cfg.TimeoutSecs) * time.Second
	if timeout <= 0 {
		timeout = time.Duration(config.DefaultProberTimeoutSecs) * time.Second
	}
	fetchCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	fetched, err := p.client.FetchPrefix(fetchCtx, u.String(), map[string]string{
		"Accept": "text/html,application/xhtml+xml",
	})
	if err != nil {
		p.logger.Debug().Err(err).Str("url", u.String()).Msg("Probe fetch failed")
		return classifier.ProbeResult{}
	}

	contentType := strings.ToLower(fetched.ContentType)
	if contentType != "" && !strings.Contains(contentType, "html") && !strings.Contains(contentType, "text/plain") {
		p.logger.Debug().Str("content_type", fetched.ContentType).Msg("Non-HTML content, skipping scoring")
		return classifier.ProbeResult{}
	}

	return p.score(u, fetched.Body)
}

// isDenylisted matches the host against the denylist with the same semantics
// as the commerce hostname list: an entry ending in "." is a brand prefix
// ("olx." covers olx.com and shop.olx.eg), anything else matches exactly or
// as a domain suffix. Bare substring matching would let "x.com" swallow
// netflix.com.
func (p *Prober) isDenylisted(host string) bool {
	for _, entry := range p.cfg.DenylistHosts {
		entry = strings.ToLower(strings.TrimSpace(entry))
		if entry == "" {
			continue
		}
		if strings.HasSuffix(entry, ".") {
			if strings.HasPrefix(host, entry) || strings.Contains(host, "."+entry) {
				return true
			}
			continue
		}
		if host == entry || strings.HasSuffix(host, "."+entry) {
			return true
		}
	}
	return false
}

// score examines the page body. Platform fingerprints and payment-gateway
// markers are conclusive; other markers accumulate points toward the
// configured threshold.
func (p *Prober) score(u urlhandler.NormalizedURL, body []byte) classifier.ProbeResult {
	lower := strings.ToLower(string(body))
	details := p.extractDetails(body)

	for _, fp := range platformFingerprints {
		if strings.Contains(lower, fp.Marker) {
			p.logger.Debug().
				Str("host", u.Hostname()).
				Str("platform", fp.Platform).
				Msg("Platform fingerprint matched")
			result := details
			result.IsStore = true
			result.Platform = fp.Platform
			return result
		}
	}

	for _, marker := range paymentMarkers {
		if strings.Contains(lower, marker) {
			p.logger.Debug().
				Str("host", u.Hostname()).
				Str("marker", marker).
				Msg("Payment gateway marker matched")
			result := details
			result.IsStore = true
			return result
		}
	}

	score := 0
	schemaHit := false
	for _, marker := range schemaMarkers {
		if strings.Contains(lower, marker) {
			schemaHit = true
			break
		}
	}
	if schemaHit {
		score += p.cfg.SchemaPoints
	}
	for _, marker := range lexicalMarkers {
		if strings.Contains(lower, marker) {
			score++
		}
	}
	for _, re := range currencyRegexes {
		if re.MatchString(lower) {
			score++
		}
	}

	threshold := p.cfg.ScoreThreshold
	if threshold <= 0 {
		threshold = config.DefaultProberScoreThreshold
	}

	p.logger.Debug().
		Str("host", u.Hostname()).
		Int("score", score).
		Int("threshold", threshold).
		Bool("schema_hit", schemaHit).
		Msg("Commerce signal score computed")

	if score >= threshold {
		result := details
		result.IsStore = true
		result.Score = score
		return result
	}
	return classifier.ProbeResult{Score: score}
}

// extractDetails pulls display metadata out of the page head. Parse failures
// yield empty details, never an error.
func (p *Prober) extractDetails(body []byte) classifier.ProbeResult {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return classifier.ProbeResult{}
	}

	var result classifier.ProbeResult
	if name, ok := doc.Find(`meta[property="og:site_name"]`).Attr("content"); ok {
		result.Name = strings.TrimSpace(name)
	}
	if result.Name == "" {
		result.Name = strings.TrimSpace(doc.Find("title").First().Text())
	}
	if icon, ok := doc.Find(`meta[property="og:image"]`).Attr("content"); ok {
		result.Icon = strings.TrimSpace(icon)
	}
	if result.Icon == "" {
		if href, ok := doc.Find(`link[rel="icon"], link[rel="shortcut icon"]`).First().Attr("href"); ok {
			result.Icon = strings.TrimSpace(href)
		}
	}
	if desc, ok := doc.Find(`meta[name="description"]`).Attr("content"); ok {
		result.Description = strings.TrimSpace(desc)
	}
	if result.Description == "" {
		if desc, ok := doc.Find(`meta[property="og:description"]`).Attr("content"); ok {
			result.Description = strings.TrimSpace(desc)
		}
	}
	return result
}
