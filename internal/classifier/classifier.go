package classifier

import (
	"context"
	"errors"

	"adscout/internal/config"
	"adscout/internal/safety"
	"adscout/internal/urlhandler"

	"github.com/rs/zerolog"
)

var (
	// ErrInvalidURL marks input that could not be parsed into a usable URL.
	ErrInvalidURL = errors.New("invalid URL")
	// ErrUnsafeURL marks input rejected by the safety gate. The concrete
	// reason is logged, never surfaced to the caller.
	ErrUnsafeURL = errors.New("unsafe URL")
)

// ProbeResult is what the content prober reports about a fetched page.
type ProbeResult struct {
	IsStore     bool
	Platform    string
	Score       int
	Name        string
	Icon        string
	Description string
}

// ProbeService fetches and inspects a page for commerce signals. Any probe
// failure is reported as a non-store result, never as an error.
type ProbeService interface {
	Probe(ctx context.Context, u urlhandler.NormalizedURL) ProbeResult
}

// MerchantMatch is the outcome of a Merchant Center domain lookup.
type MerchantMatch struct {
	IsMatch     bool
	AccountName string
}

// MerchantService cross-references a domain against the caller's linked
// Merchant Center accounts. Failures degrade to a non-match.
type MerchantService interface {
	MatchDomain(ctx context.Context, accessToken, domain string) MerchantMatch
}

// Classifier composes the safety gate, pattern rules, Merchant Center
// cross-reference, and content prober into a single decision. Signals are
// consulted in fixed priority order and the first conclusive one wins.
type Classifier struct {
	rules    []Rule
	prober   ProbeService
	merchant MerchantService
	logger   zerolog.Logger
}

// NewClassifier creates a classifier. The prober and merchant services are
// optional; a nil service simply contributes no signal.
func NewClassifier(cfg config.ClassifierConfig, prober ProbeService, merchant MerchantService, logger zerolog.Logger) *Classifier {
	return &Classifier{
		rules:    PatternRules(cfg),
		prober:   prober,
		merchant: merchant,
		logger:   logger.With().Str("component", "Classifier").Logger(),
	}
}

// Classify normalizes and vets the submitted URL, then runs the decision
// pipeline. accessToken may be empty, in which case the Merchant Center
// signal is skipped. On any downstream failure the result degrades to the
// conservative website default; only malformed or unsafe input returns an
// error.
func (c *Classifier) Classify(ctx context.Context, rawURL, accessToken string) (Result, error) {
	normalized, err := urlhandler.Normalize(rawURL)
	if err != nil {
		c.logger.Debug().Err(err).Msg("URL normalization failed")
		return Result{}, ErrInvalidURL
	}

	if verdict := safety.CheckURL(normalized.String()); !verdict.Safe {
		// Log the reason but return only the generic sentinel so the
		// response cannot be used to map internal address space.
		c.logger.Warn().
			Str("host", normalized.Hostname()).
			Str("reason", verdict.Reason).
			Msg("URL rejected by safety gate")
		return Result{}, ErrUnsafeURL
	}

	canonical := normalized.String()

	// Merchant Center is the strongest store signal and outranks pattern
	// matching on the same URL.
	if c.merchant != nil && accessToken != "" {
		domain := urlhandler.NormalizeDomain(normalized.Hostname())
		if match := c.merchant.MatchDomain(ctx, accessToken, domain); match.IsMatch {
			result := Result{
				Type:                  TypeStore,
				URL:                   canonical,
				SuggestedCampaignType: CampaignShopping,
				Details: &Details{
					Name:          match.AccountName,
					StorePlatform: StorePlatformMerchantVerified,
				},
				MatchedRule: "merchant-center",
			}
			c.logResult(result)
			return result, nil
		}
	}

	if result := MatchPattern(c.rules, normalized); result != nil {
		c.logResult(*result)
		return *result, nil
	}

	if c.prober != nil {
		if probe := c.prober.Probe(ctx, normalized); probe.IsStore {
			result := Result{
				Type:                  TypeStore,
				URL:                   canonical,
				SuggestedCampaignType: CampaignShopping,
				MatchedRule:           "content-probe",
				ProbeScore:            probe.Score,
			}
			if probe.Platform != "" || probe.Name != "" || probe.Icon != "" || probe.Description != "" {
				result.Details = &Details{
					Name:          probe.Name,
					Icon:          probe.Icon,
					Description:   probe.Description,
					StorePlatform: probe.Platform,
				}
			}
			c.logResult(result)
			return result, nil
		}
	}

	result := DefaultResult(canonical)
	c.logResult(result)
	return result, nil
}

func (c *Classifier) logResult(result Result) {
	c.logger.Debug().
		Str("url", result.URL).
		Str("type", string(result.Type)).
		Str("campaign_type", string(result.SuggestedCampaignType)).
		Str("matched_rule", result.MatchedRule).
		Msg("Classification decided")
}
