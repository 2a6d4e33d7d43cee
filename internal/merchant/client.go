package merchant

import (
	"context"
	"sync"
	"time"

	"adscout/internal/classifier"
	"adscout/internal/config"
	"adscout/internal/urlhandler"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
	"golang.org/x/oauth2"
	"google.golang.org/api/content/v2.1"
	"google.golang.org/api/option"
)

// AccountRef identifies one Merchant Center account visible to a token.
type AccountRef struct {
	MerchantID uint64
	AccountID  uint64
}

// AccountInfo is the subset of account data relevant to domain matching.
type AccountInfo struct {
	Name       string
	WebsiteURL string
}

// AccountDomain is a cached (account name, claimed domain) pair.
type AccountDomain struct {
	Name   string `json:"name"`
	Domain string `json:"domain"`
}

// accountAPI abstracts the Content API for Shopping so matching logic can be
// tested without Google credentials.
type accountAPI interface {
	AuthInfo(ctx context.Context) ([]AccountRef, error)
	Account(ctx context.Context, merchantID, accountID uint64) (AccountInfo, error)
}

// contentAPI is the production accountAPI backed by the Content API for
// Shopping v2.1, authenticated with the caller's OAuth access token.
type contentAPI struct {
	service *content.APIService
}

func newContentAPI(ctx context.Context, accessToken string) (accountAPI, error) {
	source := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken})
	service, err := content.NewService(ctx, option.WithTokenSource(source))
	if err != nil {
		return nil, err
	}
	return &contentAPI{service: service}, nil
}

func (a *contentAPI) AuthInfo(ctx context.Context) ([]AccountRef, error) {
	info, err := a.service.Accounts.Authinfo().Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	refs := make([]AccountRef, 0, len(info.AccountIdentifiers))
	for _, id := range info.AccountIdentifiers {
		ref := AccountRef{MerchantID: id.AggregatorId, AccountID: id.MerchantId}
		if ref.MerchantID == 0 {
			ref.MerchantID = id.MerchantId
		}
		if ref.AccountID == 0 {
			continue
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

func (a *contentAPI) Account(ctx context.Context, merchantID, accountID uint64) (AccountInfo, error) {
	account, err := a.service.Accounts.Get(merchantID, accountID).Context(ctx).Do()
	if err != nil {
		return AccountInfo{}, err
	}
	return AccountInfo{Name: account.Name, WebsiteURL: account.WebsiteUrl}, nil
}

// Client cross-references candidate domains against the Merchant Center
// accounts linked to a caller's Google session. All upstream failures
// degrade to a non-match; the circuit breaker keeps a flapping upstream from
// adding latency to every request.
type Client struct {
	cfg     config.MerchantConfig
	breaker *gobreaker.CircuitBreaker
	cache   *DomainCache
	logger  zerolog.Logger
	newAPI  func(ctx context.Context, accessToken string) (accountAPI, error)
}

// NewClient creates a merchant client. cache may be nil to disable caching.
func NewClient(cfg config.MerchantConfig, cache *DomainCache, logger zerolog.Logger) *Client {
	componentLogger := logger.With().Str("component", "MerchantClient").Logger()

	settings := gobreaker.Settings{
		Name:        "merchant-center",
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.ConsecutiveFailures > 5 ||
				(counts.Requests >= 10 && failureRatio >= 0.6)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			componentLogger.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Circuit breaker state changed")
		},
	}

	return &Client{
		cfg:     cfg,
		breaker: gobreaker.NewCircuitBreaker(settings),
		cache:   cache,
		logger:  componentLogger,
		newAPI:  newContentAPI,
	}
}

// MatchDomain reports whether domain equals the claimed website domain of
// any Merchant Center account the access token can see. Any failure along
// the way, including an open circuit breaker, yields a non-match.
func (c *Client) MatchDomain(ctx context.Context, accessToken, domain string) classifier.MerchantMatch {
	if accessToken == "" || domain == "" {
		return classifier.MerchantMatch{}
	}

	domains, err := c.accountDomains(ctx, accessToken)
	if err != nil {
		c.logger.Debug().Err(err).Msg("Merchant Center lookup failed")
		return classifier.MerchantMatch{}
	}

	for _, entry := range domains {
		if entry.Domain != "" && entry.Domain == domain {
			c.logger.Debug().
				Str("domain", domain).
				Str("account", entry.Name).
				Msg("Merchant Center domain matched")
			return classifier.MerchantMatch{IsMatch: true, AccountName: entry.Name}
		}
	}
	return classifier.MerchantMatch{}
}

// accountDomains returns the (name, domain) pairs for every account the
// token can see, from cache when possible.
func (c *Client) accountDomains(ctx context.Context, accessToken string) ([]AccountDomain, error) {
	if c.cache != nil {
		if domains, ok := c.cache.Get(ctx, accessToken); ok {
			return domains, nil
		}
	}

	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.fetchAccountDomains(ctx, accessToken)
	})
	if err != nil {
		return nil, err
	}
	domains := result.([]AccountDomain)

	if c.cache != nil {
		c.cache.Set(ctx, accessToken, domains)
	}
	return domains, nil
}

func (c *Client) fetchAccountDomains(ctx context.Context, accessToken string) ([]AccountDomain, error) {
	timeout := time.Duration(c.cfg.TimeoutSecs) * time.Second
	if timeout <= 0 {
		timeout = time.Duration(config.DefaultMerchantTimeoutSecs) * time.Second
	}
	fetchCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	api, err := c.newAPI(fetchCtx, accessToken)
	if err != nil {
		return nil, err
	}

	refs, err := api.AuthInfo(fetchCtx)
	if err != nil {
		return nil, err
	}

	// Fetch accounts concurrently; one failing account must not discard the
	// rest.
	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		domains = make([]AccountDomain, 0, len(refs))
	)
	for _, ref := range refs {
		wg.Add(1)
		go func(ref AccountRef) {
			defer wg.Done()
			info, err := api.Account(fetchCtx, ref.MerchantID, ref.AccountID)
			if err != nil {
				c.logger.Debug().
					Err(err).
					Uint64("account_id", ref.AccountID).
					Msg("Merchant account fetch failed")
				return
			}
			entry := AccountDomain{
				Name:   info.Name,
				Domain: urlhandler.NormalizeDomain(info.WebsiteURL),
			}
			mu.Lock()
			domains = append(domains, entry)
			mu.Unlock()
		}(ref)
	}
	wg.Wait()

	return domains, nil
}
