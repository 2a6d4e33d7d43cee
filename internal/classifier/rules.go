package classifier

import (
	"regexp"
	"strings"

	"adscout/internal/config"
	"adscout/internal/urlhandler"
)

// Rule is one pattern-classification rule. Match returns nil when the rule
// does not apply. Rules are evaluated in slice order and the first match
// wins, so priority between overlapping categories is explicit data rather
// than control flow.
type Rule struct {
	Name  string
	Match func(u urlhandler.NormalizedURL) *Result
}

// The only regex applied to attacker-controlled input; anchored to a literal
// prefix and digits, no backtracking concern.
var appleAppIDRegex = regexp.MustCompile(`/id(\d+)`)

// PatternRules builds the ordered rule table. App stores come before video,
// and both come before the commerce host/path heuristics, because the
// categories overlap (a play.google.com path can coincidentally contain
// "shop").
func PatternRules(cfg config.ClassifierConfig) []Rule {
	return []Rule{
		{Name: "android-app", Match: matchAndroidApp},
		{Name: "ios-app", Match: matchIOSApp},
		{Name: "youtube-watch", Match: matchYouTubeWatch},
		{Name: "youtube-short-link", Match: matchYouTubeShortLink},
		{Name: "youtube-channel", Match: matchYouTubeChannel},
		{Name: "commerce-hostname", Match: matchCommerceHost(cfg.CommerceHostnames)},
		{Name: "commerce-path", Match: matchCommercePath(cfg.CommercePathHints)},
	}
}

// MatchPattern evaluates the rules in order and returns the first match, or
// nil when the URL needs deeper probing.
func MatchPattern(rules []Rule, u urlhandler.NormalizedURL) *Result {
	for _, rule := range rules {
		if result := rule.Match(u); result != nil {
			result.MatchedRule = rule.Name
			return result
		}
	}
	return nil
}

func matchAndroidApp(u urlhandler.NormalizedURL) *Result {
	if u.Hostname() != "play.google.com" || !strings.Contains(u.Path, "/store/apps") {
		return nil
	}
	appID := u.Query().Get("id")
	if appID == "" {
		segments := strings.Split(strings.Trim(u.Path, "/"), "/")
		appID = segments[len(segments)-1]
	}
	return &Result{
		Type:                  TypeApp,
		URL:                   u.String(),
		SuggestedCampaignType: CampaignApp,
		Platform:              "android",
		AppID:                 appID,
	}
}

func matchIOSApp(u urlhandler.NormalizedURL) *Result {
	host := u.Hostname()
	if host != "apps.apple.com" && host != "itunes.apple.com" {
		return nil
	}
	result := &Result{
		Type:                  TypeApp,
		URL:                   u.String(),
		SuggestedCampaignType: CampaignApp,
		Platform:              "ios",
	}
	if m := appleAppIDRegex.FindStringSubmatch(u.Path); m != nil {
		result.AppID = m[1]
	}
	return result
}

func isYouTubeHost(host string) bool {
	return host == "youtube.com" || strings.HasSuffix(host, ".youtube.com")
}

func matchYouTubeWatch(u urlhandler.NormalizedURL) *Result {
	if !isYouTubeHost(u.Hostname()) || !strings.HasPrefix(u.Path, "/watch") {
		return nil
	}
	return &Result{
		Type:                  TypeVideo,
		URL:                   u.String(),
		SuggestedCampaignType: CampaignVideo,
		VideoID:               u.Query().Get("v"),
	}
}

func matchYouTubeShortLink(u urlhandler.NormalizedURL) *Result {
	if u.Hostname() != "youtu.be" {
		return nil
	}
	videoID := strings.TrimPrefix(u.Path, "/")
	if i := strings.Index(videoID, "/"); i != -1 {
		videoID = videoID[:i]
	}
	return &Result{
		Type:                  TypeVideo,
		URL:                   u.String(),
		SuggestedCampaignType: CampaignVideo,
		VideoID:               videoID,
	}
}

func matchYouTubeChannel(u urlhandler.NormalizedURL) *Result {
	if !isYouTubeHost(u.Hostname()) {
		return nil
	}
	var channelID string
	switch {
	case strings.HasPrefix(u.Path, "/channel/"):
		channelID = strings.TrimPrefix(u.Path, "/channel/")
	case strings.HasPrefix(u.Path, "/@"):
		channelID = strings.TrimPrefix(u.Path, "/")
	default:
		return nil
	}
	if i := strings.Index(channelID, "/"); i != -1 {
		channelID = channelID[:i]
	}
	return &Result{
		Type:                  TypeVideo,
		URL:                   u.String(),
		SuggestedCampaignType: CampaignVideo,
		ChannelID:             channelID,
	}
}

// matchCommerceHost matches the hostname against the known commerce list.
// An entry ending in "." is a brand prefix ("amazon." matches amazon.com and
// amazon.ae); any other entry matches exactly or as a domain suffix. Literal
// comparisons only, no regex over attacker input.
func matchCommerceHost(hostnames []string) func(urlhandler.NormalizedURL) *Result {
	return func(u urlhandler.NormalizedURL) *Result {
		host := u.Hostname()
		for _, entry := range hostnames {
			entry = strings.ToLower(strings.TrimSpace(entry))
			if entry == "" {
				continue
			}
			if strings.HasSuffix(entry, ".") {
				if strings.HasPrefix(host, entry) || strings.Contains(host, "."+entry) {
					return storeResult(u)
				}
				continue
			}
			if host == entry || strings.HasSuffix(host, "."+entry) {
				return storeResult(u)
			}
		}
		return nil
	}
}

// matchCommercePath matches literal path hints like "/shop" against the URL
// path, classifying as a store without any network fetch.
func matchCommercePath(hints []string) func(urlhandler.NormalizedURL) *Result {
	return func(u urlhandler.NormalizedURL) *Result {
		path := strings.ToLower(u.Path)
		for _, hint := range hints {
			hint = strings.ToLower(strings.TrimSpace(hint))
			if hint == "" {
				continue
			}
			if strings.Contains(path, hint) {
				return storeResult(u)
			}
		}
		return nil
	}
}

func storeResult(u urlhandler.NormalizedURL) *Result {
	return &Result{
		Type:                  TypeStore,
		URL:                   u.String(),
		SuggestedCampaignType: CampaignShopping,
	}
}
