package classifier

// Type is the classification variant of a submitted URL.
type Type string

const (
	TypeWebsite Type = "website"
	TypeStore   Type = "store"
	TypeApp     Type = "app"
	TypeVideo   Type = "video"
)

// CampaignType is the advertising campaign type suggested for a
// classification.
type CampaignType string

const (
	CampaignSearch         CampaignType = "SEARCH"
	CampaignShopping       CampaignType = "SHOPPING"
	CampaignApp            CampaignType = "APP"
	CampaignVideo          CampaignType = "VIDEO"
	CampaignDisplay        CampaignType = "DISPLAY"
	CampaignPerformanceMax CampaignType = "PERFORMANCE_MAX"
)

// StorePlatformMerchantVerified marks a store classification backed by a
// linked Merchant Center account rather than page signals.
const StorePlatformMerchantVerified = "Merchant Center Verified"

// Details carries optional display metadata about the classified target.
type Details struct {
	Name          string `json:"name,omitempty"`
	Icon          string `json:"icon,omitempty"`
	Description   string `json:"description,omitempty"`
	StorePlatform string `json:"storePlatform,omitempty"`
}

// Result is the single typed outcome of a classification call. Exactly one
// Type variant applies and SuggestedCampaignType is always consistent with
// it. Created, used, and discarded within a single request.
type Result struct {
	Type                  Type         `json:"type"`
	URL                   string       `json:"url"`
	SuggestedCampaignType CampaignType `json:"suggestedCampaignType"`
	Platform              string       `json:"platform,omitempty"`
	AppID                 string       `json:"appId,omitempty"`
	VideoID               string       `json:"videoId,omitempty"`
	ChannelID             string       `json:"channelId,omitempty"`
	Details               *Details     `json:"details,omitempty"`
	// MatchedRule records which classification path produced the result,
	// for logging and the audit trail. Not part of the response contract.
	MatchedRule string `json:"-"`
	// ProbeScore is the commerce-signal score when the content probe ran.
	ProbeScore int `json:"-"`
}

// DefaultResult is the conservative fallback used when nothing matches or
// any component fails: a plain website with a search campaign suggestion.
func DefaultResult(url string) Result {
	return Result{
		Type:                  TypeWebsite,
		URL:                   url,
		SuggestedCampaignType: CampaignSearch,
		MatchedRule:           "default",
	}
}
