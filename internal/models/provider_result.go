// internal/models/provider_result.go
package models

// ProviderResult is one provider's analysis for a tracked keyword, produced
// by the upstream analysis pipeline and treated as immutable input here.
type ProviderResult struct {
	Provider             string         `json:"provider"`
	Model                string         `json:"model"`
	LastRun              string         `json:"lastRun"` // ISO 8601
	RankedEntities       []RankedEntity `json:"rankedEntities"`
	Citations            []Citation     `json:"citations"`
	OurBrandPosition     int            `json:"ourBrandPosition"`
	OurBrandMentioned    bool           `json:"ourBrandMentioned"`
	TotalBrandsMentioned int            `json:"totalBrandsMentioned"`
	VisibilityScore      float64        `json:"visibilityScore"`
}

// RankedEntity is a brand or competitor one provider mentioned, with the
// position that provider assigned it.
type RankedEntity struct {
	Position   int    `json:"position"`
	Name       string `json:"name"`
	IsOwnBrand bool   `json:"isOwnBrand"`
	Sentiment  string `json:"sentiment"` // positive | neutral | negative
	Context    string `json:"context,omitempty"`
}

// Citation is one URL a provider cited. Domain and position are optional;
// IsAccessible defaults to true when absent.
type Citation struct {
	URL          string `json:"url"`
	Domain       string `json:"domain,omitempty"`
	Category     string `json:"category,omitempty"` // defaults to "unknown"
	IsAccessible *bool  `json:"isAccessible,omitempty"`
	IsOurDomain  bool   `json:"isOurDomain"`
	AnchorText   string `json:"anchorText,omitempty"`
	Context      string `json:"context,omitempty"`
	Position     int    `json:"position,omitempty"` // 0 means not recorded
}

// Accessible resolves the optional accessibility flag.
func (c Citation) Accessible() bool {
	if c.IsAccessible == nil {
		return true
	}
	return *c.IsAccessible
}
