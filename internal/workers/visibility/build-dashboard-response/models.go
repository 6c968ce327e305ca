// internal/workers/visibility/build-dashboard-response/models.go
package builddashboardresponse

import "visibility-workers/internal/models"

// Disclosure actions accepted on Input.Action.
const (
	ActionInit     = "init"
	ActionLoadMore = "loadMore"
	ActionShowAll  = "showAll"
	ActionCollapse = "collapse"
)

// Disclosure targets accepted on Input.Target. An empty target applies the
// action to both tables.
const (
	TargetBrands  = "brands"
	TargetSources = "sources"
)

type Input struct {
	BrandRankings []models.BrandRanking    `json:"brandRankings"`
	SourceRows    []models.SourceRow       `json:"sourceRows"`
	Summary       models.VisibilitySummary `json:"summary"`

	// Disclosure state carried between invocations. Zero limits mean a
	// fresh window at the default size.
	Action      string `json:"action,omitempty"`
	Target      string `json:"target,omitempty"`
	Step        int    `json:"step,omitempty"`
	BrandLimit  int    `json:"brandLimit,omitempty"`
	SourceLimit int    `json:"sourceLimit,omitempty"`
}

type Output struct {
	BrandRankings []models.BrandRanking    `json:"brandRankings"`
	SourceRows    []models.SourceRow       `json:"sourceRows"`
	Summary       models.VisibilitySummary `json:"summary"`

	BrandLimit     int  `json:"brandLimit"`
	BrandTotal     int  `json:"brandTotal"`
	HasMoreBrands  bool `json:"hasMoreBrands"`
	SourceLimit    int  `json:"sourceLimit"`
	SourceTotal    int  `json:"sourceTotal"`
	HasMoreSources bool `json:"hasMoreSources"`
}
