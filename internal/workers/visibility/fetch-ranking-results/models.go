// internal/workers/visibility/fetch-ranking-results/models.go
package fetchrankingresults

import "visibility-workers/internal/models"

type Input struct {
	ProjectID    string   `json:"projectId"`
	KeywordID    string   `json:"keywordId"`
	LookbackDays int      `json:"lookbackDays"`
	Providers    []string `json:"providers,omitempty"` // empty means all
}

type Output struct {
	Results       map[string]models.ProviderResult `json:"results"`
	ProviderCount int                              `json:"providerCount"`
	FromCache     bool                             `json:"fromCache"`
}
