// internal/workers/visibility/aggregate-visibility/models.go
package aggregatevisibility

import "visibility-workers/internal/models"

type Input struct {
	ProjectID string                           `json:"projectId"`
	KeywordID string                           `json:"keywordId"`
	Results   map[string]models.ProviderResult `json:"results"`
}

type Output struct {
	ProjectID     string                   `json:"projectId"`
	KeywordID     string                   `json:"keywordId"`
	BrandRankings []models.BrandRanking    `json:"brandRankings"`
	SourceRows    []models.SourceRow       `json:"sourceRows"`
	Summary       models.VisibilitySummary `json:"summary"`
}
