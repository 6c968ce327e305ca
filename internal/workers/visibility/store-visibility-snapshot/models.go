// internal/workers/visibility/store-visibility-snapshot/models.go
package storevisibilitysnapshot

import "visibility-workers/internal/models"

type Input struct {
	ProjectID     string                   `json:"projectId"`
	KeywordID     string                   `json:"keywordId"`
	LookbackDays  int                      `json:"lookbackDays"`
	BrandRankings []models.BrandRanking    `json:"brandRankings"`
	SourceRows    []models.SourceRow       `json:"sourceRows"`
	Summary       models.VisibilitySummary `json:"summary"`
}

type Output struct {
	SnapshotID string `json:"snapshotId"`
	CreatedAt  string `json:"createdAt"`
	Indexed    bool   `json:"indexed"`
}
