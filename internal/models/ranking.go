// internal/models/ranking.go
package models

// BrandRanking is one row of the unified brand table, merged across all
// providers in an aggregation run.
type BrandRanking struct {
	Rank            int              `json:"rank"`
	Name            string           `json:"name"`
	Domain          string           `json:"domain"`
	ShareOfVoice    int              `json:"shareOfVoice"` // 0-100
	AveragePosition float64          `json:"averagePosition"`
	CitationCount   int              `json:"citationCount"`
	IsOwnBrand      bool             `json:"isOwnBrand"`
	CitationDetails []CitationDetail `json:"citationDetails"`
}

// CitationDetail is a citation attached to a brand row because the citing
// providers overlap the providers that mentioned the brand.
type CitationDetail struct {
	URL          string `json:"url"`
	Domain       string `json:"domain"`
	Category     string `json:"category"`
	IsAccessible bool   `json:"isAccessible"`
	Sentiment    string `json:"sentiment"` // inherited from the brand
	Position     int    `json:"position"`
}

// SourceRow is one row of the unified citation-source table.
type SourceRow struct {
	Rank            int      `json:"rank"`
	Domain          string   `json:"domain"`
	URL             string   `json:"url"`
	MentionRate     int      `json:"mentionRate"` // 0-100
	Position        int      `json:"position"`
	CitingProviders []string `json:"citingProviders"`
}

// VisibilitySummary holds the headline counters shown above both tables.
type VisibilitySummary struct {
	TotalProviders                int `json:"totalProviders"`
	ProvidersWithOwnBrandMention  int `json:"providersWithOwnBrandMention"`
	BestOwnBrandPosition          int `json:"bestOwnBrandPosition"` // 0 when never mentioned
	TotalCitationsAcrossProviders int `json:"totalCitationsAcrossProviders"`
}

// Snapshot is a persisted aggregation run for one project/keyword pair.
type Snapshot struct {
	ID            string            `json:"id"`
	ProjectID     string            `json:"projectId"`
	KeywordID     string            `json:"keywordId"`
	LookbackDays  int               `json:"lookbackDays"`
	BrandRankings []BrandRanking    `json:"brandRankings"`
	SourceRows    []SourceRow       `json:"sourceRows"`
	Summary       VisibilitySummary `json:"summary"`
	CreatedAt     string            `json:"createdAt"` // ISO 8601
}
