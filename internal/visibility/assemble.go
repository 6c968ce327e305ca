// internal/visibility/assemble.go
package visibility

import "visibility-workers/internal/models"

// Assembly is the full output of one aggregation run.
type Assembly struct {
	BrandRankings []models.BrandRanking    `json:"brandRankings"`
	SourceRows    []models.SourceRow       `json:"sourceRows"`
	Summary       models.VisibilitySummary `json:"summary"`
}

// Assemble runs both aggregators over one snapshot of per-provider results
// and reduces the summary counters. It is a pure function of its input: an
// empty input yields empty tables and a zeroed summary, never an error.
func Assemble(results map[string]models.ProviderResult) Assembly {
	sourceRows, idx := AggregateCitations(results)
	brandRankings := AggregateEntities(results, idx)

	summary := models.VisibilitySummary{
		TotalProviders: len(results),
	}
	for _, r := range results {
		if r.OurBrandMentioned {
			summary.ProvidersWithOwnBrandMention++
			if r.OurBrandPosition > 0 &&
				(summary.BestOwnBrandPosition == 0 || r.OurBrandPosition < summary.BestOwnBrandPosition) {
				summary.BestOwnBrandPosition = r.OurBrandPosition
			}
		}
		summary.TotalCitationsAcrossProviders += len(r.Citations)
	}

	return Assembly{
		BrandRankings: brandRankings,
		SourceRows:    sourceRows,
		Summary:       summary,
	}
}
