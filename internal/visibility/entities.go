// internal/visibility/entities.go
package visibility

import (
	"math"
	"sort"
	"strings"

	"visibility-workers/internal/models"
)

// MaxCitationDetails caps the citations attached to one brand row.
const MaxCitationDetails = 20

// aggregatedEntity accumulates every mention of one brand (identified by
// lowercased name) across providers.
type aggregatedEntity struct {
	name        string // first-seen display name
	positions   []int
	providers   []string
	providerSet map[string]bool
	isOwnBrand  bool
	sentiment   string
	context     string
}

// AggregateEntities merges per-provider brand mentions into one ranked brand
// table, attaching citation detail from the index. Entities with an empty
// name are skipped; nothing here can fail.
func AggregateEntities(results map[string]models.ProviderResult, idx CitationIndex) []models.BrandRanking {
	var keys []string
	byKey := make(map[string]*aggregatedEntity)

	for _, provider := range sortedProviders(results) {
		for _, e := range results[provider].RankedEntities {
			if e.Name == "" {
				continue
			}
			key := strings.ToLower(e.Name)
			agg, seen := byKey[key]
			if !seen {
				agg = &aggregatedEntity{
					name:        e.Name,
					providerSet: make(map[string]bool),
				}
				keys = append(keys, key)
				byKey[key] = agg
			}

			if e.Position > 0 {
				agg.positions = append(agg.positions, e.Position)
			}
			if !agg.providerSet[provider] {
				agg.providerSet[provider] = true
				agg.providers = append(agg.providers, provider)
			}
			agg.isOwnBrand = agg.isOwnBrand || e.IsOwnBrand
			if agg.sentiment == "" {
				agg.sentiment = e.Sentiment
			}
			if agg.context == "" {
				agg.context = e.Context
			}
		}
	}

	total := len(results)
	rankings := make([]models.BrandRanking, 0, len(keys))
	for _, key := range keys {
		agg := byKey[key]
		details, citationCount := idx.detailsFor(agg.providerSet, agg.resolvedSentiment())
		rankings = append(rankings, models.BrandRanking{
			Name:            agg.name,
			Domain:          brandDomain(agg.name),
			ShareOfVoice:    ratePercent(len(agg.providers), total),
			AveragePosition: agg.averagePosition(),
			CitationCount:   citationCount,
			IsOwnBrand:      agg.isOwnBrand,
			CitationDetails: details,
		})
	}

	// Own-brand rows pin to the top; everyone else sorts by average position.
	// The sort is stable so ties keep their accumulation order.
	sort.SliceStable(rankings, func(i, j int) bool {
		if rankings[i].IsOwnBrand != rankings[j].IsOwnBrand {
			return rankings[i].IsOwnBrand
		}
		if rankings[i].IsOwnBrand {
			return false
		}
		return rankings[i].AveragePosition < rankings[j].AveragePosition
	})
	for i := range rankings {
		rankings[i].Rank = i + 1
	}

	return rankings
}

// averagePosition is the arithmetic mean of observed positions, rounded to
// one decimal place. Zero when no position was ever recorded.
func (a *aggregatedEntity) averagePosition() float64 {
	if len(a.positions) == 0 {
		return 0
	}
	sum := 0
	for _, p := range a.positions {
		sum += p
	}
	mean := float64(sum) / float64(len(a.positions))
	return math.Round(mean*10) / 10
}

func (a *aggregatedEntity) resolvedSentiment() string {
	if a.sentiment == "" {
		return "neutral"
	}
	return a.sentiment
}

// brandDomain synthesizes a display domain for a brand name: names that
// already look like a domain are lowercased, anything else gets a .com suffix
// with whitespace squeezed out.
func brandDomain(name string) string {
	lower := strings.ToLower(name)
	if strings.Contains(lower, ".") {
		return lower
	}
	return strings.ReplaceAll(lower, " ", "") + ".com"
}
