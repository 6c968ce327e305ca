// internal/visibility/entities_test.go
package visibility

import (
	"fmt"
	"testing"

	"visibility-workers/internal/models"

	"github.com/stretchr/testify/assert"
)

func twoProviderResults() map[string]models.ProviderResult {
	return map[string]models.ProviderResult{
		"anthropic": {
			Provider: "anthropic",
			RankedEntities: []models.RankedEntity{
				{Position: 1, Name: "Acme", IsOwnBrand: true, Sentiment: "positive"},
				{Position: 3, Name: "BigCo", Sentiment: "neutral"},
			},
		},
		"openai": {
			Provider: "openai",
			RankedEntities: []models.RankedEntity{
				{Position: 1, Name: "acme", IsOwnBrand: true, Sentiment: "positive"},
				{Position: 3, Name: "BigCo", Sentiment: "neutral"},
			},
		},
	}
}

func TestAggregateEntities_TwoProviders(t *testing.T) {
	rankings := AggregateEntities(twoProviderResults(), CitationIndex{total: 2})

	assert.Len(t, rankings, 2)

	acme := rankings[0]
	assert.Equal(t, 1, acme.Rank)
	assert.Equal(t, "Acme", acme.Name) // first-seen display casing
	assert.True(t, acme.IsOwnBrand)
	assert.Equal(t, 100, acme.ShareOfVoice)
	assert.Equal(t, 1.0, acme.AveragePosition)
	assert.Equal(t, "acme.com", acme.Domain)

	bigco := rankings[1]
	assert.Equal(t, 2, bigco.Rank)
	assert.Equal(t, "BigCo", bigco.Name)
	assert.False(t, bigco.IsOwnBrand)
	assert.Equal(t, 100, bigco.ShareOfVoice)
	assert.Equal(t, 3.0, bigco.AveragePosition)
}

func TestAggregateEntities_OwnBrandPinnedRegardlessOfPosition(t *testing.T) {
	results := map[string]models.ProviderResult{
		"openai": {
			Provider: "openai",
			RankedEntities: []models.RankedEntity{
				{Position: 1, Name: "Leader", Sentiment: "positive"},
				{Position: 9, Name: "Acme", IsOwnBrand: true, Sentiment: "neutral"},
			},
		},
	}

	rankings := AggregateEntities(results, CitationIndex{total: 1})

	assert.Len(t, rankings, 2)
	assert.Equal(t, "Acme", rankings[0].Name)
	assert.Equal(t, 1, rankings[0].Rank)
	assert.Equal(t, 9.0, rankings[0].AveragePosition)
	assert.Equal(t, "Leader", rankings[1].Name)
}

func TestAggregateEntities_MultipleOwnBrandsKeepAccumulationOrder(t *testing.T) {
	// The upstream pipeline should only flag one own brand, but if two claim
	// the flag the sort is stable, so they keep accumulation order.
	results := map[string]models.ProviderResult{
		"openai": {
			Provider: "openai",
			RankedEntities: []models.RankedEntity{
				{Position: 2, Name: "Acme", IsOwnBrand: true, Sentiment: "positive"},
				{Position: 1, Name: "Acme Labs", IsOwnBrand: true, Sentiment: "positive"},
			},
		},
	}

	rankings := AggregateEntities(results, CitationIndex{total: 1})

	assert.Len(t, rankings, 2)
	assert.Equal(t, "Acme", rankings[0].Name)
	assert.Equal(t, "Acme Labs", rankings[1].Name)
	assert.Equal(t, "acmelabs.com", rankings[1].Domain)
}

func TestAggregateEntities_EmptyNameSkipped(t *testing.T) {
	results := map[string]models.ProviderResult{
		"openai": {
			Provider: "openai",
			RankedEntities: []models.RankedEntity{
				{Position: 1, Name: "", Sentiment: "neutral"},
				{Position: 2, Name: "Kept", Sentiment: "neutral"},
			},
		},
	}

	rankings := AggregateEntities(results, CitationIndex{total: 1})

	assert.Len(t, rankings, 1)
	assert.Equal(t, "Kept", rankings[0].Name)
}

func TestAggregateEntities_ShareOfVoiceBounds(t *testing.T) {
	results := map[string]models.ProviderResult{
		"a": {RankedEntities: []models.RankedEntity{{Position: 1, Name: "X", Sentiment: "neutral"}}},
		"b": {RankedEntities: []models.RankedEntity{{Position: 2, Name: "Y", Sentiment: "neutral"}}},
		"c": {RankedEntities: []models.RankedEntity{{Position: 2, Name: "X", Sentiment: "neutral"}}},
	}

	rankings := AggregateEntities(results, CitationIndex{total: 3})

	for _, r := range rankings {
		assert.GreaterOrEqual(t, r.ShareOfVoice, 0)
		assert.LessOrEqual(t, r.ShareOfVoice, 100)
	}
}

func TestAggregateEntities_CitationDetailsCappedAtTwenty(t *testing.T) {
	citations := make([]models.Citation, 0, MaxCitationDetails+5)
	for i := 0; i < MaxCitationDetails+5; i++ {
		citations = append(citations, models.Citation{
			URL: fmt.Sprintf("https://source-%02d.com/page", i),
		})
	}
	results := map[string]models.ProviderResult{
		"openai": {
			Provider:       "openai",
			RankedEntities: []models.RankedEntity{{Position: 1, Name: "Acme", IsOwnBrand: true, Sentiment: "positive"}},
			Citations:      citations,
		},
	}

	_, idx := AggregateCitations(results)
	rankings := AggregateEntities(results, idx)

	assert.Len(t, rankings, 1)
	assert.Len(t, rankings[0].CitationDetails, MaxCitationDetails)
	// The uncapped match count is still reported.
	assert.Equal(t, MaxCitationDetails+5, rankings[0].CitationCount)
	for _, d := range rankings[0].CitationDetails {
		assert.Equal(t, "positive", d.Sentiment)
		assert.True(t, d.IsAccessible)
	}
}

func TestAggregateEntities_DetailsOnlyFromSharedProviders(t *testing.T) {
	results := map[string]models.ProviderResult{
		"openai": {
			Provider:       "openai",
			RankedEntities: []models.RankedEntity{{Position: 1, Name: "Acme", Sentiment: "positive"}},
			Citations:      []models.Citation{{URL: "https://openai-source.com/a"}},
		},
		"anthropic": {
			Provider:  "anthropic",
			Citations: []models.Citation{{URL: "https://anthropic-source.com/b"}},
		},
	}

	_, idx := AggregateCitations(results)
	rankings := AggregateEntities(results, idx)

	assert.Len(t, rankings, 1)
	assert.Len(t, rankings[0].CitationDetails, 1)
	assert.Equal(t, "openai-source.com", rankings[0].CitationDetails[0].Domain)
}

func TestAggregateEntities_RankContiguity(t *testing.T) {
	results := map[string]models.ProviderResult{
		"a": {RankedEntities: []models.RankedEntity{
			{Position: 4, Name: "One", Sentiment: "neutral"},
			{Position: 2, Name: "Two", IsOwnBrand: true, Sentiment: "neutral"},
			{Position: 1, Name: "Three", Sentiment: "neutral"},
			{Position: 3, Name: "Four", Sentiment: "neutral"},
		}},
	}

	rankings := AggregateEntities(results, CitationIndex{total: 1})

	assert.Len(t, rankings, 4)
	for i, r := range rankings {
		assert.Equal(t, i+1, r.Rank)
	}
}
