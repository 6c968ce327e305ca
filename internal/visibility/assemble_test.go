// internal/visibility/assemble_test.go
package visibility

import (
	"testing"

	"visibility-workers/internal/models"

	"github.com/stretchr/testify/assert"
)

func assemblyFixture() map[string]models.ProviderResult {
	return map[string]models.ProviderResult{
		"openai": {
			Provider:          "openai",
			Model:             "gpt-4o",
			OurBrandMentioned: true,
			OurBrandPosition:  2,
			RankedEntities: []models.RankedEntity{
				{Position: 1, Name: "BigCo", Sentiment: "neutral"},
				{Position: 2, Name: "Acme", IsOwnBrand: true, Sentiment: "positive"},
			},
			Citations: []models.Citation{
				{URL: "https://review-site.com/best-tools", Category: "blog"},
				{URL: "https://acme.com/docs", IsOurDomain: true},
			},
		},
		"anthropic": {
			Provider:          "anthropic",
			Model:             "claude-3-5-sonnet",
			OurBrandMentioned: true,
			OurBrandPosition:  1,
			RankedEntities: []models.RankedEntity{
				{Position: 1, Name: "Acme", IsOwnBrand: true, Sentiment: "positive"},
				{Position: 2, Name: "BigCo", Sentiment: "neutral"},
			},
			Citations: []models.Citation{
				{URL: "https://Review-Site.com/best-tools", Category: "news"},
			},
		},
		"perplexity": {
			Provider:          "perplexity",
			Model:             "sonar",
			OurBrandMentioned: false,
			RankedEntities: []models.RankedEntity{
				{Position: 1, Name: "BigCo", Sentiment: "neutral"},
			},
			Citations: []models.Citation{},
		},
	}
}

func TestAssemble_FullRun(t *testing.T) {
	out := Assemble(assemblyFixture())

	assert.Len(t, out.BrandRankings, 2)
	assert.Equal(t, "Acme", out.BrandRankings[0].Name)
	assert.True(t, out.BrandRankings[0].IsOwnBrand)
	assert.Equal(t, 67, out.BrandRankings[0].ShareOfVoice) // 2 of 3 providers
	assert.Equal(t, 1.5, out.BrandRankings[0].AveragePosition)
	assert.Equal(t, "BigCo", out.BrandRankings[1].Name)
	assert.Equal(t, 100, out.BrandRankings[1].ShareOfVoice)

	assert.Len(t, out.SourceRows, 2)
	assert.Equal(t, "review-site.com", out.SourceRows[0].Domain)
	assert.Equal(t, 67, out.SourceRows[0].MentionRate)

	assert.Equal(t, 3, out.Summary.TotalProviders)
	assert.Equal(t, 2, out.Summary.ProvidersWithOwnBrandMention)
	assert.Equal(t, 1, out.Summary.BestOwnBrandPosition)
	assert.Equal(t, 3, out.Summary.TotalCitationsAcrossProviders)
}

func TestAssemble_Deterministic(t *testing.T) {
	first := Assemble(assemblyFixture())

	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Assemble(assemblyFixture()))
	}
}

func TestAssemble_EmptyInput(t *testing.T) {
	out := Assemble(map[string]models.ProviderResult{})

	assert.Empty(t, out.BrandRankings)
	assert.Empty(t, out.SourceRows)
	assert.Zero(t, out.Summary.TotalProviders)
	assert.Zero(t, out.Summary.BestOwnBrandPosition)
}

func TestAssemble_ProviderFilterEquivalence(t *testing.T) {
	// Excluding a provider is the same as deleting it from the input map.
	full := assemblyFixture()
	filtered := map[string]models.ProviderResult{
		"openai":    full["openai"],
		"anthropic": full["anthropic"],
	}

	out := Assemble(filtered)

	assert.Equal(t, 2, out.Summary.TotalProviders)
	assert.Equal(t, 100, out.BrandRankings[0].ShareOfVoice)
	assert.Equal(t, 100, out.SourceRows[0].MentionRate)
}
