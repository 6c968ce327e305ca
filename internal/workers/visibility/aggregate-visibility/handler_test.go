package aggregatevisibility

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	commonerrors "visibility-workers/internal/common/errors"
	"visibility-workers/internal/common/logger"
	"visibility-workers/internal/models"
)

func createTestConfig() *Config {
	return &Config{Timeout: 5 * time.Second}
}

func createTestHandler(t *testing.T) *Handler {
	return NewHandler(createTestConfig(), logger.NewZapAdapter(zaptest.NewLogger(t)))
}

func twoProviderInput() *Input {
	return &Input{
		ProjectID: "project-1",
		KeywordID: "keyword-1",
		Results: map[string]models.ProviderResult{
			"openai": {
				Provider: "openai",
				RankedEntities: []models.RankedEntity{
					{Position: 1, Name: "BigCo"},
					{Position: 2, Name: "Acme", IsOwnBrand: true, Sentiment: "positive"},
				},
				Citations: []models.Citation{
					{URL: "https://review-site.com/best", Category: "review"},
				},
				OurBrandMentioned: true,
				OurBrandPosition:  2,
			},
			"anthropic": {
				Provider: "anthropic",
				RankedEntities: []models.RankedEntity{
					{Position: 1, Name: "Acme", IsOwnBrand: true, Sentiment: "positive"},
				},
				Citations: []models.Citation{
					{URL: "https://Review-Site.com/best", Category: "review"},
				},
				OurBrandMentioned: true,
				OurBrandPosition:  1,
			},
		},
	}
}

func TestHandler_Execute_Aggregates(t *testing.T) {
	handler := createTestHandler(t)

	output, err := handler.Execute(context.Background(), twoProviderInput())
	require.NoError(t, err)

	assert.Equal(t, "project-1", output.ProjectID)
	assert.Equal(t, "keyword-1", output.KeywordID)

	require.Len(t, output.BrandRankings, 2)
	acme := output.BrandRankings[0]
	assert.Equal(t, 1, acme.Rank)
	assert.Equal(t, "Acme", acme.Name)
	assert.True(t, acme.IsOwnBrand)
	assert.Equal(t, 100, acme.ShareOfVoice)
	assert.Equal(t, 1.5, acme.AveragePosition)

	bigco := output.BrandRankings[1]
	assert.Equal(t, 2, bigco.Rank)
	assert.Equal(t, "BigCo", bigco.Name)
	assert.Equal(t, 50, bigco.ShareOfVoice)

	// Case variants of the same URL collapse into one source row.
	require.Len(t, output.SourceRows, 1)
	source := output.SourceRows[0]
	assert.Equal(t, 1, source.Rank)
	assert.Equal(t, "review-site.com", source.Domain)
	assert.Equal(t, 100, source.MentionRate)
	assert.Equal(t, []string{"anthropic", "openai"}, source.CitingProviders)

	assert.Equal(t, 2, output.Summary.TotalProviders)
	assert.Equal(t, 2, output.Summary.ProvidersWithOwnBrandMention)
	assert.Equal(t, 1, output.Summary.BestOwnBrandPosition)
	assert.Equal(t, 2, output.Summary.TotalCitationsAcrossProviders)
}

func TestHandler_Execute_NoResults(t *testing.T) {
	handler := createTestHandler(t)

	tests := []struct {
		name  string
		input *Input
	}{
		{name: "nil results", input: &Input{ProjectID: "project-1", KeywordID: "keyword-1"}},
		{name: "empty results", input: &Input{Results: map[string]models.ProviderResult{}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := handler.Execute(context.Background(), tt.input)
			require.Error(t, err)

			stdErr, ok := err.(*commonerrors.StandardError)
			require.True(t, ok)
			assert.Equal(t, commonerrors.ErrCodeNoProviderResults, stdErr.Code)
			assert.False(t, stdErr.Retryable)
		})
	}
}

func TestHandler_ValidateVariables(t *testing.T) {
	handler := createTestHandler(t)
	require.NotNil(t, handler.schema)

	tests := []struct {
		name      string
		variables string
		wantErr   bool
	}{
		{
			name: "valid payload",
			variables: `{
				"projectId": "project-1",
				"keywordId": "keyword-1",
				"results": {
					"openai": {
						"provider": "openai",
						"rankedEntities": [{"position": 1, "name": "Acme", "isOwnBrand": true}],
						"citations": [{"url": "https://example.com"}]
					}
				}
			}`,
			wantErr: false,
		},
		{
			name:      "missing results",
			variables: `{"projectId": "project-1"}`,
			wantErr:   true,
		},
		{
			name:      "results is not an object",
			variables: `{"results": []}`,
			wantErr:   true,
		},
		{
			name:      "entity without a name",
			variables: `{"results": {"openai": {"provider": "openai", "rankedEntities": [{"position": 1}]}}}`,
			wantErr:   true,
		},
		{
			name:      "citation without a url",
			variables: `{"results": {"openai": {"provider": "openai", "citations": [{"domain": "example.com"}]}}}`,
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := handler.validateVariables(tt.variables)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)

			stdErr, ok := err.(*commonerrors.StandardError)
			require.True(t, ok)
			assert.Equal(t, commonerrors.ErrCodeAggregationInvalid, stdErr.Code)
		})
	}
}
