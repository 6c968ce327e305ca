// internal/workers/visibility/fetch-ranking-results/handler.go
package fetchrankingresults

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/redis/go-redis/v9"

	commonerrors "visibility-workers/internal/common/errors"
	"visibility-workers/internal/common/logger"
	"visibility-workers/internal/common/metrics"
	"visibility-workers/internal/models"
)

const (
	TaskType = "fetch-ranking-results"
)

// resultsQuery picks the latest run per provider inside the lookback window.
const resultsQuery = `
SELECT DISTINCT ON (provider)
       provider, model, visibility_score, our_brand_position,
       our_brand_mentioned, total_brands_mentioned, payload, last_run
FROM provider_results
WHERE project_id = $1
  AND keyword_id = $2
  AND last_run >= NOW() - make_interval(days => $3)
ORDER BY provider, last_run DESC`

type Handler struct {
	config *Config
	db     *sql.DB
	redis  *redis.Client
	logger logger.Logger
	errors *commonerrors.ErrorHandler
}

func NewHandler(config *Config, db *sql.DB, redisClient *redis.Client, log logger.Logger) *Handler {
	workerLog := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config: config,
		db:     db,
		redis:  redisClient,
		logger: workerLog,
		errors: commonerrors.NewErrorHandler(workerLog),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	start := time.Now()
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.failJob(client, job, commonerrors.NewResultsParseError("input", err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, &input)
	if err != nil {
		h.failJob(client, job, err)
		return
	}

	h.completeJob(client, job, output)
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())
}

// Execute is exported for tests and in-process pipeline composition.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input == nil {
		return nil, fmt.Errorf("input cannot be nil")
	}
	if input.ProjectID == "" || input.KeywordID == "" {
		return nil, commonerrors.NewBusinessRuleError(
			fmt.Sprintf("projectId: %q, keywordId: %q", input.ProjectID, input.KeywordID),
			"projectId and keywordId are required",
		)
	}

	lookback := input.LookbackDays
	if lookback == 0 {
		lookback = h.config.DefaultLookbackDays
	}
	if lookback < 1 || lookback > h.config.MaxLookbackDays {
		return nil, commonerrors.NewInvalidLookbackError(lookback, h.config.MaxLookbackDays)
	}

	cacheKey := fmt.Sprintf("visibility:results:%s:%s:%d", input.ProjectID, input.KeywordID, lookback)

	if results, ok := h.fromCache(ctx, cacheKey); ok {
		filtered := filterProviders(results, input.Providers)
		return &Output{Results: filtered, ProviderCount: len(filtered), FromCache: true}, nil
	}

	results, err := h.queryResults(ctx, input.ProjectID, input.KeywordID, lookback)
	if err != nil {
		return nil, err
	}

	h.cacheResults(ctx, cacheKey, results)

	filtered := filterProviders(results, input.Providers)
	return &Output{Results: filtered, ProviderCount: len(filtered), FromCache: false}, nil
}

func (h *Handler) queryResults(ctx context.Context, projectID, keywordID string, lookback int) (map[string]models.ProviderResult, error) {
	rows, err := h.db.QueryContext(ctx, resultsQuery, projectID, keywordID, lookback)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, commonerrors.NewQueryTimeoutError("provider_results")
		}
		return nil, commonerrors.NewResultsFetchFailedError(err)
	}
	defer rows.Close()

	results := make(map[string]models.ProviderResult)
	for rows.Next() {
		var (
			provider, model  string
			visibilityScore  float64
			ourBrandPosition int
			ourBrandMention  bool
			totalBrands      int
			payload          []byte
			lastRun          time.Time
		)
		if err := rows.Scan(&provider, &model, &visibilityScore, &ourBrandPosition,
			&ourBrandMention, &totalBrands, &payload, &lastRun); err != nil {
			return nil, commonerrors.NewResultsFetchFailedError(err)
		}

		result := models.ProviderResult{
			Provider:             provider,
			Model:                model,
			LastRun:              lastRun.UTC().Format(time.RFC3339),
			OurBrandPosition:     ourBrandPosition,
			OurBrandMentioned:    ourBrandMention,
			TotalBrandsMentioned: totalBrands,
			VisibilityScore:      visibilityScore,
		}
		if err := json.Unmarshal(payload, &result); err != nil {
			// A single corrupt row must not sink the whole fetch.
			h.logger.Warn("skipping provider with undecodable payload", map[string]interface{}{
				"provider": provider,
				"error":    err.Error(),
			})
			continue
		}
		results[provider] = result
	}
	if err := rows.Err(); err != nil {
		return nil, commonerrors.NewResultsFetchFailedError(err)
	}

	return results, nil
}

func (h *Handler) fromCache(ctx context.Context, key string) (map[string]models.ProviderResult, bool) {
	if h.redis == nil {
		return nil, false
	}

	raw, err := h.redis.Get(ctx, key).Result()
	if err != nil {
		if err != redis.Nil {
			h.logger.Warn("results cache read failed", map[string]interface{}{
				"key":   key,
				"error": err.Error(),
			})
		}
		return nil, false
	}

	var results map[string]models.ProviderResult
	if err := json.Unmarshal([]byte(raw), &results); err != nil {
		h.logger.Warn("results cache entry corrupt", map[string]interface{}{"key": key})
		return nil, false
	}
	return results, true
}

func (h *Handler) cacheResults(ctx context.Context, key string, results map[string]models.ProviderResult) {
	if h.redis == nil || len(results) == 0 {
		return
	}

	raw, err := json.Marshal(results)
	if err != nil {
		return
	}
	if err := h.redis.Set(ctx, key, raw, h.config.CacheTTL).Err(); err != nil {
		h.logger.Warn("results cache write failed", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
	}
}

// filterProviders keeps only the requested providers; an empty filter keeps all.
func filterProviders(results map[string]models.ProviderResult, providers []string) map[string]models.ProviderResult {
	if len(providers) == 0 {
		return results
	}
	filtered := make(map[string]models.ProviderResult, len(providers))
	for _, p := range providers {
		if r, ok := results[p]; ok {
			filtered[p] = r
		}
	}
	return filtered
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	if _, err = cmd.Send(context.Background()); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
	}
}

func (h *Handler) failJob(client worker.JobClient, job entities.Job, err error) {
	code := string(commonerrors.ErrCodeInternal)
	if stdErr, ok := err.(*commonerrors.StandardError); ok {
		code = string(stdErr.Code)
	}
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, code).Inc()
	h.errors.HandleJobError(context.Background(), client, job, err)
}
