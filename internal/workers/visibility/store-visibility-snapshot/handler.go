// internal/workers/visibility/store-visibility-snapshot/handler.go
package storevisibilitysnapshot

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"visibility-workers/internal/common/database"
	commonerrors "visibility-workers/internal/common/errors"
	"visibility-workers/internal/common/logger"
	"visibility-workers/internal/common/metrics"
	"visibility-workers/internal/models"
)

const (
	TaskType = "store-visibility-snapshot"
)

const insertSnapshotQuery = `
INSERT INTO visibility_snapshots
       (id, project_id, keyword_id, lookback_days, brand_rankings, source_rows, summary, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

type Handler struct {
	config *Config
	db     *sql.DB
	es     *database.ElasticsearchClient
	redis  *redis.Client
	logger logger.Logger
	errors *commonerrors.ErrorHandler
	now    func() time.Time
	newID  func() string
}

func NewHandler(config *Config, db *sql.DB, es *database.ElasticsearchClient, redisClient *redis.Client, log logger.Logger) *Handler {
	workerLog := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config: config,
		db:     db,
		es:     es,
		redis:  redisClient,
		logger: workerLog,
		errors: commonerrors.NewErrorHandler(workerLog),
		now:    time.Now,
		newID:  func() string { return uuid.New().String() },
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

	snapshot := models.Snapshot{
		ID:            h.newID(),
		ProjectID:     input.ProjectID,
		KeywordID:     input.KeywordID,
		LookbackDays:  input.LookbackDays,
		BrandRankings: input.BrandRankings,
		SourceRows:    input.SourceRows,
		Summary:       input.Summary,
		CreatedAt:     h.now().UTC().Format(time.RFC3339),
	}

	if err := h.insertSnapshot(ctx, snapshot); err != nil {
		return nil, err
	}

	// Search indexing and caching are best effort: the snapshot is already
	// durable in Postgres.
	indexed := h.indexSnapshot(ctx, snapshot)
	h.cacheSnapshot(ctx, snapshot)

	h.logger.Info("snapshot stored", map[string]interface{}{
		"snapshotId": snapshot.ID,
		"projectId":  snapshot.ProjectID,
		"keywordId":  snapshot.KeywordID,
		"indexed":    indexed,
	})

	return &Output{
		SnapshotID: snapshot.ID,
		CreatedAt:  snapshot.CreatedAt,
		Indexed:    indexed,
	}, nil
}

func (h *Handler) insertSnapshot(ctx context.Context, snapshot models.Snapshot) error {
	brandJSON, err := json.Marshal(snapshot.BrandRankings)
	if err != nil {
		return commonerrors.NewSnapshotStoreFailedError(err)
	}
	sourceJSON, err := json.Marshal(snapshot.SourceRows)
	if err != nil {
		return commonerrors.NewSnapshotStoreFailedError(err)
	}
	summaryJSON, err := json.Marshal(snapshot.Summary)
	if err != nil {
		return commonerrors.NewSnapshotStoreFailedError(err)
	}

	_, err = h.db.ExecContext(ctx, insertSnapshotQuery,
		snapshot.ID, snapshot.ProjectID, snapshot.KeywordID, snapshot.LookbackDays,
		brandJSON, sourceJSON, summaryJSON, snapshot.CreatedAt)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return commonerrors.NewQueryTimeoutError("insert_snapshot")
		}
		return commonerrors.NewSnapshotStoreFailedError(err)
	}
	return nil
}

func (h *Handler) indexSnapshot(ctx context.Context, snapshot models.Snapshot) bool {
	if h.es == nil {
		return false
	}

	doc, err := json.Marshal(snapshot)
	if err != nil {
		return false
	}
	if err := h.es.Index(ctx, h.config.SnapshotIndex, snapshot.ID, doc); err != nil {
		h.logger.Warn("snapshot index failed", map[string]interface{}{
			"snapshotId": snapshot.ID,
			"error":      err.Error(),
		})
		return false
	}
	return true
}

func (h *Handler) cacheSnapshot(ctx context.Context, snapshot models.Snapshot) {
	if h.redis == nil {
		return
	}

	raw, err := json.Marshal(snapshot)
	if err != nil {
		return
	}
	key := fmt.Sprintf("visibility:snapshot:%s:%s", snapshot.ProjectID, snapshot.KeywordID)
	if err := h.redis.Set(ctx, key, raw, h.config.CacheTTL).Err(); err != nil {
		h.logger.Warn("snapshot cache write failed", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
	}
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
