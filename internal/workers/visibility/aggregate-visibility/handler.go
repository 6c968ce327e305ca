// internal/workers/visibility/aggregate-visibility/handler.go
package aggregatevisibility

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/xeipuuv/gojsonschema"

	commonerrors "visibility-workers/internal/common/errors"
	"visibility-workers/internal/common/logger"
	"visibility-workers/internal/common/metrics"
	"visibility-workers/internal/visibility"
)

const (
	TaskType = "aggregate-visibility"
)

type Handler struct {
	config *Config
	logger logger.Logger
	errors *commonerrors.ErrorHandler
	schema *gojsonschema.Schema
}

func NewHandler(config *Config, log logger.Logger) *Handler {
	workerLog := log.WithFields(map[string]interface{}{"taskType": TaskType})

	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(inputSchema))
	if err != nil {
		workerLog.Error("input schema does not compile", map[string]interface{}{
			"error": err.Error(),
		})
	}

	return &Handler{
		config: config,
		logger: workerLog,
		errors: commonerrors.NewErrorHandler(workerLog),
		schema: schema,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	start := time.Now()
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	if err := h.validateVariables(job.Variables); err != nil {
		h.failJob(client, job, err)
		return
	}

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.failJob(client, job, commonerrors.NewAggregationInvalidError(err.Error()))
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

func (h *Handler) execute(_ context.Context, input *Input) (*Output, error) {
	if input == nil || len(input.Results) == 0 {
		projectID, keywordID := "", ""
		if input != nil {
			projectID, keywordID = input.ProjectID, input.KeywordID
		}
		return nil, commonerrors.NewNoProviderResultsError(projectID, keywordID)
	}

	assembly := visibility.Assemble(input.Results)

	metrics.AggregatedRows.WithLabelValues("brands").Observe(float64(len(assembly.BrandRankings)))
	metrics.AggregatedRows.WithLabelValues("sources").Observe(float64(len(assembly.SourceRows)))

	h.logger.Info("aggregation complete", map[string]interface{}{
		"providers": len(input.Results),
		"brands":    len(assembly.BrandRankings),
		"sources":   len(assembly.SourceRows),
	})

	return &Output{
		ProjectID:     input.ProjectID,
		KeywordID:     input.KeywordID,
		BrandRankings: assembly.BrandRankings,
		SourceRows:    assembly.SourceRows,
		Summary:       assembly.Summary,
	}, nil
}

// validateVariables checks the raw job payload against the input schema.
func (h *Handler) validateVariables(variables string) error {
	if h.schema == nil {
		return nil
	}

	result, err := h.schema.Validate(gojsonschema.NewStringLoader(variables))
	if err != nil {
		return commonerrors.NewAggregationInvalidError(err.Error())
	}
	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			errs[i] = desc.String()
		}
		return commonerrors.NewAggregationInvalidError(strings.Join(errs, "; "))
	}
	return nil
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
