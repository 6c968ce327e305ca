// internal/workers/visibility/build-dashboard-response/handler.go
package builddashboardresponse

import (
	"context"
	"encoding/json"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	commonerrors "visibility-workers/internal/common/errors"
	"visibility-workers/internal/common/logger"
	"visibility-workers/internal/common/metrics"
	"visibility-workers/internal/visibility"
)

const (
	TaskType = "build-dashboard-response"
)

type Handler struct {
	config *Config
	logger logger.Logger
	errors *commonerrors.ErrorHandler
}

func NewHandler(config *Config, log logger.Logger) *Handler {
	workerLog := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config: config,
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

func (h *Handler) execute(_ context.Context, input *Input) (*Output, error) {
	if input == nil {
		input = &Input{}
	}

	switch input.Action {
	case "", ActionInit, ActionLoadMore, ActionShowAll, ActionCollapse:
	default:
		return nil, commonerrors.NewInvalidDisclosureError(input.Action)
	}
	switch input.Target {
	case "", TargetBrands, TargetSources:
	default:
		return nil, commonerrors.NewInvalidDisclosureError(input.Target)
	}

	brands := visibility.ResumeWindow(h.config.DefaultLimit, limitOrDefault(input.BrandLimit, h.config.DefaultLimit), len(input.BrandRankings))
	sources := visibility.ResumeWindow(h.config.DefaultLimit, limitOrDefault(input.SourceLimit, h.config.DefaultLimit), len(input.SourceRows))

	if input.Target == "" || input.Target == TargetBrands {
		h.apply(&brands, input.Action, input.Step)
	}
	if input.Target == "" || input.Target == TargetSources {
		h.apply(&sources, input.Action, input.Step)
	}

	return &Output{
		BrandRankings:  visibility.Slice(input.BrandRankings, brands),
		SourceRows:     visibility.Slice(input.SourceRows, sources),
		Summary:        input.Summary,
		BrandLimit:     brands.Limit(),
		BrandTotal:     brands.Total(),
		HasMoreBrands:  brands.HasMore(),
		SourceLimit:    sources.Limit(),
		SourceTotal:    sources.Total(),
		HasMoreSources: sources.HasMore(),
	}, nil
}

func (h *Handler) apply(w *visibility.Window, action string, step int) {
	switch action {
	case ActionLoadMore:
		if step <= 0 {
			step = h.config.DefaultStep
		}
		w.LoadMore(step)
	case ActionShowAll:
		w.ShowAll()
	case ActionCollapse:
		w.Collapse()
	}
	// "" and "init" keep the resumed window as-is.
}

// limitOrDefault treats an absent limit as a fresh window.
func limitOrDefault(limit, def int) int {
	if limit <= 0 {
		return def
	}
	return limit
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
