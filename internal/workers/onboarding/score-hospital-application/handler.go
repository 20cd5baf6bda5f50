// internal/workers/onboarding/score-hospital-application/handler.go
package scorehospitalapplication

import (
	"context"
	"fmt"

	"hospital-onboarding/internal/common/camunda"
	"hospital-onboarding/internal/common/errors"
	"hospital-onboarding/internal/common/logger"
	"hospital-onboarding/internal/common/validation"
	"hospital-onboarding/internal/lifecycle"
	"hospital-onboarding/pkg/registry"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const TaskType = "score-hospital-application"

// Scorer is the part of the lifecycle manager this worker drives.
type Scorer interface {
	ScoreApplication(ctx context.Context, applicationID string) (*lifecycle.ScoreOutcome, error)
}

type Handler struct {
	config       *Config
	scorer       Scorer
	validator    *validation.Validator
	errorHandler *errors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(config *Config, scorer Scorer, reg *registry.ActivityRegistry, log logger.Logger) (*Handler, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration for %s: %w", TaskType, err)
	}
	validator, err := validation.ForTask(reg, TaskType)
	if err != nil {
		return nil, err
	}

	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		scorer:       scorer,
		validator:    validator,
		errorHandler: errors.NewErrorHandler(log),
		logger:       log,
	}, nil
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) error {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":             job.GetKey(),
		"processInstanceKey": job.GetProcessInstanceKey(),
	})

	var input Input
	if err := camunda.DecodeVariables(job, h.validator, &input); err != nil {
		return h.failJob(client, job, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.Execute(ctx, &input)
	if err != nil {
		return h.failJob(client, job, err)
	}

	if err := camunda.CompleteJob(context.Background(), client, job, output); err != nil {
		h.logger.Error("failed to complete job", map[string]interface{}{
			"jobKey": job.GetKey(),
			"error":  err.Error(),
		})
		return err
	}

	h.logger.Info("job completed", map[string]interface{}{
		"jobKey":         job.GetKey(),
		"applicationId":  input.ApplicationID,
		"recommendation": output.Recommendation,
		"newStatus":      output.NewStatus,
	})
	return nil
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	outcome, err := h.scorer.ScoreApplication(ctx, input.ApplicationID)
	if err != nil {
		return nil, err
	}

	return &Output{
		TotalScore:       outcome.TotalScore,
		MaxPossibleScore: outcome.MaxPossibleScore,
		Percentage:       outcome.Percentage,
		Recommendation:   string(outcome.Recommendation),
		PreviousStatus:   string(outcome.PreviousStatus),
		NewStatus:        string(outcome.NewStatus),
		Details:          outcome.Details,
	}, nil
}

func (h *Handler) failJob(client worker.JobClient, job entities.Job, err error) error {
	h.errorHandler.HandleJobError(context.Background(), client, job, err)
	return err
}
