// internal/workers/onboarding/update-application-status/handler.go
package updateapplicationstatus

import (
	"context"
	"fmt"
	"time"

	"hospital-onboarding/internal/common/camunda"
	"hospital-onboarding/internal/common/errors"
	"hospital-onboarding/internal/common/logger"
	"hospital-onboarding/internal/common/validation"
	"hospital-onboarding/internal/lifecycle"
	"hospital-onboarding/internal/models"
	"hospital-onboarding/pkg/registry"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const TaskType = "update-application-status"

type StatusUpdater interface {
	UpdateApplicationStatus(ctx context.Context, applicationID string, update lifecycle.StatusUpdate) (*models.Application, error)
}

type Handler struct {
	config       *Config
	updater      StatusUpdater
	validator    *validation.Validator
	errorHandler *errors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(config *Config, updater StatusUpdater, reg *registry.ActivityRegistry, log logger.Logger) (*Handler, error) {
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
		updater:      updater,
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
		"jobKey":        job.GetKey(),
		"applicationId": output.ApplicationID,
		"status":        output.Status,
	})
	return nil
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	app, err := h.updater.UpdateApplicationStatus(ctx, input.ApplicationID, lifecycle.StatusUpdate{
		Status:           input.Status,
		Notes:            input.Notes,
		Priority:         input.Priority,
		AssignedReviewer: input.AssignedReviewer,
		RejectionReason:  input.RejectionReason,
	})
	if err != nil {
		return nil, err
	}

	return &Output{
		ApplicationID: app.ID,
		Status:        string(app.Status),
		Priority:      string(app.Priority),
		UpdatedAt:     app.UpdatedAt.UTC().Format(time.RFC3339),
	}, nil
}

func (h *Handler) failJob(client worker.JobClient, job entities.Job, err error) error {
	h.errorHandler.HandleJobError(context.Background(), client, job, err)
	return err
}
