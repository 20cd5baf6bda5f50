// internal/workers/onboarding/submit-hospital-application/handler.go
package submithospitalapplication

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

const TaskType = "submit-hospital-application"

type Submitter interface {
	SubmitApplication(ctx context.Context, sub lifecycle.Submission) (*lifecycle.SubmissionResult, error)
}

type Handler struct {
	config       *Config
	submitter    Submitter
	validator    *validation.Validator
	errorHandler *errors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(config *Config, submitter Submitter, reg *registry.ActivityRegistry, log logger.Logger) (*Handler, error) {
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
		submitter:    submitter,
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
		h.errorHandler.HandleJobError(context.Background(), client, job, err)
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.Execute(ctx, &input)
	if err != nil {
		h.errorHandler.HandleJobError(context.Background(), client, job, err)
		return err
	}

	// A failed completion leaves the application in place; the retried job
	// creates a second one under a new number.
	if err := camunda.CompleteJob(context.Background(), client, job, output); err != nil {
		h.logger.Error("failed to complete job", map[string]interface{}{
			"jobKey":        job.GetKey(),
			"applicationId": output.ApplicationID,
			"error":         err.Error(),
		})
		return err
	}

	h.logger.Info("job completed", map[string]interface{}{
		"jobKey":            job.GetKey(),
		"applicationId":     output.ApplicationID,
		"applicationNumber": output.ApplicationNumber,
	})
	return nil
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	result, err := h.submitter.SubmitApplication(ctx, lifecycle.Submission{
		Owner:    input.Owner,
		Hospital: input.Hospital,
	})
	if err != nil {
		return nil, err
	}

	return &Output{
		ApplicationID:     result.Application.ID,
		ApplicationNumber: result.Application.ApplicationNumber,
		OwnerID:           result.OwnerID,
		HospitalID:        result.HospitalID,
		Status:            string(result.Application.Status),
	}, nil
}
