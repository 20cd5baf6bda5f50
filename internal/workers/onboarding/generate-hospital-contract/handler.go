// internal/workers/onboarding/generate-hospital-contract/handler.go
package generatehospitalcontract

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

const TaskType = "generate-hospital-contract"

type ContractGenerator interface {
	GenerateContract(ctx context.Context, applicationID string) (*lifecycle.ContractOutcome, error)
}

type Handler struct {
	config       *Config
	generator    ContractGenerator
	validator    *validation.Validator
	errorHandler *errors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(config *Config, generator ContractGenerator, reg *registry.ActivityRegistry, log logger.Logger) (*Handler, error) {
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
		generator:    generator,
		validator:    validator,
		errorHandler: errors.NewErrorHandler(log),
		logger:       log,
	}, nil
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) error {
	var input Input
	if err := camunda.DecodeVariables(job, h.validator, &input); err != nil {
		return h.failJob(client, job, err)
	}

	log := h.logger.WithFields(map[string]interface{}{
		"jobKey":        job.GetKey(),
		"applicationId": input.ApplicationID,
	})
	log.Info("processing job", nil)

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.Execute(ctx, &input)
	if err != nil {
		return h.failJob(client, job, err)
	}

	if err := camunda.CompleteJob(context.Background(), client, job, output); err != nil {
		log.Error("failed to complete job", map[string]interface{}{"error": err.Error()})
		return err
	}

	log.Info("job completed", map[string]interface{}{
		"contractNumber": output.ContractNumber,
		"created":        output.Created,
	})
	return nil
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	outcome, err := h.generator.GenerateContract(ctx, input.ApplicationID)
	if err != nil {
		return nil, err
	}

	return &Output{
		ContractID:        outcome.Contract.ID,
		ContractNumber:    outcome.Contract.ContractNumber,
		ContractStatus:    outcome.Contract.Status,
		ApplicationStatus: string(outcome.ApplicationStatus),
		Created:           outcome.Created,
	}, nil
}

func (h *Handler) failJob(client worker.JobClient, job entities.Job, err error) error {
	h.errorHandler.HandleJobError(context.Background(), client, job, err)
	return err
}
