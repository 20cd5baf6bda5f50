// internal/workers/onboarding/notify-application-decision/handler.go
package notifyapplicationdecision

import (
	"context"
	"fmt"
	"time"

	"hospital-onboarding/internal/common/camunda"
	"hospital-onboarding/internal/common/errors"
	"hospital-onboarding/internal/common/logger"
	"hospital-onboarding/internal/common/validation"
	"hospital-onboarding/internal/models"
	"hospital-onboarding/internal/notification"
	"hospital-onboarding/pkg/registry"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const TaskType = "notify-application-decision"

type ContactLookup interface {
	OwnerContact(ctx context.Context, applicationID string) (*models.OwnerContact, error)
}

type DecisionNotifier interface {
	NotifyDecision(ctx context.Context, contact *models.OwnerContact) (*notification.Receipt, error)
}

type Handler struct {
	config       *Config
	contacts     ContactLookup
	notifier     DecisionNotifier
	validator    *validation.Validator
	errorHandler *errors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(config *Config, contacts ContactLookup, notifier DecisionNotifier, reg *registry.ActivityRegistry, log logger.Logger) (*Handler, error) {
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
		contacts:     contacts,
		notifier:     notifier,
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
		"jobKey":      job.GetKey(),
		"emailStatus": output.EmailStatus,
		"smsStatus":   output.SMSStatus,
	})
	return nil
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	contact, err := h.contacts.OwnerContact(ctx, input.ApplicationID)
	if err != nil {
		return nil, err
	}

	receipt, err := h.notifier.NotifyDecision(ctx, contact)
	if err != nil {
		return nil, err
	}

	return &Output{
		EmailStatus: receipt.Email.Status,
		SMSStatus:   receipt.SMS.Status,
		NotifiedAt:  receipt.NotifiedAt.UTC().Format(time.RFC3339),
	}, nil
}

func (h *Handler) failJob(client worker.JobClient, job entities.Job, err error) error {
	h.errorHandler.HandleJobError(context.Background(), client, job, err)
	return err
}
