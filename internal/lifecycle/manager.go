// internal/lifecycle/manager.go
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"time"

	apperrors "hospital-onboarding/internal/common/errors"
	"hospital-onboarding/internal/common/logger"
	"hospital-onboarding/internal/common/metrics"
	"hospital-onboarding/internal/models"
	"hospital-onboarding/internal/scoring"

	"github.com/google/uuid"
)

const (
	sourceScoring  = "scoring"
	sourceReviewer = "reviewer"
	sourceSubmit   = "submission"
	sourceContract = "contract"

	defaultEvaluator = "automated-scoring"
)

// Manager owns application status, evaluation scores and the status history.
type Manager struct {
	store       Store
	criteria    CriteriaSource
	logger      logger.Logger
	now         func() time.Time
	newID       func() string
	engineOpts  []scoring.Option
	evaluatedBy string
}

type ManagerOption func(*Manager)

func WithClock(now func() time.Time) ManagerOption {
	return func(m *Manager) { m.now = now }
}

func WithIDGenerator(newID func() string) ManagerOption {
	return func(m *Manager) { m.newID = newID }
}

// WithEvaluatedBy names the evaluator recorded on every score row.
func WithEvaluatedBy(name string) ManagerOption {
	return func(m *Manager) {
		if name != "" {
			m.evaluatedBy = name
		}
	}
}

// WithEngineOptions forwards options to every scoring engine the manager builds.
func WithEngineOptions(opts ...scoring.Option) ManagerOption {
	return func(m *Manager) { m.engineOpts = append(m.engineOpts, opts...) }
}

func NewManager(store Store, criteria CriteriaSource, log logger.Logger, opts ...ManagerOption) *Manager {
	m := &Manager{
		store:       store,
		criteria:    criteria,
		logger:      log.WithFields(map[string]interface{}{"component": "lifecycle"}),
		now:         time.Now,
		newID:       uuid.NewString,
		evaluatedBy: defaultEvaluator,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// StatusForRecommendation is the canonical recommendation to status mapping.
func StatusForRecommendation(r scoring.Recommendation) models.ApplicationStatus {
	switch r {
	case scoring.RecommendApprove:
		return models.StatusApproved
	case scoring.RecommendReject:
		return models.StatusRejected
	default:
		return models.StatusUnderReview
	}
}

// Once an application is in the contract phase its evaluation is final.
var unscorableStatuses = map[models.ApplicationStatus]bool{
	models.StatusContractPending: true,
	models.StatusContractSigned:  true,
	models.StatusCompleted:       true,
}

type ScoreOutcome struct {
	*scoring.Result
	ApplicationID  string                   `json:"applicationId"`
	PreviousStatus models.ApplicationStatus `json:"previousStatus"`
	NewStatus      models.ApplicationStatus `json:"newStatus"`
}

// ScoreApplication runs the engine for one application and, in a single
// transaction, replaces its scores, moves its status and records history.
func (m *Manager) ScoreApplication(ctx context.Context, applicationID string) (*ScoreOutcome, error) {
	log := m.logger.WithFields(map[string]interface{}{"applicationId": applicationID})

	criteria, err := m.criteria.ActiveCriteria(ctx)
	if err != nil {
		return nil, err
	}
	if len(criteria) == 0 {
		return nil, apperrors.NewCriteriaNotFoundError()
	}

	engineOpts := append([]scoring.Option{scoring.WithClock(m.now)}, m.engineOpts...)
	engine, err := scoring.NewEngine(criteria, engineOpts...)
	if err != nil {
		return nil, err
	}

	var outcome *ScoreOutcome
	err = m.store.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		app, err := tx.LockApplication(ctx, applicationID)
		if err != nil {
			return notFound(err, apperrors.NewApplicationNotFoundError(applicationID))
		}
		if unscorableStatuses[app.Status] {
			return apperrors.NewConflictError(fmt.Sprintf("application %s is %s and can no longer be scored", applicationID, app.Status))
		}
		if app.HospitalID == nil {
			return apperrors.NewHospitalNotFoundError(applicationID)
		}

		hospital, err := tx.GetHospital(ctx, *app.HospitalID)
		if err != nil {
			return notFound(err, apperrors.NewHospitalNotFoundError(applicationID))
		}
		documents, err := tx.ListDocuments(ctx, applicationID)
		if err != nil {
			return err
		}

		result, err := engine.CalculateScore(hospital, documents)
		if err != nil {
			return err
		}

		now := m.now().UTC()
		scores := scoring.ToScores(applicationID, m.evaluatedBy, result)
		for i := range scores {
			scores[i].ID = m.newID()
			scores[i].CreatedAt = now
		}
		if err := tx.ReplaceScores(ctx, applicationID, scores); err != nil {
			return err
		}

		newStatus := StatusForRecommendation(result.Recommendation)
		notes := fmt.Sprintf("Automated scoring completed. Score: %.2f%%. Recommendation: %s",
			result.Percentage, result.Recommendation)
		patch := ApplicationPatch{Notes: &notes, UpdatedAt: now}
		changed := newStatus != app.Status
		if changed {
			applyTransition(&patch, newStatus, now)
		}

		if _, err := tx.UpdateApplication(ctx, applicationID, patch); err != nil {
			return err
		}

		if changed {
			reason := fmt.Sprintf("Automated scoring: %.2f%% - %s", result.Percentage, result.Recommendation)
			if err := m.appendHistory(ctx, tx, applicationID, &app.Status, newStatus, reason, now); err != nil {
				return err
			}
		}

		outcome = &ScoreOutcome{
			Result:         result,
			ApplicationID:  applicationID,
			PreviousStatus: app.Status,
			NewStatus:      newStatus,
		}
		return nil
	})
	if err != nil {
		log.Warn("scoring failed", map[string]interface{}{"error": err.Error()})
		return nil, err
	}

	metrics.ScoringRuns.WithLabelValues(string(outcome.Recommendation)).Inc()
	metrics.ScoringPercentage.Observe(outcome.Percentage)
	if outcome.PreviousStatus != outcome.NewStatus {
		metrics.RecordTransition(string(outcome.PreviousStatus), string(outcome.NewStatus), sourceScoring)
	}

	log.Info("application scored", map[string]interface{}{
		"percentage":     outcome.Percentage,
		"recommendation": outcome.Recommendation,
		"previousStatus": outcome.PreviousStatus,
		"newStatus":      outcome.NewStatus,
		"criteria":       len(outcome.Details),
	})
	return outcome, nil
}

// StatusUpdate is a reviewer's partial update. Nil fields are not changed.
type StatusUpdate struct {
	Status           *models.ApplicationStatus `json:"status,omitempty"`
	Notes            *string                   `json:"notes,omitempty"`
	Priority         *models.Priority          `json:"priority,omitempty"`
	AssignedReviewer *string                   `json:"assignedReviewer,omitempty"`
	RejectionReason  *string                   `json:"rejectionReason,omitempty"`
}

func (u StatusUpdate) validate() error {
	if u.Status != nil && !u.Status.Valid() {
		return apperrors.NewInvalidInputError(fmt.Sprintf("unknown status %q", *u.Status))
	}
	if u.Priority != nil && !u.Priority.Valid() {
		return apperrors.NewInvalidInputError(fmt.Sprintf("unknown priority %q", *u.Priority))
	}
	return nil
}

func (u StatusUpdate) historyReason() string {
	if u.RejectionReason != nil && *u.RejectionReason != "" {
		return *u.RejectionReason
	}
	if u.Notes != nil && *u.Notes != "" {
		return *u.Notes
	}
	return "Status updated"
}

// UpdateApplicationStatus applies a reviewer update. A status change stamps
// the date of the entered status and appends exactly one history row.
func (m *Manager) UpdateApplicationStatus(ctx context.Context, applicationID string, update StatusUpdate) (*models.Application, error) {
	if err := update.validate(); err != nil {
		return nil, err
	}

	var (
		updated  *models.Application
		previous models.ApplicationStatus
	)
	err := m.store.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		app, err := tx.LockApplication(ctx, applicationID)
		if err != nil {
			return notFound(err, apperrors.NewApplicationNotFoundError(applicationID))
		}
		previous = app.Status

		changed := update.Status != nil && *update.Status != app.Status
		if changed && app.Status == models.StatusCompleted {
			return apperrors.NewConflictError(fmt.Sprintf("application %s is completed", applicationID)).
				WithMetadata("applicationId", applicationID)
		}

		now := m.now().UTC()
		patch := ApplicationPatch{
			Notes:            update.Notes,
			Priority:         update.Priority,
			AssignedReviewer: update.AssignedReviewer,
			UpdatedAt:        now,
		}
		if changed {
			applyTransition(&patch, *update.Status, now)
			// The reason is stored only on entering rejected.
			if *update.Status == models.StatusRejected {
				patch.RejectionReason = update.RejectionReason
			}
		}

		updated, err = tx.UpdateApplication(ctx, applicationID, patch)
		if err != nil {
			return err
		}

		if changed {
			reason := update.historyReason()
			return m.appendHistory(ctx, tx, applicationID, &app.Status, *update.Status, reason, now)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if updated.Status != previous {
		metrics.RecordTransition(string(previous), string(updated.Status), sourceReviewer)
		m.logger.Info("application status updated", map[string]interface{}{
			"applicationId": applicationID,
			"oldStatus":     previous,
			"newStatus":     updated.Status,
		})
	}
	return updated, nil
}

// applyTransition sets the new status and the date column of the status entered.
func applyTransition(patch *ApplicationPatch, to models.ApplicationStatus, now time.Time) {
	patch.Status = &to
	stamp := now
	switch to {
	case models.StatusUnderReview:
		patch.ReviewStartDate = &stamp
	case models.StatusApproved:
		patch.ApprovalDate = &stamp
	case models.StatusRejected:
		patch.RejectionDate = &stamp
	case models.StatusCompleted:
		patch.CompletionDate = &stamp
	}
}

func (m *Manager) appendHistory(ctx context.Context, tx Tx, applicationID string, from *models.ApplicationStatus, to models.ApplicationStatus, reason string, at time.Time) error {
	var old *models.ApplicationStatus
	if from != nil {
		prev := *from
		old = &prev
	}
	return tx.AppendHistory(ctx, models.StatusHistory{
		ID:            m.newID(),
		ApplicationID: applicationID,
		OldStatus:     old,
		NewStatus:     to,
		Reason:        reason,
		CreatedAt:     at,
	})
}

func notFound(err error, typed *apperrors.StandardError) error {
	if errors.Is(err, ErrRecordNotFound) {
		return typed
	}
	return err
}
