// internal/lifecycle/queries.go
package lifecycle

import (
	"context"
	"fmt"

	apperrors "hospital-onboarding/internal/common/errors"
	"hospital-onboarding/internal/models"
	"hospital-onboarding/internal/scoring"
)

// ScoreSummary recomputes totals and the recommendation from the stored
// scores. It returns nil when the application was never scored.
func (m *Manager) ScoreSummary(ctx context.Context, applicationID string) (*scoring.Summary, error) {
	if _, err := m.store.GetApplication(ctx, applicationID); err != nil {
		return nil, notFound(err, apperrors.NewApplicationNotFoundError(applicationID))
	}
	scores, err := m.store.ListScores(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	return scoring.Summarize(scores), nil
}

// History returns the status history in the order it was written.
func (m *Manager) History(ctx context.Context, applicationID string) ([]models.StatusHistory, error) {
	if _, err := m.store.GetApplication(ctx, applicationID); err != nil {
		return nil, notFound(err, apperrors.NewApplicationNotFoundError(applicationID))
	}
	return m.store.ListHistory(ctx, applicationID)
}

// OwnerContact returns who to notify about an application's decision.
func (m *Manager) OwnerContact(ctx context.Context, applicationID string) (*models.OwnerContact, error) {
	contact, err := m.store.GetOwnerContact(ctx, applicationID)
	if err != nil {
		return nil, notFound(err, apperrors.NewApplicationNotFoundError(applicationID))
	}
	return contact, nil
}

// ReplayStatus folds the history into the status it ends in. Every entry
// after the first must start where the previous one ended.
func ReplayStatus(history []models.StatusHistory) (models.ApplicationStatus, error) {
	var current models.ApplicationStatus
	for i, entry := range history {
		if i > 0 {
			if entry.OldStatus == nil || *entry.OldStatus != current {
				return "", fmt.Errorf("history entry %d (%s) does not continue from %s", i, entry.ID, current)
			}
		}
		current = entry.NewStatus
	}
	return current, nil
}
