// internal/workers/onboarding/update-application-status/models.go
package updateapplicationstatus

import "hospital-onboarding/internal/models"

// Input fields left out of the job variables are not changed.
type Input struct {
	ApplicationID    string                    `json:"applicationId"`
	Status           *models.ApplicationStatus `json:"status,omitempty"`
	Notes            *string                   `json:"notes,omitempty"`
	Priority         *models.Priority          `json:"priority,omitempty"`
	AssignedReviewer *string                   `json:"assignedReviewer,omitempty"`
	RejectionReason  *string                   `json:"rejectionReason,omitempty"`
}

type Output struct {
	ApplicationID string `json:"applicationId"`
	Status        string `json:"status"`
	Priority      string `json:"priority"`
	UpdatedAt     string `json:"updatedAt"` // RFC 3339
}
