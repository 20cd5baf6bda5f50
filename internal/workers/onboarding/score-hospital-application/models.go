// internal/workers/onboarding/score-hospital-application/models.go
package scorehospitalapplication

import "hospital-onboarding/internal/scoring"

type Input struct {
	ApplicationID string `json:"applicationId"`
}

type Output struct {
	TotalScore       float64          `json:"totalScore"`
	MaxPossibleScore float64          `json:"maxPossibleScore"`
	Percentage       float64          `json:"percentage"`
	Recommendation   string           `json:"recommendation"`
	PreviousStatus   string           `json:"previousStatus"`
	NewStatus        string           `json:"newStatus"`
	Details          []scoring.Detail `json:"details"`
}
