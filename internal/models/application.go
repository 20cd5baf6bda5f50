// internal/models/application.go
package models

import "time"

type ApplicationStatus string

const (
	StatusDraft            ApplicationStatus = "draft"
	StatusSubmitted        ApplicationStatus = "submitted"
	StatusUnderReview      ApplicationStatus = "under_review"
	StatusDocumentsPending ApplicationStatus = "documents_pending"
	StatusScoring          ApplicationStatus = "scoring"
	StatusApproved         ApplicationStatus = "approved"
	StatusRejected         ApplicationStatus = "rejected"
	StatusContractPending  ApplicationStatus = "contract_pending"
	StatusContractSigned   ApplicationStatus = "contract_signed"
	StatusCompleted        ApplicationStatus = "completed"
)

var validStatuses = map[ApplicationStatus]bool{
	StatusDraft:            true,
	StatusSubmitted:        true,
	StatusUnderReview:      true,
	StatusDocumentsPending: true,
	StatusScoring:          true,
	StatusApproved:         true,
	StatusRejected:         true,
	StatusContractPending:  true,
	StatusContractSigned:   true,
	StatusCompleted:        true,
}

func (s ApplicationStatus) Valid() bool {
	return validStatuses[s]
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityNormal, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// Application is the onboarding aggregate root. Optional columns are pointers
// so NULLs survive a round trip through the store.
type Application struct {
	ID                string            `json:"id"`
	ApplicationNumber string            `json:"applicationNumber"`
	OwnerID           *string           `json:"ownerId,omitempty"`
	HospitalID        *string           `json:"hospitalId,omitempty"`
	Status            ApplicationStatus `json:"status"`
	Priority          Priority          `json:"priority"`
	Notes             *string           `json:"notes,omitempty"`
	AssignedReviewer  *string           `json:"assignedReviewer,omitempty"`
	SubmissionDate    *time.Time        `json:"submissionDate,omitempty"`
	ReviewStartDate   *time.Time        `json:"reviewStartDate,omitempty"`
	ApprovalDate      *time.Time        `json:"approvalDate,omitempty"`
	RejectionDate     *time.Time        `json:"rejectionDate,omitempty"`
	RejectionReason   *string           `json:"rejectionReason,omitempty"`
	CompletionDate    *time.Time        `json:"completionDate,omitempty"`
	CreatedAt         time.Time         `json:"createdAt"`
	UpdatedAt         time.Time         `json:"updatedAt"`
}

// StatusHistory is one append-only audit row. OldStatus is nil for the
// submission entry.
type StatusHistory struct {
	ID            string             `json:"id"`
	ApplicationID string             `json:"applicationId"`
	OldStatus     *ApplicationStatus `json:"oldStatus,omitempty"`
	NewStatus     ApplicationStatus  `json:"newStatus"`
	Reason        string             `json:"reason"`
	CreatedAt     time.Time          `json:"createdAt"`
}
