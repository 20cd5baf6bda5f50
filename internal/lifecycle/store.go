// internal/lifecycle/store.go
package lifecycle

import (
	"context"
	"errors"
	"time"

	"hospital-onboarding/internal/models"
)

// ErrRecordNotFound is returned by store methods when the addressed row
// does not exist. The manager turns it into a typed NotFound error.
var ErrRecordNotFound = errors.New("record not found")

// Store is the storage port the manager depends on. Reads outside a
// transaction go through Store; every multi-write operation runs inside
// WithinTx and sees only the Tx methods.
type Store interface {
	GetApplication(ctx context.Context, id string) (*models.Application, error)
	ListScores(ctx context.Context, applicationID string) ([]models.EvaluationScore, error)
	ListHistory(ctx context.Context, applicationID string) ([]models.StatusHistory, error)
	GetOwnerContact(ctx context.Context, applicationID string) (*models.OwnerContact, error)

	// WithinTx commits when fn returns nil and rolls back otherwise.
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

type Tx interface {
	// LockApplication reads the application and holds a row lock until the
	// transaction ends, serializing writers of the same application.
	LockApplication(ctx context.Context, id string) (*models.Application, error)
	GetHospital(ctx context.Context, id string) (*models.Hospital, error)
	ListDocuments(ctx context.Context, applicationID string) ([]models.Document, error)

	// ReplaceScores deletes every score row of the application and inserts scores.
	ReplaceScores(ctx context.Context, applicationID string, scores []models.EvaluationScore) error
	UpdateApplication(ctx context.Context, id string, patch ApplicationPatch) (*models.Application, error)
	AppendHistory(ctx context.Context, entry models.StatusHistory) error

	CreateOwner(ctx context.Context, owner *models.HospitalOwner) error
	CreateHospital(ctx context.Context, hospital *models.Hospital) error
	CreateApplication(ctx context.Context, app *models.Application) error

	GetContractParty(ctx context.Context, applicationID string) (*models.ContractParty, error)
	GetContractByApplication(ctx context.Context, applicationID string) (*models.Contract, error)
	CreateContract(ctx context.Context, contract *models.Contract) error
}

// CriteriaSource yields the active evaluation criteria.
type CriteriaSource interface {
	ActiveCriteria(ctx context.Context) ([]models.EvaluationCriterion, error)
}

// ApplicationPatch lists the columns an update writes. Nil fields are left
// untouched; UpdatedAt is always written.
type ApplicationPatch struct {
	Status           *models.ApplicationStatus
	Notes            *string
	Priority         *models.Priority
	AssignedReviewer *string
	ReviewStartDate  *time.Time
	ApprovalDate     *time.Time
	RejectionDate    *time.Time
	RejectionReason  *string
	CompletionDate   *time.Time
	UpdatedAt        time.Time
}

// Apply writes the patch onto app. Stores that do not compute the updated
// row themselves use it.
func (p ApplicationPatch) Apply(app *models.Application) {
	if p.Status != nil {
		app.Status = *p.Status
	}
	if p.Notes != nil {
		app.Notes = p.Notes
	}
	if p.Priority != nil {
		app.Priority = *p.Priority
	}
	if p.AssignedReviewer != nil {
		app.AssignedReviewer = p.AssignedReviewer
	}
	if p.ReviewStartDate != nil {
		app.ReviewStartDate = p.ReviewStartDate
	}
	if p.ApprovalDate != nil {
		app.ApprovalDate = p.ApprovalDate
	}
	if p.RejectionDate != nil {
		app.RejectionDate = p.RejectionDate
	}
	if p.RejectionReason != nil {
		app.RejectionReason = p.RejectionReason
	}
	if p.CompletionDate != nil {
		app.CompletionDate = p.CompletionDate
	}
	app.UpdatedAt = p.UpdatedAt
}
