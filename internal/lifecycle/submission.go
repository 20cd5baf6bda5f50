// internal/lifecycle/submission.go
package lifecycle

import (
	"context"
	"net/mail"
	"strconv"
	"strings"
	"time"

	apperrors "hospital-onboarding/internal/common/errors"
	"hospital-onboarding/internal/common/metrics"
	"hospital-onboarding/internal/models"
)

const (
	defaultCountry        = "Ghana"
	hospitalPendingStatus = "pending"
	submittedReason       = "Application submitted successfully"
)

type Submission struct {
	Owner    models.HospitalOwner `json:"owner"`
	Hospital models.Hospital      `json:"hospital"`
}

type SubmissionResult struct {
	Application *models.Application `json:"application"`
	OwnerID     string              `json:"ownerId"`
	HospitalID  string              `json:"hospitalId"`
}

func (s Submission) validate() error {
	var problems []string
	if !s.Owner.OwnerType.Valid() {
		problems = append(problems, "owner.ownerType")
	}
	if strings.TrimSpace(s.Owner.Name) == "" {
		problems = append(problems, "owner.name")
	}
	if _, err := mail.ParseAddress(s.Owner.Email); err != nil {
		problems = append(problems, "owner.email")
	}
	if strings.TrimSpace(s.Hospital.Name) == "" {
		problems = append(problems, "hospital.name")
	}
	if !s.Hospital.Type.Valid() {
		problems = append(problems, "hospital.type")
	}
	if s.Hospital.LicenseNumber == nil || *s.Hospital.LicenseNumber == "" {
		problems = append(problems, "hospital.licenseNumber")
	}
	if s.Hospital.BedCapacity < 0 || s.Hospital.StaffCount < 0 {
		problems = append(problems, "hospital capacity must not be negative")
	}

	if len(problems) > 0 {
		return apperrors.NewInvalidInputError("invalid fields: " + strings.Join(problems, ", "))
	}
	return nil
}

// SubmitApplication creates the owner, hospital and a submitted application
// together with its first history entry.
func (m *Manager) SubmitApplication(ctx context.Context, sub Submission) (*SubmissionResult, error) {
	if err := sub.validate(); err != nil {
		return nil, err
	}

	now := m.now().UTC()
	owner := sub.Owner
	owner.ID = m.newID()
	owner.CreatedAt = now
	if owner.Country == "" {
		owner.Country = defaultCountry
	}

	hospital := sub.Hospital
	hospital.ID = m.newID()
	hospital.OwnerID = owner.ID
	hospital.Code = referenceNumber("HOSP", now)
	hospital.Status = hospitalPendingStatus
	hospital.CreatedAt = now
	if hospital.Country == "" {
		hospital.Country = defaultCountry
	}

	app := &models.Application{
		ID:                m.newID(),
		ApplicationNumber: referenceNumber("APP", now),
		OwnerID:           &owner.ID,
		HospitalID:        &hospital.ID,
		Status:            models.StatusSubmitted,
		Priority:          models.PriorityNormal,
		SubmissionDate:    &now,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	err := m.store.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		if err := tx.CreateOwner(ctx, &owner); err != nil {
			return err
		}
		if err := tx.CreateHospital(ctx, &hospital); err != nil {
			return err
		}
		if err := tx.CreateApplication(ctx, app); err != nil {
			return err
		}
		return m.appendHistory(ctx, tx, app.ID, nil, models.StatusSubmitted, submittedReason, now)
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordTransition("", string(models.StatusSubmitted), sourceSubmit)
	m.logger.Info("application submitted", map[string]interface{}{
		"applicationId":     app.ID,
		"applicationNumber": app.ApplicationNumber,
		"hospitalId":        hospital.ID,
		"hospitalType":      hospital.Type,
	})

	return &SubmissionResult{Application: app, OwnerID: owner.ID, HospitalID: hospital.ID}, nil
}

// referenceNumber renders prefix-<unix millis in upper-case base 36>.
func referenceNumber(prefix string, at time.Time) string {
	return prefix + "-" + strings.ToUpper(strconv.FormatInt(at.UnixMilli(), 36))
}
