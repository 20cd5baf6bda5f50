// internal/lifecycle/contract.go
package lifecycle

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"text/template"
	"time"

	apperrors "hospital-onboarding/internal/common/errors"
	"hospital-onboarding/internal/common/metrics"
	"hospital-onboarding/internal/models"
)

const (
	contractDraftStatus   = "draft"
	contractTermYears     = 2
	defaultRevenueShare   = 20.0
	defaultBillingCycle   = "monthly"
	contractPendingReason = "Contract generated and pending signature"
)

type ContractOutcome struct {
	Contract          *models.Contract         `json:"contract"`
	Created           bool                     `json:"created"`
	ApplicationStatus models.ApplicationStatus `json:"applicationStatus"`
}

// GenerateContract drafts the management agreement for an approved
// application and moves it to contract_pending. A second call returns the
// existing contract unchanged.
func (m *Manager) GenerateContract(ctx context.Context, applicationID string) (*ContractOutcome, error) {
	var outcome *ContractOutcome
	err := m.store.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		app, err := tx.LockApplication(ctx, applicationID)
		if err != nil {
			return notFound(err, apperrors.NewApplicationNotFoundError(applicationID))
		}

		existing, err := tx.GetContractByApplication(ctx, applicationID)
		switch {
		case err == nil:
			outcome = &ContractOutcome{Contract: existing, ApplicationStatus: app.Status}
			return nil
		case !errors.Is(err, ErrRecordNotFound):
			return err
		}

		if app.Status != models.StatusApproved {
			return apperrors.NewConflictError(fmt.Sprintf(
				"only approved applications can generate contracts, application %s is %s", applicationID, app.Status))
		}

		party, err := tx.GetContractParty(ctx, applicationID)
		if err != nil {
			return notFound(err, apperrors.NewHospitalNotFoundError(applicationID))
		}

		now := m.now().UTC()
		contract, err := m.draftContract(party, now)
		if err != nil {
			return err
		}
		if err := tx.CreateContract(ctx, contract); err != nil {
			return err
		}

		to := models.StatusContractPending
		if _, err := tx.UpdateApplication(ctx, applicationID, ApplicationPatch{Status: &to, UpdatedAt: now}); err != nil {
			return err
		}
		if err := m.appendHistory(ctx, tx, applicationID, &app.Status, to, contractPendingReason, now); err != nil {
			return err
		}

		outcome = &ContractOutcome{Contract: contract, Created: true, ApplicationStatus: to}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if outcome.Created {
		metrics.RecordTransition(string(models.StatusApproved), string(models.StatusContractPending), sourceContract)
		m.logger.Info("contract generated", map[string]interface{}{
			"applicationId":  applicationID,
			"contractNumber": outcome.Contract.ContractNumber,
		})
	}
	return outcome, nil
}

func (m *Manager) draftContract(party *models.ContractParty, now time.Time) (*models.Contract, error) {
	share := defaultRevenueShare
	if party.RevenueSharePercentage != nil && *party.RevenueSharePercentage > 0 {
		share = *party.RevenueSharePercentage
	}
	cycle := defaultBillingCycle
	if party.BillingCycle != nil && *party.BillingCycle != "" {
		cycle = *party.BillingCycle
	}

	end := now.AddDate(contractTermYears, 0, 0)
	content, err := renderAgreement(agreementData{
		Party:        party,
		EffectiveOn:  now.Format("January 2, 2006"),
		RevenueShare: share,
		OwnerShare:   100 - share,
		BillingCycle: cycle,
	})
	if err != nil {
		return nil, err
	}

	return &models.Contract{
		ID:             m.newID(),
		ApplicationID:  party.ApplicationID,
		ContractNumber: referenceNumber("CONT", now),
		Version:        1,
		Content:        content,
		Terms: map[string]interface{}{
			"revenue_share": share,
			"billing_cycle": cycle,
			"initial_term":  "2 years",
			"renewal_term":  "1 year",
		},
		RenewalTerms: map[string]interface{}{
			"automatic":     true,
			"notice_period": "90 days",
			"renewal_term":  "1 year",
		},
		StartDate: now,
		EndDate:   end,
		Status:    contractDraftStatus,
		CreatedAt: now,
	}, nil
}

type agreementData struct {
	Party        *models.ContractParty
	EffectiveOn  string
	RevenueShare float64
	OwnerShare   float64
	BillingCycle string
}

var agreementTemplate = template.Must(template.New("agreement").Parse(`HOSPITAL MANAGEMENT SERVICES AGREEMENT

This Agreement is entered into as of {{.EffectiveOn}} ("Effective Date")

BETWEEN:

GrandPro Hospital Management Services Organization (GMSO)
("GMSO" or "Manager")

AND:

{{.Party.OwnerName}}
{{- with .Party.CompanyName}}
Operating as: {{.}}{{end}}
{{.Party.OwnerAddress}}, {{.Party.OwnerCity}}, {{.Party.OwnerState}}, {{.Party.OwnerCountry}}
Email: {{.Party.OwnerEmail}}
Phone: {{.Party.OwnerPhone}}
("Hospital Owner" or "Owner")

For the management and operation of:
{{.Party.HospitalName}}
{{.Party.HospitalAddress}}, {{.Party.HospitalCity}}, {{.Party.HospitalState}}
License Number: {{with .Party.LicenseNumber}}{{.}}{{else}}pending{{end}}
("Hospital" or "Facility")

1. TERM
Initial Term: 2 years from the Effective Date
Renewal: Automatic renewal for successive 1-year periods unless terminated

2. REVENUE SHARING
- GMSO Management Fee: {{printf "%.0f" .RevenueShare}}% of Net Revenue
- Payment Terms: {{.BillingCycle}} reconciliation and payment
- Owner retains {{printf "%.0f" .OwnerShare}}% of Net Revenue

3. TERMINATION
Either party may terminate with 90 days written notice for material breach
not cured within 30 days, insolvency, or loss of required licenses.

Application Reference: {{.Party.ApplicationNumber}}
`))

func renderAgreement(data agreementData) (string, error) {
	var buf bytes.Buffer
	if err := agreementTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render agreement: %w", err)
	}
	return buf.String(), nil
}
