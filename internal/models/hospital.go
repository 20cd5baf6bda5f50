// internal/models/hospital.go
package models

import "time"

type HospitalType string

const (
	HospitalGeneral          HospitalType = "general"
	HospitalSpecialized      HospitalType = "specialized"
	HospitalClinic           HospitalType = "clinic"
	HospitalDiagnosticCenter HospitalType = "diagnostic_center"
	HospitalMaternity        HospitalType = "maternity"
)

func (t HospitalType) Valid() bool {
	switch t {
	case HospitalGeneral, HospitalSpecialized, HospitalClinic, HospitalDiagnosticCenter, HospitalMaternity:
		return true
	}
	return false
}

type OwnerType string

const (
	OwnerIndividual OwnerType = "individual"
	OwnerCompany    OwnerType = "company"
	OwnerGovernment OwnerType = "government"
	OwnerNGO        OwnerType = "ngo"
)

func (t OwnerType) Valid() bool {
	switch t {
	case OwnerIndividual, OwnerCompany, OwnerGovernment, OwnerNGO:
		return true
	}
	return false
}

type HospitalOwner struct {
	ID                 string    `json:"id"`
	OwnerType          OwnerType `json:"ownerType"`
	Name               string    `json:"name"`
	Email              string    `json:"email"`
	Phone              string    `json:"phone"`
	CompanyName        *string   `json:"companyName,omitempty"`
	RegistrationNumber *string   `json:"registrationNumber,omitempty"`
	TaxID              *string   `json:"taxId,omitempty"`
	Address            string    `json:"address"`
	City               string    `json:"city"`
	State              string    `json:"state"`
	Country            string    `json:"country"`
	PostalCode         *string   `json:"postalCode,omitempty"`
	BankName           *string   `json:"bankName,omitempty"`
	AccountNumber      *string   `json:"accountNumber,omitempty"`
	PaymentMethod      *string   `json:"paymentMethod,omitempty"`
	CreatedAt          time.Time `json:"createdAt"`
}

// Hospital is the entity under evaluation. List fields are stored as JSONB.
type Hospital struct {
	ID                     string       `json:"id"`
	OwnerID                string       `json:"ownerId"`
	Code                   string       `json:"code"`
	Name                   string       `json:"name"`
	Type                   HospitalType `json:"type"`
	Status                 string       `json:"status"`
	Address                string       `json:"address"`
	City                   string       `json:"city"`
	State                  string       `json:"state"`
	Country                string       `json:"country"`
	PostalCode             *string      `json:"postalCode,omitempty"`
	Phone                  string       `json:"phone"`
	Email                  string       `json:"email"`
	Website                *string      `json:"website,omitempty"`
	BedCapacity            int          `json:"bedCapacity"`
	StaffCount             int          `json:"staffCount"`
	Departments            []string     `json:"departments"`
	ServicesOffered        []string     `json:"servicesOffered"`
	LicenseNumber          *string      `json:"licenseNumber,omitempty"`
	LicenseExpiry          *time.Time   `json:"licenseExpiry,omitempty"`
	Accreditations         []string     `json:"accreditations"`
	InsurancePartners      []string     `json:"insurancePartners"`
	RevenueSharePercentage *float64     `json:"revenueSharePercentage,omitempty"`
	BillingCycle           *string      `json:"billingCycle,omitempty"`
	CreatedAt              time.Time    `json:"createdAt"`
}

// OwnerContact is what decision notifications need about an application.
type OwnerContact struct {
	ApplicationID     string            `json:"applicationId"`
	ApplicationNumber string            `json:"applicationNumber"`
	Status            ApplicationStatus `json:"status"`
	Priority          Priority          `json:"priority"`
	OwnerName         string            `json:"ownerName"`
	Email             string            `json:"email"`
	Phone             string            `json:"phone"`
	HospitalName      string            `json:"hospitalName"`
	RejectionReason   *string           `json:"rejectionReason,omitempty"`
}
