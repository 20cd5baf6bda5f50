// internal/models/contract.go
package models

import "time"

type Contract struct {
	ID             string                 `json:"id"`
	ApplicationID  string                 `json:"applicationId"`
	ContractNumber string                 `json:"contractNumber"`
	Version        int                    `json:"version"`
	Content        string                 `json:"content"`
	Terms          map[string]interface{} `json:"terms"`
	RenewalTerms   map[string]interface{} `json:"renewalTerms"`
	StartDate      time.Time              `json:"startDate"`
	EndDate        time.Time              `json:"endDate"`
	Status         string                 `json:"status"`
	CreatedAt      time.Time              `json:"createdAt"`
}

// ContractParty is the joined owner and hospital data a contract is drafted from.
type ContractParty struct {
	ApplicationID          string            `json:"applicationId"`
	ApplicationNumber      string            `json:"applicationNumber"`
	Status                 ApplicationStatus `json:"status"`
	OwnerName              string            `json:"ownerName"`
	OwnerEmail             string            `json:"ownerEmail"`
	OwnerPhone             string            `json:"ownerPhone"`
	CompanyName            *string           `json:"companyName,omitempty"`
	OwnerAddress           string            `json:"ownerAddress"`
	OwnerCity              string            `json:"ownerCity"`
	OwnerState             string            `json:"ownerState"`
	OwnerCountry           string            `json:"ownerCountry"`
	HospitalName           string            `json:"hospitalName"`
	HospitalAddress        string            `json:"hospitalAddress"`
	HospitalCity           string            `json:"hospitalCity"`
	HospitalState          string            `json:"hospitalState"`
	LicenseNumber          *string           `json:"licenseNumber,omitempty"`
	RevenueSharePercentage *float64          `json:"revenueSharePercentage,omitempty"`
	BillingCycle           *string           `json:"billingCycle,omitempty"`
}
