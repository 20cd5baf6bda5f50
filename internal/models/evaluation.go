// internal/models/evaluation.go
package models

import "time"

const (
	CategoryInfrastructure = "Infrastructure"
	CategoryCompliance     = "Compliance"
	CategoryFinancial      = "Financial"
	CategoryLocation       = "Location"
	CategoryServices       = "Services"
	CategoryPartnership    = "Partnership"
	CategoryDocumentation  = "Documentation"
)

// EvaluationCriterion is an externally configured scoring rule.
type EvaluationCriterion struct {
	ID           string  `json:"id"`
	Category     string  `json:"category"`
	Subcategory  string  `json:"subcategory,omitempty"`
	CriteriaName string  `json:"criteriaName"`
	Description  string  `json:"description,omitempty"`
	MaxPoints    float64 `json:"maxPoints"`
	Weight       float64 `json:"weight"`
	IsActive     bool    `json:"isActive"`
}

// EvaluationScore is one persisted per-criterion result of a scoring run.
type EvaluationScore struct {
	ID            string    `json:"id"`
	ApplicationID string    `json:"applicationId"`
	CriteriaID    string    `json:"criteriaId,omitempty"`
	Category      string    `json:"category"`
	Subcategory   string    `json:"subcategory,omitempty"`
	MaxScore      float64   `json:"maxScore"`
	ActualScore   float64   `json:"actualScore"`
	Weight        float64   `json:"weight"`
	Comments      string    `json:"comments,omitempty"`
	EvaluatedBy   string    `json:"evaluatedBy,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

const (
	DocBusinessRegistration = "business_registration"
	DocMedicalLicense       = "medical_license"
	DocTaxCertificate       = "tax_certificate"
	DocInsuranceCertificate = "insurance_certificate"
	DocFacilityPhotos       = "facility_photos"
)

// RequiredDocumentTypes is the fixed submission checklist.
var RequiredDocumentTypes = []string{
	DocBusinessRegistration,
	DocMedicalLicense,
	DocTaxCertificate,
	DocInsuranceCertificate,
	DocFacilityPhotos,
}

type Document struct {
	ID            string    `json:"id"`
	ApplicationID string    `json:"applicationId"`
	DocumentType  string    `json:"documentType"`
	DocumentName  string    `json:"documentName,omitempty"`
	FilePath      string    `json:"filePath,omitempty"`
	Status        string    `json:"status,omitempty"`
	UploadedAt    time.Time `json:"uploadedAt"`
}
