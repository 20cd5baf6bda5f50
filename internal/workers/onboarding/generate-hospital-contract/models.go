// internal/workers/onboarding/generate-hospital-contract/models.go
package generatehospitalcontract

type Input struct {
	ApplicationID string `json:"applicationId"`
}

type Output struct {
	ContractID        string `json:"contractId"`
	ContractNumber    string `json:"contractNumber"`
	ContractStatus    string `json:"contractStatus"`
	ApplicationStatus string `json:"applicationStatus"`
	Created           bool   `json:"created"` // false when the contract already existed
}
