// internal/workers/onboarding/submit-hospital-application/models.go
package submithospitalapplication

import "hospital-onboarding/internal/models"

type Input struct {
	Owner    models.HospitalOwner `json:"owner"`
	Hospital models.Hospital      `json:"hospital"`
}

type Output struct {
	ApplicationID     string `json:"applicationId"`
	ApplicationNumber string `json:"applicationNumber"`
	OwnerID           string `json:"ownerId"`
	HospitalID        string `json:"hospitalId"`
	Status            string `json:"status"`
}
