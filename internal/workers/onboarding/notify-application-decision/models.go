// internal/workers/onboarding/notify-application-decision/models.go
package notifyapplicationdecision

type Input struct {
	ApplicationID string `json:"applicationId"`
}

type Output struct {
	EmailStatus string `json:"emailStatus"`
	SMSStatus   string `json:"smsStatus"`
	NotifiedAt  string `json:"notifiedAt"`
}
