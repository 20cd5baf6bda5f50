// internal/notification/templates.go
package notification

import (
	"regexp"

	"hospital-onboarding/internal/models"
)

type decisionTemplate struct {
	subject string
	body    string
	sms     func(data map[string]string) string
}

var decisionTemplates = map[models.ApplicationStatus]decisionTemplate{
	models.StatusApproved: {
		subject: "Application {{applicationNumber}} approved",
		body: `Dear {{ownerName}},

We are pleased to inform you that the onboarding application for {{hospitalName}} ({{applicationNumber}}) has been approved.

Our partnerships team will share the management agreement with you shortly.

GrandPro HMSO Onboarding`,
		sms: func(d map[string]string) string {
			return renderTemplate("{{hospitalName}} has been approved. Your agreement will follow by email.", d)
		},
	},
	models.StatusRejected: {
		subject: "Application {{applicationNumber}} decision",
		body: `Dear {{ownerName}},

After evaluation, the onboarding application for {{hospitalName}} ({{applicationNumber}}) was not approved.

Reason: {{rejectionReason}}

You may reapply once the points above have been addressed.

GrandPro HMSO Onboarding`,
		sms: func(d map[string]string) string {
			return renderTemplate("{{hospitalName}} was not approved. Details have been sent by email.", d)
		},
	},
	models.StatusUnderReview: {
		subject: "Application {{applicationNumber}} under review",
		body: `Dear {{ownerName}},

The onboarding application for {{hospitalName}} ({{applicationNumber}}) has been scored and is now with a reviewer.

We will contact you once a decision has been made.

GrandPro HMSO Onboarding`,
		sms: func(d map[string]string) string {
			return renderTemplate("{{hospitalName}} is under review. We will be in touch soon.", d)
		},
	},
	models.StatusContractPending: {
		subject: "Agreement ready for {{hospitalName}}",
		body: `Dear {{ownerName}},

The management agreement for {{hospitalName}} ({{applicationNumber}}) is ready for your signature.

GrandPro HMSO Onboarding`,
		sms: func(d map[string]string) string {
			return renderTemplate("The agreement for {{hospitalName}} is ready to sign.", d)
		},
	},
}

func templateData(contact *models.OwnerContact) map[string]string {
	reason := "not specified"
	if contact.RejectionReason != nil && *contact.RejectionReason != "" {
		reason = *contact.RejectionReason
	}
	return map[string]string{
		"ownerName":         contact.OwnerName,
		"hospitalName":      contact.HospitalName,
		"applicationNumber": contact.ApplicationNumber,
		"status":            string(contact.Status),
		"rejectionReason":   reason,
	}
}

var placeholder = regexp.MustCompile(`\{\{(\w+)\}\}`)

// renderTemplate fills {{key}} placeholders of tmpl in one pass. Keys with
// no value render empty. Values are inserted verbatim and never rescanned.
func renderTemplate(tmpl string, data map[string]string) string {
	return placeholder.ReplaceAllStringFunc(tmpl, func(m string) string {
		return data[m[2:len(m)-2]]
	})
}
