// internal/models/notification.go
package models

import "time"

const (
	ChannelEmail = "email"
	ChannelSMS   = "sms"

	NotificationSent     = "sent"
	NotificationFailed   = "failed"
	NotificationDisabled = "disabled"
	NotificationSkipped  = "skipped"
)

// Notification records one delivery attempt on one channel.
type Notification struct {
	ID            string    `json:"id"`
	ApplicationID string    `json:"applicationId"`
	Channel       string    `json:"channel"`
	Type          string    `json:"type"` // decision status the message announces
	Recipient     string    `json:"recipient,omitempty"`
	Status        string    `json:"status"`
	MessageID     string    `json:"messageId,omitempty"`
	Error         string    `json:"error,omitempty"`
	SentAt        time.Time `json:"sentAt"`
}
