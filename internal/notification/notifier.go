// internal/notification/notifier.go
package notification

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"hospital-onboarding/internal/common/config"
	apperrors "hospital-onboarding/internal/common/errors"
	"hospital-onboarding/internal/common/logger"
	"hospital-onboarding/internal/common/metrics"
	"hospital-onboarding/internal/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	snstypes "github.com/aws/aws-sdk-go-v2/service/sns/types"
	"github.com/google/uuid"
	"github.com/sony/gobreaker/v2"
)

// SESAPI is the part of the SES client used for email.
type SESAPI interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// SNSAPI is the part of the SNS client used for SMS.
type SNSAPI interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// Receipt reports what happened on each channel.
type Receipt struct {
	Email      models.Notification `json:"email"`
	SMS        models.Notification `json:"sms"`
	NotifiedAt time.Time           `json:"notifiedAt"`
}

type Notifier struct {
	cfg    config.NotificationConfig
	ses    SESAPI
	sns    SNSAPI
	email  *gobreaker.CircuitBreaker[string]
	sms    *gobreaker.CircuitBreaker[string]
	logger logger.Logger
	now    func() time.Time
}

func NewNotifier(cfg config.NotificationConfig, sesClient SESAPI, snsClient SNSAPI, log logger.Logger) *Notifier {
	log = log.WithFields(map[string]interface{}{"component": "notifier"})
	return &Notifier{
		cfg:    cfg,
		ses:    sesClient,
		sns:    snsClient,
		email:  newBreaker(models.ChannelEmail, cfg.Breaker, log),
		sms:    newBreaker(models.ChannelSMS, cfg.Breaker, log),
		logger: log,
		now:    time.Now,
	}
}

func newBreaker(channel string, cfg config.BreakerConfig, log logger.Logger) *gobreaker.CircuitBreaker[string] {
	maxFailures := cfg.MaxFailures
	if maxFailures == 0 {
		maxFailures = 5
	}
	return gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
		Name:        channel,
		MaxRequests: 1,
		Timeout:     config.GetDuration(cfg.OpenTimeout),
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state change", map[string]interface{}{
				"channel": name,
				"from":    from.String(),
				"to":      to.String(),
			})
		},
	})
}

// NotifyDecision tells the owner about the application's current status.
// It fails only when every attempted channel failed, so the job is retried
// without resending a message that already went out.
func (n *Notifier) NotifyDecision(ctx context.Context, contact *models.OwnerContact) (*Receipt, error) {
	now := n.now().UTC()
	receipt := &Receipt{
		Email:      n.record(contact, models.ChannelEmail, contact.Email, now),
		SMS:        n.record(contact, models.ChannelSMS, contact.Phone, now),
		NotifiedAt: now,
	}

	tmpl, ok := decisionTemplates[contact.Status]
	if !ok {
		receipt.Email.Status = models.NotificationSkipped
		receipt.SMS.Status = models.NotificationSkipped
		n.count(receipt)
		return receipt, nil
	}

	data := templateData(contact)
	subject := renderTemplate(tmpl.subject, data)
	body := renderTemplate(tmpl.body, data)

	var failures []error
	switch {
	case !n.cfg.Email.Enabled || n.ses == nil:
		receipt.Email.Status = models.NotificationDisabled
	case contact.Email == "":
		receipt.Email.Status = models.NotificationSkipped
	default:
		id, err := n.email.Execute(func() (string, error) {
			return n.sendEmail(ctx, contact.Email, subject, body)
		})
		n.settle(&receipt.Email, id, err)
		if err != nil {
			failures = append(failures, err)
		}
	}

	switch {
	case !n.cfg.SMS.Enabled || n.sns == nil:
		receipt.SMS.Status = models.NotificationDisabled
	case contact.Phone == "":
		receipt.SMS.Status = models.NotificationSkipped
	default:
		id, err := n.sms.Execute(func() (string, error) {
			return n.sendSMS(ctx, contact.Phone, fmt.Sprintf("%s: %s", subject, tmpl.sms(data)))
		})
		n.settle(&receipt.SMS, id, err)
		if err != nil {
			failures = append(failures, err)
		}
	}

	n.count(receipt)

	if len(failures) > 0 && receipt.Email.Status != models.NotificationSent && receipt.SMS.Status != models.NotificationSent {
		return receipt, apperrors.NewNotificationSendFailedError(channelsOf(receipt), errors.Join(failures...))
	}
	return receipt, nil
}

func (n *Notifier) record(contact *models.OwnerContact, channel, recipient string, at time.Time) models.Notification {
	return models.Notification{
		ID:            uuid.NewString(),
		ApplicationID: contact.ApplicationID,
		Channel:       channel,
		Type:          string(contact.Status),
		Recipient:     recipient,
		SentAt:        at,
	}
}

func (n *Notifier) settle(rec *models.Notification, messageID string, err error) {
	if err != nil {
		rec.Status = models.NotificationFailed
		rec.Error = err.Error()
		n.logger.Error("notification send failed", map[string]interface{}{
			"channel":       rec.Channel,
			"applicationId": rec.ApplicationID,
			"breakerOpen":   errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests),
			"error":         err.Error(),
		})
		return
	}
	rec.Status = models.NotificationSent
	rec.MessageID = messageID
}

func (n *Notifier) count(r *Receipt) {
	metrics.NotificationsSent.WithLabelValues(models.ChannelEmail, r.Email.Status).Inc()
	metrics.NotificationsSent.WithLabelValues(models.ChannelSMS, r.SMS.Status).Inc()
}

func (n *Notifier) sendEmail(ctx context.Context, to, subject, body string) (string, error) {
	out, err := n.ses.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject)},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(body)},
			},
		},
		Source: aws.String(n.cfg.Email.FromEmail),
	})
	if err != nil {
		return "", err
	}
	return aws.ToString(out.MessageId), nil
}

func (n *Notifier) sendSMS(ctx context.Context, to, message string) (string, error) {
	input := &sns.PublishInput{
		PhoneNumber: aws.String(to),
		Message:     aws.String(message),
	}
	if n.cfg.SMS.SenderID != "" {
		input.MessageAttributes = map[string]snstypes.MessageAttributeValue{
			"AWS.SNS.SMS.SenderID": {DataType: aws.String("String"), StringValue: aws.String(n.cfg.SMS.SenderID)},
		}
	}
	out, err := n.sns.Publish(ctx, input)
	if err != nil {
		return "", err
	}
	return aws.ToString(out.MessageId), nil
}

func channelsOf(r *Receipt) string {
	var failed []string
	if r.Email.Status == models.NotificationFailed {
		failed = append(failed, models.ChannelEmail)
	}
	if r.SMS.Status == models.NotificationFailed {
		failed = append(failed, models.ChannelSMS)
	}
	return strings.Join(failed, ",")
}
