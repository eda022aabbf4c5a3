// internal/notify/service.go
package notify

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	sestypes "github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"

	"ferreteria-gateway/internal/common/config"
	stderrors "ferreteria-gateway/internal/common/errors"
	"ferreteria-gateway/internal/common/logger"
)

// EmailSender matches the SES client surface the service needs.
type EmailSender interface {
	SendEmail(ctx context.Context, input *ses.SendEmailInput) (*ses.SendEmailOutput, error)
}

// SMSPublisher matches the SNS client surface the service needs.
type SMSPublisher interface {
	Publish(ctx context.Context, input *sns.PublishInput) (*sns.PublishOutput, error)
}

// Service delivers operational alerts. The log channel is always on;
// email and SMS are individually enabled from configuration. A failed
// delivery on one channel never blocks the others.
type Service struct {
	cfg    config.NotificationConfig
	email  EmailSender
	sms    SMSPublisher
	logger logger.Logger
}

func NewService(cfg config.NotificationConfig, email EmailSender, sms SMSPublisher, log logger.Logger) *Service {
	return &Service{
		cfg:    cfg,
		email:  email,
		sms:    sms,
		logger: log.With(map[string]interface{}{"component": "notify"}),
	}
}

// SendAlert fans the alert out to every enabled channel and reports
// per-channel delivery status.
func (s *Service) SendAlert(ctx context.Context, subject, message string) map[string]string {
	status := map[string]string{}

	s.logger.Warn(subject, map[string]interface{}{"alert": message})
	status["log"] = "sent"

	if s.cfg.AWS.SES.Enabled && s.email != nil {
		if err := s.sendEmail(ctx, subject, message); err != nil {
			s.logger.WithError(err).Error("email alert failed", nil)
			status["email"] = "failed"
		} else {
			status["email"] = "sent"
		}
	} else {
		status["email"] = "disabled"
	}

	if s.cfg.AWS.SNS.Enabled && s.sms != nil {
		if err := s.sendSMS(ctx, message); err != nil {
			s.logger.WithError(err).Error("sms alert failed", nil)
			status["sms"] = "failed"
		} else {
			status["sms"] = "sent"
		}
	} else {
		status["sms"] = "disabled"
	}

	return status
}

func (s *Service) sendEmail(ctx context.Context, subject, body string) error {
	_, err := s.email.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &sestypes.Destination{
			ToAddresses: []string{s.cfg.AdminEmail},
		},
		Message: &sestypes.Message{
			Subject: &sestypes.Content{Data: aws.String(subject)},
			Body: &sestypes.Body{
				Text: &sestypes.Content{Data: aws.String(body)},
			},
		},
		Source: aws.String(s.cfg.AWS.SES.FromEmail),
	})
	if err != nil {
		return stderrors.NewNotificationSendFailedError("email", err)
	}
	return nil
}

func (s *Service) sendSMS(ctx context.Context, message string) error {
	_, err := s.sms.Publish(ctx, &sns.PublishInput{
		PhoneNumber: aws.String(s.cfg.AdminPhone),
		Message:     aws.String(message),
	})
	if err != nil {
		return stderrors.NewNotificationSendFailedError("sms", err)
	}
	return nil
}
