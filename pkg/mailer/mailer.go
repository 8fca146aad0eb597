package mailer

import (
	"fmt"

	mail "github.com/go-mail/mail"
	"go.uber.org/zap"

	"github.com/badurubalaji/msls-sub015/internal/model"
	"github.com/badurubalaji/msls-sub015/pkg/config"
	"github.com/badurubalaji/msls-sub015/pkg/logger"
)

// Mailer sends transactional notifications over SMTP. Delivery failures
// are logged and reported, never escalated into request failures.
type Mailer struct {
	dialer *mail.Dialer
	from   string
}

// New creates a Mailer from SMTP configuration
func New(cfg *config.SMTPConfig) *Mailer {
	return &Mailer{
		dialer: mail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
	}
}

// Send delivers a plain-text message
func (m *Mailer) Send(to, subject, body string) error {
	msg := mail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)

	if err := m.dialer.DialAndSend(msg); err != nil {
		logger.GetLogger().Warn("Failed to send email",
			zap.String("to", to),
			zap.String("subject", subject),
			zap.Error(err))
		return err
	}
	return nil
}

// SendAdmissionDecision notifies an applicant about the outcome of their
// application for the given school.
func (m *Mailer) SendAdmissionDecision(a *model.Admission, schoolName string) error {
	var subject, body string
	switch a.Status {
	case model.AdmissionStatusAccepted:
		subject = fmt.Sprintf("Admission accepted - %s", schoolName)
		body = fmt.Sprintf("Dear %s,\n\nYour admission application for class %s (%s) has been accepted.\n\n%s",
			a.ApplicantName, a.DesiredClass, a.AcademicYear, a.DecisionNote)
	case model.AdmissionStatusRejected:
		subject = fmt.Sprintf("Admission decision - %s", schoolName)
		body = fmt.Sprintf("Dear %s,\n\nWe are sorry to inform you that your admission application for class %s (%s) was not successful.\n\n%s",
			a.ApplicantName, a.DesiredClass, a.AcademicYear, a.DecisionNote)
	default:
		return nil
	}
	return m.Send(a.Email, subject, body)
}
