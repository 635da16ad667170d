package mailer

import (
	"fmt"

	"github.com/Abdurahmanit/realestate-listings/internal/platform/logger"
	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

type Mailer interface {
	SendListingCreatedEmail(toEmail, listingAddress string) error
}

type sender interface {
	DialAndSend(m ...*gomail.Message) error
}

type SMTPMailer struct {
	from   string
	dialer sender
	logger *logger.Logger
}

func NewSMTPMailer(host string, port int, username, password, from string, log *logger.Logger) *SMTPMailer {
	return &SMTPMailer{
		from:   from,
		dialer: gomail.NewDialer(host, port, username, password),
		logger: log.Named("SMTPMailer"),
	}
}

func (m *SMTPMailer) SendListingCreatedEmail(toEmail, listingAddress string) error {
	msg := listingCreatedMessage(m.from, toEmail, listingAddress)
	if err := m.dialer.DialAndSend(msg); err != nil {
		m.logger.Error("failed to send listing created email", zap.String("to", toEmail), zap.Error(err))
		return fmt.Errorf("send email to %s: %w", toEmail, err)
	}
	m.logger.Info("listing created email sent", zap.String("to", toEmail))
	return nil
}

func listingCreatedMessage(from, to, listingAddress string) *gomail.Message {
	msg := gomail.NewMessage()
	msg.SetHeader("From", from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", "New Listing Created")
	msg.SetBody("text/plain", fmt.Sprintf("Your listing '%s' has been created successfully.", listingAddress))
	return msg
}
