package mailer

import (
	"fmt"
	"net/smtp"

	"github.com/rs/zerolog"
)

type SMTPConfig struct {
	Enabled    bool
	Host       string
	Port       int
	From       string
	Password   string
	AdminEmail string
}

// SendOverdueNotice mails the desk admin about an item that is still out
// past the reminder window.
func SendOverdueNotice(log *zerolog.Logger, cfg SMTPConfig, eventName, itemLabel string, itemNumber int, volunteerName string) error {
	subject := fmt.Sprintf("%s #%d is overdue", itemLabel, itemNumber)
	body := fmt.Sprintf(
		"%s #%d signed out by %s has not been returned.\nEvent: %s\n\nPlease check in with them at the equipment desk.",
		itemLabel, itemNumber, volunteerName, eventName,
	)

	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s",
		cfg.From, cfg.AdminEmail, subject, body,
	)

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	auth := smtp.PlainAuth("", cfg.From, cfg.Password, cfg.Host)

	if err := smtp.SendMail(addr, auth, cfg.From, []string{cfg.AdminEmail}, []byte(msg)); err != nil {
		log.Warn().Msgf("failed to send overdue notice to %s: %v", cfg.AdminEmail, err)
		return fmt.Errorf("send email: %w", err)
	}

	log.Info().Msgf("overdue notice sent to %s (%s #%d)", cfg.AdminEmail, itemLabel, itemNumber)
	return nil
}
