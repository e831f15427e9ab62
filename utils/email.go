package utils

import (
	"fmt"
	"strconv"

	"github.com/becoinhq/becoin-backend/config"
	"gopkg.in/gomail.v2"
)

// SendEmail sends an HTML email through the configured SMTP server.
func SendEmail(to, subject, body string) error {
	cfg := config.App
	if cfg == nil || cfg.SMTPHost == "" {
		return fmt.Errorf("smtp not configured")
	}

	port, err := strconv.Atoi(cfg.SMTPPort)
	if err != nil {
		port = 587
	}

	m := gomail.NewMessage()
	m.SetHeader("From", cfg.SMTPFrom)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	d := gomail.NewDialer(cfg.SMTPHost, port, cfg.SMTPUsername, cfg.SMTPPassword)
	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %v", err)
	}
	return nil
}

// SendReceiptEmail mails a movement receipt. Callers treat failures as
// best-effort: a lost mail never rolls back a committed ledger entry.
func SendReceiptEmail(to, subject, concept, amount, balance string) {
	body := fmt.Sprintf(`
		<h2>%s</h2>
		<p>%s</p>
		<p><b>Amount:</b> %s becoin</p>
		<p><b>Wallet balance:</b> %s becoin</p>`,
		subject, concept, amount, balance)

	if err := SendEmail(to, subject, body); err != nil {
		LogError("Failed to send receipt email to %s: %v", to, err)
	}
}
