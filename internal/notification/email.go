package notification

import (
	"bytes"
	"fmt"
	"net/smtp"
	"text/template"
	"time"

	"go.uber.org/zap"

	"github.com/smukkama/weather-monitor/internal/protocol"
	"github.com/smukkama/weather-monitor/pkg/config"
)

const alertTemplate = `
Temperature Alert
=================

City: {{.City}}
Current Temperature: {{printf "%.1f" .Temperature}} °C
Configured Threshold: {{printf "%.1f" .Threshold}} °C
Triggered At: {{.TriggeredAt.Format "2006-01-02 15:04:05 MST"}}

Description:
The temperature in {{.City}} has exceeded your configured threshold of
{{printf "%.1f" .Threshold}} °C for two consecutive observation cycles and
currently reads {{printf "%.1f" .Temperature}} °C.

---
Weather Monitor Notification System
`

// EmailNotifier sends threshold alert emails to the address configured on
// the triggering rule.
type EmailNotifier struct {
	config *config.SMTPConfig
	tmpl   *template.Template
	logger *zap.Logger
}

// NewEmailNotifier creates a new email notifier
func NewEmailNotifier(cfg *config.SMTPConfig, logger *zap.Logger) *EmailNotifier {
	return &EmailNotifier{
		config: cfg,
		tmpl:   template.Must(template.New("alert").Parse(alertTemplate)),
		logger: logger,
	}
}

// SendAlert renders and delivers one alert email.
func (e *EmailNotifier) SendAlert(alert *protocol.AlertMessage) error {
	subject := fmt.Sprintf("Temperature Alert - %s exceeded %.1f°C", alert.City, alert.Threshold)

	var body bytes.Buffer
	if err := e.tmpl.Execute(&body, alert); err != nil {
		return fmt.Errorf("failed to render alert template: %w", err)
	}

	return e.sendEmail(alert.Email, subject, body.String())
}

func (e *EmailNotifier) sendEmail(to, subject, body string) error {
	// Skip sending if SMTP is not configured
	if e.config.Username == "" || e.config.Password == "" {
		e.logger.Info("smtp not configured, skipping email",
			zap.String("to", to), zap.String("subject", subject))
		return nil
	}

	message := fmt.Sprintf("From: %s\r\n", e.config.From)
	message += fmt.Sprintf("To: %s\r\n", to)
	message += fmt.Sprintf("Subject: %s\r\n", subject)
	message += fmt.Sprintf("Date: %s\r\n", time.Now().Format(time.RFC1123Z))
	message += "\r\n"
	message += body

	auth := smtp.PlainAuth("", e.config.Username, e.config.Password, e.config.Host)

	addr := fmt.Sprintf("%s:%d", e.config.Host, e.config.Port)
	if err := smtp.SendMail(addr, auth, e.config.From, []string{to}, []byte(message)); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	e.logger.Info("alert email sent", zap.String("to", to), zap.String("subject", subject))
	return nil
}

// TestConnection tests the SMTP connection
func (e *EmailNotifier) TestConnection() error {
	if e.config.Username == "" {
		return fmt.Errorf("SMTP not configured")
	}

	addr := fmt.Sprintf("%s:%d", e.config.Host, e.config.Port)
	client, err := smtp.Dial(addr)
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	defer client.Close()

	return nil
}
