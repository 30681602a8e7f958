package service

import (
	"fmt"
	"net/smtp"
	"strings"

	"github.com/rs/zerolog/log"
)

// Mailer sends transactional auth emails over SMTP. When disabled, messages
// are logged instead of delivered, which keeps local development working
// without an SMTP server.
type Mailer struct {
	host     string
	port     int
	username string
	password string
	from     string
	disabled bool
}

func NewMailer(host string, port int, username, password, from string, disabled bool) *Mailer {
	return &Mailer{
		host:     host,
		port:     port,
		username: username,
		password: password,
		from:     from,
		disabled: disabled,
	}
}

func (m *Mailer) send(to, subject, body string) error {
	if m.disabled || m.host == "" {
		log.Info().
			Str("to", to).
			Str("subject", subject).
			Msg("mail delivery disabled, skipping send")
		return nil
	}

	msg := strings.Join([]string{
		"From: " + m.from,
		"To: " + to,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"utf-8\"",
		"",
		body,
	}, "\r\n")

	addr := fmt.Sprintf("%s:%d", m.host, m.port)
	var auth smtp.Auth
	if m.username != "" {
		auth = smtp.PlainAuth("", m.username, m.password, m.host)
	}

	if err := smtp.SendMail(addr, auth, m.from, []string{to}, []byte(msg)); err != nil {
		log.Error().Err(err).Str("to", to).Msg("failed to send email")
		return err
	}
	return nil
}

func (m *Mailer) SendVerificationEmail(to, code string) error {
	body := fmt.Sprintf(
		"Welcome to Advista!\n\nYour verification code is: %s\n\nThis code expires in 10 minutes.\n", code)
	return m.send(to, "Verify your Advista account", body)
}

func (m *Mailer) SendWelcomeEmail(to string) error {
	body := "Welcome to Advista!\n\nYour account has been created. Start a chat to build your first research brief.\n"
	return m.send(to, "Welcome to Advista", body)
}

func (m *Mailer) SendPasswordResetEmail(to, code string) error {
	body := fmt.Sprintf(
		"A password reset was requested for your account.\n\nYour reset code is: %s\n\nThis code expires in 15 minutes. If you did not request this, you can ignore this email.\n", code)
	return m.send(to, "Reset your Advista password", body)
}

func (m *Mailer) SendPasswordResetSuccessEmail(to string) error {
	body := "Your Advista password has been changed.\n\nIf this was not you, contact support immediately.\n"
	return m.send(to, "Your password was changed", body)
}
