// Package mail sends the password-reset and password-changed notifications
// over SMTP. Send failures are returned to the caller — the auth flows treat
// an undeliverable email as a hard error, never a silent one.
package mail

import (
	"fmt"
	"log/slog"

	"gopkg.in/gomail.v2"

	"github.com/shaiq/auth-practice/internal/config"
)

// Sender is the outbound-mail interface the auth service depends on.
// Services take this interface so tests can substitute a fake.
type Sender interface {
	SendPasswordResetEmail(email, firstName, resetToken string) error
	SendPasswordChangedEmail(email, firstName string) error
}

// Mailer sends notification emails through an SMTP relay.
type Mailer struct {
	dialer *gomail.Dialer
	from   string
	appURL string
	expiry string
	logger *slog.Logger
}

// New creates a Mailer from the SMTP settings in cfg.
func New(cfg *config.Config, logger *slog.Logger) *Mailer {
	return &Mailer{
		dialer: gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword),
		from:   cfg.SMTPFrom,
		appURL: cfg.AppURL,
		expiry: fmt.Sprintf("%d hour(s)", cfg.ResetPasswordExpiryHours),
		logger: logger,
	}
}

// SendPasswordResetEmail mails the reset link carrying the token.
func (m *Mailer) SendPasswordResetEmail(email, firstName, resetToken string) error {
	resetLink := fmt.Sprintf("%s/reset-password?token=%s", m.appURL, resetToken)

	html := fmt.Sprintf(`<h2>Password Reset Request</h2>
<p>Hi %s,</p>
<p>You requested to reset your password. Click the link below to reset it:</p>
<p><a href="%s">Reset Password</a></p>
<p>Or copy and paste this link:</p>
<p><code>%s</code></p>
<p>This link will expire in %s.</p>
<p>If you did not request this, please ignore this email.</p>
<p>Best regards,<br/>Auth Practice Team</p>`, firstName, resetLink, resetLink, m.expiry)

	text := fmt.Sprintf(`Password Reset Request

Hi %s,

You requested to reset your password. Use this link to reset it:
%s

This link will expire in %s.

If you did not request this, please ignore this email.

Best regards,
Auth Practice Team`, firstName, resetLink, m.expiry)

	if err := m.send(email, "Password Reset Request", text, html); err != nil {
		return fmt.Errorf("mail: sending password reset email: %w", err)
	}

	m.logger.Info("password reset email sent", slog.String("email", email))
	return nil
}

// SendPasswordChangedEmail mails the change confirmation.
func (m *Mailer) SendPasswordChangedEmail(email, firstName string) error {
	html := fmt.Sprintf(`<h2>Password Changed</h2>
<p>Hi %s,</p>
<p>Your password has been changed successfully.</p>
<p>If you did not make this change, please reset your password immediately.</p>
<p>Best regards,<br/>Auth Practice Team</p>`, firstName)

	text := fmt.Sprintf(`Password Changed

Hi %s,

Your password has been changed successfully.

If you did not make this change, please reset your password immediately.

Best regards,
Auth Practice Team`, firstName)

	if err := m.send(email, "Password Changed Successfully", text, html); err != nil {
		return fmt.Errorf("mail: sending password changed email: %w", err)
	}

	m.logger.Info("password changed email sent", slog.String("email", email))
	return nil
}

func (m *Mailer) send(to, subject, text, html string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", text)
	msg.AddAlternative("text/html", html)

	return m.dialer.DialAndSend(msg)
}
