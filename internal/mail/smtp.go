package mail

import (
	"context"
	"fmt"
	"net/smtp"
	"net/url"
	"strings"

	"github.com/obarlas/campuslink/internal/i18n"
)

// SMTPMailer delivers mail directly over SMTP with PLAIN auth.
type SMTPMailer struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
	BaseURL  string
}

// Send renders the template for kind in the given locale and submits
// the message. Verification and reset mails embed a link of the form
// {baseUrl}/{verb}?token={token}.
func (m *SMTPMailer) Send(_ context.Context, kind Kind, to, name, token, locale string) error {
	subject, body, err := m.render(kind, name, token, locale)
	if err != nil {
		return err
	}
	from := fmt.Sprintf("%s <%s>", i18n.T(locale, "email."+string(kind)+".from", nil), m.From)
	msg := strings.Join([]string{
		"From: " + from,
		"To: " + to,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=utf-8",
		"",
		body,
	}, "\r\n")

	var auth smtp.Auth
	if m.Username != "" {
		auth = smtp.PlainAuth("", m.Username, m.Password, m.Host)
	}
	return smtp.SendMail(m.Host+":"+m.Port, auth, m.From, []string{to}, []byte(msg))
}

func (m *SMTPMailer) render(kind Kind, name, token, locale string) (subject, body string, err error) {
	if name == "" {
		name = "there"
	}
	params := map[string]any{"name": name}
	switch kind {
	case KindVerification:
		params["url"] = m.BaseURL + "/verify-email?token=" + url.QueryEscape(token)
	case KindPasswordReset:
		params["url"] = m.BaseURL + "/reset-password?token=" + url.QueryEscape(token)
	case KindWelcome:
	default:
		return "", "", fmt.Errorf("unknown mail kind %q", kind)
	}
	subject = i18n.T(locale, "email."+string(kind)+".subject", nil)
	body = i18n.T(locale, "email."+string(kind)+".body", params)
	return subject, body, nil
}
