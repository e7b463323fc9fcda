// Package mail delivers the three transactional emails of the auth
// flows. The Mailer interface is the only thing the service layer
// sees; delivery can go straight over SMTP or through a RabbitMQ
// queue drained by a background worker.
package mail

import (
	"context"
	"log"
)

// Kind identifies a mail template.
type Kind string

const (
	KindVerification  Kind = "verification"
	KindWelcome       Kind = "welcome"
	KindPasswordReset Kind = "passwordReset"
)

// Mailer sends one templated message. token is empty for the welcome
// mail; locale selects the template language.
type Mailer interface {
	Send(ctx context.Context, kind Kind, to, name, token, locale string) error
}

// LogMailer writes messages to the process log instead of delivering
// them. Used in development when no SMTP host is configured.
type LogMailer struct{}

func (LogMailer) Send(_ context.Context, kind Kind, to, name, token, locale string) error {
	log.Printf("mail: [%s] to=%s name=%q locale=%s token=%s", kind, to, name, locale, token)
	return nil
}
