package email

import (
	"context"

	"github.com/sirupsen/logrus"
)

// Sender delivers a plain-text email. Delivery is best effort at every
// call site: invitation and completion mails report failure back to the
// caller but never roll back the work they announce.
type Sender interface {
	Send(ctx context.Context, to, body, subject string) error
}

// LogSender writes mails to the log instead of delivering them. Used in
// environments without SendGrid credentials.
type LogSender struct {
	Log *logrus.Logger
}

func (s *LogSender) Send(_ context.Context, to, body, subject string) error {
	s.Log.WithFields(logrus.Fields{
		"to":      to,
		"subject": subject,
	}).Info("email suppressed (no mail provider configured):\n" + body)
	return nil
}
