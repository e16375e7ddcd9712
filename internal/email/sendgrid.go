package email

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-resty/resty/v2"
)

const sendURL = "https://api.sendgrid.com/v3/mail/send"

// SendGridSender sends through the SendGrid v3 mail-send API.
type SendGridSender struct {
	client *resty.Client
	apiKey string
	from   string
}

func NewSendGridSender() (*SendGridSender, error) {
	apiKey := os.Getenv("SENDGRID_API_KEY")
	if apiKey == "" {
		return nil, errors.New("SENDGRID_API_KEY environment variable is not set")
	}
	from := os.Getenv("SENDGRID_FROM_EMAIL")
	if from == "" {
		from = "noreply@example.com"
	}
	return &SendGridSender{
		client: resty.New(),
		apiKey: apiKey,
		from:   from,
	}, nil
}

type sgAddress struct {
	Email string `json:"email"`
}

type sgContent struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type sgPersonalization struct {
	To []sgAddress `json:"to"`
}

type sgMail struct {
	Personalizations []sgPersonalization `json:"personalizations"`
	From             sgAddress           `json:"from"`
	Subject          string              `json:"subject"`
	Content          []sgContent         `json:"content"`
}

func (s *SendGridSender) Send(ctx context.Context, to, body, subject string) error {
	if to == "" || body == "" {
		return errors.New("recipient and body are required")
	}
	if subject == "" {
		subject = "Notification"
	}

	msg := sgMail{
		Personalizations: []sgPersonalization{{To: []sgAddress{{Email: to}}}},
		From:             sgAddress{Email: s.from},
		Subject:          subject,
		Content: []sgContent{
			{Type: "text/plain", Value: body},
			{Type: "text/html", Value: "<p>" + strings.ReplaceAll(body, "\n", "<br>") + "</p>"},
		},
	}

	resp, err := s.client.R().
		SetContext(ctx).
		SetAuthToken(s.apiKey).
		SetHeader("Content-Type", "application/json").
		SetBody(msg).
		Post(sendURL)
	if err != nil {
		return fmt.Errorf("sendgrid request: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("sendgrid api error (%d): %s", resp.StatusCode(), resp.String())
	}
	return nil
}
