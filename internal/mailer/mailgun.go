package mailer

import (
	"context"
	"errors"
	"fmt"

	mg "github.com/mailgun/mailgun-go/v4"

	"github.com/yasinhessnawi1/Natours_Backend/internal/config"
	"github.com/yasinhessnawi1/Natours_Backend/internal/constants"
)

// Sender delivers a rendered email.
type Sender interface {
	Send(ctx context.Context, to string, msg *Rendered) error
}

// MailgunSender delivers through the Mailgun HTTP API.
type MailgunSender struct {
	client *mg.MailgunImpl
	from   string
}

// NewMailgunSender creates a sender from the mailgun and email settings.
func NewMailgunSender(mgCfg config.MailgunSettings, emailCfg config.EmailSettings) *MailgunSender {
	client := mg.NewMailgun(mgCfg.Domain, mgCfg.APIKey)
	if mgCfg.APIBase != "" {
		client.SetAPIBase(mgCfg.APIBase)
	}

	from := emailCfg.From
	if emailCfg.FromName != "" {
		from = fmt.Sprintf("%s <%s>", emailCfg.FromName, emailCfg.From)
	}
	return &MailgunSender{client: client, from: from}
}

// Send implements Sender.
func (s *MailgunSender) Send(ctx context.Context, to string, msg *Rendered) error {
	message := s.client.NewMessage(s.from, msg.Subject, msg.Text, to)
	if msg.HTML != "" {
		message.SetHtml(msg.HTML)
	}

	ctx, cancel := context.WithTimeout(ctx, constants.MailSendTimeout)
	defer cancel()

	if _, _, err := s.client.Send(ctx, message); err != nil {
		var unexpected *mg.UnexpectedResponseError
		if errors.Is(err, mg.ErrInvalidMessage) || (errors.As(err, &unexpected) && rejectedStatus(unexpected.Actual)) {
			return fmt.Errorf("%w: mailgun send failed: %w", ErrRejected, err)
		}
		return fmt.Errorf("mailgun send failed: %w", err)
	}
	return nil
}
