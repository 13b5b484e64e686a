package mailer

import (
	"context"
	"fmt"
	"net/http"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/yasinhessnawi1/Natours_Backend/internal/config"
	"github.com/yasinhessnawi1/Natours_Backend/internal/constants"
)

const sendGridEndpoint = "/v3/mail/send"

// SendGridSender delivers through the SendGrid v3 mail API.
type SendGridSender struct {
	apiKey string
	host   string
	from   *mail.Email
}

// NewSendGridSender creates a sender from the sendgrid and email settings.
// An empty host uses the public SendGrid API.
func NewSendGridSender(sgCfg config.SendGridSettings, emailCfg config.EmailSettings) *SendGridSender {
	return &SendGridSender{
		apiKey: sgCfg.APIKey,
		host:   sgCfg.Host,
		from:   mail.NewEmail(emailCfg.FromName, emailCfg.From),
	}
}

// Send implements Sender.
func (s *SendGridSender) Send(ctx context.Context, to string, msg *Rendered) error {
	message := mail.NewSingleEmail(s.from, msg.Subject, mail.NewEmail("", to), msg.Text, msg.HTML)

	// A client per send: the request body lives on the client.
	request := sendgrid.GetRequest(s.apiKey, sendGridEndpoint, s.host)
	request.Method = http.MethodPost
	client := &sendgrid.Client{Request: request}

	ctx, cancel := context.WithTimeout(ctx, constants.MailSendTimeout)
	defer cancel()

	resp, err := client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("sendgrid send failed: %w", err)
	}
	if rejectedStatus(resp.StatusCode) {
		return fmt.Errorf("%w: sendgrid status %d: %s", ErrRejected, resp.StatusCode, resp.Body)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("sendgrid send failed: status %d: %s", resp.StatusCode, resp.Body)
	}
	return nil
}

// NewSender returns the configured provider's sender.
func NewSender(cfg *config.AppConfig) (Sender, error) {
	switch cfg.Email.Provider {
	case "", constants.MailProviderMailgun:
		if cfg.Mailgun.Domain == "" || cfg.Mailgun.APIKey == "" {
			return nil, fmt.Errorf("mailgun is not configured")
		}
		return NewMailgunSender(cfg.Mailgun, cfg.Email), nil
	case constants.MailProviderSendGrid:
		if cfg.SendGrid.APIKey == "" {
			return nil, fmt.Errorf("sendgrid is not configured")
		}
		return NewSendGridSender(cfg.SendGrid, cfg.Email), nil
	default:
		return nil, fmt.Errorf("unknown email provider: %s", cfg.Email.Provider)
	}
}
