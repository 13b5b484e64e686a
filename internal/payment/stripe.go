package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"

	"github.com/yasinhessnawi1/Natours_Backend/internal/config"
	"github.com/yasinhessnawi1/Natours_Backend/internal/constants"
	"github.com/yasinhessnawi1/Natours_Backend/internal/models"
	"github.com/yasinhessnawi1/Natours_Backend/internal/utils"
)

// StripeGateway implements Gateway with Stripe Checkout.
type StripeGateway struct {
	api           *client.API
	webhookSecret string
	currency      string
}

// NewStripeGateway creates a gateway from the stripe settings.
func NewStripeGateway(cfg config.StripeSettings) *StripeGateway {
	currency := strings.ToLower(cfg.Currency)
	if currency == "" {
		currency = constants.DefaultCurrency
	}
	return &StripeGateway{
		api:           client.New(cfg.SecretKey, nil),
		webhookSecret: cfg.WebhookSecret,
		currency:      currency,
	}
}

// ToCents converts a price to the smallest currency unit.
func ToCents(price float64) int64 {
	return int64(math.Round(price * 100))
}

// CreateCheckoutSession implements Gateway.
func (g *StripeGateway) CreateCheckoutSession(ctx context.Context, req *CheckoutRequest) (*models.CheckoutSession, error) {
	product := &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
		Name:        stripe.String(req.TourName + " Tour"),
		Description: stripe.String(req.Summary),
	}
	if req.ImageURL != "" {
		product.Images = stripe.StringSlice([]string{req.ImageURL})
	}

	params := &stripe.CheckoutSessionParams{
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:         stripe.String(req.SuccessURL),
		CancelURL:          stripe.String(req.CancelURL),
		CustomerEmail:      stripe.String(req.CustomerEmail),
		ClientReferenceID:  stripe.String(strconv.FormatInt(req.TourID, 10)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Quantity: stripe.Int64(1),
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:    stripe.String(g.currency),
					UnitAmount:  stripe.Int64(ToCents(req.Price)),
					ProductData: product,
				},
			},
		},
	}
	params.Context = ctx

	session, err := g.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create checkout session: %w", err)
	}

	log.Info().
		Str("category", constants.LogCategoryPayment).
		Str("session_id", session.ID).
		Int64("tour_id", req.TourID).
		Msg("Checkout session created")

	return &models.CheckoutSession{ID: session.ID, URL: session.URL}, nil
}

// ParseWebhook implements Gateway.
func (g *StripeGateway) ParseWebhook(payload []byte, signature string) (*models.CheckoutCompleted, error) {
	return parseStripeEvent(payload, signature, g.webhookSecret)
}

func parseStripeEvent(payload []byte, signature, secret string) (*models.CheckoutCompleted, error) {
	if err := webhook.ValidatePayload(payload, signature, secret); err != nil {
		return nil, utils.NewInvalidWebhookError(err)
	}

	// The event is authentic from here on. A payload we cannot turn into a
	// booking is logged and acknowledged so the provider stops retrying it.
	var event stripe.Event
	if err := json.Unmarshal(payload, &event); err != nil || event.Data == nil {
		log.Error().
			Err(err).
			Str("category", constants.LogCategoryPayment).
			Msg("Unreadable payment event")
		return nil, nil
	}

	if string(event.Type) != constants.StripeEventCheckoutCompleted {
		log.Debug().Str("type", string(event.Type)).Msg("Ignoring payment event")
		return nil, nil
	}

	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		log.Error().
			Err(err).
			Str("category", constants.LogCategoryPayment).
			Str("event_id", event.ID).
			Msg("Unreadable checkout session in payment event")
		return nil, nil
	}

	tourID, err := strconv.ParseInt(session.ClientReferenceID, 10, 64)
	if err != nil || tourID <= 0 {
		log.Error().
			Str("category", constants.LogCategoryPayment).
			Str("event_id", event.ID).
			Str("session_id", session.ID).
			Str("client_reference_id", session.ClientReferenceID).
			Msg("Checkout session has no usable tour reference")
		return nil, nil
	}

	email := session.CustomerEmail
	if email == "" && session.CustomerDetails != nil {
		email = session.CustomerDetails.Email
	}

	return &models.CheckoutCompleted{
		SessionID:     session.ID,
		TourID:        tourID,
		CustomerEmail: email,
		AmountTotal:   session.AmountTotal,
	}, nil
}
