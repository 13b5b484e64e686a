// Package payment creates hosted checkout sessions and verifies the
// provider's webhook events.
package payment

import (
	"context"

	"github.com/yasinhessnawi1/Natours_Backend/internal/models"
)

// CheckoutRequest describes the single tour being bought.
type CheckoutRequest struct {
	TourID        int64
	TourName      string
	Summary       string
	ImageURL      string
	Price         float64
	CustomerEmail string
	SuccessURL    string
	CancelURL     string
}

// Gateway is the payment provider.
type Gateway interface {
	CreateCheckoutSession(ctx context.Context, req *CheckoutRequest) (*models.CheckoutSession, error)
	// ParseWebhook verifies the signature of payload. Only a failed
	// verification is an error: verified events that are not completed
	// checkouts, or that carry no usable tour reference, return nil.
	ParseWebhook(payload []byte, signature string) (*models.CheckoutCompleted, error)
}
