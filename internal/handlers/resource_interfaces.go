package handlers

import (
	"context"
	"io"

	"github.com/yasinhessnawi1/Natours_Backend/internal/models"
)

// TourServiceInterface defines the methods required from TourService.
type TourServiceInterface interface {
	Store[*models.Tour]

	ExpandReviews(ctx context.Context, tour *models.Tour) error
	GetBySlug(ctx context.Context, slug string) (*models.Tour, error)
	Stats(ctx context.Context) ([]*models.TourStats, error)
	MonthlyPlan(ctx context.Context, year int) ([]*models.MonthlyPlan, error)

	// Within and Distances take the center as "lat,lng" and unit as "mi" or "km".
	Within(ctx context.Context, distance float64, latlng, unit string) ([]*models.Tour, error)
	Distances(ctx context.Context, latlng, unit string) ([]*models.TourDistance, error)

	Search(ctx context.Context, query string, limit int) ([]*models.Tour, error)
	BookedByUser(ctx context.Context, userID int64) ([]*models.Tour, error)

	// ProcessImages resizes and stores uploaded tour images. cover may be nil.
	ProcessImages(ctx context.Context, tourID int64, cover io.Reader, images []io.Reader) (*models.ImageUpdate, error)
}

// ReviewServiceInterface defines the methods required from ReviewService.
type ReviewServiceInterface interface {
	Store[*models.Review]

	// Owner returns the id of the review's author.
	Owner(ctx context.Context, id int64) (int64, error)
}

// BookingServiceInterface defines the methods required from BookingService.
type BookingServiceInterface interface {
	Store[*models.Booking]

	// CheckoutSession starts a payment for tourID on behalf of user. baseURL
	// prefixes the success and cancel redirects.
	CheckoutSession(ctx context.Context, tourID int64, user *models.User, baseURL string) (*models.CheckoutSession, error)

	// HandleWebhook verifies a payment provider event. A nil error means the
	// event was accepted, not that a booking exists yet.
	HandleWebhook(payload []byte, signature string) error
}
