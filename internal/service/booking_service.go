package service

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/yasinhessnawi1/Natours_Backend/internal/constants"
	"github.com/yasinhessnawi1/Natours_Backend/internal/database"
	"github.com/yasinhessnawi1/Natours_Backend/internal/models"
	"github.com/yasinhessnawi1/Natours_Backend/internal/payment"
	"github.com/yasinhessnawi1/Natours_Backend/internal/repository"
	"github.com/yasinhessnawi1/Natours_Backend/internal/storage"
	"github.com/yasinhessnawi1/Natours_Backend/internal/utils"
)

// BookingService manages bookings and the checkout flow that creates them.
type BookingService struct {
	bookings repository.BookingRepository
	tours    repository.TourRepository
	users    repository.UserRepository
	gateway  payment.Gateway
	timeout  time.Duration

	// inflight tracks bookings created in the background after a webhook.
	inflight sync.WaitGroup
}

// NewBookingService creates a new BookingService
func NewBookingService(
	bookings repository.BookingRepository,
	tours repository.TourRepository,
	users repository.UserRepository,
	gateway payment.Gateway,
) *BookingService {
	return &BookingService{
		bookings: bookings,
		tours:    tours,
		users:    users,
		gateway:  gateway,
		timeout:  constants.WebhookBookingTimeout,
	}
}

// Create stores a booking.
func (s *BookingService) Create(ctx context.Context, booking *models.Booking) (*models.Booking, error) {
	if err := s.bookings.Create(ctx, booking); err != nil {
		return nil, err
	}
	return booking, nil
}

// Get returns a booking with its tour and user names.
func (s *BookingService) Get(ctx context.Context, id int64) (*models.Booking, error) {
	return s.bookings.GetByID(ctx, id)
}

// List returns one page of bookings.
func (s *BookingService) List(ctx context.Context, q *database.ListQuery) ([]*models.Booking, int, error) {
	return s.bookings.List(ctx, q)
}

// Update saves a booking.
func (s *BookingService) Update(ctx context.Context, booking *models.Booking) (*models.Booking, error) {
	if err := s.bookings.Update(ctx, booking); err != nil {
		return nil, err
	}
	return booking, nil
}

// Delete removes a booking.
func (s *BookingService) Delete(ctx context.Context, id int64) error {
	return s.bookings.Delete(ctx, id)
}

// CheckoutSession opens a payment page for one seat on a tour. baseURL is the
// origin the payment page redirects back to.
func (s *BookingService) CheckoutSession(ctx context.Context, tourID int64, user *models.User, baseURL string) (*models.CheckoutSession, error) {
	tour, err := s.tours.GetByID(ctx, tourID)
	if err != nil {
		if utils.IsNotFoundError(err) {
			return nil, utils.NewNotFoundError(constants.MsgNoSuchTour)
		}
		return nil, err
	}

	return s.gateway.CreateCheckoutSession(ctx, &payment.CheckoutRequest{
		TourID:        tour.ID,
		TourName:      tour.Name,
		Summary:       tour.Summary,
		ImageURL:      storage.ResolveURL(baseURL, "tours", tour.ImageCover),
		Price:         tour.Price,
		CustomerEmail: user.Email,
		SuccessURL:    baseURL + constants.ViewMyToursPath + "?" + constants.QueryParamAlert + "=" + constants.AlertBooking,
		CancelURL:     baseURL + "/tour/" + tour.Slug,
	})
}

// HandleWebhook verifies a payment event. A completed checkout is turned
// into a booking on a separate goroutine; its outcome is only logged.
func (s *BookingService) HandleWebhook(payload []byte, signature string) error {
	completed, err := s.gateway.ParseWebhook(payload, signature)
	if err != nil {
		log.Warn().Err(err).Str("category", constants.LogCategoryPayment).Msg("Rejected payment webhook")
		return err
	}
	if completed == nil {
		return nil
	}

	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()

		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()

		if err := s.createFromCheckout(ctx, completed); err != nil {
			log.Error().
				Err(err).
				Str("category", constants.LogCategoryPayment).
				Str("session_id", completed.SessionID).
				Int64("tour_id", completed.TourID).
				Msg("Failed to create booking from checkout")
		}
	}()
	return nil
}

// Wait blocks until background bookings started by HandleWebhook finish.
func (s *BookingService) Wait() {
	s.inflight.Wait()
}

func (s *BookingService) createFromCheckout(ctx context.Context, completed *models.CheckoutCompleted) error {
	user, err := s.users.GetByEmail(ctx, completed.CustomerEmail)
	if err != nil {
		return err
	}

	booking := models.NewBooking()
	booking.TourID = completed.TourID
	booking.UserID = user.ID
	booking.Price = float64(completed.AmountTotal) / 100

	if err := s.bookings.Create(ctx, booking); err != nil {
		return err
	}

	log.Info().
		Str("category", constants.LogCategoryPayment).
		Int64("booking_id", booking.ID).
		Int64("tour_id", booking.TourID).
		Int64("user_id", booking.UserID).
		Msg("Booking created from checkout")
	return nil
}
