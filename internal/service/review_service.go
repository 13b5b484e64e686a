package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/yasinhessnawi1/Natours_Backend/internal/database"
	"github.com/yasinhessnawi1/Natours_Backend/internal/models"
	"github.com/yasinhessnawi1/Natours_Backend/internal/repository"
)

// ReviewService stores reviews and recomputes the rating of the reviewed
// tour after every write.
type ReviewService struct {
	reviews repository.ReviewRepository
	tours   repository.TourRepository
}

// NewReviewService creates a new ReviewService
func NewReviewService(reviews repository.ReviewRepository, tours repository.TourRepository) *ReviewService {
	return &ReviewService{reviews: reviews, tours: tours}
}

// Create stores a review. A second review of the same tour by the same user
// fails with a duplicate error.
func (s *ReviewService) Create(ctx context.Context, review *models.Review) (*models.Review, error) {
	if err := s.reviews.Create(ctx, review); err != nil {
		return nil, err
	}
	if err := s.recalcRatings(ctx, review.TourID); err != nil {
		return nil, err
	}
	return review, nil
}

// Get returns a review with its author.
func (s *ReviewService) Get(ctx context.Context, id int64) (*models.Review, error) {
	return s.reviews.GetByID(ctx, id)
}

// List returns one page of reviews.
func (s *ReviewService) List(ctx context.Context, q *database.ListQuery) ([]*models.Review, int, error) {
	return s.reviews.List(ctx, q)
}

// Update saves the text and rating of a review. Its tour and author cannot
// change.
func (s *ReviewService) Update(ctx context.Context, review *models.Review) (*models.Review, error) {
	current, err := s.reviews.GetByID(ctx, review.ID)
	if err != nil {
		return nil, err
	}
	review.TourID = current.TourID
	review.UserID = current.UserID
	review.User = current.User

	if err := s.reviews.Update(ctx, review); err != nil {
		return nil, err
	}
	if err := s.recalcRatings(ctx, review.TourID); err != nil {
		return nil, err
	}
	return review, nil
}

// Delete removes a review.
func (s *ReviewService) Delete(ctx context.Context, id int64) error {
	review, err := s.reviews.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.reviews.Delete(ctx, id); err != nil {
		return err
	}
	return s.recalcRatings(ctx, review.TourID)
}

// Owner returns the author of a review, for the ownership check on writes.
func (s *ReviewService) Owner(ctx context.Context, id int64) (int64, error) {
	review, err := s.reviews.GetByID(ctx, id)
	if err != nil {
		return 0, err
	}
	return review.UserID, nil
}

func (s *ReviewService) recalcRatings(ctx context.Context, tourID int64) error {
	summary, err := s.reviews.RatingSummary(ctx, tourID)
	if err != nil {
		return err
	}
	if err := s.tours.UpdateRatings(ctx, tourID, summary.Quantity, summary.Average); err != nil {
		return fmt.Errorf("failed to update tour ratings: %w", err)
	}

	log.Debug().
		Int64("tour_id", tourID).
		Int("ratings_quantity", summary.Quantity).
		Float64("ratings_average", summary.Average).
		Msg("Tour ratings recalculated")
	return nil
}
