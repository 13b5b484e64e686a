package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yasinhessnawi1/Natours_Backend/internal/constants"
	"github.com/yasinhessnawi1/Natours_Backend/internal/models"
	"github.com/yasinhessnawi1/Natours_Backend/internal/utils"
)

func TestReviewService_RatingsFollowWrites(t *testing.T) {
	tours := newFakeTourRepo()
	reviews := newFakeReviewRepo()
	s := NewReviewService(reviews, tours)
	ctx := context.Background()
	tour := tours.add(sampleTour("The Forest Hiker"))

	first, err := s.Create(ctx, &models.Review{Review: "Loved it", Rating: 5, TourID: tour.ID, UserID: 1})
	require.NoError(t, err)
	_, err = s.Create(ctx, &models.Review{Review: "Fine", Rating: 4, TourID: tour.ID, UserID: 2})
	require.NoError(t, err)
	third, err := s.Create(ctx, &models.Review{Review: "Meh", Rating: 4, TourID: tour.ID, UserID: 3})
	require.NoError(t, err)

	assert.Equal(t, models.RatingSummary{TourID: tour.ID, Quantity: 3, Average: 4.3}, tours.ratings[tour.ID])

	first.Rating = 1
	first.TourID = 999
	updated, err := s.Update(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, tour.ID, updated.TourID)
	assert.Equal(t, models.RatingSummary{TourID: tour.ID, Quantity: 3, Average: 3}, tours.ratings[tour.ID])

	require.NoError(t, s.Delete(ctx, third.ID))
	require.NoError(t, s.Delete(ctx, first.ID))
	assert.Equal(t, models.RatingSummary{TourID: tour.ID, Quantity: 1, Average: 4}, tours.ratings[tour.ID])
}

func TestReviewService_LastReviewDeletedResetsRating(t *testing.T) {
	tours := newFakeTourRepo()
	s := NewReviewService(newFakeReviewRepo(), tours)
	ctx := context.Background()
	tour := tours.add(sampleTour("The Forest Hiker"))

	review, err := s.Create(ctx, &models.Review{Review: "Bad", Rating: 1, TourID: tour.ID, UserID: 1})
	require.NoError(t, err)
	require.NoError(t, s.Delete(ctx, review.ID))

	assert.Equal(t, models.RatingSummary{TourID: tour.ID, Quantity: 0, Average: constants.DefaultRatingsAverage}, tours.ratings[tour.ID])
}

func TestReviewService_DuplicateReview(t *testing.T) {
	tours := newFakeTourRepo()
	s := NewReviewService(newFakeReviewRepo(), tours)
	tour := tours.add(sampleTour("The Forest Hiker"))

	_, err := s.Create(context.Background(), &models.Review{Review: "One", Rating: 5, TourID: tour.ID, UserID: 1})
	require.NoError(t, err)
	_, err = s.Create(context.Background(), &models.Review{Review: "Two", Rating: 4, TourID: tour.ID, UserID: 1})
	require.Error(t, err)
	assert.Equal(t, 400, utils.StatusCode(err))
}

func TestReviewService_Owner(t *testing.T) {
	s := NewReviewService(newFakeReviewRepo(), newFakeTourRepo())
	review, err := s.Create(context.Background(), &models.Review{Review: "One", Rating: 5, TourID: 1, UserID: 7})
	require.NoError(t, err)

	owner, err := s.Owner(context.Background(), review.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(7), owner)

	_, err = s.Owner(context.Background(), 99)
	assert.True(t, utils.IsNotFoundError(err))
}
