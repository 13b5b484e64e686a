package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/yasinhessnawi1/Natours_Backend/internal/constants"
	"github.com/yasinhessnawi1/Natours_Backend/internal/database"
	"github.com/yasinhessnawi1/Natours_Backend/internal/models"
	"github.com/yasinhessnawi1/Natours_Backend/internal/utils"
)

// ReviewRepository defines methods for interacting with review data
type ReviewRepository interface {
	Create(ctx context.Context, review *models.Review) error
	GetByID(ctx context.Context, id int64) (*models.Review, error)
	List(ctx context.Context, q *database.ListQuery) ([]*models.Review, int, error)
	ListByTour(ctx context.Context, tourID int64) ([]*models.Review, error)
	Update(ctx context.Context, review *models.Review) error
	Delete(ctx context.Context, id int64) error
	RatingSummary(ctx context.Context, tourID int64) (*models.RatingSummary, error)
}

// ReviewSchema is the list surface of GET /reviews.
var ReviewSchema = &database.Schema{
	Fields: map[string]database.Field{
		"id":        {Column: "r.id", Type: database.FieldInt, Filterable: true, Sortable: true},
		"review":    {Column: "r.review", Type: database.FieldString},
		"rating":    {Column: "r.rating", Type: database.FieldInt, Filterable: true, Sortable: true},
		"tour":      {Column: "r.tour_id", Type: database.FieldInt, Filterable: true, Sortable: true},
		"user":      {Column: "r.user_id", Type: database.FieldInt, Filterable: true, Sortable: true},
		"createdAt": {Column: "r.created_at", Type: database.FieldTime, Filterable: true, Sortable: true},
	},
	DefaultSort: constants.DefaultSort,
}

const reviewSelect = `
        SELECT r.id, r.review, r.rating, r.tour_id, r.user_id, r.created_at, u.name, u.photo`

const reviewFrom = `
        FROM reviews r
        JOIN users u ON u.id = r.user_id`

// PostgresReviewRepository is a PostgreSQL implementation of ReviewRepository
type PostgresReviewRepository struct {
	db *database.Pool
}

// NewReviewRepository creates a new ReviewRepository
func NewReviewRepository(db *database.Pool) ReviewRepository {
	return &PostgresReviewRepository{db: db}
}

func scanReview(row rowScanner) (*models.Review, error) {
	review := &models.Review{User: &models.ReviewAuthor{}}
	err := row.Scan(
		&review.ID,
		&review.Review,
		&review.Rating,
		&review.TourID,
		&review.UserID,
		&review.CreatedAt,
		&review.User.Name,
		&review.User.Photo,
	)
	if err != nil {
		return nil, err
	}
	review.User.ID = review.UserID
	return review, nil
}

func (r *PostgresReviewRepository) query(ctx context.Context, query string, args ...interface{}) ([]*models.Review, error) {
	startTime := time.Now()
	rows, err := r.db.QueryContext(ctx, query, args...)
	utils.LogDBQuery(query, args, time.Since(startTime), err)
	if err != nil {
		return nil, fmt.Errorf("failed to query reviews: %w", err)
	}
	defer rows.Close()

	reviews := make([]*models.Review, 0)
	for rows.Next() {
		review, err := scanReview(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan review: %w", err)
		}
		reviews = append(reviews, review)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reviews: %w", err)
	}
	return reviews, nil
}

// Create adds a new review. A second review of the same tour by the same
// user violates a unique index and comes back as a 400.
func (r *PostgresReviewRepository) Create(ctx context.Context, review *models.Review) error {
	startTime := time.Now()
	review.CreatedAt = time.Now()

	query := `
        INSERT INTO reviews (review, rating, tour_id, user_id, created_at)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id
    `
	args := []interface{}{review.Review, review.Rating, review.TourID, review.UserID, review.CreatedAt}

	err := r.db.QueryRowContext(ctx, query, args...).Scan(&review.ID)
	utils.LogDBQuery(query, args, time.Since(startTime), err)
	if err != nil {
		if appErr := utils.ParseError(err); appErr.IsOperational() {
			return appErr
		}
		return fmt.Errorf("failed to create review: %w", err)
	}

	log.Info().
		Int64("review_id", review.ID).
		Int64("tour_id", review.TourID).
		Int64("user_id", review.UserID).
		Msg("Review created")
	return nil
}

// GetByID retrieves a review with its author.
func (r *PostgresReviewRepository) GetByID(ctx context.Context, id int64) (*models.Review, error) {
	startTime := time.Now()
	query := reviewSelect + reviewFrom + " WHERE r.id = $1"

	review, err := scanReview(r.db.QueryRowContext(ctx, query, id))
	utils.LogDBQuery(query, []interface{}{id}, time.Since(startTime), err)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, utils.NewNotFoundError("")
		}
		return nil, fmt.Errorf("failed to get review: %w", err)
	}
	return review, nil
}

// List returns one page of reviews and the total match count.
func (r *PostgresReviewRepository) List(ctx context.Context, q *database.ListQuery) ([]*models.Review, int, error) {
	listSQL, countSQL, listArgs, countArgs := pageQuery(reviewSelect, reviewFrom, q, "r.id")

	total, err := count(ctx, r.db, countSQL, countArgs)
	if err != nil {
		return nil, 0, err
	}

	reviews, err := r.query(ctx, listSQL, listArgs...)
	if err != nil {
		return nil, 0, err
	}
	return reviews, total, nil
}

// ListByTour returns every review of a tour, newest first.
func (r *PostgresReviewRepository) ListByTour(ctx context.Context, tourID int64) ([]*models.Review, error) {
	return r.query(ctx, reviewSelect+reviewFrom+" WHERE r.tour_id = $1 ORDER BY r.created_at DESC, r.id ASC", tourID)
}

// Update saves the text and rating of a review.
func (r *PostgresReviewRepository) Update(ctx context.Context, review *models.Review) error {
	startTime := time.Now()
	query := "UPDATE reviews SET review = $1, rating = $2 WHERE id = $3"
	args := []interface{}{review.Review, review.Rating, review.ID}

	result, err := r.db.ExecContext(ctx, query, args...)
	utils.LogDBQuery(query, args, time.Since(startTime), err)
	if err != nil {
		return fmt.Errorf("failed to update review: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return utils.NewNotFoundError("")
	}
	return nil
}

// Delete removes a review.
func (r *PostgresReviewRepository) Delete(ctx context.Context, id int64) error {
	startTime := time.Now()
	query := "DELETE FROM reviews WHERE id = $1"

	result, err := r.db.ExecContext(ctx, query, id)
	utils.LogDBQuery(query, []interface{}{id}, time.Since(startTime), err)
	if err != nil {
		return fmt.Errorf("failed to delete review: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return utils.NewNotFoundError("")
	}
	return nil
}

// RatingSummary aggregates the ratings of a tour. With no reviews the
// average falls back to the default rating.
func (r *PostgresReviewRepository) RatingSummary(ctx context.Context, tourID int64) (*models.RatingSummary, error) {
	startTime := time.Now()
	query := "SELECT COUNT(*), COALESCE(AVG(rating), 0) FROM reviews WHERE tour_id = $1"

	summary := &models.RatingSummary{TourID: tourID}
	err := r.db.QueryRowContext(ctx, query, tourID).Scan(&summary.Quantity, &summary.Average)
	utils.LogDBQuery(query, []interface{}{tourID}, time.Since(startTime), err)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate ratings: %w", err)
	}

	if summary.Quantity == 0 {
		summary.Average = constants.DefaultRatingsAverage
	}
	summary.Average = utils.RoundTo(summary.Average, 1)
	return summary, nil
}
