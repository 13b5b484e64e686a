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

// BookingRepository defines methods for interacting with booking data
type BookingRepository interface {
	Create(ctx context.Context, booking *models.Booking) error
	GetByID(ctx context.Context, id int64) (*models.Booking, error)
	List(ctx context.Context, q *database.ListQuery) ([]*models.Booking, int, error)
	Update(ctx context.Context, booking *models.Booking) error
	Delete(ctx context.Context, id int64) error
}

// BookingSchema is the list surface of GET /bookings.
var BookingSchema = &database.Schema{
	Fields: map[string]database.Field{
		"id":        {Column: "b.id", Type: database.FieldInt, Filterable: true, Sortable: true},
		"tour":      {Column: "b.tour_id", Type: database.FieldInt, Filterable: true, Sortable: true},
		"user":      {Column: "b.user_id", Type: database.FieldInt, Filterable: true, Sortable: true},
		"price":     {Column: "b.price", Type: database.FieldFloat, Filterable: true, Sortable: true},
		"paid":      {Column: "b.paid", Type: database.FieldBool, Filterable: true, Sortable: true},
		"createdAt": {Column: "b.created_at", Type: database.FieldTime, Filterable: true, Sortable: true},
		"tourName":  {Column: "t.name", Type: database.FieldString, Sortable: true},
		"userName":  {Column: "u.name", Type: database.FieldString, Sortable: true},
		"userEmail": {Column: "u.email", Type: database.FieldString},
	},
	DefaultSort: constants.DefaultSort,
}

const bookingSelect = `
        SELECT b.id, b.tour_id, b.user_id, b.price, b.paid, b.created_at, t.name, u.name, u.email`

const bookingFrom = `
        FROM bookings b
        JOIN tours t ON t.id = b.tour_id
        JOIN users u ON u.id = b.user_id`

// PostgresBookingRepository is a PostgreSQL implementation of BookingRepository
type PostgresBookingRepository struct {
	db *database.Pool
}

// NewBookingRepository creates a new BookingRepository
func NewBookingRepository(db *database.Pool) BookingRepository {
	return &PostgresBookingRepository{db: db}
}

func scanBooking(row rowScanner) (*models.Booking, error) {
	b := &models.Booking{}
	err := row.Scan(&b.ID, &b.TourID, &b.UserID, &b.Price, &b.Paid, &b.CreatedAt, &b.TourName, &b.UserName, &b.UserEmail)
	if err != nil {
		return nil, err
	}
	return b, nil
}

// Create adds a new booking.
func (r *PostgresBookingRepository) Create(ctx context.Context, booking *models.Booking) error {
	startTime := time.Now()
	booking.CreatedAt = time.Now()

	query := `
        INSERT INTO bookings (tour_id, user_id, price, paid, created_at)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id
    `
	args := []interface{}{booking.TourID, booking.UserID, booking.Price, booking.Paid, booking.CreatedAt}

	err := r.db.QueryRowContext(ctx, query, args...).Scan(&booking.ID)
	utils.LogDBQuery(query, args, time.Since(startTime), err)
	if err != nil {
		if appErr := utils.ParseError(err); appErr.IsOperational() {
			return appErr
		}
		return fmt.Errorf("failed to create booking: %w", err)
	}

	log.Info().
		Int64("booking_id", booking.ID).
		Int64("tour_id", booking.TourID).
		Int64("user_id", booking.UserID).
		Float64("price", booking.Price).
		Msg("Booking created")
	return nil
}

// GetByID retrieves a booking with its tour and user names.
func (r *PostgresBookingRepository) GetByID(ctx context.Context, id int64) (*models.Booking, error) {
	startTime := time.Now()
	query := bookingSelect + bookingFrom + " WHERE b.id = $1"

	booking, err := scanBooking(r.db.QueryRowContext(ctx, query, id))
	utils.LogDBQuery(query, []interface{}{id}, time.Since(startTime), err)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, utils.NewNotFoundError("")
		}
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return booking, nil
}

// List returns one page of bookings and the total match count.
func (r *PostgresBookingRepository) List(ctx context.Context, q *database.ListQuery) ([]*models.Booking, int, error) {
	listSQL, countSQL, listArgs, countArgs := pageQuery(bookingSelect, bookingFrom, q, "b.id")

	total, err := count(ctx, r.db, countSQL, countArgs)
	if err != nil {
		return nil, 0, err
	}

	startTime := time.Now()
	rows, err := r.db.QueryContext(ctx, listSQL, listArgs...)
	utils.LogDBQuery(listSQL, listArgs, time.Since(startTime), err)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list bookings: %w", err)
	}
	defer rows.Close()

	bookings := make([]*models.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan booking: %w", err)
		}
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating bookings: %w", err)
	}
	return bookings, total, nil
}

// Update saves a booking.
func (r *PostgresBookingRepository) Update(ctx context.Context, booking *models.Booking) error {
	startTime := time.Now()
	query := "UPDATE bookings SET tour_id = $1, user_id = $2, price = $3, paid = $4 WHERE id = $5"
	args := []interface{}{booking.TourID, booking.UserID, booking.Price, booking.Paid, booking.ID}

	result, err := r.db.ExecContext(ctx, query, args...)
	utils.LogDBQuery(query, args, time.Since(startTime), err)
	if err != nil {
		if appErr := utils.ParseError(err); appErr.IsOperational() {
			return appErr
		}
		return fmt.Errorf("failed to update booking: %w", err)
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

// Delete removes a booking.
func (r *PostgresBookingRepository) Delete(ctx context.Context, id int64) error {
	startTime := time.Now()
	query := "DELETE FROM bookings WHERE id = $1"

	result, err := r.db.ExecContext(ctx, query, id)
	utils.LogDBQuery(query, []interface{}{id}, time.Since(startTime), err)
	if err != nil {
		return fmt.Errorf("failed to delete booking: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return utils.NewNotFoundError("")
	}

	log.Info().Int64("booking_id", id).Msg("Booking deleted")
	return nil
}
