package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"github.com/yasinhessnawi1/Natours_Backend/internal/constants"
	"github.com/yasinhessnawi1/Natours_Backend/internal/database"
	"github.com/yasinhessnawi1/Natours_Backend/internal/models"
	"github.com/yasinhessnawi1/Natours_Backend/internal/utils"
)

// TourRepository defines methods for interacting with tour data. Secret
// tours are invisible to every method.
type TourRepository interface {
	Create(ctx context.Context, tour *models.Tour) error
	GetByID(ctx context.Context, id int64) (*models.Tour, error)
	GetBySlug(ctx context.Context, slug string) (*models.Tour, error)
	GetMany(ctx context.Context, ids []int64) ([]*models.Tour, error)
	List(ctx context.Context, q *database.ListQuery) ([]*models.Tour, int, error)
	Update(ctx context.Context, tour *models.Tour) error
	Delete(ctx context.Context, id int64) error
	Stats(ctx context.Context, minRating float64) ([]*models.TourStats, error)
	MonthlyPlan(ctx context.Context, year int) ([]*models.MonthlyPlan, error)
	Within(ctx context.Context, lat, lng, radians float64) ([]*models.Tour, error)
	Distances(ctx context.Context, lat, lng, multiplier float64) ([]*models.TourDistance, error)
	Search(ctx context.Context, term string, limit int) ([]*models.Tour, error)
	UpdateRatings(ctx context.Context, tourID int64, quantity int, average float64) error
	BookedByUser(ctx context.Context, userID int64) ([]*models.Tour, error)
}

// TourSchema is the list surface of GET /tours.
var TourSchema = &database.Schema{
	Fields: map[string]database.Field{
		"id":              {Column: "id", Type: database.FieldInt, Filterable: true, Sortable: true},
		"name":            {Column: "name", Type: database.FieldString, Filterable: true, Sortable: true},
		"slug":            {Column: "slug", Type: database.FieldString, Filterable: true},
		"duration":        {Column: "duration", Type: database.FieldInt, Filterable: true, Sortable: true},
		"maxGroupSize":    {Column: "max_group_size", Type: database.FieldInt, Filterable: true, Sortable: true},
		"difficulty":      {Column: "difficulty", Type: database.FieldString, Filterable: true, Sortable: true},
		"ratingsAverage":  {Column: "ratings_average", Type: database.FieldFloat, Filterable: true, Sortable: true},
		"ratingsQuantity": {Column: "ratings_quantity", Type: database.FieldInt, Filterable: true, Sortable: true},
		"price":           {Column: "price", Type: database.FieldFloat, Filterable: true, Sortable: true},
		"priceDiscount":   {Column: "price_discount", Type: database.FieldFloat, Filterable: true, Sortable: true},
		"summary":         {Column: "summary", Type: database.FieldString},
		"description":     {Column: "description", Type: database.FieldString},
		"imageCover":      {Column: "image_cover", Type: database.FieldString},
		"images":          {Column: "images", Type: database.FieldString},
		"startDates":      {Column: "start_dates", Type: database.FieldString},
		"startLocation":   {Column: "start_location", Type: database.FieldString},
		"locations":       {Column: "locations", Type: database.FieldString},
		"guides":          {Column: "id", Type: database.FieldString},
		"durationWeeks":   {Column: "duration", Type: database.FieldInt},
		"createdAt":       {Column: "created_at", Type: database.FieldTime, Filterable: true, Sortable: true},
	},
	Scope:       "secret_tour = FALSE",
	DefaultSort: constants.DefaultSort,
}

const tourColumns = `id, name, slug, duration, max_group_size, difficulty, ratings_average, ratings_quantity,
        price, price_discount, summary, description, image_cover, images, start_dates, secret_tour,
        start_location, locations, created_at`

// PostgresTourRepository is a PostgreSQL implementation of TourRepository
type PostgresTourRepository struct {
	db *database.Pool
}

// NewTourRepository creates a new TourRepository
func NewTourRepository(db *database.Pool) TourRepository {
	return &PostgresTourRepository{db: db}
}

func scanTour(row rowScanner) (*models.Tour, error) {
	tour := &models.Tour{}
	var (
		discount sql.NullFloat64
		startLoc []byte
	)
	err := row.Scan(
		&tour.ID,
		&tour.Name,
		&tour.Slug,
		&tour.Duration,
		&tour.MaxGroupSize,
		&tour.Difficulty,
		&tour.RatingsAverage,
		&tour.RatingsQuantity,
		&tour.Price,
		&discount,
		&tour.Summary,
		&tour.Description,
		&tour.ImageCover,
		&tour.Images,
		&tour.StartDates,
		&tour.SecretTour,
		&startLoc,
		&tour.Locations,
		&tour.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if discount.Valid {
		tour.PriceDiscount = &discount.Float64
	}
	if len(startLoc) > 0 && string(startLoc) != "null" {
		tour.StartLocation = &models.GeoPoint{}
		if err := json.Unmarshal(startLoc, tour.StartLocation); err != nil {
			return nil, fmt.Errorf("failed to decode start location: %w", err)
		}
	}
	if tour.Guides == nil {
		tour.Guides = []models.TourGuide{}
	}
	return tour, nil
}

func (r *PostgresTourRepository) queryTours(ctx context.Context, query string, args ...interface{}) ([]*models.Tour, error) {
	startTime := time.Now()
	rows, err := r.db.QueryContext(ctx, query, args...)
	utils.LogDBQuery(query, args, time.Since(startTime), err)
	if err != nil {
		return nil, fmt.Errorf("failed to query tours: %w", err)
	}
	defer rows.Close()

	tours := make([]*models.Tour, 0)
	for rows.Next() {
		tour, err := scanTour(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan tour: %w", err)
		}
		tours = append(tours, tour)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tours: %w", err)
	}
	return tours, nil
}

// loadGuides attaches the guides of every tour in one query.
func (r *PostgresTourRepository) loadGuides(ctx context.Context, tours []*models.Tour) error {
	if len(tours) == 0 {
		return nil
	}

	ids := make([]int64, len(tours))
	byID := make(map[int64]*models.Tour, len(tours))
	for i, t := range tours {
		ids[i] = t.ID
		byID[t.ID] = t
	}

	startTime := time.Now()
	query := `
        SELECT tg.tour_id, u.id, u.name, u.email, u.photo, u.role
        FROM tour_guides tg
        JOIN users u ON u.id = tg.user_id AND u.active = TRUE
        WHERE tg.tour_id = ANY($1)
        ORDER BY tg.tour_id, u.id
    `
	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids))
	utils.LogDBQuery(query, []interface{}{ids}, time.Since(startTime), err)
	if err != nil {
		return fmt.Errorf("failed to load tour guides: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			tourID int64
			guide  models.TourGuide
		)
		if err := rows.Scan(&tourID, &guide.ID, &guide.Name, &guide.Email, &guide.Photo, &guide.Role); err != nil {
			return fmt.Errorf("failed to scan tour guide: %w", err)
		}
		if t, ok := byID[tourID]; ok {
			t.Guides = append(t.Guides, guide)
		}
	}
	return rows.Err()
}

func (r *PostgresTourRepository) getOne(ctx context.Context, where string, arg interface{}) (*models.Tour, error) {
	startTime := time.Now()
	query := fmt.Sprintf("SELECT %s FROM tours WHERE secret_tour = FALSE AND %s", tourColumns, where)

	tour, err := scanTour(r.db.QueryRowContext(ctx, query, arg))
	utils.LogDBQuery(query, []interface{}{arg}, time.Since(startTime), err)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, utils.NewNotFoundError("")
		}
		return nil, fmt.Errorf("failed to get tour: %w", err)
	}

	if err := r.loadGuides(ctx, []*models.Tour{tour}); err != nil {
		return nil, err
	}
	return tour, nil
}

// GetByID retrieves a tour with its guides.
func (r *PostgresTourRepository) GetByID(ctx context.Context, id int64) (*models.Tour, error) {
	return r.getOne(ctx, "id = $1", id)
}

// GetBySlug retrieves a tour by its slug.
func (r *PostgresTourRepository) GetBySlug(ctx context.Context, slug string) (*models.Tour, error) {
	return r.getOne(ctx, "slug = $1", slug)
}

// GetMany returns the tours with the given ids in the order of ids. Missing
// ids are skipped.
func (r *PostgresTourRepository) GetMany(ctx context.Context, ids []int64) ([]*models.Tour, error) {
	if len(ids) == 0 {
		return []*models.Tour{}, nil
	}

	query := fmt.Sprintf("SELECT %s FROM tours WHERE secret_tour = FALSE AND id = ANY($1)", tourColumns)
	tours, err := r.queryTours(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	if err := r.loadGuides(ctx, tours); err != nil {
		return nil, err
	}

	byID := make(map[int64]*models.Tour, len(tours))
	for _, t := range tours {
		byID[t.ID] = t
	}
	ordered := make([]*models.Tour, 0, len(tours))
	for _, id := range ids {
		if t, ok := byID[id]; ok {
			ordered = append(ordered, t)
		}
	}
	return ordered, nil
}

// List returns one page of tours and the total match count.
func (r *PostgresTourRepository) List(ctx context.Context, q *database.ListQuery) ([]*models.Tour, int, error) {
	listSQL, countSQL, listArgs, countArgs := pageQuery("SELECT "+tourColumns, "FROM tours", q, "id")

	total, err := count(ctx, r.db, countSQL, countArgs)
	if err != nil {
		return nil, 0, err
	}

	tours, err := r.queryTours(ctx, listSQL, listArgs...)
	if err != nil {
		return nil, 0, err
	}
	if err := r.loadGuides(ctx, tours); err != nil {
		return nil, 0, err
	}
	return tours, total, nil
}

func replaceGuides(ctx context.Context, tx *sql.Tx, tourID int64, guideIDs []int64) error {
	if _, err := tx.ExecContext(ctx, "DELETE FROM tour_guides WHERE tour_id = $1", tourID); err != nil {
		return fmt.Errorf("failed to clear tour guides: %w", err)
	}
	if len(guideIDs) == 0 {
		return nil
	}
	query := "INSERT INTO tour_guides (tour_id, user_id) SELECT $1, unnest($2::bigint[])"
	if _, err := tx.ExecContext(ctx, query, tourID, pq.Array(guideIDs)); err != nil {
		return err
	}
	return nil
}

// Create inserts the tour and its guide links in one transaction.
func (r *PostgresTourRepository) Create(ctx context.Context, tour *models.Tour) error {
	startTime := time.Now()
	tour.CreatedAt = time.Now()

	query := `
        INSERT INTO tours (name, slug, duration, max_group_size, difficulty, ratings_average, ratings_quantity,
            price, price_discount, summary, description, image_cover, images, start_dates, secret_tour,
            start_location, locations, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
        RETURNING id
    `
	args := []interface{}{
		tour.Name, tour.Slug, tour.Duration, tour.MaxGroupSize, tour.Difficulty, tour.RatingsAverage,
		tour.RatingsQuantity, tour.Price, tour.PriceDiscount, tour.Summary, tour.Description,
		tour.ImageCover, tour.Images, tour.StartDates, tour.SecretTour, tour.StartLocation, tour.Locations,
		tour.CreatedAt,
	}

	err := r.db.Transaction(ctx, func(tx *sql.Tx) error {
		if err := tx.QueryRowContext(ctx, query, args...).Scan(&tour.ID); err != nil {
			return err
		}
		return replaceGuides(ctx, tx, tour.ID, tour.GuideIDs())
	})
	utils.LogDBQuery(query, args, time.Since(startTime), err)

	if err != nil {
		if appErr := utils.ParseError(err); appErr.IsOperational() {
			return appErr
		}
		return fmt.Errorf("failed to create tour: %w", err)
	}

	log.Info().Int64("tour_id", tour.ID).Str("slug", tour.Slug).Msg("Tour created")
	return nil
}

// Update saves every column of the tour and replaces its guide links.
func (r *PostgresTourRepository) Update(ctx context.Context, tour *models.Tour) error {
	startTime := time.Now()

	query := `
        UPDATE tours
        SET name = $1, slug = $2, duration = $3, max_group_size = $4, difficulty = $5, ratings_average = $6,
            ratings_quantity = $7, price = $8, price_discount = $9, summary = $10, description = $11,
            image_cover = $12, images = $13, start_dates = $14, secret_tour = $15, start_location = $16,
            locations = $17
        WHERE id = $18 AND secret_tour = FALSE
    `
	args := []interface{}{
		tour.Name, tour.Slug, tour.Duration, tour.MaxGroupSize, tour.Difficulty, tour.RatingsAverage,
		tour.RatingsQuantity, tour.Price, tour.PriceDiscount, tour.Summary, tour.Description,
		tour.ImageCover, tour.Images, tour.StartDates, tour.SecretTour, tour.StartLocation, tour.Locations,
		tour.ID,
	}

	err := r.db.Transaction(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return err
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return utils.NewNotFoundError("")
		}
		return replaceGuides(ctx, tx, tour.ID, tour.GuideIDs())
	})
	utils.LogDBQuery(query, args, time.Since(startTime), err)

	if err != nil {
		if appErr := utils.ParseError(err); appErr.IsOperational() {
			return appErr
		}
		return fmt.Errorf("failed to update tour: %w", err)
	}
	return nil
}

// Delete removes a tour. Guides, reviews and bookings cascade.
func (r *PostgresTourRepository) Delete(ctx context.Context, id int64) error {
	startTime := time.Now()
	query := "DELETE FROM tours WHERE id = $1 AND secret_tour = FALSE"

	result, err := r.db.ExecContext(ctx, query, id)
	utils.LogDBQuery(query, []interface{}{id}, time.Since(startTime), err)
	if err != nil {
		return fmt.Errorf("failed to delete tour: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return utils.NewNotFoundError("")
	}

	log.Info().Int64("tour_id", id).Msg("Tour deleted")
	return nil
}

// Stats groups well-rated tours by difficulty, cheapest bucket first.
func (r *PostgresTourRepository) Stats(ctx context.Context, minRating float64) ([]*models.TourStats, error) {
	startTime := time.Now()
	query := `
        SELECT UPPER(difficulty) AS difficulty, COUNT(*), COALESCE(SUM(ratings_quantity), 0),
            AVG(ratings_average), AVG(price), MIN(price), MAX(price)
        FROM tours
        WHERE ratings_average >= $1 AND secret_tour = FALSE
        GROUP BY UPPER(difficulty)
        ORDER BY AVG(price) ASC
    `
	rows, err := r.db.QueryContext(ctx, query, minRating)
	utils.LogDBQuery(query, []interface{}{minRating}, time.Since(startTime), err)
	if err != nil {
		return nil, fmt.Errorf("failed to compute tour stats: %w", err)
	}
	defer rows.Close()

	stats := make([]*models.TourStats, 0)
	for rows.Next() {
		s := &models.TourStats{}
		if err := rows.Scan(&s.Difficulty, &s.NumTours, &s.NumRatings, &s.AvgRating, &s.AvgPrice, &s.MinPrice, &s.MaxPrice); err != nil {
			return nil, fmt.Errorf("failed to scan tour stats: %w", err)
		}
		s.AvgRating = utils.RoundTo(s.AvgRating, 2)
		s.AvgPrice = utils.RoundTo(s.AvgPrice, 2)
		stats = append(stats, s)
	}
	return stats, rows.Err()
}

// MonthlyPlan counts tour starts per month of year, busiest month first.
func (r *PostgresTourRepository) MonthlyPlan(ctx context.Context, year int) ([]*models.MonthlyPlan, error) {
	from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(1, 0, 0)

	startTime := time.Now()
	query := `
        SELECT EXTRACT(MONTH FROM d.start_date)::int AS month, COUNT(*) AS num_tour_starts,
            array_agg(t.name ORDER BY t.name) AS tours
        FROM tours t
        CROSS JOIN LATERAL (
            SELECT (jsonb_array_elements_text(t.start_dates))::timestamptz AS start_date
        ) d
        WHERE t.secret_tour = FALSE AND d.start_date >= $1 AND d.start_date < $2
        GROUP BY month
        ORDER BY num_tour_starts DESC, month ASC
        LIMIT 12
    `
	rows, err := r.db.QueryContext(ctx, query, from, to)
	utils.LogDBQuery(query, []interface{}{from, to}, time.Since(startTime), err)
	if err != nil {
		return nil, fmt.Errorf("failed to compute monthly plan: %w", err)
	}
	defer rows.Close()

	plan := make([]*models.MonthlyPlan, 0)
	for rows.Next() {
		p := &models.MonthlyPlan{}
		var names pq.StringArray
		if err := rows.Scan(&p.Month, &p.NumTourStarts, &names); err != nil {
			return nil, fmt.Errorf("failed to scan monthly plan: %w", err)
		}
		p.Tours = []string(names)
		plan = append(plan, p)
	}
	return plan, rows.Err()
}

// haversine is the central angle in radians between the start location of
// tour row t and the point ($1 lat, $2 lng).
const haversine = `2 * ASIN(SQRT(
            POWER(SIN(RADIANS(((t.start_location->'coordinates'->>1)::float8 - $1) / 2)), 2) +
            COS(RADIANS($1)) * COS(RADIANS((t.start_location->'coordinates'->>1)::float8)) *
            POWER(SIN(RADIANS(((t.start_location->'coordinates'->>0)::float8 - $2) / 2)), 2)
        ))`

// Within returns tours whose start location lies within radians of the point.
func (r *PostgresTourRepository) Within(ctx context.Context, lat, lng, radians float64) ([]*models.Tour, error) {
	query := fmt.Sprintf(`
        SELECT %s FROM tours t
        WHERE t.secret_tour = FALSE AND t.start_location IS NOT NULL AND %s <= $3
        ORDER BY t.id
    `, tourColumns, haversine)

	tours, err := r.queryTours(ctx, query, lat, lng, radians)
	if err != nil {
		return nil, err
	}
	if err := r.loadGuides(ctx, tours); err != nil {
		return nil, err
	}
	return tours, nil
}

// Distances returns every tour's distance from the point in meters times
// multiplier, nearest first.
func (r *PostgresTourRepository) Distances(ctx context.Context, lat, lng, multiplier float64) ([]*models.TourDistance, error) {
	startTime := time.Now()
	query := fmt.Sprintf(`
        SELECT t.id, t.name, %s * $3 * $4 AS distance
        FROM tours t
        WHERE t.secret_tour = FALSE AND t.start_location IS NOT NULL
        ORDER BY distance ASC
    `, haversine)

	args := []interface{}{lat, lng, constants.EarthRadiusKm * 1000, multiplier}
	rows, err := r.db.QueryContext(ctx, query, args...)
	utils.LogDBQuery(query, args, time.Since(startTime), err)
	if err != nil {
		return nil, fmt.Errorf("failed to compute distances: %w", err)
	}
	defer rows.Close()

	distances := make([]*models.TourDistance, 0)
	for rows.Next() {
		d := &models.TourDistance{}
		if err := rows.Scan(&d.ID, &d.Name, &d.Distance); err != nil {
			return nil, fmt.Errorf("failed to scan distance: %w", err)
		}
		d.Distance = utils.RoundTo(d.Distance, 2)
		distances = append(distances, d)
	}
	return distances, rows.Err()
}

// Search matches term against name, summary and description.
func (r *PostgresTourRepository) Search(ctx context.Context, term string, limit int) ([]*models.Tour, error) {
	query := fmt.Sprintf(`
        SELECT %s FROM tours
        WHERE secret_tour = FALSE AND (name ILIKE $1 OR summary ILIKE $1 OR description ILIKE $1)
        ORDER BY ratings_average DESC, id ASC
        LIMIT $2
    `, tourColumns)

	tours, err := r.queryTours(ctx, query, "%"+term+"%", limit)
	if err != nil {
		return nil, err
	}
	if err := r.loadGuides(ctx, tours); err != nil {
		return nil, err
	}
	return tours, nil
}

// UpdateRatings stores the recomputed review aggregate of a tour.
func (r *PostgresTourRepository) UpdateRatings(ctx context.Context, tourID int64, quantity int, average float64) error {
	startTime := time.Now()
	query := "UPDATE tours SET ratings_quantity = $1, ratings_average = $2 WHERE id = $3"
	args := []interface{}{quantity, average, tourID}

	_, err := r.db.ExecContext(ctx, query, args...)
	utils.LogDBQuery(query, args, time.Since(startTime), err)
	if err != nil {
		return fmt.Errorf("failed to update tour ratings: %w", err)
	}
	return nil
}

// BookedByUser returns the distinct tours the user has booked.
func (r *PostgresTourRepository) BookedByUser(ctx context.Context, userID int64) ([]*models.Tour, error) {
	query := fmt.Sprintf(`
        SELECT %s FROM tours
        WHERE secret_tour = FALSE AND id IN (SELECT tour_id FROM bookings WHERE user_id = $1)
        ORDER BY name
    `, tourColumns)
	return r.queryTours(ctx, query, userID)
}
