// Package scripts loads and removes the development data set.
//
// Import writes the bundled users, tours and reviews through the same
// repositories the API uses, so slugs, defaults and tour ratings are derived
// exactly as they would be for real traffic. A seeds table records the
// import, which makes a second run a no-op until Delete is called.
package scripts

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/yasinhessnawi1/Natours_Backend/internal/auth"
	"github.com/yasinhessnawi1/Natours_Backend/internal/database"
	"github.com/yasinhessnawi1/Natours_Backend/internal/models"
	"github.com/yasinhessnawi1/Natours_Backend/internal/repository"
	"github.com/yasinhessnawi1/Natours_Backend/internal/service"
)

// DevDataSeed is the name recorded in the seeds table after an import.
const DevDataSeed = "dev_data"

//go:embed data/*.json
var devData embed.FS

type userCreator interface {
	Create(ctx context.Context, user *models.User) error
}

type tourCreator interface {
	Create(ctx context.Context, tour *models.Tour) error
}

type reviewCreator interface {
	Create(ctx context.Context, review *models.Review) (*models.Review, error)
}

type seedUser struct {
	Name     string      `json:"name"`
	Email    string      `json:"email"`
	Role     models.Role `json:"role"`
	Photo    string      `json:"photo"`
	Password string      `json:"password"`
}

type seedTour struct {
	models.Tour
	GuideEmails []string `json:"guideEmails"`
}

type seedReview struct {
	Tour   string `json:"tour"`
	User   string `json:"user"`
	Rating int    `json:"rating"`
	Review string `json:"review"`
}

// Seeder imports and deletes the development data set.
type Seeder struct {
	db      *database.Pool
	users   userCreator
	tours   tourCreator
	reviews reviewCreator
	hasher  auth.PasswordHasher
	data    fs.FS
}

// NewSeeder creates a seeder backed by the PostgreSQL repositories.
func NewSeeder(db *database.Pool, hasher auth.PasswordHasher) *Seeder {
	tours := repository.NewTourRepository(db)
	return &Seeder{
		db:      db,
		users:   repository.NewUserRepository(db),
		tours:   tours,
		reviews: service.NewReviewService(repository.NewReviewRepository(db), tours),
		hasher:  hasher,
		data:    devData,
	}
}

// Import loads the development data unless it was imported before.
func (s *Seeder) Import(ctx context.Context) error {
	log.Info().Msg("Importing development data")
	startTime := time.Now()

	if err := s.createSeedsTable(ctx); err != nil {
		return fmt.Errorf("failed to create seeds table: %w", err)
	}

	executed, err := s.getExecutedSeeds(ctx)
	if err != nil {
		return fmt.Errorf("failed to get executed seeds: %w", err)
	}
	if executed[DevDataSeed] {
		log.Info().Str("seed", DevDataSeed).Msg("Development data already imported")
		return nil
	}

	var (
		users   []seedUser
		tours   []seedTour
		reviews []seedReview
	)
	if err := s.load("users.json", &users); err != nil {
		return err
	}
	if err := s.load("tours.json", &tours); err != nil {
		return err
	}
	if err := s.load("reviews.json", &reviews); err != nil {
		return err
	}

	userIDs, err := s.importUsers(ctx, users)
	if err != nil {
		return err
	}
	tourIDs, err := s.importTours(ctx, tours, userIDs)
	if err != nil {
		return err
	}
	if err := s.importReviews(ctx, reviews, tourIDs, userIDs); err != nil {
		return err
	}

	if err := s.recordSeed(ctx, DevDataSeed); err != nil {
		return err
	}

	log.Info().
		Int("users", len(userIDs)).
		Int("tours", len(tourIDs)).
		Int("reviews", len(reviews)).
		Dur("duration", time.Since(startTime)).
		Msg("Development data imported")
	return nil
}

// Delete removes every booking, review, tour and user and clears the import record.
func (s *Seeder) Delete(ctx context.Context) error {
	log.Info().Msg("Deleting all data")

	if err := s.createSeedsTable(ctx); err != nil {
		return fmt.Errorf("failed to create seeds table: %w", err)
	}

	return s.db.Transaction(ctx, func(tx *sql.Tx) error {
		for _, table := range []string{"bookings", "reviews", "tour_guides", "tours", "users"} {
			res, err := tx.ExecContext(ctx, "DELETE FROM "+table)
			if err != nil {
				return fmt.Errorf("failed to delete %s: %w", table, err)
			}
			n, _ := res.RowsAffected()
			log.Info().Str("table", table).Int64("rows", n).Msg("Table cleared")
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM seeds WHERE name = $1`, DevDataSeed); err != nil {
			return fmt.Errorf("failed to clear seed record: %w", err)
		}
		return nil
	})
}

func (s *Seeder) load(name string, dst interface{}) error {
	raw, err := fs.ReadFile(s.data, "data/"+name)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", name, err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("failed to parse %s: %w", name, err)
	}
	return nil
}

// importUsers creates the users and returns their ids by email. Passwords are
// hashed here; the seed files only hold plain development passwords.
func (s *Seeder) importUsers(ctx context.Context, users []seedUser) (map[string]int64, error) {
	ids := make(map[string]int64, len(users))
	for _, su := range users {
		hash, salt, err := s.hasher.Hash(su.Password)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password for %s: %w", su.Email, err)
		}

		user := models.NewUser(su.Name, su.Email)
		user.Role = su.Role
		user.Photo = su.Photo
		user.PasswordHash = hash
		user.PasswordSalt = salt
		user.BeforeSave()
		if err := user.Validate(); err != nil {
			return nil, fmt.Errorf("invalid seed user %s: %w", su.Email, err)
		}

		if err := s.users.Create(ctx, user); err != nil {
			return nil, fmt.Errorf("failed to create user %s: %w", su.Email, err)
		}
		ids[user.Email] = user.ID
	}
	return ids, nil
}

// importTours creates the tours with their guides and returns ids by name.
func (s *Seeder) importTours(ctx context.Context, tours []seedTour, userIDs map[string]int64) (map[string]int64, error) {
	ids := make(map[string]int64, len(tours))
	for i := range tours {
		tour := &tours[i].Tour
		tour.Guides = nil
		for _, email := range tours[i].GuideEmails {
			id, ok := userIDs[email]
			if !ok {
				return nil, fmt.Errorf("tour %q names unknown guide %s", tour.Name, email)
			}
			tour.Guides = append(tour.Guides, models.TourGuide{ID: id})
		}

		tour.BeforeSave()
		if err := tour.Validate(); err != nil {
			return nil, fmt.Errorf("invalid seed tour %q: %w", tour.Name, err)
		}
		if err := s.tours.Create(ctx, tour); err != nil {
			return nil, fmt.Errorf("failed to create tour %q: %w", tour.Name, err)
		}
		ids[tour.Name] = tour.ID
	}
	return ids, nil
}

func (s *Seeder) importReviews(ctx context.Context, reviews []seedReview, tourIDs, userIDs map[string]int64) error {
	for _, sr := range reviews {
		tourID, ok := tourIDs[sr.Tour]
		if !ok {
			return fmt.Errorf("review names unknown tour %q", sr.Tour)
		}
		userID, ok := userIDs[sr.User]
		if !ok {
			return fmt.Errorf("review names unknown user %s", sr.User)
		}

		review := &models.Review{Review: sr.Review, Rating: sr.Rating, TourID: tourID, UserID: userID}
		review.BeforeSave()
		if err := review.Validate(); err != nil {
			return fmt.Errorf("invalid seed review of %q: %w", sr.Tour, err)
		}
		if _, err := s.reviews.Create(ctx, review); err != nil {
			return fmt.Errorf("failed to create review of %q by %s: %w", sr.Tour, sr.User, err)
		}
	}
	return nil
}

func (s *Seeder) createSeedsTable(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS seeds (
			name VARCHAR(255) PRIMARY KEY,
			executed_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP
		)
	`
	_, err := s.db.ExecContext(ctx, query)
	return err
}

// getExecutedSeeds returns the set of recorded seed names.
func (s *Seeder) getExecutedSeeds(ctx context.Context) (map[string]bool, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM seeds`)
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			log.Error().Err(closeErr).Msg("failed to close rows")
		}
	}()

	seeds := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		seeds[name] = true
	}

	return seeds, rows.Err()
}

func (s *Seeder) recordSeed(ctx context.Context, name string) error {
	if _, err := s.db.ExecContext(ctx, `INSERT INTO seeds (name) VALUES ($1)`, name); err != nil {
		return fmt.Errorf("failed to record seed: %w", err)
	}
	return nil
}
