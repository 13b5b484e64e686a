package migrations

import (
	"context"
	"database/sql"
)

// execAll runs each statement in order inside tx.
func execAll(ctx context.Context, tx *sql.Tx, statements ...string) error {
	for _, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// createUsersTable creates the users table
func createUsersTable() Migration {
	return Migration{
		Name:        "create_users_table",
		Description: "Creates the users table",
		TableName:   "users",
		RunSQL: func(ctx context.Context, tx *sql.Tx) error {
			return execAll(ctx, tx,
				`CREATE TABLE IF NOT EXISTS users (
					id BIGSERIAL PRIMARY KEY,
					name VARCHAR(100) NOT NULL,
					email VARCHAR(255) NOT NULL,
					photo VARCHAR(255) NOT NULL DEFAULT 'default.jpg',
					role VARCHAR(20) NOT NULL DEFAULT 'user'
						CHECK (role IN ('user', 'guide', 'lead-guide', 'admin')),
					password_hash VARCHAR(255) NOT NULL,
					password_salt VARCHAR(255) NOT NULL,
					password_changed_at TIMESTAMPTZ,
					password_reset_token VARCHAR(128),
					password_reset_expires TIMESTAMPTZ,
					active BOOLEAN NOT NULL DEFAULT TRUE,
					created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
					updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
					CONSTRAINT idx_users_email UNIQUE (email)
				)`,
				`CREATE INDEX IF NOT EXISTS idx_users_reset_token ON users(password_reset_token)`,
			)
		},
	}
}

// createToursTable creates the tours table. Locations and start dates are
// stored as JSONB documents.
func createToursTable() Migration {
	return Migration{
		Name:        "create_tours_table",
		Description: "Creates the tours table",
		TableName:   "tours",
		RunSQL: func(ctx context.Context, tx *sql.Tx) error {
			return execAll(ctx, tx,
				`CREATE TABLE IF NOT EXISTS tours (
					id BIGSERIAL PRIMARY KEY,
					name VARCHAR(40) NOT NULL,
					slug VARCHAR(60) NOT NULL,
					duration INTEGER NOT NULL CHECK (duration > 0),
					max_group_size INTEGER NOT NULL CHECK (max_group_size > 0),
					difficulty VARCHAR(20) NOT NULL
						CHECK (difficulty IN ('easy', 'medium', 'difficult')),
					ratings_average NUMERIC(2, 1) NOT NULL DEFAULT 4.5
						CHECK (ratings_average BETWEEN 1 AND 5),
					ratings_quantity INTEGER NOT NULL DEFAULT 0,
					price NUMERIC(10, 2) NOT NULL CHECK (price > 0),
					price_discount NUMERIC(10, 2),
					summary TEXT NOT NULL,
					description TEXT NOT NULL DEFAULT '',
					image_cover VARCHAR(255) NOT NULL,
					images TEXT[] NOT NULL DEFAULT '{}',
					start_dates JSONB NOT NULL DEFAULT '[]',
					secret_tour BOOLEAN NOT NULL DEFAULT FALSE,
					start_location JSONB,
					locations JSONB NOT NULL DEFAULT '[]',
					created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
					CONSTRAINT idx_tours_name UNIQUE (name),
					CONSTRAINT chk_tours_discount CHECK (price_discount IS NULL OR price_discount < price)
				)`,
				`CREATE INDEX IF NOT EXISTS idx_tours_price_rating ON tours(price, ratings_average DESC)`,
				`CREATE INDEX IF NOT EXISTS idx_tours_slug ON tours(slug)`,
			)
		},
	}
}

// createTourGuidesTable creates the join table between tours and their guides.
func createTourGuidesTable() Migration {
	return Migration{
		Name:        "create_tour_guides_table",
		Description: "Creates the tour_guides table",
		TableName:   "tour_guides",
		RunSQL: func(ctx context.Context, tx *sql.Tx) error {
			return execAll(ctx, tx,
				`CREATE TABLE IF NOT EXISTS tour_guides (
					tour_id BIGINT NOT NULL,
					user_id BIGINT NOT NULL,
					PRIMARY KEY (tour_id, user_id),
					CONSTRAINT fk_tour_guides_tour FOREIGN KEY (tour_id) REFERENCES tours(id) ON DELETE CASCADE,
					CONSTRAINT fk_tour_guides_user FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
				)`,
				`CREATE INDEX IF NOT EXISTS idx_tour_guides_user ON tour_guides(user_id)`,
			)
		},
	}
}

// createReviewsTable creates the reviews table. A user reviews a tour at most once.
func createReviewsTable() Migration {
	return Migration{
		Name:        "create_reviews_table",
		Description: "Creates the reviews table",
		TableName:   "reviews",
		RunSQL: func(ctx context.Context, tx *sql.Tx) error {
			return execAll(ctx, tx,
				`CREATE TABLE IF NOT EXISTS reviews (
					id BIGSERIAL PRIMARY KEY,
					review TEXT NOT NULL,
					rating SMALLINT NOT NULL CHECK (rating BETWEEN 1 AND 5),
					tour_id BIGINT NOT NULL,
					user_id BIGINT NOT NULL,
					created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
					CONSTRAINT fk_reviews_tour FOREIGN KEY (tour_id) REFERENCES tours(id) ON DELETE CASCADE,
					CONSTRAINT fk_reviews_user FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE,
					CONSTRAINT idx_reviews_tour_user UNIQUE (tour_id, user_id)
				)`,
			)
		},
	}
}

// createBookingsTable creates the bookings table
func createBookingsTable() Migration {
	return Migration{
		Name:        "create_bookings_table",
		Description: "Creates the bookings table",
		TableName:   "bookings",
		RunSQL: func(ctx context.Context, tx *sql.Tx) error {
			return execAll(ctx, tx,
				`CREATE TABLE IF NOT EXISTS bookings (
					id BIGSERIAL PRIMARY KEY,
					tour_id BIGINT NOT NULL,
					user_id BIGINT NOT NULL,
					price NUMERIC(10, 2) NOT NULL,
					paid BOOLEAN NOT NULL DEFAULT TRUE,
					created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
					CONSTRAINT fk_bookings_tour FOREIGN KEY (tour_id) REFERENCES tours(id) ON DELETE CASCADE,
					CONSTRAINT fk_bookings_user FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
				)`,
				`CREATE INDEX IF NOT EXISTS idx_bookings_user ON bookings(user_id)`,
				`CREATE INDEX IF NOT EXISTS idx_bookings_tour ON bookings(tour_id)`,
			)
		},
	}
}
