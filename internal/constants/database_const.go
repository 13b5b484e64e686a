// Package constants provides shared constant values used throughout the application.
//
// The database_const.go file defines table names, column names and PostgreSQL error
// codes so SQL strings and error translation stay consistent across repositories.
package constants

// Table Names define the names of database tables used in the application.
const (
	// TableUsers stores user accounts and their credential metadata.
	TableUsers = "users"

	// TableTours stores the tour catalogue.
	TableTours = "tours"

	// TableTourGuides links tours to the users guiding them.
	TableTourGuides = "tour_guides"

	// TableReviews stores user reviews of tours.
	TableReviews = "reviews"

	// TableBookings stores paid tour bookings.
	TableBookings = "bookings"

	// TableSchemaMigrations tracks executed migrations.
	TableSchemaMigrations = "schema_migrations"
)

// Common Column Names define frequently used database column names.
const (
	ColumnID                   = "id"
	ColumnUserID               = "user_id"
	ColumnTourID               = "tour_id"
	ColumnCreatedAt            = "created_at"
	ColumnEmail                = "email"
	ColumnActive               = "active"
	ColumnSecretTour           = "secret_tour"
	ColumnPasswordResetToken   = "password_reset_token"
	ColumnPasswordResetExpires = "password_reset_expires"
)

// Database Schema Names define the names of database schemas.
const (
	// SchemaInformation is the name of the PostgreSQL information schema.
	SchemaInformation = "information_schema"
)

// PostgreSQL error codes translated by utils.ParseError.
const (
	// PGErrorDuplicateConstraint is raised on unique constraint violations.
	PGErrorDuplicateConstraint = "23505"

	// PGErrorForeignKeyConstraint is raised on foreign key violations.
	PGErrorForeignKeyConstraint = "23503"

	// PGErrorNotNullConstraint is raised on not-null violations.
	PGErrorNotNullConstraint = "23502"

	// PGErrorCheckConstraint is raised when a CHECK constraint fails.
	PGErrorCheckConstraint = "23514"

	// PGErrorInvalidTextRepresentation is raised when a value cannot be cast, e.g. a malformed id.
	PGErrorInvalidTextRepresentation = "22P02"
)
