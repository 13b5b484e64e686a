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

// UserRepository defines methods for interacting with user data. Reads only
// ever see active users.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByResetToken(ctx context.Context, tokenHash string, now time.Time) (*models.User, error)
	List(ctx context.Context, q *database.ListQuery) ([]*models.User, int, error)
	Update(ctx context.Context, user *models.User) error
	UpdatePassword(ctx context.Context, id int64, hash, salt string, changedAt time.Time) error
	ResetPassword(ctx context.Context, id int64, tokenHash, hash, salt string, changedAt, now time.Time) error
	SetResetToken(ctx context.Context, id int64, tokenHash *string, expires *time.Time) error
	Deactivate(ctx context.Context, id int64) error
	Delete(ctx context.Context, id int64) error
}

// UserSchema is the list surface of GET /users.
var UserSchema = &database.Schema{
	Fields: map[string]database.Field{
		"id":        {Column: "id", Type: database.FieldInt, Filterable: true, Sortable: true},
		"name":      {Column: "name", Type: database.FieldString, Filterable: true, Sortable: true},
		"email":     {Column: "email", Type: database.FieldString, Filterable: true, Sortable: true},
		"role":      {Column: "role", Type: database.FieldString, Filterable: true, Sortable: true},
		"photo":     {Column: "photo", Type: database.FieldString},
		"createdAt": {Column: "created_at", Type: database.FieldTime, Filterable: true, Sortable: true},
		"updatedAt": {Column: "updated_at", Type: database.FieldTime, Sortable: true},
	},
	Scope:       "active = TRUE",
	DefaultSort: constants.DefaultSort,
}

const userColumns = `id, name, email, photo, role, password_hash, password_salt,
        password_changed_at, password_reset_token, password_reset_expires, active, created_at, updated_at`

// PostgresUserRepository is a PostgreSQL implementation of UserRepository
type PostgresUserRepository struct {
	db *database.Pool
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *database.Pool) UserRepository {
	return &PostgresUserRepository{
		db: db,
	}
}

func scanUser(row rowScanner) (*models.User, error) {
	user := &models.User{}
	var (
		changedAt  sql.NullTime
		resetToken sql.NullString
		resetExp   sql.NullTime
	)
	err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.Photo,
		&user.Role,
		&user.PasswordHash,
		&user.PasswordSalt,
		&changedAt,
		&resetToken,
		&resetExp,
		&user.Active,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if changedAt.Valid {
		user.PasswordChangedAt = &changedAt.Time
	}
	if resetToken.Valid {
		user.PasswordResetToken = &resetToken.String
	}
	if resetExp.Valid {
		user.PasswordResetExpires = &resetExp.Time
	}
	return user, nil
}

// Create adds a new user to the database
func (r *PostgresUserRepository) Create(ctx context.Context, user *models.User) error {
	startTime := time.Now()

	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	user.Active = true

	query := `
        INSERT INTO users (name, email, photo, role, password_hash, password_salt, active, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
        RETURNING id
    `

	err := r.db.QueryRowContext(
		ctx,
		query,
		user.Name,
		user.Email,
		user.Photo,
		user.Role,
		user.PasswordHash,
		user.PasswordSalt,
		user.Active,
		user.CreatedAt,
		user.UpdatedAt,
	).Scan(&user.ID)

	utils.LogDBQuery(
		query,
		[]interface{}{user.Name, user.Email, user.Photo, user.Role, constants.LogRedactedValue, constants.LogRedactedValue, user.Active, user.CreatedAt, user.UpdatedAt},
		time.Since(startTime),
		err,
	)

	if err != nil {
		if appErr := utils.ParseError(err); appErr.IsOperational() {
			return appErr
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	log.Info().
		Int64("user_id", user.ID).
		Str("email", utils.MaskEmail(user.Email)).
		Msg("User created")

	return nil
}

func (r *PostgresUserRepository) getOne(ctx context.Context, where string, args ...interface{}) (*models.User, error) {
	startTime := time.Now()

	query := fmt.Sprintf("SELECT %s FROM users WHERE active = TRUE AND %s", userColumns, where)
	user, err := scanUser(r.db.QueryRowContext(ctx, query, args...))

	utils.LogDBQuery(query, args, time.Since(startTime), err)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, utils.NewNotFoundError("")
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// GetByID retrieves an active user by ID
func (r *PostgresUserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	return r.getOne(ctx, "id = $1", id)
}

// GetByEmail retrieves an active user by email
func (r *PostgresUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getOne(ctx, "LOWER(email) = LOWER($1)", email)
}

// GetByResetToken finds the user holding an unexpired reset token hash.
func (r *PostgresUserRepository) GetByResetToken(ctx context.Context, tokenHash string, now time.Time) (*models.User, error) {
	return r.getOne(ctx, "password_reset_token = $1 AND password_reset_expires > $2", tokenHash, now)
}

// List returns one page of active users and the total match count.
func (r *PostgresUserRepository) List(ctx context.Context, q *database.ListQuery) ([]*models.User, int, error) {
	listSQL, countSQL, listArgs, countArgs := pageQuery("SELECT "+userColumns, "FROM users", q, "id")

	total, err := count(ctx, r.db, countSQL, countArgs)
	if err != nil {
		return nil, 0, err
	}

	startTime := time.Now()
	rows, err := r.db.QueryContext(ctx, listSQL, listArgs...)
	utils.LogDBQuery(listSQL, listArgs, time.Since(startTime), err)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := make([]*models.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating users: %w", err)
	}

	return users, total, nil
}

func (r *PostgresUserRepository) exec(ctx context.Context, query string, args ...interface{}) error {
	startTime := time.Now()
	result, err := r.db.ExecContext(ctx, query, args...)
	utils.LogDBQuery(query, args, time.Since(startTime), err)
	if err != nil {
		if appErr := utils.ParseError(err); appErr.IsOperational() {
			return appErr
		}
		return fmt.Errorf("failed to update user: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return utils.NewNotFoundError("")
	}
	return nil
}

// Update saves the profile fields of a user.
func (r *PostgresUserRepository) Update(ctx context.Context, user *models.User) error {
	user.UpdatedAt = time.Now()

	query := `
        UPDATE users
        SET name = $1, email = $2, photo = $3, role = $4, updated_at = $5
        WHERE id = $6 AND active = TRUE
    `
	return r.exec(ctx, query, user.Name, user.Email, user.Photo, user.Role, user.UpdatedAt, user.ID)
}

// UpdatePassword replaces the credentials, records when they changed and
// invalidates any outstanding reset token.
func (r *PostgresUserRepository) UpdatePassword(ctx context.Context, id int64, hash, salt string, changedAt time.Time) error {
	query := `
        UPDATE users
        SET password_hash = $1, password_salt = $2, password_changed_at = $3,
            password_reset_token = NULL, password_reset_expires = NULL, updated_at = $4
        WHERE id = $5 AND active = TRUE
    `
	return r.exec(ctx, query, hash, salt, changedAt, time.Now(), id)
}

// ResetPassword is UpdatePassword guarded by the reset token: the row only
// changes while tokenHash is still stored and unexpired at now, so a token is
// spent exactly once. A lost race reports not found.
func (r *PostgresUserRepository) ResetPassword(ctx context.Context, id int64, tokenHash, hash, salt string, changedAt, now time.Time) error {
	query := `
        UPDATE users
        SET password_hash = $1, password_salt = $2, password_changed_at = $3,
            password_reset_token = NULL, password_reset_expires = NULL, updated_at = $4
        WHERE id = $5 AND active = TRUE
          AND password_reset_token = $6 AND password_reset_expires > $7
    `
	return r.exec(ctx, query, hash, salt, changedAt, time.Now(), id, tokenHash, now)
}

// SetResetToken stores or, with nil arguments, clears the reset token.
func (r *PostgresUserRepository) SetResetToken(ctx context.Context, id int64, tokenHash *string, expires *time.Time) error {
	query := `
        UPDATE users
        SET password_reset_token = $1, password_reset_expires = $2
        WHERE id = $3
    `
	return r.exec(ctx, query, tokenHash, expires, id)
}

// Deactivate soft deletes a user.
func (r *PostgresUserRepository) Deactivate(ctx context.Context, id int64) error {
	query := `UPDATE users SET active = FALSE, updated_at = $1 WHERE id = $2 AND active = TRUE`
	if err := r.exec(ctx, query, time.Now(), id); err != nil {
		return err
	}

	log.Info().Int64("user_id", id).Msg("User deactivated")
	return nil
}

// Delete removes a user row.
func (r *PostgresUserRepository) Delete(ctx context.Context, id int64) error {
	if err := r.exec(ctx, "DELETE FROM users WHERE id = $1 AND active = TRUE", id); err != nil {
		return err
	}

	log.Info().Int64("user_id", id).Msg("User deleted")
	return nil
}
