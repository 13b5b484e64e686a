package repository_test

import (
	"context"
	"database/sql"
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yasinhessnawi1/Natours_Backend/internal/database"
	"github.com/yasinhessnawi1/Natours_Backend/internal/models"
	"github.com/yasinhessnawi1/Natours_Backend/internal/repository"
	"github.com/yasinhessnawi1/Natours_Backend/internal/utils"
)

var userCols = []string{"id", "name", "email", "photo", "role", "password_hash", "password_salt",
	"password_changed_at", "password_reset_token", "password_reset_expires", "active", "created_at", "updated_at"}

// setupUserRepositoryTest creates a new test database connection and mock
func setupUserRepositoryTest(t *testing.T) (*repository.PostgresUserRepository, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	repo := repository.NewUserRepository(&database.Pool{DB: db}).(*repository.PostgresUserRepository)

	return repo, mock, func() {
		db.Close()
	}
}

func userRow(id int64, email string, changedAt interface{}) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(userCols).
		AddRow(id, "Test User", email, "default.jpg", "user", "hash", "salt", changedAt, nil, nil, true, now, now)
}

func TestUserRepository_Create(t *testing.T) {
	repo, mock, cleanup := setupUserRepositoryTest(t)
	defer cleanup()

	user := models.NewUser("Test User", "test@example.com")
	user.PasswordHash, user.PasswordSalt = "hashed_password", "salt_value"

	mock.ExpectQuery("INSERT INTO users").
		WithArgs(user.Name, user.Email, user.Photo, user.Role, user.PasswordHash, user.PasswordSalt, true, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))

	err := repo.Create(context.Background(), user)

	assert.NoError(t, err)
	assert.Equal(t, int64(1), user.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_Create_DuplicateEmail(t *testing.T) {
	repo, mock, cleanup := setupUserRepositoryTest(t)
	defer cleanup()

	user := models.NewUser("Test User", "dup@example.com")

	mock.ExpectQuery("INSERT INTO users").
		WillReturnError(&pq.Error{
			Code:   "23505",
			Detail: "Key (email)=(dup@example.com) already exists.",
		})

	err := repo.Create(context.Background(), user)

	require.Error(t, err)
	appErr := utils.ParseError(err)
	assert.Equal(t, 400, appErr.StatusCode)
	assert.Contains(t, appErr.Message, "dup@example.com already exists")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_Create_DatabaseError(t *testing.T) {
	repo, mock, cleanup := setupUserRepositoryTest(t)
	defer cleanup()

	mock.ExpectQuery("INSERT INTO users").WillReturnError(errors.New("database connection error"))

	err := repo.Create(context.Background(), models.NewUser("Test User", "x@example.com"))

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create user")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_GetByID(t *testing.T) {
	repo, mock, cleanup := setupUserRepositoryTest(t)
	defer cleanup()

	changed := time.Now().Add(-time.Hour)
	mock.ExpectQuery("SELECT (.+) FROM users WHERE active = TRUE AND id = \\$1").
		WithArgs(int64(5)).
		WillReturnRows(userRow(5, "five@example.com", changed))

	user, err := repo.GetByID(context.Background(), 5)

	require.NoError(t, err)
	assert.Equal(t, int64(5), user.ID)
	assert.Equal(t, models.RoleUser, user.Role)
	require.NotNil(t, user.PasswordChangedAt)
	assert.WithinDuration(t, changed, *user.PasswordChangedAt, time.Second)
	assert.Nil(t, user.PasswordResetToken)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_GetByID_NotFound(t *testing.T) {
	repo, mock, cleanup := setupUserRepositoryTest(t)
	defer cleanup()

	mock.ExpectQuery("SELECT (.+) FROM users").WithArgs(int64(9)).WillReturnError(sql.ErrNoRows)

	user, err := repo.GetByID(context.Background(), 9)

	assert.Nil(t, user)
	assert.True(t, utils.IsNotFoundError(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_GetByEmail(t *testing.T) {
	repo, mock, cleanup := setupUserRepositoryTest(t)
	defer cleanup()

	mock.ExpectQuery("LOWER\\(email\\) = LOWER\\(\\$1\\)").
		WithArgs("Test@Example.com").
		WillReturnRows(userRow(3, "test@example.com", nil))

	user, err := repo.GetByEmail(context.Background(), "Test@Example.com")

	require.NoError(t, err)
	assert.Nil(t, user.PasswordChangedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_GetByResetToken(t *testing.T) {
	repo, mock, cleanup := setupUserRepositoryTest(t)
	defer cleanup()

	now := time.Now()
	mock.ExpectQuery("password_reset_token = \\$1 AND password_reset_expires > \\$2").
		WithArgs("hash", now).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByResetToken(context.Background(), "hash", now)
	assert.True(t, utils.IsNotFoundError(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_List(t *testing.T) {
	repo, mock, cleanup := setupUserRepositoryTest(t)
	defer cleanup()

	q, err := database.ParseListQuery(url.Values{"role": {"guide,lead-guide"}, "limit": {"2"}}, repository.UserSchema)
	require.NoError(t, err)

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM users WHERE active = TRUE AND role IN \\(\\$1, \\$2\\)").
		WithArgs("guide", "lead-guide").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectQuery("SELECT (.+) FROM users WHERE active = TRUE AND role IN (.+) ORDER BY created_at DESC, id ASC LIMIT \\$3 OFFSET \\$4").
		WithArgs("guide", "lead-guide", 2, 0).
		WillReturnRows(userRow(1, "a@example.com", nil))

	users, total, err := repo.List(context.Background(), q)

	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Len(t, users, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_UpdatePassword(t *testing.T) {
	repo, mock, cleanup := setupUserRepositoryTest(t)
	defer cleanup()

	changed := time.Now()
	mock.ExpectExec("UPDATE users SET password_hash").
		WithArgs("h", "s", changed, sqlmock.AnyArg(), int64(4)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, repo.UpdatePassword(context.Background(), 4, "h", "s", changed))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_ResetPassword(t *testing.T) {
	repo, mock, cleanup := setupUserRepositoryTest(t)
	defer cleanup()

	changed := time.Now()
	now := changed.Add(time.Second)
	query := "UPDATE users SET password_hash (.+) WHERE id = \\$5 AND active = TRUE AND password_reset_token = \\$6 AND password_reset_expires > \\$7"

	mock.ExpectExec(query).
		WithArgs("h", "s", changed, sqlmock.AnyArg(), int64(4), "token-hash", now).
		WillReturnResult(sqlmock.NewResult(0, 1))
	// A second reset with the same token finds it already spent.
	mock.ExpectExec(query).
		WithArgs("h2", "s2", changed, sqlmock.AnyArg(), int64(4), "token-hash", now).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.NoError(t, repo.ResetPassword(context.Background(), 4, "token-hash", "h", "s", changed, now))

	err := repo.ResetPassword(context.Background(), 4, "token-hash", "h2", "s2", changed, now)
	assert.True(t, utils.IsNotFoundError(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_SetResetToken(t *testing.T) {
	repo, mock, cleanup := setupUserRepositoryTest(t)
	defer cleanup()

	hash := "abc"
	expires := time.Now().Add(10 * time.Minute)
	mock.ExpectExec("UPDATE users SET password_reset_token").
		WithArgs(&hash, &expires, int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE users SET password_reset_token").
		WithArgs(nil, nil, int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, repo.SetResetToken(context.Background(), 2, &hash, &expires))
	assert.NoError(t, repo.SetResetToken(context.Background(), 2, nil, nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_Deactivate(t *testing.T) {
	repo, mock, cleanup := setupUserRepositoryTest(t)
	defer cleanup()

	mock.ExpectExec("UPDATE users SET active = FALSE").
		WithArgs(sqlmock.AnyArg(), int64(8)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Deactivate(context.Background(), 8)
	assert.True(t, utils.IsNotFoundError(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_Delete(t *testing.T) {
	repo, mock, cleanup := setupUserRepositoryTest(t)
	defer cleanup()

	mock.ExpectExec("DELETE FROM users").WithArgs(int64(8)).WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, repo.Delete(context.Background(), 8))
	assert.NoError(t, mock.ExpectationsWereMet())
}
