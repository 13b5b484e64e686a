package migrations_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yasinhessnawi1/Natours_Backend/internal/database"
	"github.com/yasinhessnawi1/Natours_Backend/migrations"
)

const tableExistsQuery = "SELECT EXISTS\\(SELECT 1\\s+FROM information_schema.tables"

// createMockDB creates a mock database for testing
func createMockDB(t *testing.T) (*database.Pool, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return &database.Pool{DB: db}, mock
}

func existsRow(exists bool) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"exists"}).AddRow(exists)
}

func TestGetMigrations(t *testing.T) {
	var names, tables []string
	for _, m := range migrations.GetMigrations() {
		names = append(names, m.Name)
		tables = append(tables, m.TableName)

		assert.NotEmpty(t, m.Description, m.Name)
		assert.NotNil(t, m.RunSQL, m.Name)
	}

	// Referenced tables come before the tables that point at them.
	assert.Equal(t, []string{"users", "tours", "tour_guides", "reviews", "bookings"}, tables)
	assert.Contains(t, names, "create_reviews_table")
}

func TestRunMigrations(t *testing.T) {
	all := migrations.GetMigrations()

	tests := []struct {
		name    string
		setup   func(sqlmock.Sqlmock)
		wantErr string
	}{
		{
			name: "create migrations table fails",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec("CREATE TABLE IF NOT EXISTS migrations").
					WillReturnError(errors.New("boom"))
			},
			wantErr: "failed to create migrations table",
		},
		{
			name: "reading executed migrations fails",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec("CREATE TABLE IF NOT EXISTS migrations").
					WillReturnResult(sqlmock.NewResult(0, 0))
				mock.ExpectQuery("SELECT name FROM migrations").
					WillReturnError(errors.New("boom"))
			},
			wantErr: "failed to get executed migrations",
		},
		{
			name: "table check fails",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec("CREATE TABLE IF NOT EXISTS migrations").
					WillReturnResult(sqlmock.NewResult(0, 0))
				mock.ExpectQuery("SELECT name FROM migrations").
					WillReturnRows(sqlmock.NewRows([]string{"name"}))
				mock.ExpectQuery(tableExistsQuery).
					WithArgs("users").
					WillReturnError(errors.New("boom"))
			},
			wantErr: "failed to check if table users exists",
		},
		{
			name: "existing tables are recorded",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec("CREATE TABLE IF NOT EXISTS migrations").
					WillReturnResult(sqlmock.NewResult(0, 0))
				mock.ExpectQuery("SELECT name FROM migrations").
					WillReturnRows(sqlmock.NewRows([]string{"name"}))
				for _, m := range all {
					mock.ExpectQuery(tableExistsQuery).
						WithArgs(m.TableName).
						WillReturnRows(existsRow(true))
					mock.ExpectExec("INSERT INTO migrations").
						WithArgs(m.Name, m.Description).
						WillReturnResult(sqlmock.NewResult(1, 1))
				}
			},
		},
		{
			name: "executed migrations are skipped",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec("CREATE TABLE IF NOT EXISTS migrations").
					WillReturnResult(sqlmock.NewResult(0, 0))
				rows := sqlmock.NewRows([]string{"name"})
				for _, m := range all {
					rows.AddRow(m.Name)
				}
				mock.ExpectQuery("SELECT name FROM migrations").WillReturnRows(rows)
			},
		},
		{
			name: "missing table is created in a transaction",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec("CREATE TABLE IF NOT EXISTS migrations").
					WillReturnResult(sqlmock.NewResult(0, 0))
				rows := sqlmock.NewRows([]string{"name"})
				for _, m := range all[:len(all)-1] {
					rows.AddRow(m.Name)
				}
				mock.ExpectQuery("SELECT name FROM migrations").WillReturnRows(rows)

				mock.ExpectQuery(tableExistsQuery).
					WithArgs("bookings").
					WillReturnRows(existsRow(false))
				mock.ExpectBegin()
				mock.ExpectExec("CREATE TABLE IF NOT EXISTS bookings").
					WillReturnResult(sqlmock.NewResult(0, 0))
				mock.ExpectExec("CREATE INDEX IF NOT EXISTS idx_bookings_user").
					WillReturnResult(sqlmock.NewResult(0, 0))
				mock.ExpectExec("CREATE INDEX IF NOT EXISTS idx_bookings_tour").
					WillReturnResult(sqlmock.NewResult(0, 0))
				mock.ExpectExec("INSERT INTO migrations").
					WithArgs("create_bookings_table", "Creates the bookings table").
					WillReturnResult(sqlmock.NewResult(1, 1))
				mock.ExpectCommit()
			},
		},
		{
			name: "failed migration rolls back",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec("CREATE TABLE IF NOT EXISTS migrations").
					WillReturnResult(sqlmock.NewResult(0, 0))
				mock.ExpectQuery("SELECT name FROM migrations").
					WillReturnRows(sqlmock.NewRows([]string{"name"}))
				mock.ExpectQuery(tableExistsQuery).
					WithArgs("users").
					WillReturnRows(existsRow(false))
				mock.ExpectBegin()
				mock.ExpectExec("CREATE TABLE IF NOT EXISTS users").
					WillReturnError(errors.New("permission denied"))
				mock.ExpectRollback()
			},
			wantErr: "migration create_users_table failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pool, mock := createMockDB(t)
			tt.setup(mock)

			err := migrations.NewMigrator(pool).RunMigrations(context.Background())

			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestVerifyTables(t *testing.T) {
	pool, mock := createMockDB(t)

	for _, m := range migrations.GetMigrations() {
		mock.ExpectQuery(tableExistsQuery).
			WithArgs(m.TableName).
			WillReturnRows(existsRow(m.TableName != "reviews"))
	}

	missing, err := migrations.NewMigrator(pool).VerifyTables(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"reviews"}, missing)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVerifyTables_QueryError(t *testing.T) {
	pool, mock := createMockDB(t)
	mock.ExpectQuery(tableExistsQuery).WillReturnError(sql.ErrConnDone)

	_, err := migrations.NewMigrator(pool).VerifyTables(context.Background())
	assert.ErrorIs(t, err, sql.ErrConnDone)
}
