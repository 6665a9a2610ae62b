package storage

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRebind(t *testing.T) {
	assert.Equal(t, "SELECT a FROM t WHERE x = $1 AND y = $2", rebind(DriverPostgres, "SELECT a FROM t WHERE x = ? AND y = ?"))
	assert.Equal(t, "SELECT a FROM t WHERE x = ?", rebind(DriverSQLite, "SELECT a FROM t WHERE x = ?"))
}

func TestSQLBackend_Get(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	backend := NewSQLBackend(db, DriverPostgres)
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta("SELECT payload FROM storefront_kv WHERE slot = $1")).
			WithArgs(CartKey).
			WillReturnRows(sqlmock.NewRows([]string{"payload"}).AddRow(`[{"id":"p1"}]`))

		data, err := backend.Get(ctx, CartKey)
		require.NoError(t, err)
		assert.Equal(t, `[{"id":"p1"}]`, string(data))
	})

	t.Run("missing", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta("SELECT payload FROM storefront_kv WHERE slot = $1")).
			WithArgs(CartKey).
			WillReturnRows(sqlmock.NewRows([]string{"payload"}))

		_, err := backend.Get(ctx, CartKey)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("db error", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta("SELECT payload FROM storefront_kv WHERE slot = $1")).
			WithArgs(CartKey).
			WillReturnError(errors.New("connection reset"))

		_, err := backend.Get(ctx, CartKey)
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrNotFound)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLBackend_SetAndDelete(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	backend := NewSQLBackend(db, DriverSQLite)
	ctx := context.Background()

	mock.ExpectExec("INSERT INTO storefront_kv .* ON CONFLICT \\(slot\\) DO UPDATE").
		WithArgs(CartKey, `[]`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM storefront_kv WHERE slot = ?")).
		WithArgs(CartKey).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, backend.Set(ctx, CartKey, []byte(`[]`)))
	require.NoError(t, backend.Delete(ctx, CartKey))
	assert.Equal(t, DriverSQLite, backend.Name())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLBackend_SetError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("INSERT INTO storefront_kv").WillReturnError(errors.New("read-only transaction"))

	err = NewSQLBackend(db, DriverPostgres).Set(context.Background(), CartKey, []byte(`[]`))
	assert.ErrorContains(t, err, "read-only transaction")
}

func TestMigrator_RunMigrations(t *testing.T) {
	t.Run("applies pending", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectExec("CREATE TABLE IF NOT EXISTS schema_migrations").WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery("SELECT version FROM schema_migrations").WillReturnRows(sqlmock.NewRows([]string{"version"}))
		mock.ExpectBegin()
		mock.ExpectExec("CREATE TABLE IF NOT EXISTS storefront_kv").WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO schema_migrations (version, name) VALUES ($1, $2)")).
			WithArgs(1, "create_storefront_kv").
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectCommit()

		require.NoError(t, NewMigrator(db, DriverPostgres).RunMigrations(context.Background()))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("skips applied", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectExec("CREATE TABLE IF NOT EXISTS schema_migrations").WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery("SELECT version FROM schema_migrations").
			WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow(1))

		require.NoError(t, NewMigrator(db, DriverPostgres).RunMigrations(context.Background()))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back on failure", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectExec("CREATE TABLE IF NOT EXISTS schema_migrations").WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery("SELECT version FROM schema_migrations").WillReturnRows(sqlmock.NewRows([]string{"version"}))
		mock.ExpectBegin()
		mock.ExpectExec("CREATE TABLE IF NOT EXISTS storefront_kv").WillReturnError(errors.New("permission denied"))
		mock.ExpectRollback()

		err = NewMigrator(db, DriverSQLite).RunMigrations(context.Background())
		assert.ErrorContains(t, err, "failed to execute migration 1")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestMigrator_LoadMigrations(t *testing.T) {
	migrations, err := NewMigrator(nil, DriverPostgres).LoadMigrations()
	require.NoError(t, err)
	require.NotEmpty(t, migrations)
	assert.Equal(t, 1, migrations[0].Version)
	assert.Equal(t, "create_storefront_kv", migrations[0].Name)
	assert.Contains(t, migrations[0].SQL, "storefront_kv")
}

func TestMigrator_Status(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS schema_migrations").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT version FROM schema_migrations").
		WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow(1))

	status, err := NewMigrator(db, DriverPostgres).Status(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, status)
	assert.Equal(t, 1, status[0].Version)
	assert.True(t, status[0].Applied)
	assert.NoError(t, mock.ExpectationsWereMet())
}
