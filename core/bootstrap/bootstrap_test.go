package bootstrap

import (
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coreconfig "github.com/m3rciful/phonebook/core/config"
	coredatabase "github.com/m3rciful/phonebook/core/database"
)

func noLogger(*coreconfig.Config) error { return nil }

func TestRunWithoutDatabase(t *testing.T) {
	connected := false
	res, err := Run(Options{
		Config:     &coreconfig.Config{},
		LoggerInit: noLogger,
		Connect: func(coredatabase.Config) (*sqlx.DB, error) {
			connected = true
			return nil, nil
		},
	})
	require.NoError(t, err)
	assert.Nil(t, res.DB)
	assert.False(t, connected)
	assert.NoError(t, res.Close())
}

func TestRunConnectsAndMigrates(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	db := sqlx.NewDb(mockDB, "sqlmock")

	var migrated coredatabase.Config
	res, err := Run(Options{
		Config:     &coreconfig.Config{},
		Database:   &coredatabase.Config{Host: "db", Name: "phonebook"},
		LoggerInit: noLogger,
		Connect:    func(coredatabase.Config) (*sqlx.DB, error) { return db, nil },
		Migrate: func(cfg coredatabase.Config) error {
			migrated = cfg
			return nil
		},
	})
	require.NoError(t, err)
	assert.Same(t, db, res.DB)
	assert.Equal(t, "phonebook", migrated.Name)

	mock.ExpectClose()
	require.NoError(t, res.Close())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRunClosesPoolWhenMigrationFails(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	mock.ExpectClose()

	_, err = Run(Options{
		Config:     &coreconfig.Config{},
		Database:   &coredatabase.Config{},
		LoggerInit: noLogger,
		Connect:    func(coredatabase.Config) (*sqlx.DB, error) { return sqlx.NewDb(mockDB, "sqlmock"), nil },
		Migrate:    func(coredatabase.Config) error { return errors.New("dirty") },
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "migrations failed")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRunRequiresConfig(t *testing.T) {
	_, err := Run(Options{})
	require.Error(t, err)
}

func TestRunPropagatesLoggerFailure(t *testing.T) {
	_, err := Run(Options{
		Config:     &coreconfig.Config{},
		LoggerInit: func(*coreconfig.Config) error { return errors.New("no dir") },
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "logger init failed")
}
