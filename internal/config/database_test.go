package config

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPostgresConnection_InvalidURL(t *testing.T) {
	t.Run("invalid database url", func(t *testing.T) {
		db, err := NewPostgresConnection(context.Background(), "invalid://malformed")
		assert.Error(t, err)
		assert.Nil(t, db)
	})

	t.Run("empty database url", func(t *testing.T) {
		db, err := NewPostgresConnection(context.Background(), "")
		assert.Error(t, err)
		assert.Nil(t, db)
	})
}

func TestConfigurePool(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	configurePool(db)

	assert.Equal(t, 25, db.Stats().MaxOpenConnections)
}

func TestVerifyConnection(t *testing.T) {
	t.Run("ping succeeds", func(t *testing.T) {
		db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectPing()

		require.NoError(t, verifyConnection(context.Background(), db))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("ping fails", func(t *testing.T) {
		db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectPing().WillReturnError(errors.New("connection refused"))

		err = verifyConnection(context.Background(), db)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to ping database")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestNewRedisClient_InvalidURL(t *testing.T) {
	client, err := NewRedisClient(context.Background(), "ftp://not-redis")
	assert.Nil(t, client)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid REDIS_URL")
}
