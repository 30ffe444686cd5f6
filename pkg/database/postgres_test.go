package database

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/rotation-portal-api/pkg/config"
)

func TestDSN(t *testing.T) {
	dsn := DSN(config.DatabaseConfig{Host: "db", Port: 5433, User: "portal", Password: "secret", Name: "rotations", SSLMode: "require"})
	assert.Equal(t, "host=db port=5433 user=portal password=secret dbname=rotations sslmode=require application_name=rotation-portal-api connect_timeout=5", dsn)
}

func TestConfigurePool(t *testing.T) {
	mockDB, _, err := sqlmock.New()
	require.NoError(t, err)
	db := sqlx.NewDb(mockDB, "sqlmock")
	t.Cleanup(func() { _ = db.Close() })

	configurePool(db, config.DatabaseConfig{MaxOpenConns: 7, MaxIdleConns: 3, ConnMaxLifetime: time.Hour})
	assert.Equal(t, 7, db.Stats().MaxOpenConnections)
}
