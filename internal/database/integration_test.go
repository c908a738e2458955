//go:build integration

package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/helixir/conference-catalog-service/internal/config"
)

// startPostgres runs a throwaway Postgres container and returns a connected DB.
func startPostgres(t *testing.T) *DB {
	t.Helper()
	ctx := context.Background()

	ctr, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("conference_catalog"),
		tcpostgres.WithUsername("confcatalog"),
		tcpostgres.WithPassword("confcatalog"),
		tcpostgres.BasicWaitStrategies(),
	)
	testcontainers.CleanupContainer(t, ctr)
	require.NoError(t, err)

	host, err := ctr.Host(ctx)
	require.NoError(t, err)
	port, err := ctr.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)

	cfg := &config.DatabaseConfig{
		Host:              host,
		Port:              port.Int(),
		User:              "confcatalog",
		Password:          "confcatalog",
		Name:              "conference_catalog",
		SSLMode:           config.SSLModeDisable,
		MaxConns:          5,
		MinConns:          1,
		MaxConnLifetime:   time.Hour,
		MaxConnIdleTime:   time.Minute,
		HealthCheckPeriod: time.Minute,
		ConnectTimeout:    10 * time.Second,
	}

	db, err := New(ctx, cfg, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(db.Close)
	return db
}

func TestIntegration_MigrateAndTransact(t *testing.T) {
	db := startPostgres(t)
	ctx := context.Background()

	migrator, err := NewMigrator(db, "", zerolog.Nop())
	require.NoError(t, err)
	defer migrator.Close()

	require.NoError(t, migrator.Up())
	version, dirty, err := migrator.Version()
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)
	assert.False(t, dirty)

	t.Run("health", func(t *testing.T) {
		assert.Equal(t, "healthy", db.Health(ctx).Status)
	})

	t.Run("commit", func(t *testing.T) {
		err := db.WithTransaction(ctx, func(tx pgx.Tx) error {
			_, err := tx.Exec(ctx, `INSERT INTO authors (id, name) VALUES (gen_random_uuid(), 'Committed')`)
			return err
		})
		require.NoError(t, err)

		var n int
		require.NoError(t, db.QueryRow(ctx, `SELECT count(*) FROM authors WHERE name = 'Committed'`).Scan(&n))
		assert.Equal(t, 1, n)
	})

	t.Run("rollback", func(t *testing.T) {
		boom := errors.New("boom")
		err := db.WithTransaction(ctx, func(tx pgx.Tx) error {
			if _, err := tx.Exec(ctx, `INSERT INTO authors (id, name) VALUES (gen_random_uuid(), 'RolledBack')`); err != nil {
				return err
			}
			return boom
		})
		assert.ErrorIs(t, err, boom)

		var n int
		require.NoError(t, db.QueryRow(ctx, `SELECT count(*) FROM authors WHERE name = 'RolledBack'`).Scan(&n))
		assert.Equal(t, 0, n)
	})

	require.NoError(t, migrator.Down())
}
