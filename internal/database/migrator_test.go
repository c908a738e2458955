package database

import (
	"os"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixir/conference-catalog-service/migrations"
)

func TestNewMigrator_Validation(t *testing.T) {
	logger := zerolog.Nop()

	t.Run("fails with nil database", func(t *testing.T) {
		migrator, err := NewMigrator(nil, "/some/path", logger)
		require.Error(t, err)
		assert.Nil(t, migrator)
		assert.Contains(t, err.Error(), "database is required")
	})

	t.Run("fails with nil pool", func(t *testing.T) {
		migrator, err := NewMigrator(&DB{}, "/some/path", logger)
		require.Error(t, err)
		assert.Nil(t, migrator)
		assert.Contains(t, err.Error(), "database pool not initialized")
	})
}

func TestOpenSource_InvalidPath(t *testing.T) {
	src, err := openSource("/nonexistent/migrations")

	require.Error(t, err)
	assert.Nil(t, src)
	assert.Contains(t, err.Error(), "migrations path validation failed")
}

func TestOpenSource_Directory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(dir+"/000001_test.up.sql", []byte("SELECT 1;"), 0o600))
	require.NoError(t, os.WriteFile(dir+"/000001_test.down.sql", []byte("SELECT 1;"), 0o600))

	src, err := openSource(dir)
	require.NoError(t, err)
	defer src.Close()

	first, err := src.First()
	require.NoError(t, err)
	assert.Equal(t, uint(1), first)
}

func TestEmbeddedMigrations(t *testing.T) {
	src, err := newEmbeddedSource(migrations.FS)
	require.NoError(t, err)
	defer src.Close()

	first, err := src.First()
	require.NoError(t, err)
	assert.Equal(t, uint(1), first)

	up, identifier, err := src.ReadUp(first)
	require.NoError(t, err)
	defer up.Close()
	assert.Equal(t, "init_catalog", identifier)

	down, _, err := src.ReadDown(first)
	require.NoError(t, err)
	defer down.Close()
}
