package database

import (
	"context"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixir/conference-catalog-service/internal/config"
)

// mockDBTX is a compile-time check that DBTX stays satisfiable by test doubles.
type mockDBTX struct{}

func (m *mockDBTX) Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}

func (m *mockDBTX) Query(context.Context, string, ...interface{}) (pgx.Rows, error) {
	return nil, nil
}

func (m *mockDBTX) QueryRow(context.Context, string, ...interface{}) pgx.Row {
	return nil
}

func (m *mockDBTX) SendBatch(context.Context, *pgx.Batch) pgx.BatchResults {
	return nil
}

var _ DBTX = (*mockDBTX)(nil)

func TestHealthStatus_JSON(t *testing.T) {
	t.Run("error omitted when healthy", func(t *testing.T) {
		data, err := json.Marshal(HealthStatus{Status: "healthy", TotalConns: 3, MaxConns: 20})
		require.NoError(t, err)

		assert.NotContains(t, string(data), `"error"`)
		assert.Contains(t, string(data), `"status":"healthy"`)
		assert.Contains(t, string(data), `"max_conns":20`)
	})

	t.Run("error included when unhealthy", func(t *testing.T) {
		data, err := json.Marshal(HealthStatus{Status: "unhealthy", Error: "connection refused"})
		require.NoError(t, err)

		var decoded HealthStatus
		require.NoError(t, json.Unmarshal(data, &decoded))
		assert.Equal(t, "connection refused", decoded.Error)
	})
}

func TestNew_UnreachableHost(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping network test in short mode")
	}

	// 192.0.2.1 is TEST-NET-1 (RFC 5737), guaranteed unroutable.
	cfg := &config.DatabaseConfig{
		Host:              "192.0.2.1",
		Port:              5432,
		Name:              "testdb",
		User:              "user",
		Password:          "pass",
		SSLMode:           config.SSLModeDisable,
		MaxConns:          5,
		MinConns:          0,
		MaxConnLifetime:   time.Hour,
		MaxConnIdleTime:   30 * time.Minute,
		HealthCheckPeriod: 30 * time.Second,
		ConnectTimeout:    2 * time.Second,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	db, err := New(ctx, cfg, zerolog.Nop())
	require.Error(t, err)
	assert.Nil(t, db)
}

func TestDB_CloseNilPool(t *testing.T) {
	db := &DB{}
	assert.NotPanics(t, func() {
		db.Close()
	})
}
