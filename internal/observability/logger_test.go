package observability

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultLoggingConfig(t *testing.T) {
	cfg := DefaultLoggingConfig()

	assert.Equal(t, "info", cfg.Level)
	assert.Equal(t, "json", cfg.Format)
	assert.Equal(t, "stdout", cfg.Output)
	assert.False(t, cfg.AddSource)
}

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name  string
		cfg   LoggingConfig
		level zerolog.Level
	}{
		{"defaults", DefaultLoggingConfig(), zerolog.InfoLevel},
		{"debug json", LoggingConfig{Level: "debug", Format: "json", Output: "stdout"}, zerolog.DebugLevel},
		{"console", LoggingConfig{Level: "warn", Format: "console", Output: "stdout"}, zerolog.WarnLevel},
		{"pretty on stderr", LoggingConfig{Level: "error", Format: "pretty", Output: "stderr"}, zerolog.ErrorLevel},
		{"empty time format", LoggingConfig{Level: "info"}, zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := NewLogger(tt.cfg)
			assert.Equal(t, tt.level, logger.GetLevel())
		})
	}
	zerolog.SetGlobalLevel(zerolog.TraceLevel)
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected zerolog.Level
	}{
		{"trace", zerolog.TraceLevel},
		{"TRACE", zerolog.TraceLevel},
		{"debug", zerolog.DebugLevel},
		{"DEBUG", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"INFO", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"WARN", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"WARNING", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"ERROR", zerolog.ErrorLevel},
		{"fatal", zerolog.FatalLevel},
		{"FATAL", zerolog.FatalLevel},
		{"panic", zerolog.PanicLevel},
		{"PANIC", zerolog.PanicLevel},
		{" Debug ", zerolog.DebugLevel},
		{"unknown", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := parseLevel(tt.input)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestWithComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	enriched := WithComponent(logger, "enrichment")
	enriched.Info().Msg("started")

	var logEntry map[string]interface{}
	err := json.Unmarshal(buf.Bytes(), &logEntry)
	require.NoError(t, err)

	assert.Equal(t, "enrichment", logEntry["component"])
}

func TestWithSubmissionContext(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	enriched := WithSubmissionContext(logger, "sub-1", "NeurIPS 2024")
	enriched.Info().Msg("submission enriched")

	var logEntry map[string]interface{}
	err := json.Unmarshal(buf.Bytes(), &logEntry)
	require.NoError(t, err)

	assert.Equal(t, "sub-1", logEntry["submission_id"])
	assert.Equal(t, "NeurIPS 2024", logEntry["conference"])
}

func TestWithLookupContext(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	enriched := WithLookupContext(logger, "semantic_scholar", "Andrew Ng")
	enriched.Info().Msg("lookup")

	var logEntry map[string]interface{}
	err := json.Unmarshal(buf.Bytes(), &logEntry)
	require.NoError(t, err)

	assert.Equal(t, "semantic_scholar", logEntry["source"])
	assert.Equal(t, "Andrew Ng", logEntry["query"])
}

func TestLoggerContextChaining(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	enriched := WithComponent(logger, "enrichment")
	enriched = WithSubmissionContext(enriched, "sub-1", "CHI 2024")
	enriched = WithLookupContext(enriched, "semantic_scholar", "Don Norman")
	enriched.Info().Msg("chained context")

	var logEntry map[string]interface{}
	err := json.Unmarshal(buf.Bytes(), &logEntry)
	require.NoError(t, err)

	assert.Equal(t, "enrichment", logEntry["component"])
	assert.Equal(t, "sub-1", logEntry["submission_id"])
	assert.Equal(t, "CHI 2024", logEntry["conference"])
	assert.Equal(t, "semantic_scholar", logEntry["source"])
	assert.Equal(t, "Don Norman", logEntry["query"])
}
