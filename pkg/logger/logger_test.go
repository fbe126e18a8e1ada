package logger

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewLoggerWritesToConfiguredOutput(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&Config{
		Level:      InfoLevel,
		TimeFormat: time.RFC3339,
		Output:     &buf,
	})

	l.Info("server started")
	assert.Contains(t, buf.String(), "server started")

	// Below the configured level nothing is written.
	buf.Reset()
	l.Debug("noisy detail")
	assert.Empty(t, buf.String())
}

func TestWithFields(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&Config{
		Level:      InfoLevel,
		TimeFormat: time.RFC3339,
		Output:     &buf,
	})

	l.WithFields(map[string]interface{}{"request_id": "abc-123"}).Info("request processed")
	out := buf.String()
	assert.Contains(t, out, "request processed")
	assert.Contains(t, out, "abc-123")
}

func TestZerologCarriesConfiguredLevel(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&Config{
		Level:      WarnLevel,
		TimeFormat: time.RFC3339,
		Output:     &buf,
	})

	zl := l.Zerolog()
	zl.Info().Msg("dropped")
	assert.Empty(t, buf.String())

	zl.Warn().Msg("kept")
	assert.Contains(t, buf.String(), "kept")
}
