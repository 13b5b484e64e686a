package utils_test

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"

	"github.com/yasinhessnawi1/Natours_Backend/internal/config"
	"github.com/yasinhessnawi1/Natours_Backend/internal/utils"
)

// captureOutput captures log output for testing
func captureOutput(fn func()) string {
	original := log.Logger
	originalLevel := zerolog.GlobalLevel()

	var buf bytes.Buffer
	log.Logger = zerolog.New(&buf).With().Timestamp().Logger()
	zerolog.SetGlobalLevel(zerolog.DebugLevel)

	fn()

	log.Logger = original
	zerolog.SetGlobalLevel(originalLevel)
	return buf.String()
}

func TestInitLogger(t *testing.T) {
	originalLogger := log.Logger
	originalLevel := zerolog.GlobalLevel()
	defer func() {
		log.Logger = originalLogger
		zerolog.SetGlobalLevel(originalLevel)
	}()

	cfg := &config.AppConfig{
		App:     config.AppSettings{Name: "natours", Version: "1.0.0", Environment: "testing"},
		Logging: config.LoggingSettings{Level: "warn", Format: "json"},
	}

	utils.InitLogger(cfg)

	assert.Equal(t, zerolog.WarnLevel, zerolog.GlobalLevel())
}

func TestInitLogger_InvalidLevelFallsBackToInfo(t *testing.T) {
	originalLogger := log.Logger
	originalLevel := zerolog.GlobalLevel()
	defer func() {
		log.Logger = originalLogger
		zerolog.SetGlobalLevel(originalLevel)
	}()

	utils.InitLogger(&config.AppConfig{Logging: config.LoggingSettings{Level: "loud"}})

	assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())
}

func TestLogHTTPRequest(t *testing.T) {
	output := captureOutput(func() {
		utils.LogHTTPRequest("req-1", "GET", "/api/v1/tours", "127.0.0.1", "curl", 500, 15*time.Millisecond)
	})

	assert.Contains(t, output, `"level":"error"`)
	assert.Contains(t, output, `"request_id":"req-1"`)
	assert.Contains(t, output, `"status":500`)
}

func TestLogError(t *testing.T) {
	output := captureOutput(func() {
		utils.LogError(errors.New("boom"), map[string]interface{}{"path": "/api/v1/tours", "attempt": 2})
	})

	assert.Contains(t, output, `"error":"boom"`)
	assert.Contains(t, output, `"path":"/api/v1/tours"`)
	assert.Contains(t, output, `"attempt":2`)
}

func TestLogPanic(t *testing.T) {
	output := captureOutput(func() {
		utils.LogPanic("req-1", "GET", "/boom", "kaboom", []byte("stack trace"))
	})

	assert.Contains(t, output, `"request_id":"req-1"`)

	assert.Contains(t, output, "kaboom")
	assert.Contains(t, output, "stack trace")
}

func TestLogDBQuery(t *testing.T) {
	output := captureOutput(func() {
		utils.LogDBQuery("UPDATE users SET password_hash = $1 WHERE id = $2", []interface{}{"secret-hash", int64(1)}, time.Millisecond, nil)
	})

	assert.Contains(t, output, "[REDACTED]")
	assert.NotContains(t, output, "secret-hash")

	output = captureOutput(func() {
		utils.LogDBQuery("SELECT id FROM tours WHERE slug = $1", []interface{}{"the-forest-hiker"}, time.Millisecond, errors.New("fail"))
	})

	assert.Contains(t, output, "the-forest-hiker")
	assert.Contains(t, output, `"level":"error"`)
}

func TestLogAuth(t *testing.T) {
	output := captureOutput(func() {
		utils.LogAuth("login", 7, "jonas@natours.io", false, "bad password")
	})

	assert.Contains(t, output, `"level":"warn"`)
	assert.Contains(t, output, `"user_id":7`)
	assert.Contains(t, output, "j***s@natours.io")
	assert.True(t, strings.Contains(output, "bad password"))
}

