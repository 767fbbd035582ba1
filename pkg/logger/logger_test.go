package logger

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestNewWritesServiceField(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(Options{ServiceName: "inventory", Level: "debug", Output: buf})

	log.Info().Str("email", "a@b.co").Msg("registered")

	assert.Contains(t, buf.String(), `"service":"inventory"`)
	assert.Contains(t, buf.String(), `"message":"registered"`)
}

func TestLevelFiltersDebug(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(Options{ServiceName: "inventory", Level: "warn", Output: buf})

	log.Debug().Msg("hidden")
	assert.Empty(t, buf.String())
}

func TestParseLevelDefaults(t *testing.T) {
	assert.Equal(t, zerolog.InfoLevel, ParseLevel(""))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel("invalid"))
	assert.Equal(t, zerolog.DebugLevel, ParseLevel(" DEBUG "))
}
