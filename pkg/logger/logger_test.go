package logger

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestSetLevel(t *testing.T) {
	t.Cleanup(func() { SetLevel("info") })

	SetLevel("debug")
	assert.Equal(t, zerolog.DebugLevel, zerolog.GlobalLevel())
	assert.Equal(t, zerolog.DebugLevel, Log.GetLevel())

	SetLevel("not-a-level")
	assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())
}

func TestInit(t *testing.T) {
	t.Cleanup(func() { Init("info", true) })

	Init("error", false)
	assert.Equal(t, zerolog.ErrorLevel, zerolog.GlobalLevel())
	assert.Equal(t, zerolog.ErrorLevel, Log.GetLevel())
}
