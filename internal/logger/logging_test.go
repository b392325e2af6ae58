package logger

import (
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
)

func TestSetup(t *testing.T) {
	prev := log.GetLevel()
	t.Cleanup(func() { log.SetLevel(prev) })

	Setup("info", false)
	assert.Equal(t, log.InfoLevel, log.GetLevel())

	Setup("bogus", false)
	assert.Equal(t, log.WarnLevel, log.GetLevel())

	Setup("error", true)
	assert.Equal(t, log.DebugLevel, log.GetLevel())
}

func TestNewInheritsLevel(t *testing.T) {
	prev := log.GetLevel()
	t.Cleanup(func() { log.SetLevel(prev) })

	log.SetLevel(log.ErrorLevel)
	l := New("loader")
	assert.Equal(t, log.ErrorLevel, l.GetLevel())
	assert.Equal(t, "loader", l.GetPrefix())

	custom := NewWithConfig("srv", log.DebugLevel, false, false, log.JSONFormatter)
	assert.Equal(t, log.DebugLevel, custom.GetLevel())
}
