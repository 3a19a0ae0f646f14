package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zapcore"
)

func TestNewLoggerLevels(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, NewLogger("debug").Level())
	assert.Equal(t, zapcore.WarnLevel, NewLogger("warn").Level())
	assert.Equal(t, zapcore.InfoLevel, NewLogger("not-a-level").Level())
	assert.Equal(t, zapcore.InfoLevel, NewLogger("").Level())
}

func TestSprintln(t *testing.T) {
	assert.Equal(t, "a 1 true", sprintln("a", 1, true))
	assert.Equal(t, "", sprintln())
}
