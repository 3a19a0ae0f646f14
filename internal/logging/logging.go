package logging

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogArgs is embedded into each tool's Args so every tool accepts --log-level.
type LogArgs struct {
	LogLevel string `arg:"--log-level" default:"info" help:"set the logging level (debug, info, warn, error)"`
}

type Logger struct {
	*zap.SugaredLogger
	level zapcore.Level
}

// NewLogger returns a console logger writing to stdout at the given level.
// An unknown level falls back to info.
func NewLogger(level string) *Logger {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = ""
	encoderConfig.CallerKey = ""
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderConfig),
		zapcore.Lock(os.Stdout),
		zap.NewAtomicLevelAt(lvl),
	)
	return &Logger{SugaredLogger: zap.New(core).Sugar(), level: lvl}
}

// Level reports the level the logger was built with.
func (l *Logger) Level() zapcore.Level {
	return l.level
}

func (l *Logger) Println(args ...interface{}) {
	l.Info(sprintln(args...))
}

func (l *Logger) Printf(format string, args ...interface{}) {
	l.Infof(format, args...)
}

// sprintln formats like fmt.Println without the trailing newline.
func sprintln(args ...interface{}) string {
	s := fmt.Sprintln(args...)
	return s[:len(s)-1]
}
