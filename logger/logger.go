// Package logger holds the process-wide zerolog logger.
package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Log is the application logger. It is usable before Init is called.
var Log = zerolog.New(os.Stdout).With().Timestamp().Logger()

// Init configures Log for the given level and environment. Development
// uses a human readable console writer, everything else writes JSON.
func Init(level, env string) {
	var out io.Writer = os.Stdout
	if strings.EqualFold(env, "development") {
		out = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	}

	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	Log = zerolog.New(out).Level(lvl).With().Timestamp().Logger()
}

// Silence discards all output. Used by tests.
func Silence() {
	Log = zerolog.Nop()
}
