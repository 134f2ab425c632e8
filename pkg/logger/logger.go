// Package logx configures the process-wide zerolog logger.
package logx

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type Config struct {
	Debug        bool `split_words:"true" default:"false"`
	PrettyFormat bool `split_words:"true" default:"false"`
}

var DefaultConfig = &Config{}

// Init replaces the global logger. With PrettyFormat set it writes
// human-readable console output, otherwise JSON lines on stdout.
func Init(opts ...Config) {
	conf := DefaultConfig
	if len(opts) > 0 {
		conf = &opts[0]
	}

	if conf.PrettyFormat {
		log.Logger = zerolog.New(zerolog.NewConsoleWriter()).With().Timestamp().Logger()
	} else {
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	}

	level := zerolog.InfoLevel
	if conf.Debug {
		level = zerolog.DebugLevel
	}
	log.Logger = log.Logger.Level(level).With().Caller().Logger()
}
