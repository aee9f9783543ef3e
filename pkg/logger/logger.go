package logx

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type Config struct {
	Debug        bool `split_words:"true" default:"false"`
	PrettyFormat bool `split_words:"true" default:"false"`

	// Output names the log sink: "stderr", "stdout", "discard", or a file
	// path opened in append mode. The interactive console owns stdout, so
	// logs default to stderr to keep the transcript clean.
	Output string `split_words:"true" default:"stderr"`
}

var DefaultConfig = &Config{Output: "stderr"}

func safe(opts ...Config) *Config {
	if len(opts) == 0 {
		return DefaultConfig
	}
	return &opts[0]
}

func Init(opts ...Config) {
	conf := safe(opts...)

	target := resolveWriter(conf.Output)

	var w io.Writer = target
	if conf.PrettyFormat {
		w = zerolog.NewConsoleWriter(func(cw *zerolog.ConsoleWriter) {
			cw.Out = target
		})
	}
	log.Logger = zerolog.New(w).With().Timestamp().Logger()

	level := zerolog.InfoLevel
	if conf.Debug {
		level = zerolog.DebugLevel
	}
	log.Logger = log.Logger.Level(level).With().Caller().Stack().Logger()
}

func resolveWriter(name string) io.Writer {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "stderr":
		return os.Stderr
	case "stdout":
		return os.Stdout
	case "discard":
		return io.Discard
	}

	f, err := os.OpenFile(name, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		// A bad path must not kill logging outright.
		return os.Stderr
	}
	return f
}
