package zerolog

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/goterm/term"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/pkgerrors"
)

const (
	messageWidth = 72
	callerWidth  = 16
	lineWidth    = 4
)

// Config drives the console writer built by New.
type Config struct {
	Level      string
	TimeLayout string
	Colored    bool
	JSON       bool
	Out        io.Writer
}

// New builds a zerolog logger writing to cfg.Out (stdout when nil). JSON mode
// skips the console formatting so log shippers get raw events.
func New(cfg Config) (*zerolog.Logger, error) {
	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack

	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}
	zerolog.SetGlobalLevel(level)

	out := cfg.Out
	if out == nil {
		out = os.Stdout
	}

	if cfg.JSON {
		l := zerolog.New(out).With().Timestamp().Logger()
		return &l, nil
	}

	console := zerolog.ConsoleWriter{
		Out:             out,
		NoColor:         !cfg.Colored,
		TimeFormat:      cfg.TimeLayout,
		FormatLevel:     formatLevel,
		FormatMessage:   formatMessage,
		FormatCaller:    formatCaller,
		FormatTimestamp: func(i any) string { return formatTimestamp(i, cfg.TimeLayout) },
	}

	l := zerolog.New(console).
		With().
		Timestamp().
		CallerWithSkipFrameCount(3).
		Logger()

	return &l, nil
}

func formatLevel(i any) string {
	level, _ := i.(string)
	switch level {
	case zerolog.LevelTraceValue:
		return term.Cyanf("[TRC]")
	case zerolog.LevelDebugValue:
		return term.Cyanf("[DBG]")
	case zerolog.LevelInfoValue:
		return term.Greenf("[INF]")
	case zerolog.LevelWarnValue:
		return term.Yellowf("[WAR]")
	case zerolog.LevelErrorValue:
		return term.Redf("[ERR]")
	case zerolog.LevelFatalValue, zerolog.LevelPanicValue:
		return term.Redf("[FTL]")
	default:
		return term.Whitef("[UNK]")
	}
}

func formatMessage(i any) string {
	msg, ok := i.(string)
	if !ok || msg == "" {
		return ">"
	}

	if len(msg) > messageWidth {
		msg = msg[:messageWidth]
	}

	return term.Whitef("> %-*s", messageWidth, msg)
}

func formatCaller(i any) string {
	name, ok := i.(string)
	if !ok || name == "" {
		return ""
	}

	file, line, found := strings.Cut(filepath.Base(name), ":")
	if !found {
		return term.Yellowf("[%s]", file)
	}

	if len(file) > callerWidth {
		file = file[:callerWidth]
	}
	if len(line) > lineWidth {
		line = line[len(line)-lineWidth:]
	}

	return term.Yellowf("[%-*s:%*s]", callerWidth, file, lineWidth, line)
}

func formatTimestamp(i any, layout string) string {
	raw, ok := i.(string)
	if !ok {
		return term.Cyanf("[%v]", i)
	}

	if ts, err := time.ParseInLocation(time.RFC3339, raw, time.Local); err == nil {
		raw = ts.In(time.Local).Format(layout)
	}

	return term.Cyanf("[%s]", raw)
}
