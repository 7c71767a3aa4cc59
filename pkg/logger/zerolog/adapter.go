package zerolog

import (
	"fmt"

	"github.com/raykavin/pikachart/pkg/logger"
	"github.com/rs/zerolog"
)

// Adapter exposes a zerolog.Logger through logger.Logger.
type Adapter struct {
	*zerolog.Logger
}

func NewAdapter(l *zerolog.Logger) *Adapter {
	return &Adapter{l}
}

// GetLevel implements logger.Logger.
func (z *Adapter) GetLevel() logger.Level {
	return toLevel(z.Logger.GetLevel())
}

// SetLevel implements logger.Logger.
func (z *Adapter) SetLevel(level logger.Level) {
	zerolog.SetGlobalLevel(toZerologLevel(level))
}

// Trace implements logger.Logger.
func (z *Adapter) Trace(args ...any) {
	z.Logger.Trace().Msg(fmt.Sprint(args...))
}

// Debug implements logger.Logger.
func (z *Adapter) Debug(args ...any) {
	z.Logger.Debug().Msg(fmt.Sprint(args...))
}

// Info implements logger.Logger.
func (z *Adapter) Info(args ...any) {
	z.Logger.Info().Msg(fmt.Sprint(args...))
}

// Warn implements logger.Logger.
func (z *Adapter) Warn(args ...any) {
	z.Logger.Warn().Msg(fmt.Sprint(args...))
}

// Error implements logger.Logger.
func (z *Adapter) Error(args ...any) {
	z.Logger.Error().Msg(fmt.Sprint(args...))
}

// Fatal implements logger.Logger.
func (z *Adapter) Fatal(args ...any) {
	z.Logger.Fatal().Msg(fmt.Sprint(args...))
}

func (z *Adapter) Debugf(format string, args ...any) {
	z.Logger.Debug().Msgf(format, args...)
}

// Infof implements logger.Logger.
func (z *Adapter) Infof(format string, args ...any) {
	z.Logger.Info().Msgf(format, args...)
}

// Warnf implements logger.Logger.
func (z *Adapter) Warnf(format string, args ...any) {
	z.Logger.Warn().Msgf(format, args...)
}

// Errorf implements logger.Logger.
func (z *Adapter) Errorf(format string, args ...any) {
	z.Logger.Error().Msgf(format, args...)
}

// WithError implements logger.Logger.
func (z *Adapter) WithError(err error) logger.Logger {
	l := z.With().Err(err).Logger()
	return &Adapter{&l}
}

// WithField implements logger.Logger.
func (z *Adapter) WithField(key string, value any) logger.Logger {
	l := z.With().Interface(key, fmt.Sprint(value)).Logger()
	return &Adapter{&l}
}

// WithFields implements logger.Logger.
func (z *Adapter) WithFields(fields map[string]any) logger.Logger {
	l := z.With().Fields(fields).Logger()
	return &Adapter{&l}
}

var levels = map[zerolog.Level]logger.Level{
	zerolog.Disabled:   logger.Disabled,
	zerolog.NoLevel:    logger.NoLevel,
	zerolog.TraceLevel: logger.TraceLevel,
	zerolog.DebugLevel: logger.DebugLevel,
	zerolog.InfoLevel:  logger.InfoLevel,
	zerolog.WarnLevel:  logger.WarnLevel,
	zerolog.ErrorLevel: logger.ErrorLevel,
	zerolog.FatalLevel: logger.FatalLevel,
}

// toLevel converts zerolog.Level to logger.Level.
func toLevel(level zerolog.Level) logger.Level {
	if l, ok := levels[level]; ok {
		return l
	}
	return logger.NoLevel
}

// toZerologLevel converts logger.Level to zerolog.Level.
func toZerologLevel(level logger.Level) zerolog.Level {
	for zl, l := range levels {
		if l == level {
			return zl
		}
	}
	return zerolog.NoLevel
}
