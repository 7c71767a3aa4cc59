package logger

type Level int8

const (
	Disabled   Level = -1   // Disabled turns logging off.
	TraceLevel Level = iota // TraceLevel is used for render pipeline tracing.
	DebugLevel              // DebugLevel is used for lifecycle and refresh details.
	InfoLevel               // InfoLevel is used for mount, switch and serve events.
	WarnLevel               // WarnLevel is used for recoverable data problems.
	ErrorLevel              // ErrorLevel is used for backend and export failures.
	FatalLevel              // FatalLevel is used by the CLI before exiting.
	NoLevel                 // NoLevel is used for no logging level.
)

type Logger interface {
	// Returns a logger based off the root logger and decorates it with the given context and arguments.
	WithField(key string, value any) Logger  // WithField returns a logger with the given key-value pair.
	WithFields(fields map[string]any) Logger // WithFields returns a logger with the given fields.
	WithError(err error) Logger              // WithError returns a logger with the given error.

	Trace(args ...any) // Trace logs the message with the trace level.
	Debug(args ...any) // Debug logs the message with the debug level.
	Info(args ...any)  // Info logs the message with the info level.
	Warn(args ...any)  // Warn logs the message with the warning level.
	Error(args ...any) // Error logs the message with the error level.
	Fatal(args ...any) // Fatal logs the message and then exits the program.

	Debugf(format string, args ...any) // Debugf formats and logs the message at debug level.
	Infof(format string, args ...any)  // Infof formats and logs the message at info level.
	Warnf(format string, args ...any)  // Warnf formats and logs the message at warning level.
	Errorf(format string, args ...any) // Errorf formats and logs the message at error level.

	SetLevel(level Level) // SetLevel sets the logging level for the logger.
	GetLevel() Level      // GetLevel returns the logging level for the logger.
}

// Nop returns a logger that discards everything. Components fall back to it
// when no logger is injected.
func Nop() Logger {
	return nop{}
}

type nop struct{}

func (n nop) WithField(string, any) Logger     { return n }
func (n nop) WithFields(map[string]any) Logger { return n }
func (n nop) WithError(error) Logger           { return n }
func (nop) Trace(...any)                       {}
func (nop) Debug(...any)                       {}
func (nop) Info(...any)                        {}
func (nop) Warn(...any)                        {}
func (nop) Error(...any)                       {}
func (nop) Fatal(...any)                       {}
func (nop) Debugf(string, ...any)              {}
func (nop) Infof(string, ...any)               {}
func (nop) Warnf(string, ...any)               {}
func (nop) Errorf(string, ...any)              {}
func (nop) SetLevel(Level)                     {}
func (nop) GetLevel() Level                    { return Disabled }
