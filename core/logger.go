package core

// Logger is any leveled logging service.
// Implementations may inspect args for well-known types (e.g. the
// authenticated account) and report them with additional context.
type Logger interface {
	Enable(enabled bool)
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}
