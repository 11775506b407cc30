package core

// Logger reports application events. Implementations may forward to an
// external error tracker; the extra args may carry an error and the
// acting user.User for context.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
}
