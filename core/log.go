package core

// Logger is any leveled logger the app can report through.
// Implementations may recognize special argument types (eg. a logged-in user)
// and attach them to the report instead of printing them.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}
