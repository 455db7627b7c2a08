// Package logger decouples the queue engine from any logging backend. The
// command line passes a *logrus.Logger, library users pass whatever they
// like, and the engine never has to check for nil.
package logger

// Logger receives the engine's diagnostics. Warnf is used for degraded but
// recoverable conditions such as a provider falling back, Debugf for per
// message tracing. *logrus.Logger and *logrus.Entry satisfy it.
type Logger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// Noop drops everything
var Noop Logger = discard{}

type discard struct{}

func (discard) Debugf(string, ...interface{}) {}
func (discard) Infof(string, ...interface{})  {}
func (discard) Warnf(string, ...interface{})  {}
func (discard) Errorf(string, ...interface{}) {}

// OrNoop lets constructors accept an optional logger
func OrNoop(l Logger) Logger {
	if l != nil {
		return l
	}
	return Noop
}
