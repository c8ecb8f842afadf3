package notify

import "log"

// logger is the slice of *log.Logger the package needs; kept as an
// interface so tests can capture output.
type logger interface {
	Printf(format string, v ...any)
}

func ensureLogger(l *log.Logger) logger {
	if l == nil {
		return log.Default()
	}
	return l
}
