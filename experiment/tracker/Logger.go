package tracker

import (
	log "github.com/sirupsen/logrus"
)

// Logger is a Sink which logs scalars. Only scalars generated every
// interval steps are logged.
type Logger struct {
	entry    *log.Entry
	interval int
}

// NewLogger returns a new Logger which logs to entry every interval
// steps. If interval < 1, every scalar is logged.
func NewLogger(entry *log.Entry, interval int) *Logger {
	if interval < 1 {
		interval = 1
	}
	return &Logger{entry, interval}
}

// AddScalar logs the scalar if step falls on the logging interval
func (l *Logger) AddScalar(tag string, value float64, step int) {
	if step%l.interval != 0 {
		return
	}
	l.entry.WithFields(log.Fields{
		"step":  step,
		"value": value,
	}).Info(tag)
}
