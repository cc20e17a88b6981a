// Package utils holds small helpers shared across packages.
package utils

import (
	"time"

	"github.com/rs/zerolog"
)

// SlowThreshold is the duration above which a timed operation is logged at warn level
const SlowThreshold = 10 * time.Second

// Timer measures how long an operation takes and logs it on Stop
type Timer struct {
	start time.Time
	name  string
	log   zerolog.Logger
	now   func() time.Time
}

// NewTimer starts a timer for the named operation
func NewTimer(name string, log zerolog.Logger) *Timer {
	return &Timer{start: time.Now(), name: name, log: log, now: time.Now}
}

// Stop logs the elapsed time and returns it
func (t *Timer) Stop() time.Duration {
	return t.StopWithFields(nil)
}

// StopWithFields logs the elapsed time with extra fields and returns it.
// Operations slower than SlowThreshold are logged as warnings.
func (t *Timer) StopWithFields(fields map[string]interface{}) time.Duration {
	duration := t.now().Sub(t.start)

	event := t.log.Debug()
	msg := "Operation completed"
	if duration > SlowThreshold {
		event = t.log.Warn()
		msg = "Slow operation detected"
	}

	event.
		Str("operation", t.name).
		Dur("duration_ms", duration).
		Fields(fields).
		Msg(msg)

	return duration
}
