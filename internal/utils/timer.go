package utils

import (
	"time"

	"github.com/sirupsen/logrus"
)

// Timer measures one scoped operation and logs its duration when stopped.
//
//	defer utils.StartTimer(log, "nearzerovar").Stop()
type Timer struct {
	log    logrus.FieldLogger
	name   string
	fields logrus.Fields
	start  time.Time
}

// StartTimer starts timing the named operation.
func StartTimer(log logrus.FieldLogger, name string) *Timer {
	return &Timer{log: log, name: name, start: time.Now()}
}

// With attaches extra fields to the log line written by Stop.
func (t *Timer) With(key string, value any) *Timer {
	if t.fields == nil {
		t.fields = logrus.Fields{}
	}
	t.fields[key] = value
	return t
}

// Stop logs the elapsed time at debug level and returns it.
func (t *Timer) Stop() time.Duration {
	elapsed := time.Since(t.start)
	if t.log != nil {
		f := logrus.Fields{"analysis": t.name, "elapsed_ms": float64(elapsed.Microseconds()) / 1000}
		for k, v := range t.fields {
			f[k] = v
		}
		t.log.WithFields(f).Debug("analysis finished")
	}
	return elapsed
}
