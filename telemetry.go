package keyprotect

import (
	"github.com/sirupsen/logrus"
)

// operationLogger attaches standardized fields to every log line emitted
// by a single keyprotect operation. It never logs secret material, only
// sizes and outcomes.
type operationLogger struct {
	fields logrus.Fields
}

// newOperationLogger starts a logger scoped to one call of op.
func newOperationLogger(op string) *operationLogger {
	return &operationLogger{
		fields: logrus.Fields{
			"package":   "keyprotect",
			"operation": op,
		},
	}
}

func (l *operationLogger) withField(key string, value interface{}) *operationLogger {
	l.fields[key] = value
	return l
}

func (l *operationLogger) entry() {
	logrus.WithFields(l.fields).Debug("operation entry")
}

func (l *operationLogger) exit() {
	logrus.WithFields(l.fields).Debug("operation exit")
}

// fail logs the failure at Warn level, attaching the error kind, and
// returns err unchanged so it can be used inline: `return nil, l.fail(err)`.
func (l *operationLogger) fail(err *Error) *Error {
	logrus.WithFields(l.fields).
		WithField("error_kind", err.Kind.String()).
		Warn(err.Error())
	return err
}
