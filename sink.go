package framelink

import (
	"log/slog"

	"github.com/gabrielgrant/framelink/pkg/slogx"
)

// ErrorSink receives internal failures from the request handler. The broker
// never surfaces these to the requesting frame; it reports them here and keeps
// listening. op is a short description of the operation that failed.
type ErrorSink interface {
	Capture(err error, op string)
}

// ErrorSinkFunc adapts a function to the ErrorSink interface.
type ErrorSinkFunc func(err error, op string)

func (f ErrorSinkFunc) Capture(err error, op string) {
	f(err, op)
}

// LogSink returns a sink that reports failures through slog. It is the
// default when no sink is configured.
func LogSink() ErrorSink {
	return ErrorSinkFunc(func(err error, op string) {
		slog.Error("channel request failed", slogx.Error(err), slog.String("op", op))
	})
}
