// Package netlog provides connection-oriented log service for the NetDIMM
// driver, in the same shape as oryx's logger package:
//
//	netlog.Trace.Println(ctx, ...)
//	netlog.Info.Println(ctx, ...)
//	netlog.Warn.Println(ctx, ...)
//	netlog.Error.Println(ctx, ...)
//
// The correlation id carried by Context is a session id (an xid.ID) rather
// than a goroutine id, since one facade call owns its socket for its entire
// lifetime (see internal/session) instead of multiplexing connections on a
// shared event loop.
package netlog

import (
	"fmt"
	"io"
	"log"
	"os"
)

const (
	labelTrace = "[trace] "
	labelInfo  = "[info] "
	labelWarn  = "[warn] "
	labelError = "[error] "
)

// Context is the optional correlation context passed to every log call.
type Context interface {
	// Cid returns the short string identifying the session this log line
	// belongs to.
	Cid() string
}

// Logger is the minimal logging surface used throughout the driver.
type Logger interface {
	Println(ctx Context, a ...interface{})
}

type loggerPlus struct {
	logger *log.Logger
}

func newLoggerPlus(l *log.Logger) Logger {
	return &loggerPlus{logger: l}
}

func (v *loggerPlus) Println(ctx Context, a ...interface{}) {
	if ctx == nil {
		v.logger.Println(a...)
		return
	}
	a = append([]interface{}{fmt.Sprintf("[%s]", ctx.Cid())}, a...)
	v.logger.Println(a...)
}

// Trace is the default level: session connect and close lines. Written to
// stdout.
var Trace Logger

// Info is the verbose level, discarded unless Switch is called with a
// destination.
var Info Logger

// Warn is written to stderr: recoverable oddities (e.g. TCP_NODELAY could
// not be set).
var Warn Logger

// Error is written to stderr: fatal operation failures.
var Error Logger

func init() {
	Info = newLoggerPlus(log.New(io.Discard, labelInfo, log.Ldate|log.Ltime|log.Lmicroseconds))
	Trace = newLoggerPlus(log.New(os.Stdout, labelTrace, log.Ldate|log.Ltime|log.Lmicroseconds))
	Warn = newLoggerPlus(log.New(os.Stderr, labelWarn, log.Ldate|log.Ltime|log.Lmicroseconds))
	Error = newLoggerPlus(log.New(os.Stderr, labelError, log.Ldate|log.Ltime|log.Lmicroseconds))
}

// Switch redirects Trace, Info, Warn and Error to w. Used by tests that want
// to capture output instead of writing to stdout/stderr.
func Switch(w io.Writer) {
	Info = newLoggerPlus(log.New(w, labelInfo, log.Ldate|log.Ltime|log.Lmicroseconds))
	Trace = newLoggerPlus(log.New(w, labelTrace, log.Ldate|log.Ltime|log.Lmicroseconds))
	Warn = newLoggerPlus(log.New(w, labelWarn, log.Ldate|log.Ltime|log.Lmicroseconds))
	Error = newLoggerPlus(log.New(w, labelError, log.Ldate|log.Ltime|log.Lmicroseconds))
}

// Mute discards all log output. Used by tests that don't want log noise.
func Mute() {
	Switch(io.Discard)
}
