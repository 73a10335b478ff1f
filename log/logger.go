package log

import (
	"io"
	"os"

	"github.com/op/go-logging"
)

// Verbosity levels accepted by SetLevel.
type Level int

const (
	Debug Level = iota
	Info
	Notice
	Warning
	Error
)

// Leveled logger handed out to the package components.
type Logger interface {
	Debug(v ...interface{})
	Debugf(format string, v ...interface{})

	Info(v ...interface{})
	Infof(format string, v ...interface{})

	Notice(v ...interface{})
	Noticef(format string, v ...interface{})

	Warning(v ...interface{})
	Warningf(format string, v ...interface{})

	Error(v ...interface{})
	Errorf(format string, v ...interface{})
}

var lineFormat = logging.MustStringFormatter(
	`%{color}%{time:15:04:05.000} %{module} %{level:.4s}%{color:reset} %{message}`,
)

var backend logging.LeveledBackend

// Create a named logger. Loggers created with the same name share state.
func New(name string) Logger {
	return logging.MustGetLogger(name)
}

// Redirect all logger output to the given sink.
func SetOutput(sink io.Writer) {
	raw := logging.NewLogBackend(sink, "", 0)
	backend = logging.AddModuleLevel(logging.NewBackendFormatter(raw, lineFormat))
	backend.SetLevel(logging.NOTICE, "")
	logging.SetBackend(backend)
}

// Set the verbosity threshold for all loggers.
func SetLevel(level Level) {
	mapped := logging.NOTICE
	switch level {
	case Debug:
		mapped = logging.DEBUG
	case Info:
		mapped = logging.INFO
	case Warning:
		mapped = logging.WARNING
	case Error:
		mapped = logging.ERROR
	}
	backend.SetLevel(mapped, "")
}

func init() {
	SetOutput(os.Stderr)
}
