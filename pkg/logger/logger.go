package logger

import (
	"os"
	"strings"

	waLog "go.mau.fi/whatsmeow/util/log"
)

// Logger groups the service loggers. Components take App.Sub("<Name>").
type Logger struct {
	App  waLog.Logger
	HTTP waLog.Logger
}

// New builds stdout loggers. Color is disabled when NO_COLOR is set.
func New(level string) *Logger {
	level = strings.ToUpper(strings.TrimSpace(level))
	switch level {
	case "DEBUG", "INFO", "WARN", "ERROR":
	default:
		level = "INFO"
	}
	app := waLog.Stdout("SnapCode", level, os.Getenv("NO_COLOR") == "")
	return &Logger{
		App:  app,
		HTTP: app.Sub("HTTP"),
	}
}

func (l *Logger) Component(name string) waLog.Logger {
	return l.App.Sub(name)
}

func InitForTests() *Logger {
	return &Logger{App: waLog.Stdout("Test", "DEBUG", false), HTTP: waLog.Noop}
}

func DisableColor() {
	os.Setenv("NO_COLOR", "1")
}
