package utils

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Log is the process logger. It is usable before InitLogger runs so that
// tests and early startup code never hit a nil logger.
var Log = newLogger(os.Stdout)

func newLogger(out *os.File) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(out)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	l.SetLevel(logrus.InfoLevel)
	return l
}

// InitLogger configures level and output format ("json" or "text").
func InitLogger(level, format string) {
	lvl, err := logrus.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		lvl = logrus.InfoLevel
	}
	Log.SetLevel(lvl)

	if strings.EqualFold(strings.TrimSpace(format), "json") {
		Log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		Log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
}
