package logging

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Log is the process-wide logger. It is usable before Init with logrus defaults.
var Log = logrus.New()

// Init configures Log from LOG_LEVEL and LOG_FORMAT. Call it once from main.
func Init() {
	Configure(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"), os.Stdout)
}

func Configure(level, format string, out io.Writer) {
	lvl, err := logrus.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		lvl = logrus.InfoLevel
	}
	Log.SetLevel(lvl)

	if strings.EqualFold(strings.TrimSpace(format), "json") {
		Log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		Log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	if out != nil {
		Log.SetOutput(out)
	}
}

// Component returns an entry tagged with the subsystem name.
func Component(name string) *logrus.Entry {
	return Log.WithField("component", name)
}
