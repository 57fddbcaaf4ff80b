// Package logrusconfig builds the prefixed logrus loggers used by the PiFace
// tools. The level can be overridden from the command line after InitParam.
package logrusconfig

import (
	"flag"
	"io"

	prefixed "github.com/BertoldVdb/logrus-prefixed-formatter"
	"github.com/sirupsen/logrus"
)

var (
	loglevel *int
	logcolor *bool
)

func InitParam() {
	loglevel = flag.Int("loglevel", int(logrus.InfoLevel), "The loglevel to use. Valid values are from 0 to 6. Higher values output more information")
	logcolor = flag.Bool("logcolor", false, "Force colored log output")
}

func newLogger(level logrus.Level) *logrus.Logger {
	logrus.ErrorKey = "$error"
	logger := logrus.New()
	if loglevel == nil {
		logger.SetLevel(level)
	} else {
		logger.SetLevel(logrus.Level(*loglevel))
	}
	customFormatter := new(prefixed.TextFormatter)
	customFormatter.TimestampFormat = "2006-01-02 15:04:05.000"
	customFormatter.FullTimestamp = true
	customFormatter.PrefixPadding = 12
	customFormatter.SpacePadding = 60
	customFormatter.ForceColors = logcolor != nil && *logcolor
	logger.SetFormatter(customFormatter)
	return logger
}

// GetLogger returns an entry that prints prefix in front of every message.
// An empty prefix returns a plain entry.
func GetLogger(prefix string, level logrus.Level) *logrus.Entry {
	entry := logrus.NewEntry(newLogger(level))
	if prefix == "" {
		return entry
	}
	return entry.WithField("prefix", prefix)
}

// GetLoggerTo is GetLogger writing to out
func GetLoggerTo(out io.Writer, prefix string, level logrus.Level) *logrus.Entry {
	entry := GetLogger(prefix, level)
	entry.Logger.SetOutput(out)
	return entry
}
