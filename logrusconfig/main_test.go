package logrusconfig

import (
	"bytes"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestPrefix(t *testing.T) {
	var buf bytes.Buffer
	log := GetLoggerTo(&buf, "pfd0", logrus.InfoLevel)

	log.Info("hello")
	log.Debug("hidden")

	if log.Data["prefix"] != "pfd0" {
		t.Error("Prefix missing", log.Data)
	}

	out := buf.String()
	if !strings.Contains(out, "hello") {
		t.Error("Message missing:", out)
	}
	if strings.Contains(out, "hidden") {
		t.Error("Debug message printed at info level:", out)
	}
}

func TestNoPrefix(t *testing.T) {
	log := GetLogger("", logrus.WarnLevel)
	if _, ok := log.Data["prefix"]; ok {
		t.Error("Empty prefix set")
	}
	if log.Logger.GetLevel() != logrus.WarnLevel {
		t.Error("Wrong level", log.Logger.GetLevel())
	}
}

func TestErrorKey(t *testing.T) {
	var buf bytes.Buffer
	log := GetLoggerTo(&buf, "x", logrus.InfoLevel)
	log.WithError(bytes.ErrTooLarge).Error("failed")

	if !strings.Contains(buf.String(), "$error") {
		t.Error("Error key not renamed:", buf.String())
	}
}
