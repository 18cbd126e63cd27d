// Package testutil contains helpers shared by package tests.
package testutil

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Logs are discarded unless tests run verbosely
func init() {
	logrus.SetLevel(logrus.TraceLevel)

	if !isVerbose(os.Args[1:]) {
		logrus.SetOutput(io.Discard)
	}
}

func isVerbose(args []string) bool {
	for _, arg := range args {
		switch strings.TrimLeft(arg, "-") {
		case "test.v", "test.v=true":
			return true
		}
	}
	return false
}

// DisableLogging silences the standard logger until reset is called
func DisableLogging() (reset func()) {
	original := logrus.StandardLogger().Out
	logrus.SetOutput(io.Discard)
	return func() {
		logrus.SetOutput(original)
	}
}
